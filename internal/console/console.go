// Package console is the terminal front end of the FAQ assistant.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/zhouzirui/faq-assistant/internal/api"
	"github.com/zhouzirui/faq-assistant/internal/model/chat"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/service/admin"
	authService "github.com/zhouzirui/faq-assistant/internal/service/auth"
	"github.com/zhouzirui/faq-assistant/internal/service/session"
)

// TopQuestioner supplies the quick-question suggestions.
type TopQuestioner interface {
	TopQuestions(ctx context.Context) ([]faq.TopQuestion, error)
}

// Options wires a Console.
type Options struct {
	In        io.Reader
	Out       io.Writer
	Manager   *session.Manager
	Auth      *authService.Service
	FAQs      *admin.FAQs
	Dashboard *admin.Dashboard
	Analytics TopQuestioner
	Logger    *slog.Logger
}

// Console reads commands and chat lines and renders the transcript.
type Console struct {
	in        io.Reader
	mgr       *session.Manager
	auth      *authService.Service
	faqs      *admin.FAQs
	dashboard *admin.Dashboard
	analytics TopQuestioner
	logger    *slog.Logger

	mu          sync.Mutex
	out         io.Writer
	printed     int
	lastFirst   chat.Message
	suggestions []string

	user   *color.Color
	bot    *color.Color
	notice *color.Color
	fail   *color.Color
	muted  *color.Color
}

func New(opts Options) *Console {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{
		in:        opts.In,
		out:       opts.Out,
		mgr:       opts.Manager,
		auth:      opts.Auth,
		faqs:      opts.FAQs,
		dashboard: opts.Dashboard,
		analytics: opts.Analytics,
		logger:    logger,
		user:      color.New(color.FgGreen, color.Bold),
		bot:       color.New(color.FgCyan),
		notice:    color.New(color.FgYellow),
		fail:      color.New(color.FgRed),
		muted:     color.New(color.Faint),
	}
}

// Run processes input until EOF, /quit or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := c.mgr.Subscribe(c.render)
	defer unsubscribe()

	if banner := c.auth.Banner(); banner != "" {
		c.printf(c.fail, "%s\n", banner)
	}
	c.render(c.mgr.Snapshot())
	c.printf(c.muted, "Type a question, or /help for commands.\n")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line := <-lines:
			if quit := c.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs one input line and reports whether the user asked to quit.
func (c *Console) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		c.send(ctx, line)
		return false
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	cmd, ok := commands[name]
	if !ok {
		c.printf(c.fail, "Unknown command %s. Type /help.\n", name)
		return false
	}
	if cmd.admin && !c.auth.IsAdmin() {
		c.printf(c.fail, "Admin access required. Log in with an admin account.\n")
		return false
	}
	if cmd.run == nil {
		return true
	}
	if err := cmd.run(c, ctx, arg); err != nil {
		c.reportError(err)
	}
	return false
}

func (c *Console) send(ctx context.Context, text string) {
	if _, err := c.mgr.SendMessage(ctx, text); err != nil {
		c.reportError(err)
	}
}

// render prints the messages added since the last call. A transcript that
// was reset is printed again from the start.
func (c *Console) render(s session.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(s.Messages) == 0 {
		return
	}
	if len(s.Messages) < c.printed || s.Messages[0] != c.lastFirst {
		c.printed = 0
		c.lastFirst = s.Messages[0]
	}

	for _, msg := range s.Messages[c.printed:] {
		c.printMessageLocked(msg)
	}
	newMessages := len(s.Messages) > c.printed
	c.printed = len(s.Messages)

	if newMessages && s.InstantFeedback {
		last := s.Messages[len(s.Messages)-1]
		if last.Role == chat.RoleBot && last.Exchange != 0 {
			c.muted.Fprintf(c.out, "  Was this helpful? /good or /bad\n")
		}
	}
}

func (c *Console) printMessageLocked(msg chat.Message) {
	if msg.Role == chat.RoleUser {
		c.user.Fprintf(c.out, "you> ")
		fmt.Fprintln(c.out, msg.Text)
		return
	}

	c.bot.Fprintf(c.out, "bot> ")
	fmt.Fprintln(c.out, msg.Text)
	if meta := describe(msg); meta != "" {
		c.muted.Fprintf(c.out, "     [%s]\n", meta)
	}
	if msg.RequiresHuman {
		c.notice.Fprintf(c.out, "     This question may need a support agent.\n")
	}
}

func describe(msg chat.Message) string {
	var parts []string
	if msg.Source != "" {
		parts = append(parts, msg.Source)
	}
	if msg.Confidence != nil {
		parts = append(parts, fmt.Sprintf("confidence %.2f", *msg.Confidence))
	}
	if msg.Similarity != nil {
		parts = append(parts, fmt.Sprintf("similarity %.2f", *msg.Similarity))
	}
	if emotions := msg.Emotions(); len(emotions) > 0 {
		parts = append(parts, "emotions: "+strings.Join(emotions, ", "))
	}
	return strings.Join(parts, " | ")
}

func (c *Console) reportError(err error) {
	var actionErr *admin.ActionError
	switch {
	case errors.As(err, &actionErr):
		c.printf(c.fail, "%s\n", actionErr.Message)
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrSessionActive), errors.Is(err, session.ErrEmptyMessage):
		c.printf(c.fail, "%s\n", err)
	case api.IsUnauthorized(err):
		c.printf(c.fail, "Please log in first.\n")
	default:
		msg := api.UserMessage(err)
		if api.KindOf(err) == api.KindUnknown {
			msg = err.Error()
		}
		c.printf(c.fail, "%s\n", msg)
	}
}

func (c *Console) printf(col *color.Color, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col.Fprintf(c.out, format, args...)
}

func (c *Console) println(args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, args...)
}
