package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/elliotchance/pie/v2"

	authModel "github.com/zhouzirui/faq-assistant/internal/model/auth"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/service/admin"
	authService "github.com/zhouzirui/faq-assistant/internal/service/auth"
)

const maxSuggestions = 5

type command struct {
	usage string
	help  string
	admin bool
	// run is nil for /quit.
	run func(c *Console, ctx context.Context, arg string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"/start":     {help: "start a support session", run: (*Console).cmdStart},
		"/end":       {help: "end the session and rate it", run: (*Console).cmdEnd},
		"/rate":      {usage: "<1-5>", help: "set the session rating", run: (*Console).cmdRate},
		"/satisfied": {usage: "<yes|no>", help: "set whether the session helped", run: (*Console).cmdSatisfied},
		"/comment":   {usage: "<text>", help: "set the feedback comment", run: (*Console).cmdComment},
		"/submit":    {help: "send the feedback and close the session", run: (*Console).cmdSubmit},
		"/cancel":    {help: "go back to the session without rating", run: (*Console).cmdCancel},
		"/good":      {help: "mark the last answer as helpful", run: (*Console).cmdGood},
		"/bad":       {help: "mark the last answer as not helpful", run: (*Console).cmdBad},
		"/top":       {help: "show popular questions", run: (*Console).cmdTop},
		"/ask":       {usage: "<n>", help: "ask popular question n", run: (*Console).cmdAsk},
		"/login":     {usage: "<user> <password>", help: "log in", run: (*Console).cmdLogin},
		"/register":  {usage: "<user> <email> <password> [employee|admin]", help: "create an account", run: (*Console).cmdRegister},
		"/logout":    {help: "log out", run: (*Console).cmdLogout},
		"/whoami":    {help: "show the logged-in user", run: (*Console).cmdWhoami},
		"/faqs":      {help: "list FAQs", admin: true, run: (*Console).cmdFAQs},
		"/search":    {usage: "<text>", help: "search FAQs", admin: true, run: (*Console).cmdSearch},
		"/add":       {usage: "<question> | <answer>", help: "add an FAQ", admin: true, run: (*Console).cmdAdd},
		"/edit":      {usage: "<id> <question> | <answer>", help: "update an FAQ", admin: true, run: (*Console).cmdEdit},
		"/delete":    {usage: "<id>", help: "delete an FAQ", admin: true, run: (*Console).cmdDelete},
		"/dashboard": {help: "show analytics", admin: true, run: (*Console).cmdDashboard},
		"/retry":     {help: "reload the dashboard after an error", admin: true, run: (*Console).cmdRetry},
		"/help":      {help: "show this help", run: (*Console).cmdHelp},
		"/quit":      {help: "exit"},
	}
}

func (c *Console) cmdStart(ctx context.Context, _ string) error {
	return c.mgr.StartSession(ctx)
}

func (c *Console) cmdEnd(context.Context, string) error {
	if err := c.mgr.EndSession(); err != nil {
		return err
	}
	c.printDraft()
	return nil
}

func (c *Console) cmdRate(_ context.Context, arg string) error {
	rating, err := strconv.Atoi(arg)
	if err != nil {
		return errors.New("usage: /rate <1-5>")
	}
	if err := c.mgr.SetRating(rating); err != nil {
		return err
	}
	c.printDraft()
	return nil
}

func (c *Console) cmdSatisfied(_ context.Context, arg string) error {
	var satisfied bool
	switch strings.ToLower(arg) {
	case "yes", "y", "true":
		satisfied = true
	case "no", "n", "false":
	default:
		return errors.New("usage: /satisfied <yes|no>")
	}
	if err := c.mgr.SetSatisfied(satisfied); err != nil {
		return err
	}
	c.printDraft()
	return nil
}

func (c *Console) cmdComment(_ context.Context, arg string) error {
	if err := c.mgr.SetComment(arg); err != nil {
		return err
	}
	c.printDraft()
	return nil
}

func (c *Console) cmdSubmit(ctx context.Context, _ string) error {
	return c.mgr.SubmitFeedbackAndEndSession(ctx)
}

func (c *Console) cmdCancel(context.Context, string) error {
	return c.mgr.CancelFeedback()
}

func (c *Console) cmdGood(context.Context, string) error {
	if err := c.mgr.InstantFeedback(true); err != nil {
		return err
	}
	c.printf(c.notice, "Thanks for your feedback!\n")
	return nil
}

func (c *Console) cmdBad(context.Context, string) error {
	if err := c.mgr.InstantFeedback(false); err != nil {
		return err
	}
	c.printf(c.notice, "Thanks for your feedback!\n")
	return nil
}

func (c *Console) cmdTop(ctx context.Context, _ string) error {
	items, err := c.analytics.TopQuestions(ctx)
	if err != nil {
		return err
	}

	questions := pie.Top(pie.Map(items, func(q faq.TopQuestion) string { return q.Question }), maxSuggestions)
	c.mu.Lock()
	c.suggestions = questions
	c.mu.Unlock()

	if len(questions) == 0 {
		c.printf(c.muted, "No popular questions yet.\n")
		return nil
	}
	for i, q := range questions {
		c.println(fmt.Sprintf("  %d. %s", i+1, q))
	}
	c.printf(c.muted, "Use /ask <n> to ask one.\n")
	return nil
}

func (c *Console) cmdAsk(ctx context.Context, arg string) error {
	n, err := strconv.Atoi(arg)

	c.mu.Lock()
	suggestions := c.suggestions
	c.mu.Unlock()

	if err != nil || n < 1 || n > len(suggestions) {
		return errors.New("usage: /ask <n>, after /top")
	}
	c.send(ctx, suggestions[n-1])
	return nil
}

func (c *Console) cmdLogin(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return errors.New("usage: /login <user> <password>")
	}
	user, err := c.auth.Login(ctx, authModel.Credentials{Username: fields[0], Password: fields[1]})
	if err != nil {
		return errors.New(authService.FormError(err))
	}
	c.welcome(user)
	return nil
}

func (c *Console) cmdRegister(ctx context.Context, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) < 3 || len(fields) > 4 {
		return errors.New("usage: /register <user> <email> <password> [employee|admin]")
	}
	role := authModel.RoleEmployee
	if len(fields) == 4 {
		role = authModel.Role(fields[3])
	}
	user, err := c.auth.Register(ctx, authModel.Registration{
		Username: fields[0],
		Email:    fields[1],
		Password: fields[2],
		Role:     role,
	})
	if err != nil {
		return errors.New(authService.FormError(err))
	}
	c.welcome(user)
	return nil
}

func (c *Console) cmdLogout(ctx context.Context, _ string) error {
	err := c.auth.Logout(ctx)
	c.mgr.SetUsername("")
	if err != nil {
		c.printf(c.fail, "%s\n", c.auth.Banner())
		return nil
	}
	c.printf(c.notice, "Logged out.\n")
	return nil
}

func (c *Console) cmdWhoami(context.Context, string) error {
	user := c.auth.User()
	if user == nil {
		c.printf(c.muted, "Not logged in.\n")
		return nil
	}
	c.println(fmt.Sprintf("%s (%s)", user.Username, user.Role))
	return nil
}

func (c *Console) welcome(user *authModel.User) {
	c.mgr.SetUsername(user.Username)
	c.printf(c.notice, "Welcome, %s!\n", user.Username)
}

func (c *Console) cmdFAQs(ctx context.Context, _ string) error {
	items, err := c.faqs.Refresh(ctx)
	if err != nil {
		return err
	}
	c.printFAQs(items)
	return nil
}

func (c *Console) cmdSearch(ctx context.Context, arg string) error {
	items, err := c.faqs.Search(ctx, arg)
	if err != nil {
		return err
	}
	c.printFAQs(items)
	return nil
}

func (c *Console) cmdAdd(ctx context.Context, arg string) error {
	question, answer, _ := strings.Cut(arg, "|")
	created, err := c.faqs.Add(ctx, faq.Input{Question: strings.TrimSpace(question), Answer: strings.TrimSpace(answer)})
	if err != nil {
		return err
	}
	c.printf(c.notice, "Added FAQ %s.\n", created.ID)
	return nil
}

func (c *Console) cmdEdit(ctx context.Context, arg string) error {
	id, rest, _ := strings.Cut(arg, " ")
	question, answer, _ := strings.Cut(rest, "|")
	if id == "" {
		return errors.New("usage: /edit <id> <question> | <answer>")
	}
	if _, err := c.faqs.Update(ctx, id, faq.Input{Question: strings.TrimSpace(question), Answer: strings.TrimSpace(answer)}); err != nil {
		return err
	}
	c.printf(c.notice, "Updated FAQ %s.\n", id)
	return nil
}

func (c *Console) cmdDelete(ctx context.Context, arg string) error {
	if arg == "" {
		return errors.New("usage: /delete <id>")
	}
	if err := c.faqs.Delete(ctx, arg); err != nil {
		return err
	}
	c.printf(c.notice, "Deleted FAQ %s.\n", arg)
	return nil
}

func (c *Console) cmdDashboard(ctx context.Context, _ string) error {
	c.printf(c.muted, "Loading dashboard data...\n")
	data, err := c.dashboard.Load(ctx)
	c.printDashboard(data, err)
	return nil
}

func (c *Console) cmdRetry(ctx context.Context, _ string) error {
	data, err := c.dashboard.Retry(ctx)
	c.printDashboard(data, err)
	return nil
}

func (c *Console) cmdHelp(context.Context, string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		line := name
		if cmd.usage != "" {
			line += " " + cmd.usage
		}
		suffix := ""
		if cmd.admin {
			suffix = " (admin)"
		}
		c.println(fmt.Sprintf("  %-48s %s%s", line, cmd.help, suffix))
	}
	return nil
}

func (c *Console) printDraft() {
	draft, ok := c.mgr.Draft()
	if !ok {
		return
	}
	satisfied := "yes"
	if !draft.Satisfied {
		satisfied = "no"
	}
	c.printf(c.notice, "Feedback: satisfied=%s rating=%d comment=%q  (/submit to send, /cancel to go back)\n",
		satisfied, draft.Rating, draft.Comment)
}

func (c *Console) printFAQs(items []faq.FAQ) {
	if len(items) == 0 {
		c.printf(c.muted, "No FAQs found.\n")
		return
	}
	for _, item := range items {
		c.println(fmt.Sprintf("  [%s] %s", item.ID, item.Question))
		c.printf(c.muted, "      %s\n", item.Answer)
	}
}

func (c *Console) printDashboard(data admin.DashboardData, err error) {
	if err != nil {
		c.printf(c.fail, "Error Loading Dashboard: %s\n", c.dashboard.ErrorText())
		if n := c.dashboard.Retries(); n > 0 {
			c.printf(c.muted, "Retry attempt: %d\n", n)
		}
		c.printf(c.muted, "Use /retry to try again.\n")
		return
	}

	printSeries := func(title string, s *admin.Series) {
		c.printf(c.notice, "%s\n", title)
		if s == nil {
			c.printf(c.muted, "  No data available.\n")
			return
		}
		for i, label := range s.Labels {
			c.println(fmt.Sprintf("  %-40s %4d %s", label, s.Values[i], strings.Repeat("#", min(s.Values[i], 40))))
		}
	}
	printSeries("Top Questions", data.TopQuestions)
	printSeries("Daily Questions", data.DailyQuestions)

	c.printf(c.notice, "Customer Satisfaction\n")
	if data.CSAT == nil {
		c.printf(c.muted, "  No CSAT data available.\n")
		return
	}
	c.println(fmt.Sprintf("  %.1f%%", *data.CSAT))
}
