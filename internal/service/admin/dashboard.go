package admin

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/elliotchance/pie/v2"
	"golang.org/x/sync/errgroup"

	"github.com/zhouzirui/faq-assistant/internal/api"
	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

const unknownLabel = "Unknown"

// AnalyticsAPI is the subset of the API client the dashboard reads.
type AnalyticsAPI interface {
	TopQuestions(ctx context.Context) ([]faq.TopQuestion, error)
	DailyQuestionCounts(ctx context.Context) ([]faq.DailyCount, error)
	CSAT(ctx context.Context) (*float64, error)
}

// Series is one chart: parallel labels and values.
type Series struct {
	Name   string
	Labels []string
	Values []int
}

// DashboardData is what one load produced. Charts without data are nil.
type DashboardData struct {
	TopQuestions   *Series
	DailyQuestions *Series
	CSAT           *float64
}

// Dashboard loads the three analytics endpoints together.
type Dashboard struct {
	api    AnalyticsAPI
	logger *slog.Logger

	mu      sync.Mutex
	data    DashboardData
	errText string
	retries int
}

// NewDashboard builds a dashboard. Pass a client configured with the
// dashboard timeout.
func NewDashboard(analytics AnalyticsAPI, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{api: analytics, logger: logger}
}

// Load fetches all charts concurrently. A failing chart is left empty and
// its error text is reported; the other charts still load.
func (d *Dashboard) Load(ctx context.Context) (DashboardData, error) {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		data DashboardData
	)

	g.Go(func() error {
		items, err := d.api.TopQuestions(ctx)
		if err != nil {
			d.logger.Error("error fetching top questions", "err", err)
			return loadError(err, "Failed to load top questions data")
		}
		series := topQuestionSeries(items)
		mu.Lock()
		data.TopQuestions = series
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		items, err := d.api.DailyQuestionCounts(ctx)
		if err != nil {
			d.logger.Error("error fetching daily counts", "err", err)
			return loadError(err, "Failed to load daily counts data")
		}
		series := dailySeries(items)
		mu.Lock()
		data.DailyQuestions = series
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		score, err := d.api.CSAT(ctx)
		if err != nil {
			d.logger.Error("error fetching CSAT data", "err", err)
			return loadError(err, "Failed to load CSAT data")
		}
		mu.Lock()
		data.CSAT = score
		mu.Unlock()
		return nil
	})

	err := g.Wait()

	d.mu.Lock()
	d.data = data
	d.errText = ""
	var actionErr *ActionError
	if errors.As(err, &actionErr) {
		d.errText = actionErr.Message
	}
	d.mu.Unlock()

	return data, err
}

// Retry counts the attempt and loads again.
func (d *Dashboard) Retry(ctx context.Context) (DashboardData, error) {
	d.mu.Lock()
	d.retries++
	d.mu.Unlock()
	return d.Load(ctx)
}

// Retries is the number of Retry calls so far.
func (d *Dashboard) Retries() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.retries
}

// ErrorText is the message of the last failed load, empty after success.
func (d *Dashboard) ErrorText() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errText
}

// Data is the result of the last load.
func (d *Dashboard) Data() DashboardData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

func loadError(err error, fallback string) error {
	msg := fallback
	switch api.KindOf(err) {
	case api.KindTimeout:
		msg = api.UserMessage(err)
	case api.KindUnauthorized:
		msg = "Authentication required. Please log in again."
	case api.KindServer:
		msg = api.UserMessage(err)
	}
	return &ActionError{Message: msg, Err: err}
}

func topQuestionSeries(items []faq.TopQuestion) *Series {
	if len(items) == 0 {
		return nil
	}
	return &Series{
		Name:   "Question Count",
		Labels: pie.Map(items, func(i faq.TopQuestion) string { return labelOr(i.Question) }),
		Values: pie.Map(items, func(i faq.TopQuestion) int { return i.Count }),
	}
}

func dailySeries(items []faq.DailyCount) *Series {
	if len(items) == 0 {
		return nil
	}
	return &Series{
		Name:   "Daily Questions",
		Labels: pie.Map(items, func(i faq.DailyCount) string { return labelOr(i.Date) }),
		Values: pie.Map(items, func(i faq.DailyCount) int { return i.Count }),
	}
}

func labelOr(s string) string {
	if s == "" {
		return unknownLabel
	}
	return s
}
