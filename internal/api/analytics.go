package api

import (
	"context"
	"net/http"

	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

func (c *Client) TopQuestions(ctx context.Context) ([]faq.TopQuestion, error) {
	var items []faq.TopQuestion
	if err := c.do(ctx, "top questions", http.MethodGet, "/top-questions", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) DailyQuestionCounts(ctx context.Context) ([]faq.DailyCount, error) {
	var items []faq.DailyCount
	if err := c.do(ctx, "daily question counts", http.MethodGet, "/daily-question-counts", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CSAT returns the satisfaction score, nil when the backend has none yet.
func (c *Client) CSAT(ctx context.Context) (*float64, error) {
	var resp faq.CSAT
	if err := c.do(ctx, "csat", http.MethodGet, "/csat", nil, &resp); err != nil {
		return nil, err
	}
	return resp.CSAT, nil
}
