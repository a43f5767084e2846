package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/pkg/validation"
)

// ListFAQs returns every FAQ.
func (c *Client) ListFAQs(ctx context.Context) ([]faq.FAQ, error) {
	var items []faq.FAQ
	if err := c.do(ctx, "list faqs", http.MethodGet, "/faqs", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// SearchFAQs filters FAQs by q on the server.
func (c *Client) SearchFAQs(ctx context.Context, q string) ([]faq.FAQ, error) {
	var items []faq.FAQ
	path := "/faqs/search?q=" + url.QueryEscape(strings.TrimSpace(q))
	if err := c.do(ctx, "search faqs", http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddFAQ creates an FAQ. Blank fields fail locally.
func (c *Client) AddFAQ(ctx context.Context, in faq.Input) (faq.FAQ, error) {
	const op = "add faq"
	if err := validation.Struct(in); err != nil {
		return faq.FAQ{}, validationError(op, err)
	}

	var created faq.FAQ
	if err := c.do(ctx, op, http.MethodPost, "/faqs", in, &created); err != nil {
		return faq.FAQ{}, err
	}
	return created, nil
}

// UpdateFAQ replaces the question and answer of id.
func (c *Client) UpdateFAQ(ctx context.Context, id string, in faq.Input) (faq.FAQ, error) {
	const op = "update faq"
	if strings.TrimSpace(id) == "" {
		return faq.FAQ{}, &Error{Op: op, Kind: KindValidation, Message: "id is required"}
	}
	if err := validation.Struct(in); err != nil {
		return faq.FAQ{}, validationError(op, err)
	}

	var updated faq.FAQ
	if err := c.do(ctx, op, http.MethodPut, "/faqs/"+url.PathEscape(id), in, &updated); err != nil {
		return faq.FAQ{}, err
	}
	return updated, nil
}

// DeleteFAQ removes id.
func (c *Client) DeleteFAQ(ctx context.Context, id string) error {
	const op = "delete faq"
	if strings.TrimSpace(id) == "" {
		return &Error{Op: op, Kind: KindValidation, Message: "id is required"}
	}
	return c.do(ctx, op, http.MethodDelete, "/faqs/"+url.PathEscape(id), nil, nil)
}
