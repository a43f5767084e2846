// Package admin holds the client side of the admin dashboard: FAQ
// management and the analytics charts.
package admin

import (
	"context"
	"log/slog"
	"sync"

	"github.com/zhouzirui/faq-assistant/internal/model/faq"
	"github.com/zhouzirui/faq-assistant/internal/pkg/validation"
)

const (
	msgLoadFAQs   = "Failed to get FAQs. Please try again later."
	msgAddFAQ     = "Failed to add FAQ. Please try again later."
	msgUpdateFAQ  = "Failed to update FAQ. Please try again later."
	msgDeleteFAQ  = "Failed to delete FAQ. Please try again later."
	msgSearchFAQs = "Failed to search FAQs. Please try again later."
)

// ActionError pairs a failed call with the text shown to the admin.
type ActionError struct {
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ActionError) Unwrap() error { return e.Err }

// FAQAPI is the subset of the API client used for FAQ management.
type FAQAPI interface {
	ListFAQs(ctx context.Context) ([]faq.FAQ, error)
	SearchFAQs(ctx context.Context, q string) ([]faq.FAQ, error)
	AddFAQ(ctx context.Context, in faq.Input) (faq.FAQ, error)
	UpdateFAQ(ctx context.Context, id string, in faq.Input) (faq.FAQ, error)
	DeleteFAQ(ctx context.Context, id string) error
}

// FAQs caches the FAQ list and reloads it after every mutation.
type FAQs struct {
	api    FAQAPI
	logger *slog.Logger

	mu    sync.RWMutex
	items []faq.FAQ
}

func NewFAQs(api FAQAPI, logger *slog.Logger) *FAQs {
	if logger == nil {
		logger = slog.Default()
	}
	return &FAQs{api: api, logger: logger}
}

// Items returns the last loaded list.
func (f *FAQs) Items() []faq.FAQ {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]faq.FAQ(nil), f.items...)
}

// Refresh reloads the list from the backend.
func (f *FAQs) Refresh(ctx context.Context) ([]faq.FAQ, error) {
	items, err := f.api.ListFAQs(ctx)
	if err != nil {
		f.logger.Error("failed to load FAQs", "err", err)
		return nil, &ActionError{Message: msgLoadFAQs, Err: err}
	}

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return append([]faq.FAQ(nil), items...), nil
}

// Add creates an FAQ. Blank input is rejected without a request.
func (f *FAQs) Add(ctx context.Context, in faq.Input) (faq.FAQ, error) {
	if err := validation.Struct(in); err != nil {
		return faq.FAQ{}, &ActionError{Message: "Question and answer are required.", Err: err}
	}

	created, err := f.api.AddFAQ(ctx, in)
	if err != nil {
		f.logger.Error("failed to add FAQ", "err", err)
		return faq.FAQ{}, &ActionError{Message: msgAddFAQ, Err: err}
	}

	_, err = f.Refresh(ctx)
	return created, err
}

// Update replaces an FAQ's question and answer.
func (f *FAQs) Update(ctx context.Context, id string, in faq.Input) (faq.FAQ, error) {
	if err := validation.Struct(in); err != nil {
		return faq.FAQ{}, &ActionError{Message: "Question and answer are required.", Err: err}
	}

	updated, err := f.api.UpdateFAQ(ctx, id, in)
	if err != nil {
		f.logger.Error("failed to update FAQ", "id", id, "err", err)
		return faq.FAQ{}, &ActionError{Message: msgUpdateFAQ, Err: err}
	}

	_, err = f.Refresh(ctx)
	return updated, err
}

// Delete removes an FAQ.
func (f *FAQs) Delete(ctx context.Context, id string) error {
	if err := f.api.DeleteFAQ(ctx, id); err != nil {
		f.logger.Error("failed to delete FAQ", "id", id, "err", err)
		return &ActionError{Message: msgDeleteFAQ, Err: err}
	}

	_, err := f.Refresh(ctx)
	return err
}

// Search queries the backend without touching the cached list.
func (f *FAQs) Search(ctx context.Context, q string) ([]faq.FAQ, error) {
	items, err := f.api.SearchFAQs(ctx, q)
	if err != nil {
		return nil, &ActionError{Message: msgSearchFAQs, Err: err}
	}
	return items, nil
}
