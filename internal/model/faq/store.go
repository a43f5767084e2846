package faq

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("faq not found")

// Store exposes FAQ persistence for the backend double.
type Store interface {
	List() []FAQ
	FindByID(id string) (FAQ, bool)
	Create(in Input) FAQ
	Update(id string, in Input) (FAQ, error)
	Delete(id string) error
}

// MemoryStore implements Store with an in-memory slice, keeping insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	items []FAQ
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied FAQs.
func NewMemoryStore(items []FAQ) *MemoryStore {
	return &MemoryStore{items: append([]FAQ(nil), items...)}
}

// List returns a copy of all FAQs.
func (s *MemoryStore) List() []FAQ {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]FAQ(nil), s.items...)
}

// FindByID looks up an FAQ by identifier.
func (s *MemoryStore) FindByID(id string) (FAQ, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return FAQ{}, false
}

func (s *MemoryStore) Create(in Input) FAQ {
	item := FAQ{
		ID:       uuid.NewString(),
		Question: strings.TrimSpace(in.Question),
		Answer:   strings.TrimSpace(in.Answer),
	}

	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
	return item
}

func (s *MemoryStore) Update(id string, in Input) (FAQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Question = strings.TrimSpace(in.Question)
			s.items[i].Answer = strings.TrimSpace(in.Answer)
			return s.items[i], nil
		}
	}
	return FAQ{}, ErrNotFound
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func hasText(s string) bool {
	return strings.TrimSpace(s) != ""
}
