package ai

import (
	"context"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/samber/oops"

	"github.com/zhouzirui/faq-assistant/internal/model/faq"
)

const collectionName = "faqs"

// Match is one FAQ ranked against a question.
type Match struct {
	FAQ        faq.FAQ
	Similarity float64
}

// Index is an in-memory vector index over FAQ questions.
type Index struct {
	mu         sync.Mutex
	collection *chromem.Collection
	entries    map[string]faq.FAQ
}

// NewIndex creates an empty index.
func NewIndex() (*Index, error) {
	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, Embed)
	if err != nil {
		return nil, oops.In("faq_index").Wrapf(err, "failed to create collection")
	}
	return &Index{collection: collection, entries: make(map[string]faq.FAQ)}, nil
}

// Sync replaces the indexed FAQs with items.
func (i *Index) Sync(ctx context.Context, items []faq.FAQ) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.entries) > 0 {
		ids := make([]string, 0, len(i.entries))
		for id := range i.entries {
			ids = append(ids, id)
		}
		if err := i.collection.Delete(ctx, nil, nil, ids...); err != nil {
			return oops.In("faq_index").Wrapf(err, "failed to clear index")
		}
		i.entries = make(map[string]faq.FAQ)
	}

	for _, item := range items {
		if !item.Complete() {
			continue
		}
		err := i.collection.AddDocument(ctx, chromem.Document{
			ID:       item.ID,
			Content:  item.Question,
			Metadata: map[string]string{"question": item.Question},
		})
		if err != nil {
			return oops.In("faq_index").With("faq_id", item.ID).Wrapf(err, "failed to index faq")
		}
		i.entries[item.ID] = item
	}
	return nil
}

// Search returns up to n FAQs ordered by similarity to question.
func (i *Index) Search(ctx context.Context, question string, n int) ([]Match, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if n > len(i.entries) {
		n = len(i.entries)
	}
	if n <= 0 || question == "" {
		return nil, nil
	}

	results, err := i.collection.Query(ctx, question, n, nil, nil)
	if err != nil {
		return nil, oops.In("faq_index").Wrapf(err, "failed to query index")
	}

	matches := make([]Match, 0, len(results))
	for _, res := range results {
		item, ok := i.entries[res.ID]
		if !ok {
			continue
		}
		matches = append(matches, Match{FAQ: item, Similarity: float64(res.Similarity)})
	}
	return matches, nil
}

// Len returns the number of indexed FAQs.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.entries)
}
