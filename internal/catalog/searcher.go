package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// Searcher runs the canonical matching pipeline over a Store. The same
// semantics serve the AI-assisted path (enhanced text) and the basic/manual
// path (raw user text); only the input differs.
type Searcher struct {
	store  Store
	logger *slog.Logger
}

// NewSearcher constructs a searcher over the given store.
func NewSearcher(store Store, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Searcher{store: store, logger: logger}
}

// Search tokenizes text and returns up to MaxResults in-stock matches.
// An empty token set fails with ErrNoValidSearchTerms rather than issuing a
// match-everything query.
func (s *Searcher) Search(ctx context.Context, text string) ([]Product, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil, ErrNoValidSearchTerms
	}

	products, err := s.store.MatchAny(ctx, tokens, MaxResults)
	if err != nil {
		return nil, fmt.Errorf("product search: %w", err)
	}

	s.logger.Info("product search complete", "tokens", tokens, "matches", len(products))
	return products, nil
}
