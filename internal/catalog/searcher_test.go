package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	gotTokens []string
	gotLimit  int
	products  []Product
	err       error
}

func (f *fakeStore) MatchAny(_ context.Context, tokens []string, limit int) ([]Product, error) {
	f.gotTokens = tokens
	f.gotLimit = limit
	return f.products, f.err
}

func TestSearcherPassesTokensAndCap(t *testing.T) {
	store := &fakeStore{products: []Product{{ID: "1", Name: "PVC Pipe 1/2 inch", Stock: 12}}}
	s := NewSearcher(store, nil)

	products, err := s.Search(context.Background(), "PVC pipe 10 pieces @@@")
	require.NoError(t, err)
	assert.Equal(t, []string{"pvc", "pipe", "pieces"}, store.gotTokens)
	assert.Equal(t, MaxResults, store.gotLimit)
	require.Len(t, products, 1)
	assert.Equal(t, "PVC Pipe 1/2 inch", products[0].Name)
}

func TestSearcherNoValidTermsSkipsStore(t *testing.T) {
	store := &fakeStore{}
	s := NewSearcher(store, nil)

	_, err := s.Search(context.Background(), "a b @ 12")
	require.ErrorIs(t, err, ErrNoValidSearchTerms)
	assert.Nil(t, store.gotTokens, "store must not be queried without terms")
}

func TestSearcherZeroMatchesIsSuccess(t *testing.T) {
	s := NewSearcher(&fakeStore{products: []Product{}}, nil)
	products, err := s.Search(context.Background(), "unobtanium sheets")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearcherWrapsStoreError(t *testing.T) {
	storeErr := errors.New("connection refused")
	s := NewSearcher(&fakeStore{err: storeErr}, nil)
	_, err := s.Search(context.Background(), "cement bags")
	require.ErrorIs(t, err, storeErr)
}
