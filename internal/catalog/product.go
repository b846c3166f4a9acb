// Package catalog tokenizes search text and queries the remote product
// table with case-insensitive substring matching.
package catalog

import "errors"

// MaxResults caps every search, matching the marketplace result panel size.
const MaxResults = 5

// ErrNoValidSearchTerms indicates tokenization left nothing to match on;
// surfaced as "refine your search", never as a system failure.
var ErrNoValidSearchTerms = errors.New("no valid search terms; refine the search")

// Product is a read-only projection of one remote catalog row.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Price       float64
	Stock       int
	Description string
}
