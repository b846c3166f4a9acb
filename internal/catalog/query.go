package catalog

import (
	"fmt"
	"strings"
)

// buildMatchQuery renders the product search as one SQL statement: only
// in-stock rows are eligible, and a row matches when any token is a
// case-insensitive substring of its name, brand, or description. Result
// order is the store's default; no client-side re-ranking.
func buildMatchQuery(tokens []string, limit int) (string, []any) {
	args := make([]any, 0, len(tokens)+1)
	predicates := make([]string, 0, len(tokens))
	for i, token := range tokens {
		ref := fmt.Sprintf("$%d", i+1)
		args = append(args, "%"+token+"%")
		predicates = append(predicates,
			fmt.Sprintf("name ILIKE %s OR brand ILIKE %s OR description ILIKE %s", ref, ref, ref))
	}
	args = append(args, limit)

	query := fmt.Sprintf(
		"SELECT id, name, brand, price, stock, description FROM products WHERE stock > 0 AND (%s) LIMIT $%d",
		strings.Join(predicates, " OR "),
		len(tokens)+1,
	)
	return query, args
}
