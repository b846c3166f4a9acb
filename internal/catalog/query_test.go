package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMatchQuerySingleToken(t *testing.T) {
	query, args := buildMatchQuery([]string{"pvc"}, 5)

	assert.Equal(t,
		"SELECT id, name, brand, price, stock, description FROM products "+
			"WHERE stock > 0 AND (name ILIKE $1 OR brand ILIKE $1 OR description ILIKE $1) LIMIT $2",
		query)
	require.Len(t, args, 2)
	assert.Equal(t, "%pvc%", args[0])
	assert.Equal(t, 5, args[1])
}

func TestBuildMatchQueryMultipleTokens(t *testing.T) {
	tokens := []string{"pvc", "pipe", "inch"}
	query, args := buildMatchQuery(tokens, 5)

	assert.Equal(t, 9, strings.Count(query, "ILIKE"), "three fields per token")
	assert.Contains(t, query, "stock > 0")
	assert.Contains(t, query, "LIMIT $4")
	require.Len(t, args, 4)
	assert.Equal(t, "%pipe%", args[1])
	assert.Equal(t, "%inch%", args[2])
}

func TestBuildMatchQueryPlaceholdersNotInlined(t *testing.T) {
	query, _ := buildMatchQuery([]string{"x' OR 1=1 --"}, 5)
	assert.NotContains(t, query, "1=1", "token values travel as bind args")
}
