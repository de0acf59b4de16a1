package interfaces

import (
	"context"

	"newsrag/internal/types"
)

// Searcher retrieves articles similar to a query from the vector store.
type Searcher interface {
	Search(ctx context.Context, query string, limit int, scoreThreshold float64) ([]types.ArticleRecord, error)
}
