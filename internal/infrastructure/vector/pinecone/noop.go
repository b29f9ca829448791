package pinecone

import (
	"context"
	"errors"

	"github.com/edurag/edurag/internal/core/domain"
)

// Disabled stands in for the index when no provider is configured.
// Writes report a permanent configuration error so ingestion degrades
// to text-only storage; reads behave as an empty index.
type Disabled struct{}

func NewDisabled() Disabled { return Disabled{} }

func (Disabled) AddBatch(context.Context, []domain.Chunk, []string) error {
	return domain.WrapError(domain.ErrIndexMisconfigured, "index", errors.New("vector index is not configured"))
}

func (Disabled) Search(context.Context, string, []int64, int) ([]domain.RetrievedDocument, error) {
	return nil, nil
}

func (Disabled) DeleteByIDs(context.Context, []string) error { return nil }
