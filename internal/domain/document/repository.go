package document

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Repository defines read access to financial documents
type Repository interface {
	// FindByID finds a document by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*FinancialDocument, error)

	// FindByOwner lists documents owned by a user
	FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]FinancialDocument, int64, error)
}
