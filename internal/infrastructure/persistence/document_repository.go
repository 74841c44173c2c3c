package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/document"
	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDocumentRepository implements document.Repository using GORM.
// Rows whose line_items fail strict decoding surface as DECODE_ERROR.
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document by its ID
func (r *GormDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.FinancialDocument, error) {
	var doc document.FinancialDocument
	if err := conn(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// FindByOwner lists documents owned by a user, newest first by default
func (r *GormDocumentRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.FinancialDocument, int64, error) {
	query := conn(ctx, r.db).Model(&document.FinancialDocument{}).Where("owner_id = ?", ownerID)
	if docType, ok := filter.Filters["document_type"]; ok && docType != "" {
		query = query.Where("document_type = ?", docType)
	}
	return findPage[document.FinancialDocument](query, filter, DocumentSortFields, "issue_date")
}

var _ document.Repository = (*GormDocumentRepository)(nil)
