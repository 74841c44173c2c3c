package printing

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/document"
	"github.com/shopspring/decimal"
)

// RenderDocumentRequest selects a document and output format
type RenderDocumentRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Format     string `json:"format" binding:"omitempty,oneof=html pdf HTML PDF"`
}

// ListDocumentsRequest pages through the caller's documents
type ListDocumentsRequest struct {
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	DocumentType string `form:"type" binding:"omitempty,oneof=invoice receipt quotation deposit_slip payment_voucher credit_note delivery_note payout_statement subscription_receipt"`
}

// RenderedDocument is the output of a render
type RenderedDocument struct {
	DocumentID  uuid.UUID
	Format      document.Format
	ContentType string
	Filename    string
	Body        []byte
	PageCount   int
}

// DocumentSummaryResponse is the list view of a financial document
type DocumentSummaryResponse struct {
	ID             uuid.UUID       `json:"id"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	IssueDate      time.Time       `json:"issue_date"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	ClientName     string          `json:"client_name,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	Currency       string          `json:"currency"`
}

// ToDocumentSummaryResponse converts a document to its list view
func ToDocumentSummaryResponse(d *document.FinancialDocument) DocumentSummaryResponse {
	return DocumentSummaryResponse{
		ID:             d.ID,
		DocumentType:   string(d.DocumentType),
		DocumentNumber: d.DocumentNumber,
		IssueDate:      d.IssueDate,
		DueDate:        d.DueDate,
		ClientName:     d.ClientName,
		TotalAmount:    d.TotalAmount,
		BalanceDue:     d.BalanceDue,
		Currency:       string(d.CurrencyCode()),
	}
}
