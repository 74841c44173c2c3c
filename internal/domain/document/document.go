// Package document models immutable financial documents (invoices, receipts,
// payout statements) that are rendered but never edited.
package document

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DocumentType identifies the kind of financial document
type DocumentType string

const (
	TypeInvoice             DocumentType = "invoice"
	TypeReceipt             DocumentType = "receipt"
	TypeQuotation           DocumentType = "quotation"
	TypeDepositSlip         DocumentType = "deposit_slip"
	TypePaymentVoucher      DocumentType = "payment_voucher"
	TypeCreditNote          DocumentType = "credit_note"
	TypeDeliveryNote        DocumentType = "delivery_note"
	TypePayoutStatement     DocumentType = "payout_statement"
	TypeSubscriptionReceipt DocumentType = "subscription_receipt"
)

// Title returns a human readable title for the type
func (t DocumentType) Title() string {
	if t == "" {
		return "Document"
	}
	return strings.ReplaceAll(string(t), "_", " ")
}

// Format is the requested output format of a rendered document
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat parses a format string; blank defaults to HTML
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", shared.NewDomainError("INVALID_FORMAT", "Format must be html or pdf")
}

// LineItem is one billed line of a document
type LineItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// LineItems is stored as a JSON array column
type LineItems []LineItem

// Value implements driver.Valuer
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner. Malformed JSON or unknown keys fail with a
// decode error instead of yielding zero-valued items.
func (l *LineItems) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return shared.WrapDomainError("DECODE_ERROR", "line_items has an unsupported column type", fmt.Errorf("got %T", value))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var items LineItems
	if err := dec.Decode(&items); err != nil {
		return shared.WrapDomainError("DECODE_ERROR", "line_items could not be decoded", err)
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return shared.WrapDomainError("DECODE_ERROR", "line_items could not be decoded", fmt.Errorf("item %d has no name", i))
		}
	}
	*l = items
	return nil
}

// FinancialDocument is an immutable snapshot of a financial record
type FinancialDocument struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OwnerID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	DocumentType        DocumentType    `gorm:"type:varchar(40);not null"`
	DocumentNumber      string          `gorm:"type:varchar(60);not null"`
	IssueDate           time.Time       `gorm:"not null"`
	DueDate             *time.Time
	ClientName          string          `gorm:"type:varchar(200)"`
	ClientEmail         string          `gorm:"type:varchar(200)"`
	ClientPhone         string          `gorm:"type:varchar(50)"`
	ClientAddress       string          `gorm:"type:text"`
	LineItems           LineItems       `gorm:"type:jsonb;not null"`
	Subtotal            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AmountPaid          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BalanceDue          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Currency            string          `gorm:"type:varchar(3);not null;default:'USD'"`
	Notes               string          `gorm:"type:text"`
	Terms               string          `gorm:"type:text"`
	PaymentInstructions string          `gorm:"type:text"`
	CreatedAt           time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinancialDocument) TableName() string {
	return "financial_documents"
}

// CurrencyCode returns the normalized currency
func (d *FinancialDocument) CurrencyCode() valueobject.Currency {
	return valueobject.ParseCurrency(d.Currency)
}

// Money wraps an amount in the document currency
func (d *FinancialDocument) Money(amount decimal.Decimal) valueobject.Money {
	return valueobject.MustMoney(amount, d.CurrencyCode())
}

// ItemsTotal sums the total price of every line item
func (d *FinancialDocument) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.LineItems {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// IsOwnedBy reports whether userID may view the document
func (d *FinancialDocument) IsOwnedBy(userID uuid.UUID) bool {
	return d.OwnerID == userID
}

// CompanyInfo is the issuer block printed on every document
type CompanyInfo struct {
	Name    string
	Address string
	Email   string
	Phone   string
	Website string
	LogoURL string
}
