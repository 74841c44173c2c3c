package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"sideways", "DESC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ValidateSortOrder(tt.input), "input %q", tt.input)
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowed  map[string]bool
		fallback string
		expected string
	}{
		{"listing price", "price", ListingSortFields, "created_at", "price"},
		{"trimmed", "  stock ", ListingSortFields, "created_at", "stock"},
		{"empty", "", ListingSortFields, "created_at", "created_at"},
		{"not whitelisted", "seller_id", ListingSortFields, "created_at", "created_at"},
		{"booking schedule", "scheduled_at", BookingSortFields, "created_at", "scheduled_at"},
		{"order total", "total_amount", OrderSortFields, "created_at", "total_amount"},
		{"review rating", "rating", ReviewSortFields, "created_at", "rating"},
		{"rating is not an order field", "rating", OrderSortFields, "created_at", "created_at"},
		{"document number", "document_number", DocumentSortFields, "issue_date", "document_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, tt.fallback))
		})
	}
}

func TestSQLInjectionPrevention(t *testing.T) {
	payloads := []string{
		"price; DROP TABLE products;--",
		"name' OR '1'='1",
		"created_at DESC, (SELECT 1)",
		"1=1",
	}
	for _, payload := range payloads {
		assert.Equal(t, "created_at", ValidateSortField(payload, ListingSortFields, "created_at"))
		assert.Equal(t, "DESC", ValidateSortOrder(payload))
	}
}
