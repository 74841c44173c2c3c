package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	providerID := uuid.New()

	t.Run("valid", func(t *testing.T) {
		s, err := NewService(providerID, " Deep Cleaning ", "home", decimal.NewFromInt(120), 90)
		require.NoError(t, err)
		assert.Equal(t, "Deep Cleaning", s.Name)
		assert.Equal(t, ListingStatusActive, s.Status)
		assert.Equal(t, 1, s.GetVersion())
		assert.True(t, s.IsOwnedBy(providerID))
	})

	tests := []struct {
		name     string
		owner    uuid.UUID
		svcName  string
		price    decimal.Decimal
		duration int
		code     string
	}{
		{"empty owner", uuid.Nil, "x", decimal.NewFromInt(1), 30, "INVALID_OWNER"},
		{"empty name", providerID, "  ", decimal.NewFromInt(1), 30, "INVALID_NAME"},
		{"zero price", providerID, "x", decimal.Zero, 30, "INVALID_PRICE"},
		{"bad duration", providerID, "x", decimal.NewFromInt(1), 0, "INVALID_DURATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.owner, tt.svcName, "", tt.price, tt.duration)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, tt.code, domainErr.Code)
		})
	}
}

func TestService_ToggleStatus(t *testing.T) {
	s, _ := NewService(uuid.New(), "Tutoring", "", decimal.NewFromInt(30), 60)
	s.ToggleStatus()
	assert.Equal(t, ListingStatusInactive, s.Status)
	s.ToggleStatus()
	assert.Equal(t, ListingStatusActive, s.Status)
	assert.Equal(t, 3, s.GetVersion())
}

func TestProduct_AdjustStock(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Mug", "kitchen", decimal.NewFromFloat(9.5), 10)
	require.NoError(t, err)

	require.NoError(t, p.AdjustStock(-4))
	assert.Equal(t, 6, p.Stock)
	assert.False(t, p.IsLowStock())

	require.NoError(t, p.AdjustStock(-1))
	assert.True(t, p.IsLowStock(), "5 units is at the default threshold")

	err = p.AdjustStock(-6)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 5, p.Stock, "failed adjustment leaves stock unchanged")

	require.NoError(t, p.AdjustStock(20))
	assert.Equal(t, 25, p.Stock)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct(uuid.New(), "Mug", "", decimal.NewFromInt(1), -1)
	assert.Error(t, err)

	_, err = NewProduct(uuid.New(), "Mug", "", decimal.NewFromInt(-1), 1)
	assert.Error(t, err)

	p, err := NewProduct(uuid.New(), "Mug", "", decimal.NewFromInt(1), 1)
	require.NoError(t, err)
	assert.Error(t, p.SetLowStockThreshold(-2))
	require.NoError(t, p.SetLowStockThreshold(0))
	assert.False(t, p.IsLowStock())
}
