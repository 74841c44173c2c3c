package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormServiceRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormServiceRepository(db)
	ctx := context.Background()
	provider := uuid.New()

	cleaning, err := catalog.NewService(provider, "Deep Cleaning", "home", decimal.NewFromInt(120), 90)
	require.NoError(t, err)
	gardening, err := catalog.NewService(provider, "Gardening", "outdoor", decimal.NewFromInt(60), 60)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cleaning))
	require.NoError(t, repo.Save(ctx, gardening))

	gardening.ToggleStatus()
	require.NoError(t, repo.Save(ctx, gardening))

	filter := shared.DefaultFilter()
	filter.OrderBy = "price"
	filter.OrderDir = "asc"
	list, total, err := repo.FindByProvider(ctx, provider, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "Gardening", list[0].Name)
	assert.True(t, list[1].Price.Equal(decimal.NewFromInt(120)))

	active, total, err := repo.FindActive(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, cleaning.ID, active[0].ID)

	filter = shared.DefaultFilter()
	filter.Search = "clean"
	list, _, err = repo.FindByProvider(ctx, provider, filter)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, cleaning.ID))
	assert.ErrorIs(t, repo.Delete(ctx, cleaning.ID), shared.ErrNotFound)
	_, err = repo.FindByID(ctx, cleaning.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository_LowStockAndPaging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	seller := uuid.New()

	for i, stock := range []int{0, 3, 5, 40, 12} {
		p, err := catalog.NewProduct(seller, "Product "+string(rune('A'+i)), "misc", decimal.NewFromInt(10), stock)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))
	}

	low, err := repo.FindLowStock(ctx, seller)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, 0, low[0].Stock)

	filter := shared.DefaultFilter()
	filter.PageSize = 2
	filter.Page = 3
	page, total, err := repo.FindBySeller(ctx, seller, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 1)

	filter = shared.DefaultFilter()
	filter.OrderBy = "stock; DROP TABLE products"
	_, _, err = repo.FindBySeller(ctx, seller, filter)
	require.NoError(t, err)
}

func TestGormProductRepository_StaleWriteConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	p, err := catalog.NewProduct(uuid.New(), "Honey", "pantry", decimal.NewFromInt(9), 4)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	first, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, first.AdjustStock(-3))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.AdjustStock(-3))
	assert.ErrorIs(t, repo.Save(ctx, second), shared.ErrConflict)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Stock)

	require.NoError(t, stored.AdjustStock(1))
	require.NoError(t, repo.Save(ctx, stored))
	require.NoError(t, stored.AdjustStock(1))
	require.NoError(t, repo.Save(ctx, stored), "saving twice without reloading")
}
