package handler

import (
	"testing"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/messaging"
	"github.com/marketplace/backend/internal/domain/review"
	"github.com/marketplace/backend/internal/domain/trade"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory SQLite database for handler tests.
// public_profiles is a view in PostgreSQL and a plain table here.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&identity.Profile{},
		&identity.PublicProfile{},
		&messaging.Conversation{},
		&messaging.Message{},
		&catalog.Service{},
		&catalog.Product{},
		&trade.Booking{},
		&trade.Order{},
		&review.Review{},
	))
	return db
}

func newUser(t *testing.T, db *gorm.DB, role identity.Role, name string) *identity.Identity {
	t.Helper()
	id := &identity.Identity{UserID: uuid.New(), Role: role, Email: name + "@example.com"}
	require.NoError(t, db.Create(&identity.PublicProfile{ID: id.UserID, DisplayName: name, Role: role}).Error)
	return id
}
