package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProfileRepository implements identity.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindByID finds a profile by user ID
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Profile, error) {
	var profile identity.Profile
	if err := conn(ctx, r.db).First(&profile, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

// Upsert creates the profile or replaces every field except created_at
func (r *GormProfileRepository) Upsert(ctx context.Context, profile *identity.Profile) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"role", "full_name", "display_name", "phone", "location", "bio",
				"avatar_url", "business_name", "business_description", "shop_logo_url",
				"onboarding_completed", "updated_at",
			}),
		}).
		Create(profile).Error
}

// GormDirectoryRepository implements identity.DirectoryRepository over the
// public_profiles view
type GormDirectoryRepository struct {
	db *gorm.DB
}

// NewGormDirectoryRepository creates a new GormDirectoryRepository
func NewGormDirectoryRepository(db *gorm.DB) *GormDirectoryRepository {
	return &GormDirectoryRepository{db: db}
}

// SearchByName finds public profiles whose display name contains term
func (r *GormDirectoryRepository) SearchByName(ctx context.Context, term string, exclude uuid.UUID, limit int) ([]identity.PublicProfile, error) {
	profiles := make([]identity.PublicProfile, 0)
	query := conn(ctx, r.db).
		Where("LOWER(display_name) LIKE ? ESCAPE '\\'", likePattern(strings.TrimSpace(term))).
		Where("id <> ?", exclude).
		Order("display_name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// FindByIDs loads public profiles for the given users
func (r *GormDirectoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]identity.PublicProfile, error) {
	if len(ids) == 0 {
		return []identity.PublicProfile{}, nil
	}
	profiles := make([]identity.PublicProfile, 0, len(ids))
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

var (
	_ identity.ProfileRepository   = (*GormProfileRepository)(nil)
	_ identity.DirectoryRepository = (*GormDirectoryRepository)(nil)
)
