package identity

import (
	"context"

	"github.com/google/uuid"
)

// ProfileRepository defines persistence for private profiles
type ProfileRepository interface {
	// FindByID finds a profile by user ID
	FindByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// Upsert creates the profile or replaces its fields
	Upsert(ctx context.Context, profile *Profile) error
}

// DirectoryRepository searches the public user directory
type DirectoryRepository interface {
	// SearchByName finds public profiles whose display name contains term,
	// excluding the given user
	SearchByName(ctx context.Context, term string, exclude uuid.UUID, limit int) ([]PublicProfile, error)

	// FindByIDs loads public profiles for the given users
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]PublicProfile, error)
}
