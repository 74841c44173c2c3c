// Package identity manages the caller's profile and profile images.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// MaxImageSize is the largest accepted avatar or logo upload
const MaxImageSize int64 = 5 << 20

// AllowedImageTypes maps accepted image content types to file extensions.
// SVG is excluded because it can carry script.
var AllowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStorage stores uploaded files and returns their public URL
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProfileService reads and updates the profile of the caller
type ProfileService struct {
	profiles  identity.ProfileRepository
	directory identity.DirectoryRepository
	storage   ObjectStorage
	logger    *zap.Logger
}

// NewProfileService creates a new ProfileService
func NewProfileService(profiles identity.ProfileRepository, directory identity.DirectoryRepository, storage ObjectStorage, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		profiles:  profiles,
		directory: directory,
		storage:   storage,
		logger:    logger,
	}
}

// LoadOrNew returns the stored profile of the caller, or an unsaved empty one
// when the caller has none yet
func LoadOrNew(ctx context.Context, profiles identity.ProfileRepository, me identity.Identity) (*identity.Profile, error) {
	p, err := profiles.FindByID(ctx, me.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	role := me.Role
	if !role.IsValid() {
		role = identity.RoleClient
	}
	return identity.NewProfile(me.UserID, role)
}

// GetProfile returns the caller's profile
func (s *ProfileService) GetProfile(ctx context.Context) (*ProfileResponse, error) {
	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	p, err := LoadOrNew(ctx, s.profiles, me)
	if err != nil {
		return nil, err
	}
	resp := ToProfileResponse(p)
	return &resp, nil
}

// GetPublicProfile returns the public view of any user
func (s *ProfileService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*identity.PublicProfile, error) {
	if _, err := identity.Require(ctx); err != nil {
		return nil, err
	}
	found, err := s.directory.FindByIDs(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, shared.NewDomainError("NOT_FOUND", "User not found")
	}
	return &found[0], nil
}

// UpdateProfile replaces the caller's editable fields
func (s *ProfileService) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "profile", "update")
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	p, err := LoadOrNew(ctx, s.profiles, me)
	if err != nil {
		return nil, err
	}
	if err := p.SetBasics(req.FullName, req.DisplayName, req.Phone); err != nil {
		return nil, err
	}
	if err := p.SetLocation(req.Location, req.Bio); err != nil {
		return nil, err
	}
	if p.Role.HasBusiness() && req.BusinessName != "" {
		if err := p.SetBusiness(req.BusinessName, req.BusinessDescription); err != nil {
			return nil, err
		}
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToProfileResponse(p)
	return &resp, nil
}

// UploadAvatar stores a new avatar image and points the profile at it
func (s *ProfileService) UploadAvatar(ctx context.Context, req UploadImageRequest, body io.Reader) (*UploadResponse, error) {
	return s.uploadImage(ctx, "avatars", req, body, nil, (*identity.Profile).SetAvatar)
}

// UploadShopLogo stores a new shop logo. Only providers and sellers have one.
func (s *ProfileService) UploadShopLogo(ctx context.Context, req UploadImageRequest, body io.Reader) (*UploadResponse, error) {
	return s.uploadImage(ctx, "logos", req, body, requireBusiness, (*identity.Profile).SetShopLogo)
}

func requireBusiness(p *identity.Profile) error {
	if !p.Role.HasBusiness() {
		return shared.NewDomainError("FORBIDDEN", "Only providers and sellers have a shop logo")
	}
	return nil
}

func (s *ProfileService) uploadImage(ctx context.Context, folder string, req UploadImageRequest, body io.Reader, guard func(*identity.Profile) error, set func(*identity.Profile, string)) (*UploadResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "profile", "upload_"+folder)
	defer span.End()

	me, err := identity.Require(ctx)
	if err != nil {
		return nil, err
	}
	ext, ok := AllowedImageTypes[req.ContentType]
	if !ok {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE", "Image must be JPEG, PNG, GIF or WebP")
	}
	if req.Size <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE", "File is empty")
	}
	if req.Size > MaxImageSize {
		return nil, shared.NewDomainError("INVALID_FILE", fmt.Sprintf("File exceeds %d MB", MaxImageSize>>20))
	}

	p, err := LoadOrNew(ctx, s.profiles, me)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(p); err != nil {
			return nil, err
		}
	}

	key := fmt.Sprintf("%s/%s/%s%s", folder, me.UserID, uuid.New(), ext)
	url, err := s.storage.Upload(ctx, key, body, req.Size, req.ContentType)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	set(p, url)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	s.logger.Info("profile image uploaded",
		zap.String("user_id", me.UserID.String()),
		zap.String("key", key))
	return &UploadResponse{URL: url}, nil
}
