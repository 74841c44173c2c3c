package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
)

// UpdateProfileRequest replaces the editable profile fields. Business fields
// are ignored for clients.
type UpdateProfileRequest struct {
	FullName            string `json:"full_name" binding:"required,max=200"`
	DisplayName         string `json:"display_name" binding:"omitempty,max=100"`
	Phone               string `json:"phone" binding:"omitempty,max=50"`
	Location            string `json:"location" binding:"required,max=200"`
	Bio                 string `json:"bio" binding:"omitempty,max=1000"`
	BusinessName        string `json:"business_name" binding:"omitempty,max=200"`
	BusinessDescription string `json:"business_description"`
}

// UploadImageRequest carries one uploaded image
type UploadImageRequest struct {
	FileName    string
	ContentType string
	Size        int64
}

// ProfileResponse is the owner's view of a profile
type ProfileResponse struct {
	ID                  uuid.UUID     `json:"id"`
	Role                identity.Role `json:"role"`
	FullName            string        `json:"full_name"`
	DisplayName         string        `json:"display_name"`
	Phone               string        `json:"phone,omitempty"`
	Location            string        `json:"location,omitempty"`
	Bio                 string        `json:"bio,omitempty"`
	AvatarURL           string        `json:"avatar_url,omitempty"`
	BusinessName        string        `json:"business_name,omitempty"`
	BusinessDescription string        `json:"business_description,omitempty"`
	ShopLogoURL         string        `json:"shop_logo_url,omitempty"`
	OnboardingCompleted bool          `json:"onboarding_completed"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// UploadResponse returns the public URL of a stored image
type UploadResponse struct {
	URL string `json:"url"`
}

// ToProfileResponse converts a profile to its response
func ToProfileResponse(p *identity.Profile) ProfileResponse {
	return ProfileResponse{
		ID:                  p.ID,
		Role:                p.Role,
		FullName:            p.FullName,
		DisplayName:         p.DisplayName,
		Phone:               p.Phone,
		Location:            p.Location,
		Bio:                 p.Bio,
		AvatarURL:           p.AvatarURL,
		BusinessName:        p.BusinessName,
		BusinessDescription: p.BusinessDescription,
		ShopLogoURL:         p.ShopLogoURL,
		OnboardingCompleted: p.OnboardingCompleted,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
