package identity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Profile is the private profile of a user. Its ID is the user ID issued by
// the external auth provider.
type Profile struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Role                Role      `gorm:"type:varchar(20);not null;default:'client'"`
	FullName            string    `gorm:"type:varchar(200)"`
	DisplayName         string    `gorm:"type:varchar(100)"`
	Phone               string    `gorm:"type:varchar(50)"`
	Location            string    `gorm:"type:varchar(200)"`
	Bio                 string    `gorm:"type:text"`
	AvatarURL           string    `gorm:"type:varchar(500)"`
	BusinessName        string    `gorm:"type:varchar(200)"`
	BusinessDescription string    `gorm:"type:text"`
	ShopLogoURL         string    `gorm:"type:varchar(500)"`
	OnboardingCompleted bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// NewProfile creates an empty profile for a user
func NewProfile(userID uuid.UUID, role Role) (*Profile, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be client, provider or seller")
	}
	now := time.Now()
	return &Profile{
		ID:        userID,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetBasics sets the name and phone collected in the first onboarding step
func (p *Profile) SetBasics(fullName, displayName, phone string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot be empty")
	}
	if utf8.RuneCountInString(fullName) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Full name cannot exceed 200 characters")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = fullName
	}
	p.FullName = fullName
	p.DisplayName = displayName
	p.Phone = strings.TrimSpace(phone)
	p.UpdatedAt = time.Now()
	return nil
}

// SetLocation sets location and bio
func (p *Profile) SetLocation(location, bio string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return shared.NewDomainError("INVALID_LOCATION", "Location cannot be empty")
	}
	if utf8.RuneCountInString(bio) > 1000 {
		return shared.NewDomainError("INVALID_BIO", "Bio cannot exceed 1000 characters")
	}
	p.Location = location
	p.Bio = strings.TrimSpace(bio)
	p.UpdatedAt = time.Now()
	return nil
}

// SetBusiness sets the business fields; only providers and sellers have them
func (p *Profile) SetBusiness(name, description string) error {
	if !p.Role.HasBusiness() {
		return shared.NewDomainError("INVALID_ROLE", "Only providers and sellers have business details")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_BUSINESS_NAME", "Business name cannot be empty")
	}
	p.BusinessName = name
	p.BusinessDescription = strings.TrimSpace(description)
	p.UpdatedAt = time.Now()
	return nil
}

// SetAvatar sets the avatar URL
func (p *Profile) SetAvatar(url string) {
	p.AvatarURL = url
	p.UpdatedAt = time.Now()
}

// SetShopLogo sets the shop logo URL
func (p *Profile) SetShopLogo(url string) {
	p.ShopLogoURL = url
	p.UpdatedAt = time.Now()
}

// CompleteOnboarding marks onboarding as done
func (p *Profile) CompleteOnboarding() {
	p.OnboardingCompleted = true
	p.UpdatedAt = time.Now()
}

// PublicProfile is the read-only projection other users can see
type PublicProfile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string    `gorm:"type:varchar(100)" json:"display_name"`
	AvatarURL   string    `gorm:"type:varchar(500)" json:"avatar_url,omitempty"`
	Role        Role      `gorm:"type:varchar(20)" json:"role"`
}

// TableName returns the view name for GORM
func (PublicProfile) TableName() string {
	return "public_profiles"
}

// Public projects a profile to its public view
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        p.Role,
	}
}
