package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Global application roles carried on a profile. Channel-scoped roles live on
// ChannelMember instead.
const (
	RoleAdmin         = "admin"
	RoleBrandMarketer = "brand-marketer"
	RoleChannelLead   = "channel-lead"
	RoleCreator       = "creator"
	RoleViewer        = "viewer"
)

const (
	ProfileActive   = "active"
	ProfileInactive = "inactive"
)

// Profile mirrors the identity provider's user record. Account creation and
// credentials live with the identity provider; this row only carries the
// application-level role and contact fields.
type Profile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Role      string    `gorm:"size:32;not null;default:'viewer'" json:"role"`
	Status    string    `gorm:"size:16;not null;default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Role == "" {
		p.Role = RoleViewer
	}
	if p.Status == "" {
		p.Status = ProfileActive
	}
	return nil
}

// IsAdmin reports whether the profile holds the global admin role and is
// still active.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin && p.Status == ProfileActive
}
