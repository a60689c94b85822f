package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChannelRole is a per-channel membership role.
type ChannelRole string

const (
	ChannelViewer   ChannelRole = "viewer"
	ChannelCreator  ChannelRole = "creator"
	ChannelApprover ChannelRole = "approver"
)

// ParseChannelRole validates a raw membership role string.
func ParseChannelRole(s string) (ChannelRole, bool) {
	switch ChannelRole(s) {
	case ChannelViewer, ChannelCreator, ChannelApprover:
		return ChannelRole(s), true
	}
	return "", false
}

// Channel is a marketing outlet/team grouping that owns content.
type Channel struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ChannelMember links a profile to a channel with a role. At most one row per
// (channel, profile) pair.
type ChannelMember struct {
	ID        string      `gorm:"type:uuid;primaryKey" json:"id"`
	ChannelID string      `gorm:"type:uuid;not null;uniqueIndex:idx_channel_profile" json:"channel_id"`
	ProfileID string      `gorm:"type:uuid;not null;uniqueIndex:idx_channel_profile" json:"profile_id"`
	Role      ChannelRole `gorm:"size:32;not null;default:'viewer'" json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	Profile   Profile     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile"`
}

func (m *ChannelMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
