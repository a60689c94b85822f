package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types emitted by the workflow engine.
const (
	NotifyPostSubmitted        = "post_submitted"
	NotifyPostApproved         = "post_approved"
	NotifyPostChangesRequested = "post_changes_requested"
	NotifyPostPublished        = "post_published"
)

// Notification is an in-app message for one recipient. Read is flipped by the
// recipient, Emailed by the engine after a confirmed email send.
type Notification struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID string    `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Type        string    `gorm:"size:64;not null" json:"type"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Body        string    `gorm:"type:text" json:"body"`
	PostID      string    `gorm:"type:uuid;index" json:"post_id"`
	Read        bool      `gorm:"not null;default:false;index" json:"read"`
	Emailed     bool      `gorm:"not null;default:false" json:"emailed"`
	CreatedAt   time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
