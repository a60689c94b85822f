package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus is the workflow state of a post.
type PostStatus string

const (
	StatusDraft            PostStatus = "draft"
	StatusPending          PostStatus = "pending"
	StatusChangesRequested PostStatus = "changes_requested"
	StatusApproved         PostStatus = "approved"
	StatusScheduled        PostStatus = "scheduled"
	StatusPublished        PostStatus = "published"
)

// ParsePostStatus validates a raw status string coming off the wire.
func ParsePostStatus(s string) (PostStatus, bool) {
	switch PostStatus(s) {
	case StatusDraft, StatusPending, StatusChangesRequested, StatusApproved, StatusScheduled, StatusPublished:
		return PostStatus(s), true
	}
	return "", false
}

// Post is a unit of marketing content moving through the approval workflow.
// AuthorID is immutable after creation; status changes only go through the
// workflow engine.
type Post struct {
	ID            string      `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string      `gorm:"size:255;not null" json:"title"`
	Content       string      `gorm:"type:text" json:"content"`
	ImageURL      string      `gorm:"size:512" json:"image_url"`
	PublishDate   *time.Time  `json:"publish_date"`
	ChannelID     string      `gorm:"type:uuid;index;not null" json:"channel_id"`
	PlatformID    string      `gorm:"type:uuid;index" json:"platform_id"`
	ContentTypeID string      `gorm:"type:uuid" json:"content_type_id"`
	AuthorID      string      `gorm:"type:uuid;index;not null" json:"author_id"`
	Status        PostStatus  `gorm:"size:32;not null;default:'draft';index" json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Channel       Channel     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"channel"`
	Platform      Platform    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"platform"`
	ContentType   ContentType `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"content_type"`
	Author        Profile     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	return nil
}

// PostStatusLog is one immutable audit record per successful transition. Rows
// are inserted in the same transaction as the status change and never updated
// or deleted.
type PostStatusLog struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	PostID     string     `gorm:"type:uuid;index;not null" json:"post_id"`
	FromStatus PostStatus `gorm:"size:32;not null" json:"from_status"`
	ToStatus   PostStatus `gorm:"size:32;not null" json:"to_status"`
	ChangedBy  string     `gorm:"type:uuid;not null" json:"changed_by"`
	Comment    string     `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (l *PostStatusLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
