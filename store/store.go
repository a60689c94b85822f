package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/workflow"
)

// Store is the GORM-backed implementation of the workflow engine's
// collaborator interfaces (PostStore, MembershipResolver, ProfileStore).
type Store struct {
	db *gorm.DB
}

// New wraps a gorm DB handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetPost loads a post with its channel and author preloaded.
func (s *Store) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := s.db.WithContext(ctx).
		Preload("Channel").
		Preload("Author").
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Transition applies the status change and the audit entry inside a single
// database transaction. The update is conditional on the current status so a
// concurrent transition from the same source status cannot also succeed.
func (s *Store) Transition(ctx context.Context, id string, expected, next models.PostStatus, entry *models.PostStatusLog) (*models.Post, error) {
	var updated models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(map[string]interface{}{"status": next, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return workflow.ErrNotFound
			}
			return workflow.ErrStaleTransition
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		return tx.Preload("Channel").Preload("Author").First(&updated, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetRole returns the membership role of a profile within a channel.
func (s *Store) GetRole(ctx context.Context, channelID, profileID string) (models.ChannelRole, bool, error) {
	var member models.ChannelMember
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND profile_id = ?", channelID, profileID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return member.Role, true, nil
}

// ListApprovers returns the profiles holding the approver role on a channel.
func (s *Store) ListApprovers(ctx context.Context, channelID string) ([]models.Profile, error) {
	return s.listByRole(ctx, channelID, models.ChannelApprover)
}

// ListMembers returns every profile with a membership on the channel.
func (s *Store) ListMembers(ctx context.Context, channelID string) ([]models.Profile, error) {
	return s.listByRole(ctx, channelID, "")
}

func (s *Store) listByRole(ctx context.Context, channelID string, role models.ChannelRole) ([]models.Profile, error) {
	q := s.db.WithContext(ctx).Model(&models.Profile{}).
		Joins("JOIN channel_members ON channel_members.profile_id = profiles.id").
		Where("channel_members.channel_id = ?", channelID)
	if role != "" {
		q = q.Where("channel_members.role = ?", role)
	}
	var profiles []models.Profile
	if err := q.Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}

// GetProfile loads a single profile row.
func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflow.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// InsertNotification persists one in-app notification row.
func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// MarkNotificationEmailed flips the emailed flag after a confirmed send.
func (s *Store) MarkNotificationEmailed(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("emailed", true).Error
}
