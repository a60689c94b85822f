package workflow

import "github.com/aronm-sonance/sonance-marketing-hub/models"

// CanEdit enforces who may mutate a post's content fields, independent of
// status transitions: the author or a global admin, and only while the post
// is in draft or changes_requested. Admins may edit regardless of status.
func CanEdit(post *models.Post, actor *models.Profile) error {
	if actor.IsAdmin() {
		return nil
	}
	if post.AuthorID != actor.ID {
		return ErrForbidden
	}
	if post.Status != models.StatusDraft && post.Status != models.StatusChangesRequested {
		return ErrInvalidState
	}
	return nil
}
