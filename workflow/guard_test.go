package workflow

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
)

func TestCanEdit(t *testing.T) {
	authorID := uuid.NewString()
	otherID := uuid.NewString()

	author := &models.Profile{ID: authorID, Role: models.RoleCreator, Status: models.ProfileActive}
	other := &models.Profile{ID: otherID, Role: models.RoleCreator, Status: models.ProfileActive}
	admin := &models.Profile{ID: uuid.NewString(), Role: models.RoleAdmin, Status: models.ProfileActive}
	inactiveAdmin := &models.Profile{ID: uuid.NewString(), Role: models.RoleAdmin, Status: models.ProfileInactive}

	post := func(status models.PostStatus) *models.Post {
		return &models.Post{ID: uuid.NewString(), AuthorID: authorID, Status: status}
	}

	cases := []struct {
		name    string
		post    *models.Post
		actor   *models.Profile
		wantErr error
	}{
		{"author edits draft", post(models.StatusDraft), author, nil},
		{"author edits after changes requested", post(models.StatusChangesRequested), author, nil},
		{"author cannot edit pending", post(models.StatusPending), author, ErrInvalidState},
		{"author cannot edit approved", post(models.StatusApproved), author, ErrInvalidState},
		{"author cannot edit scheduled", post(models.StatusScheduled), author, ErrInvalidState},
		{"author cannot edit published", post(models.StatusPublished), author, ErrInvalidState},
		{"non-author cannot edit draft", post(models.StatusDraft), other, ErrForbidden},
		{"non-author cannot edit approved", post(models.StatusApproved), other, ErrForbidden},
		{"admin edits any status", post(models.StatusPublished), admin, nil},
		{"admin edits another author's draft", post(models.StatusDraft), admin, nil},
		{"inactive admin has no override", post(models.StatusApproved), inactiveAdmin, ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanEdit(tc.post, tc.actor)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}
