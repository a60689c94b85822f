package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/aronm-sonance/sonance-marketing-hub/middleware"
	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/workflow"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "controllers-test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubEngine struct {
	post *models.Post
	err  error

	gotPostID  string
	gotTo      string
	gotActorID string
	gotComment string
}

func (s *stubEngine) RequestTransition(ctx context.Context, postID, toStatus, actorID, comment string) (*models.Post, error) {
	s.gotPostID = postID
	s.gotTo = toStatus
	s.gotActorID = actorID
	s.gotComment = comment
	if s.err != nil {
		return nil, s.err
	}
	return s.post, nil
}

func newTransitionRouter(engine *stubEngine, userID string) *gin.Engine {
	pc := NewPostController(nil, engine)
	r := gin.New()
	r.POST("/posts/:id/transition", func(ctx *gin.Context) {
		if userID != "" {
			ctx.Set(middleware.ContextUserIDKey, userID)
		}
		ctx.Next()
	}, pc.Transition)
	return r
}

func doTransition(r *gin.Engine, postID, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/transition", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestTransitionRequiresAuthenticatedUser(t *testing.T) {
	r := newTransitionRouter(&stubEngine{}, "")
	w := doTransition(r, "p1", `{"to_status":"pending"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTransitionRejectsMissingToStatus(t *testing.T) {
	r := newTransitionRouter(&stubEngine{}, "user-1")
	w := doTransition(r, "p1", `{"comment":"no target"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"post not found", workflow.ErrNotFound, http.StatusNotFound},
		{"invalid edge", workflow.ErrInvalidEdge, http.StatusBadRequest},
		{"missing comment", workflow.ErrMissingComment, http.StatusBadRequest},
		{"unauthorized actor", workflow.ErrUnauthorized, http.StatusForbidden},
		{"stale transition", workflow.ErrStaleTransition, http.StatusConflict},
		{"unexpected failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{err: tc.err}
			r := newTransitionRouter(engine, "user-1")
			w := doTransition(r, "p1", `{"to_status":"approved"}`)
			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestTransitionSuccess(t *testing.T) {
	engine := &stubEngine{
		post: &models.Post{ID: "p1", Title: "Launch recap", Status: models.StatusApproved},
	}
	r := newTransitionRouter(engine, "user-1")
	w := doTransition(r, "p1", `{"to_status":"approved","comment":"ship it"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"approved"`)

	assert.Equal(t, "p1", engine.gotPostID)
	assert.Equal(t, "approved", engine.gotTo)
	assert.Equal(t, "user-1", engine.gotActorID)
	assert.Equal(t, "ship it", engine.gotComment)
}
