package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aronm-sonance/sonance-marketing-hub/middleware"
	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
	"github.com/aronm-sonance/sonance-marketing-hub/workflow"
)

// TransitionService is the slice of the workflow engine the post controller
// needs; injected so handler tests can run against fakes.
type TransitionService interface {
	RequestTransition(ctx context.Context, postID, toStatus, actorID, comment string) (*models.Post, error)
}

// PostController manages the post library and the approval workflow surface.
type PostController struct {
	db     *gorm.DB
	engine TransitionService
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, engine TransitionService) *PostController {
	return &PostController{db: db, engine: engine}
}

type postRequest struct {
	Title         string     `json:"title" binding:"required,min=1"`
	Content       string     `json:"content"`
	ImageURL      string     `json:"image_url"`
	ChannelID     string     `json:"channel_id"`
	PlatformID    string     `json:"platform_id"`
	ContentTypeID string     `json:"content_type_id"`
	PublishDate   *time.Time `json:"publish_date"`
}

// CreatePost creates a new post in draft owned by the caller. The caller must
// be a creator or approver on the target channel, or a global admin.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}
	if req.ChannelID == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "channel_id is required")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title cannot be empty")
		return
	}

	actor, ok := p.currentProfile(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	if !actor.IsAdmin() {
		var member models.ChannelMember
		err := p.db.Where("channel_id = ? AND profile_id = ?", req.ChannelID, actor.ID).First(&member).Error
		if err != nil || (member.Role != models.ChannelCreator && member.Role != models.ChannelApprover) {
			utils.Error(ctx, http.StatusForbidden, 40320, "you don't have permission to post to this channel")
			return
		}
	}

	post := models.Post{
		Title:         title,
		Content:       utils.Sanitize(req.Content),
		ImageURL:      req.ImageURL,
		ChannelID:     req.ChannelID,
		PlatformID:    req.PlatformID,
		ContentTypeID: req.ContentTypeID,
		PublishDate:   req.PublishDate,
		AuthorID:      actor.ID,
		Status:        models.StatusDraft,
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts with relation names, filterable by
// status, channel, platform, and a title/content search term.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	status := strings.TrimSpace(ctx.Query("status"))
	channelID := strings.TrimSpace(ctx.Query("channel_id"))
	platformID := strings.TrimSpace(ctx.Query("platform_id"))
	search := strings.TrimSpace(ctx.Query("q"))

	// Cache filtered lists when there is no search term to avoid cache key
	// explosion.
	cacheKey := fmt.Sprintf("cache:posts:list:status=%s:ch=%s:pf=%s:page=%d:size=%d",
		status, channelID, platformID, page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	query := p.db.Preload("Channel").Preload("Platform").Preload("Author").Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if channelID != "" {
		query = query.Where("channel_id = ?", channelID)
	}
	if platformID != "" {
		query = query.Where("platform_id = ?", platformID)
	}
	if search != "" {
		query = query.Where("title ILIKE ? OR content ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	if err := query.Model(&models.Post{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{
		"items": posts,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its relations and audit trail.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID := ctx.Param("id")

	if b, ok := utils.CacheGetBytes("cache:post:detail:" + postID); ok {
		ctx.Data(200, "application/json", b)
		return
	}

	var post models.Post
	err := p.db.Preload("Channel").Preload("Platform").Preload("ContentType").Preload("Author").
		First(&post, "id = ?", postID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	var history []models.PostStatusLog
	if err := p.db.Where("post_id = ?", post.ID).Order("created_at DESC").Find(&history).Error; err != nil {
		// History is supplementary; return the post without it.
		if utils.Sugar != nil {
			utils.Sugar.Warnf("failed to load status log for post %s: %v", post.ID, err)
		}
	}

	payload := gin.H{"post": post, "status_log": history}
	utils.CacheSetJSON("cache:post:detail:"+postID, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// UpdatePost mutates a post's content fields, subject to the editing guard:
// author or admin only, and only in draft or changes_requested unless admin.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40025, "title cannot be empty")
		return
	}

	postID := ctx.Param("id")
	var post models.Post
	if err := p.db.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	actor, ok := p.currentProfile(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}

	if err := workflow.CanEdit(&post, actor); err != nil {
		switch {
		case errors.Is(err, workflow.ErrForbidden):
			utils.Error(ctx, http.StatusForbidden, 40321, err.Error())
		case errors.Is(err, workflow.ErrInvalidState):
			utils.Error(ctx, http.StatusBadRequest, 40026, err.Error())
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to authorize edit")
		}
		return
	}

	post.Title = title
	post.Content = utils.Sanitize(req.Content)
	post.ImageURL = req.ImageURL
	if req.ChannelID != "" {
		post.ChannelID = req.ChannelID
	}
	post.PlatformID = req.PlatformID
	post.ContentTypeID = req.ContentTypeID
	post.PublishDate = req.PublishDate
	if err := p.db.Save(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)

	utils.Success(ctx, gin.H{"post": post})
}

// Transition requests a workflow status change on a post. Authorization,
// atomicity, audit logging, and notification fan-out live in the engine; this
// handler only maps its error taxonomy onto HTTP statuses.
func (p *PostController) Transition(ctx *gin.Context) {
	var req struct {
		ToStatus string `json:"to_status" binding:"required"`
		Comment  string `json:"comment"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40027, "invalid request payload")
		return
	}

	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}

	postID := ctx.Param("id")
	post, err := p.engine.RequestTransition(ctx.Request.Context(), postID, req.ToStatus, userID, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		case errors.Is(err, workflow.ErrInvalidEdge):
			utils.Error(ctx, http.StatusBadRequest, 40028, err.Error())
		case errors.Is(err, workflow.ErrMissingComment):
			utils.Error(ctx, http.StatusBadRequest, 40029, err.Error())
		case errors.Is(err, workflow.ErrUnauthorized):
			utils.Error(ctx, http.StatusForbidden, 40322, err.Error())
		case errors.Is(err, workflow.ErrStaleTransition):
			utils.Error(ctx, http.StatusConflict, 40901, err.Error())
		default:
			utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to apply transition")
		}
		return
	}

	utils.InvalidateByPrefix("cache:posts:list:")
	utils.InvalidateByPrefix("cache:post:detail:" + postID)

	utils.Success(ctx, gin.H{"post": post})
}

func (p *PostController) currentProfile(ctx *gin.Context) (*models.Profile, bool) {
	return loadProfile(ctx, p.db)
}

func loadProfile(ctx *gin.Context, db *gorm.DB) (*models.Profile, bool) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		return nil, false
	}
	var profile models.Profile
	if err := db.First(&profile, "id = ?", userID).Error; err != nil {
		return nil, false
	}
	return &profile, true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}
