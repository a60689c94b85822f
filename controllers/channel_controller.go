package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
)

// ChannelController manages channels and channel memberships. Mutating
// routes sit behind the admin middleware; the workflow engine only reads
// memberships.
type ChannelController struct {
	db *gorm.DB
}

// NewChannelController creates a new ChannelController instance.
func NewChannelController(db *gorm.DB) *ChannelController {
	return &ChannelController{db: db}
}

// List returns all channels.
func (c *ChannelController) List(ctx *gin.Context) {
	var channels []models.Channel
	if err := c.db.Order("name ASC").Find(&channels).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to list channels")
		return
	}
	utils.Success(ctx, gin.H{"channels": channels})
}

// Create adds a new channel.
func (c *ChannelController) Create(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}

	channel := models.Channel{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := c.db.Create(&channel).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to create channel")
		return
	}
	utils.Success(ctx, gin.H{"channel": channel})
}

// Update renames or redescribes a channel.
func (c *ChannelController) Update(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40051, "invalid request payload")
		return
	}

	var channel models.Channel
	if err := c.db.First(&channel, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "channel not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to load channel")
		return
	}

	channel.Name = strings.TrimSpace(req.Name)
	channel.Description = req.Description
	if err := c.db.Save(&channel).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50053, "failed to update channel")
		return
	}
	utils.Success(ctx, gin.H{"channel": channel})
}

// Delete removes a channel.
func (c *ChannelController) Delete(ctx *gin.Context) {
	res := c.db.Delete(&models.Channel{}, "id = ?", ctx.Param("id"))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50054, "failed to delete channel")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40431, "channel not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "channel deleted"})
}

// ListMembers returns the channel's memberships with profiles.
func (c *ChannelController) ListMembers(ctx *gin.Context) {
	var members []models.ChannelMember
	err := c.db.Preload("Profile").
		Where("channel_id = ?", ctx.Param("id")).
		Find(&members).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50055, "failed to list channel members")
		return
	}
	utils.Success(ctx, gin.H{"members": members})
}

// UpsertMember adds a profile to the channel or changes its role. One row per
// (channel, profile) pair is kept via an upsert on the unique index.
func (c *ChannelController) UpsertMember(ctx *gin.Context) {
	var req struct {
		ProfileID string `json:"profile_id" binding:"required"`
		Role      string `json:"role" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40052, "invalid request payload")
		return
	}

	role, ok := models.ParseChannelRole(req.Role)
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40053, "invalid membership role")
		return
	}

	member := models.ChannelMember{
		ChannelID: ctx.Param("id"),
		ProfileID: req.ProfileID,
		Role:      role,
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}, {Name: "profile_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"role": role}),
	}).Create(&member).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50056, "failed to save membership")
		return
	}
	utils.Success(ctx, gin.H{"member": member})
}

// RemoveMember deletes a membership row.
func (c *ChannelController) RemoveMember(ctx *gin.Context) {
	res := c.db.Where("channel_id = ? AND profile_id = ?", ctx.Param("id"), ctx.Param("profileId")).
		Delete(&models.ChannelMember{})
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50057, "failed to remove member")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40432, "membership not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "member removed"})
}
