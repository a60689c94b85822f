package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aronm-sonance/sonance-marketing-hub/middleware"
	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
)

// NotificationController serves a user's in-app notifications.
type NotificationController struct {
	db *gorm.DB
}

// NewNotificationController creates a new NotificationController instance.
func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{db: db}
}

// List returns the caller's 50 most recent notifications and the unread count.
func (n *NotificationController) List(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return
	}

	var notifications []models.Notification
	err := n.db.Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&notifications).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list notifications")
		return
	}

	var unread int64
	if err := n.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count unread notifications")
		return
	}

	utils.Success(ctx, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkRead flips the read flag on a set of the caller's notifications. The
// body carries either an array of ids or the string "all".
func (n *NotificationController) MarkRead(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "unauthorized")
		return
	}

	var req struct {
		IDs interface{} `json:"ids"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	query := n.db.Model(&models.Notification{}).Where("recipient_id = ?", userID)

	switch ids := req.IDs.(type) {
	case string:
		if ids != "all" {
			utils.Error(ctx, http.StatusBadRequest, 40041, "ids must be an array or \"all\"")
			return
		}
		query = query.Where("read = ?", false)
	case []interface{}:
		list := make([]string, 0, len(ids))
		for _, id := range ids {
			if s, ok := id.(string); ok {
				list = append(list, s)
			}
		}
		if len(list) == 0 {
			utils.Error(ctx, http.StatusBadRequest, 40042, "ids cannot be empty")
			return
		}
		query = query.Where("id IN ?", list)
	default:
		utils.Error(ctx, http.StatusBadRequest, 40041, "ids must be an array or \"all\"")
		return
	}

	if err := query.Update("read", true).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to mark notifications read")
		return
	}

	utils.Success(ctx, gin.H{"message": "notifications updated"})
}

// MarkOne flips the read flag on a single notification owned by the caller.
func (n *NotificationController) MarkOne(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40122, "unauthorized")
		return
	}

	var req struct {
		Read bool `json:"read"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}

	res := n.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", ctx.Param("id"), userID).
		Update("read", req.Read)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to update notification")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40410, "notification not found")
		return
	}

	utils.Success(ctx, gin.H{"message": "notification updated"})
}
