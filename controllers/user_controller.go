package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
	"github.com/aronm-sonance/sonance-marketing-hub/workflow"
)

// UserController covers the admin user surface: inviting users into the hub
// and listing profiles. Account credentials stay with the identity provider;
// this only manages the profile rows the application reads.
type UserController struct {
	db      *gorm.DB
	mailer  workflow.Mailer
	baseURL string
}

// NewUserController creates a new UserController instance.
func NewUserController(db *gorm.DB, mailer workflow.Mailer, baseURL string) *UserController {
	return &UserController{db: db, mailer: mailer, baseURL: strings.TrimSuffix(baseURL, "/")}
}

var invitableRoles = map[string]bool{
	models.RoleAdmin:         true,
	models.RoleBrandMarketer: true,
	models.RoleChannelLead:   true,
	models.RoleCreator:       true,
	models.RoleViewer:        true,
}

// Invite upserts a profile for the given email and sends a best-effort
// invitation email. An email failure does not fail the invite; the profile
// row is already committed.
func (u *UserController) Invite(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleViewer
	}
	if !invitableRoles[role] {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid role")
		return
	}

	profile := models.Profile{
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		FullName: req.FullName,
		Role:     role,
		Status:   models.ProfileActive,
	}
	err := u.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"full_name": req.FullName, "role": role, "status": models.ProfileActive}),
	}).Create(&profile).Error
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to save profile")
		return
	}

	if u.mailer != nil {
		html := fmt.Sprintf(
			"<div style=\"font-family: ui-sans-serif, system-ui; line-height: 1.5;\">"+
				"<h2>Sonance Marketing Hub</h2>"+
				"<p>You've been invited. Sign in to get started:</p>"+
				"<p><a href=%q>Open the hub</a></p>"+
				"<p style=\"color:#666;font-size:12px\">If you weren't expecting this, you can ignore this email.</p>"+
				"</div>",
			u.baseURL+"/login",
		)
		if err := u.mailer.Send(profile.Email, "You've been invited to Sonance Marketing Hub", html); err != nil {
			if utils.Sugar != nil {
				utils.Sugar.Warnf("invite email to %s failed: %v", profile.Email, err)
			}
		}
	}

	utils.Success(ctx, gin.H{"profile": profile})
}

// List returns all profiles.
func (u *UserController) List(ctx *gin.Context) {
	var profiles []models.Profile
	if err := u.db.Order("created_at DESC").Find(&profiles).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to list users")
		return
	}
	utils.Success(ctx, gin.H{"users": profiles})
}
