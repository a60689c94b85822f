package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
)

// AdminRequired gates a route to active profiles holding the global admin
// role. It must run after AuthRequired.
func AdminRequired(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, ok := UserID(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			ctx.Abort()
			return
		}

		var profile models.Profile
		if err := db.First(&profile, "id = ?", userID).Error; err != nil {
			utils.Error(ctx, http.StatusForbidden, 40310, "profile not found")
			ctx.Abort()
			return
		}
		if profile.Status != models.ProfileActive {
			utils.Error(ctx, http.StatusForbidden, 40311, "profile inactive")
			ctx.Abort()
			return
		}
		if profile.Role != models.RoleAdmin {
			utils.Error(ctx, http.StatusForbidden, 40312, "admin role required")
			ctx.Abort()
			return
		}

		ctx.Next()
	}
}
