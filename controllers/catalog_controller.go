package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
	"github.com/aronm-sonance/sonance-marketing-hub/utils"
)

// CatalogController manages the reference tables posts point at: platforms
// and content types. Plain admin CRUD, no workflow involvement.
type CatalogController struct {
	db *gorm.DB
}

// NewCatalogController creates a new CatalogController instance.
func NewCatalogController(db *gorm.DB) *CatalogController {
	return &CatalogController{db: db}
}

// ListPlatforms returns all platforms.
func (c *CatalogController) ListPlatforms(ctx *gin.Context) {
	var platforms []models.Platform
	if err := c.db.Order("name ASC").Find(&platforms).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to list platforms")
		return
	}
	utils.Success(ctx, gin.H{"platforms": platforms})
}

// CreatePlatform adds a platform.
func (c *CatalogController) CreatePlatform(ctx *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	platform := models.Platform{Name: strings.TrimSpace(req.Name)}
	if err := c.db.Create(&platform).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to create platform")
		return
	}
	utils.Success(ctx, gin.H{"platform": platform})
}

// UpdatePlatform renames a platform.
func (c *CatalogController) UpdatePlatform(ctx *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40061, "invalid request payload")
		return
	}

	var platform models.Platform
	if err := c.db.First(&platform, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40440, "platform not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load platform")
		return
	}

	platform.Name = strings.TrimSpace(req.Name)
	if err := c.db.Save(&platform).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to update platform")
		return
	}
	utils.Success(ctx, gin.H{"platform": platform})
}

// DeletePlatform removes a platform.
func (c *CatalogController) DeletePlatform(ctx *gin.Context) {
	res := c.db.Delete(&models.Platform{}, "id = ?", ctx.Param("id"))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to delete platform")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40441, "platform not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "platform deleted"})
}

// ListContentTypes returns all content types.
func (c *CatalogController) ListContentTypes(ctx *gin.Context) {
	var types []models.ContentType
	if err := c.db.Order("name ASC").Find(&types).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to list content types")
		return
	}
	utils.Success(ctx, gin.H{"content_types": types})
}

// CreateContentType adds a content type.
func (c *CatalogController) CreateContentType(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid request payload")
		return
	}
	ct := models.ContentType{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := c.db.Create(&ct).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to create content type")
		return
	}
	utils.Success(ctx, gin.H{"content_type": ct})
}

// UpdateContentType edits a content type.
func (c *CatalogController) UpdateContentType(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,min=1"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40063, "invalid request payload")
		return
	}

	var ct models.ContentType
	if err := c.db.First(&ct, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40442, "content type not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to load content type")
		return
	}

	ct.Name = strings.TrimSpace(req.Name)
	ct.Description = req.Description
	if err := c.db.Save(&ct).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50068, "failed to update content type")
		return
	}
	utils.Success(ctx, gin.H{"content_type": ct})
}

// DeleteContentType removes a content type.
func (c *CatalogController) DeleteContentType(ctx *gin.Context) {
	res := c.db.Delete(&models.ContentType{}, "id = ?", ctx.Param("id"))
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50069, "failed to delete content type")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusNotFound, 40443, "content type not found")
		return
	}
	utils.Success(ctx, gin.H{"message": "content type deleted"})
}
