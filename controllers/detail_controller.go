package controllers

import (
	"net/http"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DetailController 实体描述读写，描述记录首次保存时惰性创建
type DetailController struct {
	db *gorm.DB
}

func NewDetailController(db *gorm.DB) *DetailController {
	return &DetailController{db: db}
}

func (c *DetailController) entityRef(ctx *gin.Context) (models.EntityRef, bool) {
	kind, err := models.ParseEntityKind(ctx.Param("entityType"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的实体类型"})
		return models.EntityRef{}, false
	}
	return models.EntityRef{Kind: kind, ID: ctx.Param("id")}, true
}

// GetDescription 读取描述
func (c *DetailController) GetDescription(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	ref, ok := c.entityRef(ctx)
	if !ok {
		return
	}

	if _, err := services.VerifyEntityRef(c.db, uid, ref); err != nil {
		respondServiceError(ctx, err, "查询描述失败")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"description": services.GetDescription(c.db, ref)})
}

// SaveDescription 保存描述
func (c *DetailController) SaveDescription(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	ref, ok := c.entityRef(ctx)
	if !ok {
		return
	}

	if _, err := services.VerifyEntityRef(c.db, uid, ref); err != nil {
		respondServiceError(ctx, err, "保存描述失败")
		return
	}

	var req models.SaveDescriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	if err := services.SaveDescription(c.db, ref, req.Description); err != nil {
		config.Logger.Errorw("保存描述失败", "error", err, "entityId", ref.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "保存描述失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"description": req.Description})
}
