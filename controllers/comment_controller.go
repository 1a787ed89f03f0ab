package controllers

import (
	"errors"
	"net/http"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/services"
	"TaskPilotGo/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CommentController 评论接口。评论 append-only，只有创建和删除。
type CommentController struct {
	db *gorm.DB
}

func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// ListComments 返回实体的评论，按创建时间升序
func (c *CommentController) ListComments(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	kind, err := models.ParseEntityKind(ctx.Query("entityType"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的实体类型"})
		return
	}
	entityID := ctx.Query("entityId")
	if entityID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少实体ID"})
		return
	}

	ref := models.EntityRef{Kind: kind, ID: entityID}
	if _, err := services.VerifyEntityRef(c.db, uid, ref); err != nil {
		respondServiceError(ctx, err, "查询评论失败")
		return
	}

	var comments []models.Comment
	err = c.db.Where("entity_type = ? AND entity_id = ?", string(kind), entityID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		config.Logger.Errorw("查询评论失败", "error", err, "entityId", entityID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询评论失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment 创建评论
func (c *CommentController) CreateComment(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.CreateCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	kind, err := models.ParseEntityKind(req.EntityType)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的实体类型"})
		return
	}

	ref := models.EntityRef{Kind: kind, ID: req.EntityID}
	if _, err := services.VerifyEntityRef(c.db, uid, ref); err != nil {
		respondServiceError(ctx, err, "创建评论失败")
		return
	}

	comment := models.Comment{
		ID:         utils.GenerateID(),
		EntityType: string(kind),
		EntityID:   req.EntityID,
		Content:    req.Content,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		config.Logger.Errorw("创建评论失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建评论失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"comment": comment})
}

// DeleteComment 删除评论，先经所属实体校验归属
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var comment models.Comment
	err := c.db.Where("id = ?", ctx.Param("id")).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "资源不存在"})
			return
		}
		config.Logger.Errorw("查询评论失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "删除评论失败"})
		return
	}

	ref := models.EntityRef{Kind: models.EntityKind(comment.EntityType), ID: comment.EntityID}
	if _, err := services.VerifyEntityRef(c.db, uid, ref); err != nil {
		respondServiceError(ctx, err, "删除评论失败")
		return
	}

	if err := c.db.Delete(&comment).Error; err != nil {
		config.Logger.Errorw("删除评论失败", "error", err, "commentId", comment.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "删除评论失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "评论已删除"})
}
