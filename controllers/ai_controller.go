package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AIController AI 生成相关接口
type AIController struct {
	db  *gorm.DB
	gen *services.GenerationService
}

func NewAIController(db *gorm.DB, gen *services.GenerationService) *AIController {
	return &AIController{db: db, gen: gen}
}

// currentUserID 从上下文取认证中间件写入的用户ID
func currentUserID(ctx *gin.Context) (string, bool) {
	uid, exists := ctx.Get("uid")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "未获取到用户ID"})
		return "", false
	}
	return uid.(string), true
}

// respondServiceError 将服务层错误翻译为 HTTP 状态码
func respondServiceError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "资源不存在"})
	case errors.Is(err, services.ErrGenerationInProgress):
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "同一范围的生成请求正在进行中"})
	default:
		config.Logger.Errorw(fallback, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// GenerateTasks 为项目生成任务
func (c *AIController) GenerateTasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.GenerateTasksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.ProjectID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少项目ID"})
		return
	}

	result, err := c.gen.GenerateTasks(ctx, uid, req.ProjectID, req.Refresh)
	if err != nil {
		respondServiceError(ctx, err, "生成任务失败")
		return
	}

	if len(result.Failed) > 0 {
		config.Logger.Warnw("部分生成任务写入失败",
			"projectId", req.ProjectID,
			"failed", len(result.Failed),
		)
	}

	ctx.JSON(http.StatusOK, models.GenerateTasksResponse{
		Tasks:    result.Tasks,
		Appended: result.Appended,
	})
}

// GenerateSubtasks 为任务生成子任务
func (c *AIController) GenerateSubtasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.GenerateSubtasksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.TaskID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少任务ID"})
		return
	}

	result, err := c.gen.GenerateSubtasks(ctx, uid, req.TaskID, req.Refresh)
	if err != nil {
		respondServiceError(ctx, err, "生成子任务失败")
		return
	}

	if len(result.Failed) > 0 {
		config.Logger.Warnw("部分生成子任务写入失败",
			"taskId", req.TaskID,
			"failed", len(result.Failed),
		)
	}

	ctx.JSON(http.StatusOK, models.GenerateSubtasksResponse{
		Subtasks: result.Subtasks,
		Appended: result.Appended,
	})
}

// AcceptTask 采纳单个 AI 任务
func (c *AIController) AcceptTask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.AcceptTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.TaskID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少任务ID"})
		return
	}

	task, err := c.gen.AcceptTask(ctx, uid, req.TaskID)
	if err != nil {
		respondServiceError(ctx, err, "采纳任务失败")
		return
	}

	ctx.JSON(http.StatusOK, models.AcceptTaskResponse{
		Task:    *task,
		Message: "Task accepted successfully",
	})
}

// AcceptSubtask 采纳单个 AI 子任务
func (c *AIController) AcceptSubtask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.AcceptSubtaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.SubtaskID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少子任务ID"})
		return
	}

	subtask, err := c.gen.AcceptSubtask(ctx, uid, req.SubtaskID)
	if err != nil {
		respondServiceError(ctx, err, "采纳子任务失败")
		return
	}

	ctx.JSON(http.StatusOK, models.AcceptSubtaskResponse{
		Subtask: *subtask,
		Message: "Subtask accepted successfully",
	})
}

// AcceptAllTasks 批量采纳项目下全部 AI 任务
func (c *AIController) AcceptAllTasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.AcceptAllTasksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.ProjectID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少项目ID"})
		return
	}

	tasks, err := c.gen.AcceptAllTasks(ctx, uid, req.ProjectID)
	if err != nil {
		respondServiceError(ctx, err, "采纳任务失败")
		return
	}

	ctx.JSON(http.StatusOK, models.AcceptAllTasksResponse{
		AcceptedCount: len(tasks),
		Tasks:         tasks,
		Message:       acceptMessage(len(tasks), "task"),
	})
}

// AcceptAllSubtasks 批量采纳任务下全部 AI 子任务
func (c *AIController) AcceptAllSubtasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.AcceptAllSubtasksRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.TaskID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少任务ID"})
		return
	}

	subtasks, err := c.gen.AcceptAllSubtasks(ctx, uid, req.TaskID)
	if err != nil {
		respondServiceError(ctx, err, "采纳子任务失败")
		return
	}

	ctx.JSON(http.StatusOK, models.AcceptAllSubtasksResponse{
		AcceptedCount: len(subtasks),
		Subtasks:      subtasks,
		Message:       acceptMessage(len(subtasks), "subtask"),
	})
}

// EnhanceDescription 优化实体描述
func (c *AIController) EnhanceDescription(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.EnhanceDescriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}
	if req.EntityID == "" || req.EntityType == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少实体ID或类型"})
		return
	}

	kind, err := models.ParseEntityKind(req.EntityType)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的实体类型"})
		return
	}

	description, err := c.gen.EnhanceDescription(ctx, uid, models.EntityRef{Kind: kind, ID: req.EntityID})
	if err != nil {
		respondServiceError(ctx, err, "优化描述失败")
		return
	}

	ctx.JSON(http.StatusOK, models.EnhanceDescriptionResponse{Description: description})
}

// GetGenerations 查询生成标记，UI 据此决定是否提供 refresh
func (c *AIController) GetGenerations(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	entityType := ctx.Query("entityType")
	entityID := ctx.Query("entityId")
	if entityType == "" || entityID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少实体ID或类型"})
		return
	}

	kind, err := models.ParseEntityKind(entityType)
	if err != nil || kind == models.EntitySubtask {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的实体类型"})
		return
	}

	if _, err := services.VerifyEntityRef(c.db, uid, models.EntityRef{Kind: kind, ID: entityID}); err != nil {
		respondServiceError(ctx, err, "查询生成标记失败")
		return
	}

	var generations []models.AIGeneration
	err = c.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Find(&generations).Error
	if err != nil {
		config.Logger.Errorw("查询生成标记失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询生成标记失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"generations": generations})
}

func acceptMessage(count int, noun string) string {
	if count == 0 {
		return fmt.Sprintf("No AI %ss found to accept", noun)
	}
	plural := "s"
	if count == 1 {
		plural = ""
	}
	return fmt.Sprintf("Successfully accepted %d AI %s%s", count, noun, plural)
}
