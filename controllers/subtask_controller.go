package controllers

import (
	"net/http"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/services"
	"TaskPilotGo/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubtaskController 子任务 CRUD
type SubtaskController struct {
	db *gorm.DB
}

func NewSubtaskController(db *gorm.DB) *SubtaskController {
	return &SubtaskController{db: db}
}

// ListSubtasks 返回任务下全部子任务
func (c *SubtaskController) ListSubtasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	task, err := services.GetOwnedTask(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "查询子任务列表失败")
		return
	}

	var subtasks []models.Subtask
	err = c.db.Where("task_id = ?", task.ID).
		Order(displayOrder).
		Find(&subtasks).Error
	if err != nil {
		config.Logger.Errorw("查询子任务列表失败", "error", err, "taskId", task.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询子任务列表失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"subtasks": subtasks})
}

// CreateSubtask 创建用户子任务，排序位置追加到末尾
func (c *SubtaskController) CreateSubtask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.CreateSubtaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	if _, err := services.GetOwnedTask(c.db, uid, req.TaskID); err != nil {
		respondServiceError(ctx, err, "创建子任务失败")
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusToDo
	}
	if !models.ValidItemStatus(status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的任务状态"})
		return
	}

	var maxOrder int
	err := c.db.Model(&models.Subtask{}).
		Where("task_id = ?", req.TaskID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		config.Logger.Errorw("查询子任务排序失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建子任务失败"})
		return
	}

	subtask := models.Subtask{
		ID:         utils.GenerateID(),
		TaskID:     req.TaskID,
		Name:       req.Name,
		Status:     status,
		OrderIndex: maxOrder + 1,
		SourceType: models.SourceUser,
	}
	if err := c.db.Create(&subtask).Error; err != nil {
		config.Logger.Errorw("创建子任务失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建子任务失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"subtask": subtask})
}

// UpdateSubtask 更新子任务名称或状态
func (c *SubtaskController) UpdateSubtask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	subtask, err := services.GetOwnedSubtask(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "更新子任务失败")
		return
	}

	var req models.UpdateSubtaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Status != nil {
		if !models.ValidItemStatus(*req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的任务状态"})
			return
		}
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := c.db.Model(subtask).Updates(updates).Error; err != nil {
			config.Logger.Errorw("更新子任务失败", "error", err, "subtaskId", subtask.ID)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "更新子任务失败"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"subtask": subtask})
}

// DeleteSubtask 删除子任务及其描述
func (c *SubtaskController) DeleteSubtask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	subtask, err := services.GetOwnedSubtask(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "删除子任务失败")
		return
	}

	if err := services.DeleteSubtasks(c.db, []string{subtask.ID}); err != nil {
		config.Logger.Errorw("删除子任务失败", "error", err, "subtaskId", subtask.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "删除子任务失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "子任务已删除"})
}

// ReorderSubtasks 重写 order_index 为 0..n-1，逐条更新
func (c *SubtaskController) ReorderSubtasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	for i, id := range req.IDs {
		err := c.db.Model(&models.Subtask{}).
			Where("id = ? AND task_id IN (?)",
				id, c.db.Model(&models.Task{}).Select("tasks.id").
					Joins("JOIN projects ON projects.id = tasks.project_id").
					Where("projects.user_id = ?", uid)).
			Update("order_index", i).Error
		if err != nil {
			config.Logger.Errorw("重排子任务失败", "error", err, "subtaskId", id)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "重排子任务失败"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "排序已更新"})
}
