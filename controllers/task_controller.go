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

// TaskController 任务 CRUD
type TaskController struct {
	db *gorm.DB
}

func NewTaskController(db *gorm.DB) *TaskController {
	return &TaskController{db: db}
}

// 展示顺序：用户条目在前，AI 条目在后，各自按 order_index 升序
const displayOrder = "CASE WHEN source_type = 'user' THEN 0 ELSE 1 END, order_index ASC"

// ListTasks 返回项目下全部任务
func (c *TaskController) ListTasks(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	project, err := services.GetOwnedProject(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "查询任务列表失败")
		return
	}

	var tasks []models.Task
	err = c.db.Where("project_id = ?", project.ID).
		Order(displayOrder).
		Find(&tasks).Error
	if err != nil {
		config.Logger.Errorw("查询任务列表失败", "error", err, "projectId", project.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询任务列表失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// CreateTask 创建用户任务，排序位置追加到末尾
func (c *TaskController) CreateTask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.CreateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	if _, err := services.GetOwnedProject(c.db, uid, req.ProjectID); err != nil {
		respondServiceError(ctx, err, "创建任务失败")
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
	err := c.db.Model(&models.Task{}).
		Where("project_id = ?", req.ProjectID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		config.Logger.Errorw("查询任务排序失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建任务失败"})
		return
	}

	task := models.Task{
		ID:         utils.GenerateID(),
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		Status:     status,
		OrderIndex: maxOrder + 1,
		SourceType: models.SourceUser,
	}
	if err := c.db.Create(&task).Error; err != nil {
		config.Logger.Errorw("创建任务失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建任务失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

// UpdateTask 更新任务名称或状态。source_type 不在此处修改，只能通过
// accept 接口转换。
func (c *TaskController) UpdateTask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	task, err := services.GetOwnedTask(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "更新任务失败")
		return
	}

	var req models.UpdateTaskRequest
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
		if err := c.db.Model(task).Updates(updates).Error; err != nil {
			config.Logger.Errorw("更新任务失败", "error", err, "taskId", task.ID)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "更新任务失败"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask 删除任务并级联删除子任务
func (c *TaskController) DeleteTask(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	task, err := services.GetOwnedTask(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "删除任务失败")
		return
	}

	if err := services.DeleteTaskTree(c.db, []string{task.ID}); err != nil {
		config.Logger.Errorw("删除任务失败", "error", err, "taskId", task.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "删除任务失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "任务已删除"})
}

// ReorderTasks 重写 order_index 为 0..n-1，逐条更新
func (c *TaskController) ReorderTasks(ctx *gin.Context) {
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
		err := c.db.Model(&models.Task{}).
			Where("id = ? AND project_id IN (?)",
				id, c.db.Model(&models.Project{}).Select("id").Where("user_id = ?", uid)).
			Update("order_index", i).Error
		if err != nil {
			config.Logger.Errorw("重排任务失败", "error", err, "taskId", id)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "重排任务失败"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "排序已更新"})
}
