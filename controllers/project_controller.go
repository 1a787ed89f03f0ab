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

// ProjectController 项目 CRUD
type ProjectController struct {
	db *gorm.DB
}

func NewProjectController(db *gorm.DB) *ProjectController {
	return &ProjectController{db: db}
}

// ListProjects 返回当前用户全部项目
func (c *ProjectController) ListProjects(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var projects []models.Project
	err := c.db.Where("user_id = ?", uid).
		Order("order_index ASC").
		Find(&projects).Error
	if err != nil {
		config.Logger.Errorw("查询项目列表失败", "error", err, "uid", uid)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "查询项目列表失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"projects": projects})
}

// CreateProject 创建项目，排序位置追加到末尾
func (c *ProjectController) CreateProject(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusActive
	}
	if !models.ValidProjectStatus(status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目状态"})
		return
	}

	var maxOrder int
	err := c.db.Model(&models.Project{}).
		Where("user_id = ?", uid).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		config.Logger.Errorw("查询项目排序失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建项目失败"})
		return
	}

	project := models.Project{
		ID:         utils.GenerateID(),
		Name:       req.Name,
		Status:     status,
		DueDate:    req.DueDate,
		OrderIndex: maxOrder + 1,
		UserID:     uid,
	}
	if err := c.db.Create(&project).Error; err != nil {
		config.Logger.Errorw("创建项目失败", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "创建项目失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateProject 更新项目，nil 字段保持不变
func (c *ProjectController) UpdateProject(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	project, err := services.GetOwnedProject(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "更新项目失败")
		return
	}

	var req models.UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Status != nil {
		if !models.ValidProjectStatus(*req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的项目状态"})
			return
		}
		updates["status"] = *req.Status
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Archived != nil {
		updates["archived"] = *req.Archived
	}

	if len(updates) > 0 {
		if err := c.db.Model(project).Updates(updates).Error; err != nil {
			config.Logger.Errorw("更新项目失败", "error", err, "projectId", project.ID)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "更新项目失败"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject 删除项目并级联删除后代
func (c *ProjectController) DeleteProject(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	project, err := services.GetOwnedProject(c.db, uid, ctx.Param("id"))
	if err != nil {
		respondServiceError(ctx, err, "删除项目失败")
		return
	}

	if err := services.DeleteProjectTree(c.db, project.ID); err != nil {
		config.Logger.Errorw("删除项目失败", "error", err, "projectId", project.ID)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "删除项目失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "项目已删除"})
}

// ReorderProjects 按请求顺序重写 order_index 为 0..n-1。逐条更新，
// 排序只影响展示，不保证整体原子性。
func (c *ProjectController) ReorderProjects(ctx *gin.Context) {
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
		err := c.db.Model(&models.Project{}).
			Where("id = ? AND user_id = ?", id, uid).
			Update("order_index", i).Error
		if err != nil {
			config.Logger.Errorw("重排项目失败", "error", err, "projectId", id)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "重排项目失败"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "排序已更新"})
}
