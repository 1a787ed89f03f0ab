package routes

import (
	"TaskPilotGo/controllers"
	"TaskPilotGo/middleware"
	"TaskPilotGo/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, gen *services.GenerationService) {
	projectController := controllers.NewProjectController(db)
	taskController := controllers.NewTaskController(db)
	subtaskController := controllers.NewSubtaskController(db)
	detailController := controllers.NewDetailController(db)
	commentController := controllers.NewCommentController(db)
	aiController := controllers.NewAIController(db, gen)

	// 需要认证的路由
	private := r.Group("/api/v1")
	private.Use(middleware.AuthMiddleware())
	{
		// 项目
		private.GET("/projects", projectController.ListProjects)
		private.POST("/projects", projectController.CreateProject)
		private.PUT("/projects/reorder", projectController.ReorderProjects)
		private.PUT("/projects/:id", projectController.UpdateProject)
		private.DELETE("/projects/:id", projectController.DeleteProject)
		private.GET("/projects/:id/tasks", taskController.ListTasks)

		// 任务
		private.POST("/tasks", taskController.CreateTask)
		private.PUT("/tasks/reorder", taskController.ReorderTasks)
		private.PUT("/tasks/:id", taskController.UpdateTask)
		private.DELETE("/tasks/:id", taskController.DeleteTask)
		private.GET("/tasks/:id/subtasks", subtaskController.ListSubtasks)

		// 子任务
		private.POST("/subtasks", subtaskController.CreateSubtask)
		private.PUT("/subtasks/reorder", subtaskController.ReorderSubtasks)
		private.PUT("/subtasks/:id", subtaskController.UpdateSubtask)
		private.DELETE("/subtasks/:id", subtaskController.DeleteSubtask)

		// 描述
		private.GET("/details/:entityType/:id", detailController.GetDescription)
		private.PUT("/details/:entityType/:id", detailController.SaveDescription)

		// 评论
		private.GET("/comments", commentController.ListComments)
		private.POST("/comments", commentController.CreateComment)
		private.DELETE("/comments/:id", commentController.DeleteComment)

		// AI 生成
		private.POST("/ai/generate-tasks", aiController.GenerateTasks)
		private.POST("/ai/generate-subtasks", aiController.GenerateSubtasks)
		private.POST("/ai/accept-task", aiController.AcceptTask)
		private.POST("/ai/accept-subtask", aiController.AcceptSubtask)
		private.POST("/ai/accept-all-tasks", aiController.AcceptAllTasks)
		private.POST("/ai/accept-all-subtasks", aiController.AcceptAllSubtasks)
		private.POST("/ai/enhance-description", aiController.EnhanceDescription)
		private.GET("/ai/generations", aiController.GetGenerations)
	}

	// 测试路由
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
}
