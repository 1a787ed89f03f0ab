package services

import (
	"context"
	"testing"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := config.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestLock(t *testing.T) *GenerationLock {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewGenerationLock(client)
}

// fakeGenerator 确定性的测试替身，记录收到的提示词
type fakeGenerator struct {
	output  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Invoke(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func newTestService(t *testing.T, db *gorm.DB, gen Generator) *GenerationService {
	t.Helper()
	return NewGenerationService(db, gen, newTestLock(t))
}

func seedUser(t *testing.T, db *gorm.DB) string {
	t.Helper()
	user := models.User{ID: utils.GenerateID(), Email: "dev@example.com", Name: "dev"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func seedProject(t *testing.T, db *gorm.DB, userID, name string) models.Project {
	t.Helper()
	project := models.Project{
		ID:     utils.GenerateID(),
		Name:   name,
		Status: models.ProjectStatusActive,
		UserID: userID,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func seedTask(t *testing.T, db *gorm.DB, projectID, name, source string, order int) models.Task {
	t.Helper()
	task := models.Task{
		ID:         utils.GenerateID(),
		ProjectID:  projectID,
		Name:       name,
		Status:     models.StatusToDo,
		OrderIndex: order,
		SourceType: source,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func seedSubtask(t *testing.T, db *gorm.DB, taskID, name, source string, order int) models.Subtask {
	t.Helper()
	subtask := models.Subtask{
		ID:         utils.GenerateID(),
		TaskID:     taskID,
		Name:       name,
		Status:     models.StatusToDo,
		OrderIndex: order,
		SourceType: source,
	}
	if err := db.Create(&subtask).Error; err != nil {
		t.Fatalf("seed subtask: %v", err)
	}
	return subtask
}

func countTasks(t *testing.T, db *gorm.DB, projectID, source string) int {
	t.Helper()
	var n int64
	err := db.Model(&models.Task{}).
		Where("project_id = ? AND source_type = ?", projectID, source).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	return int(n)
}

func countSubtasks(t *testing.T, db *gorm.DB, taskID, source string) int {
	t.Helper()
	var n int64
	err := db.Model(&models.Subtask{}).
		Where("task_id = ? AND source_type = ?", taskID, source).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count subtasks: %v", err)
	}
	return int(n)
}
