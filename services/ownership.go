package services

import (
	"errors"
	"fmt"

	"TaskPilotGo/models"

	"gorm.io/gorm"
)

// 归属校验：task 经 project 的 user_id 校验，subtask 经 task → project。
// 不存在与不归属统一折叠为 ErrNotFound。

func GetOwnedProject(db *gorm.DB, userID, projectID string) (*models.Project, error) {
	var project models.Project
	err := db.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	return &project, nil
}

func GetOwnedTask(db *gorm.DB, userID, taskID string) (*models.Task, error) {
	var task models.Task
	err := db.Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.id = ? AND projects.user_id = ?", taskID, userID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	return &task, nil
}

func GetOwnedSubtask(db *gorm.DB, userID, subtaskID string) (*models.Subtask, error) {
	var subtask models.Subtask
	err := db.Joins("JOIN tasks ON tasks.id = subtasks.task_id").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("subtasks.id = ? AND projects.user_id = ?", subtaskID, userID).
		First(&subtask).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询子任务失败: %w", err)
	}
	return &subtask, nil
}

// VerifyEntityRef 按引用类型校验归属，返回实体名称供提示词使用
func VerifyEntityRef(db *gorm.DB, userID string, ref models.EntityRef) (string, error) {
	switch ref.Kind {
	case models.EntityProject:
		project, err := GetOwnedProject(db, userID, ref.ID)
		if err != nil {
			return "", err
		}
		return project.Name, nil
	case models.EntityTask:
		task, err := GetOwnedTask(db, userID, ref.ID)
		if err != nil {
			return "", err
		}
		return task.Name, nil
	case models.EntitySubtask:
		subtask, err := GetOwnedSubtask(db, userID, ref.ID)
		if err != nil {
			return "", err
		}
		return subtask.Name, nil
	}
	return "", fmt.Errorf("invalid entity kind: %q", ref.Kind)
}
