package services

import (
	"context"
	"errors"
	"fmt"

	"TaskPilotGo/models"

	"gorm.io/gorm"
)

// Accept 操作：ai → user 单向转换，表示用户采纳了生成结果。
// 目标行不是 ai 来源或不归属调用者时返回 ErrNotFound。

func (s *GenerationService) AcceptTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	db := s.db.WithContext(ctx)

	var task models.Task
	err := db.Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("tasks.id = ? AND projects.user_id = ? AND tasks.source_type = ?",
			taskID, userID, models.SourceAI).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}

	if err := db.Model(&task).Update("source_type", models.SourceUser).Error; err != nil {
		return nil, fmt.Errorf("采纳任务失败: %w", err)
	}
	return &task, nil
}

func (s *GenerationService) AcceptSubtask(ctx context.Context, userID, subtaskID string) (*models.Subtask, error) {
	db := s.db.WithContext(ctx)

	var subtask models.Subtask
	err := db.Joins("JOIN tasks ON tasks.id = subtasks.task_id").
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Where("subtasks.id = ? AND projects.user_id = ? AND subtasks.source_type = ?",
			subtaskID, userID, models.SourceAI).
		First(&subtask).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("查询子任务失败: %w", err)
	}

	if err := db.Model(&subtask).Update("source_type", models.SourceUser).Error; err != nil {
		return nil, fmt.Errorf("采纳子任务失败: %w", err)
	}
	return &subtask, nil
}

// AcceptAllTasks 批量采纳项目下全部 AI 任务，返回转换后的行，0 条是
// 正常结果而非错误
func (s *GenerationService) AcceptAllTasks(ctx context.Context, userID, projectID string) ([]models.Task, error) {
	db := s.db.WithContext(ctx)

	if _, err := GetOwnedProject(db, userID, projectID); err != nil {
		return nil, err
	}

	var ids []string
	err := db.Model(&models.Task{}).
		Where("project_id = ? AND source_type = ?", projectID, models.SourceAI).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("查询AI任务失败: %w", err)
	}
	if len(ids) == 0 {
		return []models.Task{}, nil
	}

	err = db.Model(&models.Task{}).
		Where("id IN ?", ids).
		Update("source_type", models.SourceUser).Error
	if err != nil {
		return nil, fmt.Errorf("采纳任务失败: %w", err)
	}

	var tasks []models.Task
	if err := db.Where("id IN ?", ids).Order("order_index ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	return tasks, nil
}

// AcceptAllSubtasks 批量采纳任务下全部 AI 子任务
func (s *GenerationService) AcceptAllSubtasks(ctx context.Context, userID, taskID string) ([]models.Subtask, error) {
	db := s.db.WithContext(ctx)

	if _, err := GetOwnedTask(db, userID, taskID); err != nil {
		return nil, err
	}

	var ids []string
	err := db.Model(&models.Subtask{}).
		Where("task_id = ? AND source_type = ?", taskID, models.SourceAI).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("查询AI子任务失败: %w", err)
	}
	if len(ids) == 0 {
		return []models.Subtask{}, nil
	}

	err = db.Model(&models.Subtask{}).
		Where("id IN ?", ids).
		Update("source_type", models.SourceUser).Error
	if err != nil {
		return nil, fmt.Errorf("采纳子任务失败: %w", err)
	}

	var subtasks []models.Subtask
	if err := db.Where("id IN ?", ids).Order("order_index ASC").Find(&subtasks).Error; err != nil {
		return nil, fmt.Errorf("查询子任务失败: %w", err)
	}
	return subtasks, nil
}
