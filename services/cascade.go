package services

import (
	"fmt"

	"TaskPilotGo/models"

	"gorm.io/gorm"
)

// 应用层级联删除。外键约束属于数据库侧职责，这里按 task → subtask →
// detail 顺序显式清理。逐语句执行，不包事务。

// DeleteTaskTree 删除任务及其子任务与描述记录
func DeleteTaskTree(db *gorm.DB, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}

	var subtaskIDs []string
	err := db.Model(&models.Subtask{}).
		Where("task_id IN ?", taskIDs).
		Pluck("id", &subtaskIDs).Error
	if err != nil {
		return fmt.Errorf("查询子任务失败: %w", err)
	}

	if err := DeleteSubtasks(db, subtaskIDs); err != nil {
		return err
	}
	if err := db.Where("task_id IN ?", taskIDs).Delete(&models.TaskDetail{}).Error; err != nil {
		return fmt.Errorf("删除任务描述失败: %w", err)
	}
	if err := deleteComments(db, models.EntityTask, taskIDs); err != nil {
		return err
	}
	if err := db.Where("id IN ?", taskIDs).Delete(&models.Task{}).Error; err != nil {
		return fmt.Errorf("删除任务失败: %w", err)
	}
	return nil
}

// DeleteSubtasks 删除子任务及其描述记录
func DeleteSubtasks(db *gorm.DB, subtaskIDs []string) error {
	if len(subtaskIDs) == 0 {
		return nil
	}
	if err := db.Where("subtask_id IN ?", subtaskIDs).Delete(&models.SubtaskDetail{}).Error; err != nil {
		return fmt.Errorf("删除子任务描述失败: %w", err)
	}
	if err := deleteComments(db, models.EntitySubtask, subtaskIDs); err != nil {
		return err
	}
	if err := db.Where("id IN ?", subtaskIDs).Delete(&models.Subtask{}).Error; err != nil {
		return fmt.Errorf("删除子任务失败: %w", err)
	}
	return nil
}

func deleteComments(db *gorm.DB, kind models.EntityKind, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}
	err := db.Where("entity_type = ? AND entity_id IN ?", string(kind), entityIDs).
		Delete(&models.Comment{}).Error
	if err != nil {
		return fmt.Errorf("删除评论失败: %w", err)
	}
	return nil
}

// DeleteProjectTree 删除项目及全部后代
func DeleteProjectTree(db *gorm.DB, projectID string) error {
	var ids []string
	err := db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("查询任务失败: %w", err)
	}

	if err := DeleteTaskTree(db, ids); err != nil {
		return err
	}
	if err := db.Where("project_id = ?", projectID).Delete(&models.ProjectDetail{}).Error; err != nil {
		return fmt.Errorf("删除项目描述失败: %w", err)
	}
	if err := deleteComments(db, models.EntityProject, []string{projectID}); err != nil {
		return err
	}
	if err := db.Where("id = ?", projectID).Delete(&models.Project{}).Error; err != nil {
		return fmt.Errorf("删除项目失败: %w", err)
	}
	return nil
}
