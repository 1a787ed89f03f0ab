package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"TaskPilotGo/config"
	"TaskPilotGo/models"
	"TaskPilotGo/utils"

	"gorm.io/gorm"
)

// GenerationService 封装 AI 生成管线：读取层级上下文 → 组装提示词 →
// 调用模型 → 提取校验 → 合并入库。
type GenerationService struct {
	db   *gorm.DB
	llm  Generator
	lock *GenerationLock
}

func NewGenerationService(db *gorm.DB, llm Generator, lock *GenerationLock) *GenerationService {
	return &GenerationService{
		db:   db,
		llm:  llm,
		lock: lock,
	}
}

// InsertFailure 单条写入失败的记录，不中断整批
type InsertFailure struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// GenerateTasksResult 任务生成结果
type GenerateTasksResult struct {
	Tasks    []models.TaskView
	Failed   []InsertFailure
	Appended bool
}

// GenerateSubtasksResult 子任务生成结果
type GenerateSubtasksResult struct {
	Subtasks []models.SubtaskView
	Failed   []InsertFailure
	Appended bool
}

// GenerateTasks 为项目生成任务。refresh 为 true 时先删除已有 AI 任务，
// 否则追加到当前最大 order_index 之后。
func (s *GenerationService) GenerateTasks(ctx context.Context, userID, projectID string, refresh bool) (*GenerateTasksResult, error) {
	db := s.db.WithContext(ctx)

	project, err := GetOwnedProject(db, userID, projectID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, string(models.EntityProject), projectID, models.GenerationTasks)
	if err != nil {
		return nil, err
	}
	defer release()

	// 收集项目上下文
	description := s.loadProjectDescription(db, projectID)
	comments, err := s.loadComments(db, models.EntityRef{Kind: models.EntityProject, ID: projectID})
	if err != nil {
		return nil, err
	}

	userTasks, err := s.loadTasks(db, projectID, models.SourceUser)
	if err != nil {
		return nil, err
	}
	aiTasks, err := s.loadTasks(db, projectID, models.SourceAI)
	if err != nil {
		return nil, err
	}
	allTasks := append(append([]models.Task{}, userTasks...), aiTasks...)

	taskDescriptions, err := s.loadTaskDescriptions(db, taskIDs(allTasks))
	if err != nil {
		return nil, err
	}

	// 再往下一层：已有任务的子任务也纳入提示词上下文
	existingSubtasks, err := s.loadSubtasksOf(db, taskIDs(allTasks))
	if err != nil {
		return nil, err
	}
	subtaskDescriptions, err := s.loadSubtaskDescriptions(db, subtaskIDs(existingSubtasks))
	if err != nil {
		return nil, err
	}

	prompt := BuildTasksPrompt(TasksPromptInput{
		ProjectTitle:       project.Name,
		ProjectDescription: description,
		ProjectComments:    joinComments(comments),
		ExistingTasks:      taskPromptItems(allTasks, taskDescriptions),
		ExistingSubtasks:   subtaskPromptItems(existingSubtasks, subtaskDescriptions),
	})

	raw, err := s.llm.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("生成任务失败: %w", err)
	}

	items, err := ExtractTasks(raw)
	if err != nil {
		return nil, err
	}

	// refresh 语义：无条件删除再插入，未采纳的 AI 任务在此丢失
	if refresh {
		if err := s.deleteAITasks(db, projectID); err != nil {
			return nil, err
		}
	}

	baseOrder, err := s.nextTaskOrder(db, projectID)
	if err != nil {
		return nil, err
	}

	result := &GenerateTasksResult{Appended: !refresh}
	orderIndex := baseOrder
	for _, item := range items {
		task := models.Task{
			ID:         utils.GenerateID(),
			ProjectID:  projectID,
			Name:       item.Title,
			Status:     models.StatusToDo,
			OrderIndex: orderIndex,
			SourceType: models.SourceAI,
		}
		orderIndex++

		if err := db.Create(&task).Error; err != nil {
			config.Logger.Errorw("插入生成任务失败", "title", item.Title, "error", err)
			result.Failed = append(result.Failed, InsertFailure{Input: item.Title, Reason: err.Error()})
			continue
		}

		if err := db.Create(&models.TaskDetail{
			ID:          utils.GenerateID(),
			TaskID:      task.ID,
			Description: item.Description,
		}).Error; err != nil {
			config.Logger.Errorw("插入任务描述失败", "taskId", task.ID, "error", err)
		}

		view := models.TaskView{Task: task, Description: item.Description}

		// 生成的子任务在新任务内部独立编号，从 1 开始
		subtaskOrder := 1
		for _, sub := range item.Subtasks {
			subtask := models.Subtask{
				ID:         utils.GenerateID(),
				TaskID:     task.ID,
				Name:       sub.Title,
				Status:     models.StatusToDo,
				OrderIndex: subtaskOrder,
				SourceType: models.SourceAI,
			}
			subtaskOrder++

			if err := db.Create(&subtask).Error; err != nil {
				config.Logger.Errorw("插入生成子任务失败", "title", sub.Title, "error", err)
				result.Failed = append(result.Failed, InsertFailure{Input: sub.Title, Reason: err.Error()})
				continue
			}

			if err := db.Create(&models.SubtaskDetail{
				ID:          utils.GenerateID(),
				SubtaskID:   subtask.ID,
				Description: sub.Description,
			}).Error; err != nil {
				config.Logger.Errorw("插入子任务描述失败", "subtaskId", subtask.ID, "error", err)
			}

			view.Subtasks = append(view.Subtasks, models.SubtaskView{Subtask: subtask, Description: sub.Description})
		}

		result.Tasks = append(result.Tasks, view)
	}

	// 即使部分插入失败也记录生成标记
	if err := s.upsertGenerationMarker(db, models.EntityProject, projectID, models.GenerationTasks); err != nil {
		config.Logger.Errorw("更新生成标记失败", "projectId", projectID, "error", err)
	}

	return result, nil
}

// GenerateSubtasks 为任务生成子任务
func (s *GenerationService) GenerateSubtasks(ctx context.Context, userID, taskID string, refresh bool) (*GenerateSubtasksResult, error) {
	db := s.db.WithContext(ctx)

	task, err := GetOwnedTask(db, userID, taskID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock.Acquire(ctx, string(models.EntityTask), taskID, models.GenerationSubtasks)
	if err != nil {
		return nil, err
	}
	defer release()

	var project models.Project
	if err := db.First(&project, "id = ?", task.ProjectID).Error; err != nil {
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	projectComments, err := s.loadComments(db, models.EntityRef{Kind: models.EntityProject, ID: project.ID})
	if err != nil {
		return nil, err
	}
	taskComments, err := s.loadComments(db, models.EntityRef{Kind: models.EntityTask, ID: taskID})
	if err != nil {
		return nil, err
	}

	existing, err := s.loadSubtasksOf(db, []string{taskID})
	if err != nil {
		return nil, err
	}
	subtaskDescriptions, err := s.loadSubtaskDescriptions(db, subtaskIDs(existing))
	if err != nil {
		return nil, err
	}

	prompt := BuildSubtasksPrompt(SubtasksPromptInput{
		ProjectTitle:       project.Name,
		ProjectDescription: s.loadProjectDescription(db, project.ID),
		ProjectComments:    joinComments(projectComments),
		TaskTitle:          task.Name,
		TaskDescription:    s.loadTaskDescription(db, taskID),
		TaskComments:       joinComments(taskComments),
		ExistingSubtasks:   subtaskPromptItems(existing, subtaskDescriptions),
	})

	raw, err := s.llm.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("生成子任务失败: %w", err)
	}

	items, err := ExtractSubtasks(raw)
	if err != nil {
		return nil, err
	}

	if refresh {
		if err := s.deleteAISubtasks(db, taskID); err != nil {
			return nil, err
		}
	}

	baseOrder, err := s.nextSubtaskOrder(db, taskID)
	if err != nil {
		return nil, err
	}

	result := &GenerateSubtasksResult{Appended: !refresh}
	orderIndex := baseOrder
	for _, item := range items {
		subtask := models.Subtask{
			ID:         utils.GenerateID(),
			TaskID:     taskID,
			Name:       item.Title,
			Status:     models.StatusToDo,
			OrderIndex: orderIndex,
			SourceType: models.SourceAI,
		}
		orderIndex++

		if err := db.Create(&subtask).Error; err != nil {
			config.Logger.Errorw("插入生成子任务失败", "title", item.Title, "error", err)
			result.Failed = append(result.Failed, InsertFailure{Input: item.Title, Reason: err.Error()})
			continue
		}

		if err := db.Create(&models.SubtaskDetail{
			ID:          utils.GenerateID(),
			SubtaskID:   subtask.ID,
			Description: item.Description,
		}).Error; err != nil {
			config.Logger.Errorw("插入子任务描述失败", "subtaskId", subtask.ID, "error", err)
		}

		result.Subtasks = append(result.Subtasks, models.SubtaskView{Subtask: subtask, Description: item.Description})
	}

	if err := s.upsertGenerationMarker(db, models.EntityTask, taskID, models.GenerationSubtasks); err != nil {
		config.Logger.Errorw("更新生成标记失败", "taskId", taskID, "error", err)
	}

	return result, nil
}

// EnhanceDescription 用模型改写实体描述并保存，描述记录不存在时惰性创建
func (s *GenerationService) EnhanceDescription(ctx context.Context, userID string, ref models.EntityRef) (string, error) {
	db := s.db.WithContext(ctx)

	title, err := VerifyEntityRef(db, userID, ref)
	if err != nil {
		return "", err
	}

	current := s.loadDescription(db, ref)
	comments, err := s.loadComments(db, ref)
	if err != nil {
		return "", err
	}

	prompt := BuildEnhancePrompt(EnhancePromptInput{
		EntityType:         string(ref.Kind),
		Title:              title,
		CurrentDescription: current,
		AdditionalContext:  joinComments(comments),
	})

	raw, err := s.llm.Invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("优化描述失败: %w", err)
	}

	enhanced := strings.TrimSpace(raw)
	if enhanced == "" {
		return "", fmt.Errorf("优化描述失败: 模型输出为空")
	}

	if err := SaveDescription(db, ref, enhanced); err != nil {
		return "", err
	}
	return enhanced, nil
}

// SaveDescription 保存实体描述，首次保存时创建记录
func SaveDescription(db *gorm.DB, ref models.EntityRef, description string) error {
	switch ref.Kind {
	case models.EntityProject:
		var detail models.ProjectDetail
		err := db.Where("project_id = ?", ref.ID).First(&detail).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(&models.ProjectDetail{
				ID:          utils.GenerateID(),
				ProjectID:   ref.ID,
				Description: description,
			}).Error
		}
		if err != nil {
			return fmt.Errorf("查询项目描述失败: %w", err)
		}
		return db.Model(&detail).Update("description", description).Error
	case models.EntityTask:
		var detail models.TaskDetail
		err := db.Where("task_id = ?", ref.ID).First(&detail).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(&models.TaskDetail{
				ID:          utils.GenerateID(),
				TaskID:      ref.ID,
				Description: description,
			}).Error
		}
		if err != nil {
			return fmt.Errorf("查询任务描述失败: %w", err)
		}
		return db.Model(&detail).Update("description", description).Error
	case models.EntitySubtask:
		var detail models.SubtaskDetail
		err := db.Where("subtask_id = ?", ref.ID).First(&detail).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return db.Create(&models.SubtaskDetail{
				ID:          utils.GenerateID(),
				SubtaskID:   ref.ID,
				Description: description,
			}).Error
		}
		if err != nil {
			return fmt.Errorf("查询子任务描述失败: %w", err)
		}
		return db.Model(&detail).Update("description", description).Error
	}
	return fmt.Errorf("invalid entity kind: %q", ref.Kind)
}

// GetDescription 读取实体描述，不存在时返回空串
func GetDescription(db *gorm.DB, ref models.EntityRef) string {
	switch ref.Kind {
	case models.EntityProject:
		var detail models.ProjectDetail
		if err := db.Where("project_id = ?", ref.ID).First(&detail).Error; err == nil {
			return detail.Description
		}
	case models.EntityTask:
		var detail models.TaskDetail
		if err := db.Where("task_id = ?", ref.ID).First(&detail).Error; err == nil {
			return detail.Description
		}
	case models.EntitySubtask:
		var detail models.SubtaskDetail
		if err := db.Where("subtask_id = ?", ref.ID).First(&detail).Error; err == nil {
			return detail.Description
		}
	}
	return ""
}

// ---- 层级读取辅助 ----

func (s *GenerationService) loadProjectDescription(db *gorm.DB, projectID string) string {
	return GetDescription(db, models.EntityRef{Kind: models.EntityProject, ID: projectID})
}

func (s *GenerationService) loadTaskDescription(db *gorm.DB, taskID string) string {
	return GetDescription(db, models.EntityRef{Kind: models.EntityTask, ID: taskID})
}

func (s *GenerationService) loadDescription(db *gorm.DB, ref models.EntityRef) string {
	return GetDescription(db, ref)
}

func (s *GenerationService) loadComments(db *gorm.DB, ref models.EntityRef) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Where("entity_type = ? AND entity_id = ?", string(ref.Kind), ref.ID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("查询评论失败: %w", err)
	}
	return comments, nil
}

func (s *GenerationService) loadTasks(db *gorm.DB, projectID, sourceType string) ([]models.Task, error) {
	var tasks []models.Task
	err := db.Where("project_id = ? AND source_type = ?", projectID, sourceType).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	return tasks, nil
}

func (s *GenerationService) loadSubtasksOf(db *gorm.DB, taskIDs []string) ([]models.Subtask, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	var subtasks []models.Subtask
	err := db.Where("task_id IN ?", taskIDs).
		Order("created_at ASC").
		Find(&subtasks).Error
	if err != nil {
		return nil, fmt.Errorf("查询子任务失败: %w", err)
	}
	return subtasks, nil
}

func (s *GenerationService) loadTaskDescriptions(db *gorm.DB, taskIDs []string) (map[string]string, error) {
	result := make(map[string]string)
	if len(taskIDs) == 0 {
		return result, nil
	}
	var details []models.TaskDetail
	if err := db.Where("task_id IN ?", taskIDs).Find(&details).Error; err != nil {
		return nil, fmt.Errorf("查询任务描述失败: %w", err)
	}
	for _, d := range details {
		result[d.TaskID] = d.Description
	}
	return result, nil
}

func (s *GenerationService) loadSubtaskDescriptions(db *gorm.DB, subtaskIDs []string) (map[string]string, error) {
	result := make(map[string]string)
	if len(subtaskIDs) == 0 {
		return result, nil
	}
	var details []models.SubtaskDetail
	if err := db.Where("subtask_id IN ?", subtaskIDs).Find(&details).Error; err != nil {
		return nil, fmt.Errorf("查询子任务描述失败: %w", err)
	}
	for _, d := range details {
		result[d.SubtaskID] = d.Description
	}
	return result, nil
}

// ---- 合并辅助 ----

func (s *GenerationService) deleteAITasks(db *gorm.DB, projectID string) error {
	var ids []string
	err := db.Model(&models.Task{}).
		Where("project_id = ? AND source_type = ?", projectID, models.SourceAI).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("查询AI任务失败: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	return DeleteTaskTree(db, ids)
}

func (s *GenerationService) deleteAISubtasks(db *gorm.DB, taskID string) error {
	var ids []string
	err := db.Model(&models.Subtask{}).
		Where("task_id = ? AND source_type = ?", taskID, models.SourceAI).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("查询AI子任务失败: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	return DeleteSubtasks(db, ids)
}

// nextTaskOrder 取集合当前最大 order_index 加一，空集合返回 1
func (s *GenerationService) nextTaskOrder(db *gorm.DB, projectID string) (int, error) {
	var max int
	err := db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("查询任务排序失败: %w", err)
	}
	return max + 1, nil
}

func (s *GenerationService) nextSubtaskOrder(db *gorm.DB, taskID string) (int, error) {
	var max int
	err := db.Model(&models.Subtask{}).
		Where("task_id = ?", taskID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("查询子任务排序失败: %w", err)
	}
	return max + 1, nil
}

func (s *GenerationService) upsertGenerationMarker(db *gorm.DB, kind models.EntityKind, entityID, generationType string) error {
	var marker models.AIGeneration
	err := db.Where("entity_type = ? AND entity_id = ? AND generation_type = ?",
		string(kind), entityID, generationType).First(&marker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.Create(&models.AIGeneration{
			ID:             utils.GenerateID(),
			EntityType:     string(kind),
			EntityID:       entityID,
			GenerationType: generationType,
			GeneratedAt:    time.Now().UTC(),
		}).Error
	}
	if err != nil {
		return err
	}
	return db.Model(&marker).Update("generated_at", time.Now().UTC()).Error
}

// ---- 提示词素材 ----

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
	}
	return ids
}

func subtaskIDs(subtasks []models.Subtask) []string {
	ids := make([]string, len(subtasks))
	for i := range subtasks {
		ids[i] = subtasks[i].ID
	}
	return ids
}

func joinComments(comments []models.Comment) string {
	if len(comments) == 0 {
		return ""
	}
	parts := make([]string, len(comments))
	for i, c := range comments {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n")
}

func taskPromptItems(tasks []models.Task, descriptions map[string]string) []PromptItem {
	items := make([]PromptItem, len(tasks))
	for i, t := range tasks {
		items[i] = PromptItem{
			Title:       t.Name,
			Description: descriptions[t.ID],
			Source:      t.SourceType,
		}
	}
	return items
}

func subtaskPromptItems(subtasks []models.Subtask, descriptions map[string]string) []PromptItem {
	items := make([]PromptItem, len(subtasks))
	for i, s := range subtasks {
		items[i] = PromptItem{
			Title:       s.Name,
			Description: descriptions[s.ID],
			Source:      s.SourceType,
		}
	}
	return items
}
