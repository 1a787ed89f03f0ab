package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"TaskPilotGo/models"
)

const twoTasksOutput = "```json\n[" +
	`{"title":"Write copy","description":"Draft all page copy","subtasks":[{"title":"Draft hero text","description":"Write the hero section"}]},` +
	`{"title":"Set up analytics","description":"Add tracking","subtasks":[]}` +
	"]\n```"

func TestGenerateTasksAppendsAfterMaxOrder(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")
	seedTask(t, db, project.ID, "Existing user task", models.SourceUser, 3)
	seedTask(t, db, project.ID, "Existing ai task", models.SourceAI, 5)

	svc := newTestService(t, db, &fakeGenerator{output: twoTasksOutput})

	result, err := svc.GenerateTasks(context.Background(), uid, project.ID, false)
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if !result.Appended {
		t.Error("expected appended=true for refresh=false")
	}
	if len(result.Tasks) != 2 {
		t.Fatalf("expected 2 inserted tasks, got %d", len(result.Tasks))
	}

	// 新批次全部排在原最大 order_index 之后，且按插入顺序严格递增
	prev := 5
	for _, task := range result.Tasks {
		if task.OrderIndex <= prev {
			t.Errorf("order_index %d not strictly increasing past %d", task.OrderIndex, prev)
		}
		prev = task.OrderIndex
		if task.SourceType != models.SourceAI {
			t.Errorf("expected ai source, got %q", task.SourceType)
		}
		if task.Status != models.StatusToDo {
			t.Errorf("expected To-Do status, got %q", task.Status)
		}
	}

	// 原有任务保持不动
	if n := countTasks(t, db, project.ID, models.SourceUser); n != 1 {
		t.Errorf("user task count = %d, want 1", n)
	}
	if n := countTasks(t, db, project.ID, models.SourceAI); n != 3 {
		t.Errorf("ai task count = %d, want 3", n)
	}
}

func TestGenerateTasksRefreshDeletesPreviousBatch(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")
	userTask := seedTask(t, db, project.ID, "Keep me", models.SourceUser, 0)
	oldAI := seedTask(t, db, project.ID, "Old generated", models.SourceAI, 1)
	oldSub := seedSubtask(t, db, oldAI.ID, "Old generated sub", models.SourceAI, 1)

	svc := newTestService(t, db, &fakeGenerator{output: twoTasksOutput})

	result, err := svc.GenerateTasks(context.Background(), uid, project.ID, true)
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if result.Appended {
		t.Error("expected appended=false for refresh=true")
	}

	// 旧 AI 批次整体消失，只剩最新批次
	var gone models.Task
	if err := db.First(&gone, "id = ?", oldAI.ID).Error; err == nil {
		t.Error("old ai task should have been deleted")
	}
	var goneSub models.Subtask
	if err := db.First(&goneSub, "id = ?", oldSub.ID).Error; err == nil {
		t.Error("old ai subtask should have been deleted")
	}
	if n := countTasks(t, db, project.ID, models.SourceAI); n != 2 {
		t.Errorf("ai task count after refresh = %d, want size of new batch 2", n)
	}

	// 用户任务不受 refresh 影响
	var kept models.Task
	if err := db.First(&kept, "id = ?", userTask.ID).Error; err != nil {
		t.Errorf("user task should survive refresh: %v", err)
	}
}

func TestGenerateTasksWebsiteRelaunchScenario(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Website Relaunch")
	seedTask(t, db, project.ID, "Design homepage", models.SourceUser, 0)

	output := "```json\n[" +
		`{"title":"Write copy","description":"Write the landing page copy","subtasks":[{"title":"Draft hero text","description":"First pass on the hero"}]}` +
		"]\n```"
	svc := newTestService(t, db, &fakeGenerator{output: output})

	result, err := svc.GenerateTasks(context.Background(), uid, project.ID, false)
	if err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if len(result.Tasks) != 1 {
		t.Fatalf("expected 1 new task, got %d", len(result.Tasks))
	}

	task := result.Tasks[0]
	if task.SourceType != models.SourceAI {
		t.Errorf("source_type = %q, want ai", task.SourceType)
	}
	if task.OrderIndex != 1 {
		t.Errorf("task order_index = %d, want 1 (previous max was 0)", task.OrderIndex)
	}
	if len(task.Subtasks) != 1 {
		t.Fatalf("expected 1 new subtask, got %d", len(task.Subtasks))
	}
	if task.Subtasks[0].OrderIndex != 1 {
		t.Errorf("subtask order_index = %d, want 1", task.Subtasks[0].OrderIndex)
	}

	// 描述记录随条目一起落库
	var detail models.TaskDetail
	if err := db.First(&detail, "task_id = ?", task.ID).Error; err != nil {
		t.Fatalf("task detail missing: %v", err)
	}
	if detail.Description != "Write the landing page copy" {
		t.Errorf("detail description = %q", detail.Description)
	}
}

func TestGenerateTasksNoArrayInsertsNothing(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")

	svc := newTestService(t, db, &fakeGenerator{output: "Sorry, I cannot help with that."})

	_, err := svc.GenerateTasks(context.Background(), uid, project.ID, false)
	if !errors.Is(err, ErrNoJSONArray) {
		t.Fatalf("expected ErrNoJSONArray, got %v", err)
	}

	if n := countTasks(t, db, project.ID, models.SourceAI); n != 0 {
		t.Errorf("no rows should be inserted on extraction failure, got %d", n)
	}
	var markers int64
	db.Model(&models.AIGeneration{}).Count(&markers)
	if markers != 0 {
		t.Errorf("no marker should be written on failure, got %d", markers)
	}
}

func TestGenerateTasksPromptContainsExistingItems(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")
	seedTask(t, db, project.ID, "Design homepage", models.SourceUser, 0)
	seedTask(t, db, project.ID, "Generated idea", models.SourceAI, 1)
	db.Create(&models.Comment{ID: "c1", EntityType: "project", EntityID: project.ID, Content: "must ship by friday"})

	gen := &fakeGenerator{output: twoTasksOutput}
	svc := newTestService(t, db, gen)

	if _, err := svc.GenerateTasks(context.Background(), uid, project.ID, false); err != nil {
		t.Fatalf("GenerateTasks() error = %v", err)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("expected exactly one model call, got %d", len(gen.prompts))
	}

	prompt := gen.prompts[0]
	for _, want := range []string{
		"[USER] Design homepage",
		"[AI] Generated idea",
		"must ship by friday",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateTasksOwnershipCollapsesToNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db)
	stranger := seedUser(t, db)
	project := seedProject(t, db, owner, "Private")

	svc := newTestService(t, db, &fakeGenerator{output: twoTasksOutput})

	if _, err := svc.GenerateTasks(context.Background(), stranger, project.ID, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign project, got %v", err)
	}
	if _, err := svc.GenerateTasks(context.Background(), owner, "missing-id", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing project, got %v", err)
	}
}

func TestGenerateTasksRejectedWhileLockHeld(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")

	svc := newTestService(t, db, &fakeGenerator{output: twoTasksOutput})

	release, err := svc.lock.Acquire(context.Background(), "project", project.ID, models.GenerationTasks)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer release()

	if _, err := svc.GenerateTasks(context.Background(), uid, project.ID, true); !errors.Is(err, ErrGenerationInProgress) {
		t.Fatalf("expected ErrGenerationInProgress, got %v", err)
	}
}

func TestGenerateTasksMarkerUpsertedOnce(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")

	svc := newTestService(t, db, &fakeGenerator{output: twoTasksOutput})

	if _, err := svc.GenerateTasks(context.Background(), uid, project.ID, false); err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if _, err := svc.GenerateTasks(context.Background(), uid, project.ID, false); err != nil {
		t.Fatalf("second generation: %v", err)
	}

	var markers []models.AIGeneration
	if err := db.Find(&markers).Error; err != nil {
		t.Fatalf("load markers: %v", err)
	}
	if len(markers) != 1 {
		t.Fatalf("expected a single upserted marker, got %d", len(markers))
	}
	if markers[0].EntityType != "project" || markers[0].GenerationType != models.GenerationTasks {
		t.Errorf("unexpected marker scope: %+v", markers[0])
	}
}

func TestGenerateSubtasksAppendAndRefresh(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")
	task := seedTask(t, db, project.ID, "Build backend", models.SourceUser, 0)
	seedSubtask(t, db, task.ID, "Existing step", models.SourceUser, 2)
	oldAI := seedSubtask(t, db, task.ID, "Old generated step", models.SourceAI, 3)

	output := `[{"title":"Write schema","description":"Define tables"},{"title":"Add endpoints","description":"REST routes"}]`
	svc := newTestService(t, db, &fakeGenerator{output: output})

	result, err := svc.GenerateSubtasks(context.Background(), uid, task.ID, false)
	if err != nil {
		t.Fatalf("GenerateSubtasks() error = %v", err)
	}
	if len(result.Subtasks) != 2 {
		t.Fatalf("expected 2 subtasks, got %d", len(result.Subtasks))
	}
	prev := 3
	for _, sub := range result.Subtasks {
		if sub.OrderIndex <= prev {
			t.Errorf("order_index %d not past previous max %d", sub.OrderIndex, prev)
		}
		prev = sub.OrderIndex
	}

	// refresh 清掉全部 AI 子任务后重建
	result, err = svc.GenerateSubtasks(context.Background(), uid, task.ID, true)
	if err != nil {
		t.Fatalf("refresh GenerateSubtasks() error = %v", err)
	}
	var gone models.Subtask
	if err := db.First(&gone, "id = ?", oldAI.ID).Error; err == nil {
		t.Error("pre-existing ai subtask should be deleted on refresh")
	}
	if n := countSubtasks(t, db, task.ID, models.SourceAI); n != 2 {
		t.Errorf("ai subtask count after refresh = %d, want 2", n)
	}
	if n := countSubtasks(t, db, task.ID, models.SourceUser); n != 1 {
		t.Errorf("user subtask count = %d, want 1", n)
	}
}

func TestEnhanceDescriptionLazyCreatesDetail(t *testing.T) {
	db := newTestDB(t)
	uid := seedUser(t, db)
	project := seedProject(t, db, uid, "Launch")

	svc := newTestService(t, db, &fakeGenerator{output: "  A sharper description.\n"})

	got, err := svc.EnhanceDescription(context.Background(), uid,
		models.EntityRef{Kind: models.EntityProject, ID: project.ID})
	if err != nil {
		t.Fatalf("EnhanceDescription() error = %v", err)
	}
	if got != "A sharper description." {
		t.Errorf("description = %q, want trimmed model output", got)
	}

	var detail models.ProjectDetail
	if err := db.First(&detail, "project_id = ?", project.ID).Error; err != nil {
		t.Fatalf("detail not created: %v", err)
	}
	if detail.Description != got {
		t.Errorf("stored description = %q", detail.Description)
	}

	// 二次调用原地更新，不再新建
	svc2 := newTestService(t, db, &fakeGenerator{output: "Updated again."})
	if _, err := svc2.EnhanceDescription(context.Background(), uid,
		models.EntityRef{Kind: models.EntityProject, ID: project.ID}); err != nil {
		t.Fatalf("second enhance: %v", err)
	}
	var details []models.ProjectDetail
	db.Where("project_id = ?", project.ID).Find(&details)
	if len(details) != 1 {
		t.Fatalf("expected single detail row, got %d", len(details))
	}
	if details[0].Description != "Updated again." {
		t.Errorf("description = %q after update", details[0].Description)
	}
}

func TestEnhanceDescriptionSubtaskOwnershipChain(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db)
	stranger := seedUser(t, db)
	project := seedProject(t, db, owner, "Launch")
	task := seedTask(t, db, project.ID, "Build", models.SourceUser, 0)
	subtask := seedSubtask(t, db, task.ID, "Step", models.SourceUser, 0)

	svc := newTestService(t, db, &fakeGenerator{output: "Better."})

	if _, err := svc.EnhanceDescription(context.Background(), stranger,
		models.EntityRef{Kind: models.EntitySubtask, ID: subtask.ID}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound through join chain, got %v", err)
	}
	if _, err := svc.EnhanceDescription(context.Background(), owner,
		models.EntityRef{Kind: models.EntitySubtask, ID: subtask.ID}); err != nil {
		t.Fatalf("owner should pass the chain: %v", err)
	}
}
