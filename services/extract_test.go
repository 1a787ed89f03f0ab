package services

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractJSONArrayPatterns(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "fenced json block",
			raw:  "Here you go:\n```json\n[{\"title\":\"a\"}]\n```\nDone.",
			want: `[{"title":"a"}]`,
		},
		{
			name: "generic fenced block",
			raw:  "```\n[{\"title\":\"b\"}]\n```",
			want: `[{"title":"b"}]`,
		},
		{
			name: "bare array in prose",
			raw:  "Sure, the result is [{\"title\":\"c\"}] as requested",
			want: `[{"title":"c"}]`,
		},
		{
			name: "fenced json wins over earlier bare array",
			raw:  "ignore [1,2,3] this\n```json\n[{\"title\":\"d\"}]\n```",
			want: `[{"title":"d"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONArray(tt.raw)
			if err != nil {
				t.Fatalf("extractJSONArray() error = %v", err)
			}
			if strings.TrimSpace(got) != tt.want {
				t.Errorf("extractJSONArray() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractJSONArrayNoMatch(t *testing.T) {
	_, err := extractJSONArray("I could not produce anything useful, sorry.")
	if !errors.Is(err, ErrNoJSONArray) {
		t.Fatalf("expected ErrNoJSONArray, got %v", err)
	}
}

func TestExtractTasksDropsInvalidElement(t *testing.T) {
	// 五个元素，一个标题为空，其余合法
	raw := "```json\n[" +
		`{"title":"Plan content","description":"d1","subtasks":[]},` +
		`{"title":"","description":"d2","subtasks":[]},` +
		`{"title":"Design review","description":"d3","subtasks":[]},` +
		`{"title":"Write tests","description":"d4","subtasks":[]},` +
		`{"title":"Ship","description":"d5","subtasks":[]}` +
		"]\n```"

	tasks, err := ExtractTasks(raw)
	if err != nil {
		t.Fatalf("ExtractTasks() error = %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 surviving tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.Title == "" {
			t.Errorf("invalid element survived: %+v", task)
		}
	}
}

func TestExtractTasksParseErrorIsFatal(t *testing.T) {
	raw := "```json\n[{\"title\": }]\n```"
	_, err := ExtractTasks(raw)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, ErrNoJSONArray) || errors.Is(err, ErrNoValidItems) {
		t.Fatalf("parse failure should not map to extraction sentinels, got %v", err)
	}
}

func TestExtractTasksNoValidItems(t *testing.T) {
	raw := `[{"title":"","description":""},{"title":"","description":""}]`
	_, err := ExtractTasks(raw)
	if !errors.Is(err, ErrNoValidItems) {
		t.Fatalf("expected ErrNoValidItems, got %v", err)
	}
}

func TestExtractTasksTruncatesToFive(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 7; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"title":"task`)
		sb.WriteByte(byte('0' + i))
		sb.WriteString(`","description":"d","subtasks":[]}`)
	}
	sb.WriteString("]")

	tasks, err := ExtractTasks(sb.String())
	if err != nil {
		t.Fatalf("ExtractTasks() error = %v", err)
	}
	if len(tasks) != 5 {
		t.Fatalf("expected cap at 5 tasks, got %d", len(tasks))
	}
}

func TestExtractTasksValidatesSubtasks(t *testing.T) {
	longDesc := strings.Repeat("x", 301)
	raw := `[` +
		`{"title":"ok","description":"d","subtasks":[{"title":"s","description":"sd"}]},` +
		`{"title":"bad sub","description":"d","subtasks":[{"title":"s","description":"` + longDesc + `"}]}` +
		`]`

	tasks, err := ExtractTasks(raw)
	if err != nil {
		t.Fatalf("ExtractTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "ok" {
		t.Fatalf("expected only the valid task to survive, got %+v", tasks)
	}
}

func TestExtractSubtasks(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr error
	}{
		{
			name:    "valid batch",
			raw:     `[{"title":"a","description":"d"},{"title":"b","description":"d"}]`,
			wantLen: 2,
		},
		{
			name:    "drops element with overlong description",
			raw:     `[{"title":"a","description":"d"},{"title":"b","description":"` + strings.Repeat("y", 301) + `"}]`,
			wantLen: 1,
		},
		{
			name:    "no array",
			raw:     "nothing here",
			wantErr: ErrNoJSONArray,
		},
		{
			name:    "all invalid",
			raw:     `[{"title":"","description":""}]`,
			wantErr: ErrNoValidItems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtasks, err := ExtractSubtasks(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractSubtasks() error = %v", err)
			}
			if len(subtasks) != tt.wantLen {
				t.Errorf("got %d subtasks, want %d", len(subtasks), tt.wantLen)
			}
		})
	}
}

func TestGeneratedTaskValidateBounds(t *testing.T) {
	tests := []struct {
		name    string
		task    GeneratedTask
		wantErr bool
	}{
		{"min lengths", GeneratedTask{Title: "a", Description: "b"}, false},
		{"title at limit", GeneratedTask{Title: strings.Repeat("t", 100), Description: "d"}, false},
		{"title over limit", GeneratedTask{Title: strings.Repeat("t", 101), Description: "d"}, true},
		{"description at limit", GeneratedTask{Title: "t", Description: strings.Repeat("d", 500)}, false},
		{"description over limit", GeneratedTask{Title: "t", Description: strings.Repeat("d", 501)}, true},
		{"too many subtasks", GeneratedTask{Title: "t", Description: "d", Subtasks: []GeneratedSubtask{
			{"a", "d"}, {"b", "d"}, {"c", "d"}, {"d", "d"}, {"e", "d"}, {"f", "d"},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
