package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestMarshalJSON(t *testing.T) {
	tc := []struct {
		name   string
		pretty bool
		want   string
	}{
		{name: "compact", pretty: false, want: `{"id":"t1","progress":50}`},
		{name: "pretty", pretty: true, want: "{\n  \"id\": \"t1\",\n  \"progress\": 50\n}"},
	}

	v := struct {
		ID       string `json:"id"`
		Progress int    `json:"progress"`
	}{"t1", 50}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalJSON(v, tt.pretty)
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Errorf("expected distinct ids, got %s twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %q: %v", a, err)
	}
}

func TestNewFileLogger(t *testing.T) {
	t.Run("Creates Parent Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "nested", "ytfetch.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger() error = %v", err)
		}
		logger.Info("poll applied", "tasks", 3)

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "poll applied") {
			t.Errorf("expected message in log file, got %q", data)
		}
	})

	t.Run("Parent Is A File", func(t *testing.T) {
		parent := filepath.Join(t.TempDir(), "not-a-dir")
		if err := os.WriteFile(parent, nil, 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewFileLogger(filepath.Join(parent, "ytfetch.log")); err == nil {
			t.Error("expected error when the parent path is a file")
		}
	})
}

func TestDiscardLogger(t *testing.T) {
	l := WithLogger(DiscardLogger(), "component", "test")
	l.Error("dropped")
}
