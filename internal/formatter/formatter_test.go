package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
	"github.com/desertthunder/ytfetch/internal/tasks"
	th "github.com/desertthunder/ytfetch/internal/testing"
)

func sampleViews() []tasks.TaskView {
	return []tasks.TaskView{
		{
			ID:              "bbbbbbbb-0000",
			Title:           "Lofi | Beats",
			SourceURL:       "https://www.youtube.com/watch?v=abc",
			Status:          models.StatusDownloading,
			Quality:         models.QualityMP3,
			Progress:        42,
			DisplayProgress: 42,
			Speed:           "1.2MiB/s",
			ETA:             "00:12",
		},
		{
			ID:              "aaaaaaaa-0000",
			Title:           "Task aaaaaaaa",
			Status:          models.StatusFinished,
			Progress:        100,
			DisplayProgress: 100,
			CanMaterialize:  true,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{".csv", FormatCSV},
		{"Markdown", FormatMarkdown},
		{".md", FormatMarkdown},
		{"json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		percent, width int
		want           string
	}{
		{0, 4, "[----]"},
		{50, 4, "[##--]"},
		{100, 4, "[####]"},
		{150, 4, "[####]"},
		{-5, 4, "[----]"},
		{50, 0, ""},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.percent, tt.width); got != tt.want {
			t.Errorf("ProgressBar(%d, %d) = %q, want %q", tt.percent, tt.width, got, tt.want)
		}
	}
}

func TestExporters(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		output := string(TasksToText(sampleViews()))

		if !strings.Contains(output, "1. downloading") {
			t.Errorf("expected numbered status line, got: %s", output)
		}
		if !strings.Contains(output, "1.2MiB/s, ETA 00:12") {
			t.Errorf("expected speed and eta, got: %s", output)
		}
		if !strings.Contains(output, "ready to save") {
			t.Errorf("expected finished task marked ready, got: %s", output)
		}
		if !strings.Contains(output, "id: aaaaaaaa-0000") {
			t.Errorf("expected ids listed, got: %s", output)
		}
	})

	t.Run("Text Empty", func(t *testing.T) {
		if got := string(TasksToText(nil)); got != "No tasks\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := TasksToCSV(sampleViews())
		if err != nil {
			t.Fatalf("TasksToCSV failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "ID,Title,Status,Progress,Speed,ETA,Quality,Source URL,Error\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "bbbbbbbb-0000,Lofi | Beats,downloading,42,1.2MiB/s,00:12,mp3,") {
			t.Errorf("CSV missing first row, got: %s", output)
		}
		if !strings.Contains(output, "aaaaaaaa-0000,Task aaaaaaaa,finished,100") {
			t.Errorf("CSV missing second row, got: %s", output)
		}
	})

	t.Run("Markdown", func(t *testing.T) {
		output := string(TasksToMarkdown(sampleViews()))

		if !strings.Contains(output, "**Tasks**: 2") {
			t.Errorf("Markdown missing count, got: %s", output)
		}
		if !strings.Contains(output, `[Lofi \| Beats](https://www.youtube.com/watch?v=abc)`) {
			t.Errorf("Markdown missing escaped linked title, got: %s", output)
		}
		if !strings.Contains(output, "| Task aaaaaaaa | finished | 100% | `aaaaaaaa-0000` |") {
			t.Errorf("Markdown missing fallback row, got: %s", output)
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := ExportTasks(nil, FormatJSON)
		if err != nil {
			t.Fatalf("ExportTasks failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty array, got %s", data)
		}

		data, err = ExportTasks(sampleViews(), FormatJSON)
		if err != nil {
			t.Fatalf("ExportTasks failed: %v", err)
		}
		var decoded []tasks.TaskView
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[1].ID != "aaaaaaaa-0000" || !decoded[1].CanMaterialize {
			t.Errorf("unexpected decoded views %+v", decoded)
		}
	})

	t.Run("Unknown Format", func(t *testing.T) {
		if _, err := ExportTasks(nil, Format("xml")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestWriteTaskExport(t *testing.T) {
	t.Run("Format From Extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tasks.csv")

		got, err := WriteTaskExport(sampleViews(), path)
		if err != nil {
			t.Fatalf("WriteTaskExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "ID,Title") {
			t.Errorf("expected CSV content, got %s", content)
		}
	})

	t.Run("Unknown Extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tasks.xml")
		if _, err := WriteTaskExport(sampleViews(), path); err == nil {
			t.Fatal("expected error for unknown extension")
		}
		th.AssertNoFile(t, path)
	})

	t.Run("Unwritable Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "tasks.txt")
		if _, err := WriteTaskExport(sampleViews(), path); err == nil {
			t.Fatal("expected write error")
		}
	})
}

func TestResultsAndInfo(t *testing.T) {
	t.Run("Results Offset", func(t *testing.T) {
		results := []models.VideoSummary{
			{ID: "a", Title: "First", URL: "https://youtu.be/a"},
			{ID: "b", Title: "Second", URL: "https://youtu.be/b"},
		}
		output := string(ResultsToText(results, 10))
		if !strings.Contains(output, " 11. First") || !strings.Contains(output, " 12. Second") {
			t.Errorf("expected numbering to continue from offset, got: %s", output)
		}
	})

	t.Run("Info", func(t *testing.T) {
		info := &models.VideoInfo{
			Title:           "Song",
			DurationSeconds: 185,
			OriginalURL:     "https://youtu.be/x",
			Formats:         []models.Format{{ID: "best_mp4", Label: "Best MP4"}, {ID: "mp3", Label: "Audio (MP3)"}},
		}
		output := string(InfoToText(info))
		for _, want := range []string{"Title: Song", "Duration: 3:05", "URL: https://youtu.be/x", "mp3", "Audio (MP3)"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output: %s", want, output)
			}
		}
		if strings.Contains(output, "Thumbnail") {
			t.Errorf("expected empty thumbnail omitted: %s", output)
		}
	})
}

func TestHistoryToText(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Empty", func(t *testing.T) {
		if got := string(HistoryToText(nil, now)); got != "Nothing saved yet\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("Sizes And Ages", func(t *testing.T) {
		files := []models.SavedFile{
			{TaskID: "a", Path: "/dl/song.mp3", SizeBytes: 2_000_000, SavedAt: now.Add(-2 * time.Hour)},
			{TaskID: "b", Path: "/dl/clip.mp4", SizeBytes: 500, SavedAt: now.Add(-3 * 24 * time.Hour)},
		}
		output := string(HistoryToText(files, now))

		for _, want := range []string{"2.0 MB", "2 hours ago", "/dl/song.mp3", "500 B", "3 days ago", "2 files, 2.0 MB total"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected %q in output:\n%s", want, output)
			}
		}
	})
}
