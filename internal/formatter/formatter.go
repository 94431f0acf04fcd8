// package formatter renders task views, search results and save history as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/shared"
	"github.com/desertthunder/ytfetch/internal/tasks"
)

// Format is an export format.
type Format string

const (
	FormatText     Format = "txt"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a file extension. Empty selects [FormatText].
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "txt", "text":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// ProgressBar draws a fixed-width text bar for a percentage.
func ProgressBar(percent, width int) string {
	if width <= 0 {
		return ""
	}
	percent = max(0, min(percent, 100))
	filled := percent * width / 100
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// TaskLine renders a single view as one line of text.
func TaskLine(v tasks.TaskView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-11s %s %3d%%  %s", v.Status, ProgressBar(v.DisplayProgress, 20), v.DisplayProgress, v.Title)

	var extra []string
	if v.Speed != "" {
		extra = append(extra, v.Speed)
	}
	if v.ETA != "" {
		extra = append(extra, "ETA "+v.ETA)
	}
	switch {
	case v.Error != "":
		extra = append(extra, "error: "+v.Error)
	case v.AlreadyMaterialized:
		extra = append(extra, "saved")
	case v.CanMaterialize:
		extra = append(extra, "ready to save")
	}
	if len(extra) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(extra, ", "))
	}
	return b.String()
}

// TasksToText renders views as numbered lines, each followed by its id.
func TasksToText(views []tasks.TaskView) []byte {
	var buf bytes.Buffer
	if len(views) == 0 {
		buf.WriteString("No tasks\n")
		return buf.Bytes()
	}
	for i, v := range views {
		fmt.Fprintf(&buf, "%d. %s\n   id: %s\n", i+1, TaskLine(v), v.ID)
	}
	return buf.Bytes()
}

// TasksToCSV converts views to CSV with columns: ID, Title, Status, Progress, Speed, ETA, Quality, Source URL, Error
func TasksToCSV(views []tasks.TaskView) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Status", "Progress", "Speed", "ETA", "Quality", "Source URL", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, v := range views {
		record := []string{
			v.ID,
			v.Title,
			v.Status.String(),
			strconv.Itoa(v.DisplayProgress),
			v.Speed,
			v.ETA,
			string(v.Quality),
			v.SourceURL,
			v.Error,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// TasksToMarkdown converts views to a Markdown table.
func TasksToMarkdown(views []tasks.TaskView) []byte {
	var buf bytes.Buffer
	buf.WriteString("# Tasks\n\n")
	fmt.Fprintf(&buf, "**Tasks**: %d\n\n", len(views))
	buf.WriteString("| Title | Status | Progress | ID |\n|---|---|---|---|\n")
	for _, v := range views {
		title := v.Title
		if v.SourceURL != "" {
			title = fmt.Sprintf("[%s](%s)", v.Title, v.SourceURL)
		}
		fmt.Fprintf(&buf, "| %s | %s | %d%% | `%s` |\n", escapeCell(title), v.Status, v.DisplayProgress, v.ID)
	}
	return buf.Bytes()
}

func escapeCell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }

// ExportTasks renders views in the given format.
func ExportTasks(views []tasks.TaskView, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return TasksToCSV(views)
	case FormatMarkdown:
		return TasksToMarkdown(views), nil
	case FormatJSON:
		if views == nil {
			views = []tasks.TaskView{}
		}
		return shared.MarshalJSON(views, true)
	case FormatText, "":
		return TasksToText(views), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteTaskExport writes views to path, taking the format from the extension. Defaults to tasks.txt.
func WriteTaskExport(views []tasks.TaskView, path string) (string, error) {
	if path == "" {
		path = "tasks.txt"
	}

	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return "", err
	}

	data, err := ExportTasks(views, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate export: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// ResultsToText renders one page of search results.
func ResultsToText(results []models.VideoSummary, offset int) []byte {
	var buf bytes.Buffer
	for i, r := range results {
		fmt.Fprintf(&buf, "%3d. %s\n     %s\n", offset+i+1, r.Title, r.URL)
	}
	return buf.Bytes()
}

// InfoToText renders video info with its selectable formats.
func InfoToText(info *models.VideoInfo) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Title: %s\n", info.Title)
	if info.DurationSeconds > 0 {
		fmt.Fprintf(&buf, "Duration: %s\n", info.Duration())
	}
	if info.OriginalURL != "" {
		fmt.Fprintf(&buf, "URL: %s\n", info.OriginalURL)
	}
	if info.ThumbnailURL != "" {
		fmt.Fprintf(&buf, "Thumbnail: %s\n", info.ThumbnailURL)
	}
	if len(info.Formats) > 0 {
		buf.WriteString("Formats:\n")
		for _, f := range info.Formats {
			fmt.Fprintf(&buf, "  %-10s %s\n", f.ID, f.Label)
		}
	}
	return buf.Bytes()
}

// Size renders a byte count for humans, e.g. "2.0 MB".
func Size(n int64) string { return humanize.Bytes(uint64(max(n, 0))) }

// HistoryToText renders saved files with human-readable sizes and ages relative to now.
func HistoryToText(files []models.SavedFile, now time.Time) []byte {
	var buf bytes.Buffer
	if len(files) == 0 {
		buf.WriteString("Nothing saved yet\n")
		return buf.Bytes()
	}

	var total int64
	for _, f := range files {
		total += f.SizeBytes
		fmt.Fprintf(&buf, "%-10s %-16s %s\n", Size(f.SizeBytes), humanize.RelTime(f.SavedAt, now, "ago", "from now"), f.Path)
	}
	fmt.Fprintf(&buf, "\n%s files, %s total\n", humanize.Comma(int64(len(files))), Size(total))
	return buf.Bytes()
}
