package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Quality selects the output format a task is started with.
type Quality string

const (
	QualityMP3     Quality = "mp3"
	QualityBestMP4 Quality = "best_mp4"
	Quality1080p   Quality = "1080p"
	Quality720p    Quality = "720p"
)

// Qualities lists every selector the backend accepts, in menu order.
func Qualities() []Quality {
	return []Quality{QualityMP3, QualityBestMP4, Quality1080p, Quality720p}
}

// ParseQuality validates a quality selector. An empty string selects [QualityBestMP4], matching the backend default.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return QualityBestMP4, nil
	}
	for _, q := range Qualities() {
		if string(q) == s {
			return q, nil
		}
	}
	return "", fmt.Errorf("unknown quality %q (want one of mp3, best_mp4, 1080p, 720p)", s)
}

// Label is the menu label for q.
func (q Quality) Label() string {
	switch q {
	case QualityMP3:
		return "Audio Only (MP3)"
	case QualityBestMP4:
		return "Best Quality (MP4)"
	case Quality1080p:
		return "1080p (MP4)"
	case Quality720p:
		return "720p (MP4)"
	default:
		return string(q)
	}
}

// Formats returns the default format menu, used when the backend lists none.
func Formats() []Format {
	out := make([]Format, 0, len(Qualities()))
	for _, q := range Qualities() {
		out = append(out, Format{ID: string(q), Label: q.Label()})
	}
	return out
}

// Extension returns the file extension of the delivered file.
func (q Quality) Extension() string {
	if q == QualityMP3 {
		return "mp3"
	}
	return "mp4"
}

// Task is one backend job as reported by a single poll.
type Task struct {
	ID       string  `json:"id"`
	Status   Status  `json:"status"`
	Progress int     `json:"progress"`
	Speed    string  `json:"speed,omitempty"`
	ETA      string  `json:"eta,omitempty"`
	Error    string  `json:"error,omitempty"`
	Quality  Quality `json:"quality,omitempty"`
}

type taskWire struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Progress json.RawMessage `json:"progress"`
	Speed    string          `json:"speed"`
	ETA      string          `json:"eta"`
	Error    string          `json:"error"`
	Quality  string          `json:"quality"`
}

// UnmarshalJSON decodes the backend task shape, normalising status and progress.
//
// Progress arrives either as a number or as a percent string such as "42.3"; it is truncated and clamped to 0..100.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*t = Task{
		ID:       w.ID,
		Status:   ParseStatus(w.Status),
		Progress: ParseProgress(w.Progress),
		Speed:    w.Speed,
		ETA:      w.ETA,
		Error:    w.Error,
		Quality:  Quality(w.Quality),
	}
	if t.Status == StatusFinished {
		t.Progress = 100
	}
	return nil
}

// ParseProgress reads a progress value that may be a JSON number or a quoted, possibly padded, percent string.
func ParseProgress(raw json.RawMessage) int {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return clampPercent(int(f))
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Snapshot is the full set of tasks reported by one poll, keyed by id and kept in backend enumeration order.
type Snapshot struct {
	order []string
	tasks map[string]Task
}

// NewSnapshot builds a snapshot from tasks in enumeration order. A repeated id keeps its first position and last value.
func NewSnapshot(tasks ...Task) Snapshot {
	var s Snapshot
	for _, t := range tasks {
		s.Add(t)
	}
	return s
}

// Add appends a task, or replaces the value of an id already present without moving it.
func (s *Snapshot) Add(t Task) {
	if s.tasks == nil {
		s.tasks = make(map[string]Task)
	}
	if _, ok := s.tasks[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.tasks[t.ID] = t
}

// Get returns the task with the given id.
func (s Snapshot) Get(id string) (Task, bool) {
	t, ok := s.tasks[id]
	return t, ok
}

// Len returns the number of tasks.
func (s Snapshot) Len() int { return len(s.order) }

// IDs returns task ids in enumeration order.
func (s Snapshot) IDs() []string {
	return append([]string(nil), s.order...)
}

// Tasks returns the tasks in enumeration order.
func (s Snapshot) Tasks() []Task {
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out
}

// UnmarshalJSON decodes the id-keyed task object with a streaming decoder so that key order survives.
//
// A task whose body omits its id takes the object key.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = Snapshot{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected task object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected task id, got %v", keyTok)
		}

		var t Task
		if err := dec.Decode(&t); err != nil {
			return fmt.Errorf("task %s: %w", key, err)
		}
		if t.ID == "" {
			t.ID = key
		}
		s.Add(t)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the snapshot as a list in enumeration order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tasks())
}
