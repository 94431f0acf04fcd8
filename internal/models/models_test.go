package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"pending", StatusQueued},
		{"queued", StatusQueued},
		{"downloading", StatusDownloading},
		{"processing", StatusDownloading},
		{"finished", StatusFinished},
		{"ERROR", StatusError},
		{"something-new", StatusQueued},
		{"", StatusQueued},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseStatus(tt.in); got != tt.want {
				t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	t.Run("terminal states never revert", func(t *testing.T) {
		for _, terminal := range []Status{StatusFinished, StatusError} {
			for _, next := range []Status{StatusQueued, StatusDownloading} {
				if CanTransition(terminal, next) {
					t.Errorf("CanTransition(%s, %s) = true", terminal, next)
				}
			}
			if !CanTransition(terminal, terminal) {
				t.Errorf("%s should be allowed to stay %s", terminal, terminal)
			}
		}
	})

	t.Run("forward progress", func(t *testing.T) {
		if !CanTransition(StatusQueued, StatusDownloading) || !CanTransition(StatusDownloading, StatusFinished) {
			t.Error("expected queued -> downloading -> finished to be allowed")
		}
		if CanTransition(StatusDownloading, StatusQueued) {
			t.Error("downloading should not fall back to queued")
		}
	})

	t.Run("unknown from", func(t *testing.T) {
		if CanTransition(Status("bogus"), StatusQueued) {
			t.Error("unknown status should not transition")
		}
	})
}

func TestParseProgress(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"number", `40`, 40},
		{"float", `42.9`, 42},
		{"string", `"42.3"`, 42},
		{"padded percent", `"  7.5%"`, 7},
		{"over", `"130"`, 100},
		{"negative", `-4`, 0},
		{"null", `null`, 0},
		{"garbage", `"N/A"`, 0},
		{"empty", ``, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseProgress(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("ParseProgress(%s) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTaskUnmarshal(t *testing.T) {
	t.Run("finished forces progress", func(t *testing.T) {
		var task Task
		if err := json.Unmarshal([]byte(`{"id":"t1","status":"finished","progress":"99.1","quality":"mp3"}`), &task); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if task.Progress != 100 || task.Status != StatusFinished || task.Quality != QualityMP3 {
			t.Errorf("unexpected task: %+v", task)
		}
	})

	t.Run("error carries message", func(t *testing.T) {
		var task Task
		if err := json.Unmarshal([]byte(`{"id":"t2","status":"error","progress":"12","error":"boom"}`), &task); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if task.Error != "boom" || task.Progress != 12 {
			t.Errorf("unexpected task: %+v", task)
		}
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("preserves key order", func(t *testing.T) {
		body := `{
			"zeta": {"id": "zeta", "status": "pending", "progress": "0"},
			"alpha": {"id": "alpha", "status": "downloading", "progress": "40"},
			"mid": {"status": "finished", "progress": "100"}
		}`

		var snap Snapshot
		if err := json.Unmarshal([]byte(body), &snap); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		want := []string{"zeta", "alpha", "mid"}
		if got := snap.IDs(); !reflect.DeepEqual(got, want) {
			t.Errorf("IDs() = %v, want %v", got, want)
		}

		mid, ok := snap.Get("mid")
		if !ok || mid.ID != "mid" {
			t.Errorf("id should default to the object key, got %+v", mid)
		}
	})

	t.Run("empty and null", func(t *testing.T) {
		for _, body := range []string{`{}`, `null`} {
			var snap Snapshot
			if err := json.Unmarshal([]byte(body), &snap); err != nil {
				t.Fatalf("unmarshal %s: %v", body, err)
			}
			if snap.Len() != 0 {
				t.Errorf("expected empty snapshot for %s", body)
			}
		}
	})

	t.Run("rejects arrays", func(t *testing.T) {
		var snap Snapshot
		if err := json.Unmarshal([]byte(`[]`), &snap); err == nil {
			t.Error("expected error for array body")
		}
	})

	t.Run("duplicate keeps first position", func(t *testing.T) {
		snap := NewSnapshot(
			Task{ID: "a", Progress: 1},
			Task{ID: "b"},
			Task{ID: "a", Progress: 2},
		)
		if got := snap.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("IDs() = %v", got)
		}
		if a, _ := snap.Get("a"); a.Progress != 2 {
			t.Errorf("expected last value to win, got %d", a.Progress)
		}
	})
}

func TestQuality(t *testing.T) {
	t.Run("extension", func(t *testing.T) {
		if QualityMP3.Extension() != "mp3" || Quality720p.Extension() != "mp4" || Quality("").Extension() != "mp4" {
			t.Error("unexpected extension mapping")
		}
	})

	t.Run("parse", func(t *testing.T) {
		q, err := ParseQuality("")
		if err != nil || q != QualityBestMP4 {
			t.Errorf("ParseQuality(\"\") = %q, %v", q, err)
		}
		if _, err := ParseQuality("4k"); err == nil {
			t.Error("expected error for unknown quality")
		}
	})

	t.Run("default formats", func(t *testing.T) {
		formats := Formats()
		if len(formats) != 4 || formats[0].ID != "mp3" || formats[0].Label != "Audio Only (MP3)" {
			t.Errorf("unexpected default formats %+v", formats)
		}
		if Quality("4k").Label() != "4k" {
			t.Error("expected unknown quality to label as itself")
		}
	})
}

func TestVideoInfoDuration(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "0:00"},
		{65, "1:05"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		if got := (VideoInfo{DurationSeconds: tt.secs}).Duration(); got != tt.want {
			t.Errorf("Duration(%d) = %s, want %s", tt.secs, got, tt.want)
		}
	}
}

func TestTaskMetadataRecordValidate(t *testing.T) {
	if err := (TaskMetadataRecord{}).Validate(); err == nil {
		t.Error("expected error for missing task id")
	}
	if err := (TaskMetadataRecord{TaskID: "t1"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
