package models

import "strings"

// Status is the normalised lifecycle state of a backend task.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusFinished    Status = "finished"
	StatusError       Status = "error"
)

var allowedTransitions = map[Status]map[Status]bool{
	"": {
		StatusQueued:      true,
		StatusDownloading: true,
		StatusFinished:    true,
		StatusError:       true,
	},
	StatusQueued: {
		StatusQueued:      true,
		StatusDownloading: true,
		StatusFinished:    true,
		StatusError:       true,
	},
	StatusDownloading: {
		StatusDownloading: true,
		StatusFinished:    true,
		StatusError:       true,
	},
	StatusFinished: {StatusFinished: true},
	StatusError:    {StatusError: true},
}

// ParseStatus maps a backend status string onto a [Status].
//
// The backend reports "pending" before a worker picks the task up and "processing" while ffmpeg post-processes;
// those collapse into queued and downloading. Unknown values are treated as queued.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "downloading", "processing":
		return StatusDownloading
	case "finished":
		return StatusFinished
	case "error":
		return StatusError
	default:
		return StatusQueued
	}
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusError
}

// IsActive reports whether the backend is still working on the task.
func (s Status) IsActive() bool {
	return s == StatusQueued || s == StatusDownloading
}

func (s Status) String() string { return string(s) }

// CanTransition reports whether a task may move from one status to another between two polls.
func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}
