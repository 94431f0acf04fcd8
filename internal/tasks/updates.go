package tasks

// Update is an event published by the [Reconciler] for presentation layers.
type Update struct {
	Kind   UpdateKind
	Views  []TaskView // Set for ViewsChanged
	TaskID string     // Set for Materializing, Saved and SaveFailed
	Path   string     // Set for Saved
	Err    error      // Set for PollFailed and SaveFailed
}

// UpdateKind enumerates reconciler events.
type UpdateKind int

const (
	ViewsChanged UpdateKind = iota
	PollFailed
	Materializing
	Saved
	SaveFailed
)

func (k UpdateKind) String() string {
	switch k {
	case ViewsChanged:
		return "views_changed"
	case PollFailed:
		return "poll_failed"
	case Materializing:
		return "materializing"
	case Saved:
		return "saved"
	case SaveFailed:
		return "save_failed"
	default:
		return ""
	}
}

// sendUpdate publishes without blocking; an update is dropped when nobody is reading and the buffer is full.
func sendUpdate(ch chan<- Update, u Update) {
	if ch == nil {
		return
	}
	select {
	case ch <- u:
	default:
	}
}
