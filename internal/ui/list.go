package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ytfetch/internal/models"
)

var (
	_ list.Item = videoItem{}
	_ list.Item = formatItem{}
)

// videoItem wraps [models.VideoSummary] to implement [list.Item].
type videoItem struct {
	video models.VideoSummary
}

func (i videoItem) FilterValue() string { return i.video.Title }
func (i videoItem) Title() string       { return i.video.Title }
func (i videoItem) Description() string { return i.video.URL }

// formatItem wraps [models.Format] to implement [list.Item].
type formatItem struct {
	format models.Format
}

func (i formatItem) FilterValue() string { return i.format.Label }
func (i formatItem) Title() string       { return i.format.Label }
func (i formatItem) Description() string { return i.format.ID }

func videoItems(videos []models.VideoSummary) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v}
	}
	return items
}

func formatItems(formats []models.Format) []list.Item {
	if len(formats) == 0 {
		formats = models.Formats()
	}
	items := make([]list.Item, len(formats))
	for i, f := range formats {
		items[i] = formatItem{format: f}
	}
	return items
}
