package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytfetch/internal/connectivity"
	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/search"
	"github.com/desertthunder/ytfetch/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTaskUpdate MsgKind = iota
	MsgPageUpdate
	MsgSuggestions
	MsgConnectivity
	MsgInfoFetched
	MsgLaunched
	MsgSaved
)

type infoResult struct {
	url  string
	info *models.VideoInfo
	err  error
}

type launchResult struct {
	title string
	id    string
	err   error
}

type saveResult struct {
	id   string
	file *models.SavedFile
	err  error
}

// taskUpdateMsg is the constructor for [MsgTaskUpdate]
func taskUpdateMsg(u tasks.Update) Msg { return Msg{kind: MsgTaskUpdate, data: u} }

// pageUpdateMsg is the constructor for [MsgPageUpdate]
func pageUpdateMsg(s search.PageState) Msg { return Msg{kind: MsgPageUpdate, data: s} }

// suggestionsMsg is the constructor for [MsgSuggestions]
func suggestionsMsg(s search.Suggestions) Msg { return Msg{kind: MsgSuggestions, data: s} }

// connectivityMsg is the constructor for [MsgConnectivity]
func connectivityMsg(ev connectivity.Event) Msg { return Msg{kind: MsgConnectivity, data: ev} }

// infoFetchedMsg is the constructor for [MsgInfoFetched]
func infoFetchedMsg(url string, info *models.VideoInfo, err error) Msg {
	return Msg{kind: MsgInfoFetched, data: infoResult{url: url, info: info, err: err}}
}

// launchedMsg is the constructor for [MsgLaunched]
func launchedMsg(title, id string, err error) Msg {
	return Msg{kind: MsgLaunched, data: launchResult{title: title, id: id, err: err}}
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(id string, file *models.SavedFile, err error) Msg {
	return Msg{kind: MsgSaved, data: saveResult{id: id, file: file, err: err}}
}

// listen returns a command that waits for the next value on ch. A closed channel ends the subscription.
func listen[T any](ch <-chan T, wrap func(T) Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return wrap(v)
	}
}
