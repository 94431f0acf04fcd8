// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [SearchView] : Type a query (or paste a URL) with debounced suggestions and scroll-to-load results
//  2. [InfoView] : Inspect a video and pick the output format to start a task
//  3. [TasksView] : Watch task progress and save finished files
//
// The [Model] never polls on its own. It subscribes to the update channels of the reconciler, pager, suggestion
// engine and connectivity monitor, and re-subscribes after every message. A connectivity banner is shown across all
// views until the backend is reachable again or the banner is dismissed.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
