package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytfetch/internal/connectivity"
	"github.com/desertthunder/ytfetch/internal/models"
	"github.com/desertthunder/ytfetch/internal/search"
	"github.com/desertthunder/ytfetch/internal/services"
	"github.com/desertthunder/ytfetch/internal/shared"
	"github.com/desertthunder/ytfetch/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	InfoView
	TasksView
)

// Deps are the core components the TUI renders and sends intents to.
type Deps struct {
	Info        services.InfoFetcher
	Reconciler  *tasks.Reconciler
	Poller      *tasks.Poller
	Pager       *search.Pager
	Suggestions *search.SuggestionEngine
	Monitor     *connectivity.Monitor
	DownloadDir string
	Logger      *log.Logger
	// OpenURL defaults to [shared.OpenBrowser].
	OpenURL func(string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx  context.Context
	deps Deps
	view ViewState

	width  int
	height int

	input       textinput.Model
	results     list.Model
	formats     list.Model
	bar         progress.Model
	help        help.Model
	keys        keyMap
	resultFocus bool

	page        search.PageState
	suggestions []string
	suggestIdx  int
	info        *models.VideoInfo
	infoURL     string
	views       []tasks.TaskView
	cursor      int
	conn        connectivity.Event
	status      string
	statusErr   bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	if deps.Logger == nil {
		deps.Logger = shared.DiscardLogger()
	}
	if deps.OpenURL == nil {
		deps.OpenURL = shared.OpenBrowser
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Search or paste a video URL"
	input.CharLimit = 512
	input.Focus()

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.Title = "Results"
	results.SetShowHelp(false)
	results.SetFilteringEnabled(false)

	formats := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	formats.SetShowHelp(false)
	formats.SetFilteringEnabled(false)

	return &Model{
		ctx:        ctx,
		deps:       deps,
		view:       SearchView,
		input:      input,
		results:    results,
		formats:    formats,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		help:       help.New(),
		keys:       newKeyMap(),
		suggestIdx: -1,
	}
}

// Init starts polling and subscribes to every core update channel.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.startPolling(),
		m.listenTasks(),
		m.listenPages(),
		m.listenSuggestions(),
		m.listenConnectivity(),
	)
}

func (m *Model) listenTasks() tea.Cmd {
	if m.deps.Reconciler == nil {
		return nil
	}
	return listen(m.deps.Reconciler.Updates(), taskUpdateMsg)
}

func (m *Model) listenPages() tea.Cmd {
	if m.deps.Pager == nil {
		return nil
	}
	return listen(m.deps.Pager.Updates(), pageUpdateMsg)
}

func (m *Model) listenSuggestions() tea.Cmd {
	if m.deps.Suggestions == nil {
		return nil
	}
	return listen(m.deps.Suggestions.Updates(), suggestionsMsg)
}

func (m *Model) listenConnectivity() tea.Cmd {
	if m.deps.Monitor == nil {
		return nil
	}
	return listen(m.deps.Monitor.Events(), connectivityMsg)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-8, 20)
		m.results.SetSize(msg.Width-4, max(msg.Height-12, 5))
		m.formats.SetSize(msg.Width-4, max(msg.Height-12, 5))
		m.bar.Width = min(max(msg.Width/3, 10), 40)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.dismiss) {
			if m.deps.Monitor != nil {
				m.deps.Monitor.Dismiss()
			}
			return m, nil
		}
		switch m.view {
		case SearchView:
			if m.resultFocus {
				return m.handleResultKeys(msg)
			}
			return m.handleInputKeys(msg)
		case InfoView:
			return m.handleInfoKeys(msg)
		case TasksView:
			return m.handleTaskKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgTaskUpdate:
		u := msg.data.(tasks.Update)
		switch u.Kind {
		case tasks.ViewsChanged:
			m.views = u.Views
			m.cursor = min(m.cursor, max(len(m.views)-1, 0))
		case tasks.Materializing:
			m.setStatus("Saving "+u.TaskID+"...", false)
		case tasks.Saved:
			m.setStatus("Saved "+u.Path, false)
		case tasks.SaveFailed:
			m.setStatus(fmt.Sprintf("Save failed: %v", u.Err), true)
		case tasks.PollFailed:
			m.deps.Logger.Debug("poll failed", "err", u.Err)
		}
		return m, m.listenTasks()

	case MsgPageUpdate:
		m.page = msg.data.(search.PageState)
		cmd := m.results.SetItems(videoItems(m.page.Results))
		return m, tea.Batch(cmd, m.listenPages())

	case MsgSuggestions:
		m.suggestions = msg.data.(search.Suggestions).Items
		m.suggestIdx = -1
		return m, m.listenSuggestions()

	case MsgConnectivity:
		m.conn = msg.data.(connectivity.Event)
		return m, m.listenConnectivity()

	case MsgInfoFetched:
		res := msg.data.(infoResult)
		if res.err != nil {
			m.reportFailure(res.err)
			m.setStatus(fmt.Sprintf("Could not load video: %v", res.err), true)
			return m, nil
		}
		m.info = res.info
		m.infoURL = res.url
		m.formats.Title = res.info.Title
		cmd := m.formats.SetItems(formatItems(res.info.Formats))
		m.view = InfoView
		m.status = ""
		return m, cmd

	case MsgLaunched:
		res := msg.data.(launchResult)
		if res.err != nil {
			m.reportFailure(res.err)
			m.setStatus(fmt.Sprintf("Could not start: %v", res.err), true)
			return m, nil
		}
		m.setStatus("Started "+res.title, false)
		m.view = TasksView
		m.cursor = 0
		return m, m.kickPoller()

	case MsgSaved:
		res := msg.data.(saveResult)
		if res.err != nil {
			m.reportFailure(res.err)
			m.setStatus(fmt.Sprintf("Save failed: %v", res.err), true)
			return m, nil
		}
		m.setStatus("Saved "+res.file.Path, false)
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab):
		m.view = TasksView
		return m, nil
	case key.Matches(msg, m.keys.suggest):
		if len(m.suggestions) > 0 {
			m.suggestIdx = (m.suggestIdx + 1) % len(m.suggestions)
		}
		return m, nil
	case msg.String() == "down":
		if len(m.results.Items()) > 0 {
			m.focusResults()
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.suggestIdx >= 0 && m.suggestIdx < len(m.suggestions) {
			m.input.SetValue(m.suggestions[m.suggestIdx])
			m.input.CursorEnd()
		}
		return m, m.submit(strings.TrimSpace(m.input.Value()))
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != prev {
		m.suggestIdx = -1
		if m.deps.Suggestions != nil {
			m.deps.Suggestions.OnInput(m.ctx, value)
		}
		if m.deps.Pager != nil && !looksLikeURL(value) {
			m.deps.Pager.Submit(m.ctx, value)
		}
	}
	return m, cmd
}

// submit looks up a pasted URL or runs the query now instead of waiting for the debounce.
func (m *Model) submit(q string) tea.Cmd {
	if q == "" {
		return nil
	}
	if m.deps.Suggestions != nil {
		m.deps.Suggestions.OnInput(m.ctx, "")
	}
	if looksLikeURL(q) {
		if m.deps.Pager != nil {
			m.deps.Pager.Cancel()
		}
		return m.fetchInfo(q)
	}
	if m.deps.Pager == nil {
		return nil
	}
	m.deps.Pager.Cancel()
	pager, ctx := m.deps.Pager, m.ctx
	return func() tea.Msg {
		state, _ := pager.Search(ctx, q, true)
		return pageUpdateMsg(state)
	}
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		m.view = TasksView
		return m, nil
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.focus):
		return m, m.focusInput()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.results.SelectedItem().(videoItem); ok {
			return m, m.fetchInfo(item.video.URL)
		}
		return m, nil
	case key.Matches(msg, m.keys.open):
		if item, ok := m.results.SelectedItem().(videoItem); ok {
			m.openURL(item.video.URL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, tea.Batch(cmd, m.maybeLoadMore())
}

// maybeLoadMore requests the next page once the selection is near the end of the list.
func (m *Model) maybeLoadMore() tea.Cmd {
	n := len(m.results.Items())
	if m.deps.Pager == nil || n == 0 || m.results.Index() < n-3 || m.page.Exhausted || m.page.InFlight {
		return nil
	}
	pager, ctx := m.deps.Pager, m.ctx
	return func() tea.Msg {
		pager.More(ctx)
		return nil
	}
}

func (m *Model) handleInfoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, nil
	case key.Matches(msg, m.keys.open):
		m.openURL(m.sourceURL())
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.formats.SelectedItem().(formatItem)
		if !ok || m.info == nil {
			return m, nil
		}
		quality, err := models.ParseQuality(item.format.ID)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		return m, m.launch(tasks.StartRequest{
			URL:          m.sourceURL(),
			Quality:      quality,
			Title:        m.info.Title,
			ThumbnailURL: m.info.ThumbnailURL,
		})
	}

	var cmd tea.Cmd
	m.formats, cmd = m.formats.Update(msg)
	return m, cmd
}

func (m *Model) handleTaskKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab), key.Matches(msg, m.keys.back):
		m.view = SearchView
		return m, nil
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(m.views)-1, 0))
	case key.Matches(msg, m.keys.refresh):
		return m, m.kickPoller()
	case key.Matches(msg, m.keys.open):
		if v, ok := m.selectedTask(); ok && v.SourceURL != "" {
			m.openURL(v.SourceURL)
		}
	case key.Matches(msg, m.keys.save):
		v, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if !v.CanMaterialize {
			if v.AlreadyMaterialized {
				m.setStatus("Already saved", true)
			} else {
				m.setStatus("Not finished yet", true)
			}
			return m, nil
		}
		return m, m.save(v.ID)
	}
	return m, nil
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchView:
		if m.resultFocus {
			m.results, cmd = m.results.Update(msg)
		} else {
			m.input, cmd = m.input.Update(msg)
		}
	case InfoView:
		m.formats, cmd = m.formats.Update(msg)
	}
	return m, cmd
}

func (m *Model) focusResults() {
	m.resultFocus = true
	m.input.Blur()
}

func (m *Model) focusInput() tea.Cmd {
	m.resultFocus = false
	return m.input.Focus()
}

func (m *Model) selectedTask() (tasks.TaskView, bool) {
	if m.cursor < 0 || m.cursor >= len(m.views) {
		return tasks.TaskView{}, false
	}
	return m.views[m.cursor], true
}

func (m *Model) sourceURL() string {
	if m.info != nil && m.info.OriginalURL != "" {
		return m.info.OriginalURL
	}
	return m.infoURL
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// reportFailure forwards foreground failures to the monitor; background polls never reach it.
func (m *Model) reportFailure(err error) {
	m.deps.Logger.Warn("action failed", "err", err)
	if m.deps.Monitor != nil {
		m.deps.Monitor.ReportFailure(err)
	}
}

func (m *Model) openURL(u string) {
	if u == "" {
		return
	}
	if err := m.deps.OpenURL(u); err != nil {
		m.setStatus(fmt.Sprintf("Could not open browser: %v", err), true)
	}
}

func (m *Model) startPolling() tea.Cmd {
	if m.deps.Poller == nil {
		return nil
	}
	poller := m.deps.Poller
	return func() tea.Msg {
		poller.Start()
		return nil
	}
}

func (m *Model) kickPoller() tea.Cmd {
	if m.deps.Poller == nil {
		return nil
	}
	poller := m.deps.Poller
	return func() tea.Msg {
		poller.Kick()
		return nil
	}
}

func (m *Model) fetchInfo(url string) tea.Cmd {
	if m.deps.Info == nil {
		return nil
	}
	m.setStatus("Loading video info...", false)
	info, ctx := m.deps.Info, m.ctx
	return func() tea.Msg {
		v, err := info.FetchVideoInfo(ctx, url)
		return infoFetchedMsg(url, v, err)
	}
}

func (m *Model) launch(req tasks.StartRequest) tea.Cmd {
	if m.deps.Reconciler == nil {
		return nil
	}
	m.setStatus("Starting...", false)
	rec, ctx := m.deps.Reconciler, m.ctx
	return func() tea.Msg {
		id, err := rec.Launch(ctx, req)
		return launchedMsg(req.Title, id, err)
	}
}

func (m *Model) save(id string) tea.Cmd {
	if m.deps.Reconciler == nil {
		return nil
	}
	rec, ctx, dir := m.deps.Reconciler, m.ctx, m.deps.DownloadDir
	return func() tea.Msg {
		file, err := rec.Save(ctx, id, dir)
		return savedMsg(id, file, err)
	}
}

func looksLikeURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner + "\n\n")
	}

	switch m.view {
	case SearchView:
		b.WriteString(m.renderSearch())
	case InfoView:
		b.WriteString(m.renderInfo())
	case TasksView:
		b.WriteString(m.renderTasks())
	}

	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.err
		}
		b.WriteString("\n" + style.Render(m.status))
	}
	return b.String()
}

func (m *Model) renderBanner() string {
	switch m.conn.State {
	case models.OfflineDetected, models.Retrying:
		return styles.banner.Render("Connection lost, retrying...")
	case models.Online:
		if m.conn.Notice == connectivity.NoticeRestored {
			return styles.ok.Render("Connection restored")
		}
	}
	return ""
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Search") + "\n")
	b.WriteString(m.input.View() + "\n")

	for i, s := range m.suggestions {
		line := "  " + s
		if i == m.suggestIdx {
			line = styles.selected.Render("› " + s)
		}
		b.WriteString(styles.help.Render(line) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.page.Err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Search failed: %v", m.page.Err)) + "\n")
	case len(m.page.Results) > 0:
		b.WriteString(m.results.View() + "\n")
	case m.page.InFlight:
		b.WriteString(styles.help.Render("Searching...") + "\n")
	case m.page.Query != "":
		b.WriteString(styles.help.Render("No results") + "\n")
	}
	if m.page.InFlight && len(m.page.Results) > 0 {
		b.WriteString(styles.help.Render("Loading more...") + "\n")
	}

	keys := []key.Binding{m.keys.enter, m.keys.suggest, m.keys.tab}
	if m.resultFocus {
		keys = []key.Binding{m.keys.enter, m.keys.open, m.keys.focus, m.keys.tab, m.keys.quit}
	}
	b.WriteString("\n" + m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderInfo() string {
	if m.info == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(styles.title.Render(m.info.Title) + "\n")
	if m.info.DurationSeconds > 0 {
		b.WriteString("Duration: " + m.info.Duration() + "\n")
	}
	b.WriteString(styles.help.Render(m.sourceURL()) + "\n\n")
	b.WriteString(m.formats.View() + "\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.open, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderTasks() string {
	var b strings.Builder
	b.WriteString(styles.title.Render(fmt.Sprintf("Tasks (%d)", len(m.views))) + "\n")
	if len(m.views) == 0 {
		b.WriteString(styles.help.Render("No tasks yet") + "\n")
	}

	for i, v := range m.views {
		title := v.Title
		if i == m.cursor {
			title = styles.selected.Render("› " + title)
		} else {
			title = "  " + title
		}
		b.WriteString(title + "\n")
		b.WriteString("    " + m.bar.ViewAs(float64(v.DisplayProgress)/100) + " " + m.taskDetail(v) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.save, m.keys.open, m.keys.refresh, m.keys.tab, m.keys.quit}))
	return b.String()
}

func (m *Model) taskDetail(v tasks.TaskView) string {
	switch {
	case v.Status == models.StatusError:
		return styles.err.Render("error: " + v.Error)
	case v.AlreadyMaterialized:
		return styles.ok.Render("saved")
	case v.CanMaterialize:
		return styles.ok.Render("ready, press s to save")
	case v.Status == models.StatusQueued:
		return styles.help.Render("queued")
	}
	parts := []string{fmt.Sprintf("%d%%", v.DisplayProgress)}
	if v.Speed != "" {
		parts = append(parts, v.Speed)
	}
	if v.ETA != "" {
		parts = append(parts, "ETA "+v.ETA)
	}
	return styles.warn.Render(strings.Join(parts, " • "))
}
