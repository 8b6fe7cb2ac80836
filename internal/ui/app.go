package ui

import (
	"strings"
	"time"

	"github.com/billy398/auction-dashboard/internal/auction"
	"github.com/billy398/auction-dashboard/internal/coord"
	"github.com/billy398/auction-dashboard/internal/filter"
	"github.com/billy398/auction-dashboard/internal/otel"
	"github.com/billy398/auction-dashboard/internal/render"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// intervalStep is how far +/- move the auto-refresh period.
const intervalStep = 10 * time.Second

// AppConfig wires the App to the refresh coordinator.
type AppConfig struct {
	// Refresh returns a Cmd that starts a manual refresh. Progress comes
	// back as RefreshStarted and RefreshFinished messages.
	Refresh func() tea.Cmd

	// ConfigureAuto returns a Cmd that re-arms the auto-refresh timer and
	// answers with AutoConfigured.
	ConfigureAuto func(enabled bool, interval time.Duration) tea.Cmd

	View         filter.ViewState
	AutoEnabled  bool
	AutoInterval time.Duration

	// Ring feeds the debug overlay. May be nil.
	Ring *otel.RingBuffer
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the controller. It receives snapshots via
// messages and owns only its ViewState.
type App struct {
	refresh       func() tea.Cmd
	configureAuto func(bool, time.Duration) tea.Cmd
	ring          *otel.RingBuffer

	snap   *coord.Snapshot
	view   filter.ViewState
	rows   []auction.Item
	cursor int

	search    textinput.Model
	searching bool
	spinner   spinner.Model
	help      help.Model
	keys      keyMap

	loading int
	err     error
	hint    string
	note    string

	autoEnabled  bool
	autoInterval time.Duration
	autoArmed    bool

	debugVisible bool
	width        int
	height       int
	ready        bool
	now          func() time.Time
}

// NewApp creates a new App from cfg.
func NewApp(cfg AppConfig) App {
	ti := textinput.New()
	ti.Prompt = SearchBarPrompt.Render("/") + " "
	ti.Placeholder = "title, bidder or lot"
	ti.CharLimit = 120

	view := cfg.View
	if view.Sort == "" {
		view = filter.DefaultViewState()
	}
	ti.SetValue(view.Search)

	return App{
		refresh:       cfg.Refresh,
		configureAuto: cfg.ConfigureAuto,
		ring:          cfg.Ring,
		view:          view,
		search:        ti,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:          help.New(),
		keys:          defaultKeyMap(),
		autoEnabled:   cfg.AutoEnabled,
		autoInterval:  coord.ClampInterval(cfg.AutoInterval),
		now:           time.Now,
	}
}

// Init starts the initial refresh.
func (a App) Init() tea.Cmd {
	if a.refresh != nil {
		return a.refresh()
	}
	return nil
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.searching {
			return a.handleSearchKey(msg)
		}
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.ready = true
		return a, nil

	case RefreshStarted:
		a.loading++
		if a.loading == 1 {
			return a, a.spinner.Tick
		}
		return a, nil

	case RefreshFinished:
		return a.handleRefreshFinished(msg)

	case AutoConfigured:
		a.autoEnabled = msg.Enabled
		a.autoInterval = msg.Interval
		return a, nil

	case spinner.TickMsg:
		if a.loading == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) handleRefreshFinished(msg RefreshFinished) (tea.Model, tea.Cmd) {
	if a.loading > 0 {
		a.loading--
	}

	r := msg.Result
	if r.Snapshot != nil {
		a.snap = r.Snapshot
	}
	if r.OK() {
		a.err = nil
		a.hint = ""
		a.note = render.Loaded(len(a.snap.Items))
	} else {
		a.err = r.Err
		a.hint = r.Hint
		a.note = ""
	}
	a = a.applyView()

	if !a.autoArmed {
		a.autoArmed = true
		return a, a.armAuto()
	}
	return a, nil
}

func (a App) armAuto() tea.Cmd {
	if a.configureAuto == nil {
		return nil
	}
	return a.configureAuto(a.autoEnabled, a.autoInterval)
}

// applyView recomputes the visible rows from the snapshot and keeps the
// cursor in range.
func (a App) applyView() App {
	if a.snap == nil {
		a.rows = nil
		a.cursor = 0
		return a
	}
	a.rows = filter.View(a.snap.Items, a.view)
	if a.cursor >= len(a.rows) {
		a.cursor = max(len(a.rows)-1, 0)
	}
	return a
}

// handleSearchKey routes keys to the search input while it has focus.
func (a App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "enter":
		a.searching = false
		a.search.Blur()
		return a, nil
	case "esc":
		a.searching = false
		a.search.Blur()
		a.search.SetValue("")
		a.view.Search = ""
		a.cursor = 0
		return a.applyView(), nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if v := a.search.Value(); v != a.view.Search {
		a.view.Search = v
		a.cursor = 0
		a = a.applyView()
	}
	return a, cmd
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.debugVisible {
		if key.Matches(msg, a.keys.Debug) || msg.String() == "esc" {
			a.debugVisible = false
			return a, nil
		}
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Down):
		if a.cursor < len(a.rows)-1 {
			a.cursor++
		}
		return a, nil

	case key.Matches(msg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil

	case key.Matches(msg, a.keys.Top):
		a.cursor = 0
		return a, nil

	case key.Matches(msg, a.keys.Bottom):
		if len(a.rows) > 0 {
			a.cursor = len(a.rows) - 1
		}
		return a, nil

	case key.Matches(msg, a.keys.Search):
		a.searching = true
		cmd := a.search.Focus()
		return a, cmd

	case key.Matches(msg, a.keys.ClearSearch):
		if a.view.Search == "" {
			return a, nil
		}
		a.search.SetValue("")
		a.view.Search = ""
		a.cursor = 0
		return a.applyView(), nil

	case key.Matches(msg, a.keys.OnlyBids):
		a.view.OnlyWithBids = !a.view.OnlyWithBids
		a.cursor = 0
		return a.applyView(), nil

	case key.Matches(msg, a.keys.Sort):
		n := int(msg.Runes[0] - '1')
		a.view = a.view.Toggle(filter.SortKeys[n])
		a.cursor = 0
		return a.applyView(), nil

	case key.Matches(msg, a.keys.Refresh):
		if a.refresh != nil {
			return a, a.refresh()
		}
		return a, nil

	case key.Matches(msg, a.keys.Auto):
		a.autoEnabled = !a.autoEnabled
		a.autoArmed = true
		return a, a.armAuto()

	case key.Matches(msg, a.keys.Slower):
		a.autoInterval += intervalStep
		a.autoArmed = true
		return a, a.armAuto()

	case key.Matches(msg, a.keys.Faster):
		a.autoInterval = max(a.autoInterval-intervalStep, coord.MinInterval)
		a.autoArmed = true
		return a, a.armAuto()

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil

	case key.Matches(msg, a.keys.Debug):
		a.debugVisible = true
		return a, nil
	}

	return a, nil
}

// mode decides what the table body shows.
func (a App) mode() tableMode {
	switch {
	case a.snap == nil && a.err != nil:
		return modeFailed
	case a.snap == nil:
		return modeLoading
	case len(a.rows) == 0:
		return modeEmpty
	default:
		return modeData
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return render.LoadingText
	}

	if a.debugVisible {
		panel := debugOverlay(a.ring, a.width, a.height-1)
		return panel + "\n" + debugStatusBar(a.width)
	}

	var sections []string
	sections = append(sections, RenderKPIs(a.snap, a.width, a.now()))

	if a.searching || a.view.Search != "" {
		total := 0
		if a.snap != nil {
			total = len(a.snap.Items)
		}
		sections = append(sections, RenderSearchBar(a.search.View(), len(a.rows), total, a.width))
	}

	if banner := a.banner(); banner != "" {
		sections = append(sections, banner)
	}

	helpView := a.help.View(a.keys)

	var detail string
	if a.mode() == modeData && a.cursor < len(a.rows) {
		detail = RenderDetail(a.rows[a.cursor], a.width)
	}

	used := 0
	for _, s := range sections {
		used += lineCount(s)
	}
	used += lineCount(helpView) + 1 // status bar
	if detail != "" {
		used++
	}

	sections = append(sections, RenderTable(a.rows, a.view, a.mode(), a.cursor, a.width, a.height-used))
	if detail != "" {
		sections = append(sections, detail)
	}
	sections = append(sections, helpView)
	sections = append(sections, RenderStatusBar(a.cursor, len(a.rows), a.width, a.loadingText(), a.autoEnabled, a.autoInterval, a.note))

	return strings.Join(sections, "\n")
}

// banner shows the loading indicator or the last refresh error.
func (a App) banner() string {
	if a.err != nil {
		out := ErrorStyle.Width(a.width).Render(a.err.Error())
		if a.hint != "" {
			out += "\n" + HintStyle.Width(a.width).Render(a.hint)
		}
		return out
	}
	if a.loading > 0 {
		return LoadingStyle.Render(a.spinner.View() + " " + render.LoadingText)
	}
	return ""
}

func (a App) loadingText() string {
	if a.loading > 0 {
		return render.LoadingText
	}
	return ""
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// Cursor returns the current cursor position (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// Rows returns the visible rows (for testing).
func (a App) Rows() []auction.Item {
	return a.rows
}

// ViewState returns the current filter and sort state (for testing).
func (a App) ViewState() filter.ViewState {
	return a.view
}

// Auto returns the auto-refresh state the App believes is armed.
func (a App) Auto() (bool, time.Duration) {
	return a.autoEnabled, a.autoInterval
}
