package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/reelcut/internal/coord"
	"github.com/abelbrown/reelcut/internal/feed"
	"github.com/abelbrown/reelcut/internal/geo"
	"github.com/abelbrown/reelcut/internal/gesture"
	"github.com/abelbrown/reelcut/internal/logging"
	"github.com/abelbrown/reelcut/internal/media"
	"github.com/abelbrown/reelcut/internal/model"
	"github.com/abelbrown/reelcut/internal/otel"
	"github.com/abelbrown/reelcut/internal/playback"
)

const (
	frameInterval = 33 * time.Millisecond
	toastDuration = 4 * time.Second
)

// Ticker schedules fn after d. tea.Tick in production.
type Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Settings are the tunables the App reads from configuration.
type Settings struct {
	PrefetchDistance    int
	VisibilityThreshold float64
	WindowRadius        int
	StartMuted          bool
	HoldThreshold       time.Duration
	LocationEnabled     bool
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		PrefetchDistance:    2,
		VisibilityThreshold: coord.DefaultThreshold,
		WindowRadius:        2,
		HoldThreshold:       gesture.DefaultThreshold,
		LocationEnabled:     true,
	}
}

// Deps are the App's collaborators. Pager is required; the rest are optional.
type Deps struct {
	Pager     *feed.Pager
	Geo       geo.Provider
	Checker   media.Checker
	NewPlayer playback.PlayerFactory
	Log       *otel.Logger
	Ring      *otel.RingBuffer
	Tick      Ticker
	// HoldOptions are appended to the hold handler options, after the
	// threshold from Settings.
	HoldOptions []gesture.Option
}

// App is the root Bubble Tea model. The pager, coordinator and registry are
// pointers shared by every copy of the model; they are only touched from
// Update.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	pager    *feed.Pager
	coord    *coord.Coordinator
	registry *playback.Registry
	sims     map[string]*media.Sim
	geo      geo.Provider
	checker  media.Checker
	log      *otel.Logger
	ring     *otel.RingBuffer
	tick     Ticker
	settings Settings
	keys     KeyMap

	spinner  spinner.Model
	progress progress.Model
	help     help.Model

	width  int
	height int
	ready  bool

	cursor    int // index of the item the viewport is moving to
	offset    int // first visible row
	pressedID string

	geoPending bool
	geoWarned  bool
	toast      string
	toastSeq   int
	showDebug  bool
}

// NewApp wires the feed core to the render surface.
func NewApp(ctx context.Context, d Deps, s Settings) App {
	ctx, cancel := context.WithCancel(ctx)
	tick := d.Tick
	if tick == nil {
		tick = func(dur time.Duration, fn func(time.Time) tea.Msg) tea.Cmd { return tea.Tick(dur, fn) }
	}

	a := App{
		ctx:      ctx,
		cancel:   cancel,
		pager:    d.Pager,
		coord:    coord.New(d.Log),
		sims:     make(map[string]*media.Sim),
		geo:      d.Geo,
		checker:  d.Checker,
		log:      d.Log,
		ring:     d.Ring,
		tick:     tick,
		settings: s,
		keys:     DefaultKeyMap(),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(colorHighlight))),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:     help.New(),
	}
	// Init starts the first lookup and cannot record it on a value receiver.
	a.geoPending = s.LocationEnabled

	newPlayer := d.NewPlayer
	if newPlayer == nil {
		sims := a.sims
		newPlayer = func(it model.FeedItem) playback.Player {
			sim := media.NewSim(it.Duration, nil)
			sims[it.ID] = sim
			return sim
		}
	}
	holdOpts := append([]gesture.Option{
		gesture.WithThreshold(s.HoldThreshold),
		gesture.WithLogger(d.Log),
	}, d.HoldOptions...)
	a.registry = playback.NewRegistry(newPlayer,
		playback.WithStartMuted(s.StartMuted),
		playback.WithHoldOptions(holdOpts...),
		playback.WithRegistryLogger(d.Log),
		playback.WithListener(func(tr playback.Transition) {
			logging.Debug("playback", "item", tr.ItemID, "from", tr.From.String(), "to", tr.To.String(), "cause", tr.Cause)
		}),
	)
	registry := a.registry
	a.coord.Subscribe(func(e coord.Election) {
		registry.SetActive(e.Next)
	})
	return a
}

// Init starts the first page fetch, the location lookup and the clocks.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.pager.FetchPage(a.ctx),
		a.spinner.Tick,
		a.frame(),
	}
	if a.settings.LocationEnabled {
		cmds = append(cmds, a.lookup())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer otel.TraceMsg(a.log, msg)()

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.progress.Width = max(msg.Width-4, 10)
		a.offset = a.cursor * a.cardHeight()
		cmd := a.onVisibility()
		return a, cmd

	case feed.PageLoaded:
		if !a.pager.Apply(msg) {
			return a, nil
		}
		if msg.Err != nil {
			logging.Warn("page fetch failed", "page", msg.Page, "error", msg.Err)
		}
		cmd := a.afterListChange()
		return a, cmd

	case feed.CounterRecorded:
		a.pager.ApplyCounter(msg)
		return a, nil

	case LocationResolved:
		a.geoPending = false
		return a.applyLocation(msg)

	case media.Probed:
		if slot, ok := a.registry.Live(msg.ItemID, msg.Gen); ok {
			slot.Session.Handle(msg.Event)
		}
		return a, nil

	case gesture.Elapsed:
		if slot, ok := a.registry.Slot(msg.ItemID); ok {
			slot.Hold.HandleElapsed(msg)
		}
		return a, nil

	case FrameTick:
		return a.handleFrame()

	case ToastExpired:
		if msg.Seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.log.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})

	if a.showDebug {
		if key.Matches(msg, a.keys.Debug) {
			a.showDebug = false
		} else if key.Matches(msg, a.keys.Quit) {
			a.shutdown()
			return a, tea.Quit
		}
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.shutdown()
		return a, tea.Quit

	case key.Matches(msg, a.keys.Next):
		a.moveTo(a.cursor + 1)
		return a, nil

	case key.Matches(msg, a.keys.Prev):
		a.moveTo(a.cursor - 1)
		return a, nil

	case key.Matches(msg, a.keys.Refresh):
		return a, a.pager.Refresh(a.ctx)

	case key.Matches(msg, a.keys.Retry):
		return a, a.pager.FetchPage(a.ctx)

	case key.Matches(msg, a.keys.Mute):
		if slot, ok := a.registry.Slot(a.coord.ActiveID()); ok {
			slot.Session.ToggleMute()
		}
		return a, nil

	case key.Matches(msg, a.keys.Like):
		if id := a.coord.ActiveID(); id != "" {
			return a, a.pager.Bump(a.ctx, id, model.CounterLikes)
		}
		return a, nil

	case key.Matches(msg, a.keys.Location):
		return a.toggleLocation()

	case key.Matches(msg, a.keys.Debug):
		if a.ring != nil {
			a.showDebug = true
		}
		return a, nil
	}
	return a, nil
}

// handleMouse routes the wheel to paging and left-button presses to the hold
// handler of the item under the pointer.
func (a App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelDown && msg.Action == tea.MouseActionPress:
		a.moveTo(a.cursor + 1)
		return a, nil

	case msg.Button == tea.MouseButtonWheelUp && msg.Action == tea.MouseActionPress:
		a.moveTo(a.cursor - 1)
		return a, nil

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		id := a.itemAtRow(msg.Y)
		slot, ok := a.registry.Slot(id)
		if !ok {
			return a, nil
		}
		a.releasePress()
		a.pressedID = id
		cmd := slot.Hold.PressStart()
		return a, cmd

	case msg.Action == tea.MouseActionRelease:
		a.releasePress()
		return a, nil
	}
	return a, nil
}

func (a *App) releasePress() {
	if a.pressedID == "" {
		return
	}
	if slot, ok := a.registry.Slot(a.pressedID); ok {
		slot.Hold.PressEnd()
	}
	a.pressedID = ""
}

// itemAtRow returns the id of the item drawn at screen row y.
func (a App) itemAtRow(y int) string {
	h := a.cardHeight()
	if h <= 0 || y < 0 || y >= h {
		return ""
	}
	items := a.pager.State().Items
	i := (a.offset + y) / h
	if i < 0 || i >= len(items) {
		return ""
	}
	return items[i].ID
}

// moveTo sets the scroll target. The animation runs on FrameTick.
func (a *App) moveTo(index int) {
	if n := a.pager.Len(); n > 0 {
		a.cursor = min(max(index, 0), n-1)
	}
}

// handleFrame advances the scroll animation one step, reports visibility and
// polls the active player.
func (a App) handleFrame() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	h := a.cardHeight()
	if h > 0 {
		target := a.cursor * h
		if a.offset != target {
			step := max(h/3, 1)
			if a.offset < target {
				a.offset = min(a.offset+step, target)
			} else {
				a.offset = max(a.offset-step, target)
			}
			cmds = append(cmds, a.onVisibility())
		}
	}

	if slot, ok := a.registry.Slot(a.coord.ActiveID()); ok {
		if sim, ok := a.sims[slot.Item.ID]; ok {
			if ev := sim.Poll(); ev != nil {
				slot.Session.Handle(ev)
			}
		}
	}

	cmds = append(cmds, a.frame())
	return a, tea.Batch(cmds...)
}

// onVisibility computes visible fractions for the current scroll offset and
// feeds them to the coordinator.
func (a *App) onVisibility() tea.Cmd {
	h := a.cardHeight()
	items := a.pager.State().Items
	if h <= 0 || len(items) == 0 {
		return nil
	}

	var entries []coord.Visibility
	first := a.offset / h
	for i := first; i <= (a.offset+h-1)/h && i < len(items); i++ {
		if i < 0 {
			continue
		}
		top, bottom := i*h, (i+1)*h
		overlap := min(bottom, a.offset+h) - max(top, a.offset)
		if overlap > 0 {
			entries = append(entries, coord.Visibility{ID: items[i].ID, Fraction: float64(overlap) / float64(h)})
		}
	}

	if !a.coord.OnVisibilityChanged(coord.Visible(entries, a.settings.VisibilityThreshold)) {
		return nil
	}
	return a.afterElection()
}

// afterElection mounts the window around the new active item, views it and
// prefetches when it is near the end of the loaded items.
func (a *App) afterElection() tea.Cmd {
	id := a.coord.ActiveID()
	idx := a.indexOf(id)
	cmds := []tea.Cmd{a.syncWindow(idx)}
	if id != "" {
		cmds = append(cmds, a.pager.Bump(a.ctx, id, model.CounterViews))
	}
	if idx >= 0 && a.pager.ShouldPrefetch(idx, a.settings.PrefetchDistance) {
		cmds = append(cmds, a.pager.PrefetchNext(a.ctx))
	}
	return tea.Batch(cmds...)
}

// afterListChange re-runs the cold-start election after the item list
// changed and keeps the viewport on the active item.
func (a *App) afterListChange() tea.Cmd {
	items := a.pager.State().Items
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	elected := a.coord.Mount(ids)

	idx := a.indexOf(a.coord.ActiveID())
	if idx < 0 {
		idx = 0
	}
	a.cursor = idx
	a.offset = idx * a.cardHeight()

	if elected {
		return a.afterElection()
	}
	return a.syncWindow(idx)
}

// syncWindow mounts sessions for items within WindowRadius of index and
// probes the new ones.
func (a *App) syncWindow(index int) tea.Cmd {
	items := a.pager.State().Items
	if index < 0 || len(items) == 0 {
		a.registry.Sync(nil)
		return nil
	}
	lo := max(index-a.settings.WindowRadius, 0)
	hi := min(index+a.settings.WindowRadius+1, len(items))

	var cmds []tea.Cmd
	mounted := a.registry.Sync(items[lo:hi])
	for id := range a.sims {
		if _, ok := a.registry.Slot(id); !ok {
			delete(a.sims, id)
		}
	}
	for _, slot := range mounted {
		if a.checker == nil {
			slot.Session.Handle(playback.Ready{})
			continue
		}
		cmds = append(cmds, media.ProbeCmd(a.ctx, a.checker, slot.Item.ID, slot.Gen, slot.Item.MediaURL))
	}
	return tea.Batch(cmds...)
}

func (a App) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, it := range a.pager.State().Items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// locate runs the one-shot geolocation lookup.
func (a *App) locate() tea.Cmd {
	if a.geoPending {
		return nil
	}
	a.geoPending = true
	return a.lookup()
}

func (a App) lookup() tea.Cmd {
	p, ctx := a.geo, a.ctx
	return func() tea.Msg {
		c, err := geo.Locate(ctx, p)
		return LocationResolved{Coord: c, Err: err}
	}
}

func (a App) applyLocation(msg LocationResolved) (tea.Model, tea.Cmd) {
	loc := a.pager.Location()
	if msg.Err != nil {
		a.log.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindGeoUnavailable, Comp: "geo", Err: msg.Err.Error()})
		logging.Warn("location unavailable", "error", msg.Err)
		if errors.Is(msg.Err, context.Canceled) || a.geoWarned {
			return a, nil
		}
		a.geoWarned = true
		var text string
		switch {
		case errors.Is(msg.Err, geo.ErrPermissionDenied):
			text = "Location permission denied, showing newest first"
		case geo.Unavailable(msg.Err):
			text = "Location services off, showing newest first"
		default:
			text = "Location unavailable, showing newest first"
		}
		cmd := a.showToast(text)
		return a, cmd
	}

	a.log.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindGeoResolved, Comp: "geo", Msg: msg.Coord.String()})
	c := msg.Coord
	loc.Coordinate = &c
	if !a.pager.SetLocation(loc) {
		return a, nil
	}
	cmd := a.afterListChange()
	return a, cmd
}

// toggleLocation flips distance sorting. Enabling without a known
// coordinate starts a lookup.
func (a App) toggleLocation() (tea.Model, tea.Cmd) {
	loc := a.pager.Location()
	loc.Enabled = !loc.Enabled
	loc.Sort = model.SortDistance
	a.settings.LocationEnabled = loc.Enabled

	var cmds []tea.Cmd
	if a.pager.SetLocation(loc) {
		cmds = append(cmds, a.afterListChange())
	}
	if loc.Enabled && loc.Coordinate == nil {
		cmds = append(cmds, a.locate())
	}
	state := "off"
	if loc.Enabled {
		state = "on"
	}
	cmds = append(cmds, a.showToast("Nearby first: "+state))
	return a, tea.Batch(cmds...)
}

func (a *App) showToast(text string) tea.Cmd {
	a.toastSeq++
	seq := a.toastSeq
	a.toast = text
	return a.tick(toastDuration, func(time.Time) tea.Msg { return ToastExpired{Seq: seq} })
}

func (a App) frame() tea.Cmd {
	return a.tick(frameInterval, func(t time.Time) tea.Msg { return FrameTick{At: t} })
}

func (a *App) shutdown() {
	a.pager.Close()
	a.registry.Close()
	a.cancel()
}

// cardHeight is the height of one item: the screen minus the status bar.
func (a App) cardHeight() int {
	if !a.ready {
		return 0
	}
	return a.height - 1
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.showDebug {
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center,
				debugOverlay(a.ring, a.registry.Playing(), a.width, a.height-1)),
			debugStatusBar(a.width))
	}

	state := a.pager.State()
	h := a.cardHeight()

	var body string
	switch {
	case len(state.Items) == 0 && state.Err != nil:
		body = lipgloss.Place(a.width, h, lipgloss.Center, lipgloss.Center,
			ErrorStyle.Render("Couldn't load the feed: "+state.ErrorText())+"\n"+
				StatusBarText.Render("press r to try again"))
	case len(state.Items) == 0 && state.Loading:
		body = lipgloss.Place(a.width, h, lipgloss.Center, lipgloss.Center,
			a.spinner.View()+" loading feed")
	case len(state.Items) == 0:
		body = lipgloss.Place(a.width, h, lipgloss.Center, lipgloss.Center,
			HelpStyle.Render("No videos yet. Press r to refresh."))
	default:
		activeID := a.coord.ActiveID()
		cache := make(map[int][]string)
		card := func(i int) []string {
			if lines, ok := cache[i]; ok {
				return lines
			}
			lines := renderCard(a.cardView(state.Items[i], activeID), a.width, h)
			cache[i] = lines
			return lines
		}
		body = strings.Join(sliceViewport(card, len(state.Items), a.offset, h), "\n")
	}

	return body + "\n" + a.statusBar(state)
}

func (a App) cardView(it model.FeedItem, activeID string) cardView {
	cv := cardView{Item: it, Active: it.ID == activeID, Spinner: a.spinner.View()}
	if slot, ok := a.registry.Slot(it.ID); ok {
		cv.Mounted = true
		cv.Snap = slot.Session.Snapshot()
		if sim, ok := a.sims[it.ID]; ok && cv.Active {
			cv.Progress = a.progress.ViewAs(sim.Progress())
		}
	}
	return cv
}

func (a App) statusBar(state feed.State) string {
	if a.toast != "" {
		return Toast.Width(a.width).MaxHeight(1).Render(a.toast)
	}
	if state.Err != nil && len(state.Items) > 0 {
		return ErrorStyle.Width(a.width).MaxHeight(1).Render("Couldn't load more: " + state.ErrorText() + " (e to retry)")
	}

	pos := "0/0"
	if n := len(state.Items); n > 0 {
		pos = fmt.Sprintf("%d/%d", a.cursor+1, n)
	}
	parts := []string{StatusBarKey.Render(pos)}
	switch {
	case state.Loading:
		parts = append(parts, StatusBarText.Render(a.spinner.View()+" loading"))
	case state.EndReached:
		parts = append(parts, StatusBarText.Render("end of feed"))
	}
	if loc := a.pager.Location(); loc.SortsByDistance() {
		parts = append(parts, StatusBarText.Render("nearby first"))
	}
	parts = append(parts, a.help.ShortHelpView(a.keys.ShortHelp()))
	return StatusBar.Width(a.width).MaxHeight(1).Render(strings.Join(parts, "  "))
}

// Cursor returns the index the viewport is on or moving to (for testing).
func (a App) Cursor() int {
	return a.cursor
}

// ActiveID returns the elected item id (for testing).
func (a App) ActiveID() string {
	return a.coord.ActiveID()
}

// Registry exposes the mounted sessions (for testing).
func (a App) Registry() *playback.Registry {
	return a.registry
}

// Toast returns the visible toast text (for testing).
func (a App) Toast() string {
	return a.toast
}
