package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vyaapaar/dashcore/pkg/conversation"
	"github.com/vyaapaar/dashcore/pkg/logger"
	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/replies"
	"github.com/vyaapaar/dashcore/pkg/tween"
)

func (a *app) cmdDash(args []string) int {
	flags := flag.NewFlagSet("dash", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	jsonOut := flags.Bool("json", false, "print one snapshot as JSON and exit")
	logFile := flags.String("log", "", "write logs to this file while the dashboard runs")
	if err := flags.Parse(args); err != nil {
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *jsonOut {
		return a.dashJSON(ctx)
	}

	// The TUI owns the terminal; logs go to a file or nowhere.
	prevLog := slog.Default()
	defer slog.SetDefault(prevLog)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return a.fail("dash", err)
		}
		defer f.Close()
		logger.Setup(a.cfg.LogLevel, a.cfg.LogFormat, f)
	} else {
		slog.SetDefault(logger.Discard())
	}
	log := slog.Default()

	eng, err := a.newEngine(ctx, log)
	if err != nil {
		return a.fail("dash", err)
	}
	lib, err := a.replyLibrary(eng.rnd)
	if err != nil {
		return a.fail("dash", err)
	}

	convs := make(map[model.Surface]*conversation.Controller)
	for _, s := range []model.Surface{model.SurfaceAssistant, model.SurfaceChannel} {
		profile, _ := conversation.ProfileFor(s)
		c, err := conversation.New(string(s), profile, eng.sched, lib,
			conversation.WithRandom(eng.rnd),
			conversation.WithHistory(conversation.DefaultHistory(s, a.now())),
			conversation.WithUsageSink(eng.feed),
			conversation.WithRecorder(eng.exporter),
			conversation.WithLogger(log),
		)
		if err != nil {
			return a.fail("dash", err)
		}
		convs[s] = c
		defer c.Close()
	}

	m := newDashModel(a, eng, convs)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Subscribers run on the engine's goroutines under hub locks; hand
	// everything to the program asynchronously.
	eng.tween.Subscribe(func(f tween.Frame) { go p.Send(frameMsg{f}) })
	eng.feed.AddPublisher(metrics.PublisherFunc(func(s model.Snapshot) { go p.Send(snapshotMsg{s}) }))
	for s, c := range convs {
		c.Subscribe(func(st model.ConversationState) { go p.Send(convMsg{surface: s, state: st}) })
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		eng.run(ctx, a.cfg.MetricsAddr)
	}()

	_, runErr := p.Run()
	cancel()
	<-done
	if runErr != nil {
		return a.fail("dash", runErr)
	}
	return 0
}

// dashJSON dumps what the dashboard would open with.
func (a *app) dashJSON(ctx context.Context) int {
	if _, err := a.ensureSeeded(ctx); err != nil {
		return a.fail("dash", err)
	}
	snap, err := a.snapshot(ctx)
	if err != nil {
		return a.fail("dash", err)
	}
	u, _, err := a.usage(ctx)
	if err != nil {
		return a.fail("dash", err)
	}
	items, err := a.store.ListInventory(ctx, "")
	if err != nil {
		return a.fail("dash", err)
	}
	a.printJSON(map[string]any{
		"metrics":   snap,
		"usage":     u,
		"inventory": items,
		"prompts":   replies.SuggestedPrompts,
	})
	return 0
}

// --- Messages ---

type frameMsg struct{ frame tween.Frame }

type snapshotMsg struct{ snap model.Snapshot }

type convMsg struct {
	surface model.Surface
	state   model.ConversationState
}

type usageMsg struct {
	usage metrics.Usage
	err   error
}

type inventoryMsg struct {
	items []model.InventoryItem
	err   error
}

// --- Key bindings ---

type dashKeyMap struct {
	Quit    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Send    key.Binding
	Suggest key.Binding
	Refresh key.Binding
	Up      key.Binding
	Down    key.Binding
	Help    key.Binding
}

var dashKeys = dashKeyMap{
	Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Next:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Prev:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous view")),
	Send:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send / search")),
	Suggest: key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "suggested prompt")),
	Refresh: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
	Up:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
	Down:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	Help:    key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "help")),
}

func (k dashKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Send, k.Help, k.Quit}
}

func (k dashKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Send, k.Suggest},
		{k.Up, k.Down, k.Refresh, k.Help, k.Quit},
	}
}

// --- Tabs ---

type tabID int

const (
	tabMetrics tabID = iota
	tabAssistant
	tabChannel
	tabInventory
	tabCount
)

func (t tabID) String() string {
	switch t {
	case tabMetrics:
		return "Metrics"
	case tabAssistant:
		return "Assistant"
	case tabChannel:
		return "WhatsApp"
	case tabInventory:
		return "Inventory"
	}
	return "?"
}

// surface returns the conversation a chat tab shows.
func (t tabID) surface() (model.Surface, bool) {
	switch t {
	case tabAssistant:
		return model.SurfaceAssistant, true
	case tabChannel:
		return model.SurfaceChannel, true
	}
	return "", false
}

// --- Model ---

type dashModel struct {
	app   *app
	eng   *engine
	convs map[model.Surface]*conversation.Controller

	frame  tween.Frame
	states map[model.Surface]model.ConversationState
	usage  metrics.Usage
	items  []model.InventoryItem
	query  string

	activeTab tabID
	width     int
	height    int
	suggest   int
	status    string

	input   textinput.Model
	chat    viewport.Model
	spinner spinner.Model
	help    help.Model
	theme   dashTheme
}

func newDashModel(a *app, eng *engine, convs map[model.Surface]*conversation.Controller) dashModel {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#25d366"))

	chat := viewport.New(0, 0)
	chat.MouseWheelEnabled = true

	states := make(map[model.Surface]model.ConversationState, len(convs))
	for s, c := range convs {
		states[s] = c.State()
	}

	return dashModel{
		app:     a,
		eng:     eng,
		convs:   convs,
		frame:   tween.Frame{Values: eng.tween.Displayed()},
		states:  states,
		input:   input,
		chat:    chat,
		spinner: sp,
		help:    help.New(),
		theme:   newDashTheme(),
		status:  "ready",
	}
}

func (m dashModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadUsage(), m.loadInventory())
}

func (m dashModel) loadUsage() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		u, _, err := a.usage(context.Background())
		return usageMsg{usage: u, err: err}
	}
}

func (m dashModel) loadInventory() tea.Cmd {
	a, q := m.app, m.query
	return func() tea.Msg {
		items, err := a.store.ListInventory(context.Background(), q)
		return inventoryMsg{items: items, err: err}
	}
}

func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case frameMsg:
		if msg.frame.Version > m.frame.Version {
			m.frame = msg.frame
		}
	case snapshotMsg:
		cmds = append(cmds, m.loadUsage(), m.loadInventory())
	case convMsg:
		if msg.state.Version > m.states[msg.surface].Version {
			m.states[msg.surface] = msg.state
			if s, ok := m.activeTab.surface(); ok && s == msg.surface {
				m.renderChat()
			}
			if len(msg.state.Messages) > 0 && msg.state.Messages[len(msg.state.Messages)-1].Cost != nil {
				cmds = append(cmds, m.loadUsage())
			}
		}
	case usageMsg:
		if msg.err != nil {
			m.status = "usage: " + msg.err.Error()
		} else {
			m.usage = msg.usage
		}
	case inventoryMsg:
		if msg.err != nil {
			m.status = "inventory: " + msg.err.Error()
		} else {
			m.items = msg.items
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.renderChat()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.MouseMsg:
		if _, ok := m.activeTab.surface(); ok {
			var cmd tea.Cmd
			m.chat, cmd = m.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
	case tea.KeyMsg:
		if m.activeTab == tabMetrics && msg.String() == "q" {
			return m, tea.Quit
		}
		switch {
		case key.Matches(msg, dashKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, dashKeys.Next):
			cmd := m.switchTab((m.activeTab + 1) % tabCount)
			return m, cmd
		case key.Matches(msg, dashKeys.Prev):
			cmd := m.switchTab((m.activeTab + tabCount - 1) % tabCount)
			return m, cmd
		case key.Matches(msg, dashKeys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, dashKeys.Refresh):
			return m, tea.Batch(m.loadUsage(), m.loadInventory())
		case key.Matches(msg, dashKeys.Up):
			m.chat.SetYOffset(m.chat.YOffset - m.chat.Height/2)
			return m, nil
		case key.Matches(msg, dashKeys.Down):
			m.chat.SetYOffset(m.chat.YOffset + m.chat.Height/2)
			return m, nil
		case key.Matches(msg, dashKeys.Suggest):
			if m.activeTab == tabAssistant && len(replies.SuggestedPrompts) > 0 {
				m.input.SetValue(replies.SuggestedPrompts[m.suggest%len(replies.SuggestedPrompts)])
				m.input.CursorEnd()
				m.suggest++
			}
			return m, nil
		case key.Matches(msg, dashKeys.Send):
			cmd := m.submit()
			return m, cmd
		}
		if m.activeTab != tabMetrics {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

// switchTab moves to t, focusing the input where it is used.
func (m *dashModel) switchTab(t tabID) tea.Cmd {
	m.activeTab = t
	m.input.Reset()
	switch t {
	case tabMetrics:
		m.input.Blur()
		m.input.Placeholder = ""
		return nil
	case tabInventory:
		m.input.Placeholder = "search name or category"
		m.input.SetValue(m.query)
	case tabAssistant:
		m.input.Placeholder = "ask the assistant (ctrl+p for ideas)"
	case tabChannel:
		m.input.Placeholder = "message the store"
	}
	m.renderChat()
	m.chat.GotoBottom()
	return m.input.Focus()
}

// submit sends the input on chat tabs and applies it as a filter on the
// inventory tab.
func (m *dashModel) submit() tea.Cmd {
	if m.activeTab == tabInventory {
		m.query = strings.TrimSpace(m.input.Value())
		return m.loadInventory()
	}
	s, ok := m.activeTab.surface()
	if !ok {
		return nil
	}
	if _, err := m.convs[s].Submit(m.input.Value()); err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			m.status = "nothing to send"
		} else {
			m.status = fmt.Sprintf("send failed: %v", err)
		}
		return nil
	}
	m.input.Reset()
	m.status = "sent to " + string(s)
	return nil
}
