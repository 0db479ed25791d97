package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
)

type dashTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	card        lipgloss.Style
	cardLabel   lipgloss.Style
	cardValue   lipgloss.Style
	cardMoving  lipgloss.Style
	local       lipgloss.Style
	counterpart lipgloss.Style
	muted       lipgloss.Style
	status      lipgloss.Style
	warn        lipgloss.Style
	stock       map[model.StockStatus]lipgloss.Style
}

func newDashTheme() dashTheme {
	green := lipgloss.Color("#25d366")
	blue := lipgloss.Color("#4f8ef7")
	amber := lipgloss.Color("#f5a623")
	red := lipgloss.Color("#e5484d")
	muted := lipgloss.Color("#8b93a7")

	return dashTheme{
		root: lipgloss.NewStyle().Padding(0, 1),
		header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(muted),
		tabActive: lipgloss.NewStyle().
			Background(blue).
			Foreground(lipgloss.Color("#ffffff")).
			Bold(true).
			Padding(0, 2),
		tabInactive: lipgloss.NewStyle().Foreground(muted).Padding(0, 2),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Bold(true).Foreground(blue),
		card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1).
			Width(22),
		cardLabel:   lipgloss.NewStyle().Foreground(muted),
		cardValue:   lipgloss.NewStyle().Bold(true),
		cardMoving:  lipgloss.NewStyle().Bold(true).Foreground(green),
		local:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		counterpart: lipgloss.NewStyle().Foreground(green).Bold(true),
		muted:       lipgloss.NewStyle().Foreground(muted),
		status:      lipgloss.NewStyle().Foreground(blue),
		warn:        lipgloss.NewStyle().Foreground(amber).Bold(true),
		stock: map[model.StockStatus]lipgloss.Style{
			model.StockIn:  lipgloss.NewStyle().Foreground(green),
			model.StockLow: lipgloss.NewStyle().Foreground(amber),
			model.StockOut: lipgloss.NewStyle().Foreground(red),
		},
	}
}

func (m dashModel) View() string {
	var body string
	switch m.activeTab {
	case tabMetrics:
		body = m.renderMetrics()
	case tabAssistant, tabChannel:
		body = m.renderConversation()
	case tabInventory:
		body = m.renderInventory()
	}
	out := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
	return m.theme.root.Render(out)
}

func (m dashModel) renderHeader() string {
	segments := make([]string, 0, tabCount+1)
	for t := tabID(0); t < tabCount; t++ {
		style := m.theme.tabInactive
		if t == m.activeTab {
			style = m.theme.tabActive
		}
		segments = append(segments, style.Render(t.String()))
	}
	segments = append(segments, m.theme.muted.Render("  vy dashboard"))
	return m.theme.header.Render(lipgloss.JoinHorizontal(lipgloss.Left, segments...))
}

func (m dashModel) renderMetrics() string {
	moving := make(map[string]bool, len(m.frame.Animating))
	for _, k := range m.frame.Animating {
		moving[k] = true
	}
	target := m.eng.tween.Authoritative()

	cards := make([]string, 0, len(metrics.Keys))
	for _, k := range metrics.Keys {
		valueStyle := m.theme.cardValue
		trend := ""
		if moving[k] {
			valueStyle = m.theme.cardMoving
			trend = m.theme.muted.Render(" -> " + formatMetric(k, target[k]))
		}
		cards = append(cards, m.theme.card.Render(
			m.theme.cardLabel.Render(metrics.Label(k))+"\n"+
				valueStyle.Render(formatMetric(k, m.frame.Values[k]))+trend,
		))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	return lipgloss.JoinVertical(lipgloss.Left, row, m.renderTokens())
}

func (m dashModel) renderTokens() string {
	u := m.usage
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("AI token usage") + "\n")
	fmt.Fprintf(&b, "%s %.1f%%\n", progressBar(u.Percent, 40), u.Percent)
	fmt.Fprintf(&b, "used %s of %s  remaining %s  est. cost %s\n",
		humanize.Comma(u.Used), humanize.Comma(u.Limit), humanize.Comma(u.Remaining),
		formatRupees(u.EstimatedCost))
	if !u.PeriodStart.IsZero() {
		b.WriteString(m.theme.muted.Render("period started " + humanize.Time(u.PeriodStart)))
	}
	if u.Percent >= 80 {
		b.WriteString("\n" + m.theme.warn.Render("over 80% of the monthly budget used"))
	}
	return m.theme.panel.Render(b.String())
}

func (m dashModel) renderConversation() string {
	s, _ := m.activeTab.surface()
	typing := ""
	if m.states[s].CounterpartTyping {
		typing = m.spinner.View() + m.theme.muted.Render(counterpartName(s)+" is typing...")
	}
	title := m.theme.panelTitle.Render(m.activeTab.String())
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.panel.Render(title+"\n"+m.chat.View()),
		typing,
		m.input.View(),
	)
}

// renderChat refreshes the chat viewport for the active tab, following
// new messages when already scrolled to the bottom.
func (m *dashModel) renderChat() {
	s, ok := m.activeTab.surface()
	if !ok {
		return
	}
	atBottom := m.chat.AtBottom()
	width := max(20, m.chat.Width)
	var b strings.Builder
	for _, msg := range m.states[s].Messages {
		name, style := "you", m.theme.local
		if msg.Origin == model.OriginCounterpart {
			name, style = counterpartName(s), m.theme.counterpart
		}
		meta := msg.CreatedAt.Local().Format("15:04")
		if msg.Origin == model.OriginLocal {
			meta += " " + statusMark(msg.Status)
		}
		if msg.Cost != nil {
			meta += fmt.Sprintf(" %d tokens", *msg.Cost)
		}
		b.WriteString(style.Render(name) + " " + m.theme.muted.Render(meta) + "\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(msg.Content) + "\n\n")
	}
	m.chat.SetContent(b.String())
	if atBottom {
		m.chat.GotoBottom()
	}
}

func (m dashModel) renderInventory() string {
	var b strings.Builder
	title := "Inventory"
	if m.query != "" {
		title += fmt.Sprintf(" matching %q", m.query)
	}
	b.WriteString(m.theme.panelTitle.Render(title) + "\n")
	fmt.Fprintf(&b, "%-24s %-12s %7s %10s  %s\n", "item", "category", "stock", "price", "status")
	for _, it := range m.items {
		fmt.Fprintf(&b, "%-24s %-12s %7s %10s  %s\n",
			truncate(it.Name, 24), truncate(it.Category, 12),
			fmt.Sprintf("%d %s", it.Stock, it.Unit),
			formatMetric(metrics.KeyRevenue, it.Price),
			m.theme.stock[it.Status].Render(string(it.Status)))
	}
	if len(m.items) == 0 {
		b.WriteString(m.theme.muted.Render("no items") + "\n")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.theme.panel.Render(b.String()), m.input.View())
}

func (m dashModel) renderFooter() string {
	return m.theme.status.Render(m.status) + "\n" + m.help.View(dashKeys)
}

func (m *dashModel) resize() {
	w := max(30, m.width-6)
	m.input.Width = w - 4
	m.chat.Width = w
	m.chat.Height = max(5, m.height-12)
}

func counterpartName(s model.Surface) string {
	if s == model.SurfaceChannel {
		return "store"
	}
	return "assistant"
}

// statusMark renders a delivery status the way messaging apps do.
func statusMark(s model.DeliveryStatus) string {
	switch s {
	case model.StatusPending:
		return "..."
	case model.StatusSent:
		return "✓"
	case model.StatusDelivered:
		return "✓✓"
	case model.StatusSeen:
		return "✓✓ seen"
	}
	return "?"
}
