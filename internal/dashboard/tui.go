// Terminal dashboard over the presence history store.
package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"guildwatch/internal/presence"
)

// HistoryReader loads the full history for each dashboard refresh.
type HistoryReader interface {
	ReadAll() ([]presence.SnapshotRow, error)
}

// recentLines caps the observation log kept in the viewport.
const recentLines = 200

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")).Padding(0, 1)
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	stampStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type reloadMsg struct {
	rows []presence.SnapshotRow
	err  error
}

type tickMsg time.Time

// Model is the bubbletea model for the presence dashboard.
type Model struct {
	reader  HistoryReader
	roster  presence.Roster
	guild   string
	refresh time.Duration

	table  table.Model
	vp     viewport.Model
	wrap   bool
	width  int
	height int

	runs     int
	loadedAt time.Time
	err      error
	lines    []string
}

// New builds the dashboard model. refresh <= 0 disables auto-reload.
func New(reader HistoryReader, roster presence.Roster, guild string, refresh time.Duration) Model {
	cols := []table.Column{
		{Title: "Player", Width: 22},
		{Title: "On", Width: 6},
		{Title: "Off", Width: 6},
		{Title: "Ratio", Width: 7},
		{Title: "Last seen online", Width: 18},
		{Title: "Last login", Width: 18},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(len(roster)+1))
	return Model{
		reader:  reader,
		roster:  roster,
		guild:   guild,
		refresh: refresh,
		table:   t,
		vp:      viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.load}
	if m.refresh > 0 {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

func (m Model) load() tea.Msg {
	rows, err := m.reader.ReadAll()
	return reloadMsg{rows: rows, err: err}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.vp.Height = max(3, msg.Height-m.table.Height()-6)
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "up", "k":
			m.vp.LineUp(1)
		case "down", "j":
			m.vp.LineDown(1)
		}
	case tickMsg:
		return m, tea.Batch(m.load, m.tick())
	case reloadMsg:
		m.err = msg.err
		if msg.err == nil {
			m.loadedAt = time.Now()
			m.runs = countRuns(msg.rows)
			m.table.SetRows(summaryRows(presence.Summarize(msg.rows, m.roster)))
			m.lines = historyLines(msg.rows)
			m.refreshViewport()
		}
	}
	return m, nil
}

func (m *Model) refreshViewport() {
	content := ""
	for i, line := range m.lines {
		if i > 0 {
			content += "\n"
		}
		if m.wrap && m.vp.Width > 0 {
			line = wordwrap.String(line, m.vp.Width)
		}
		content += line
	}
	m.vp.SetContent(content)
	m.vp.GotoBottom()
}

func (m Model) View() string {
	header := headerStyle.Render(fmt.Sprintf("guildwatch | %s | %d runs", m.guild, m.runs))
	if !m.loadedAt.IsZero() {
		header += stampStyle.Render(fmt.Sprintf("  loaded %s", m.loadedAt.Format("15:04:05")))
	}
	body := header + "\n" + m.table.View() + "\n" + m.vp.View()
	if m.err != nil {
		body += "\n" + errStyle.Render("error: "+m.err.Error())
	}
	help := helpStyle.Render("r reload | w wrap | up/down scroll | q quit")
	if m.wrap && m.width > 0 {
		help = wordwrap.String(help, m.width)
	}
	return body + "\n" + help
}

// Run starts the dashboard in the alternate screen.
func Run(reader HistoryReader, roster presence.Roster, guild string, refresh time.Duration) error {
	p := tea.NewProgram(New(reader, roster, guild, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// summaryRows formats aggregates for the table widget.
func summaryRows(sums []presence.PlayerSummary) []table.Row {
	rows := make([]table.Row, 0, len(sums))
	for _, s := range sums {
		rows = append(rows, table.Row{
			s.Player,
			fmt.Sprintf("%d", s.OnlineCount),
			fmt.Sprintf("%d", s.OfflineCount),
			fmt.Sprintf("%.0f%%", s.OnlineRatio*100),
			stampOrNever(s.LastSeenOnline),
			lastLoginOrDash(s.LastLogin),
		})
	}
	return rows
}

// historyLines renders the most recent observations, oldest first.
func historyLines(rows []presence.SnapshotRow) []string {
	start := 0
	if len(rows) > recentLines {
		start = len(rows) - recentLines
	}
	lines := make([]string, 0, len(rows)-start)
	for _, r := range rows[start:] {
		status := offlineStyle.Render("offline")
		if r.Online {
			status = onlineStyle.Render("online ")
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			stampStyle.Render(r.Timestamp.Format(time.RFC3339)),
			status,
			r.Player,
		))
	}
	return lines
}

func stampOrNever(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04")
}

func lastLoginOrDash(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func countRuns(rows []presence.SnapshotRow) int {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.RunID] = struct{}{}
	}
	return len(seen)
}
