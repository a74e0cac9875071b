package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ganderhq/gander/internal/jobs"
)

const asciiLogo = `
 ██████╗  █████╗ ███╗   ██╗██████╗ ███████╗██████╗
██╔════╝ ██╔══██╗████╗  ██║██╔══██╗██╔════╝██╔══██╗
██║  ███╗███████║██╔██╗ ██║██║  ██║█████╗  ██████╔╝
██║   ██║██╔══██║██║╚██╗██║██║  ██║██╔══╝  ██╔══██╗
╚██████╔╝██║  ██║██║ ╚████║██████╔╝███████╗██║  ██║
 ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═══╝╚═════╝ ╚══════╝╚═╝  ╚═╝

        TAKE A GANDER AT YOUR PULL REQUESTS
`

type model struct {
	styles    styles
	serverURL string
	refresh   time.Duration

	// UI Components
	spinner spinner.Model
	table   table.Model

	// Poll State
	snapshot  *jobs.StatusSnapshot
	fetchedAt time.Time
	fetchErr  error
	paused    bool
	loading   bool
	width     int
}

func initialModel(serverURL string, refresh time.Duration, theme ThemeName) *model {
	st := GetTheme(theme)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = st.value

	tbl := table.New(
		table.WithColumns(runColumns()),
		table.WithHeight(10),
		table.WithFocused(true),
	)
	tbl.SetStyles(st.table)

	return &model{
		styles:    st,
		serverURL: serverURL,
		refresh:   refresh,
		spinner:   sp,
		table:     tbl,
		loading:   true,
	}
}

func runColumns() []table.Column {
	return []table.Column{
		{Title: "REPOSITORY", Width: 32},
		{Title: "PR", Width: 6},
		{Title: "HEAD SHA", Width: 10},
		{Title: "RUNNING", Width: 10},
	}
}

func runRows(runs []jobs.ActiveRun, now time.Time) []table.Row {
	rows := make([]table.Row, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, table.Row{
			run.Repo,
			fmt.Sprintf("#%d", run.PRNumber),
			truncateSHA(run.HeadSHA),
			now.Sub(run.StartedAt).Round(time.Second).String(),
		})
	}
	return rows
}

func truncateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(fetchStatusCmd(m.serverURL), tickCmd(m.refresh), m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tblCmd tea.Cmd
		spCmd  tea.Cmd
	)

	m.table, tblCmd = m.table.Update(msg)
	m.spinner, spCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
			return m, nil
		case "r":
			m.loading = true
			return m, tea.Batch(fetchStatusCmd(m.serverURL), spCmd)
		}

	case tickMsg:
		if m.paused {
			return m, tickCmd(m.refresh)
		}
		m.loading = true
		return m, tea.Batch(fetchStatusCmd(m.serverURL), tickCmd(m.refresh), spCmd)

	case statusMsg:
		m.loading = false
		m.fetchErr = msg.err
		if msg.err == nil {
			m.snapshot = msg.snapshot
			m.fetchedAt = msg.fetchedAt
			m.table.SetRows(runRows(msg.snapshot.ActiveRuns, msg.fetchedAt))
		}
		return m, spCmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetWidth(msg.Width - 6)
	}

	return m, tea.Batch(tblCmd, spCmd)
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.ascii.Render(asciiLogo))
	b.WriteString("\n\n")

	if m.snapshot == nil {
		if m.fetchErr != nil {
			b.WriteString(m.styles.error.Render("⚠ " + m.fetchErr.Error()))
			b.WriteString("\n")
			b.WriteString(m.styles.inactive.Render(fmt.Sprintf("Waiting for %s to come up...", m.serverURL)))
		} else {
			b.WriteString(fmt.Sprintf("%s CONNECTING TO %s...", m.spinner.View(), m.serverURL))
		}
		b.WriteString("\n")
		b.WriteString(m.footerView())
		return m.styles.app.Render(b.String())
	}

	b.WriteString(m.countersView())
	b.WriteString("\n\n")

	if len(m.snapshot.ActiveRuns) == 0 {
		b.WriteString(m.styles.inactive.Render("No review runs in flight."))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	if m.fetchErr != nil {
		b.WriteString(m.styles.error.Render("⚠ last poll failed: " + m.fetchErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.footerView())
	return m.styles.app.Render(b.String())
}

func (m *model) countersView() string {
	s := m.snapshot
	counters := []struct {
		label string
		value int64
		style lipgloss.Style
	}{
		{"ACCEPTED", s.Accepted, m.styles.value},
		{"IN FLIGHT", s.InFlight, m.styles.warning},
		{"PUBLISHED", s.Published, m.styles.success},
		{"SKIPPED", s.Skipped, m.styles.value},
		{"DUPLICATES", s.Duplicates, m.styles.value},
		{"SUPERSEDED", s.Superseded, m.styles.warning},
		{"FAILED", s.Failed, m.styles.error},
	}

	boxes := make([]string, 0, len(counters))
	for _, c := range counters {
		content := lipgloss.JoinVertical(lipgloss.Center,
			c.style.Render(fmt.Sprintf("%d", c.value)),
			m.styles.label.Render(c.label),
		)
		boxes = append(boxes, m.styles.counter.Render(content))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *model) footerView() string {
	help := "q quit  ·  r refresh  ·  p pause"

	var status string
	switch {
	case m.paused:
		status = "  " + m.styles.warning.Render("● PAUSED")
	case m.loading:
		status = "  " + m.spinner.View()
	}

	var updated string
	if !m.fetchedAt.IsZero() {
		updated = "  │  updated " + m.fetchedAt.Format("15:04:05")
	}

	return m.styles.footer.Render(help+updated) + status
}
