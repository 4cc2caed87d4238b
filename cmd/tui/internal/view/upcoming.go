package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lobzik223/runa-ledger/internal/schedule"
)

// UpcomingModel shows the scheduled payments and payouts falling due inside
// the configured window.
type UpcomingModel struct {
	CommonModel

	scheduleService *schedule.Service
	window          time.Duration

	table   table.Model
	loading bool
	err     error
}

func NewUpcomingModel(scheduleSvc *schedule.Service, window time.Duration) UpcomingModel {
	columns := []table.Column{
		{Title: "Due", Width: 12},
		{Title: "Kind", Width: 18},
		{Title: "Amount", Width: 16},
		{Title: "Status", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return UpcomingModel{
		scheduleService: scheduleSvc,
		window:          window,
		table:           t,
		loading:         true,
	}
}

func (m UpcomingModel) Title() string     { return "Upcoming" }
func (m UpcomingModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m UpcomingModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m UpcomingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadUpcomingMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		rows := make([]table.Row, 0, len(msg.events))
		for _, ev := range msg.events {
			rows = append(rows, table.Row{
				FormatDate(ev.DueAt),
				string(ev.Kind),
				FormatAmount(ev.Amount, ev.Currency),
				string(ev.Status),
			})
		}
		m.table.SetRows(rows)

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m UpcomingModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading schedule...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	header := fmt.Sprintf("Due within %s", m.window)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	return lipgloss.NewStyle().Padding(1).Render(content)
}

type loadUpcomingMsg struct {
	events []*schedule.Event
	err    error
}

func (m UpcomingModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		events, err := m.scheduleService.ListDue(ctx, m.window)
		return loadUpcomingMsg{events: events, err: err}
	}
}
