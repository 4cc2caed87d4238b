package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/lobzik223/runa-ledger/internal/credit"
	"github.com/lobzik223/runa-ledger/internal/deposit"
)

// AccountsModel shows every credit and deposit account the user holds, with
// the recorded balance or principal and the next scheduled date.
type AccountsModel struct {
	CommonModel

	creditService  *credit.Service
	depositService *deposit.Service
	userID         uuid.UUID

	table   table.Model
	loading bool
	err     error
}

func NewAccountsModel(creditSvc *credit.Service, depositSvc *deposit.Service, userID uuid.UUID) AccountsModel {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Kind", Width: 14},
		{Title: "Balance", Width: 16},
		{Title: "Rate %", Width: 8},
		{Title: "Next date", Width: 12},
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

	return AccountsModel{
		creditService:  creditSvc,
		depositService: depositSvc,
		userID:         userID,
		table:          t,
		loading:        true,
	}
}

func (m AccountsModel) Title() string     { return "Accounts" }
func (m AccountsModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m AccountsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m AccountsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadAccountsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.refreshTable(msg.credits, msg.deposits)

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

func (m AccountsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading accounts...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(tableView)
}

func (m *AccountsModel) refreshTable(credits []*credit.Account, deposits []*deposit.Account) {
	rows := make([]table.Row, 0, len(credits)+len(deposits))

	for _, acct := range credits {
		rows = append(rows, table.Row{
			acct.Name,
			string(acct.Kind),
			FormatAmount(acct.CurrentBalance, acct.Currency),
			acct.InterestRate.String(),
			FormatDatePtr(acct.NextPaymentAt),
		})
	}

	for _, acct := range deposits {
		rows = append(rows, table.Row{
			acct.Name,
			"deposit",
			FormatAmount(acct.Principal, acct.Currency),
			acct.InterestRate.String(),
			FormatDatePtr(acct.NextPayoutAt),
		})
	}

	m.table.SetRows(rows)
}

type loadAccountsMsg struct {
	credits  []*credit.Account
	deposits []*deposit.Account
	err      error
}

func (m AccountsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		credits, err := m.creditService.List(ctx, m.userID)
		if err != nil {
			return loadAccountsMsg{err: err}
		}

		deposits, err := m.depositService.List(ctx, m.userID)
		if err != nil {
			return loadAccountsMsg{err: err}
		}

		return loadAccountsMsg{credits: credits, deposits: deposits}
	}
}
