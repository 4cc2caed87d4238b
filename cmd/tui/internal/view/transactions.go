package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/ledger"
)

type transactionsState int

const (
	transactionsStateBrowse transactionsState = iota
	transactionsStateCreate
)

// TransactionsModel browses the posting history and records new postings.
type TransactionsModel struct {
	CommonModel

	ledgerService *ledger.Service
	userID        uuid.UUID

	state    transactionsState
	table    table.Model
	postings []*ledger.Transaction
	form     *huh.Form

	// Cycles all -> income -> expense.
	typeFilterIdx int

	loading bool
	err     error
	status  string

	// Form bindings
	formType     string
	formAmount   string
	formDesc     string
	formCurrency string
}

func NewTransactionsModel(ledgerSvc *ledger.Service, userID uuid.UUID) TransactionsModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Type", Width: 9},
		{Title: "Amount", Width: 16},
		{Title: "Description", Width: 40},
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

	return TransactionsModel{
		ledgerService: ledgerSvc,
		userID:        userID,
		table:         t,
		loading:       true,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }
func (m TransactionsModel) ShortHelp() string {
	if m.state == transactionsStateCreate {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new | x: delete | t: type filter | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTransactionsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.postings = msg.postings
		m.refreshTable()

		return m, nil

	case transactionSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = ""
		}

		m.state = transactionsStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case transactionsStateBrowse:
		return m.updateBrowse(msg)
	case transactionsStateCreate:
		return m.updateCreate(msg)
	}

	return m, nil
}

func (m TransactionsModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterCreateMode()
		case "x":
			return m, m.deleteCmd()
		case "t":
			m.typeFilterIdx = (m.typeFilterIdx + 1) % 3
			m.loading = true

			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TransactionsModel) enterCreateMode() (tea.Model, tea.Cmd) {
	m.formType = string(ledger.TypeExpense)
	m.formAmount = ""
	m.formDesc = ""
	m.formCurrency = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("type").
				Title("Type").
				Options(
					huh.NewOption("Expense", string(ledger.TypeExpense)),
					huh.NewOption("Income", string(ledger.TypeIncome)),
				).
				Value(&m.formType),

			huh.NewInput().
				Key("amount").
				Title("Amount").
				Value(&m.formAmount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return fmt.Errorf("not a number")
					}
					if d.Sign() <= 0 {
						return fmt.Errorf("must be positive")
					}
					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.formDesc),

			huh.NewInput().
				Key("currency").
				Title("Currency").
				Placeholder("RUB").
				Value(&m.formCurrency),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = transactionsStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m TransactionsModel) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = transactionsStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.createCmd()
}

func (m TransactionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	typeLabels := []string{"All", "Income", "Expense"}

	header := fmt.Sprintf("Filter: [t] Type: %s",
		lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(typeLabels[m.typeFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == transactionsStateCreate && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("New Transaction\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *TransactionsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.postings))
	for _, posting := range m.postings {
		rows = append(rows, table.Row{
			FormatDate(posting.OccurredAt),
			string(posting.Type),
			FormatAmount(posting.Amount, posting.Currency),
			posting.Description,
		})
	}
	m.table.SetRows(rows)
}

func (m TransactionsModel) filter() ledger.ListFilter {
	filter := ledger.ListFilter{UserID: m.userID}

	switch m.typeFilterIdx {
	case 1:
		t := ledger.TypeIncome
		filter.Type = &t
	case 2:
		t := ledger.TypeExpense
		filter.Type = &t
	}

	return filter
}

// Messages

type loadTransactionsMsg struct {
	postings []*ledger.Transaction
	err      error
}

func (m TransactionsModel) loadCmd() tea.Cmd {
	filter := m.filter()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		postings, err := m.ledgerService.List(ctx, filter)
		return loadTransactionsMsg{postings: postings, err: err}
	}
}

type transactionSavedMsg struct {
	err error
}

func (m TransactionsModel) createCmd() tea.Cmd {
	amount, err := decimal.NewFromString(strings.TrimSpace(m.formAmount))
	if err != nil {
		return func() tea.Msg { return transactionSavedMsg{err: err} }
	}

	params := ledger.CreateParams{
		UserID:      m.userID,
		Type:        ledger.Type(m.formType),
		Amount:      amount,
		Currency:    strings.TrimSpace(m.formCurrency),
		Description: strings.TrimSpace(m.formDesc),
		OccurredAt:  time.Now(),
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.ledgerService.Create(ctx, params)
		return transactionSavedMsg{err: err}
	}
}

func (m TransactionsModel) deleteCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.postings) {
		return nil
	}

	id := m.postings[idx].ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		err := m.ledgerService.Remove(ctx, id, m.userID)
		return transactionSavedMsg{err: err}
	}
}
