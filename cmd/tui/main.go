package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/lobzik223/runa-ledger/cmd/tui/internal/view"
	"github.com/lobzik223/runa-ledger/internal/config"
	"github.com/lobzik223/runa-ledger/internal/credit"
	creditStore "github.com/lobzik223/runa-ledger/internal/credit/store"
	"github.com/lobzik223/runa-ledger/internal/database"
	"github.com/lobzik223/runa-ledger/internal/deposit"
	depositStore "github.com/lobzik223/runa-ledger/internal/deposit/store"
	"github.com/lobzik223/runa-ledger/internal/entitlements"
	"github.com/lobzik223/runa-ledger/internal/ledger"
	ledgerStore "github.com/lobzik223/runa-ledger/internal/ledger/store"
	"github.com/lobzik223/runa-ledger/internal/schedule"
	scheduleStore "github.com/lobzik223/runa-ledger/internal/schedule/store"
)

type model struct {
	creditService   *credit.Service
	depositService  *deposit.Service
	scheduleService *schedule.Service
	ledgerService   *ledger.Service

	userID    uuid.UUID
	dueWindow time.Duration

	currentView View

	accountsView     view.AccountsModel
	upcomingView     view.UpcomingModel
	transactionsView view.TransactionsModel
}

type View int

const (
	ViewMenu         View = 0
	ViewAccounts     View = 1
	ViewUpcoming     View = 2
	ViewTransactions View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	userID, err := uuid.Parse(cfg.TUI.UserID)
	if err != nil {
		slog.Error("TUI_USER_ID must be a valid uuid", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ents := entitlements.New(db)
	creditSvc := credit.NewService(creditStore.New(db), ents, cfg.Ledger.EnforceCreditLimit)
	depositSvc := deposit.NewService(depositStore.New(db), ents)
	scheduleSvc := schedule.NewService(scheduleStore.New(db))
	ledgerSvc := ledger.NewService(ledgerStore.New(db), cfg.Ledger.EnforceCreditLimit)

	return model{
		creditService:   creditSvc,
		depositService:  depositSvc,
		scheduleService: scheduleSvc,
		ledgerService:   ledgerSvc,
		userID:           userID,
		dueWindow:        cfg.Ledger.DueWindow,
		currentView:      ViewMenu,
		accountsView:     view.NewAccountsModel(creditSvc, depositSvc, userID),
		upcomingView:     view.NewUpcomingModel(scheduleSvc, cfg.Ledger.DueWindow),
		transactionsView: view.NewTransactionsModel(ledgerSvc, userID),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewAccounts
				m.accountsView = view.NewAccountsModel(m.creditService, m.depositService, m.userID)

				return m, m.accountsView.Init()
			case "2":
				m.currentView = ViewUpcoming
				m.upcomingView = view.NewUpcomingModel(m.scheduleService, m.dueWindow)

				return m, m.upcomingView.Init()
			case "3":
				m.currentView = ViewTransactions
				m.transactionsView = view.NewTransactionsModel(m.ledgerService, m.userID)

				return m, m.transactionsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewAccounts:
		var newModel tea.Model
		newModel, cmd = m.accountsView.Update(msg)
		m.accountsView = newModel.(view.AccountsModel)
	case ViewUpcoming:
		var newModel tea.Model
		newModel, cmd = m.upcomingView.Update(msg)
		m.upcomingView = newModel.(view.UpcomingModel)
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Runa Ledger\n\n" +
				"1. Accounts\n" +
				"2. Upcoming Payments\n" +
				"3. Transactions\n\n" +
				"q. Quit",
		)
	case ViewAccounts:
		return m.accountsView.View()
	case ViewUpcoming:
		return m.upcomingView.View()
	case ViewTransactions:
		return m.transactionsView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
