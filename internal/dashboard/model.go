// Package dashboard renders a read-only terminal overview of registered
// projects, their tasks, and recent run outcomes.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tyemirov/promgr/internal/runner"
)

const (
	quitKeyConstant                = "q"
	interruptKeyConstant           = "ctrl+c"
	projectColumnTitleConstant     = "Project"
	pathColumnTitleConstant        = "Path"
	tasksColumnTitleConstant       = "Tasks"
	projectColumnWidthConstant     = 20
	pathColumnWidthConstant        = 40
	tasksColumnWidthConstant       = 30
	projectTableHeightConstant     = 10
	headerTitleConstant            = "promgr projects"
	noRecentRunsMessageConstant    = "no runs recorded yet"
	footerHelpTextConstant         = "[q] Quit  [Up/Down] Navigate"
	recentRunsSectionTitleConstant = "Recent runs:"
	runOutcomeSuccessConstant      = "ok"
	runOutcomeTimeoutConstant      = "timeout"
	runOutcomeFailureTemplate      = "exit %d"
)

var (
	frameStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5F5FD7")).
			PaddingLeft(1).
			PaddingRight(1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// ProjectSummary is one dashboard row.
type ProjectSummary struct {
	Name      string
	RootPath  string
	TaskNames []string
}

// Model is the bubbletea model behind `promgr dashboard`. It presents data
// supplied at construction time and never spawns tasks itself.
type Model struct {
	projectTable  table.Model
	recentResults []runner.RunResult
}

// NewModel builds the dashboard model from registered projects and the most
// recent run results.
func NewModel(projectSummaries []ProjectSummary, recentResults []runner.RunResult) Model {
	tableColumns := []table.Column{
		{Title: projectColumnTitleConstant, Width: projectColumnWidthConstant},
		{Title: pathColumnTitleConstant, Width: pathColumnWidthConstant},
		{Title: tasksColumnTitleConstant, Width: tasksColumnWidthConstant},
	}

	tableRows := make([]table.Row, 0, len(projectSummaries))
	for _, projectSummary := range projectSummaries {
		tableRows = append(tableRows, table.Row{
			projectSummary.Name,
			projectSummary.RootPath,
			strings.Join(projectSummary.TaskNames, ", "),
		})
	}

	projectTable := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(projectTableHeightConstant),
	)

	tableStyles := table.DefaultStyles()
	tableStyles.Header = tableStyles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	tableStyles.Selected = tableStyles.Selected.Foreground(lipgloss.Color("229"))
	projectTable.SetStyles(tableStyles)

	return Model{projectTable: projectTable, recentResults: recentResults}
}

// Init satisfies tea.Model.
func (dashboardModel Model) Init() tea.Cmd { return nil }

// Update handles navigation and quitting.
func (dashboardModel Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		switch typedMessage.String() {
		case quitKeyConstant, interruptKeyConstant:
			return dashboardModel, tea.Quit
		}
	}

	var command tea.Cmd
	dashboardModel.projectTable, command = dashboardModel.projectTable.Update(message)
	return dashboardModel, command
}

// View renders the project table with recent run outcomes underneath.
func (dashboardModel Model) View() string {
	header := headerStyle.Render(headerTitleConstant)

	recentRunsView := noRecentRunsMessageConstant
	if len(dashboardModel.recentResults) > 0 {
		renderedResults := make([]string, 0, len(dashboardModel.recentResults))
		for _, runResult := range dashboardModel.recentResults {
			renderedResults = append(renderedResults, renderRunResult(runResult))
		}
		recentRunsView = recentRunsSectionTitleConstant + "\n" + strings.Join(renderedResults, "\n")
	}

	return frameStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			dashboardModel.projectTable.View(),
			"",
			recentRunsView,
			"",
			footerHelpTextConstant,
		),
	) + "\n"
}

func renderRunResult(runResult runner.RunResult) string {
	outcome := successStyle.Render(runOutcomeSuccessConstant)
	switch {
	case runResult.TimedOut:
		outcome = failureStyle.Render(runOutcomeTimeoutConstant)
	case runResult.ExitCode != 0:
		outcome = failureStyle.Render(fmt.Sprintf(runOutcomeFailureTemplate, runResult.ExitCode))
	}
	return fmt.Sprintf("- %s  %s  %s", runResult.TaskName, outcome, runResult.Duration.Round(time.Millisecond))
}
