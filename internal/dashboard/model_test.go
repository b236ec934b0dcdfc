package dashboard_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/tyemirov/promgr/internal/dashboard"
	"github.com/tyemirov/promgr/internal/runner"
)

const (
	testProjectNameConstant  = "weatherbot"
	testProjectPathConstant  = "/home/worker/code/weatherbot"
	testPassingTaskConstant  = "lint"
	testTimedOutTaskConstant = "test"
)

func newTestModel() dashboard.Model {
	return dashboard.NewModel(
		[]dashboard.ProjectSummary{
			{Name: testProjectNameConstant, RootPath: testProjectPathConstant, TaskNames: []string{"lint", "test", "build"}},
		},
		[]runner.RunResult{
			{TaskName: testPassingTaskConstant, ExitCode: 0, Duration: 1200 * time.Millisecond},
			{TaskName: testTimedOutTaskConstant, ExitCode: 124, TimedOut: true, Duration: 30 * time.Second},
		},
	)
}

func TestViewListsProjectsAndRunOutcomes(testInstance *testing.T) {
	rendered := newTestModel().View()

	require.Contains(testInstance, rendered, testProjectNameConstant)
	require.Contains(testInstance, rendered, testPassingTaskConstant)
	require.Contains(testInstance, rendered, "timeout")
	require.Contains(testInstance, rendered, "[q] Quit")
}

func TestViewWithoutRunResults(testInstance *testing.T) {
	rendered := dashboard.NewModel(nil, nil).View()
	require.Contains(testInstance, rendered, "no runs recorded yet")
}

func TestQuitKeysStopTheProgram(testInstance *testing.T) {
	for _, quitKey := range []string{"q", "ctrl+c"} {
		testInstance.Run(quitKey, func(testInstance *testing.T) {
			model := newTestModel()
			var keyMessage tea.KeyMsg
			if quitKey == "q" {
				keyMessage = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
			} else {
				keyMessage = tea.KeyMsg{Type: tea.KeyCtrlC}
			}

			_, command := model.Update(keyMessage)
			require.NotNil(testInstance, command)
			require.Equal(testInstance, tea.Quit(), command())
		})
	}
}
