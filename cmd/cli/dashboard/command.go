// Package dashboard provides the interactive terminal overview command.
package dashboard

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dashboardview "github.com/tyemirov/promgr/internal/dashboard"
	"github.com/tyemirov/promgr/internal/registry"
	"github.com/tyemirov/promgr/internal/taskcfg"
)

const (
	dashboardCommandUseConstant         = "dashboard"
	dashboardCommandShortDescription    = "Show an interactive overview of registered projects"
	dashboardCommandLongDescription     = "dashboard lists every registered project with the tasks its manifest declares. Navigate with the arrow keys and press q to quit."
	skipDashboardRunEnvironmentVariable = "PROMGR_SKIP_DASHBOARD_RUN"
	skipDashboardRunEnabledValue        = "true"
	loggerProviderMissingMessage        = "logger provider not configured"
	registryProviderMissingMessage      = "registry provider not configured"
	manifestUnreadableLogMessage        = "manifest unreadable"
	projectNameLogFieldConstant         = "project"
)

// Builder validation sentinels.
var (
	ErrLoggerProviderNotConfigured   = errors.New(loggerProviderMissingMessage)
	ErrRegistryProviderNotConfigured = errors.New(registryProviderMissingMessage)
)

// CommandBuilder assembles the dashboard command.
type CommandBuilder struct {
	LoggerProvider   func() *zap.Logger
	RegistryProvider func() (*registry.Store, error)
}

// Build assembles the dashboard command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.RegistryProvider == nil {
		return nil, ErrRegistryProviderNotConfigured
	}

	return &cobra.Command{
		Use:           dashboardCommandUseConstant,
		Short:         dashboardCommandShortDescription,
		Long:          dashboardCommandLongDescription,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			registryStore, registryError := builder.RegistryProvider()
			if registryError != nil {
				return registryError
			}

			projects, listError := registryStore.ListProjects()
			if listError != nil {
				return listError
			}

			projectSummaries := builder.collectProjectSummaries(registryStore, projects)
			dashboardModel := dashboardview.NewModel(projectSummaries, nil)

			if os.Getenv(skipDashboardRunEnvironmentVariable) == skipDashboardRunEnabledValue {
				fmt.Fprintln(command.OutOrStdout(), dashboardModel.View())
				return nil
			}

			program := tea.NewProgram(dashboardModel, tea.WithOutput(command.OutOrStdout()))
			_, runError := program.Run()
			return runError
		},
	}, nil
}

// collectProjectSummaries reads every registered project's manifest. A project
// whose manifest is missing or malformed still appears in the overview, just
// without tasks.
func (builder *CommandBuilder) collectProjectSummaries(registryStore *registry.Store, projects []registry.Project) []dashboardview.ProjectSummary {
	manifestParser := taskcfg.NewManifestParser(registryStore)
	projectSummaries := make([]dashboardview.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		summary := dashboardview.ProjectSummary{Name: project.Name, RootPath: project.RootPath}
		projectConfiguration, parseError := manifestParser.LoadProjectConfiguration(project.RootPath)
		if parseError != nil {
			builder.LoggerProvider().Warn(manifestUnreadableLogMessage,
				zap.String(projectNameLogFieldConstant, project.Name),
				zap.Error(parseError),
			)
		} else {
			summary.TaskNames = projectConfiguration.TaskNames()
		}
		projectSummaries = append(projectSummaries, summary)
	}
	return projectSummaries
}
