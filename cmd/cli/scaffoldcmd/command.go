// Package scaffoldcmd provides the new command that creates projects from
// templates.
package scaffoldcmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/promgr/internal/registry"
	"github.com/tyemirov/promgr/internal/scaffold"
)

const (
	newCommandUseConstant              = "new <template> <name>"
	newCommandShortDescriptionConstant = "Create a project from a template"
	newCommandLongDescriptionConstant  = "new copies a template tree from the promgr templates directory into a fresh project directory, substituting the project name into paths and file contents."
	registerFlagNameConstant           = "register"
	registerFlagUsageConstant          = "Register the new project after scaffolding"
	directoryFlagNameConstant          = "directory"
	directoryFlagUsageConstant         = "Destination directory (defaults to ./<name>)"
	projectCreatedTemplateConstant     = "created project %q at %s\n"
	projectRegisteredTemplate          = "registered project %q\n"
	templatesDirectoryNameConstant     = "templates"
	loggerProviderMissingMessage       = "logger provider not configured"
	registryProviderMissingMessage     = "registry provider not configured"
	homeProviderMissingMessageConstant = "promgr home provider not configured"
	projectScaffoldedLogMessage        = "project scaffolded"
	templateLogFieldConstant           = "template"
	projectNameLogFieldConstant        = "project"
)

// Builder validation sentinels.
var (
	ErrLoggerProviderNotConfigured   = errors.New(loggerProviderMissingMessage)
	ErrRegistryProviderNotConfigured = errors.New(registryProviderMissingMessage)
	ErrHomeProviderNotConfigured     = errors.New(homeProviderMissingMessageConstant)
)

// CommandBuilder assembles the new command.
type CommandBuilder struct {
	LoggerProvider     func() *zap.Logger
	RegistryProvider   func() (*registry.Store, error)
	PromgrHomeProvider func() (string, error)
}

// Build assembles the new command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.RegistryProvider == nil {
		return nil, ErrRegistryProviderNotConfigured
	}
	if builder.PromgrHomeProvider == nil {
		return nil, ErrHomeProviderNotConfigured
	}

	var registerAfterScaffolding bool
	var destinationDirectory string

	newCommand := &cobra.Command{
		Use:           newCommandUseConstant,
		Short:         newCommandShortDescriptionConstant,
		Long:          newCommandLongDescriptionConstant,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			templateName := arguments[0]
			projectName := arguments[1]

			promgrHomePath, homeError := builder.PromgrHomeProvider()
			if homeError != nil {
				return homeError
			}
			templateDirectory := filepath.Join(promgrHomePath, templatesDirectoryNameConstant, templateName)

			destination := destinationDirectory
			if len(destination) == 0 {
				destination = projectName
			}
			absoluteDestination, pathError := filepath.Abs(destination)
			if pathError != nil {
				return pathError
			}

			if scaffoldError := scaffold.Scaffold(templateDirectory, projectName, absoluteDestination); scaffoldError != nil {
				return scaffoldError
			}

			builder.LoggerProvider().Info(projectScaffoldedLogMessage,
				zap.String(templateLogFieldConstant, templateName),
				zap.String(projectNameLogFieldConstant, projectName),
			)
			fmt.Fprintf(command.OutOrStdout(), projectCreatedTemplateConstant, projectName, absoluteDestination)

			if !registerAfterScaffolding {
				return nil
			}

			registryStore, registryError := builder.RegistryProvider()
			if registryError != nil {
				return registryError
			}
			if addError := registryStore.AddProject(registry.Project{Name: projectName, RootPath: absoluteDestination}); addError != nil {
				return addError
			}
			fmt.Fprintf(command.OutOrStdout(), projectRegisteredTemplate, projectName)
			return nil
		},
	}
	newCommand.Flags().BoolVar(&registerAfterScaffolding, registerFlagNameConstant, false, registerFlagUsageConstant)
	newCommand.Flags().StringVar(&destinationDirectory, directoryFlagNameConstant, "", directoryFlagUsageConstant)
	return newCommand, nil
}
