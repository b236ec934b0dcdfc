// Package project provides the registry maintenance commands for projects.
package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/promgr/internal/registry"
)

const (
	namespaceUseConstant                 = "project"
	namespaceShortDescriptionConstant    = "Project registry commands"
	addCommandUseConstant                = "add <name> <root>"
	addCommandShortDescriptionConstant   = "Register a project root"
	removeCommandUseConstant             = "remove <name>"
	removeCommandShortDescription        = "Unregister a project"
	listCommandUseConstant               = "list"
	listCommandShortDescriptionConstant  = "List registered projects"
	venvFlagNameConstant                 = "venv"
	venvFlagUsageConstant                = "Path to the project's virtual environment"
	descriptionFlagNameConstant          = "description"
	descriptionFlagUsageConstant         = "Short project description"
	tagFlagNameConstant                  = "tag"
	tagFlagUsageConstant                 = "Project tag (repeatable)"
	projectAddedTemplateConstant         = "registered project %q at %s\n"
	projectRemovedTemplateConstant       = "removed project %q\n"
	projectListRowTemplateConstant       = "%s\t%s\t%s\n"
	emptyRegistryMessageConstant         = "no projects registered"
	registryProviderMissingMessage       = "registry provider not configured"
	loggerProviderMissingMessageConstant = "logger provider not configured"
	projectAddedLogMessageConstant       = "project registered"
	projectRemovedLogMessageConstant     = "project removed"
	projectNameLogFieldConstant          = "project"
)

// Builder validation sentinels.
var (
	ErrRegistryProviderNotConfigured = errors.New(registryProviderMissingMessage)
	ErrLoggerProviderNotConfigured   = errors.New(loggerProviderMissingMessageConstant)
)

// CommandBuilder assembles the project namespace command.
type CommandBuilder struct {
	LoggerProvider   func() *zap.Logger
	RegistryProvider func() (*registry.Store, error)
}

// Build assembles the project namespace with its subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, ErrLoggerProviderNotConfigured
	}
	if builder.RegistryProvider == nil {
		return nil, ErrRegistryProviderNotConfigured
	}

	namespaceCommand := &cobra.Command{
		Use:           namespaceUseConstant,
		Short:         namespaceShortDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	namespaceCommand.AddCommand(builder.buildAddCommand())
	namespaceCommand.AddCommand(builder.buildRemoveCommand())
	namespaceCommand.AddCommand(builder.buildListCommand())
	return namespaceCommand, nil
}

func (builder *CommandBuilder) buildAddCommand() *cobra.Command {
	var virtualEnvironmentPath string
	var projectDescription string
	var projectTags []string

	addCommand := &cobra.Command{
		Use:           addCommandUseConstant,
		Short:         addCommandShortDescriptionConstant,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			registryStore, registryError := builder.RegistryProvider()
			if registryError != nil {
				return registryError
			}

			absoluteRootPath, pathError := filepath.Abs(arguments[1])
			if pathError != nil {
				return pathError
			}

			project := registry.Project{
				Name:                   arguments[0],
				RootPath:               absoluteRootPath,
				VirtualEnvironmentPath: virtualEnvironmentPath,
				Description:            projectDescription,
				Tags:                   projectTags,
			}
			if addError := registryStore.AddProject(project); addError != nil {
				return addError
			}

			builder.LoggerProvider().Info(projectAddedLogMessageConstant, zap.String(projectNameLogFieldConstant, project.Name))
			fmt.Fprintf(command.OutOrStdout(), projectAddedTemplateConstant, project.Name, absoluteRootPath)
			return nil
		},
	}
	addCommand.Flags().StringVar(&virtualEnvironmentPath, venvFlagNameConstant, "", venvFlagUsageConstant)
	addCommand.Flags().StringVar(&projectDescription, descriptionFlagNameConstant, "", descriptionFlagUsageConstant)
	addCommand.Flags().StringSliceVar(&projectTags, tagFlagNameConstant, nil, tagFlagUsageConstant)
	return addCommand
}

func (builder *CommandBuilder) buildRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:           removeCommandUseConstant,
		Short:         removeCommandShortDescription,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			registryStore, registryError := builder.RegistryProvider()
			if registryError != nil {
				return registryError
			}
			if removeError := registryStore.RemoveProject(arguments[0]); removeError != nil {
				return removeError
			}
			builder.LoggerProvider().Info(projectRemovedLogMessageConstant, zap.String(projectNameLogFieldConstant, arguments[0]))
			fmt.Fprintf(command.OutOrStdout(), projectRemovedTemplateConstant, arguments[0])
			return nil
		},
	}
}

func (builder *CommandBuilder) buildListCommand() *cobra.Command {
	return &cobra.Command{
		Use:           listCommandUseConstant,
		Short:         listCommandShortDescriptionConstant,
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
			if len(projects) == 0 {
				fmt.Fprintln(command.OutOrStdout(), emptyRegistryMessageConstant)
				return nil
			}
			for _, project := range projects {
				fmt.Fprintf(command.OutOrStdout(), projectListRowTemplateConstant, project.Name, project.RootPath, project.Description)
			}
			return nil
		},
	}
}
