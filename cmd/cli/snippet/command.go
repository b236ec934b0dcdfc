// Package snippet provides the registry maintenance commands for command
// snippets.
package snippet

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/promgr/internal/registry"
)

const (
	namespaceUseConstant                = "snippet"
	namespaceShortDescriptionConstant   = "Command snippet registry commands"
	addCommandUseConstant               = "add <name> <content>"
	addCommandShortDescriptionConstant  = "Store a reusable command fragment"
	removeCommandUseConstant            = "remove <name>"
	removeCommandShortDescription       = "Delete a stored snippet"
	listCommandUseConstant              = "list"
	listCommandShortDescriptionConstant = "List stored snippets"
	tagFlagNameConstant                 = "tag"
	tagFlagUsageConstant                = "Snippet tag (repeatable)"
	snippetAddedTemplateConstant        = "stored snippet %q\n"
	snippetRemovedTemplateConstant      = "removed snippet %q\n"
	snippetListRowTemplateConstant      = "%s\t%s\t(used %d times)\n"
	emptyStoreMessageConstant           = "no snippets stored"
	registryProviderMissingMessage      = "registry provider not configured"
	loggerProviderMissingMessage        = "logger provider not configured"
	snippetAddedLogMessageConstant      = "snippet stored"
	snippetRemovedLogMessageConstant    = "snippet removed"
	snippetNameLogFieldConstant         = "snippet"
)

// Builder validation sentinels.
var (
	ErrRegistryProviderNotConfigured = errors.New(registryProviderMissingMessage)
	ErrLoggerProviderNotConfigured   = errors.New(loggerProviderMissingMessage)
)

// CommandBuilder assembles the snippet namespace command.
type CommandBuilder struct {
	LoggerProvider   func() *zap.Logger
	RegistryProvider func() (*registry.Store, error)
}

// Build assembles the snippet namespace with its subcommands.
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
	var snippetTags []string

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
			snippet := registry.Snippet{Name: arguments[0], Content: arguments[1], Tags: snippetTags}
			if addError := registryStore.AddSnippet(snippet); addError != nil {
				return addError
			}
			builder.LoggerProvider().Info(snippetAddedLogMessageConstant, zap.String(snippetNameLogFieldConstant, snippet.Name))
			fmt.Fprintf(command.OutOrStdout(), snippetAddedTemplateConstant, snippet.Name)
			return nil
		},
	}
	addCommand.Flags().StringSliceVar(&snippetTags, tagFlagNameConstant, nil, tagFlagUsageConstant)
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
			if removeError := registryStore.RemoveSnippet(arguments[0]); removeError != nil {
				return removeError
			}
			builder.LoggerProvider().Info(snippetRemovedLogMessageConstant, zap.String(snippetNameLogFieldConstant, arguments[0]))
			fmt.Fprintf(command.OutOrStdout(), snippetRemovedTemplateConstant, arguments[0])
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
			snippets, listError := registryStore.ListSnippets()
			if listError != nil {
				return listError
			}
			if len(snippets) == 0 {
				fmt.Fprintln(command.OutOrStdout(), emptyStoreMessageConstant)
				return nil
			}
			for _, snippet := range snippets {
				fmt.Fprintf(command.OutOrStdout(), snippetListRowTemplateConstant, snippet.Name, snippet.Content, snippet.UsageCount)
			}
			return nil
		},
	}
}
