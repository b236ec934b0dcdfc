package taskcfg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// ManifestFileName is the task manifest expected at a project root.
	ManifestFileName = "promgr.toml"

	manifestReadFailureTemplateConstant   = "read manifest %s: %w"
	manifestDecodeFailureTemplateConstant = "decode manifest %s: %w"
	taskValidationTemplateConstant        = "task %q: %s"
	missingCommandMessageConstant         = "declare exactly one of command or exec"
	conflictingCommandMessageConstant     = "command and exec are mutually exclusive"
	emptyExecMessageConstant              = "exec requires at least the executable name"
	selfDependencyMessageConstant         = "task depends on itself"
	blankDependencyMessageConstant        = "blank dependency name"
	noManifestMessageConstant             = "manifest not found"
)

// ErrManifestNotFound indicates the project root carries no manifest file.
var ErrManifestNotFound = errors.New(noManifestMessageConstant)

// TaskValidationError reports a malformed task declaration.
type TaskValidationError struct {
	TaskName string
	Message  string
}

// Error describes the validation failure.
func (validationError TaskValidationError) Error() string {
	return fmt.Sprintf(taskValidationTemplateConstant, validationError.TaskName, validationError.Message)
}

// SnippetExpander substitutes stored snippet references inside command text.
// A nil expander leaves commands untouched.
type SnippetExpander interface {
	ExpandSnippets(commandText string) string
}

// ManifestParser loads project manifests.
type ManifestParser struct {
	snippetExpander SnippetExpander
}

// NewManifestParser constructs a parser. The expander may be nil.
func NewManifestParser(snippetExpander SnippetExpander) *ManifestParser {
	return &ManifestParser{snippetExpander: snippetExpander}
}

type manifestTaskDocument struct {
	Command           string   `toml:"command"`
	Exec              []string `toml:"exec"`
	Description       string   `toml:"description"`
	Watch             []string `toml:"watch"`
	DependsOn         []string `toml:"depends_on"`
	FailOnDirtyBranch bool     `toml:"fail_on_dirty_branch"`
	TimeoutSeconds    uint     `toml:"timeout_seconds"`
}

type manifestProjectDocument struct {
	Name string `toml:"name"`
}

type manifestDocument struct {
	Project manifestProjectDocument         `toml:"project"`
	Tasks   map[string]manifestTaskDocument `toml:"tasks"`
}

// LoadProjectConfiguration reads and validates the manifest at the project root.
func (parser *ManifestParser) LoadProjectConfiguration(projectRootPath string) (*ProjectConfiguration, error) {
	manifestPath := filepath.Join(projectRootPath, ManifestFileName)
	manifestContent, readError := os.ReadFile(manifestPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return nil, fmt.Errorf("%s: %w", manifestPath, ErrManifestNotFound)
		}
		return nil, fmt.Errorf(manifestReadFailureTemplateConstant, manifestPath, readError)
	}

	configuration, parseError := parser.ParseProjectConfiguration(manifestContent, projectRootPath)
	if parseError != nil {
		var decodeError *toml.DecodeError
		if errors.As(parseError, &decodeError) {
			return nil, fmt.Errorf(manifestDecodeFailureTemplateConstant, manifestPath, parseError)
		}
		return nil, parseError
	}
	return configuration, nil
}

// ParseProjectConfiguration decodes manifest content and validates every task.
func (parser *ManifestParser) ParseProjectConfiguration(manifestContent []byte, projectRootPath string) (*ProjectConfiguration, error) {
	var document manifestDocument
	if decodeError := toml.Unmarshal(manifestContent, &document); decodeError != nil {
		return nil, decodeError
	}

	projectName := strings.TrimSpace(document.Project.Name)
	if len(projectName) == 0 {
		projectName = filepath.Base(projectRootPath)
	}

	configuration := &ProjectConfiguration{
		ProjectName: projectName,
		RootPath:    projectRootPath,
		Tasks:       make(map[string]*TaskDefinition, len(document.Tasks)),
	}

	for taskName, taskDocument := range document.Tasks {
		definition, buildError := parser.buildTaskDefinition(taskName, taskDocument)
		if buildError != nil {
			return nil, buildError
		}
		configuration.Tasks[taskName] = definition
	}

	for taskName, definition := range configuration.Tasks {
		for _, dependencyName := range definition.DependsOn {
			trimmedDependency := strings.TrimSpace(dependencyName)
			if len(trimmedDependency) == 0 {
				return nil, TaskValidationError{TaskName: taskName, Message: blankDependencyMessageConstant}
			}
			if trimmedDependency == taskName {
				return nil, TaskValidationError{TaskName: taskName, Message: selfDependencyMessageConstant}
			}
		}
	}

	return configuration, nil
}

func (parser *ManifestParser) buildTaskDefinition(taskName string, document manifestTaskDocument) (*TaskDefinition, error) {
	hasShellCommand := len(strings.TrimSpace(document.Command)) > 0
	hasDirectCommand := document.Exec != nil

	switch {
	case hasShellCommand && hasDirectCommand:
		return nil, TaskValidationError{TaskName: taskName, Message: conflictingCommandMessageConstant}
	case !hasShellCommand && !hasDirectCommand:
		return nil, TaskValidationError{TaskName: taskName, Message: missingCommandMessageConstant}
	}

	commandSpecification := CommandSpec{}
	if hasShellCommand {
		commandSpecification.Executable = parser.expandSnippets(strings.TrimSpace(document.Command))
		commandSpecification.Shell = true
	} else {
		if len(document.Exec) == 0 || len(strings.TrimSpace(document.Exec[0])) == 0 {
			return nil, TaskValidationError{TaskName: taskName, Message: emptyExecMessageConstant}
		}
		commandSpecification.Executable = parser.expandSnippets(document.Exec[0])
		for _, argument := range document.Exec[1:] {
			commandSpecification.Arguments = append(commandSpecification.Arguments, parser.expandSnippets(argument))
		}
	}

	return &TaskDefinition{
		Name:              taskName,
		Command:           commandSpecification,
		Description:       document.Description,
		WatchDirectories:  append([]string(nil), document.Watch...),
		DependsOn:         append([]string(nil), document.DependsOn...),
		FailOnDirtyBranch: document.FailOnDirtyBranch,
		TimeoutSeconds:    document.TimeoutSeconds,
	}, nil
}

func (parser *ManifestParser) expandSnippets(commandText string) string {
	if parser.snippetExpander == nil {
		return commandText
	}
	return parser.snippetExpander.ExpandSnippets(commandText)
}
