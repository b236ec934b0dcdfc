// Package registry persists the catalog of known projects and reusable
// command snippets under the promgr home directory.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// PromgrHomeDirectoryName is the dot directory promgr keeps under $HOME.
	PromgrHomeDirectoryName = ".promgr"
	// RegistryFileName is the catalog document inside the promgr home.
	RegistryFileName = "registry.yaml"

	registryTempFilePatternConstant      = "registry-*.yaml"
	registryFilePermissionsConstant      = 0o644
	registryDirectoryPermissions         = 0o755
	recordNotFoundTemplateConstant       = "%s %q not found"
	recordAlreadyExistsTemplateConstant  = "%s %q already registered"
	registryReadFailureTemplateConstant  = "read registry %s: %w"
	registryWriteFailureTemplateConstant = "write registry %s: %w"
	blankRecordNameMessageConstant       = "record name must not be blank"
)

// RecordKind distinguishes the two catalog record types.
type RecordKind string

// Catalog record kinds.
const (
	RecordKindProject RecordKind = "project"
	RecordKindSnippet RecordKind = "snippet"
)

// snippetReferencePattern matches {snip:name} references in command text.
var snippetReferencePattern = regexp.MustCompile(`\{snip:([A-Za-z0-9._-]+)\}`)

// RecordNotFoundError reports a lookup for an unregistered record.
type RecordNotFoundError struct {
	Kind RecordKind
	Name string
}

// Error describes the missing record.
func (notFoundError RecordNotFoundError) Error() string {
	return fmt.Sprintf(recordNotFoundTemplateConstant, notFoundError.Kind, notFoundError.Name)
}

// RecordAlreadyExistsError reports a duplicate registration.
type RecordAlreadyExistsError struct {
	Kind RecordKind
	Name string
}

// Error describes the duplicate registration.
func (existsError RecordAlreadyExistsError) Error() string {
	return fmt.Sprintf(recordAlreadyExistsTemplateConstant, existsError.Kind, existsError.Name)
}

// InvalidRecordError reports a malformed record passed to the store.
type InvalidRecordError struct {
	Message string
}

// Error describes the malformed record.
func (invalidError InvalidRecordError) Error() string {
	return invalidError.Message
}

// Project is one registered project root.
type Project struct {
	Name                   string    `yaml:"name"`
	RootPath               string    `yaml:"root_path"`
	VirtualEnvironmentPath string    `yaml:"virtual_environment_path,omitempty"`
	Description            string    `yaml:"description,omitempty"`
	Tags                   []string  `yaml:"tags,omitempty"`
	CreatedAt              time.Time `yaml:"created_at"`
	LastAccessedAt         time.Time `yaml:"last_accessed_at"`
}

// Snippet is one stored command fragment.
type Snippet struct {
	Name       string    `yaml:"name"`
	Content    string    `yaml:"content"`
	Tags       []string  `yaml:"tags,omitempty"`
	CreatedAt  time.Time `yaml:"created_at"`
	UsageCount uint64    `yaml:"usage_count"`
}

type registryDocument struct {
	Projects map[string]Project `yaml:"projects"`
	Snippets map[string]Snippet `yaml:"snippets"`
}

// ClockFunction supplies timestamps; defaults to time.Now.
type ClockFunction func() time.Time

// Store reads and writes the registry document. Saves are atomic renames so
// a crash never leaves a truncated catalog behind.
type Store struct {
	registryFilePath string
	clock            ClockFunction
}

// NewStore constructs a store over the given registry file. A nil clock
// falls back to time.Now.
func NewStore(registryFilePath string, clock ClockFunction) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{registryFilePath: registryFilePath, clock: clock}
}

// DefaultRegistryFilePath resolves ~/.promgr/registry.yaml.
func DefaultRegistryFilePath() (string, error) {
	homeDirectory, homeError := os.UserHomeDir()
	if homeError != nil {
		return "", homeError
	}
	return filepath.Join(homeDirectory, PromgrHomeDirectoryName, RegistryFileName), nil
}

// AddProject registers a project. The store stamps CreatedAt and
// LastAccessedAt.
func (store *Store) AddProject(project Project) error {
	if len(strings.TrimSpace(project.Name)) == 0 {
		return InvalidRecordError{Message: blankRecordNameMessageConstant}
	}

	document, loadError := store.loadDocument()
	if loadError != nil {
		return loadError
	}
	if _, exists := document.Projects[project.Name]; exists {
		return RecordAlreadyExistsError{Kind: RecordKindProject, Name: project.Name}
	}

	now := store.clock()
	project.CreatedAt = now
	project.LastAccessedAt = now
	document.Projects[project.Name] = project
	return store.saveDocument(document)
}

// GetProject returns the named project and stamps its access time.
func (store *Store) GetProject(projectName string) (Project, error) {
	document, loadError := store.loadDocument()
	if loadError != nil {
		return Project{}, loadError
	}

	project, found := document.Projects[projectName]
	if !found {
		return Project{}, RecordNotFoundError{Kind: RecordKindProject, Name: projectName}
	}

	project.LastAccessedAt = store.clock()
	document.Projects[projectName] = project
	if saveError := store.saveDocument(document); saveError != nil {
		return Project{}, saveError
	}
	return project, nil
}

// ListProjects returns all registered projects sorted by name.
func (store *Store) ListProjects() ([]Project, error) {
	document, loadError := store.loadDocument()
	if loadError != nil {
		return nil, loadError
	}

	projects := make([]Project, 0, len(document.Projects))
	for _, project := range document.Projects {
		projects = append(projects, project)
	}
	sort.Slice(projects, func(firstIndex, secondIndex int) bool {
		return projects[firstIndex].Name < projects[secondIndex].Name
	})
	return projects, nil
}

// RemoveProject unregisters the named project.
func (store *Store) RemoveProject(projectName string) error {
	document, loadError := store.loadDocument()
	if loadError != nil {
		return loadError
	}
	if _, found := document.Projects[projectName]; !found {
		return RecordNotFoundError{Kind: RecordKindProject, Name: projectName}
	}
	delete(document.Projects, projectName)
	return store.saveDocument(document)
}

// AddSnippet stores a command fragment. The store stamps CreatedAt.
func (store *Store) AddSnippet(snippet Snippet) error {
	if len(strings.TrimSpace(snippet.Name)) == 0 {
		return InvalidRecordError{Message: blankRecordNameMessageConstant}
	}

	document, loadError := store.loadDocument()
	if loadError != nil {
		return loadError
	}
	if _, exists := document.Snippets[snippet.Name]; exists {
		return RecordAlreadyExistsError{Kind: RecordKindSnippet, Name: snippet.Name}
	}

	snippet.CreatedAt = store.clock()
	snippet.UsageCount = 0
	document.Snippets[snippet.Name] = snippet
	return store.saveDocument(document)
}

// GetSnippet returns the named snippet and bumps its usage counter.
func (store *Store) GetSnippet(snippetName string) (Snippet, error) {
	document, loadError := store.loadDocument()
	if loadError != nil {
		return Snippet{}, loadError
	}

	snippet, found := document.Snippets[snippetName]
	if !found {
		return Snippet{}, RecordNotFoundError{Kind: RecordKindSnippet, Name: snippetName}
	}

	snippet.UsageCount++
	document.Snippets[snippetName] = snippet
	if saveError := store.saveDocument(document); saveError != nil {
		return Snippet{}, saveError
	}
	return snippet, nil
}

// ListSnippets returns all stored snippets sorted by name.
func (store *Store) ListSnippets() ([]Snippet, error) {
	document, loadError := store.loadDocument()
	if loadError != nil {
		return nil, loadError
	}

	snippets := make([]Snippet, 0, len(document.Snippets))
	for _, snippet := range document.Snippets {
		snippets = append(snippets, snippet)
	}
	sort.Slice(snippets, func(firstIndex, secondIndex int) bool {
		return snippets[firstIndex].Name < snippets[secondIndex].Name
	})
	return snippets, nil
}

// RemoveSnippet deletes the named snippet.
func (store *Store) RemoveSnippet(snippetName string) error {
	document, loadError := store.loadDocument()
	if loadError != nil {
		return loadError
	}
	if _, found := document.Snippets[snippetName]; !found {
		return RecordNotFoundError{Kind: RecordKindSnippet, Name: snippetName}
	}
	delete(document.Snippets, snippetName)
	return store.saveDocument(document)
}

// ExpandSnippets replaces {snip:name} references with stored snippet
// content. Unknown references are left intact.
func (store *Store) ExpandSnippets(commandText string) string {
	return snippetReferencePattern.ReplaceAllStringFunc(commandText, func(reference string) string {
		snippetName := snippetReferencePattern.FindStringSubmatch(reference)[1]
		snippet, lookupError := store.GetSnippet(snippetName)
		if lookupError != nil {
			return reference
		}
		return snippet.Content
	})
}

func (store *Store) loadDocument() (registryDocument, error) {
	document := registryDocument{
		Projects: make(map[string]Project),
		Snippets: make(map[string]Snippet),
	}

	documentContent, readError := os.ReadFile(store.registryFilePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return document, nil
		}
		return document, fmt.Errorf(registryReadFailureTemplateConstant, store.registryFilePath, readError)
	}

	if unmarshalError := yaml.Unmarshal(documentContent, &document); unmarshalError != nil {
		return document, fmt.Errorf(registryReadFailureTemplateConstant, store.registryFilePath, unmarshalError)
	}
	if document.Projects == nil {
		document.Projects = make(map[string]Project)
	}
	if document.Snippets == nil {
		document.Snippets = make(map[string]Snippet)
	}
	return document, nil
}

func (store *Store) saveDocument(document registryDocument) error {
	registryDirectory := filepath.Dir(store.registryFilePath)
	if directoryError := os.MkdirAll(registryDirectory, registryDirectoryPermissions); directoryError != nil {
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, directoryError)
	}

	documentContent, marshalError := yaml.Marshal(document)
	if marshalError != nil {
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, marshalError)
	}

	temporaryFile, temporaryError := os.CreateTemp(registryDirectory, registryTempFilePatternConstant)
	if temporaryError != nil {
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, temporaryError)
	}
	temporaryPath := temporaryFile.Name()

	if _, writeError := temporaryFile.Write(documentContent); writeError != nil {
		_ = temporaryFile.Close()
		_ = os.Remove(temporaryPath)
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, writeError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, closeError)
	}
	if permissionsError := os.Chmod(temporaryPath, registryFilePermissionsConstant); permissionsError != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, permissionsError)
	}
	if renameError := os.Rename(temporaryPath, store.registryFilePath); renameError != nil {
		_ = os.Remove(temporaryPath)
		return fmt.Errorf(registryWriteFailureTemplateConstant, store.registryFilePath, renameError)
	}
	return nil
}
