package registry_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/promgr/internal/registry"
)

const (
	testProjectNameConstant          = "sample"
	testProjectRootPathConstant      = "/home/worker/code/sample"
	testProjectVenvPathConstant      = "/home/worker/code/sample/.venv"
	testSnippetNameConstant          = "pytest-fast"
	testSnippetContentConstant       = "pytest -q -x"
	testSecondSnippetNameConstant    = "lint"
	testSecondSnippetContentConstant = "ruff check ."
)

func newTestStore(testInstance *testing.T) (*registry.Store, string, *time.Time) {
	registryPath := filepath.Join(testInstance.TempDir(), registry.PromgrHomeDirectoryName, registry.RegistryFileName)
	currentTime := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	store := registry.NewStore(registryPath, func() time.Time { return currentTime })
	return store, registryPath, &currentTime
}

func TestProjectLifecycle(testInstance *testing.T) {
	store, registryPath, currentTime := newTestStore(testInstance)

	addError := store.AddProject(registry.Project{
		Name:                   testProjectNameConstant,
		RootPath:               testProjectRootPathConstant,
		VirtualEnvironmentPath: testProjectVenvPathConstant,
	})
	require.NoError(testInstance, addError)
	require.FileExists(testInstance, registryPath)

	createdAt := *currentTime
	*currentTime = currentTime.Add(time.Hour)

	project, getError := store.GetProject(testProjectNameConstant)
	require.NoError(testInstance, getError)
	require.Equal(testInstance, testProjectRootPathConstant, project.RootPath)
	require.Equal(testInstance, testProjectVenvPathConstant, project.VirtualEnvironmentPath)
	require.Equal(testInstance, createdAt, project.CreatedAt)
	require.Equal(testInstance, *currentTime, project.LastAccessedAt)

	projects, listError := store.ListProjects()
	require.NoError(testInstance, listError)
	require.Len(testInstance, projects, 1)

	require.NoError(testInstance, store.RemoveProject(testProjectNameConstant))
	_, getAfterRemoveError := store.GetProject(testProjectNameConstant)
	var notFoundError registry.RecordNotFoundError
	require.ErrorAs(testInstance, getAfterRemoveError, &notFoundError)
	require.Equal(testInstance, registry.RecordKindProject, notFoundError.Kind)
}

func TestAddProjectRejectsDuplicatesAndBlankNames(testInstance *testing.T) {
	store, _, _ := newTestStore(testInstance)

	require.NoError(testInstance, store.AddProject(registry.Project{Name: testProjectNameConstant, RootPath: testProjectRootPathConstant}))

	duplicateError := store.AddProject(registry.Project{Name: testProjectNameConstant, RootPath: testProjectRootPathConstant})
	var existsError registry.RecordAlreadyExistsError
	require.ErrorAs(testInstance, duplicateError, &existsError)
	require.Equal(testInstance, registry.RecordKindProject, existsError.Kind)

	blankError := store.AddProject(registry.Project{Name: "   "})
	var invalidError registry.InvalidRecordError
	require.ErrorAs(testInstance, blankError, &invalidError)
}

func TestSnippetUsageCounting(testInstance *testing.T) {
	store, _, _ := newTestStore(testInstance)

	require.NoError(testInstance, store.AddSnippet(registry.Snippet{Name: testSnippetNameConstant, Content: testSnippetContentConstant}))

	firstLookup, firstError := store.GetSnippet(testSnippetNameConstant)
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, uint64(1), firstLookup.UsageCount)

	secondLookup, secondError := store.GetSnippet(testSnippetNameConstant)
	require.NoError(testInstance, secondError)
	require.Equal(testInstance, uint64(2), secondLookup.UsageCount)
}

func TestListSnippetsSortsByName(testInstance *testing.T) {
	store, _, _ := newTestStore(testInstance)

	require.NoError(testInstance, store.AddSnippet(registry.Snippet{Name: testSnippetNameConstant, Content: testSnippetContentConstant}))
	require.NoError(testInstance, store.AddSnippet(registry.Snippet{Name: testSecondSnippetNameConstant, Content: testSecondSnippetContentConstant}))

	snippets, listError := store.ListSnippets()
	require.NoError(testInstance, listError)
	require.Len(testInstance, snippets, 2)
	require.Equal(testInstance, testSecondSnippetNameConstant, snippets[0].Name)
	require.Equal(testInstance, testSnippetNameConstant, snippets[1].Name)
}

func TestExpandSnippets(testInstance *testing.T) {
	store, _, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.AddSnippet(registry.Snippet{Name: testSnippetNameConstant, Content: testSnippetContentConstant}))

	expanded := store.ExpandSnippets("{snip:pytest-fast} --cov")
	require.Equal(testInstance, testSnippetContentConstant+" --cov", expanded)

	unknown := store.ExpandSnippets("{snip:missing} --cov")
	require.Equal(testInstance, "{snip:missing} --cov", unknown)
}

func TestStoreSurvivesReload(testInstance *testing.T) {
	store, registryPath, _ := newTestStore(testInstance)
	require.NoError(testInstance, store.AddProject(registry.Project{Name: testProjectNameConstant, RootPath: testProjectRootPathConstant}))

	reloadedStore := registry.NewStore(registryPath, nil)
	projects, listError := reloadedStore.ListProjects()
	require.NoError(testInstance, listError)
	require.Len(testInstance, projects, 1)
	require.Equal(testInstance, testProjectNameConstant, projects[0].Name)
}

func TestStoreRejectsCorruptDocument(testInstance *testing.T) {
	registryPath := filepath.Join(testInstance.TempDir(), registry.RegistryFileName)
	require.NoError(testInstance, os.WriteFile(registryPath, []byte("projects: [not-a-map"), 0o644))

	store := registry.NewStore(registryPath, nil)
	_, listError := store.ListProjects()
	require.Error(testInstance, listError)
	require.ErrorContains(testInstance, listError, "read registry")
}
