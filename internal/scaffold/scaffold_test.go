package scaffold_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/promgr/internal/scaffold"
)

const (
	testProjectNameConstant      = "weatherbot"
	testTemplateMainContent      = "print(\"starting {{name}}\")\n"
	testTemplateManifestContent  = "[project]\nname = \"{{name}}\"\n"
	testExecutableScriptContent  = "#!/bin/sh\necho {{name}}\n"
)

func writeTemplate(testInstance *testing.T) string {
	templateDirectory := testInstance.TempDir()

	packageDirectory := filepath.Join(templateDirectory, "src", "__name__")
	require.NoError(testInstance, os.MkdirAll(packageDirectory, 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(packageDirectory, "main.py"), []byte(testTemplateMainContent), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(templateDirectory, "promgr.toml"), []byte(testTemplateManifestContent), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(templateDirectory, "__name__.sh"), []byte(testExecutableScriptContent), 0o755))
	return templateDirectory
}

func TestScaffoldSubstitutesPathsAndContents(testInstance *testing.T) {
	templateDirectory := writeTemplate(testInstance)
	destination := filepath.Join(testInstance.TempDir(), testProjectNameConstant)

	require.NoError(testInstance, scaffold.Scaffold(templateDirectory, testProjectNameConstant, destination))

	renderedMainPath := filepath.Join(destination, "src", testProjectNameConstant, "main.py")
	renderedMain, readError := os.ReadFile(renderedMainPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "print(\"starting weatherbot\")\n", string(renderedMain))

	renderedManifest, manifestError := os.ReadFile(filepath.Join(destination, "promgr.toml"))
	require.NoError(testInstance, manifestError)
	require.Contains(testInstance, string(renderedManifest), "name = \"weatherbot\"")

	scriptInfo, statError := os.Stat(filepath.Join(destination, testProjectNameConstant+".sh"))
	require.NoError(testInstance, statError)
	require.Equal(testInstance, os.FileMode(0o755), scriptInfo.Mode().Perm())
}

func TestScaffoldRefusesNonEmptyDestination(testInstance *testing.T) {
	templateDirectory := writeTemplate(testInstance)
	destination := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(destination, "existing.txt"), []byte("keep"), 0o644))

	scaffoldError := scaffold.Scaffold(templateDirectory, testProjectNameConstant, destination)
	require.ErrorIs(testInstance, scaffoldError, scaffold.ErrDestinationNotEmpty)
}

func TestScaffoldRejectsBlankProjectName(testInstance *testing.T) {
	templateDirectory := writeTemplate(testInstance)

	scaffoldError := scaffold.Scaffold(templateDirectory, "  ", filepath.Join(testInstance.TempDir(), "out"))
	require.ErrorIs(testInstance, scaffoldError, scaffold.ErrBlankProjectName)
}

func TestScaffoldRejectsMissingTemplate(testInstance *testing.T) {
	scaffoldError := scaffold.Scaffold(filepath.Join(testInstance.TempDir(), "absent"), testProjectNameConstant, filepath.Join(testInstance.TempDir(), "out"))
	require.Error(testInstance, scaffoldError)
	require.ErrorContains(testInstance, scaffoldError, "template directory")
}
