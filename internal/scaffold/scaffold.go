// Package scaffold creates new project trees from templates.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	namePathPlaceholderConstant            = "__name__"
	nameContentPlaceholderConstant         = "{{name}}"
	destinationNotEmptyMessageConstant     = "destination is not empty"
	templateNotFoundTemplateConstant       = "template directory %s: %w"
	scaffoldCopyFailureTemplateConstant    = "scaffold %s: %w"
	scaffoldDirectoryPermissionsConstant   = 0o755
	blankProjectNameMessageConstant        = "project name must not be blank"
)

// Scaffolding sentinels.
var (
	ErrDestinationNotEmpty = errors.New(destinationNotEmptyMessageConstant)
	ErrBlankProjectName    = errors.New(blankProjectNameMessageConstant)
)

// Scaffold copies the template tree to the destination, substituting the
// project name into path segments named __name__ and into {{name}} markers
// inside file contents. An existing non-empty destination is refused.
func Scaffold(templateDirectory string, projectName string, destination string) error {
	trimmedProjectName := strings.TrimSpace(projectName)
	if len(trimmedProjectName) == 0 {
		return ErrBlankProjectName
	}

	if _, templateError := os.Stat(templateDirectory); templateError != nil {
		return fmt.Errorf(templateNotFoundTemplateConstant, templateDirectory, templateError)
	}

	if notEmptyError := ensureDestinationEmpty(destination); notEmptyError != nil {
		return notEmptyError
	}

	return filepath.WalkDir(templateDirectory, func(entryPath string, entry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}

		relativePath, relativeError := filepath.Rel(templateDirectory, entryPath)
		if relativeError != nil {
			return fmt.Errorf(scaffoldCopyFailureTemplateConstant, entryPath, relativeError)
		}
		destinationPath := filepath.Join(destination, substituteName(relativePath, trimmedProjectName))

		if entry.IsDir() {
			if directoryError := os.MkdirAll(destinationPath, scaffoldDirectoryPermissionsConstant); directoryError != nil {
				return fmt.Errorf(scaffoldCopyFailureTemplateConstant, destinationPath, directoryError)
			}
			return nil
		}

		templateContent, readError := os.ReadFile(entryPath)
		if readError != nil {
			return fmt.Errorf(scaffoldCopyFailureTemplateConstant, entryPath, readError)
		}

		entryInfo, infoError := entry.Info()
		if infoError != nil {
			return fmt.Errorf(scaffoldCopyFailureTemplateConstant, entryPath, infoError)
		}

		renderedContent := strings.ReplaceAll(string(templateContent), nameContentPlaceholderConstant, trimmedProjectName)
		if writeError := os.WriteFile(destinationPath, []byte(renderedContent), entryInfo.Mode().Perm()); writeError != nil {
			return fmt.Errorf(scaffoldCopyFailureTemplateConstant, destinationPath, writeError)
		}
		return nil
	})
}

func ensureDestinationEmpty(destination string) error {
	entries, readError := os.ReadDir(destination)
	if readError != nil {
		if os.IsNotExist(readError) {
			return nil
		}
		return fmt.Errorf(scaffoldCopyFailureTemplateConstant, destination, readError)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s: %w", destination, ErrDestinationNotEmpty)
	}
	return nil
}

func substituteName(relativePath string, projectName string) string {
	segments := strings.Split(filepath.ToSlash(relativePath), "/")
	for segmentIndex, segment := range segments {
		segments[segmentIndex] = strings.ReplaceAll(segment, namePathPlaceholderConstant, projectName)
	}
	return filepath.FromSlash(strings.Join(segments, "/"))
}
