package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const (
	uniquenessMarkerFileNameConstant      = "uniqueId"
	copiedFilePermissionsConstant         = 0o644
	copiedDirectoryPermissionsConstant    = 0o755
	distMissingErrorTemplateConstant      = "dist directory %s is not available: %w"
	distNotDirectoryErrorTemplateConstant = "dist path %s is not a directory"
	copyErrorTemplateConstant             = "unable to copy %s to %s: %w"
	markerWriteErrorTemplateConstant      = "unable to write %s: %w"
	temporaryRootErrorTemplateConstant    = "unable to create temporary directory: %w"
	temporaryRootCleanupTemplateConstant  = "unable to remove temporary directory %s: %w"
)

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// CopyDirectory recursively copies every file under sourceDirectory into
// destinationDirectory, creating directories and overwriting existing files.
func CopyDirectory(fileSystem afero.Fs, sourceDirectory string, destinationDirectory string) error {
	sourceInfo, statError := fileSystem.Stat(sourceDirectory)
	if statError != nil {
		return fmt.Errorf(distMissingErrorTemplateConstant, sourceDirectory, statError)
	}
	if !sourceInfo.IsDir() {
		return fmt.Errorf(distNotDirectoryErrorTemplateConstant, sourceDirectory)
	}

	return afero.Walk(fileSystem, sourceDirectory, func(sourcePath string, entryInfo os.FileInfo, walkError error) error {
		if walkError != nil {
			return walkError
		}

		relativePath, relativeError := filepath.Rel(sourceDirectory, sourcePath)
		if relativeError != nil {
			return relativeError
		}
		destinationPath := filepath.Join(destinationDirectory, relativePath)

		if entryInfo.IsDir() {
			return fileSystem.MkdirAll(destinationPath, copiedDirectoryPermissionsConstant)
		}

		content, readError := afero.ReadFile(fileSystem, sourcePath)
		if readError != nil {
			return fmt.Errorf(copyErrorTemplateConstant, sourcePath, destinationPath, readError)
		}

		permissions := entryInfo.Mode().Perm()
		if permissions == 0 {
			permissions = copiedFilePermissionsConstant
		}
		if writeError := afero.WriteFile(fileSystem, destinationPath, content, permissions); writeError != nil {
			return fmt.Errorf(copyErrorTemplateConstant, sourcePath, destinationPath, writeError)
		}
		return nil
	})
}

// WriteUniquenessMarker records the current time in the clone so every snapshot
// commit carries a change even when the package output is unchanged.
func WriteUniquenessMarker(fileSystem afero.Fs, cloneDirectory string, now time.Time) error {
	markerPath := filepath.Join(cloneDirectory, uniquenessMarkerFileNameConstant)
	if writeError := afero.WriteFile(fileSystem, markerPath, []byte(now.Format(time.RFC3339Nano)), copiedFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(markerWriteErrorTemplateConstant, markerPath, writeError)
	}
	return nil
}
