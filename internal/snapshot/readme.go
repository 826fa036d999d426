package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	readmeFileNameConstant           = "README.md"
	readmeFilePermissionsConstant    = 0o644
	readmeReadErrorTemplateConstant  = "unable to read %s: %w"
	readmeWriteErrorTemplateConstant = "unable to write %s: %w"
)

const readmeHeaderTemplateConstant = `# Snapshot build of %[1]s

> This repository is generated automatically. Do not open pull requests or
> edit files here; every commit is overwritten by the next snapshot.

Source package: ` + "`%[1]s`" + ` from https://github.com/%[2]s

## Installation

    %[3]s

---

`

// ReadmeHeader carries the values rendered into the snapshot README header.
type ReadmeHeader struct {
	PackageName        string
	UpstreamRepository string
	InstallCommand     string
}

// Render produces the header block.
func (header ReadmeHeader) Render() string {
	return fmt.Sprintf(readmeHeaderTemplateConstant, header.PackageName, header.UpstreamRepository, header.InstallCommand)
}

// InstallCommandFor substitutes the first %s of template with the mirror
// repository. Other verbs are copied verbatim.
func InstallCommandFor(template string, mirrorRepository string) string {
	return strings.Replace(template, installCommandPlaceholderConstant, mirrorRepository, 1)
}

// PrependReadmeHeader writes header followed by the existing README of cloneDirectory.
// A missing README is treated as empty.
func PrependReadmeHeader(fileSystem afero.Fs, cloneDirectory string, header ReadmeHeader) error {
	readmePath := filepath.Join(cloneDirectory, readmeFileNameConstant)

	existingContent, readError := afero.ReadFile(fileSystem, readmePath)
	if readError != nil && !errors.Is(readError, fs.ErrNotExist) {
		return fmt.Errorf(readmeReadErrorTemplateConstant, readmePath, readError)
	}

	combinedContent := append([]byte(header.Render()), existingContent...)
	if writeError := afero.WriteFile(fileSystem, readmePath, combinedContent, readmeFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(readmeWriteErrorTemplateConstant, readmePath, writeError)
	}
	return nil
}
