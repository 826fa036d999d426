// Package manifest reads and writes the package table as YAML.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/temirov/snapshots/internal/snapshot"
)

const (
	manifestReadErrorTemplateConstant   = "unable to read manifest %s: %w"
	manifestDecodeErrorTemplateConstant = "unable to parse manifest %s: %w"
	manifestEncodeErrorTemplateConstant = "unable to encode manifest: %w"
	manifestIndentationConstant         = 2
)

// Document is the on-disk layout of a manifest file.
type Document struct {
	Packages []snapshot.PackageInfo `yaml:"packages"`
}

// Load parses the manifest at manifestPath. Unknown keys are rejected so typos
// such as "snapshot_repo" surface instead of silently disabling a package.
func Load(fileSystem afero.Fs, manifestPath string) ([]snapshot.PackageInfo, error) {
	content, readError := afero.ReadFile(fileSystem, manifestPath)
	if readError != nil {
		return nil, fmt.Errorf(manifestReadErrorTemplateConstant, manifestPath, readError)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	var document Document
	if decodeError := decoder.Decode(&document); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		return nil, fmt.Errorf(manifestDecodeErrorTemplateConstant, manifestPath, decodeError)
	}
	return document.Packages, nil
}

// Write renders the packages in manifest layout.
func Write(outputWriter io.Writer, packages []snapshot.PackageInfo) error {
	encoder := yaml.NewEncoder(outputWriter)
	encoder.SetIndent(manifestIndentationConstant)
	if encodeError := encoder.Encode(Document{Packages: packages}); encodeError != nil {
		return fmt.Errorf(manifestEncodeErrorTemplateConstant, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(manifestEncodeErrorTemplateConstant, closeError)
	}
	return nil
}
