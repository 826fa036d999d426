package utils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// PathExpander resolves configured paths: leading tildes expand to the home
// directory and relative paths are anchored at a base directory.
type PathExpander struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewPathExpander constructs a PathExpander using the operating system home lookup.
func NewPathExpander() *PathExpander {
	return NewPathExpanderWithProvider(os.UserHomeDir)
}

// NewPathExpanderWithProvider constructs a PathExpander with a custom home directory provider.
func NewPathExpanderWithProvider(provider HomeDirectoryProvider) *PathExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &PathExpander{homeDirectoryProvider: provider}
}

// ExpandHome resolves a leading tilde to the user's home directory.
func (expander *PathExpander) ExpandHome(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	resolvedHomeDirectory := expander.resolveHomeDirectory()
	if len(resolvedHomeDirectory) == 0 {
		return candidatePath
	}

	if candidatePath == tildeSymbolConstant {
		return resolvedHomeDirectory
	}

	separatorPrefix := tildeSymbolConstant + string(os.PathSeparator)
	switch {
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant))
	case strings.HasPrefix(candidatePath, separatorPrefix):
		return filepath.Join(resolvedHomeDirectory, strings.TrimPrefix(candidatePath, separatorPrefix))
	default:
		return candidatePath
	}
}

// Resolve expands the home directory and anchors relative paths at baseDirectory.
// Empty input yields an empty result.
func (expander *PathExpander) Resolve(baseDirectory string, candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return ""
	}

	expandedPath := expander.ExpandHome(trimmedPath)
	if filepath.IsAbs(expandedPath) || len(baseDirectory) == 0 {
		return filepath.Clean(expandedPath)
	}
	return filepath.Join(baseDirectory, expandedPath)
}

func (expander *PathExpander) resolveHomeDirectory() string {
	expander.initializationGuard.Do(func() {
		expander.homeDirectory, expander.homeDirectoryError = expander.homeDirectoryProvider()
	})
	if expander.homeDirectoryError != nil {
		return ""
	}
	return expander.homeDirectory
}
