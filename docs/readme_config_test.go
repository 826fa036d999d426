package docs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/snapshots/cmd/cli"
	"github.com/temirov/snapshots/internal/snapshot"
	"github.com/temirov/snapshots/internal/snapshot/manifest"
	"github.com/temirov/snapshots/internal/utils"
)

const (
	readmeFileNameConstant           = "README.md"
	yamlFenceStartConstant           = "```yaml"
	yamlFenceEndConstant             = "```"
	configHeaderMarkerConstant       = "# config.yaml"
	manifestMarkerConstant           = "\npackages:\n"
	readmeSnippetFileNameConstant    = "config.yaml"
	readmeManifestFileNameConstant   = "manifest.yaml"
	parentDirectoryReferenceConstant = ".."
	missingHeaderMessageConstant     = "README example missing config header marker"
	missingStartFenceMessageConstant = "README example missing yaml fence start"
	missingEndFenceMessageConstant   = "README example missing yaml fence end"
	expectedPackageCountConstant     = 2
)

func readReadme(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory, workingDirectoryError := os.Getwd()
	require.NoError(testInstance, workingDirectoryError)

	readmePath := filepath.Join(workingDirectory, parentDirectoryReferenceConstant, readmeFileNameConstant)
	contentBytes, readError := os.ReadFile(readmePath)
	require.NoError(testInstance, readError)
	return string(contentBytes)
}

// extractYAMLBlock returns the fenced yaml block that contains marker.
func extractYAMLBlock(testInstance *testing.T, contentText string, marker string) string {
	testInstance.Helper()

	markerIndex := strings.Index(contentText, marker)
	require.NotEqual(testInstance, -1, markerIndex, missingHeaderMessageConstant)

	fenceStartIndex := strings.LastIndex(contentText[:markerIndex+len(yamlFenceStartConstant)], yamlFenceStartConstant)
	require.NotEqual(testInstance, -1, fenceStartIndex, missingStartFenceMessageConstant)

	bodyIndex := markerIndex + len(marker)
	fenceEndRelativeIndex := strings.Index(contentText[bodyIndex:], yamlFenceEndConstant)
	require.NotEqual(testInstance, -1, fenceEndRelativeIndex, missingEndFenceMessageConstant)
	fenceEndIndex := bodyIndex + fenceEndRelativeIndex

	return strings.TrimSpace(contentText[fenceStartIndex+len(yamlFenceStartConstant) : fenceEndIndex])
}

func TestReadmeConfigurationParses(testInstance *testing.T) {
	snippetContent := extractYAMLBlock(testInstance, readReadme(testInstance), configHeaderMarkerConstant)

	configurationPath := filepath.Join(testInstance.TempDir(), readmeSnippetFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(snippetContent), 0o600))

	loader := utils.NewConfigurationLoader("config", "yaml", "SNAPSHOTS_README_TEST", nil)
	loader.SetEmbeddedConfiguration(cli.EmbeddedDefaultConfiguration())

	var applicationConfiguration cli.ApplicationConfiguration
	_, loadError := loader.LoadConfiguration(configurationPath, nil, &applicationConfiguration)
	require.NoError(testInstance, loadError)

	publishConfiguration := applicationConfiguration.Publish.Sanitize()
	require.Equal(testInstance, "example/widgets", publishConfiguration.UpstreamRepository)
	require.True(testInstance, publishConfiguration.BuildStep.Enabled())
	require.Equal(testInstance, "true", publishConfiguration.BuildStep.Environment["SNAPSHOT"])

	packageTable, tableError := snapshot.NewPackageTable(publishConfiguration.Packages)
	require.NoError(testInstance, tableError)
	require.Equal(testInstance, expectedPackageCountConstant, packageTable.Len())
	require.Len(testInstance, packageTable.SnapshotMirrors(), 1)
}

func TestReadmeManifestParses(testInstance *testing.T) {
	contentText := readReadme(testInstance)
	manifestContent := extractYAMLBlock(testInstance, contentText, yamlFenceStartConstant+manifestMarkerConstant)

	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, readmeManifestFileNameConstant, []byte(manifestContent), 0o644))

	packages, loadError := manifest.Load(fileSystem, readmeManifestFileNameConstant)
	require.NoError(testInstance, loadError)

	packageTable, tableError := snapshot.NewPackageTable(packages)
	require.NoError(testInstance, tableError)
	require.Equal(testInstance, 1, packageTable.Len())
}
