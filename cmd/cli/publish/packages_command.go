package publish

import (
	"errors"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/temirov/snapshots/internal/snapshot/manifest"
	"github.com/temirov/snapshots/internal/utils"
)

const (
	packagesCommandUseConstant                 = "packages"
	packagesCommandShortDescriptionConstant    = "Print the resolved package table"
	packagesCommandLongDescriptionConstant     = "packages prints the package table publish would use, in manifest layout, so CI logs record what a run will publish."
	packagesUnexpectedArgumentsMessageConstant = "packages does not accept positional arguments"
	snapshotsOnlyFlagNameConstant              = "snapshots-only"
	snapshotsOnlyFlagDescriptionConstant       = "List only packages that publish snapshots"
)

// PackagesCommandBuilder assembles the packages listing command.
type PackagesCommandBuilder struct {
	ConfigurationProvider ConfigurationProvider
	FileSystem            afero.Fs
	PathExpander          *utils.PathExpander
}

// Build constructs the packages command.
func (builder *PackagesCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   packagesCommandUseConstant,
		Short: packagesCommandShortDescriptionConstant,
		Long:  packagesCommandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(manifestFlagNameConstant, "", manifestFlagDescriptionConstant)
	command.Flags().Bool(snapshotsOnlyFlagNameConstant, false, snapshotsOnlyFlagDescriptionConstant)

	return command, nil
}

func (builder *PackagesCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(packagesUnexpectedArgumentsMessageConstant)
	}

	configuration := resolveConfiguration(builder.ConfigurationProvider)
	manifestFlagValue, manifestFlagError := command.Flags().GetString(manifestFlagNameConstant)
	if manifestFlagError != nil {
		return manifestFlagError
	}
	if trimmedManifest := strings.TrimSpace(manifestFlagValue); len(trimmedManifest) > 0 {
		configuration.ManifestPath = trimmedManifest
	}

	snapshotsOnly, snapshotsOnlyError := command.Flags().GetBool(snapshotsOnlyFlagNameConstant)
	if snapshotsOnlyError != nil {
		return snapshotsOnlyError
	}

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	pathExpander := builder.PathExpander
	if pathExpander == nil {
		pathExpander = utils.NewPathExpander()
	}

	packageTable, tableError := loadPackageTable(fileSystem, pathExpander, configuration)
	if tableError != nil {
		return tableError
	}

	packages := packageTable.Packages()
	if snapshotsOnly {
		filteredPackages := packages[:0]
		for _, packageInfo := range packages {
			if packageInfo.Snapshot {
				filteredPackages = append(filteredPackages, packageInfo)
			}
		}
		packages = filteredPackages
	}

	return manifest.Write(command.OutOrStdout(), packages)
}
