package publish

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/temirov/snapshots/internal/snapshot"
	"github.com/temirov/snapshots/internal/snapshot/manifest"
	"github.com/temirov/snapshots/internal/utils"
)

const (
	packageTableErrorTemplateConstant = "invalid package table: %w"
)

// loadPackageTable prefers the manifest file over packages listed inline in the configuration.
// A relative manifest path is resolved against the repository path.
func loadPackageTable(fileSystem afero.Fs, pathExpander *utils.PathExpander, configuration snapshot.Configuration) (snapshot.PackageTable, error) {
	packages := configuration.Packages
	if len(configuration.ManifestPath) > 0 {
		manifestPath := pathExpander.Resolve(configuration.RepositoryPath, configuration.ManifestPath)
		manifestPackages, manifestError := manifest.Load(fileSystem, manifestPath)
		if manifestError != nil {
			return snapshot.PackageTable{}, manifestError
		}
		packages = manifestPackages
	}

	packageTable, tableError := snapshot.NewPackageTable(packages)
	if tableError != nil {
		return snapshot.PackageTable{}, fmt.Errorf(packageTableErrorTemplateConstant, tableError)
	}
	return packageTable, nil
}
