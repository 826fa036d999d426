package snapshot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/snapshots/internal/gitrepo"
)

const (
	packageNameRequiredMessageConstant      = "package name required"
	duplicatePackageTemplateConstant        = "duplicate package %q"
	packageFieldErrorTemplateConstant       = "package %q: %s"
	distRequiredMessageConstant             = "dist directory required for snapshot packages"
	snapshotRepositoryErrorTemplateConstant = "package %q: invalid snapshot repository: %w"
)

// ErrPackageNameRequired indicates a package entry without a name.
var ErrPackageNameRequired = errors.New(packageNameRequiredMessageConstant)

// PackageInfo describes one publishable unit of the monorepo.
type PackageInfo struct {
	Name               string `mapstructure:"name" yaml:"name"`
	Dist               string `mapstructure:"dist" yaml:"dist"`
	Snapshot           bool   `mapstructure:"snapshot" yaml:"snapshot"`
	SnapshotRepository string `mapstructure:"snapshot_repository" yaml:"snapshot_repository"`
	SnapshotHash       string `mapstructure:"snapshot_hash" yaml:"snapshot_hash"`
}

// Sanitize trims the textual fields.
func (packageInfo PackageInfo) Sanitize() PackageInfo {
	return PackageInfo{
		Name:               strings.TrimSpace(packageInfo.Name),
		Dist:               strings.TrimSpace(packageInfo.Dist),
		Snapshot:           packageInfo.Snapshot,
		SnapshotRepository: strings.TrimSpace(packageInfo.SnapshotRepository),
		SnapshotHash:       strings.TrimSpace(packageInfo.SnapshotHash),
	}
}

// DuplicatePackageError reports two table entries sharing a name.
type DuplicatePackageError struct {
	Name string
}

// Error describes the duplicate.
func (duplicateError DuplicatePackageError) Error() string {
	return fmt.Sprintf(duplicatePackageTemplateConstant, duplicateError.Name)
}

// InvalidPackageError reports a table entry that cannot be published.
type InvalidPackageError struct {
	Name    string
	Message string
}

// Error describes the invalid entry.
func (invalidError InvalidPackageError) Error() string {
	return fmt.Sprintf(packageFieldErrorTemplateConstant, invalidError.Name, invalidError.Message)
}

// PackageTable is the ordered, immutable list of packages handed to the publisher.
type PackageTable struct {
	packages []PackageInfo
}

// NewPackageTable validates the entries and returns a table that owns a private copy of them.
// Snapshot entries must name a dist directory and an owner/name mirror.
func NewPackageTable(packages []PackageInfo) (PackageTable, error) {
	seenNames := make(map[string]struct{}, len(packages))
	ownedPackages := make([]PackageInfo, 0, len(packages))

	for _, candidate := range packages {
		packageInfo := candidate.Sanitize()
		if len(packageInfo.Name) == 0 {
			return PackageTable{}, ErrPackageNameRequired
		}
		if _, exists := seenNames[packageInfo.Name]; exists {
			return PackageTable{}, DuplicatePackageError{Name: packageInfo.Name}
		}
		seenNames[packageInfo.Name] = struct{}{}

		if packageInfo.Snapshot {
			if len(packageInfo.Dist) == 0 {
				return PackageTable{}, InvalidPackageError{Name: packageInfo.Name, Message: distRequiredMessageConstant}
			}
			if _, parseError := gitrepo.ParseRepositoryIdentifier(packageInfo.SnapshotRepository); parseError != nil {
				return PackageTable{}, fmt.Errorf(snapshotRepositoryErrorTemplateConstant, packageInfo.Name, parseError)
			}
		}

		ownedPackages = append(ownedPackages, packageInfo)
	}

	return PackageTable{packages: ownedPackages}, nil
}

// Packages returns a copy of the entries in table order.
func (table PackageTable) Packages() []PackageInfo {
	return append([]PackageInfo(nil), table.packages...)
}

// Len reports the number of entries.
func (table PackageTable) Len() int {
	return len(table.packages)
}

// SnapshotMirrors lists the mirrors of every snapshot package in table order.
func (table PackageTable) SnapshotMirrors() []gitrepo.RepositoryIdentifier {
	mirrors := make([]gitrepo.RepositoryIdentifier, 0, len(table.packages))
	for _, packageInfo := range table.packages {
		if !packageInfo.Snapshot {
			continue
		}
		identifier, parseError := gitrepo.ParseRepositoryIdentifier(packageInfo.SnapshotRepository)
		if parseError != nil {
			continue
		}
		mirrors = append(mirrors, identifier)
	}
	return mirrors
}
