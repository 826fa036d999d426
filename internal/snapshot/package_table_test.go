package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/snapshots/internal/gitrepo"
	"github.com/temirov/snapshots/internal/snapshot"
)

func TestNewPackageTable(testInstance *testing.T) {
	testCases := []struct {
		name        string
		packages    []snapshot.PackageInfo
		expectError bool
	}{
		{
			name: "valid_table",
			packages: []snapshot.PackageInfo{
				{Name: "core", Dist: "./dist/core", Snapshot: true, SnapshotRepository: "org/core-builds", SnapshotHash: "abc123"},
				{Name: "docs"},
			},
		},
		{name: "empty_table"},
		{name: "blank_name", packages: []snapshot.PackageInfo{{Name: "  "}}, expectError: true},
		{name: "duplicate_name", packages: []snapshot.PackageInfo{{Name: "core"}, {Name: " core "}}, expectError: true},
		{name: "snapshot_without_dist", packages: []snapshot.PackageInfo{{Name: "core", Snapshot: true, SnapshotRepository: "org/core-builds"}}, expectError: true},
		{name: "snapshot_with_invalid_mirror", packages: []snapshot.PackageInfo{{Name: "core", Dist: "dist", Snapshot: true, SnapshotRepository: "core-builds"}}, expectError: true},
		{name: "invalid_mirror_ignored_when_not_snapshot", packages: []snapshot.PackageInfo{{Name: "core", SnapshotRepository: "core-builds"}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			table, tableError := snapshot.NewPackageTable(testCase.packages)
			if testCase.expectError {
				require.Error(testInstance, tableError)
				return
			}
			require.NoError(testInstance, tableError)
			require.Equal(testInstance, len(testCase.packages), table.Len())
		})
	}
}

func TestPackageTableIsImmutable(testInstance *testing.T) {
	packages := []snapshot.PackageInfo{
		{Name: "core", Dist: "./dist/core", Snapshot: true, SnapshotRepository: "org/core-builds"},
		{Name: "docs"},
		{Name: "ui", Dist: "./dist/ui", Snapshot: true, SnapshotRepository: "org/ui-builds"},
	}
	table, tableError := snapshot.NewPackageTable(packages)
	require.NoError(testInstance, tableError)

	packages[0].Name = "mutated"
	returnedPackages := table.Packages()
	returnedPackages[1].Name = "mutated"

	require.Equal(testInstance, []string{"core", "docs", "ui"}, packageNames(table.Packages()))
	require.Equal(testInstance, []gitrepo.RepositoryIdentifier{
		{Owner: "org", Name: "core-builds"},
		{Owner: "org", Name: "ui-builds"},
	}, table.SnapshotMirrors())
}

func TestDuplicatePackageErrorNamesPackage(testInstance *testing.T) {
	_, tableError := snapshot.NewPackageTable([]snapshot.PackageInfo{{Name: "core"}, {Name: "core"}})
	require.ErrorAs(testInstance, tableError, &snapshot.DuplicatePackageError{})
	require.Contains(testInstance, tableError.Error(), `"core"`)
}

func packageNames(packages []snapshot.PackageInfo) []string {
	names := make([]string, 0, len(packages))
	for _, packageInfo := range packages {
		names = append(names, packageInfo.Name)
	}
	return names
}
