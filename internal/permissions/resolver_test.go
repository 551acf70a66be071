package permissions

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermissionAgreesWithMatrix(t *testing.T) {
	r := DefaultResolver()

	for _, tier := range Tiers() {
		granted, err := r.Matrix().Grants(tier)
		require.NoError(t, err)

		for _, perm := range All() {
			ok, err := r.HasPermission(tier, perm)
			require.NoError(t, err)
			require.Equalf(t, granted.Has(perm), ok, "tier %s permission %s", tier, perm)
		}
	}
}

func TestHasPermissionScenarios(t *testing.T) {
	ok, err := HasPermission(TierFree, VideosAnalyzeBatch)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = HasPermission(TierUltime, VideosAnalyzeBatch)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasPermissionUnknownTierFails(t *testing.T) {
	ok, err := HasPermission("Gold", ReadAPI)
	require.ErrorIs(t, err, ErrUnknownTier)
	require.False(t, ok)

	_, err = HasPermission("", ReadAPI)
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestHasPermissionUnknownPermissionFails(t *testing.T) {
	_, err := HasPermission(TierPro, "exercises:burn")
	require.ErrorIs(t, err, ErrUnknownPermission)
}

func TestMissingPermissionsScenarios(t *testing.T) {
	required := NewSet(ExercisesRead, ExportPDF)

	missing, err := MissingPermissions(TierPro, required)
	require.NoError(t, err)
	require.Zero(t, missing.Len())

	missing, err = MissingPermissions(TierFree, required)
	require.NoError(t, err)
	require.Equal(t, []Permission{ExportPDF}, missing.Sorted())

	_, err = MissingPermissions("Gold", required)
	require.ErrorIs(t, err, ErrUnknownTier)

	_, err = MissingPermissions(TierFree, NewSet("exercises:burn"))
	require.ErrorIs(t, err, ErrUnknownPermission)
}

func TestMissingPermissionsEmptyIffSubset(t *testing.T) {
	r := DefaultResolver()
	all := All()

	for _, tier := range Tiers() {
		granted, err := r.Matrix().Grants(tier)
		require.NoError(t, err)

		// sliding windows of the catalog give a mix of satisfied and unsatisfied requests
		for start := 0; start < len(all); start++ {
			for width := 0; width <= 3 && start+width <= len(all); width++ {
				required := NewSet(all[start : start+width]...)
				missing, err := r.MissingPermissions(tier, required)
				require.NoError(t, err)
				require.Equal(t, required.SubsetOf(granted), missing.Len() == 0)
				require.True(t, missing.SubsetOf(required))
			}
		}
	}
}

func TestUpgradeTarget(t *testing.T) {
	r := DefaultResolver()

	target, ok, err := r.UpgradeTarget(TierFree, NewSet(VideosAnalyzeBatch))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TierUltime, target)

	target, ok, err = r.UpgradeTarget(TierFree, NewSet(ExportPDF, ExercisesRead))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, TierPro, target)

	_, ok, err = r.UpgradeTarget(TierPro, NewSet(ExercisesRead))
	require.NoError(t, err)
	require.False(t, ok, "already satisfied")

	_, ok, err = r.UpgradeTarget(TierUltime, NewSet(AdminBilling))
	require.NoError(t, err)
	require.False(t, ok, "no tier grants admin permissions")

	_, _, err = r.UpgradeTarget("Gold", NewSet(ReadAPI))
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestPermissionsSorted(t *testing.T) {
	perms, err := DefaultResolver().Permissions(TierFree)
	require.NoError(t, err)
	require.Len(t, perms, 8)
	require.True(t, sort.SliceIsSorted(perms, func(i, j int) bool { return perms[i] < perms[j] }))
}

func TestResolverConcurrentReads(t *testing.T) {
	r := DefaultResolver()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tier := range Tiers() {
				_, _ = r.HasPermission(tier, ExportVideo)
				_, _ = r.MissingPermissions(tier, NewSet(ExportVideo, ReadAPI))
			}
		}()
	}
	wg.Wait()
}

func TestNewResolverRequiresMatrix(t *testing.T) {
	_, err := NewResolver(nil)
	require.Error(t, err)
}
