package permissions

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatrixIsMonotonic(t *testing.T) {
	m := DefaultMatrix()
	require.NoError(t, m.Verify())

	tiers := m.Tiers()
	require.Equal(t, []Tier{TierFree, TierPro, TierUltime}, tiers)
	for i := 1; i < len(tiers); i++ {
		lower, err := m.Grants(tiers[i-1])
		require.NoError(t, err)
		upper, err := m.Grants(tiers[i])
		require.NoError(t, err)
		require.Truef(t, lower.SubsetOf(upper), "%s grants %v missing from %s", tiers[i-1], lower.Difference(upper).Sorted(), tiers[i])
	}
}

func TestDefaultMatrixContents(t *testing.T) {
	m := DefaultMatrix()

	free, err := m.Grants(TierFree)
	require.NoError(t, err)
	require.Equal(t, 8, free.Len())

	pro, err := m.Grants(TierPro)
	require.NoError(t, err)
	require.Equal(t, 16, pro.Len())

	ultime, err := m.Grants(TierUltime)
	require.NoError(t, err)
	require.Equal(t, 19, ultime.Len())

	added, err := m.Added(TierUltime)
	require.NoError(t, err)
	require.ElementsMatch(t, []Permission{VideosAnalyzeBatch, VideosPriority, ExportVideo}, added.Sorted())

	for _, tier := range m.Tiers() {
		set, err := m.Grants(tier)
		require.NoError(t, err)
		for perm := range set {
			def, ok := Get(perm)
			require.True(t, ok)
			require.NotEqual(t, "admin", def.Module, "admin permissions come from token scopes only")
		}
	}
}

func TestGrantsReturnsCopy(t *testing.T) {
	m := DefaultMatrix()
	set, err := m.Grants(TierFree)
	require.NoError(t, err)
	set.Add(AdminBilling)

	again, err := m.Grants(TierFree)
	require.NoError(t, err)
	require.False(t, again.Has(AdminBilling))
}

func TestGrantsUnknownTier(t *testing.T) {
	_, err := DefaultMatrix().Grants("Gold")
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestNewMatrixRejectsInvalidGrants(t *testing.T) {
	cases := []struct {
		name   string
		grants []TierGrant
	}{
		{"empty", nil},
		{"unknown tier", []TierGrant{{Tier: "Gold", Adds: []Permission{ReadAPI}}}},
		{"duplicate tier", []TierGrant{{Tier: TierFree, Adds: []Permission{ReadAPI}}, {Tier: TierFree}}},
		{"out of order", []TierGrant{{Tier: TierPro, Adds: []Permission{ReadAPI}}, {Tier: TierFree}}},
		{"unknown permission", []TierGrant{{Tier: TierFree, Adds: []Permission{"exercises:burn"}}}},
		{"repeats inherited", []TierGrant{{Tier: TierFree, Adds: []Permission{ReadAPI}}, {Tier: TierPro, Adds: []Permission{ReadAPI}}}},
		{"missing dependency", []TierGrant{{Tier: TierFree, Adds: []Permission{ReadAPI, ExportVideo}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewMatrix(tc.grants...)
			require.ErrorIs(t, err, ErrInvalidMatrix)
		})
	}
}

func TestNewMatrixAllowsSubsetLadder(t *testing.T) {
	m, err := NewMatrix(
		TierGrant{Tier: TierFree, Adds: []Permission{ReadAPI}},
		TierGrant{Tier: TierUltime, Adds: []Permission{ExportPDF}},
	)
	require.NoError(t, err)
	require.Equal(t, []Tier{TierFree, TierUltime}, m.Tiers())

	_, err = m.Grants(TierPro)
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestVerifyFlagsNonMonotonicSets(t *testing.T) {
	m := &Matrix{
		order: []Tier{TierFree, TierPro},
		sets: map[Tier]Set{
			TierFree: NewSet(ReadAPI, ExportPDF),
			TierPro:  NewSet(ReadAPI),
		},
	}

	err := m.Verify()
	require.ErrorIs(t, err, ErrInvalidMatrix)
	require.ErrorContains(t, err, "drops")
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier(" ultime ")
	require.NoError(t, err)
	require.Equal(t, TierUltime, tier)

	_, err = ParseTier("Premium")
	require.ErrorIs(t, err, ErrUnknownTier)

	require.Equal(t, 1, TierPro.Rank())
	require.False(t, Tier("Gold").Valid())
}

func TestFingerprintTracksGrants(t *testing.T) {
	base := DefaultMatrix().Fingerprint()
	require.Len(t, base, 64)
	require.Equal(t, base, DefaultMatrix().Fingerprint())

	smaller, err := NewMatrix(DefaultGrants[:2]...)
	require.NoError(t, err)
	require.NotEqual(t, base, smaller.Fingerprint())
}
