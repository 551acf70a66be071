package permissions

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidMatrix wraps every matrix construction or verification failure.
var ErrInvalidMatrix = errors.New("permission: invalid matrix")

// TierGrant lists the permissions a tier adds on top of the tier below it.
type TierGrant struct {
	Tier Tier
	Adds []Permission
}

// DefaultGrants is the subscription matrix sold to clubs and coaches.
var DefaultGrants = []TierGrant{
	{
		Tier: TierFree,
		Adds: []Permission{
			ReadAPI,
			WriteAPI,
			ExercisesRead,
			ExercisesCreate,
			VideosAnalyze,  // 3 per day
			SessionsCreate, // 5 max
			MatchesCreate,
			MatchesContact,
		},
	},
	{
		Tier: TierPro,
		Adds: []Permission{
			ExercisesReadAll,
			ExercisesShare,
			VideosAnalyzeLong,
			SessionsTemplate,
			SessionsShare,
			MatchesPremium,
			ExportPDF,
			ShareLibrary,
		},
	},
	{
		Tier: TierUltime,
		Adds: []Permission{
			VideosAnalyzeBatch,
			VideosPriority,
			ExportVideo,
		},
	},
}

// Matrix maps each tier to its granted permissions. It is immutable once built.
type Matrix struct {
	order []Tier
	sets  map[Tier]Set
}

// NewMatrix builds cumulative tier sets from incremental grants, lowest tier first.
// Each tier inherits every permission of the tiers before it, so higher tiers are
// supersets by construction.
func NewMatrix(grants ...TierGrant) (*Matrix, error) {
	if len(grants) == 0 {
		return nil, fmt.Errorf("%w: no tiers", ErrInvalidMatrix)
	}

	m := &Matrix{
		order: make([]Tier, 0, len(grants)),
		sets:  make(map[Tier]Set, len(grants)),
	}

	inherited := NewSet()
	lastRank := -1
	for _, grant := range grants {
		rank := grant.Tier.Rank()
		if rank < 0 {
			return nil, fmt.Errorf("%w: %w %q", ErrInvalidMatrix, ErrUnknownTier, grant.Tier)
		}
		if _, dup := m.sets[grant.Tier]; dup {
			return nil, fmt.Errorf("%w: tier %s listed twice", ErrInvalidMatrix, grant.Tier)
		}
		if rank <= lastRank {
			return nil, fmt.Errorf("%w: tier %s out of order", ErrInvalidMatrix, grant.Tier)
		}
		lastRank = rank

		current := inherited.Clone()
		for _, perm := range grant.Adds {
			if !IsRegistered(perm) {
				return nil, fmt.Errorf("%w: tier %s: %w %q", ErrInvalidMatrix, grant.Tier, ErrUnknownPermission, perm)
			}
			if current.Has(perm) {
				return nil, fmt.Errorf("%w: tier %s repeats %s", ErrInvalidMatrix, grant.Tier, perm)
			}
			current.Add(perm)
		}

		m.order = append(m.order, grant.Tier)
		m.sets[grant.Tier] = current
		inherited = current
	}

	if err := m.Verify(); err != nil {
		return nil, err
	}
	return m, nil
}

// Verify checks that every tier only holds catalog permissions together with their
// dependencies and that each tier's set contains the set of the tier below it.
func (m *Matrix) Verify() error {
	var previous Set
	var previousTier Tier
	for _, tier := range m.order {
		set := m.sets[tier]
		for perm := range set {
			deps, err := ResolveDependencies(perm)
			if err != nil {
				return fmt.Errorf("%w: tier %s: %w", ErrInvalidMatrix, tier, err)
			}
			for _, dep := range deps {
				if !set.Has(dep) {
					return fmt.Errorf("%w: tier %s grants %s without dependency %s", ErrInvalidMatrix, tier, perm, dep)
				}
			}
		}
		if previous != nil {
			if lost := previous.Difference(set); lost.Len() > 0 {
				return fmt.Errorf("%w: tier %s drops %v granted to %s", ErrInvalidMatrix, tier, lost.Sorted(), previousTier)
			}
		}
		previous, previousTier = set, tier
	}
	return nil
}

// Tiers returns the tiers in ladder order.
func (m *Matrix) Tiers() []Tier {
	return append([]Tier(nil), m.order...)
}

// Grants returns a copy of the permissions granted to tier.
func (m *Matrix) Grants(tier Tier) (Set, error) {
	set, err := m.lookup(tier)
	if err != nil {
		return nil, err
	}
	return set.Clone(), nil
}

// Added returns the permissions tier grants beyond the tier directly below it.
func (m *Matrix) Added(tier Tier) (Set, error) {
	set, err := m.lookup(tier)
	if err != nil {
		return nil, err
	}
	idx := m.index(tier)
	if idx == 0 {
		return set.Clone(), nil
	}
	return set.Difference(m.sets[m.order[idx-1]]), nil
}

func (m *Matrix) lookup(tier Tier) (Set, error) {
	set, ok := m.sets[tier]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTier, tier)
	}
	return set, nil
}

func (m *Matrix) index(tier Tier) int {
	for i, t := range m.order {
		if t == tier {
			return i
		}
	}
	return -1
}

var (
	defaultOnce   sync.Once
	defaultMatrix *Matrix
)

// DefaultMatrix returns the matrix built from DefaultGrants.
func DefaultMatrix() *Matrix {
	defaultOnce.Do(func() {
		m, err := NewMatrix(DefaultGrants...)
		if err != nil {
			panic(err)
		}
		defaultMatrix = m
	})
	return defaultMatrix
}
