package permissions

import (
	"errors"
	"fmt"
)

// Resolver answers gating questions against an immutable Matrix. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	matrix *Matrix
}

// NewResolver constructs a resolver over the provided matrix.
func NewResolver(matrix *Matrix) (*Resolver, error) {
	if matrix == nil {
		return nil, errors.New("permission resolver: matrix is required")
	}
	return &Resolver{matrix: matrix}, nil
}

// Matrix exposes the underlying matrix.
func (r *Resolver) Matrix() *Matrix {
	return r.matrix
}

// HasPermission reports whether tier is granted permission.
func (r *Resolver) HasPermission(tier Tier, permission Permission) (bool, error) {
	set, err := r.matrix.lookup(tier)
	if err != nil {
		return false, err
	}
	if !IsRegistered(permission) {
		return false, fmt.Errorf("%w %q", ErrUnknownPermission, permission)
	}
	return set.Has(permission), nil
}

// MissingPermissions returns the members of required that tier is not granted.
// An empty result means the tier satisfies every requirement.
func (r *Resolver) MissingPermissions(tier Tier, required Set) (Set, error) {
	set, err := r.matrix.lookup(tier)
	if err != nil {
		return nil, err
	}
	if err := checkRegistered(required); err != nil {
		return nil, err
	}
	return required.Difference(set), nil
}

// Permissions lists the permissions granted to tier in lexical order.
func (r *Resolver) Permissions(tier Tier) ([]Permission, error) {
	set, err := r.matrix.lookup(tier)
	if err != nil {
		return nil, err
	}
	return set.Sorted(), nil
}

// UpgradeTarget returns the lowest tier above tier that grants everything in
// required. ok is false when tier already satisfies required or no tier does.
func (r *Resolver) UpgradeTarget(tier Tier, required Set) (target Tier, ok bool, err error) {
	missing, err := r.MissingPermissions(tier, required)
	if err != nil {
		return "", false, err
	}
	if missing.Len() == 0 {
		return "", false, nil
	}

	for _, candidate := range r.matrix.order[r.matrix.index(tier)+1:] {
		if required.SubsetOf(r.matrix.sets[candidate]) {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

func checkRegistered(perms Set) error {
	for _, p := range perms.Sorted() {
		if !IsRegistered(p) {
			return fmt.Errorf("%w %q", ErrUnknownPermission, p)
		}
	}
	return nil
}

// DefaultResolver returns a resolver over DefaultMatrix.
func DefaultResolver() *Resolver {
	return &Resolver{matrix: DefaultMatrix()}
}

// HasPermission evaluates permission for tier against the default matrix.
func HasPermission(tier Tier, permission Permission) (bool, error) {
	return DefaultResolver().HasPermission(tier, permission)
}

// MissingPermissions evaluates required for tier against the default matrix.
func MissingPermissions(tier Tier, required Set) (Set, error) {
	return DefaultResolver().MissingPermissions(tier, required)
}
