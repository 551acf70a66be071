package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Permission is a capability identifier such as "exercises:read".
type Permission string

func (p Permission) String() string { return string(p) }

// Definition describes a permission registered in the catalog.
type Definition struct {
	ID          Permission   `json:"id"`
	Module      string       `json:"module"`
	DependsOn   []Permission `json:"depends_on,omitempty"`
	Description string       `json:"description"`
}

type permissionRegistry struct {
	mu          sync.RWMutex
	permissions map[Permission]*Definition
}

var globalRegistry = &permissionRegistry{
	permissions: make(map[Permission]*Definition),
}

var (
	errNilDefinition  = errors.New("permission: nil definition")
	errEmptyID        = errors.New("permission: id is required")
	errDuplicateID    = errors.New("permission: already registered")
	errSelfDependency = errors.New("permission: cannot depend on itself")
)

// Register adds a permission definition to the global catalog.
func Register(def *Definition) error {
	if def == nil {
		return errNilDefinition
	}

	id := Permission(strings.TrimSpace(string(def.ID)))
	if id == "" {
		return errEmptyID
	}

	cp := cloneDefinition(def)
	cp.ID = id
	cp.Module = strings.TrimSpace(cp.Module)

	depends, err := normaliseIDs(cp.DependsOn, id)
	if err != nil {
		return err
	}
	cp.DependsOn = depends

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.permissions[id]; exists {
		return fmt.Errorf("%w: %s", errDuplicateID, id)
	}

	globalRegistry.permissions[id] = cp
	return nil
}

// Get returns a copy of the permission definition when registered.
func Get(id Permission) (*Definition, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	def, ok := globalRegistry.permissions[id]
	if !ok {
		return nil, false
	}
	return cloneDefinition(def), true
}

// IsRegistered reports whether id belongs to the catalog.
func IsRegistered(id Permission) bool {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	_, ok := globalRegistry.permissions[id]
	return ok
}

// Parse converts a raw identifier into a registered Permission.
func Parse(raw string) (Permission, error) {
	id := Permission(strings.TrimSpace(raw))
	if !IsRegistered(id) {
		return "", fmt.Errorf("%w %q", ErrUnknownPermission, raw)
	}
	return id, nil
}

// GetAll returns a copy of all registered definitions keyed by ID.
func GetAll() map[Permission]*Definition {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make(map[Permission]*Definition, len(globalRegistry.permissions))
	for id, def := range globalRegistry.permissions {
		out[id] = cloneDefinition(def)
	}
	return out
}

// All returns every registered permission ID in lexical order.
func All() []Permission {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	ids := make([]Permission, 0, len(globalRegistry.permissions))
	for id := range globalRegistry.permissions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetByModule gathers definitions registered under the specified module, ordered by ID.
func GetByModule(module string) []*Definition {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	module = strings.TrimSpace(module)
	var defs []*Definition
	for _, def := range globalRegistry.permissions {
		if def.Module == module {
			defs = append(defs, cloneDefinition(def))
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// ValidateDependencies ensures that all dependencies reference known permissions.
func ValidateDependencies() error {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	for _, def := range globalRegistry.permissions {
		for _, dep := range def.DependsOn {
			if _, ok := globalRegistry.permissions[dep]; !ok {
				return fmt.Errorf("permission: %s depends on unknown permission %s", def.ID, dep)
			}
		}
	}
	return nil
}

func cloneDefinition(def *Definition) *Definition {
	if def == nil {
		return nil
	}

	cp := *def
	if len(def.DependsOn) > 0 {
		cp.DependsOn = append([]Permission(nil), def.DependsOn...)
	}
	return &cp
}

func normaliseIDs(values []Permission, self Permission) ([]Permission, error) {
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[Permission]struct{}, len(values))
	var result []Permission

	for _, value := range values {
		value = Permission(strings.TrimSpace(string(value)))
		if value == "" {
			continue
		}
		if value == self {
			return nil, errSelfDependency
		}
		if _, exists := seen[value]; exists {
			continue
		}

		seen[value] = struct{}{}
		result = append(result, value)
	}

	return result, nil
}
