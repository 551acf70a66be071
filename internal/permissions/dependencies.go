package permissions

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPermission indicates a lookup for an identifier outside the catalog.
	ErrUnknownPermission = errors.New("permission: unknown permission")
	// ErrCircularDependency signals that a dependency graph contains a cycle.
	ErrCircularDependency = errors.New("permission: circular dependency detected")
)

// ResolveDependencies returns the transitive dependencies of the specified permission,
// deepest first.
func ResolveDependencies(id Permission) ([]Permission, error) {
	defs := GetAll()

	root, ok := defs[id]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPermission, id)
	}

	visited := make(map[Permission]bool, len(defs))
	recStack := make(map[Permission]bool, len(defs))
	var resolved []Permission

	var walk func(Permission) error
	walk = func(current Permission) error {
		def, ok := defs[current]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownPermission, current)
		}
		if recStack[current] {
			return fmt.Errorf("%w at %s", ErrCircularDependency, current)
		}
		if visited[current] {
			return nil
		}

		recStack[current] = true
		for _, dep := range def.DependsOn {
			if err := walk(dep); err != nil {
				return err
			}
		}
		recStack[current] = false
		visited[current] = true

		if current != id {
			resolved = append(resolved, current)
		}

		return nil
	}

	recStack[id] = true
	for _, dep := range root.DependsOn {
		if err := walk(dep); err != nil {
			return nil, err
		}
	}

	return resolved, nil
}
