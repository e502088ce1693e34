package domain

import (
	"context"
	"fmt"
)

// HierarchySource is the read model for regions and ports.
type HierarchySource interface {
	// RegionExists reports whether a region with the given slug is present.
	RegionExists(ctx context.Context, slug string) (bool, error)

	// ChildRegions returns every region whose parent is one of parents.
	ChildRegions(ctx context.Context, parents []string) ([]Region, error)

	// PortsInRegions returns every port whose parent is one of slugs.
	PortsInRegions(ctx context.Context, slugs []string) ([]Port, error)
}

// Resolver expands identifiers into port sets.
type Resolver struct {
	source HierarchySource
}

// NewResolver creates a Resolver reading from source.
func NewResolver(source HierarchySource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the ports an identifier covers. Port identifiers resolve to
// themselves without consulting the source. Unknown regions yield an empty set.
func (r *Resolver) Resolve(ctx context.Context, id Identifier) (PortSet, error) {
	if id.Kind == KindPort {
		return NewPortSet(id.Value), nil
	}

	closure, err := r.closure(ctx, id.Value)
	if err != nil {
		return nil, err
	}
	if len(closure) == 0 {
		return PortSet{}, nil
	}

	ports, err := r.source.PortsInRegions(ctx, closure)
	if err != nil {
		return nil, &ResolutionError{Identifier: id.Value, Err: fmt.Errorf("list ports: %w", err)}
	}

	inClosure := NewPortSet(closure...)
	set := make(PortSet, len(ports))
	for _, p := range ports {
		if p.Code == "" || !inClosure.Contains(p.ParentSlug) {
			return nil, &ResolutionError{Identifier: id.Value, Err: fmt.Errorf("%w: port %q under %q", errMalformedRow, p.Code, p.ParentSlug)}
		}
		set[p.Code] = struct{}{}
	}
	return set, nil
}

// closure returns root and all of its descendants, breadth first. It returns
// nil when root is not a known region.
func (r *Resolver) closure(ctx context.Context, root string) ([]string, error) {
	exists, err := r.source.RegionExists(ctx, root)
	if err != nil {
		return nil, &ResolutionError{Identifier: root, Err: fmt.Errorf("lookup region: %w", err)}
	}
	if !exists {
		return nil, nil
	}

	visited := map[string]struct{}{root: {}}
	closure := []string{root}
	frontier := []string{root}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, &ResolutionError{Identifier: root, Err: err}
		}

		children, err := r.source.ChildRegions(ctx, frontier)
		if err != nil {
			return nil, &ResolutionError{Identifier: root, Err: fmt.Errorf("list child regions: %w", err)}
		}

		parents := NewPortSet(frontier...)
		next := make([]string, 0, len(children))
		for _, child := range children {
			if child.Slug == "" || !parents.Contains(child.ParentSlug) {
				return nil, &ResolutionError{Identifier: root, Err: fmt.Errorf("%w: region %q under %q", errMalformedRow, child.Slug, child.ParentSlug)}
			}
			if _, seen := visited[child.Slug]; seen {
				return nil, &HierarchyCycleError{Root: root, Slug: child.Slug}
			}
			visited[child.Slug] = struct{}{}
			closure = append(closure, child.Slug)
			next = append(next, child.Slug)
		}
		frontier = next
	}

	return closure, nil
}
