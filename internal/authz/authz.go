// Package authz resolves which projects a caller may see.
package authz

import (
	"context"
	"fmt"
	"slices"

	"basegraph.app/issuesearch/internal/model"
	"basegraph.app/issuesearch/internal/store"
)

// Identity is the caller of a search. An anonymous caller has no UserUUID.
type Identity struct {
	UserUUID   string
	GroupUUIDs []string
	Root       bool
}

func Anonymous() Identity { return Identity{} }

// Scope is either unrestricted or a concrete set of visible projects.
type Scope struct {
	unrestricted bool
	projects     []string
}

func Unrestricted() Scope { return Scope{unrestricted: true} }

func Restricted(projectUUIDs ...string) Scope {
	p := slices.Clone(projectUUIDs)
	slices.Sort(p)
	return Scope{projects: slices.Compact(p)}
}

func (s Scope) Unrestricted() bool { return s.unrestricted }

// ProjectUUIDs is empty for unrestricted scopes.
func (s Scope) ProjectUUIDs() []string { return slices.Clone(s.projects) }

type Resolver struct {
	permissions store.PermissionStore
}

func NewResolver(permissions store.PermissionStore) *Resolver {
	return &Resolver{permissions: permissions}
}

// Resolve computes the scope of one call. Results are never cached.
func (r *Resolver) Resolve(ctx context.Context, id Identity, checkAuthorization bool) (Scope, error) {
	if id.Root || !checkAuthorization {
		return Unrestricted(), nil
	}

	groups := slices.Clone(id.GroupUUIDs)
	if !slices.Contains(groups, model.GroupAnyone) {
		groups = append(groups, model.GroupAnyone)
	}
	projects, err := r.permissions.VisibleProjectUUIDs(ctx, id.UserUUID, groups)
	if err != nil {
		return Scope{}, fmt.Errorf("resolving visible projects: %w", err)
	}
	return Restricted(projects...), nil
}
