// Package store reads the permission and view-membership data the issue
// search layer needs per call.
package store

import "context"

// PermissionStore lists the projects browsable by a user or any of its groups.
type PermissionStore interface {
	VisibleProjectUUIDs(ctx context.Context, userUUID string, groupUUIDs []string) ([]string, error)
}

// ViewStore resolves a portfolio, application or application branch to the
// project branches it aggregates. Unknown views have no members.
type ViewStore interface {
	Members(ctx context.Context, viewUUID string) ([]string, error)
}
