package store

import (
	"context"
	"fmt"

	"basegraph.app/issuesearch/core/db"
)

// BrowsePermission is the grant that makes a project's issues visible.
const BrowsePermission = "user"

const visibleProjectsSQL = `
SELECT DISTINCT project_uuid
FROM project_permissions
WHERE permission = $1
  AND (($2 <> '' AND user_uuid = $2) OR group_uuid = ANY($3))
ORDER BY project_uuid`

type pgPermissionStore struct {
	q db.Querier
}

func NewPermissionStore(q db.Querier) PermissionStore {
	return &pgPermissionStore{q: q}
}

func (s *pgPermissionStore) VisibleProjectUUIDs(ctx context.Context, userUUID string, groupUUIDs []string) ([]string, error) {
	if groupUUIDs == nil {
		groupUUIDs = []string{}
	}
	rows, err := s.q.Query(ctx, visibleProjectsSQL, BrowsePermission, userUUID, groupUUIDs)
	if err != nil {
		return nil, fmt.Errorf("querying visible projects: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, fmt.Errorf("scanning project uuid: %w", err)
		}
		out = append(out, uuid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating visible projects: %w", err)
	}
	return out, nil
}
