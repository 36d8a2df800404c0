package store

import (
	"context"
	"slices"
	"sync"
)

// Grant gives a user or a group browse access to a project.
// Exactly one of UserUUID and GroupUUID is set.
type Grant struct {
	ProjectUUID string `json:"projectUuid"`
	UserUUID    string `json:"userUuid,omitempty"`
	GroupUUID   string `json:"groupUuid,omitempty"`
}

type MemoryPermissionStore struct {
	mu     sync.RWMutex
	grants []Grant
}

func NewMemoryPermissionStore(grants ...Grant) *MemoryPermissionStore {
	return &MemoryPermissionStore{grants: slices.Clone(grants)}
}

func (s *MemoryPermissionStore) Grant(g Grant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants = append(s.grants, g)
}

func (s *MemoryPermissionStore) VisibleProjectUUIDs(_ context.Context, userUUID string, groupUUIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, g := range s.grants {
		if (userUUID != "" && g.UserUUID == userUUID) || (g.GroupUUID != "" && slices.Contains(groupUUIDs, g.GroupUUID)) {
			seen[g.ProjectUUID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out, nil
}

type MemoryViewStore struct {
	mu    sync.RWMutex
	views map[string][]string
}

func NewMemoryViewStore(views map[string][]string) *MemoryViewStore {
	s := &MemoryViewStore{views: make(map[string][]string, len(views))}
	for k, v := range views {
		s.views[k] = slices.Clone(v)
	}
	return s
}

func (s *MemoryViewStore) SetMembers(viewUUID string, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[viewUUID] = slices.Clone(members)
}

func (s *MemoryViewStore) Members(_ context.Context, viewUUID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := slices.Clone(s.views[viewUUID])
	slices.Sort(members)
	return members, nil
}
