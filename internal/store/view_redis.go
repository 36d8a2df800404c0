package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"
)

// DefaultViewKeyPrefix namespaces view membership sets.
const DefaultViewKeyPrefix = "issuesearch:view:"

type setReader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

type redisViewStore struct {
	client    setReader
	keyPrefix string
}

// NewRedisViewStore reads view members from one Redis set per view, keyed by
// keyPrefix followed by the view UUID.
func NewRedisViewStore(client redis.UniversalClient, keyPrefix string) ViewStore {
	return newRedisViewStore(client, keyPrefix)
}

func newRedisViewStore(client setReader, keyPrefix string) *redisViewStore {
	if keyPrefix == "" {
		keyPrefix = DefaultViewKeyPrefix
	}
	return &redisViewStore{client: client, keyPrefix: keyPrefix}
}

func (s *redisViewStore) Members(ctx context.Context, viewUUID string) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.keyPrefix+viewUUID).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("reading members of view %s: %w", viewUUID, err)
	}
	slices.Sort(members)
	return members, nil
}
