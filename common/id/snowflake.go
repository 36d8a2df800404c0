package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
// Only the first call has an effect.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new globally unique int64 ID using the Snowflake algorithm.
// IDs are time-ordered and unique across distributed instances. Without a
// prior Init the node defaults to 0.
func New() int64 {
	_ = Init(0)
	return node.Generate().Int64()
}

// String renders an ID the way it appears in logs and CLI output.
func String(v int64) string {
	return snowflake.ID(v).String()
}
