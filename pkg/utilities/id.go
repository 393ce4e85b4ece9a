package utilities

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out snowflake identifiers for one host. Hosts must use
// distinct node ids (0-1023) for the identifiers to stay unique.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator bound to the given host id.
func NewIDGenerator(hostID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(hostID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", hostID, err)
	}
	return &IDGenerator{node: node}, nil
}

// NextID returns the next identifier. Safe for concurrent use.
func (g *IDGenerator) NextID() int64 {
	return g.node.Generate().Int64()
}
