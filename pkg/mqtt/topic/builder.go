package topic

import (
	"fmt"
)

// Topic segments published by the console. Subscribers depend on them.
const (
	// SegmentSupercar groups every topic that belongs to a vehicle controller.
	SegmentSupercar = "supercar"

	// SuffixStatus carries the latest status snapshot.
	// Structure: {root}/supercar/{deviceID}/status
	SuffixStatus = "status"
)

// Builder encapsulates the logic for constructing MQTT topic strings.
type Builder struct {
	// root is the base namespace for all topics (e.g., "iov/v1").
	root string
}

// NewBuilder creates a new Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Status returns the topic status snapshots of deviceID are published on.
func (b *Builder) Status(deviceID string) string {
	return b.build(deviceID, SuffixStatus)
}

// build constructs {root}/supercar/{id}/{suffix}.
func (b *Builder) build(id, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s", b.root, SegmentSupercar, id, suffix)
}
