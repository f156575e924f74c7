package model

import "time"

// ChangeKind identifies what happened to a container's proxy entry.
type ChangeKind string

const (
	ChangeKindSet    ChangeKind = "set"
	ChangeKindRemove ChangeKind = "remove"
)

// ChangeEvent is published after a mutation has been persisted.
type ChangeEvent struct {
	Kind        ChangeKind
	ContainerID string
	Proxy       *ProxyConfig // nil for removals
	At          time.Time
}
