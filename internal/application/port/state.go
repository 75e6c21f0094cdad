package port

import (
	"context"
	"time"
)

// CollapsedState is the persisted set of collapsed node ids.
type CollapsedState struct {
	IDs     []string
	SavedAt time.Time
}

// StateStore persists the small amount of engine state that survives a
// restart: the collapsed-node set and the last-good engine configuration.
// The engine only ever sees these as plain records; storage format belongs
// to the implementation.
type StateStore interface {
	SaveCollapsed(ctx context.Context, state CollapsedState) error
	LoadCollapsed(ctx context.Context) (CollapsedState, error)

	// SaveEngineConfig stores an opaque serialized configuration blob.
	SaveEngineConfig(ctx context.Context, raw []byte) error
	// LoadEngineConfig returns the stored blob, or ok=false when none exists.
	LoadEngineConfig(ctx context.Context) (raw []byte, ok bool, err error)
}
