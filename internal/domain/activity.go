package domain

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// Activity is an immutable audit entry. EntityID is nil only for batch
// summary entries that do not belong to a single record.
type Activity struct {
	ID          uuid.UUID
	EntityKind  EntityKind
	EntityID    *uuid.UUID
	Action      ActivityAction
	Description string
	PerformedBy string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Clone returns a copy with its own metadata map.
func (a *Activity) Clone() *Activity {
	out := *a
	if a.EntityID != nil {
		id := *a.EntityID
		out.EntityID = &id
	}
	out.Metadata = maps.Clone(a.Metadata)
	return &out
}

// MetadataString returns the string stored under key, if any.
func (a *Activity) MetadataString(key string) (string, bool) {
	v, ok := a.Metadata[key].(string)
	return v, ok
}
