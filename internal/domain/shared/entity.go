package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity holds the identity and timestamps shared by every stored record.
// Timestamps are kept in UTC.
type Entity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEntity returns an Entity with a fresh ID
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch records a modification
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now().UTC()
}

// Versioned is an Entity guarded by optimistic locking. Version is the stored
// version the entity was loaded at; a save lands only on a row still at that
// version and stores Version+1.
type Versioned struct {
	Entity
	Version int
	changed bool
}

// NewVersioned returns a Versioned entity at version 1
func NewVersioned() Versioned {
	return Versioned{Entity: NewEntity(), Version: 1}
}

// Touch records a modification. The version moves only when the change is saved.
func (v *Versioned) Touch() {
	v.Entity.Touch()
	v.changed = true
}

// Changed reports whether the entity was modified since it was loaded or saved
func (v *Versioned) Changed() bool {
	return v.changed
}

// MarkSaved records that the entity was stored at version
func (v *Versioned) MarkSaved(version int) {
	v.Version = version
	v.changed = false
}
