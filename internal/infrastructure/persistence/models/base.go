package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/udes/eexchange/internal/domain/shared"
)

// BaseModel carries the id and timestamp columns of every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m *BaseModel) entity() shared.Entity {
	return shared.Entity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.Entity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// VersionedModel adds the optimistic-locking version column
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func (m *VersionedModel) versioned() shared.Versioned {
	return shared.Versioned{Entity: m.entity(), Version: m.Version}
}

func (m *VersionedModel) setVersioned(v shared.Versioned) {
	m.setEntity(v.Entity)
	m.Version = v.Version
}

// cloneID copies an optional id so models and aggregates never share a pointer
func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	out := *id
	return &out
}
