package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive  = "active"
	TenantStatusDeleted = "deleted"
)

type Tenant struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null;column:name" json:"name"`
	Slug      string     `gorm:"uniqueIndex;not null;column:slug" json:"slug"`
	Status    string     `gorm:"not null;default:'active';column:status" json:"status"`
	IsActive  bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenant"
}
