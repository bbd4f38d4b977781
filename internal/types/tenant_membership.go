package types

import (
	"time"

	"github.com/google/uuid"
)

type TenantMembership struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Role      string     `gorm:"not null;default:'member';column:role" json:"role"`
	IsActive  bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	DeletedAt *time.Time `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

func (TenantMembership) TableName() string {
	return "tenant_membership"
}
