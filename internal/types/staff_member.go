package types

import (
	"time"

	"github.com/google/uuid"
)

type StaffMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Role      string    `gorm:"column:role" json:"role"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (StaffMember) TableName() string {
	return "staff_member"
}
