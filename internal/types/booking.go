package types

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;column:customer_id" json:"customer_id"`
	ServiceID  uuid.UUID `gorm:"type:uuid;index;column:service_id" json:"service_id"`
	StartsAt   time.Time `gorm:"not null;column:starts_at" json:"starts_at"`
	EndsAt     time.Time `gorm:"not null;column:ends_at" json:"ends_at"`
	Status     string    `gorm:"not null;default:'confirmed';column:status" json:"status"`
	CreatedBy  uuid.UUID `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (Booking) TableName() string {
	return "booking"
}
