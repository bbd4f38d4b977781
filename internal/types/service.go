package types

import (
	"time"

	"github.com/google/uuid"
)

type Service struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	Name        string    `gorm:"not null;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	PriceCents  int64     `gorm:"not null;default:0;column:price_cents" json:"price_cents"`
	DurationMin int       `gorm:"not null;default:60;column:duration_min" json:"duration_min"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Service) TableName() string {
	return "service"
}
