package types

import (
	"time"

	"github.com/google/uuid"
)

type Invoice struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;index;column:customer_id" json:"customer_id"`
	Number     string     `gorm:"not null;column:number" json:"number"`
	AmountCents int64     `gorm:"not null;default:0;column:amount_cents" json:"amount_cents"`
	Currency   string     `gorm:"not null;default:'EUR';column:currency" json:"currency"`
	Status     string     `gorm:"not null;default:'draft';column:status" json:"status"`
	DueAt      *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`
	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null" json:"updated_at"`
}

func (Invoice) TableName() string {
	return "invoice"
}
