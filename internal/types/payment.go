package types

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	InvoiceID   uuid.UUID `gorm:"type:uuid;index;column:invoice_id" json:"invoice_id"`
	AmountCents int64     `gorm:"not null;default:0;column:amount_cents" json:"amount_cents"`
	Method      string    `gorm:"not null;column:method" json:"method"`
	Reference   string    `gorm:"column:reference" json:"reference"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payment"
}
