package types

import (
	"time"

	"github.com/google/uuid"
)

type Timesheet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;index;column:project_id" json:"project_id"`
	Minutes   int       `gorm:"not null;default:0;column:minutes" json:"minutes"`
	WorkedOn  time.Time `gorm:"not null;column:worked_on" json:"worked_on"`
	CreatedBy uuid.UUID `gorm:"type:uuid;not null;index;column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Timesheet) TableName() string {
	return "timesheet"
}
