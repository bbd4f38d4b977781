package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLogEntry is the tenant-scoped audit trail stored in Postgres. It is
// itself wiped by a tenant deletion; the terminal job outcome goes to the
// Redis outbox instead (services.AuditEmitter).
type AuditLogEntry struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index;column:tenant_id" json:"tenant_id"`
	UserID     uuid.UUID      `gorm:"type:uuid;index;column:user_id" json:"user_id"`
	Action     string         `gorm:"not null;column:action" json:"action"`
	Resource   string         `gorm:"not null;column:resource" json:"resource"`
	ResourceID string         `gorm:"column:resource_id" json:"resource_id"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entry"
}
