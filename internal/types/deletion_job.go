package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DeletionJobStatusQueued    = "queued"
	DeletionJobStatusRunning   = "running"
	DeletionJobStatusCompleted = "completed"
	DeletionJobStatusFailed    = "failed"
	DeletionJobStatusCancelled = "cancelled"
)

const (
	DeletionTargetTenant = "tenant"
	DeletionTargetUser   = "user"
)

const (
	DeletionModeSoftDelete = "soft_delete"
	DeletionModeHardDelete = "hard_delete"
	DeletionModeAnonymize  = "anonymize"
)

// DeletionJob is one destructive-operation request. Rows are only ever
// inserted by the enqueue service and mutated by the claiming worker; they
// are never deleted, so completed jobs double as deletion history.
type DeletionJob struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TargetType   string         `gorm:"not null;index;column:target_type" json:"target_type"`
	TargetID     uuid.UUID      `gorm:"type:uuid;not null;index;column:target_id" json:"target_id"`
	TenantID     *uuid.UUID     `gorm:"type:uuid;index;column:tenant_id" json:"tenant_id,omitempty"`
	Mode         string         `gorm:"column:mode" json:"mode,omitempty"`
	Status       string         `gorm:"not null;index;column:status" json:"status"`
	Progress     int            `gorm:"not null;default:0;column:progress" json:"progress"`
	CurrentStep  string         `gorm:"column:current_step" json:"current_step,omitempty"`
	Summary      datatypes.JSON `gorm:"column:summary;type:jsonb" json:"summary,omitempty"`
	ErrorMessage string         `gorm:"column:error_message" json:"error_message,omitempty"`
	RequestedBy  uuid.UUID      `gorm:"type:uuid;not null;column:requested_by" json:"requested_by"`
	Reason       string         `gorm:"not null;column:reason" json:"reason"`
	QueuedAt     time.Time      `gorm:"not null;index;column:queued_at" json:"queued_at"`
	StartedAt    *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	HeartbeatAt  *time.Time     `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (DeletionJob) TableName() string {
	return "deletion_job"
}

// IsTerminal reports whether the job has reached a state that must never be
// mutated again.
func (j *DeletionJob) IsTerminal() bool {
	switch j.Status {
	case DeletionJobStatusCompleted, DeletionJobStatusFailed, DeletionJobStatusCancelled:
		return true
	default:
		return false
	}
}
