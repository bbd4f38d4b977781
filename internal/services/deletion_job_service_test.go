package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

func newTestService(t *testing.T) (DeletionJobService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Tenant{},
		&types.User{},
		&types.TenantMembership{},
		&types.DeletionJob{},
	))
	log, err := logger.New("development")
	require.NoError(t, err)

	svc := NewDeletionJobService(
		db,
		log,
		repos.NewDeletionJobRepo(db, log),
		repos.NewTenantRepo(db, log),
		repos.NewUserRepo(db, log),
		repos.NewTenantMembershipRepo(db, log),
	)
	return svc, db
}

func seedTenant(t *testing.T, db *gorm.DB, name string) *types.Tenant {
	t.Helper()
	tenant := &types.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      name,
		Status:    types.TenantStatusActive,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func seedMember(t *testing.T, db *gorm.DB, tenantID uuid.UUID) *types.User {
	t.Helper()
	user := &types.User{
		ID:        uuid.New(),
		Email:     uuid.NewString() + "@example.com",
		Password:  "x",
		FirstName: "Test",
		LastName:  "User",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(user).Error)
	require.NoError(t, db.Create(&types.TenantMembership{
		ID:        uuid.New(),
		TenantID:  tenantID,
		UserID:    user.ID,
		Role:      "member",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}).Error)
	return user
}

func TestEnqueueTenantWipe(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, "Acme GmbH")
	admin := uuid.New()

	t.Run("valid request queues a job", func(t *testing.T) {
		job, err := svc.EnqueueTenantWipe(ctx, tenant.ID, admin, "contract terminated, full offboarding", "Acme GmbH")
		require.NoError(t, err)
		require.Equal(t, types.DeletionJobStatusQueued, job.Status)
		require.Equal(t, types.DeletionTargetTenant, job.TargetType)
		require.Equal(t, tenant.ID, job.TargetID)
		require.NotNil(t, job.TenantID)
		require.Equal(t, tenant.ID, *job.TenantID)
		require.Empty(t, job.Mode)
		require.False(t, job.QueuedAt.IsZero())
	})

	t.Run("duplicate while runnable is rejected", func(t *testing.T) {
		_, err := svc.EnqueueTenantWipe(ctx, tenant.ID, admin, "contract terminated, full offboarding", "Acme GmbH")
		require.ErrorContains(t, err, "already queued or running")
	})
}

func TestEnqueueTenantWipeValidation(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, "Acme GmbH")
	admin := uuid.New()

	tests := []struct {
		name         string
		tenantID     uuid.UUID
		requestedBy  uuid.UUID
		reason       string
		confirmation string
		want         string
	}{
		{"missing tenant id", uuid.Nil, admin, "contract terminated", "Acme GmbH", "missing tenant id"},
		{"missing requester", tenant.ID, uuid.Nil, "contract terminated", "Acme GmbH", "missing requesting user"},
		{"short reason", tenant.ID, admin, "because", "Acme GmbH", "at least 10 characters"},
		{"whitespace-padded reason", tenant.ID, admin, "   spaces   ", "Acme GmbH", "at least 10 characters"},
		{"unknown tenant", uuid.New(), admin, "contract terminated", "Acme GmbH", "tenant not found"},
		{"wrong confirmation", tenant.ID, admin, "contract terminated", "Acme", "confirmation phrase"},
		{"empty confirmation", tenant.ID, admin, "contract terminated", "", "confirmation phrase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := svc.EnqueueTenantWipe(ctx, tt.tenantID, tt.requestedBy, tt.reason, tt.confirmation)
			require.Nil(t, job)
			require.ErrorContains(t, err, tt.want)
		})
	}

	// confirmation is trimmed before comparing
	job, err := svc.EnqueueTenantWipe(ctx, tenant.ID, admin, "contract terminated", "  Acme GmbH  ")
	require.NoError(t, err)
	require.NotNil(t, job)
}

func TestEnqueueUserDeletion(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, "Acme GmbH")
	member := seedMember(t, db, tenant.ID)
	stranger := &types.User{
		ID: uuid.New(), Email: "stranger@example.com", Password: "x",
		FirstName: "S", LastName: "Tranger", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(stranger).Error)
	admin := uuid.New()

	t.Run("valid request queues a job", func(t *testing.T) {
		job, err := svc.EnqueueUserDeletion(ctx, tenant.ID, member.ID, types.DeletionModeAnonymize, admin, "GDPR erasure request")
		require.NoError(t, err)
		require.Equal(t, types.DeletionTargetUser, job.TargetType)
		require.Equal(t, member.ID, job.TargetID)
		require.Equal(t, types.DeletionModeAnonymize, job.Mode)
	})

	t.Run("duplicate while runnable is rejected", func(t *testing.T) {
		_, err := svc.EnqueueUserDeletion(ctx, tenant.ID, member.ID, types.DeletionModeSoftDelete, admin, "GDPR erasure request")
		require.ErrorContains(t, err, "already queued or running")
	})

	t.Run("invalid mode is rejected", func(t *testing.T) {
		_, err := svc.EnqueueUserDeletion(ctx, tenant.ID, member.ID, "obliterate", admin, "GDPR erasure request")
		require.ErrorContains(t, err, "invalid deletion mode")
	})

	t.Run("non-member is rejected", func(t *testing.T) {
		_, err := svc.EnqueueUserDeletion(ctx, tenant.ID, stranger.ID, types.DeletionModeSoftDelete, admin, "GDPR erasure request")
		require.ErrorContains(t, err, "no membership")
	})
}

func TestCancelJob(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, "Acme GmbH")
	admin := uuid.New()

	queued, err := svc.EnqueueTenantWipe(ctx, tenant.ID, admin, "contract terminated", "Acme GmbH")
	require.NoError(t, err)

	cancelled, err := svc.CancelJob(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, types.DeletionJobStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)

	// cancelled is terminal
	_, err = svc.CancelJob(ctx, queued.ID)
	require.ErrorContains(t, err, "only queued jobs")

	// running jobs cannot be cancelled
	running, err := svc.EnqueueTenantWipe(ctx, tenant.ID, admin, "contract terminated", "Acme GmbH")
	require.NoError(t, err)
	require.NoError(t, db.Model(&types.DeletionJob{}).
		Where("id = ?", running.ID).
		Update("status", types.DeletionJobStatusRunning).Error)
	_, err = svc.CancelJob(ctx, running.ID)
	require.ErrorContains(t, err, "only queued jobs")
}

func TestGetJob(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	tenant := seedTenant(t, db, "Acme GmbH")

	queued, err := svc.EnqueueTenantWipe(ctx, tenant.ID, uuid.New(), "contract terminated", "Acme GmbH")
	require.NoError(t, err)

	got, err := svc.GetJob(ctx, queued.ID)
	require.NoError(t, err)
	require.Equal(t, queued.ID, got.ID)

	_, err = svc.GetJob(ctx, uuid.New())
	require.ErrorContains(t, err, "job not found")

	_, err = svc.GetJob(ctx, uuid.Nil)
	require.ErrorContains(t, err, "missing job id")
}
