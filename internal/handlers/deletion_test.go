package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkarlberg/slotbase-backend/internal/logger"
	"github.com/mkarlberg/slotbase-backend/internal/middleware"
	"github.com/mkarlberg/slotbase-backend/internal/repos"
	"github.com/mkarlberg/slotbase-backend/internal/services"
	"github.com/mkarlberg/slotbase-backend/internal/types"
)

const testSecret = "handler-test-secret"

type handlerFixture struct {
	router *gin.Engine
	db     *gorm.DB
	admin  uuid.UUID
	token  string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	svc := services.NewDeletionJobService(
		db,
		log,
		repos.NewDeletionJobRepo(db, log),
		repos.NewTenantRepo(db, log),
		repos.NewUserRepo(db, log),
		repos.NewTenantMembershipRepo(db, log),
	)

	admin := uuid.New()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   admin.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	router := gin.New()
	auth := middleware.NewAuthMiddleware(log, testSecret)
	handler := NewDeletionHandler(svc)
	group := router.Group("/api/admin")
	group.Use(auth.RequireAuth())
	{
		group.POST("/tenants/:id/delete", handler.DeleteTenant)
		group.POST("/tenants/:id/users/:userId/delete", handler.DeleteUser)
		group.GET("/deletion-jobs/:id", handler.GetJob)
		group.POST("/deletion-jobs/:id/cancel", handler.CancelJob)
	}

	return &handlerFixture{router: router, db: db, admin: admin, token: token}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) seedTenant(t *testing.T, name string) *types.Tenant {
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
	require.NoError(t, f.db.Create(tenant).Error)
	return tenant
}

type jobEnvelope struct {
	Job types.DeletionJob `json:"job"`
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) types.DeletionJob {
	t.Helper()
	var env jobEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Job
}

func TestDeleteTenantEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	tenant := f.seedTenant(t, "Acme GmbH")

	t.Run("rejects unauthenticated requests", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/admin/tenants/"+tenant.ID.String()+"/delete",
			gin.H{"confirmation": "Acme GmbH", "reason": "contract terminated"}, false)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed tenant id", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/admin/tenants/not-a-uuid/delete",
			gin.H{"confirmation": "Acme GmbH", "reason": "contract terminated"}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects missing body fields", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/admin/tenants/"+tenant.ID.String()+"/delete",
			gin.H{"reason": "contract terminated"}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects wrong confirmation phrase", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/admin/tenants/"+tenant.ID.String()+"/delete",
			gin.H{"confirmation": "Acme", "reason": "contract terminated"}, true)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var env ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.Equal(t, "enqueue_failed", env.Error.Code)
		require.Contains(t, env.Error.Message, "confirmation phrase")
	})

	t.Run("accepts a valid wipe request", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/admin/tenants/"+tenant.ID.String()+"/delete",
			gin.H{"confirmation": "Acme GmbH", "reason": "contract terminated"}, true)
		require.Equal(t, http.StatusAccepted, rec.Code)

		job := decodeJob(t, rec)
		require.Equal(t, types.DeletionJobStatusQueued, job.Status)
		require.Equal(t, tenant.ID, job.TargetID)
		require.Equal(t, f.admin, job.RequestedBy)
	})
}

func TestUserDeletionEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	tenant := f.seedTenant(t, "Acme GmbH")
	user := &types.User{
		ID: uuid.New(), Email: "member@example.com", Password: "x",
		FirstName: "M", LastName: "Ember", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, f.db.Create(user).Error)
	require.NoError(t, f.db.Create(&types.TenantMembership{
		ID: uuid.New(), TenantID: tenant.ID, UserID: user.ID,
		Role: "member", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}).Error)

	path := "/api/admin/tenants/" + tenant.ID.String() + "/users/" + user.ID.String() + "/delete"

	rec := f.do(t, http.MethodPost, path, gin.H{"mode": "obliterate", "reason": "GDPR erasure request"}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, path, gin.H{"mode": types.DeletionModeHardDelete, "reason": "GDPR erasure request"}, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	job := decodeJob(t, rec)
	require.Equal(t, types.DeletionTargetUser, job.TargetType)
	require.Equal(t, types.DeletionModeHardDelete, job.Mode)
}

func TestJobStatusAndCancelEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	tenant := f.seedTenant(t, "Acme GmbH")

	rec := f.do(t, http.MethodPost, "/api/admin/tenants/"+tenant.ID.String()+"/delete",
		gin.H{"confirmation": "Acme GmbH", "reason": "contract terminated"}, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	queued := decodeJob(t, rec)

	rec = f.do(t, http.MethodGet, "/api/admin/deletion-jobs/"+queued.ID.String(), nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, queued.ID, decodeJob(t, rec).ID)

	rec = f.do(t, http.MethodGet, "/api/admin/deletion-jobs/"+uuid.NewString(), nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/admin/deletion-jobs/"+queued.ID.String()+"/cancel", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, types.DeletionJobStatusCancelled, decodeJob(t, rec).Status)

	// cancel is queued-only; a second attempt conflicts
	rec = f.do(t, http.MethodPost, "/api/admin/deletion-jobs/"+queued.ID.String()+"/cancel", nil, true)
	require.Equal(t, http.StatusConflict, rec.Code)
}
