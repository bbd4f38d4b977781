package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mkarlberg/slotbase-backend/internal/middleware"
	"github.com/mkarlberg/slotbase-backend/internal/services"
)

type DeletionHandler struct {
	jobs services.DeletionJobService
}

func NewDeletionHandler(jobs services.DeletionJobService) *DeletionHandler {
	return &DeletionHandler{jobs: jobs}
}

type tenantWipeRequest struct {
	Confirmation string `json:"confirmation" binding:"required"`
	Reason       string `json:"reason" binding:"required"`
}

// POST /api/admin/tenants/:id/delete
func (h *DeletionHandler) DeleteTenant(c *gin.Context) {
	requestedBy, ok := middleware.RequestUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "not_authenticated", fmt.Errorf("not authenticated"))
		return
	}
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", err)
		return
	}
	var req tenantWipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.jobs.EnqueueTenantWipe(c.Request.Context(), tenantID, requestedBy, req.Reason, req.Confirmation)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

type userDeletionRequest struct {
	Mode   string `json:"mode" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// POST /api/admin/tenants/:id/users/:userId/delete
func (h *DeletionHandler) DeleteUser(c *gin.Context) {
	requestedBy, ok := middleware.RequestUserID(c)
	if !ok {
		RespondError(c, http.StatusUnauthorized, "not_authenticated", fmt.Errorf("not authenticated"))
		return
	}
	tenantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_tenant_id", err)
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_user_id", err)
		return
	}
	var req userDeletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.jobs.EnqueueUserDeletion(c.Request.Context(), tenantID, userID, req.Mode, requestedBy, req.Reason)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "enqueue_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// GET /api/admin/deletion-jobs/:id
func (h *DeletionHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// POST /api/admin/deletion-jobs/:id/cancel
func (h *DeletionHandler) CancelJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return
	}
	job, err := h.jobs.CancelJob(c.Request.Context(), jobID)
	if err != nil {
		RespondError(c, http.StatusConflict, "cancel_failed", err)
		return
	}
	RespondOK(c, gin.H{"job": job})
}
