package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/service"
	"github.com/zerotrust-ops/config-management/pkg/utils"
)

type PushHandler struct {
	pushService     *service.PushService
	snapshotService *service.SnapshotService
	locker          *service.TenantLocker
}

type pushSnapshotRequest struct {
	SnapshotID string `json:"snapshot_id" binding:"required"`
}

func NewPushHandler(pushService *service.PushService, snapshotService *service.SnapshotService, locker *service.TenantLocker) *PushHandler {
	return &PushHandler{
		pushService:     pushService,
		snapshotService: snapshotService,
		locker:          locker,
	}
}

// PushSnapshot replays a stored snapshot onto the target tenant in the URL.
func (h *PushHandler) PushSnapshot(c *gin.Context) {
	targetID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	var req pushSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.ErrCodeValidationFailed, "invalid request: %v", err)
		return
	}
	snapshotID, err := utils.ParseUUID(req.SnapshotID)
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid snapshot id")
		return
	}

	baseline, err := h.snapshotService.Export(snapshotID)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "snapshot not found")
			return
		}
		utils.HandleError(c, err, "failed to load snapshot")
		return
	}

	h.run(c, baseline, targetID)
}

// PushBaseline replays an uploaded baseline document onto the target tenant.
func (h *PushHandler) PushBaseline(c *gin.Context) {
	targetID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<20))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "failed to read request body")
		return
	}
	baseline, err := service.ParseBaseline(body)
	if err != nil {
		utils.Error(c, utils.ErrCodeValidationFailed, "invalid baseline: %v", err)
		return
	}

	h.run(c, baseline, targetID)
}

func (h *PushHandler) run(c *gin.Context, baseline *service.BaselineDocument, tenantID uuid.UUID) {
	unlock, ok := h.locker.TryLock(tenantID)
	if !ok {
		utils.Error(c, utils.ErrCodeBusy, "another operation is running for this tenant")
		return
	}
	defer unlock()

	records, err := h.pushService.PushBaseline(c.Request.Context(), baseline, tenantID, nil)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTenantNotFound):
			utils.Error(c, utils.ErrCodeNotFound, "target tenant not found")
		case errors.Is(err, service.ErrPushNotSupported):
			utils.Error(c, utils.ErrCodeInvalidInput, "product %q does not support push", baseline.Product)
		default:
			utils.HandleError(c, err, "push failed")
		}
		return
	}

	utils.Success(c, http.StatusOK, gin.H{"records": records})
}
