package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zerotrust-ops/config-management/internal/service"
	"github.com/zerotrust-ops/config-management/pkg/utils"
)

type SnapshotHandler struct {
	snapshotService *service.SnapshotService
	diffService     *service.DiffService
}

type createSnapshotRequest struct {
	Product string `json:"product" binding:"required"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

func NewSnapshotHandler(snapshotService *service.SnapshotService, diffService *service.DiffService) *SnapshotHandler {
	return &SnapshotHandler{
		snapshotService: snapshotService,
		diffService:     diffService,
	}
}

func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	tenantID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	var req createSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.ErrCodeValidationFailed, "invalid request: %v", err)
		return
	}

	point, err := h.snapshotService.Create(tenantID, req.Product, req.Name, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTenantNotFound):
			utils.Error(c, utils.ErrCodeNotFound, "tenant not found")
		case errors.Is(err, service.ErrUnknownProduct):
			utils.Error(c, utils.ErrCodeInvalidInput, "unknown product %q", req.Product)
		default:
			utils.HandleError(c, err, "failed to create snapshot")
		}
		return
	}

	utils.Success(c, http.StatusCreated, point)
}

func (h *SnapshotHandler) ListSnapshots(c *gin.Context) {
	tenantID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	points, err := h.snapshotService.List(tenantID, c.Query("product"))
	if err != nil {
		utils.HandleError(c, err, "failed to list snapshots")
		return
	}
	utils.Success(c, http.StatusOK, points)
}

func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("snapshotId"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid snapshot id")
		return
	}

	point, err := h.snapshotService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "snapshot not found")
			return
		}
		utils.HandleError(c, err, "failed to load snapshot")
		return
	}
	utils.Success(c, http.StatusOK, point)
}

func (h *SnapshotHandler) DeleteSnapshot(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("snapshotId"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid snapshot id")
		return
	}

	if err := h.snapshotService.Delete(id); err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "snapshot not found")
			return
		}
		utils.HandleError(c, err, "failed to delete snapshot")
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// ExportSnapshot serves the snapshot as a downloadable baseline document.
func (h *SnapshotHandler) ExportSnapshot(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("snapshotId"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid snapshot id")
		return
	}

	doc, err := h.snapshotService.Export(id)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "snapshot not found")
			return
		}
		utils.HandleError(c, err, "failed to export snapshot")
		return
	}

	filename := fmt.Sprintf("%s-%s.json", doc.Product, doc.SnapshotName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, doc)
}

// DiffSnapshots compares two restore points, ?before=<id>&after=<id>.
func (h *SnapshotHandler) DiffSnapshots(c *gin.Context) {
	beforeID, err := utils.ParseUUID(c.Query("before"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid before snapshot id")
		return
	}
	afterID, err := utils.ParseUUID(c.Query("after"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid after snapshot id")
		return
	}

	diff, err := h.diffService.SnapshotVsSnapshot(beforeID, afterID)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "snapshot not found")
			return
		}
		utils.HandleError(c, err, "failed to compute diff")
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"changed": !diff.Empty(), "diff": diff})
}

// DiffAgainstCurrent compares one restore point with the live cache.
func (h *SnapshotHandler) DiffAgainstCurrent(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("snapshotId"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid snapshot id")
		return
	}

	diff, err := h.diffService.SnapshotVsCurrent(id)
	if err != nil {
		if errors.Is(err, service.ErrSnapshotNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "snapshot not found")
			return
		}
		utils.HandleError(c, err, "failed to compute diff")
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"changed": !diff.Empty(), "diff": diff})
}
