package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"github.com/zerotrust-ops/config-management/internal/service"
	"github.com/zerotrust-ops/config-management/pkg/utils"
)

type ImportHandler struct {
	importService *service.ImportService
	syncLogRepo   *repository.SyncLogRepository
	resourceRepo  *repository.ResourceRepository
	locker        *service.TenantLocker
}

type triggerImportRequest struct {
	Product string   `json:"product" binding:"required"`
	Types   []string `json:"types"`
}

func NewImportHandler(
	importService *service.ImportService,
	syncLogRepo *repository.SyncLogRepository,
	resourceRepo *repository.ResourceRepository,
	locker *service.TenantLocker,
) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		syncLogRepo:   syncLogRepo,
		resourceRepo:  resourceRepo,
		locker:        locker,
	}
}

// TriggerImport runs an import synchronously and returns the finished sync
// log. Concurrent runs against the same tenant are rejected.
func (h *ImportHandler) TriggerImport(c *gin.Context) {
	tenantID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	var req triggerImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.ErrCodeValidationFailed, "invalid request: %v", err)
		return
	}

	unlock, ok := h.locker.TryLock(tenantID)
	if !ok {
		utils.Error(c, utils.ErrCodeBusy, "another operation is running for this tenant")
		return
	}
	defer unlock()

	syncLog, err := h.importService.Run(c.Request.Context(), tenantID, req.Product, service.ImportOptions{
		Types: req.Types,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTenantNotFound):
			utils.Error(c, utils.ErrCodeNotFound, "tenant not found")
		case errors.Is(err, service.ErrUnknownProduct):
			utils.Error(c, utils.ErrCodeInvalidInput, "unknown product %q", req.Product)
		case errors.Is(err, service.ErrTenantInactive):
			utils.Error(c, utils.ErrCodeInvalidInput, "tenant is inactive")
		default:
			utils.HandleError(c, err, "import failed")
		}
		return
	}

	utils.Success(c, http.StatusOK, syncLog)
}

func (h *ImportHandler) ListSyncLogs(c *gin.Context) {
	tenantID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}
	product := c.Query("product")
	limit := utils.ParseInt(c.DefaultQuery("limit", "20"), 20)

	logs, err := h.syncLogRepo.List(tenantID, product, limit)
	if err != nil {
		utils.HandleError(c, err, "failed to list sync logs")
		return
	}
	utils.Success(c, http.StatusOK, logs)
}

func (h *ImportHandler) ListResources(c *gin.Context) {
	tenantID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	params := repository.ListResourcesParams{
		TenantID:       tenantID,
		Product:        c.Query("product"),
		ResourceType:   c.Query("type"),
		Search:         c.Query("search"),
		IncludeDeleted: c.Query("include_deleted") == "true",
		Page:           utils.ParseInt(c.DefaultQuery("page", "1"), 1),
		Limit:          utils.ParseInt(c.DefaultQuery("limit", "50"), 50),
	}
	if params.Product == "" {
		utils.Error(c, utils.ErrCodeInvalidInput, "product query parameter is required")
		return
	}

	rows, total, err := h.resourceRepo.List(params)
	if err != nil {
		utils.HandleError(c, err, "failed to list resources")
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"items": rows,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	})
}

// ResourceTypeCounts summarizes the live cache per resource type.
func (h *ImportHandler) ResourceTypeCounts(c *gin.Context) {
	tenantID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}
	product := c.Query("product")
	if product == "" {
		utils.Error(c, utils.ErrCodeInvalidInput, "product query parameter is required")
		return
	}

	counts, err := h.resourceRepo.TypeCounts(tenantID, product)
	if err != nil {
		utils.HandleError(c, err, "failed to count resources")
		return
	}
	utils.Success(c, http.StatusOK, counts)
}
