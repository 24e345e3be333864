package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"github.com/zerotrust-ops/config-management/internal/service"
	"github.com/zerotrust-ops/config-management/pkg/utils"
)

type AuditHandler struct {
	auditService *service.AuditService
}

func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) ListEvents(c *gin.Context) {
	params := repository.ListAuditParams{
		Product:   c.Query("product"),
		Operation: c.Query("operation"),
		Status:    c.Query("status"),
		Page:      utils.ParseInt(c.DefaultQuery("page", "1"), 1),
		Limit:     utils.ParseInt(c.DefaultQuery("limit", "50"), 50),
	}
	if raw := c.Query("tenant_id"); raw != "" {
		id, err := utils.ParseUUID(raw)
		if err != nil {
			utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
			return
		}
		params.TenantID = &id
	}

	events, total, err := h.auditService.List(params)
	if err != nil {
		utils.HandleError(c, err, "failed to list audit events")
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"items": events,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	})
}
