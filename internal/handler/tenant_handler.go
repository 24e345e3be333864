package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zerotrust-ops/config-management/internal/service"
	"github.com/zerotrust-ops/config-management/pkg/utils"
)

type TenantHandler struct {
	tenantService *service.TenantService
}

type createTenantRequest struct {
	Name         string `json:"name" binding:"required"`
	APIBaseURL   string `json:"api_base_url" binding:"required,url"`
	AuthBaseURL  string `json:"auth_base_url" binding:"required,url"`
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
	CustomerID   string `json:"customer_id"`
	Notes        string `json:"notes"`
}

type updateTenantRequest struct {
	APIBaseURL   *string `json:"api_base_url"`
	AuthBaseURL  *string `json:"auth_base_url"`
	ClientID     *string `json:"client_id"`
	ClientSecret *string `json:"client_secret"`
	CustomerID   *string `json:"customer_id"`
	Notes        *string `json:"notes"`
	IsActive     *bool   `json:"is_active"`
}

func NewTenantHandler(tenantService *service.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.ErrCodeValidationFailed, "invalid request: %v", err)
		return
	}

	tenant, err := h.tenantService.Create(service.CreateTenantParams{
		Name:         req.Name,
		APIBaseURL:   req.APIBaseURL,
		AuthBaseURL:  req.AuthBaseURL,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		CustomerID:   req.CustomerID,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, service.ErrTenantExists) {
			utils.Error(c, utils.ErrCodeAlreadyExists, "tenant %q already exists", req.Name)
			return
		}
		utils.HandleError(c, err, "failed to create tenant")
		return
	}

	utils.Success(c, http.StatusCreated, tenant)
}

func (h *TenantHandler) GetTenant(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	tenant, err := h.tenantService.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "tenant not found")
			return
		}
		utils.HandleError(c, err, "failed to load tenant")
		return
	}

	utils.Success(c, http.StatusOK, tenant)
}

func (h *TenantHandler) ListTenants(c *gin.Context) {
	tenants, err := h.tenantService.List()
	if err != nil {
		utils.HandleError(c, err, "failed to list tenants")
		return
	}
	utils.Success(c, http.StatusOK, tenants)
}

func (h *TenantHandler) UpdateTenant(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	var req updateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, utils.ErrCodeValidationFailed, "invalid request: %v", err)
		return
	}

	tenant, err := h.tenantService.Update(id, service.UpdateTenantParams{
		APIBaseURL:   req.APIBaseURL,
		AuthBaseURL:  req.AuthBaseURL,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		CustomerID:   req.CustomerID,
		Notes:        req.Notes,
		IsActive:     req.IsActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "tenant not found")
			return
		}
		utils.HandleError(c, err, "failed to update tenant")
		return
	}

	utils.Success(c, http.StatusOK, tenant)
}

func (h *TenantHandler) DeleteTenant(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}

	if err := h.tenantService.Delete(id); err != nil {
		if errors.Is(err, service.ErrTenantNotFound) {
			utils.Error(c, utils.ErrCodeNotFound, "tenant not found")
			return
		}
		utils.HandleError(c, err, "failed to delete tenant")
		return
	}

	utils.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// ClearDisabledTypes drops the entitlement denylist for one product so the
// next import retries every resource type.
func (h *TenantHandler) ClearDisabledTypes(c *gin.Context) {
	id, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		utils.Error(c, utils.ErrCodeInvalidInput, "invalid tenant id")
		return
	}
	product := c.Param("product")

	if err := h.tenantService.ClearDisabledTypes(id, product); err != nil {
		switch {
		case errors.Is(err, service.ErrTenantNotFound):
			utils.Error(c, utils.ErrCodeNotFound, "tenant not found")
		case errors.Is(err, service.ErrUnknownProduct):
			utils.Error(c, utils.ErrCodeInvalidInput, "unknown product %q", product)
		default:
			utils.HandleError(c, err, "failed to clear disabled types")
		}
		return
	}

	utils.Success(c, http.StatusOK, gin.H{"cleared": product})
}
