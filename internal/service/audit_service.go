package service

import (
	"log"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/repository"
)

const (
	AuditStatusSuccess = "success"
	AuditStatusFailed  = "failed"
)

type AuditService struct {
	auditRepo *repository.AuditRepository
}

func NewAuditService(auditRepo *repository.AuditRepository) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Record writes one audit event. Audit failures are logged and swallowed so
// they never break the operation being audited.
func (s *AuditService) Record(event *model.AuditEvent) {
	if err := s.auditRepo.Create(event); err != nil {
		log.Printf("failed to write audit event %s/%s: %v", event.Operation, event.Action, err)
	}
}

func (s *AuditService) RecordOperation(tenantID uuid.UUID, product, operation, action string, details model.JSONMap) {
	id := tenantID
	s.Record(&model.AuditEvent{
		TenantID:  &id,
		Product:   product,
		Operation: operation,
		Action:    action,
		Status:    AuditStatusSuccess,
		Details:   details,
	})
}

func (s *AuditService) RecordFailure(tenantID uuid.UUID, product, operation, action string, opErr error) {
	id := tenantID
	event := &model.AuditEvent{
		TenantID:  &id,
		Product:   product,
		Operation: operation,
		Action:    action,
		Status:    AuditStatusFailed,
	}
	if opErr != nil {
		event.ErrorMsg = opErr.Error()
	}
	s.Record(event)
}

func (s *AuditService) List(params repository.ListAuditParams) ([]*model.AuditEvent, int64, error) {
	return s.auditRepo.List(params)
}
