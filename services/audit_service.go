package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
)

type AuditService interface {
	List(ctx context.Context, filter models.AuditFilter) (models.AuditListResponse, error)
	Export(ctx context.Context, w io.Writer) error
}

type auditService struct {
	auditRepo repositories.AuditRepository
}

func NewAuditService(auditRepo repositories.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) List(ctx context.Context, filter models.AuditFilter) (models.AuditListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	entries, total, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return models.AuditListResponse{}, err
	}
	return models.AuditListResponse{
		Entries:    entries,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// Export пишет весь журнал в хронологическом порядке как JSON-массив.
// Этим же списком кормится внешний генератор отчётов.
func (s *auditService) Export(ctx context.Context, w io.Writer) error {
	entries, err := s.auditRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	return enc.Encode(entries)
}
