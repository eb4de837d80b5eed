package services

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/esportshub/esports-hub/models"
)

func seedAuditEntries(t *testing.T, repo *fakeAuditRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		entry := &models.AuditLog{
			Action:     models.AuditActionApproveRegistration,
			TargetType: "registration",
			TargetID:   i + 1,
			Details:    []byte(`{}`),
		}
		if err := repo.Create(context.Background(), nil, entry); err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}

func TestAuditList(t *testing.T) {
	ctx := context.Background()
	auditRepo := newFakeAuditRepo()
	svc := NewAuditService(auditRepo)
	seedAuditEntries(t, auditRepo, 25)

	t.Run("applies defaults", func(t *testing.T) {
		result, err := svc.List(ctx, models.AuditFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Page != 1 || result.Limit != 20 {
			t.Errorf("page=%d limit=%d, want defaults 1/20", result.Page, result.Limit)
		}
		if result.TotalCount != 25 {
			t.Errorf("total = %d, want 25", result.TotalCount)
		}
		if len(result.Entries) != 20 {
			t.Errorf("entries = %d, want 20", len(result.Entries))
		}
	})

	t.Run("second page", func(t *testing.T) {
		result, err := svc.List(ctx, models.AuditFilter{Page: 2, Limit: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Entries) != 5 {
			t.Errorf("entries = %d, want 5", len(result.Entries))
		}
	})
}

func TestAuditExport(t *testing.T) {
	auditRepo := newFakeAuditRepo()
	svc := NewAuditService(auditRepo)
	seedAuditEntries(t, auditRepo, 3)

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var exported []models.AuditLog
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(exported) != 3 {
		t.Errorf("exported = %d entries, want 3", len(exported))
	}
}
