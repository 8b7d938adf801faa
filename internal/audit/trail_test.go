package audit

import (
	"context"
	"testing"
	"time"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/audit/domain"
	auditrepo "afyabima/backend/internal/audit/repository"
)

func TestRecord_AppendsWithMeta(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	trail := NewTrail(repo, func(ctx context.Context) (string, string) {
		return "10.0.0.1", "test-agent"
	})

	if err := trail.Record(context.Background(), "user-1", "claim_submitted", "claim", "claim-1", "amount=1000"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recs, err := trail.Query(context.Background(), domain.Filter{}, 1, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
	got := recs[0]
	if got.ActorID != "user-1" || got.Action != "claim_submitted" || got.ResourceID != "claim-1" {
		t.Errorf("record = %+v, want actor user-1 action claim_submitted resource claim-1", got)
	}
	if got.IP != "10.0.0.1" || got.UserAgent != "test-agent" {
		t.Errorf("meta = %q/%q, want 10.0.0.1/test-agent", got.IP, got.UserAgent)
	}
}

func TestRecord_StoreUnavailableFailsLoudly(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	repo.SetFailing(true)
	trail := NewTrail(repo, nil)

	err := trail.Record(context.Background(), "user-1", "claim_submitted", "claim", "c1", "")
	if err == nil {
		t.Fatal("Record should fail when the store is unavailable")
	}
	if apperr.KindOf(err) != apperr.KindDependency {
		t.Errorf("kind = %q, want %q", apperr.KindOf(err), apperr.KindDependency)
	}
}

func TestQuery_NewestFirstAndFiltered(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	trail := NewTrail(repo, nil)
	ctx := context.Background()

	for _, action := range []string{"policy_enrolled", "claim_submitted", "claim_processed"} {
		if err := trail.Record(ctx, "user-1", action, "claim", "c1", ""); err != nil {
			t.Fatalf("Record(%s): %v", action, err)
		}
	}

	recs, err := trail.Query(ctx, domain.Filter{}, 1, 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0].Action != "claim_processed" {
		t.Errorf("first record action = %q, want newest (claim_processed)", recs[0].Action)
	}

	recs, err = trail.Query(ctx, domain.Filter{Action: "claim_submitted"}, 1, 10)
	if err != nil {
		t.Fatalf("Query filtered: %v", err)
	}
	if len(recs) != 1 || recs[0].Action != "claim_submitted" {
		t.Errorf("filtered records = %+v, want single claim_submitted", recs)
	}
}

func TestQuery_DateRangeAndPaging(t *testing.T) {
	repo := auditrepo.NewMemoryRepository()
	trail := NewTrail(repo, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := trail.Record(ctx, "user-1", "claim_submitted", "claim", "c1", ""); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	page1, err := trail.Query(ctx, domain.Filter{}, 1, 2)
	if err != nil {
		t.Fatalf("Query page 1: %v", err)
	}
	page3, err := trail.Query(ctx, domain.Filter{}, 3, 2)
	if err != nil {
		t.Fatalf("Query page 3: %v", err)
	}
	if len(page1) != 2 || len(page3) != 1 {
		t.Errorf("page sizes = %d/%d, want 2/1", len(page1), len(page3))
	}

	future := time.Now().UTC().Add(time.Hour)
	recs, err := trail.Query(ctx, domain.Filter{From: future}, 1, 10)
	if err != nil {
		t.Fatalf("Query from future: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("records from future = %d, want 0", len(recs))
	}
}
