package commands

import (
	"context"
	"testing"
	"time"

	"gatepass/contexts/identity-access/grant-orchestrator/adapters/memory"
	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
)

func newSweepFixture(t *testing.T, now time.Time) (*memory.Store, SweepExpiredUseCase) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(now)
	store.AddGroup(entities.AccessGroup{ID: testGroupID, Name: testGroupName})
	useCase := SweepExpiredUseCase{
		Tokens:         store,
		Directory:      store,
		Remover:        store,
		Audit:          store,
		Clock:          store,
		IDGenerator:    store,
		GroupName:      testGroupName,
		DefaultTTLDays: 7,
	}
	return store, useCase
}

func timeRef(ts time.Time) *time.Time { return &ts }

func TestSweepRemovesOnlyExpiredMembers(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store, useCase := newSweepFixture(t, now)
	store.AddMember(testGroupID, "iam-fresh", timeRef(now.Add(-3*24*time.Hour)))
	store.AddMember(testGroupID, "iam-stale", timeRef(now.Add(-8*24*time.Hour)))
	store.AddMember(testGroupID, "iam-unknown", nil)

	report, err := useCase.Execute(context.Background(), SweepExpiredCommand{})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if report.Checked != 3 {
		t.Fatalf("checked = %d, want 3", report.Checked)
	}
	if len(report.Deleted) != 1 || report.Deleted[0].PrincipalID != "iam-stale" {
		t.Fatalf("deleted = %+v, want only iam-stale", report.Deleted)
	}
	if report.Deleted[0].Status != entities.DeletionDeleted {
		t.Fatalf("deletion status = %q, want %q", report.Deleted[0].Status, entities.DeletionDeleted)
	}
	if len(report.Skipped) != 1 || report.Skipped[0].PrincipalID != "iam-unknown" {
		t.Fatalf("skipped = %+v, want only iam-unknown", report.Skipped)
	}
	if removed := store.Removed(); len(removed) != 1 || removed[0] != "iam-stale" {
		t.Fatalf("removed = %v, want [iam-stale]", removed)
	}
}

func TestSweepExpiryBoundaryIsWholeDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store, useCase := newSweepFixture(t, now)
	store.AddMember(testGroupID, "iam-almost", timeRef(now.Add(-7*24*time.Hour+time.Second)))
	store.AddMember(testGroupID, "iam-exact", timeRef(now.Add(-7*24*time.Hour)))

	report, err := useCase.Execute(context.Background(), SweepExpiredCommand{TTLDays: 7})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(report.Deleted) != 1 || report.Deleted[0].PrincipalID != "iam-exact" {
		t.Fatalf("deleted = %+v, want only iam-exact", report.Deleted)
	}
}

func TestSweepFallsBackToProfileTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store, useCase := newSweepFixture(t, now)

	// added_on outranks invited_on; here only added_on is old enough to expire.
	store.AddMember(testGroupID, "iam-profiled", nil)
	store.SetProfile("iam-profiled", "added_on", now.Add(-10*24*time.Hour).Format(time.RFC3339))
	store.SetProfile("iam-profiled", "invited_on", now.Add(-1*24*time.Hour).Format(time.RFC3339))

	// A timestamp with no timezone designator is read as UTC.
	store.AddMember(testGroupID, "iam-naive", nil)
	store.SetProfile("iam-naive", "created_at", "2025-03-01T00:00:00")

	report, err := useCase.Execute(context.Background(), SweepExpiredCommand{})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(report.Skipped) != 0 {
		t.Fatalf("skipped = %+v, want none", report.Skipped)
	}
	if len(report.Deleted) != 2 {
		t.Fatalf("deleted = %+v, want both members", report.Deleted)
	}
}

func TestSweepCollectsDeletionFailuresAndContinues(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store, useCase := newSweepFixture(t, now)
	stale := timeRef(now.Add(-9 * 24 * time.Hour))
	store.AddMember(testGroupID, "iam-blocked", stale)
	store.AddMember(testGroupID, "iam-removable", stale)
	store.FailRemoval("iam-blocked", 500)

	report, err := useCase.Execute(context.Background(), SweepExpiredCommand{})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(report.Deleted) != 2 {
		t.Fatalf("expected 2 removal attempts, got %+v", report.Deleted)
	}
	byPrincipal := map[string]entities.DeletionResult{}
	for _, result := range report.Deleted {
		byPrincipal[result.PrincipalID] = result
	}
	if byPrincipal["iam-blocked"].Status != entities.DeletionFailed {
		t.Fatalf("iam-blocked should be marked failed: %+v", byPrincipal["iam-blocked"])
	}
	if byPrincipal["iam-removable"].Status != entities.DeletionDeleted {
		t.Fatalf("failure on one member must not stop the sweep: %+v", byPrincipal["iam-removable"])
	}
}

func TestSweepTreatsMissingMemberAsRemoved(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store, useCase := newSweepFixture(t, now)
	store.AddMember(testGroupID, "iam-gone", timeRef(now.Add(-9*24*time.Hour)))
	store.FailRemoval("iam-gone", 404)

	report, err := useCase.Execute(context.Background(), SweepExpiredCommand{})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(report.Deleted) != 1 {
		t.Fatalf("deleted = %+v, want one entry", report.Deleted)
	}
	if report.Deleted[0].Status != entities.DeletionDeleted {
		t.Fatalf("a 404 on delete means the member is already gone: %+v", report.Deleted[0])
	}
}
