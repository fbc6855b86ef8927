package memory

import (
	"context"
	"sort"
	"sync"

	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
)

// AuditTrail is a standalone in-memory audit log, used when no database is
// configured. Events survive only for the life of the process.
type AuditTrail struct {
	mu     sync.RWMutex
	events []entities.AuditEvent
}

func NewAuditTrail() *AuditTrail {
	return &AuditTrail{}
}

func (t *AuditTrail) Record(_ context.Context, event entities.AuditEvent) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
	return nil
}

func (t *AuditTrail) Recent(_ context.Context, limit int) ([]entities.AuditEvent, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	events := append([]entities.AuditEvent(nil), t.events...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
