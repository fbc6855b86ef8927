package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	application "gatepass/contexts/identity-access/grant-orchestrator/application"
	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	domainerrors "gatepass/contexts/identity-access/grant-orchestrator/domain/errors"
	"gatepass/contexts/identity-access/grant-orchestrator/ports"
)

// SweepExpiredCommand selects the TTL for one sweep pass.
type SweepExpiredCommand struct {
	TTLDays int
}

// SweepReport lists every member considered, the removals attempted, and the
// members skipped on ambiguous data.
type SweepReport struct {
	GroupID string
	TTLDays int
	Checked int
	Deleted []entities.DeletionResult
	Skipped []entities.SkippedMember
}

// SweepExpiredUseCase enumerates group members and removes those whose
// enrollment age reached the TTL. A member with no determinable enrollment
// time is skipped, never deleted. Per-member deletion failures are collected
// and never abort the remaining sweep.
type SweepExpiredUseCase struct {
	Tokens      ports.TokenSource
	Directory   ports.Directory
	Remover     ports.MemberRemover
	Audit       ports.AuditLog
	Clock       ports.Clock
	IDGenerator ports.IDGenerator

	GroupName      string
	DefaultTTLDays int

	Logger *slog.Logger
}

func (u SweepExpiredUseCase) Execute(ctx context.Context, cmd SweepExpiredCommand) (SweepReport, error) {
	logger := application.ResolveLogger(u.Logger)

	ttl := cmd.TTLDays
	if ttl <= 0 {
		ttl = u.defaultTTLDays()
	}

	token, err := u.Tokens.Token(ctx)
	if err != nil {
		return SweepReport{}, fmt.Errorf("%w: %v", domainerrors.ErrTokenExchange, err)
	}

	group, err := u.Directory.ResolveGroup(ctx, token, u.GroupName)
	if err != nil {
		return SweepReport{}, err
	}

	members, err := u.Directory.ListMembers(ctx, token, group.ID)
	if err != nil {
		return SweepReport{}, err
	}

	now := u.now()
	report := SweepReport{
		GroupID: group.ID,
		TTLDays: ttl,
	}

	logger.Info("membership sweep started",
		"event", "sweep_started",
		"module", "identity-access/grant-orchestrator",
		"layer", "application",
		"group_id", group.ID,
		"member_count", len(members),
		"ttl_days", ttl,
	)

	for _, member := range members {
		report.Checked++

		enrolled, ok := u.enrollmentTime(ctx, logger, token, member)
		if !ok {
			report.Skipped = append(report.Skipped, entities.SkippedMember{
				PrincipalID: member.PrincipalID,
				Reason:      "enrollment time unknown",
			})
			continue
		}

		// Whole-day floor semantics: 6 days 23 hours is not yet expired.
		if now.Sub(enrolled) < time.Duration(ttl)*24*time.Hour {
			continue
		}

		result := u.remove(ctx, token, member.PrincipalID)
		report.Deleted = append(report.Deleted, result)
		u.record(ctx, logger, member.PrincipalID, group.ID, result)
	}

	logger.Info("membership sweep completed",
		"event", "sweep_completed",
		"module", "identity-access/grant-orchestrator",
		"layer", "application",
		"group_id", group.ID,
		"checked", report.Checked,
		"deleted", len(report.Deleted),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// enrollmentTime prefers the timestamp on the membership record and falls back
// to the account profile.
func (u SweepExpiredUseCase) enrollmentTime(ctx context.Context, logger *slog.Logger, token string, member entities.Membership) (time.Time, bool) {
	if member.JoinedAt != nil {
		return *member.JoinedAt, true
	}
	enrolled, ok, err := u.Directory.FetchEnrollmentTime(ctx, token, member.PrincipalID)
	if err != nil {
		logger.Warn("enrollment time fetch failed",
			"event", "sweep_enrollment_fetch_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"principal_id", member.PrincipalID,
			"error", err.Error(),
		)
		return time.Time{}, false
	}
	return enrolled, ok
}

func (u SweepExpiredUseCase) remove(ctx context.Context, token string, principalID string) entities.DeletionResult {
	status, err := u.Remover.Remove(ctx, token, principalID)
	if err != nil {
		return entities.DeletionResult{
			PrincipalID: principalID,
			Status:      entities.DeletionFailed,
			Detail:      err.Error(),
		}
	}
	switch {
	case status >= 200 && status <= 299:
		return entities.DeletionResult{PrincipalID: principalID, Status: entities.DeletionDeleted}
	case status == 404:
		// A concurrent sweep already removed this principal.
		return entities.DeletionResult{
			PrincipalID: principalID,
			Status:      entities.DeletionDeleted,
			Detail:      "already removed",
		}
	default:
		return entities.DeletionResult{
			PrincipalID: principalID,
			Status:      entities.DeletionFailed,
			Detail:      fmt.Sprintf("removal rejected with status %d", status),
		}
	}
}

func (u SweepExpiredUseCase) record(ctx context.Context, logger *slog.Logger, principalID, groupID string, result entities.DeletionResult) {
	if u.Audit == nil {
		return
	}
	eventID := ""
	if u.IDGenerator != nil {
		if id, err := u.IDGenerator.NewID(ctx); err == nil {
			eventID = id
		}
	}
	if err := u.Audit.Record(ctx, entities.AuditEvent{
		EventID:     eventID,
		Kind:        entities.AuditKindSweepDelete,
		PrincipalID: principalID,
		GroupID:     groupID,
		Status:      result.Status,
		Detail:      result.Detail,
		OccurredAt:  u.now(),
	}); err != nil {
		logger.Warn("sweep audit record failed",
			"event", "sweep_audit_record_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"principal_id", principalID,
			"error", err.Error(),
		)
	}
}

func (u SweepExpiredUseCase) defaultTTLDays() int {
	if u.DefaultTTLDays <= 0 {
		return 7
	}
	return u.DefaultTTLDays
}

func (u SweepExpiredUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
