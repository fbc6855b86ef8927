package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "gatepass/contexts/identity-access/grant-orchestrator/application"
	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	domainerrors "gatepass/contexts/identity-access/grant-orchestrator/domain/errors"
	"gatepass/contexts/identity-access/grant-orchestrator/ports"
)

// RequestGrantCommand contains transport-agnostic input for one grant request.
type RequestGrantCommand struct {
	RequesterKey string
	Email        string
	FirstName    string
	LastName     string
	TTLDays      int
}

// RequestGrantUseCase runs the rate-limit -> resolve -> invite -> policy
// sequence. Invite and policy failures after admission become outcome
// classifications, not returned errors; only admission, token exchange, and
// group resolution abort the request outright.
type RequestGrantUseCase struct {
	Limiter     ports.Admitter
	Tokens      ports.TokenSource
	Directory   ports.Directory
	Inviter     ports.Inviter
	Policies    ports.PolicyStore
	Audit       ports.AuditLog
	Clock       ports.Clock
	IDGenerator ports.IDGenerator

	GroupName       string
	ResourceGroupID string
	RoleID          string
	DefaultTTLDays  int

	Logger *slog.Logger
}

// Execute classifies the result as success, partial, or failed per the rules
// in the package doc. The policy step is never retried within one request.
func (u RequestGrantUseCase) Execute(ctx context.Context, cmd RequestGrantCommand) (entities.GrantOutcome, error) {
	logger := application.ResolveLogger(u.Logger)

	email := strings.TrimSpace(cmd.Email)
	if email == "" || strings.TrimSpace(cmd.RequesterKey) == "" {
		return entities.GrantOutcome{}, domainerrors.ErrInvalidRequest
	}
	ttl := cmd.TTLDays
	if ttl <= 0 {
		ttl = u.defaultTTLDays()
	}

	if !u.Limiter.Admit(cmd.RequesterKey) {
		logger.Warn("grant request denied by rate limiter",
			"event", "grant_request_rate_limited",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"requester_key", cmd.RequesterKey,
		)
		return entities.GrantOutcome{}, domainerrors.ErrRateLimited
	}

	logger.Info("grant request started",
		"event", "grant_request_started",
		"module", "identity-access/grant-orchestrator",
		"layer", "application",
		"email", email,
		"ttl_days", ttl,
	)

	token, err := u.Tokens.Token(ctx)
	if err != nil {
		logger.Error("grant token exchange failed",
			"event", "grant_token_exchange_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"error", err.Error(),
		)
		return entities.GrantOutcome{}, fmt.Errorf("%w: %v", domainerrors.ErrTokenExchange, err)
	}

	group, err := u.Directory.ResolveGroup(ctx, token, u.GroupName)
	if err != nil {
		logger.Error("grant group resolution failed",
			"event", "grant_group_resolution_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"group_name", u.GroupName,
			"error", err.Error(),
		)
		return entities.GrantOutcome{}, err
	}

	outcome := entities.GrantOutcome{
		GroupID: group.ID,
		TTLDays: ttl,
	}

	invite, err := u.Inviter.Invite(ctx, token, ports.InviteRequest{
		Email:     email,
		FirstName: strings.TrimSpace(cmd.FirstName),
		LastName:  strings.TrimSpace(cmd.LastName),
		GroupID:   group.ID,
	})
	if err != nil {
		outcome.Status = entities.GrantFailed
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("%s: %v", domainerrors.ErrInviteFailed, err))
		u.record(ctx, logger, email, group.ID, outcome)
		return outcome, nil
	}
	outcome.InviteStatus = invite.StatusCode
	outcome.InviteBody = invite.Body
	if invite.StatusCode < 200 || invite.StatusCode > 299 {
		outcome.Status = entities.GrantFailed
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("%s: upstream status %d", domainerrors.ErrInviteFailed, invite.StatusCode))
		u.record(ctx, logger, email, group.ID, outcome)
		return outcome, nil
	}

	existing, found, err := u.Policies.FindGrantPolicy(ctx, token, group.ID, email)
	if err != nil {
		outcome.Status = entities.GrantPartial
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("%s: lookup: %v", domainerrors.ErrPolicyFailed, err))
		u.record(ctx, logger, email, group.ID, outcome)
		return outcome, nil
	}
	if found {
		outcome.Status = entities.GrantSucceeded
		outcome.PolicyID = existing.PolicyID
		outcome.PolicyReused = true
		outcome.ValidFrom = existing.ValidFrom
		outcome.ValidUntil = existing.ValidUntil
		logger.Info("grant policy reused",
			"event", "grant_policy_reused",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"email", email,
			"group_id", group.ID,
			"policy_id", existing.PolicyID,
		)
		u.record(ctx, logger, email, group.ID, outcome)
		return outcome, nil
	}

	now := u.now()
	created, err := u.Policies.CreateGrantPolicy(ctx, token, entities.GrantPolicy{
		SubjectGroupID: group.ID,
		ResourceGroup:  u.ResourceGroupID,
		RoleID:         u.RoleID,
		ValidFrom:      now,
		ValidUntil:     now.Add(time.Duration(ttl) * 24 * time.Hour),
		Description:    fmt.Sprintf("Temporary access grant (invited %s)", email),
	})
	if err != nil {
		outcome.Status = entities.GrantPartial
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("%s: %v", domainerrors.ErrPolicyFailed, err))
		logger.Error("grant policy creation failed after invite",
			"event", "grant_policy_creation_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"email", email,
			"group_id", group.ID,
			"error", err.Error(),
		)
		u.record(ctx, logger, email, group.ID, outcome)
		return outcome, nil
	}

	outcome.Status = entities.GrantSucceeded
	outcome.PolicyID = created.PolicyID
	outcome.ValidFrom = created.ValidFrom
	outcome.ValidUntil = created.ValidUntil

	logger.Info("grant request completed",
		"event", "grant_request_completed",
		"module", "identity-access/grant-orchestrator",
		"layer", "application",
		"email", email,
		"group_id", group.ID,
		"policy_id", created.PolicyID,
		"valid_until", created.ValidUntil,
	)
	u.record(ctx, logger, email, group.ID, outcome)
	return outcome, nil
}

func (u RequestGrantUseCase) record(ctx context.Context, logger *slog.Logger, email, groupID string, outcome entities.GrantOutcome) {
	if u.Audit == nil {
		return
	}
	eventID := ""
	if u.IDGenerator != nil {
		if id, err := u.IDGenerator.NewID(ctx); err == nil {
			eventID = id
		}
	}
	event := entities.AuditEvent{
		EventID:    eventID,
		Kind:       entities.AuditKindGrant,
		Email:      email,
		GroupID:    groupID,
		Status:     string(outcome.Status),
		Detail:     strings.Join(outcome.Warnings, "; "),
		OccurredAt: u.now(),
	}
	if err := u.Audit.Record(ctx, event); err != nil {
		logger.Warn("grant audit record failed",
			"event", "grant_audit_record_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "application",
			"email", email,
			"error", err.Error(),
		)
	}
}

func (u RequestGrantUseCase) defaultTTLDays() int {
	if u.DefaultTTLDays <= 0 {
		return 7
	}
	return u.DefaultTTLDays
}

func (u RequestGrantUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
