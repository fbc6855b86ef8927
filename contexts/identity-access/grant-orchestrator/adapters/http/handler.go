package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "gatepass/contexts/identity-access/grant-orchestrator/application"
	"gatepass/contexts/identity-access/grant-orchestrator/application/commands"
	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	"gatepass/contexts/identity-access/grant-orchestrator/ports"
	httptransport "gatepass/contexts/identity-access/grant-orchestrator/transport/http"
)

// Handler maps HTTP DTOs to application commands.
type Handler struct {
	RequestGrant commands.RequestGrantUseCase
	SweepExpired commands.SweepExpiredUseCase
	Audit        ports.AuditLog
	Logger       *slog.Logger
}

// RequestGrantHandler admits, invites, and issues the time-bounded policy for
// one email. The requester key comes from the transport layer (client IP).
func (h Handler) RequestGrantHandler(
	ctx context.Context,
	requesterKey string,
	request httptransport.GrantRequest,
) (httptransport.GrantResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http grant request received",
		"event", "grant_http_request_received",
		"module", "identity-access/grant-orchestrator",
		"layer", "transport",
		"requester_key", requesterKey,
		"email", request.Email,
	)

	outcome, err := h.RequestGrant.Execute(ctx, commands.RequestGrantCommand{
		RequesterKey: requesterKey,
		Email:        request.Email,
		FirstName:    request.FirstName,
		LastName:     request.LastName,
		TTLDays:      request.TTLDays,
	})
	if err != nil {
		return httptransport.GrantResponse{}, err
	}
	return toGrantResponse(outcome), nil
}

// SweepHandler runs one on-demand expiry sweep.
func (h Handler) SweepHandler(
	ctx context.Context,
	request httptransport.SweepRequest,
) (httptransport.SweepResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http sweep request received",
		"event", "sweep_http_request_received",
		"module", "identity-access/grant-orchestrator",
		"layer", "transport",
		"ttl_days", request.TTLDays,
	)

	report, err := h.SweepExpired.Execute(ctx, commands.SweepExpiredCommand{
		TTLDays: request.TTLDays,
	})
	if err != nil {
		return httptransport.SweepResponse{}, err
	}

	resp := httptransport.SweepResponse{
		GroupID: report.GroupID,
		TTLDays: report.TTLDays,
		Checked: report.Checked,
		Deleted: make([]httptransport.DeletionDTO, 0, len(report.Deleted)),
	}
	for _, deletion := range report.Deleted {
		resp.Deleted = append(resp.Deleted, httptransport.DeletionDTO{
			PrincipalID: deletion.PrincipalID,
			Status:      deletion.Status,
			Detail:      deletion.Detail,
		})
	}
	for _, skipped := range report.Skipped {
		resp.Skipped = append(resp.Skipped, httptransport.SkippedDTO{
			PrincipalID: skipped.PrincipalID,
			Reason:      skipped.Reason,
		})
	}
	return resp, nil
}

// ListAuditHandler returns the most recent audit events.
func (h Handler) ListAuditHandler(ctx context.Context, limit int) (httptransport.ListAuditResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	events, err := h.Audit.Recent(ctx, limit)
	if err != nil {
		return httptransport.ListAuditResponse{}, err
	}
	resp := httptransport.ListAuditResponse{
		Events: make([]httptransport.AuditEventDTO, 0, len(events)),
	}
	for _, event := range events {
		resp.Events = append(resp.Events, httptransport.AuditEventDTO{
			EventID:     event.EventID,
			Kind:        event.Kind,
			Email:       event.Email,
			PrincipalID: event.PrincipalID,
			GroupID:     event.GroupID,
			Status:      event.Status,
			Detail:      event.Detail,
			OccurredAt:  event.OccurredAt,
		})
	}
	return resp, nil
}

func toGrantResponse(outcome entities.GrantOutcome) httptransport.GrantResponse {
	resp := httptransport.GrantResponse{
		Outcome:        string(outcome.Status),
		AccessGroupID:  outcome.GroupID,
		InviteStatus:   outcome.InviteStatus,
		InviteResponse: outcome.InviteBody,
		PolicyID:       outcome.PolicyID,
		PolicyReused:   outcome.PolicyReused,
		TTLDays:        outcome.TTLDays,
		Warnings:       outcome.Warnings,
	}
	if !outcome.ValidFrom.IsZero() {
		resp.ValidFrom = timePtr(outcome.ValidFrom)
	}
	if !outcome.ValidUntil.IsZero() {
		resp.ValidUntil = timePtr(outcome.ValidUntil)
	}
	return resp
}

func timePtr(t time.Time) *time.Time { return &t }
