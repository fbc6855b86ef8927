package httptransport

import "time"

// GrantRequest is the request body for POST /api/access/v1/grants.
type GrantRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	TTLDays   int    `json:"ttl_days,omitempty"`
}

// GrantResponse reports the reconciled invite/policy outcome.
type GrantResponse struct {
	Outcome        string     `json:"outcome"`
	AccessGroupID  string     `json:"access_group_id"`
	InviteStatus   int        `json:"invite_status"`
	InviteResponse string     `json:"invite_response,omitempty"`
	PolicyID       string     `json:"policy_id,omitempty"`
	PolicyReused   bool       `json:"policy_reused,omitempty"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	TTLDays        int        `json:"ttl_days"`
	Warnings       []string   `json:"warnings,omitempty"`
}

// SweepRequest is the request body for POST /api/access/v1/sweep.
type SweepRequest struct {
	TTLDays int `json:"ttl_days,omitempty"`
}

type DeletionDTO struct {
	PrincipalID string `json:"principal_id"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
}

type SkippedDTO struct {
	PrincipalID string `json:"principal_id"`
	Reason      string `json:"reason"`
}

type SweepResponse struct {
	GroupID string        `json:"group_id"`
	TTLDays int           `json:"ttl_days"`
	Checked int           `json:"checked"`
	Deleted []DeletionDTO `json:"deleted"`
	Skipped []SkippedDTO  `json:"skipped,omitempty"`
}

type AuditEventDTO struct {
	EventID     string    `json:"event_id"`
	Kind        string    `json:"kind"`
	Email       string    `json:"email,omitempty"`
	PrincipalID string    `json:"principal_id,omitempty"`
	GroupID     string    `json:"group_id"`
	Status      string    `json:"status"`
	Detail      string    `json:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ListAuditResponse struct {
	Events []AuditEventDTO `json:"events"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
