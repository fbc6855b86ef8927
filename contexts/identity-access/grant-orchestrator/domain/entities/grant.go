package entities

import "time"

// GrantStatus is the terminal classification of one grant request.
type GrantStatus string

const (
	// GrantSucceeded means the invite landed and a policy exists (new or reused).
	GrantSucceeded GrantStatus = "success"
	// GrantPartial means the invite landed but no policy could be created or reused.
	// Membership stands; reconciliation is left to retry or the expiry sweep.
	GrantPartial GrantStatus = "partial"
	// GrantFailed means the invite itself did not succeed. No policy work was attempted.
	GrantFailed GrantStatus = "failed"
)

// GrantRequest is the transport-agnostic input for one grant. Request-scoped,
// never persisted.
type GrantRequest struct {
	RequesterKey string
	Email        string
	FirstName    string
	LastName     string
	TTLDays      int
}

// GrantOutcome reconciles the invite and policy steps into one result.
type GrantOutcome struct {
	Status       GrantStatus
	GroupID      string
	InviteStatus int
	InviteBody   string
	PolicyID     string
	PolicyReused bool
	ValidFrom    time.Time
	ValidUntil   time.Time
	TTLDays      int
	Warnings     []string
}

// AccessGroup is a reference into the external directory. Resolved by name on
// every request, never cached.
type AccessGroup struct {
	ID   string
	Name string
}

// Membership is one principal's attachment to an access group. JoinedAt is nil
// when the directory record carries no usable timestamp.
type Membership struct {
	PrincipalID string
	Type        string
	JoinedAt    *time.Time
}

// GrantPolicy is one granted window for one group. Owned by the external
// authorization store; created and read back here, never mutated or deleted.
type GrantPolicy struct {
	PolicyID       string
	SubjectGroupID string
	ResourceGroup  string
	RoleID         string
	ValidFrom      time.Time
	ValidUntil     time.Time
	Description    string
}

const (
	DeletionDeleted = "deleted"
	DeletionFailed  = "failed"
)

// DeletionResult records one sweep removal attempt.
type DeletionResult struct {
	PrincipalID string
	Status      string
	Detail      string
}

// SkippedMember records a member the sweep inspected but declined to evaluate.
type SkippedMember struct {
	PrincipalID string
	Reason      string
}

const (
	AuditKindGrant       = "grant"
	AuditKindSweepDelete = "sweep_delete"
)

// AuditEvent is one observability record emitted by the orchestrator.
type AuditEvent struct {
	EventID     string
	Kind        string
	Email       string
	PrincipalID string
	GroupID     string
	Status      string
	Detail      string
	OccurredAt  time.Time
}
