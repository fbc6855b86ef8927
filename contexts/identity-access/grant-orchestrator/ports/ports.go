package ports

import (
	"context"
	"time"

	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
)

// Clock abstracts current time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts UUID generation for audit rows.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Admitter decides sliding-window admission per requester key. Implementations
// must keep the read-prune-append sequence atomic per key.
type Admitter interface {
	Admit(key string) bool
}

// TokenSource exchanges the long-lived credential for a short-lived bearer
// token. The token is opaque; callers fetch a fresh one per top-level
// operation and never cache across requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Directory is the identity-directory boundary. ResolveGroup matches the name
// or display name exactly; no substring fallback. ListMembers follows
// continuation pages until exhausted without losing or duplicating members.
// FetchEnrollmentTime returns ok=false when no recognized timestamp field is
// present or parseable on the principal's profile.
type Directory interface {
	ResolveGroup(ctx context.Context, token string, name string) (entities.AccessGroup, error)
	ListMembers(ctx context.Context, token string, groupID string) ([]entities.Membership, error)
	FetchEnrollmentTime(ctx context.Context, token string, principalID string) (time.Time, bool, error)
}

// InviteRequest registers an email as an account member and attaches it to the
// access group in the same call.
type InviteRequest struct {
	Email     string
	FirstName string
	LastName  string
	GroupID   string
}

// InviteResult carries the upstream status and raw body for diagnosis. A
// non-nil error means transport failure; status classification is the
// caller's concern.
type InviteResult struct {
	StatusCode int
	Body       string
}

type Inviter interface {
	Invite(ctx context.Context, token string, invite InviteRequest) (InviteResult, error)
}

// PolicyStore is the authorization-store boundary. FindGrantPolicy returns any
// live policy whose subject references the group and whose description
// mentions the email; duplicate detection for retried requests depends on it.
type PolicyStore interface {
	FindGrantPolicy(ctx context.Context, token string, groupID string, email string) (entities.GrantPolicy, bool, error)
	CreateGrantPolicy(ctx context.Context, token string, policy entities.GrantPolicy) (entities.GrantPolicy, error)
}

// MemberRemover deletes a member from the account. Implementations report the
// upstream status; a 404 means the principal was already removed and is
// treated as benign by the sweep.
type MemberRemover interface {
	Remove(ctx context.Context, token string, principalID string) (int, error)
}

// AuditLog is the narrow observability collaborator the orchestrator records
// grant and sweep events through.
type AuditLog interface {
	Record(ctx context.Context, event entities.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]entities.AuditEvent, error)
}
