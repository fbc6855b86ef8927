package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	domainerrors "gatepass/contexts/identity-access/grant-orchestrator/domain/errors"
	"gatepass/contexts/identity-access/grant-orchestrator/ports"

	"github.com/google/uuid"
)

// Store is an in-memory stand-in for the external identity and authorization
// services, implementing the token, directory, invite, policy, removal, and
// audit ports. It is intended for tests and local development wiring.
type Store struct {
	mu sync.RWMutex

	groups   map[string]entities.AccessGroup // keyed by group ID
	members  map[string][]entities.Membership
	profiles map[string]map[string]any
	policies map[string]entities.GrantPolicy
	invites  []ports.InviteRequest
	removed  []string
	audit    []entities.AuditEvent

	now          time.Time
	inviteStatus int
	policyErr    error
	removeStatus map[string]int
}

func NewStore() *Store {
	return &Store{
		groups:       make(map[string]entities.AccessGroup),
		members:      make(map[string][]entities.Membership),
		profiles:     make(map[string]map[string]any),
		policies:     make(map[string]entities.GrantPolicy),
		removeStatus: make(map[string]int),
		inviteStatus: 202,
	}
}

// --- test/dev hooks ---

// SetNow pins the clock; zero means wall clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddGroup registers a resolvable access group.
func (s *Store) AddGroup(group entities.AccessGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group.ID] = group
}

// AddMember attaches a principal to a group; joinedAt may be nil to simulate a
// directory record without a usable timestamp.
func (s *Store) AddMember(groupID string, principalID string, joinedAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[groupID] = append(s.members[groupID], entities.Membership{
		PrincipalID: principalID,
		Type:        "user",
		JoinedAt:    joinedAt,
	})
}

// SetProfile sets one field on a principal's account profile.
func (s *Store) SetProfile(principalID string, field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile := s.profiles[principalID]
	if profile == nil {
		profile = make(map[string]any)
		s.profiles[principalID] = profile
	}
	profile[field] = value
}

// FailInvites makes subsequent invites return the given upstream status.
func (s *Store) FailInvites(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inviteStatus = status
}

// FailPolicyCreation makes subsequent policy creations return err.
func (s *Store) FailPolicyCreation(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policyErr = err
}

// FailRemoval makes removal of one principal return the given status.
func (s *Store) FailRemoval(principalID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeStatus[principalID] = status
}

// Invites returns every invite issued so far.
func (s *Store) Invites() []ports.InviteRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.InviteRequest(nil), s.invites...)
}

// Policies returns every policy created so far.
func (s *Store) Policies() []entities.GrantPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.GrantPolicy, 0, len(s.policies))
	for _, policy := range s.policies {
		items = append(items, policy)
	}
	return items
}

// Removed returns the principals deleted so far.
func (s *Store) Removed() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.removed...)
}

// --- ports.Clock / ports.IDGenerator ---

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// --- ports.TokenSource ---

func (s *Store) Token(_ context.Context) (string, error) {
	return "memory-token", nil
}

// --- ports.Directory ---

func (s *Store) ResolveGroup(_ context.Context, _ string, name string) (entities.AccessGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, group := range s.groups {
		if group.Name == name {
			return group, nil
		}
	}
	return entities.AccessGroup{}, domainerrors.ErrGroupNotFound
}

func (s *Store) ListMembers(_ context.Context, _ string, groupID string) ([]entities.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Membership(nil), s.members[groupID]...), nil
}

// enrollmentFields mirrors the cloud adapter's recognized field names, in
// priority order.
var enrollmentFields = []string{"added_on", "invited_on", "created_at"}

func (s *Store) FetchEnrollmentTime(_ context.Context, _ string, principalID string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile := s.profiles[principalID]
	for _, field := range enrollmentFields {
		raw, ok := profile[field].(string)
		if !ok {
			continue
		}
		if ts, ok := parseTimestamp(raw); ok {
			return ts, true, nil
		}
	}
	return time.Time{}, false, nil
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	// No explicit timezone: interpret as UTC.
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// --- ports.Inviter ---

func (s *Store) Invite(_ context.Context, _ string, invite ports.InviteRequest) (ports.InviteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites = append(s.invites, invite)
	if s.inviteStatus >= 200 && s.inviteStatus <= 299 && !s.isMemberLocked(invite.GroupID, "iam-"+invite.Email) {
		joined := s.clockLocked()
		s.members[invite.GroupID] = append(s.members[invite.GroupID], entities.Membership{
			PrincipalID: "iam-" + invite.Email,
			Type:        "user",
			JoinedAt:    &joined,
		})
	}
	return ports.InviteResult{StatusCode: s.inviteStatus, Body: `{"state":"PROCESSING"}`}, nil
}

// --- ports.PolicyStore ---

func (s *Store) FindGrantPolicy(_ context.Context, _ string, groupID string, email string) (entities.GrantPolicy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, policy := range s.policies {
		if policy.SubjectGroupID == groupID && strings.Contains(policy.Description, email) {
			return policy, true, nil
		}
	}
	return entities.GrantPolicy{}, false, nil
}

func (s *Store) CreateGrantPolicy(_ context.Context, _ string, policy entities.GrantPolicy) (entities.GrantPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policyErr != nil {
		return entities.GrantPolicy{}, s.policyErr
	}
	policy.PolicyID = uuid.NewString()
	s.policies[policy.PolicyID] = policy
	return policy, nil
}

// --- ports.MemberRemover ---

func (s *Store) Remove(_ context.Context, _ string, principalID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.removeStatus[principalID]; ok {
		return status, nil
	}
	for groupID, members := range s.members {
		kept := members[:0]
		for _, member := range members {
			if member.PrincipalID != principalID {
				kept = append(kept, member)
			}
		}
		s.members[groupID] = kept
	}
	s.removed = append(s.removed, principalID)
	return 204, nil
}

// --- ports.AuditLog ---

func (s *Store) Record(_ context.Context, event entities.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, event)
	return nil
}

func (s *Store) Recent(_ context.Context, limit int) ([]entities.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := append([]entities.AuditEvent(nil), s.audit...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// isMemberLocked keeps repeated invites from duplicating the membership row,
// matching the upstream directory's behavior.
func (s *Store) isMemberLocked(groupID, principalID string) bool {
	for _, member := range s.members[groupID] {
		if member.PrincipalID == principalID {
			return true
		}
	}
	return false
}

func (s *Store) clockLocked() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}
