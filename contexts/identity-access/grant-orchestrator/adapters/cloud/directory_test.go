package cloudadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	domainerrors "gatepass/contexts/identity-access/grant-orchestrator/domain/errors"
)

func TestResolveGroupMatchesExactNameOnly(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/groups" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("account_id"); got != "acct-1" {
			t.Fatalf("account_id = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"groups": []map[string]any{
				{"id": "AccessGroupId-ext", "name": "team-access-extended"},
				{"id": "AccessGroupId-1", "name": "team-access"},
			},
		})
	}))

	group, err := client.ResolveGroup(context.Background(), "tok", "team-access")
	if err != nil {
		t.Fatalf("ResolveGroup returned error: %v", err)
	}
	if group.ID != "AccessGroupId-1" {
		t.Fatalf("group ID = %q, want AccessGroupId-1 (substring matches must not win)", group.ID)
	}
}

func TestResolveGroupReadsResourcesAndNestedShapes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"resources": []map[string]any{
				{"group": map[string]any{"id": "AccessGroupId-nested", "name": "team-access"}},
			},
		})
	}))

	group, err := client.ResolveGroup(context.Background(), "tok", "team-access")
	if err != nil {
		t.Fatalf("ResolveGroup returned error: %v", err)
	}
	if group.ID != "AccessGroupId-nested" {
		t.Fatalf("group ID = %q, want AccessGroupId-nested", group.ID)
	}
}

func TestResolveGroupNearMissIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"groups": []map[string]any{
				{"id": "AccessGroupId-ext", "name": "team-access-extended"},
			},
		})
	}))

	_, err := client.ResolveGroup(context.Background(), "tok", "team-access")
	if !errors.Is(err, domainerrors.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestListMembersFollowsPagination(t *testing.T) {
	members := make([]map[string]any, 0, 250)
	for i := 0; i < 250; i++ {
		members = append(members, map[string]any{
			"iam_id":          fmt.Sprintf("iam-%03d", i),
			"membership_type": "user",
			"created_at":      "2025-03-01T00:00:00Z",
		})
	}
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := offset + limit
		if end > len(members) {
			end = len(members)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"limit":       limit,
			"offset":      offset,
			"total_count": len(members),
			"members":     members[offset:end],
		})
	}))

	listed, err := client.ListMembers(context.Background(), "tok", "AccessGroupId-1")
	if err != nil {
		t.Fatalf("ListMembers returned error: %v", err)
	}
	if len(listed) != 250 {
		t.Fatalf("listed %d members, want 250", len(listed))
	}
	seen := make(map[string]bool, len(listed))
	for _, member := range listed {
		if seen[member.PrincipalID] {
			t.Fatalf("member %s listed twice", member.PrincipalID)
		}
		seen[member.PrincipalID] = true
		if member.JoinedAt == nil {
			t.Fatalf("member %s lost its timestamp", member.PrincipalID)
		}
	}
}

func TestListMembersFollowsNextReferenceWithoutTotalCount(t *testing.T) {
	members := make([]map[string]any, 0, 250)
	for i := 0; i < 250; i++ {
		members = append(members, map[string]any{
			"iam_id":          fmt.Sprintf("iam-%03d", i),
			"membership_type": "user",
		})
	}
	var baseURL string
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := offset + limit
		if end > len(members) {
			end = len(members)
		}
		// No total_count; the next reference is the only continuation signal.
		page := map[string]any{
			"limit":   limit,
			"offset":  offset,
			"members": members[offset:end],
		}
		if end < len(members) {
			page["next"] = map[string]any{
				"href": fmt.Sprintf("%s/v2/groups/AccessGroupId-1/members?limit=%d&offset=%d", baseURL, limit, end),
			}
		}
		json.NewEncoder(w).Encode(page)
	}))
	baseURL = server.URL

	listed, err := client.ListMembers(context.Background(), "tok", "AccessGroupId-1")
	if err != nil {
		t.Fatalf("ListMembers returned error: %v", err)
	}
	if len(listed) != 250 {
		t.Fatalf("listed %d members, want 250 (pages after the first were lost)", len(listed))
	}
	seen := make(map[string]bool, len(listed))
	for _, member := range listed {
		if seen[member.PrincipalID] {
			t.Fatalf("member %s listed twice", member.PrincipalID)
		}
		seen[member.PrincipalID] = true
	}
}

func TestFetchEnrollmentTimeFieldPriority(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/accounts/acct-1/users/iam-1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"added_on":   "2025-01-05T08:00:00Z",
			"invited_on": "2025-02-01T08:00:00Z",
			"created_at": "2025-03-01T08:00:00Z",
		})
	}))

	ts, ok, err := client.FetchEnrollmentTime(context.Background(), "tok", "iam-1")
	if err != nil || !ok {
		t.Fatalf("FetchEnrollmentTime = ok %v, err %v", ok, err)
	}
	if want := time.Date(2025, 1, 5, 8, 0, 0, 0, time.UTC); !ts.Equal(want) {
		t.Fatalf("timestamp = %v, want added_on %v", ts, want)
	}
}

func TestFetchEnrollmentTimeAmbiguousProfile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"added_on": "not a timestamp",
			"state":    "ACTIVE",
		})
	}))

	_, ok, err := client.FetchEnrollmentTime(context.Background(), "tok", "iam-1")
	if err != nil {
		t.Fatalf("FetchEnrollmentTime returned error: %v", err)
	}
	if ok {
		t.Fatalf("an unparseable profile must report ok=false")
	}
}

func TestParseTimestampAcceptsNaiveISOAsUTC(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-01T10:30:00Z":      time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00+02:00": time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00":       time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01":                time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, ok := parseTimestamp(raw)
		if !ok {
			t.Fatalf("parseTimestamp(%q) not ok", raw)
		}
		if !got.Equal(want) {
			t.Fatalf("parseTimestamp(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, ok := parseTimestamp("yesterday"); ok {
		t.Fatalf("parseTimestamp should reject non-ISO input")
	}
}
