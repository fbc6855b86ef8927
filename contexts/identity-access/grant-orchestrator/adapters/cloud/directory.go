package cloudadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	domainerrors "gatepass/contexts/identity-access/grant-orchestrator/domain/errors"
)

const membersPageSize = 100

type groupRecord struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Group       *groupRecord `json:"group"`
}

// ResolveGroup looks the access group up by name. The match is exact on name
// or display name; near-misses resolve nothing rather than the wrong group.
func (c *Client) ResolveGroup(ctx context.Context, token string, name string) (entities.AccessGroup, error) {
	query := url.Values{}
	query.Set("account_id", c.accountID)
	query.Set("name", name)

	status, body, err := c.do(ctx, "GET", c.iamBase+"/v2/groups?"+query.Encode(), token, nil, "")
	if err != nil {
		return entities.AccessGroup{}, err
	}
	if status < 200 || status > 299 {
		return entities.AccessGroup{}, fmt.Errorf("group lookup returned status %d", status)
	}

	// The API has been observed under both the "groups" and "resources" keys,
	// occasionally with the group object nested one level down.
	var parsed struct {
		Groups    []groupRecord `json:"groups"`
		Resources []groupRecord `json:"resources"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return entities.AccessGroup{}, fmt.Errorf("decode group lookup response: %w", err)
	}
	records := parsed.Groups
	if len(records) == 0 {
		records = parsed.Resources
	}

	for _, record := range records {
		if record.Name == name || record.DisplayName == name {
			return entities.AccessGroup{ID: record.ID, Name: name}, nil
		}
		if record.Group != nil && record.Group.Name == name {
			return entities.AccessGroup{ID: record.Group.ID, Name: name}, nil
		}
	}
	return entities.AccessGroup{}, domainerrors.ErrGroupNotFound
}

type memberRecord struct {
	IAMID          string `json:"iam_id"`
	MembershipType string `json:"membership_type"`
	CreatedAt      string `json:"created_at"`
}

type pageRef struct {
	Href string `json:"href"`
}

type membersPage struct {
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`
	TotalCount int            `json:"total_count"`
	Next       *pageRef       `json:"next"`
	Members    []memberRecord `json:"members"`
}

// ListMembers follows the listing's continuation until exhausted, aggregating
// all pages. The next reference is authoritative when present; listings that
// omit it are walked by offset against total_count.
func (c *Client) ListMembers(ctx context.Context, token string, groupID string) ([]entities.Membership, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", membersPageSize))
	query.Set("offset", "0")
	endpoint := fmt.Sprintf("%s/v2/groups/%s/members?%s", c.iamBase, url.PathEscape(groupID), query.Encode())

	var all []entities.Membership
	offset := 0
	for {
		status, body, err := c.do(ctx, "GET", endpoint, token, nil, "")
		if err != nil {
			return nil, err
		}
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("member listing returned status %d", status)
		}

		var page membersPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode member listing response: %w", err)
		}

		for _, record := range page.Members {
			membership := entities.Membership{
				PrincipalID: record.IAMID,
				Type:        record.MembershipType,
			}
			if ts, ok := parseTimestamp(record.CreatedAt); ok {
				membership.JoinedAt = &ts
			}
			all = append(all, membership)
		}

		offset += len(page.Members)
		if len(page.Members) == 0 {
			return all, nil
		}
		if page.Next != nil && page.Next.Href != "" {
			endpoint = page.Next.Href
			continue
		}
		if offset >= page.TotalCount {
			return all, nil
		}
		query.Set("offset", fmt.Sprintf("%d", offset))
		endpoint = fmt.Sprintf("%s/v2/groups/%s/members?%s", c.iamBase, url.PathEscape(groupID), query.Encode())
	}
}

// enrollmentFields are the recognized profile timestamp field names, tried in
// priority order; the first structurally valid match wins.
var enrollmentFields = []string{"added_on", "invited_on", "created_at"}

// FetchEnrollmentTime reads the principal's account profile. ok=false means no
// recognized field held a parseable timestamp; the caller must not treat that
// member as expired.
func (c *Client) FetchEnrollmentTime(ctx context.Context, token string, principalID string) (time.Time, bool, error) {
	endpoint := fmt.Sprintf("%s/v2/accounts/%s/users/%s",
		c.userMgmtBase, url.PathEscape(c.accountID), url.PathEscape(principalID))
	status, body, err := c.do(ctx, "GET", endpoint, token, nil, "")
	if err != nil {
		return time.Time{}, false, err
	}
	if status < 200 || status > 299 {
		return time.Time{}, false, fmt.Errorf("profile fetch returned status %d", status)
	}

	var profile map[string]any
	if err := json.Unmarshal(body, &profile); err != nil {
		return time.Time{}, false, fmt.Errorf("decode profile response: %w", err)
	}

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

// parseTimestamp accepts ISO-8601 with or without an explicit timezone;
// absent timezone is interpreted as UTC.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
