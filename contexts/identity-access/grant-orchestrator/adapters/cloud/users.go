package cloudadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"gatepass/contexts/identity-access/grant-orchestrator/ports"
)

type invitedUser struct {
	Email       string `json:"email"`
	AccountRole string `json:"account_role"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

type invitePayload struct {
	Users        []invitedUser `json:"users"`
	AccessGroups []string      `json:"access_groups,omitempty"`
}

// Invite registers the email as an account member and requests group
// attachment in the same call. The upstream status and raw body are returned
// as-is; classification is the use case's concern.
func (c *Client) Invite(ctx context.Context, token string, invite ports.InviteRequest) (ports.InviteResult, error) {
	payload := invitePayload{
		Users: []invitedUser{{
			Email:       invite.Email,
			AccountRole: "Member",
			FirstName:   invite.FirstName,
			LastName:    invite.LastName,
		}},
	}
	if invite.GroupID != "" {
		payload.AccessGroups = []string{invite.GroupID}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return ports.InviteResult{}, err
	}

	endpoint := fmt.Sprintf("%s/v2/accounts/%s/users", c.userMgmtBase, url.PathEscape(c.accountID))
	status, respBody, err := c.do(ctx, "POST", endpoint, token, bytes.NewReader(body), "application/json")
	if err != nil {
		return ports.InviteResult{}, err
	}
	return ports.InviteResult{StatusCode: status, Body: string(respBody)}, nil
}

// Remove deletes the member from the account. The status is returned for the
// sweep to classify; a 404 means the principal was already removed.
func (c *Client) Remove(ctx context.Context, token string, principalID string) (int, error) {
	endpoint := fmt.Sprintf("%s/v2/accounts/%s/users/%s",
		c.userMgmtBase, url.PathEscape(c.accountID), url.PathEscape(principalID))
	status, _, err := c.do(ctx, "DELETE", endpoint, token, nil, "")
	if err != nil {
		return 0, err
	}
	return status, nil
}
