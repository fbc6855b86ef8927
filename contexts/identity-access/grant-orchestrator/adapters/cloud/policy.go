package cloudadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
)

const (
	policyTimeFormat   = "2006-01-02T15:04:05Z"
	timeBasedOnce      = "time-based-conditions:once"
	currentDateTimeKey = "{{environment.attributes.current_date_time}}"
)

type policyAttribute struct {
	Key      string `json:"key"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type policySubject struct {
	Attributes []policyAttribute `json:"attributes"`
}

type policyResource struct {
	Attributes []policyAttribute `json:"attributes"`
}

type policyRole struct {
	RoleID string `json:"role_id"`
}

type policyGrant struct {
	Roles []policyRole `json:"roles"`
}

type policyControl struct {
	Grant policyGrant `json:"grant"`
}

type policyCondition struct {
	Key      string `json:"key"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type policyRule struct {
	Operator   string            `json:"operator"`
	Conditions []policyCondition `json:"conditions"`
}

type policyDocument struct {
	Type        string           `json:"type"`
	Description string           `json:"description,omitempty"`
	Subject     policySubject    `json:"subject"`
	Resource    []policyResource `json:"resource"`
	Control     policyControl    `json:"control"`
	Pattern     string           `json:"pattern,omitempty"`
	Rule        *policyRule      `json:"rule,omitempty"`
}

// listedPolicy decodes only the fields duplicate detection needs; the stored
// document's resource shape varies across API versions and is ignored.
type listedPolicy struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Subject     policySubject `json:"subject"`
	Rule        *policyRule   `json:"rule"`
}

// FindGrantPolicy scans existing policies for one whose subject references the
// group and whose description mentions the email. This is the duplicate
// detection that keeps retried requests from stacking overlapping windows.
func (c *Client) FindGrantPolicy(ctx context.Context, token string, groupID string, email string) (entities.GrantPolicy, bool, error) {
	query := url.Values{}
	query.Set("account_id", c.accountID)
	query.Set("type", "access")

	status, body, err := c.do(ctx, "GET", c.iamBase+"/v2/policies?"+query.Encode(), token, nil, "")
	if err != nil {
		return entities.GrantPolicy{}, false, err
	}
	if status < 200 || status > 299 {
		return entities.GrantPolicy{}, false, fmt.Errorf("policy listing returned status %d", status)
	}

	var parsed struct {
		Policies []listedPolicy `json:"policies"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return entities.GrantPolicy{}, false, fmt.Errorf("decode policy listing response: %w", err)
	}

	for _, candidate := range parsed.Policies {
		if !subjectReferencesGroup(candidate.Subject, groupID) {
			continue
		}
		if !strings.Contains(candidate.Description, email) {
			continue
		}
		policy := entities.GrantPolicy{
			PolicyID:       candidate.ID,
			SubjectGroupID: groupID,
			Description:    candidate.Description,
		}
		policy.ValidFrom, policy.ValidUntil = ruleWindow(candidate.Rule)
		return policy, true, nil
	}
	return entities.GrantPolicy{}, false, nil
}

// CreateGrantPolicy writes a time-bounded access policy for the group using
// the one-time date-time condition pattern.
func (c *Client) CreateGrantPolicy(ctx context.Context, token string, policy entities.GrantPolicy) (entities.GrantPolicy, error) {
	doc := policyDocument{
		Type:        "access",
		Description: policy.Description,
		Subject: policySubject{
			Attributes: []policyAttribute{{
				Key:      "access_group_id",
				Operator: "stringEquals",
				Value:    policy.SubjectGroupID,
			}},
		},
		Resource: []policyResource{{
			Attributes: []policyAttribute{
				{Key: "accountId", Operator: "stringEquals", Value: c.accountID},
				{Key: "resource_group_id", Operator: "stringEquals", Value: policy.ResourceGroup},
			},
		}},
		Control: policyControl{
			Grant: policyGrant{Roles: []policyRole{{RoleID: policy.RoleID}}},
		},
		Pattern: timeBasedOnce,
		Rule: &policyRule{
			Operator: "and",
			Conditions: []policyCondition{
				{
					Key:      currentDateTimeKey,
					Operator: "dateTimeGreaterThanOrEquals",
					Value:    policy.ValidFrom.UTC().Format(policyTimeFormat),
				},
				{
					Key:      currentDateTimeKey,
					Operator: "dateTimeLessThanOrEquals",
					Value:    policy.ValidUntil.UTC().Format(policyTimeFormat),
				},
			},
		},
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return entities.GrantPolicy{}, err
	}

	status, respBody, err := c.do(ctx, "POST", c.iamBase+"/v2/policies", token, bytes.NewReader(body), "application/json")
	if err != nil {
		return entities.GrantPolicy{}, err
	}
	if status < 200 || status > 299 {
		return entities.GrantPolicy{}, fmt.Errorf("policy creation returned status %d", status)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &created); err != nil {
		return entities.GrantPolicy{}, fmt.Errorf("decode policy creation response: %w", err)
	}
	policy.PolicyID = created.ID
	return policy, nil
}

func subjectReferencesGroup(subject policySubject, groupID string) bool {
	for _, attribute := range subject.Attributes {
		if attribute.Key == "access_group_id" && attribute.Value == groupID {
			return true
		}
	}
	return false
}

func ruleWindow(rule *policyRule) (time.Time, time.Time) {
	var from, until time.Time
	if rule == nil {
		return from, until
	}
	for _, condition := range rule.Conditions {
		ts, ok := parseTimestamp(condition.Value)
		if !ok {
			continue
		}
		switch condition.Operator {
		case "dateTimeGreaterThanOrEquals":
			from = ts
		case "dateTimeLessThanOrEquals":
			until = ts
		}
	}
	return from, until
}
