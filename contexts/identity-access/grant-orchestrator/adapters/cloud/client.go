// Package cloudadapter implements the outbound token, directory, invite,
// policy, and removal ports against the cloud provider's IAM and
// user-management HTTP APIs.
package cloudadapter

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultIAMBase      = "https://iam.cloud.ibm.com"
	defaultUserMgmtBase = "https://user-management.cloud.ibm.com"

	defaultTimeout = 20 * time.Second
)

// Config carries account scoping and endpoint overrides (overrides are used
// by tests and non-production stacks).
type Config struct {
	APIKey       string
	AccountID    string
	IAMBase      string
	UserMgmtBase string
	Timeout      time.Duration
}

// Client is the single outbound adapter; one struct implements every external
// port so the account scoping and HTTP plumbing live in one place. Calls are
// per-request bounded by the client timeout and never retried here.
type Client struct {
	http         *http.Client
	apiKey       string
	accountID    string
	iamBase      string
	userMgmtBase string
	logger       *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	iamBase := cfg.IAMBase
	if iamBase == "" {
		iamBase = defaultIAMBase
	}
	userMgmtBase := cfg.UserMgmtBase
	if userMgmtBase == "" {
		userMgmtBase = defaultUserMgmtBase
	}
	return &Client{
		http:         &http.Client{Timeout: timeout},
		apiKey:       cfg.APIKey,
		accountID:    cfg.AccountID,
		iamBase:      iamBase,
		userMgmtBase: userMgmtBase,
		logger:       logger,
	}
}

// do issues one authenticated call and returns status plus the full body.
func (c *Client) do(ctx context.Context, method, url, token string, body io.Reader, contentType string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, payload, nil
}
