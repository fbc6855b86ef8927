package cloudadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const apikeyGrantType = "urn:ibm:params:oauth:grant-type:apikey"

// Token implements ports.TokenSource: trade the API key for a short-lived
// bearer token. The token's expiry is not tracked; callers fetch a fresh one
// per top-level operation.
func (c *Client) Token(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", apikeyGrantType)
	form.Set("apikey", c.apiKey)

	status, body, err := c.do(ctx, "POST", c.iamBase+"/identity/token", "",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("identity token endpoint returned status %d", status)
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access_token")
	}
	return parsed.AccessToken, nil
}
