package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	grantorchestrator "gatepass/contexts/identity-access/grant-orchestrator"
)

func newTestServer(t *testing.T, siteToken string) (*Server, grantorchestrator.Module) {
	t.Helper()
	module := grantorchestrator.NewInMemoryModule(nil)
	server := New(module, nil, ":0", siteToken, "QZD35G-student-access")
	return server, module
}

func doRequest(t *testing.T, server *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, "")

	rec := doRequest(t, server, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestGrantEndpointRequiresSiteToken(t *testing.T) {
	server, _ := newTestServer(t, "secret")

	req := httptest.NewRequest("POST", "/api/access/v1/grants",
		strings.NewReader(`{"email":"student@example.edu"}`))
	rec := doRequest(t, server, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status without token = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest("POST", "/api/access/v1/grants",
		strings.NewReader(`{"email":"student@example.edu"}`))
	req.Header.Set("X-Site-Token", "secret")
	rec = doRequest(t, server, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestGrantEndpointReturnsGrantDetails(t *testing.T) {
	server, _ := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/access/v1/grants",
		strings.NewReader(`{"email":"student@example.edu","ttl_days":3}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := doRequest(t, server, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Outcome      string `json:"outcome"`
		PolicyID     string `json:"policy_id"`
		PolicyReused bool   `json:"policy_reused"`
		TTLDays      int    `json:"ttl_days"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode grant body: %v", err)
	}
	if body.Outcome != "success" || body.PolicyID == "" {
		t.Fatalf("body = %+v", body)
	}
	if body.TTLDays != 3 {
		t.Fatalf("ttl_days = %d, want 3", body.TTLDays)
	}
}

func TestGrantEndpointRejectsBadJSON(t *testing.T) {
	server, _ := newTestServer(t, "")

	req := httptest.NewRequest("POST", "/api/access/v1/grants", strings.NewReader(`{`))
	rec := doRequest(t, server, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGrantEndpointRateLimitMapsTo429(t *testing.T) {
	server, _ := newTestServer(t, "")

	var last *httptest.ResponseRecorder
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest("POST", "/api/access/v1/grants",
			strings.NewReader(`{"email":"student@example.edu"}`))
		req.RemoteAddr = "203.0.113.7:41000"
		last = doRequest(t, server, req)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth request status = %d, want 429", last.Code)
	}
}

func TestGrantEndpointFailedInviteMapsTo502(t *testing.T) {
	server, module := newTestServer(t, "")
	module.Store.FailInvites(500)

	req := httptest.NewRequest("POST", "/api/access/v1/grants",
		strings.NewReader(`{"email":"student@example.edu"}`))
	rec := doRequest(t, server, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var body struct {
		Outcome      string `json:"outcome"`
		InviteStatus int    `json:"invite_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Outcome != "failed" || body.InviteStatus != 500 {
		t.Fatalf("body = %+v", body)
	}
}

func TestResolveClientIPKeysPeersIndividually(t *testing.T) {
	cases := []struct {
		remoteAddr string
		forwarded  string
		want       string
	}{
		{remoteAddr: "203.0.113.7:41000", want: "203.0.113.7"},
		{remoteAddr: "[2001:db8::1]:4242", want: "2001:db8::1"},
		{remoteAddr: "[2001:db8::2]:4242", want: "2001:db8::2"},
		{remoteAddr: "203.0.113.7:41000", forwarded: "198.51.100.4, 10.0.0.1", want: "198.51.100.4"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("POST", "/api/access/v1/grants", nil)
		req.RemoteAddr = tc.remoteAddr
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		if got := resolveClientIP(req); got != tc.want {
			t.Fatalf("resolveClientIP(%q, forwarded %q) = %q, want %q", tc.remoteAddr, tc.forwarded, got, tc.want)
		}
	}
}

func TestGrantRateLimitKeepsIPv6PeersSeparate(t *testing.T) {
	server, _ := newTestServer(t, "")

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("POST", "/api/access/v1/grants",
			strings.NewReader(`{"email":"student@example.edu"}`))
		req.RemoteAddr = "[2001:db8::1]:4242"
		if rec := doRequest(t, server, req); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}

	// The first peer has exhausted its window; a second IPv6 peer must not be
	// affected.
	req := httptest.NewRequest("POST", "/api/access/v1/grants",
		strings.NewReader(`{"email":"student@example.edu"}`))
	req.RemoteAddr = "[2001:db8::2]:4242"
	if rec := doRequest(t, server, req); rec.Code != http.StatusOK {
		t.Fatalf("second IPv6 peer status = %d, want 200", rec.Code)
	}
}

func TestSweepAndAuditEndpoints(t *testing.T) {
	server, _ := newTestServer(t, "")

	grant := httptest.NewRequest("POST", "/api/access/v1/grants",
		strings.NewReader(`{"email":"student@example.edu"}`))
	if rec := doRequest(t, server, grant); rec.Code != http.StatusOK {
		t.Fatalf("grant status = %d", rec.Code)
	}

	rec := doRequest(t, server, httptest.NewRequest("POST", "/api/access/v1/sweep",
		strings.NewReader(`{"ttl_days":7}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep status = %d, body %s", rec.Code, rec.Body.String())
	}
	var sweep struct {
		Checked int `json:"checked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sweep); err != nil {
		t.Fatalf("decode sweep body: %v", err)
	}
	if sweep.Checked != 1 {
		t.Fatalf("checked = %d, want 1", sweep.Checked)
	}

	rec = doRequest(t, server, httptest.NewRequest("GET", "/api/access/v1/audit?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d", rec.Code)
	}
	var audit struct {
		Events []struct {
			Kind string `json:"kind"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &audit); err != nil {
		t.Fatalf("decode audit body: %v", err)
	}
	if len(audit.Events) == 0 {
		t.Fatalf("expected at least one audit event")
	}
}
