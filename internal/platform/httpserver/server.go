package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	grantorchestrator "gatepass/contexts/identity-access/grant-orchestrator"
	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	domainerrors "gatepass/contexts/identity-access/grant-orchestrator/domain/errors"
	httptransport "gatepass/contexts/identity-access/grant-orchestrator/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "gatepass/internal/platform/httpserver/docs"
)

type Server struct {
	mux       *http.ServeMux
	logger    *slog.Logger
	addr      string
	grants    grantorchestrator.Module
	siteToken string
	groupName string
}

func New(
	grants grantorchestrator.Module,
	logger *slog.Logger,
	addr string,
	siteToken string,
	groupName string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		addr:      addr,
		grants:    grants,
		siteToken: siteToken,
		groupName: groupName,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest-driven tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/access/v1/grants", s.handleRequestGrant)
	s.mux.HandleFunc("POST /api/access/v1/sweep", s.handleSweep)
	s.mux.HandleFunc("GET /api/access/v1/audit", s.handleListAudit)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":                true,
		"access_group_name": s.groupName,
	})
}

func (s *Server) handleRequestGrant(w http.ResponseWriter, r *http.Request) {
	if !s.checkSiteToken(r) {
		writeGrantError(w, http.StatusForbidden, "invalid_site_token", "missing or invalid X-Site-Token header")
		return
	}

	var req httptransport.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGrantError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.grants.Handler.RequestGrantHandler(r.Context(), resolveClientIP(r), req)
	if err != nil {
		writeGrantDomainError(w, err)
		return
	}
	if resp.Outcome == string(entities.GrantFailed) {
		// Invite failures surface the upstream status in the body; the grant
		// did not take effect.
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	if !s.checkSiteToken(r) {
		writeGrantError(w, http.StatusForbidden, "invalid_site_token", "missing or invalid X-Site-Token header")
		return
	}

	req := httptransport.SweepRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeGrantError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.grants.Handler.SweepHandler(r.Context(), req)
	if err != nil {
		writeGrantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeGrantError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}

	resp, err := s.grants.Handler.ListAuditHandler(r.Context(), limit)
	if err != nil {
		writeGrantDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// checkSiteToken enforces the optional shared-secret gate. An empty configured
// token disables the check.
func (s *Server) checkSiteToken(r *http.Request) bool {
	if s.siteToken == "" {
		return true
	}
	return r.Header.Get("X-Site-Token") == s.siteToken
}

func writeGrantDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrRateLimited):
		writeGrantError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, domainerrors.ErrGroupNotFound):
		writeGrantError(w, http.StatusNotFound, "group_not_found", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidRequest):
		writeGrantError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domainerrors.ErrTokenExchange):
		writeGrantError(w, http.StatusBadGateway, "token_exchange_failed", err.Error())
	default:
		writeGrantError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGrantError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, httptransport.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if comma := strings.IndexByte(forwarded, ','); comma >= 0 {
			return strings.TrimSpace(forwarded[:comma])
		}
		return strings.TrimSpace(forwarded)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
