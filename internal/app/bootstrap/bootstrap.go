package bootstrap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	grantorchestrator "gatepass/contexts/identity-access/grant-orchestrator"
	cloudadapter "gatepass/contexts/identity-access/grant-orchestrator/adapters/cloud"
	"gatepass/contexts/identity-access/grant-orchestrator/adapters/memory"
	postgresadapter "gatepass/contexts/identity-access/grant-orchestrator/adapters/postgres"
	workerapp "gatepass/contexts/identity-access/grant-orchestrator/application/workers"
	"gatepass/contexts/identity-access/grant-orchestrator/ports"
	"gatepass/internal/platform/config"
	"gatepass/internal/platform/db"
	"gatepass/internal/platform/httpserver"
	"gatepass/internal/shared/ratelimit"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	sweeper      workerapp.ExpirySweeper
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	audit, pg, err := buildAudit(cfg, logger)
	if err != nil {
		return nil, err
	}

	module := buildModule(cfg, audit, logger)
	server := httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort), cfg.SiteToken, cfg.AccessGroupName)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	audit, pg, err := buildAudit(cfg, logger)
	if err != nil {
		return nil, err
	}

	module := buildModule(cfg, audit, logger)
	return &WorkerApp{
		postgres: pg,
		sweeper: workerapp.ExpirySweeper{
			Sweep:   module.Handler.SweepExpired,
			TTLDays: cfg.GrantTTLDays,
			Logger:  logger,
		},
		pollInterval: cfg.SweepInterval,
		logger:       logger,
	}, nil
}

func buildModule(cfg config.Config, audit ports.AuditLog, logger *slog.Logger) grantorchestrator.Module {
	cloud := cloudadapter.NewClient(cloudadapter.Config{
		APIKey:       cfg.APIKey,
		AccountID:    cfg.AccountID,
		IAMBase:      cfg.IAMBaseURL,
		UserMgmtBase: cfg.UserMgmtBaseURL,
	}, logger)

	return grantorchestrator.NewModule(grantorchestrator.Dependencies{
		Limiter:         ratelimit.New(cfg.RateLimit, cfg.RateWindow),
		Tokens:          cloud,
		Directory:       cloud,
		Inviter:         cloud,
		Policies:        cloud,
		Remover:         cloud,
		Audit:           audit,
		Clock:           postgresadapter.SystemClock{},
		IDGenerator:     postgresadapter.UUIDGenerator{},
		GroupName:       cfg.AccessGroupName,
		ResourceGroupID: cfg.ResourceGroupID,
		RoleID:          cfg.RoleID,
		DefaultTTLDays:  cfg.GrantTTLDays,
		Logger:          logger,
	})
}

// buildAudit wires the postgres audit trail when a DSN is configured and
// falls back to the in-memory trail otherwise.
func buildAudit(cfg config.Config, logger *slog.Logger) (ports.AuditLog, *db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Info("audit trail running in-memory",
			"event", "bootstrap_audit_in_memory",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return memory.NewAuditTrail(), nil, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	audit := postgresadapter.NewAuditLog(pg.DB, logger)
	if err := audit.Migrate(context.Background()); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	return audit, pg, nil
}

func (a *APIApp) Run(_ context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		// A failed pass is logged by the sweeper and retried next tick; the
		// worker itself stays up.
		_ = w.sweeper.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
