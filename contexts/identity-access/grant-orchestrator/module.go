package grantorchestrator

import (
	"log/slog"
	"time"

	httpadapter "gatepass/contexts/identity-access/grant-orchestrator/adapters/http"
	"gatepass/contexts/identity-access/grant-orchestrator/adapters/memory"
	"gatepass/contexts/identity-access/grant-orchestrator/application/commands"
	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"
	"gatepass/contexts/identity-access/grant-orchestrator/ports"
	"gatepass/internal/shared/ratelimit"
)

// Module is the grant-orchestrator composition root exposed to runtime wiring.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Limiter     ports.Admitter
	Tokens      ports.TokenSource
	Directory   ports.Directory
	Inviter     ports.Inviter
	Policies    ports.PolicyStore
	Remover     ports.MemberRemover
	Audit       ports.AuditLog
	Clock       ports.Clock
	IDGenerator ports.IDGenerator

	GroupName       string
	ResourceGroupID string
	RoleID          string
	DefaultTTLDays  int

	Logger *slog.Logger
}

// NewModule wires the grant and sweep use cases and the transport handler
// using explicit ports.
func NewModule(deps Dependencies) Module {
	requestGrant := commands.RequestGrantUseCase{
		Limiter:         deps.Limiter,
		Tokens:          deps.Tokens,
		Directory:       deps.Directory,
		Inviter:         deps.Inviter,
		Policies:        deps.Policies,
		Audit:           deps.Audit,
		Clock:           deps.Clock,
		IDGenerator:     deps.IDGenerator,
		GroupName:       deps.GroupName,
		ResourceGroupID: deps.ResourceGroupID,
		RoleID:          deps.RoleID,
		DefaultTTLDays:  deps.DefaultTTLDays,
		Logger:          deps.Logger,
	}
	sweepExpired := commands.SweepExpiredUseCase{
		Tokens:         deps.Tokens,
		Directory:      deps.Directory,
		Remover:        deps.Remover,
		Audit:          deps.Audit,
		Clock:          deps.Clock,
		IDGenerator:    deps.IDGenerator,
		GroupName:      deps.GroupName,
		DefaultTTLDays: deps.DefaultTTLDays,
		Logger:         deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			RequestGrant: requestGrant,
			SweepExpired: sweepExpired,
			Audit:        deps.Audit,
			Logger:       deps.Logger,
		},
	}
}

const (
	devGroupName       = "QZD35G-student-access"
	devGroupID         = "AccessGroupId-dev-student-access"
	devResourceGroupID = "rg-dev"
	devRoleID          = "crn:v1:bluemix:public:iam::::role:Viewer"
)

// NewInMemoryModule builds a development/testing module with in-memory
// adapters and a pre-seeded access group.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	store.AddGroup(entities.AccessGroup{ID: devGroupID, Name: devGroupName})

	module := NewModule(Dependencies{
		Limiter:         ratelimit.New(5, 24*time.Hour),
		Tokens:          store,
		Directory:       store,
		Inviter:         store,
		Policies:        store,
		Remover:         store,
		Audit:           store,
		Clock:           store,
		IDGenerator:     store,
		GroupName:       devGroupName,
		ResourceGroupID: devResourceGroupID,
		RoleID:          devRoleID,
		DefaultTTLDays:  7,
		Logger:          logger,
	})
	module.Store = store
	return module
}
