package workers

import (
	"context"
	"log/slog"

	application "gatepass/contexts/identity-access/grant-orchestrator/application"
	"gatepass/contexts/identity-access/grant-orchestrator/application/commands"
)

// ExpirySweeper runs the scheduled membership sweep. Driven by the worker
// loop in bootstrap.
type ExpirySweeper struct {
	Sweep   commands.SweepExpiredUseCase
	TTLDays int
	Logger  *slog.Logger
}

func (s ExpirySweeper) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)

	report, err := s.Sweep.Execute(ctx, commands.SweepExpiredCommand{TTLDays: s.TTLDays})
	if err != nil {
		logger.Error("scheduled membership sweep failed",
			"event", "sweep_worker_failed",
			"module", "identity-access/grant-orchestrator",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(report.Deleted) > 0 {
		logger.Info("scheduled membership sweep removed members",
			"event", "sweep_worker_completed",
			"module", "identity-access/grant-orchestrator",
			"layer", "worker",
			"checked", report.Checked,
			"deleted", len(report.Deleted),
			"skipped", len(report.Skipped),
		)
	}
	return nil
}
