package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gatepass/contexts/identity-access/grant-orchestrator/domain/entities"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolationCode = "23505"

// AuditLog persists grant and sweep events. The orchestrator keeps no other
// durable state; this table exists for observability, not for grant logic.
type AuditLog struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAuditLog(db *gorm.DB, logger *slog.Logger) *AuditLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLog{db: db, logger: logger}
}

// Migrate creates the audit table when missing.
func (l *AuditLog) Migrate(ctx context.Context) error {
	return l.db.WithContext(ctx).AutoMigrate(&auditEventModel{})
}

func (l *AuditLog) Record(ctx context.Context, event entities.AuditEvent) error {
	row := auditEventModel{
		EventID:     event.EventID,
		Kind:        event.Kind,
		Email:       event.Email,
		PrincipalID: event.PrincipalID,
		GroupID:     event.GroupID,
		Status:      event.Status,
		Detail:      event.Detail,
		OccurredAt:  event.OccurredAt,
	}
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			// Same event recorded twice (replayed delivery); keep the first.
			return nil
		}
		return err
	}
	return nil
}

func (l *AuditLog) Recent(ctx context.Context, limit int) ([]entities.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []auditEventModel
	if err := l.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	events := make([]entities.AuditEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEntity())
	}
	return events, nil
}

type auditEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	Kind        string    `gorm:"column:kind"`
	Email       string    `gorm:"column:email"`
	PrincipalID string    `gorm:"column:principal_id"`
	GroupID     string    `gorm:"column:group_id"`
	Status      string    `gorm:"column:status"`
	Detail      string    `gorm:"column:detail"`
	OccurredAt  time.Time `gorm:"column:occurred_at;index"`
}

func (auditEventModel) TableName() string { return "access_audit_events" }

func (m auditEventModel) toEntity() entities.AuditEvent {
	return entities.AuditEvent{
		EventID:     m.EventID,
		Kind:        m.Kind,
		Email:       m.Email,
		PrincipalID: m.PrincipalID,
		GroupID:     m.GroupID,
		Status:      m.Status,
		Detail:      m.Detail,
		OccurredAt:  m.OccurredAt,
	}
}
