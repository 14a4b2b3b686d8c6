package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caretrace-escalation/internal/models"

	"go.uber.org/zap"
)

// EscalationEventsRepository 升级报警事件仓库（已触发报警的留痕）
type EscalationEventsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEscalationEventsRepository 创建升级报警事件仓库
func NewEscalationEventsRepository(db *sql.DB, logger *zap.Logger) *EscalationEventsRepository {
	return &EscalationEventsRepository{
		db:     db,
		logger: logger,
	}
}

// CreateEvent 写入升级报警事件
func (r *EscalationEventsRepository) CreateEvent(ctx context.Context, event *models.EscalationEvent) error {
	if event.EventID == "" {
		return fmt.Errorf("event_id is required")
	}
	if event.SubjectID == "" {
		return fmt.Errorf("subject_id is required")
	}

	query := `
		INSERT INTO escalation_events (
			event_id,
			subject_id,
			checkin_id,
			reason,
			trigger_data,
			triggered_at,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	triggerData := event.TriggerData
	if triggerData == "" {
		triggerData = "{}"
	}

	_, err := r.db.ExecContext(ctx, query,
		event.EventID,
		event.SubjectID,
		event.CheckinID,
		string(event.Reason),
		triggerData,
		event.TriggeredAt,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create escalation event: %w", err)
	}

	return nil
}

// ListRecentBySubject 查询 subject 最近的升级报警事件（最新在前）
func (r *EscalationEventsRepository) ListRecentBySubject(ctx context.Context, subjectID string, limit int) ([]models.EscalationEvent, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject_id is required")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT
			event_id,
			subject_id,
			checkin_id,
			reason,
			trigger_data,
			triggered_at,
			created_at
		FROM escalation_events
		WHERE subject_id = $1
		ORDER BY triggered_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation events: %w", err)
	}
	defer rows.Close()

	var events []models.EscalationEvent
	for rows.Next() {
		var event models.EscalationEvent
		var reason string
		var triggerData []byte

		if err := rows.Scan(
			&event.EventID,
			&event.SubjectID,
			&event.CheckinID,
			&reason,
			&triggerData,
			&event.TriggeredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan escalation event: %w", err)
		}

		event.Reason = models.EscalationReason(reason)
		event.TriggerData = string(triggerData)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escalation events: %w", err)
	}

	return events, nil
}
