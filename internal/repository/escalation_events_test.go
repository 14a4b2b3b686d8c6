package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"caretrace-escalation/internal/models"
)

func setupMockEventsDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *EscalationEventsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewEscalationEventsRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestCreateEvent_Success(t *testing.T) {
	db, mock, repo := setupMockEventsDB(t)
	defer db.Close()

	now := time.Now()
	event := &models.EscalationEvent{
		EventID:     uuid.New().String(),
		SubjectID:   "subj-1",
		CheckinID:   "c9",
		Reason:      models.ReasonHighPain,
		TriggerData: `{"pain_level": 9}`,
		TriggeredAt: now,
		CreatedAt:   now,
	}

	mock.ExpectExec(`INSERT INTO escalation_events`).
		WithArgs(event.EventID, "subj-1", "c9", "high_pain", `{"pain_level": 9}`, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateEvent(context.Background(), event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEvent_DefaultsEmptyTriggerData(t *testing.T) {
	db, mock, repo := setupMockEventsDB(t)
	defer db.Close()

	now := time.Now()
	event := &models.EscalationEvent{
		EventID:     uuid.New().String(),
		SubjectID:   "subj-1",
		CheckinID:   "c9",
		Reason:      models.ReasonLowMood,
		TriggeredAt: now,
		CreatedAt:   now,
	}

	// 空 trigger_data 写入 "{}"
	mock.ExpectExec(`INSERT INTO escalation_events`).
		WithArgs(event.EventID, "subj-1", "c9", "low_mood", "{}", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateEvent(context.Background(), event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEvent_MissingEventID(t *testing.T) {
	db, _, repo := setupMockEventsDB(t)
	defer db.Close()

	err := repo.CreateEvent(context.Background(), &models.EscalationEvent{SubjectID: "subj-1"})
	require.Error(t, err)
}

func TestListRecentBySubject(t *testing.T) {
	db, mock, repo := setupMockEventsDB(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"event_id", "subject_id", "checkin_id", "reason",
		"trigger_data", "triggered_at", "created_at",
	}).
		AddRow("e2", "subj-1", "c5", "rapid_pain_increase", []byte(`{"pain_delta": 5}`), now, now).
		AddRow("e1", "subj-1", "c2", "high_pain", []byte(`{}`), now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT`).
		WithArgs("subj-1", 10).
		WillReturnRows(rows)

	events, err := repo.ListRecentBySubject(context.Background(), "subj-1", 10)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e2", events[0].EventID)
	assert.Equal(t, models.ReasonRapidPainIncrease, events[0].Reason)
	assert.Equal(t, `{"pain_delta": 5}`, events[0].TriggerData)
	assert.Equal(t, models.ReasonHighPain, events[1].Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}
