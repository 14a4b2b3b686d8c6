package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"caretrace-escalation/internal/models"

	"go.uber.org/zap"
)

// CheckinsRepository 打卡记录仓库（History Source 的生产实现）
// 本服务对打卡记录只读，创建由提交流程负责
type CheckinsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCheckinsRepository 创建打卡记录仓库
func NewCheckinsRepository(db *sql.DB, logger *zap.Logger) *CheckinsRepository {
	return &CheckinsRepository{
		db:     db,
		logger: logger,
	}
}

// HistoryFilter 历史查询过滤条件
type HistoryFilter struct {
	StartDate *time.Time // created_at >= StartDate
	EndDate   *time.Time // created_at <= EndDate
	Keyword   *string    // 症状/关注文本模糊匹配
	Limit     *int       // 最多返回条数
}

// FetchHistory 查询 subject 的打卡历史（按 created_at 倒序，最新在前）
// 查询失败统一包装为 ErrHistoryUnavailable
func (r *CheckinsRepository) FetchHistory(ctx context.Context, subjectID string, f HistoryFilter) ([]models.CheckInRecord, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject_id is required")
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT
			id,
			subject_id,
			created_at,
			pain_level,
			energy_bucket,
			mood_bucket,
			symptoms_text,
			concerns_text,
			team_note
		FROM check_ins
		WHERE subject_id = $1
	`)

	args := []interface{}{subjectID}

	if f.StartDate != nil {
		args = append(args, *f.StartDate)
		sb.WriteString(fmt.Sprintf(" AND created_at >= $%d", len(args)))
	}
	if f.EndDate != nil {
		args = append(args, *f.EndDate)
		sb.WriteString(fmt.Sprintf(" AND created_at <= $%d", len(args)))
	}
	if f.Keyword != nil && *f.Keyword != "" {
		args = append(args, "%"+*f.Keyword+"%")
		n := len(args)
		sb.WriteString(fmt.Sprintf(" AND (symptoms_text ILIKE $%d OR concerns_text ILIKE $%d)", n, n))
	}

	sb.WriteString(" ORDER BY created_at DESC")

	if f.Limit != nil && *f.Limit > 0 {
		args = append(args, *f.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to query check-in history",
			zap.String("subject_id", subjectID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	var records []models.CheckInRecord
	for rows.Next() {
		var rec models.CheckInRecord
		var energy, mood, symptoms, concerns, teamNote sql.NullString

		if err := rows.Scan(
			&rec.ID,
			&rec.SubjectID,
			&rec.CreatedAt,
			&rec.PainLevel,
			&energy,
			&mood,
			&symptoms,
			&concerns,
			&teamNote,
		); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
		}

		if energy.Valid {
			b := models.EnergyBucket(energy.String)
			rec.EnergyBucket = &b
		}
		if mood.Valid {
			b := models.MoodBucket(mood.String)
			rec.MoodBucket = &b
		}
		if symptoms.Valid {
			rec.SymptomsText = &symptoms.String
		}
		if concerns.Valid {
			rec.ConcernsText = &concerns.String
		}
		if teamNote.Valid {
			rec.TeamNote = &teamNote.String
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	return records, nil
}
