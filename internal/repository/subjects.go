package repository

import (
	"context"
	"database/sql"
	"fmt"

	"caretrace-escalation/internal/models"

	"go.uber.org/zap"
)

// SubjectsRepository subject 仓库
type SubjectsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubjectsRepository 创建 subject 仓库
func NewSubjectsRepository(db *sql.DB, logger *zap.Logger) *SubjectsRepository {
	return &SubjectsRepository{
		db:     db,
		logger: logger,
	}
}

// GetSubject 根据 subject_id 获取 subject；不存在返回 ErrSubjectNotFound
func (r *SubjectsRepository) GetSubject(ctx context.Context, subjectID string) (*models.Subject, error) {
	if subjectID == "" {
		return nil, fmt.Errorf("subject_id is required")
	}

	query := `
		SELECT
			subject_id,
			full_name,
			status,
			created_at
		FROM subjects
		WHERE subject_id = $1
	`

	var subject models.Subject
	err := r.db.QueryRowContext(ctx, query, subjectID).Scan(
		&subject.SubjectID,
		&subject.FullName,
		&subject.Status,
		&subject.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrSubjectNotFound, subjectID)
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	return &subject, nil
}
