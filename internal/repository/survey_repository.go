package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
)

// SurveyRepository handles survey data access.
type SurveyRepository struct {
	pool *pgxpool.Pool
}

// NewSurveyRepository creates a new SurveyRepository.
func NewSurveyRepository(pool *pgxpool.Pool) *SurveyRepository {
	return &SurveyRepository{pool: pool}
}

// GetByID retrieves a survey without its questions. Returns (nil, nil) when absent.
func (r *SurveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	s := &model.Survey{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, active, scale_variant, created_at, updated_at
		 FROM surveys WHERE id = $1`, id,
	).Scan(&s.ID, &s.Title, &s.Description, &s.Active, &s.ScaleVariant, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListPaginated retrieves surveys ordered by creation time, newest first.
func (r *SurveyRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Survey, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM surveys`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, active, scale_variant, created_at, updated_at
		 FROM surveys ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var surveys []model.Survey
	for rows.Next() {
		var s model.Survey
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Active, &s.ScaleVariant, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		surveys = append(surveys, s)
	}
	return surveys, total, rows.Err()
}

// CreateWithQuestions inserts a survey and its initial question set in one
// transaction. Question positions are taken as given (the service numbers
// them 1..N).
func (r *SurveyRepository) CreateWithQuestions(ctx context.Context, s *model.Survey, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO surveys (title, description, active, scale_variant)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		s.Title, s.Description, s.Active, s.ScaleVariant,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}

	for i := range questions {
		questions[i].SurveyID = s.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (survey_id, position, text, type)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			questions[i].SurveyID, questions[i].Position, questions[i].Text, questions[i].Type,
		).Scan(&questions[i].ID)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", questions[i].Position, err)
		}
	}

	return tx.Commit(ctx)
}

// UpdateWithQuestions updates the survey's scalar fields and fully replaces
// its question set, all in one transaction. Old question IDs are gone after
// this; responses referencing them stop resolving.
func (r *SurveyRepository) UpdateWithQuestions(ctx context.Context, s *model.Survey, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE surveys
		 SET title = $1, description = $2, active = $3, scale_variant = $4, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $5`,
		s.Title, s.Description, s.Active, s.ScaleVariant, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE survey_id = $1`, s.ID); err != nil {
		return fmt.Errorf("delete old questions: %w", err)
	}

	for i := range questions {
		questions[i].SurveyID = s.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO questions (survey_id, position, text, type)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			questions[i].SurveyID, questions[i].Position, questions[i].Text, questions[i].Type,
		).Scan(&questions[i].ID)
		if err != nil {
			return fmt.Errorf("insert question %d: %w", questions[i].Position, err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the survey row itself. Dependent rows must already be gone;
// the service drives the cascade ordering.
func (r *SurveyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, id)
	return err
}
