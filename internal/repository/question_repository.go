package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySurvey retrieves all questions for a survey in display order.
func (r *QuestionRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, survey_id, position, text, type
		 FROM questions WHERE survey_id = $1
		 ORDER BY position`, surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Position, &q.Text, &q.Type); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// DeleteBySurvey removes every question of a survey. Deleting an already
// empty set is a no-op, which keeps cascade retries idempotent.
func (r *QuestionRepository) DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE survey_id = $1`, surveyID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
