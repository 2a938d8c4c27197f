package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
)

// ErrParticipantCompleted surfaces the completed guard on the final UPDATE
// of SubmitAndComplete.
var ErrParticipantCompleted = errors.New("participant has already completed the survey")

// SurveyAnswer joins a stored response with its participant and question,
// the row shape the statistics aggregation and CSV export work from.
type SurveyAnswer struct {
	Token       string             `json:"token"`
	Hospital    string             `json:"hospital"`
	Participant string             `json:"participant"`
	QuestionID  uuid.UUID          `json:"question_id"`
	Position    int                `json:"position"`
	Type        model.QuestionType `json:"type"`
	Scale       *int               `json:"scale,omitempty"`
	Text        *string            `json:"text,omitempty"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// ResponseRepository handles response data access.
type ResponseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(pool *pgxpool.Pool) *ResponseRepository {
	return &ResponseRepository{pool: pool}
}

// ListByToken retrieves a participant's stored responses, used for resume.
func (r *ResponseRepository) ListByToken(ctx context.Context, token string) ([]model.Response, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT token, question_id, scale, text, submitted_at
		 FROM responses WHERE token = $1`, token,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		var resp model.Response
		if err := rows.Scan(&resp.Token, &resp.QuestionID, &resp.Scale, &resp.Text, &resp.SubmittedAt); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// ListBySurvey retrieves every answer of a survey joined with participant and
// question data. Responses whose question was replaced out of existence are
// excluded by the join.
func (r *ResponseRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]SurveyAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT resp.token, p.hospital, p.name, resp.question_id, q.position, q.type,
		        resp.scale, resp.text, resp.submitted_at
		 FROM responses resp
		 JOIN participants p ON p.token = resp.token
		 JOIN questions q ON q.id = resp.question_id
		 WHERE p.survey_id = $1
		 ORDER BY p.id, q.position`, surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []SurveyAnswer
	for rows.Next() {
		var a SurveyAnswer
		if err := rows.Scan(&a.Token, &a.Hospital, &a.Participant, &a.QuestionID, &a.Position, &a.Type, &a.Scale, &a.Text, &a.SubmittedAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// DeleteByTokens removes responses by participant-token membership.
func (r *ResponseRepository) DeleteByTokens(ctx context.Context, tokens []string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM responses WHERE token = ANY($1)`, tokens)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteBySurvey removes every response belonging to a survey's current
// participants, used by the roster purge before a replacement upload.
func (r *ResponseRepository) DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM responses
		 WHERE token IN (SELECT token FROM participants WHERE survey_id = $1)`, surveyID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SubmitAndComplete replaces a participant's response set and marks them
// completed, all in one transaction. A resubmission can therefore never
// merge old and new answers, and a half-written set is never visible. The
// completing UPDATE requires completed = FALSE, so a tab that
// passed the service-level gate before another tab's commit rolls back with
// ErrParticipantCompleted instead of overwriting the stored set.
func (r *ResponseRepository) SubmitAndComplete(ctx context.Context, token string, responses []model.Response) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM responses WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete old responses: %w", err)
	}

	for _, resp := range responses {
		_, err := tx.Exec(ctx,
			`INSERT INTO responses (token, question_id, scale, text, submitted_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			token, resp.QuestionID, resp.Scale, resp.Text, resp.SubmittedAt,
		)
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE participants SET completed = TRUE, updated_at = CURRENT_TIMESTAMP
		 WHERE token = $1 AND completed = FALSE`, token,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrParticipantCompleted
	}

	return tx.Commit(ctx)
}
