package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
)

// ErrDuplicateToken surfaces the UNIQUE constraint on participants.token.
// The generator makes this practically unreachable; the constraint is
// defense in depth.
var ErrDuplicateToken = errors.New("participant with this token already exists")

// ParticipantRepository handles participant data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetByToken retrieves a participant by access token. Returns (nil, nil) when absent.
func (r *ParticipantRepository) GetByToken(ctx context.Context, token string) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, survey_id, token, hospital, name, phone, note, completed, created_at, updated_at
		 FROM participants WHERE token = $1`, token,
	).Scan(&p.ID, &p.SurveyID, &p.Token, &p.Hospital, &p.Name, &p.Phone, &p.Note, &p.Completed, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// TokenExists reports whether any participant already holds the given token.
// The check is global, not scoped to one survey.
func (r *ParticipantRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE token = $1)`, token,
	).Scan(&exists)
	return exists, err
}

// ListBySurveyPaginated retrieves a survey's roster page, insertion order.
func (r *ParticipantRepository) ListBySurveyPaginated(ctx context.Context, surveyID uuid.UUID, limit, offset int) ([]model.Participant, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM participants WHERE survey_id = $1`, surveyID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, survey_id, token, hospital, name, phone, note, completed, created_at, updated_at
		 FROM participants WHERE survey_id = $1
		 ORDER BY id LIMIT $2 OFFSET $3`, surveyID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.SurveyID, &p.Token, &p.Hospital, &p.Name, &p.Phone, &p.Note, &p.Completed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		participants = append(participants, p)
	}
	return participants, total, rows.Err()
}

// ListBySurvey retrieves the full roster of a survey, used by the statistics
// aggregation which needs completion flags and hospital names per participant.
func (r *ParticipantRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, survey_id, token, hospital, name, phone, note, completed, created_at, updated_at
		 FROM participants WHERE survey_id = $1 ORDER BY id`, surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.SurveyID, &p.Token, &p.Hospital, &p.Name, &p.Phone, &p.Note, &p.Completed, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ListTokensPage fetches one bounded page of a survey's participant tokens.
// A short page signals end-of-data to the caller.
func (r *ParticipantRepository) ListTokensPage(ctx context.Context, surveyID uuid.UUID, limit, offset int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT token FROM participants WHERE survey_id = $1
		 ORDER BY id LIMIT $2 OFFSET $3`, surveyID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// BulkInsert inserts a full roster batch atomically using COPY inside a
// transaction. Either every row lands or none do.
func (r *ParticipantRepository) BulkInsert(ctx context.Context, participants []model.Participant) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]interface{}, len(participants))
	for i, p := range participants {
		rows[i] = []interface{}{p.SurveyID, p.Token, p.Hospital, p.Name, p.Phone, p.Note, p.Completed}
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"participants"},
		[]string{"survey_id", "token", "hospital", "name", "phone", "note", "completed"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateToken
		}
		return 0, fmt.Errorf("copy participants: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(n), nil
}

// DeleteByTokens removes participants by token membership. Absent tokens are
// skipped silently.
func (r *ParticipantRepository) DeleteByTokens(ctx context.Context, tokens []string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE token = ANY($1)`, tokens)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteBySurvey removes every participant of a survey in one statement.
// Used by the roster purge, where the set is replaced immediately after.
func (r *ParticipantRepository) DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE survey_id = $1`, surveyID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
