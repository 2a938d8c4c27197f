package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/repository"
)

// Store interfaces decouple services from pgx so business rules are testable
// against in-memory stubs. The repository package provides the production
// implementations; signatures match one-to-one.

// SurveyStore is the persistence surface for surveys and their question sets.
type SurveyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error)
	ListPaginated(ctx context.Context, limit, offset int) ([]model.Survey, int, error)
	CreateWithQuestions(ctx context.Context, s *model.Survey, questions []model.Question) error
	UpdateWithQuestions(ctx context.Context, s *model.Survey, questions []model.Question) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// QuestionStore is the persistence surface for questions.
type QuestionStore interface {
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Question, error)
	DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error)
}

// ParticipantStore is the persistence surface for survey rosters.
type ParticipantStore interface {
	GetByToken(ctx context.Context, token string) (*model.Participant, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	ListBySurveyPaginated(ctx context.Context, surveyID uuid.UUID, limit, offset int) ([]model.Participant, int, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Participant, error)
	ListTokensPage(ctx context.Context, surveyID uuid.UUID, limit, offset int) ([]string, error)
	BulkInsert(ctx context.Context, participants []model.Participant) (int, error)
	DeleteByTokens(ctx context.Context, tokens []string) (int64, error)
	DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error)
}

// ResponseStore is the persistence surface for stored answers.
type ResponseStore interface {
	ListByToken(ctx context.Context, token string) ([]model.Response, error)
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]repository.SurveyAnswer, error)
	DeleteByTokens(ctx context.Context, tokens []string) (int64, error)
	DeleteBySurvey(ctx context.Context, surveyID uuid.UUID) (int64, error)
	SubmitAndComplete(ctx context.Context, token string, responses []model.Response) error
}
