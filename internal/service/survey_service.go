package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
	"github.com/rs/zerolog"
)

// Domain errors.
var (
	ErrSurveyNotFound = errors.New("survey not found")
	ErrEmptyTitle     = errors.New("survey title must not be empty")
	ErrNoQuestions    = errors.New("survey must have at least one question")
)

// DeleteStep identifies where a cascading survey deletion failed. The order
// is fixed: responses go before participants (token is the foreign key),
// participants and questions before the survey row itself.
type DeleteStep string

const (
	StepCollectTokens      DeleteStep = "collect_tokens"
	StepDeleteResponses    DeleteStep = "delete_responses"
	StepDeleteParticipants DeleteStep = "delete_participants"
	StepDeleteQuestions    DeleteStep = "delete_questions"
	StepDeleteSurvey       DeleteStep = "delete_survey"
)

// DeleteStepError reports which cascade step failed. Re-running the whole
// deletion is the recovery path; every step is a no-op on absent rows.
type DeleteStepError struct {
	Step DeleteStep
	Err  error
}

func (e *DeleteStepError) Error() string {
	return fmt.Sprintf("cascading delete failed at step %s: %v", e.Step, e.Err)
}

func (e *DeleteStepError) Unwrap() error { return e.Err }

// SurveyService handles survey and question business logic, including the
// cascading deletion workflow.
type SurveyService struct {
	surveys        SurveyStore
	questions      QuestionStore
	participants   ParticipantStore
	responses      ResponseStore
	deletePageSize int
	log            zerolog.Logger
}

// NewSurveyService creates a new SurveyService. deletePageSize bounds the
// token pages and delete batches of the cascade.
func NewSurveyService(
	surveys SurveyStore,
	questions QuestionStore,
	participants ParticipantStore,
	responses ResponseStore,
	deletePageSize int,
	log zerolog.Logger,
) *SurveyService {
	if deletePageSize < 1 {
		deletePageSize = 1000
	}
	return &SurveyService{
		surveys:        surveys,
		questions:      questions,
		participants:   participants,
		responses:      responses,
		deletePageSize: deletePageSize,
		log:            log.With().Str("component", "survey_service").Logger(),
	}
}

// List retrieves surveys with their questions, paginated.
func (s *SurveyService) List(ctx context.Context, page, perPage int) ([]model.Survey, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	surveys, total, err := s.surveys.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if surveys == nil {
		surveys = []model.Survey{}
	}

	for i := range surveys {
		qs, err := s.questions.ListBySurvey(ctx, surveys[i].ID)
		if err != nil {
			return nil, nil, err
		}
		surveys[i].Questions = qs
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return surveys, pagination, nil
}

// Get retrieves a survey with its questions.
func (s *SurveyService) Get(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	survey, err := s.surveys.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	qs, err := s.questions.ListBySurvey(ctx, id)
	if err != nil {
		return nil, err
	}
	survey.Questions = qs
	return survey, nil
}

// Create builds a survey with questions numbered 1..N in input order. New
// surveys start active.
func (s *SurveyService) Create(ctx context.Context, req *model.CreateSurveyRequest) (*model.Survey, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(req.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	survey := &model.Survey{
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Active:       true,
		ScaleVariant: scaleVariantOrDefault(req.ScaleVariant),
	}
	questions := buildQuestions(req.Questions)

	if err := s.surveys.CreateWithQuestions(ctx, survey, questions); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	survey.Questions = questions

	s.log.Info().
		Str("survey_id", survey.ID.String()).
		Int("questions", len(questions)).
		Msg("Survey created")
	return survey, nil
}

// Update replaces the survey's scalar fields and its entire question set,
// renumbered 1..N. This is a full replace, never a diff; responses that
// referenced the old question IDs stop resolving.
func (s *SurveyService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateSurveyRequest) (*model.Survey, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(req.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	existing, err := s.surveys.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrSurveyNotFound
	}

	existing.Title = title
	existing.Description = strings.TrimSpace(req.Description)
	if req.Active != nil {
		existing.Active = *req.Active
	}
	if req.ScaleVariant != "" {
		existing.ScaleVariant = model.ScaleVariant(req.ScaleVariant)
	}

	questions := buildQuestions(req.Questions)
	if err := s.surveys.UpdateWithQuestions(ctx, existing, questions); err != nil {
		return nil, fmt.Errorf("update survey: %w", err)
	}
	existing.Questions = questions
	return existing, nil
}

// Delete removes a survey and everything reachable from it. Participant
// tokens are collected in bounded pages first, then responses, participants,
// questions and the survey row are deleted in dependency order. Returns the
// number of participants deleted.
func (s *SurveyService) Delete(ctx context.Context, id uuid.UUID) (int, error) {
	survey, err := s.surveys.GetByID(ctx, id)
	if err != nil {
		return 0, &DeleteStepError{Step: StepCollectTokens, Err: err}
	}
	if survey == nil {
		return 0, ErrSurveyNotFound
	}

	// Step 1: collect every participant token, one bounded page at a time.
	// A short page signals end-of-data.
	var tokens []string
	for offset := 0; ; offset += s.deletePageSize {
		page, err := s.participants.ListTokensPage(ctx, id, s.deletePageSize, offset)
		if err != nil {
			return 0, &DeleteStepError{Step: StepCollectTokens, Err: err}
		}
		tokens = append(tokens, page...)
		if len(page) < s.deletePageSize {
			break
		}
	}

	// Step 2: responses, batched by token membership.
	for _, batch := range batchTokens(tokens, s.deletePageSize) {
		if _, err := s.responses.DeleteByTokens(ctx, batch); err != nil {
			return 0, &DeleteStepError{Step: StepDeleteResponses, Err: err}
		}
	}

	// Step 3: participants, same batch size.
	deleted := 0
	for _, batch := range batchTokens(tokens, s.deletePageSize) {
		n, err := s.participants.DeleteByTokens(ctx, batch)
		if err != nil {
			return deleted, &DeleteStepError{Step: StepDeleteParticipants, Err: err}
		}
		deleted += int(n)
	}

	// Step 4: questions.
	if _, err := s.questions.DeleteBySurvey(ctx, id); err != nil {
		return deleted, &DeleteStepError{Step: StepDeleteQuestions, Err: err}
	}

	// Step 5: the survey row itself.
	if err := s.surveys.Delete(ctx, id); err != nil {
		return deleted, &DeleteStepError{Step: StepDeleteSurvey, Err: err}
	}

	s.log.Info().
		Str("survey_id", id.String()).
		Int("participants_deleted", deleted).
		Msg("Survey deleted")
	return deleted, nil
}

func scaleVariantOrDefault(v string) model.ScaleVariant {
	if v == "" {
		return model.ScaleVariantSatisfaction
	}
	return model.ScaleVariant(v)
}

func buildQuestions(reqs []model.CreateQuestionRequest) []model.Question {
	questions := make([]model.Question, len(reqs))
	for i, q := range reqs {
		qType := model.QuestionTypeObjective
		if q.Type != "" {
			qType = model.QuestionType(q.Type)
		}
		questions[i] = model.Question{
			Position: i + 1,
			Text:     strings.TrimSpace(q.Text),
			Type:     qType,
		}
	}
	return questions
}

func batchTokens(tokens []string, size int) [][]string {
	if len(tokens) == 0 {
		return nil
	}
	var batches [][]string
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		batches = append(batches, tokens[start:end])
	}
	return batches
}
