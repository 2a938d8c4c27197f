package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/repository"
	"github.com/rs/zerolog"
)

// Domain-state errors surfaced to the participant-facing caller.
var (
	ErrInvalidToken     = errors.New("no participant with this access token")
	ErrSurveyInactive   = errors.New("survey is not accepting responses")
	ErrAlreadyCompleted = errors.New("participant has already completed the survey")
	ErrUnanswered       = errors.New("every question must be answered")
	ErrAnswerMismatch   = errors.New("answer does not match the question type")
	ErrSubmitInFlight   = errors.New("another submission for this participant is in progress")
)

// SubmissionEvent is published to the survey's monitor channel after a
// successful submission.
type SubmissionEvent struct {
	SurveyID    string    `json:"survey_id"`
	Hospital    string    `json:"hospital"`
	Participant string    `json:"participant"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitCoordinator covers the cross-instance concerns of a submission:
// the per-token advisory lock that serializes concurrent tabs, and the
// post-commit fan-out (stats cache invalidation, live monitor publish).
type SubmitCoordinator interface {
	TryLock(ctx context.Context, token string) (bool, error)
	Unlock(ctx context.Context, token string)
	Submitted(ctx context.Context, event SubmissionEvent)
}

// ResumeView is everything the participant-facing client needs to render the
// survey, including prior responses for resume.
type ResumeView struct {
	Participant *model.Participant `json:"participant"`
	Survey      *model.Survey      `json:"survey"`
	Responses   []model.Response   `json:"responses"`
}

// SubmissionService handles the participant-facing answer flow.
type SubmissionService struct {
	surveys      SurveyStore
	questions    QuestionStore
	participants ParticipantStore
	responses    ResponseStore
	coordinator  SubmitCoordinator
	log          zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	surveys SurveyStore,
	questions QuestionStore,
	participants ParticipantStore,
	responses ResponseStore,
	coordinator SubmitCoordinator,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		surveys:      surveys,
		questions:    questions,
		participants: participants,
		responses:    responses,
		coordinator:  coordinator,
		log:          log.With().Str("component", "submission_service").Logger(),
	}
}

// Resume resolves an access token to the participant, survey, questions and
// any prior responses. The completion and active gates run here too, so the
// participant sees the rejection on page load rather than after answering.
func (s *SubmissionService) Resume(ctx context.Context, accessToken string) (*ResumeView, error) {
	participant, survey, err := s.gate(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	qs, err := s.questions.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	survey.Questions = qs

	prior, err := s.responses.ListByToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	if prior == nil {
		prior = []model.Response{}
	}

	return &ResumeView{Participant: participant, Survey: survey, Responses: prior}, nil
}

// Submit validates a complete answer set and commits it: old responses are
// deleted, the new set inserted and the participant marked completed, all in
// one transaction, under a per-token advisory lock so two tabs cannot
// interleave their delete-then-insert sequences.
func (s *SubmissionService) Submit(ctx context.Context, accessToken string, answers []model.Answer) error {
	participant, survey, err := s.gate(ctx, accessToken)
	if err != nil {
		return err
	}

	qs, err := s.questions.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}

	rows, err := buildResponses(accessToken, qs, answers)
	if err != nil {
		return err
	}

	locked, err := s.coordinator.TryLock(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("acquire submit lock: %w", err)
	}
	if !locked {
		return ErrSubmitInFlight
	}
	defer s.coordinator.Unlock(ctx, accessToken)

	// The gate above ran before the lock was held. A tab that passed it
	// while another tab's submit was in flight reaches this point with a
	// stale view; the store's completed guard rejects it here.
	if err := s.responses.SubmitAndComplete(ctx, accessToken, rows); err != nil {
		if errors.Is(err, repository.ErrParticipantCompleted) {
			return ErrAlreadyCompleted
		}
		return fmt.Errorf("store responses: %w", err)
	}

	s.coordinator.Submitted(ctx, SubmissionEvent{
		SurveyID:    survey.ID.String(),
		Hospital:    participant.Hospital,
		Participant: participant.Name,
		SubmittedAt: time.Now(),
	})

	s.log.Info().
		Str("survey_id", survey.ID.String()).
		Str("hospital", participant.Hospital).
		Int("answers", len(rows)).
		Msg("Submission stored")
	return nil
}

// gate resolves the token and applies the shared preconditions: the token
// must exist, the survey must be active, the participant must not have
// completed yet.
func (s *SubmissionService) gate(ctx context.Context, accessToken string) (*model.Participant, *model.Survey, error) {
	participant, err := s.participants.GetByToken(ctx, accessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("get participant: %w", err)
	}
	if participant == nil {
		return nil, nil, ErrInvalidToken
	}

	survey, err := s.surveys.GetByID(ctx, participant.SurveyID)
	if err != nil {
		return nil, nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return nil, nil, ErrInvalidToken
	}
	if !survey.Active {
		return nil, nil, ErrSurveyInactive
	}
	if participant.Completed {
		return nil, nil, ErrAlreadyCompleted
	}

	return participant, survey, nil
}

// buildResponses checks that every question has exactly one well-typed
// answer and converts the set into storage rows.
func buildResponses(accessToken string, questions []model.Question, answers []model.Answer) ([]model.Response, error) {
	byQuestion := make(map[uuid.UUID]model.Answer, len(answers))
	for _, a := range answers {
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, fmt.Errorf("%w: duplicate answer for question %s", ErrAnswerMismatch, a.QuestionID)
		}
		byQuestion[a.QuestionID] = a
	}

	now := time.Now()
	rows := make([]model.Response, 0, len(questions))
	for _, q := range questions {
		a, ok := byQuestion[q.ID]
		if !ok {
			return nil, fmt.Errorf("%w: question %d", ErrUnanswered, q.Position)
		}
		delete(byQuestion, q.ID)

		row := model.Response{Token: accessToken, QuestionID: q.ID, SubmittedAt: now}
		switch q.Type {
		case model.QuestionTypeObjective:
			if a.Scale == nil || *a.Scale < 1 || *a.Scale > 5 {
				return nil, fmt.Errorf("%w: question %d requires a scale value 1-5", ErrAnswerMismatch, q.Position)
			}
			v := *a.Scale
			row.Scale = &v
		case model.QuestionTypeSubjective:
			if a.Text == nil || strings.TrimSpace(*a.Text) == "" {
				return nil, fmt.Errorf("%w: question %d requires text", ErrUnanswered, q.Position)
			}
			t := strings.TrimSpace(*a.Text)
			row.Text = &t
		default:
			return nil, fmt.Errorf("%w: question %d has unknown type %q", ErrAnswerMismatch, q.Position, q.Type)
		}
		rows = append(rows, row)
	}

	// Answers for question IDs the survey no longer has are rejected rather
	// than silently dropped.
	if len(byQuestion) > 0 {
		return nil, fmt.Errorf("%w: answer references an unknown question", ErrAnswerMismatch)
	}

	return rows, nil
}
