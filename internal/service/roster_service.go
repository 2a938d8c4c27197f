package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
	"github.com/jaehyeon1716/survey-sub000/internal/token"
	"github.com/rs/zerolog"
)

// Validation errors for roster uploads.
var (
	ErrEmptyBatch   = errors.New("participant batch must not be empty")
	ErrMissingField = errors.New("participant record is missing a required field")
)

// RosterService bulk-registers survey participants, each issued a freshly
// generated globally unique access token.
type RosterService struct {
	surveys      SurveyStore
	participants ParticipantStore
	responses    ResponseStore
	log          zerolog.Logger
}

// NewRosterService creates a new RosterService.
func NewRosterService(surveys SurveyStore, participants ParticipantStore, responses ResponseStore, log zerolog.Logger) *RosterService {
	return &RosterService{
		surveys:      surveys,
		participants: participants,
		responses:    responses,
		log:          log.With().Str("component", "roster_service").Logger(),
	}
}

// LoadBatch validates and inserts a roster upload. When isFirstBatch is set,
// the survey's prior responses and participants are purged first: an upload
// marked first-batch fully replaces the roster, incremental updates are not
// supported. Returns the number of participants inserted.
func (s *RosterService) LoadBatch(ctx context.Context, surveyID uuid.UUID, records []model.RawParticipant, isFirstBatch bool) (int, error) {
	if len(records) == 0 {
		return 0, ErrEmptyBatch
	}
	for i, rec := range records {
		if strings.TrimSpace(rec.Hospital) == "" ||
			strings.TrimSpace(rec.Name) == "" ||
			strings.TrimSpace(rec.Phone) == "" {
			return 0, fmt.Errorf("%w: record %d", ErrMissingField, i+1)
		}
	}

	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return 0, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return 0, ErrSurveyNotFound
	}

	if isFirstBatch {
		// Responses go first: token is their foreign key.
		if _, err := s.responses.DeleteBySurvey(ctx, surveyID); err != nil {
			return 0, fmt.Errorf("purge responses: %w", err)
		}
		purged, err := s.participants.DeleteBySurvey(ctx, surveyID)
		if err != nil {
			return 0, fmt.Errorf("purge participants: %w", err)
		}
		if purged > 0 {
			s.log.Info().
				Str("survey_id", surveyID.String()).
				Int64("purged", purged).
				Msg("Prior roster purged before first batch")
		}
	}

	// Tokens assigned in this batch are not yet visible in the store, so the
	// uniqueness check layers an in-batch set over the store lookup.
	seen := make(map[string]struct{}, len(records))
	exists := func(candidate string) (bool, error) {
		if _, ok := seen[candidate]; ok {
			return true, nil
		}
		return s.participants.TokenExists(ctx, candidate)
	}

	participants := make([]model.Participant, len(records))
	for i, rec := range records {
		t, err := token.Generate(exists)
		if err != nil {
			return 0, err
		}
		seen[t] = struct{}{}
		participants[i] = model.Participant{
			SurveyID: surveyID,
			Token:    t,
			Hospital: strings.TrimSpace(rec.Hospital),
			Name:     strings.TrimSpace(rec.Name),
			Phone:    strings.TrimSpace(rec.Phone),
			Note:     strings.TrimSpace(rec.Note),
		}
	}

	inserted, err := s.participants.BulkInsert(ctx, participants)
	if err != nil {
		return 0, fmt.Errorf("insert participants: %w", err)
	}

	s.log.Info().
		Str("survey_id", surveyID.String()).
		Int("inserted", inserted).
		Bool("first_batch", isFirstBatch).
		Msg("Roster batch loaded")
	return inserted, nil
}

// List retrieves a survey's roster page.
func (s *RosterService) List(ctx context.Context, surveyID uuid.UUID, page, perPage int) ([]model.Participant, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	if perPage > 500 {
		perPage = 500
	}

	participants, total, err := s.participants.ListBySurveyPaginated(ctx, surveyID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if participants == nil {
		participants = []model.Participant{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return participants, pagination, nil
}
