package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/repository"
	"github.com/rs/zerolog"
)

// StatsCache is a best-effort cache for aggregated summaries. Implementations
// must never fail the request path; errors are swallowed and logged.
type StatsCache interface {
	Get(ctx context.Context, surveyID string) ([]byte, bool)
	Set(ctx context.Context, surveyID string, payload []byte)
}

// QuestionStats aggregates one question's answers. Histogram and Average are
// only populated for objective questions.
type QuestionStats struct {
	QuestionID uuid.UUID          `json:"question_id"`
	Position   int                `json:"position"`
	Text       string             `json:"text"`
	Type       model.QuestionType `json:"type"`
	Answers    int                `json:"answers"`
	Average    float64            `json:"average,omitempty"`
	Histogram  [5]int             `json:"histogram,omitempty"`
}

// HospitalStats aggregates one hospital's participation and its overall
// average across all objective answers.
type HospitalStats struct {
	Hospital     string  `json:"hospital"`
	Participants int     `json:"participants"`
	Completed    int     `json:"completed"`
	Average      float64 `json:"average,omitempty"`
}

// SurveySummary is the aggregate statistics view for one survey.
type SurveySummary struct {
	SurveyID     uuid.UUID       `json:"survey_id"`
	Title        string          `json:"title"`
	Participants int             `json:"participants"`
	Completed    int             `json:"completed"`
	ResponseRate float64         `json:"response_rate"`
	Questions    []QuestionStats `json:"questions"`
	Hospitals    []HospitalStats `json:"hospitals"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// StatsService derives counts and averages from stored responses.
type StatsService struct {
	surveys      SurveyStore
	questions    QuestionStore
	participants ParticipantStore
	responses    ResponseStore
	cache        StatsCache
	log          zerolog.Logger
}

// NewStatsService creates a new StatsService. cache may be nil to disable
// caching (tests).
func NewStatsService(
	surveys SurveyStore,
	questions QuestionStore,
	participants ParticipantStore,
	responses ResponseStore,
	cache StatsCache,
	log zerolog.Logger,
) *StatsService {
	return &StatsService{
		surveys:      surveys,
		questions:    questions,
		participants: participants,
		responses:    responses,
		cache:        cache,
		log:          log.With().Str("component", "stats_service").Logger(),
	}
}

// Summary aggregates a survey's statistics, served from cache when fresh.
func (s *StatsService) Summary(ctx context.Context, surveyID uuid.UUID) (*SurveySummary, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, surveyID.String()); ok {
			var cached SurveySummary
			if err := json.Unmarshal(payload, &cached); err == nil {
				return &cached, nil
			}
			// Fall through and recompute on a corrupt cache entry.
		}
	}

	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	questions, err := s.questions.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	roster, err := s.participants.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	answers, err := s.responses.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	summary := buildSummary(survey, questions, roster, answers)

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			s.cache.Set(ctx, surveyID.String(), payload)
		}
	}
	return summary, nil
}

// ExportCSV renders every stored answer of a survey as a long-format CSV.
func (s *StatsService) ExportCSV(ctx context.Context, surveyID uuid.UUID) ([]byte, error) {
	survey, err := s.surveys.GetByID(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	answers, err := s.responses.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"hospital", "participant", "token", "question_position", "question_type", "scale", "text", "submitted_at"})
	for _, a := range answers {
		scale := ""
		if a.Scale != nil {
			scale = strconv.Itoa(*a.Scale)
		}
		text := ""
		if a.Text != nil {
			text = *a.Text
		}
		rec := []string{
			a.Hospital,
			a.Participant,
			a.Token,
			strconv.Itoa(a.Position),
			string(a.Type),
			scale,
			text,
			a.SubmittedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func buildSummary(
	survey *model.Survey,
	questions []model.Question,
	roster []model.Participant,
	answers []repository.SurveyAnswer,
) *SurveySummary {
	summary := &SurveySummary{
		SurveyID:     survey.ID,
		Title:        survey.Title,
		Participants: len(roster),
		GeneratedAt:  time.Now(),
	}

	hospitalAgg := make(map[string]*HospitalStats)
	for _, p := range roster {
		h, ok := hospitalAgg[p.Hospital]
		if !ok {
			h = &HospitalStats{Hospital: p.Hospital}
			hospitalAgg[p.Hospital] = h
		}
		h.Participants++
		if p.Completed {
			h.Completed++
			summary.Completed++
		}
	}
	if summary.Participants > 0 {
		summary.ResponseRate = float64(summary.Completed) / float64(summary.Participants)
	}

	questionAgg := make(map[uuid.UUID]*QuestionStats, len(questions))
	summary.Questions = make([]QuestionStats, 0, len(questions))
	for _, q := range questions {
		questionAgg[q.ID] = &QuestionStats{
			QuestionID: q.ID,
			Position:   q.Position,
			Text:       q.Text,
			Type:       q.Type,
		}
	}

	type hospitalScale struct {
		sum   int
		count int
	}
	hospitalScales := make(map[string]*hospitalScale)

	for _, a := range answers {
		if qs, ok := questionAgg[a.QuestionID]; ok {
			qs.Answers++
			if a.Scale != nil {
				qs.Average += float64(*a.Scale)
				qs.Histogram[*a.Scale-1]++
			}
		}
		if a.Scale != nil {
			hs, ok := hospitalScales[a.Hospital]
			if !ok {
				hs = &hospitalScale{}
				hospitalScales[a.Hospital] = hs
			}
			hs.sum += *a.Scale
			hs.count++
		}
	}

	for _, q := range questions {
		qs := questionAgg[q.ID]
		if q.Type == model.QuestionTypeObjective && qs.Answers > 0 {
			qs.Average /= float64(qs.Answers)
		} else {
			qs.Average = 0
		}
		summary.Questions = append(summary.Questions, *qs)
	}

	summary.Hospitals = make([]HospitalStats, 0, len(hospitalAgg))
	for name, h := range hospitalAgg {
		if hs, ok := hospitalScales[name]; ok && hs.count > 0 {
			h.Average = float64(hs.sum) / float64(hs.count)
		}
		summary.Hospitals = append(summary.Hospitals, *h)
	}
	sort.Slice(summary.Hospitals, func(i, j int) bool {
		return summary.Hospitals[i].Hospital < summary.Hospitals[j].Hospital
	})

	return summary
}
