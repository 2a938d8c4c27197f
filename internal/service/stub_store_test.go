package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/repository"
)

// memDB is the shared backing state for the in-memory store stubs. The four
// store stubs wrap it so per-interface error injection stays independent.
type memDB struct {
	surveys      map[uuid.UUID]model.Survey
	questions    []model.Question
	participants []model.Participant
	responses    []model.Response
	nextID       int
}

func newMemDB() *memDB {
	return &memDB{surveys: make(map[uuid.UUID]model.Survey)}
}

func (db *memDB) addSurvey(title string, active bool, types ...model.QuestionType) model.Survey {
	s := model.Survey{
		ID:           uuid.New(),
		Title:        title,
		Active:       active,
		ScaleVariant: model.ScaleVariantSatisfaction,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	db.surveys[s.ID] = s
	for i, t := range types {
		db.questions = append(db.questions, model.Question{
			ID:       uuid.New(),
			SurveyID: s.ID,
			Position: i + 1,
			Text:     "question",
			Type:     t,
		})
	}
	return s
}

func (db *memDB) addParticipant(surveyID uuid.UUID, token, hospital, name string, completed bool) model.Participant {
	db.nextID++
	p := model.Participant{
		ID:        db.nextID,
		SurveyID:  surveyID,
		Token:     token,
		Hospital:  hospital,
		Name:      name,
		Phone:     "010-0000-0000",
		Completed: completed,
	}
	db.participants = append(db.participants, p)
	return p
}

func (db *memDB) questionsOf(surveyID uuid.UUID) []model.Question {
	var out []model.Question
	for _, q := range db.questions {
		if q.SurveyID == surveyID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (db *memDB) participantByToken(token string) *model.Participant {
	for i := range db.participants {
		if db.participants[i].Token == token {
			return &db.participants[i]
		}
	}
	return nil
}

func (db *memDB) questionByID(id uuid.UUID) *model.Question {
	for i := range db.questions {
		if db.questions[i].ID == id {
			return &db.questions[i]
		}
	}
	return nil
}

// ─── Survey store stub ───

type memSurveyStore struct {
	db         *memDB
	failGet    error
	failUpdate error
	failDelete error
}

func (s *memSurveyStore) GetByID(_ context.Context, id uuid.UUID) (*model.Survey, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	survey, ok := s.db.surveys[id]
	if !ok {
		return nil, nil
	}
	copied := survey
	return &copied, nil
}

func (s *memSurveyStore) ListPaginated(_ context.Context, limit, offset int) ([]model.Survey, int, error) {
	all := make([]model.Survey, 0, len(s.db.surveys))
	for _, survey := range s.db.surveys {
		all = append(all, survey)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Title < all[j].Title })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memSurveyStore) CreateWithQuestions(_ context.Context, survey *model.Survey, questions []model.Question) error {
	survey.ID = uuid.New()
	survey.CreatedAt = time.Now()
	survey.UpdatedAt = survey.CreatedAt
	s.db.surveys[survey.ID] = *survey
	for i := range questions {
		questions[i].ID = uuid.New()
		questions[i].SurveyID = survey.ID
		s.db.questions = append(s.db.questions, questions[i])
	}
	return nil
}

func (s *memSurveyStore) UpdateWithQuestions(_ context.Context, survey *model.Survey, questions []model.Question) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	survey.UpdatedAt = time.Now()
	s.db.surveys[survey.ID] = *survey
	kept := s.db.questions[:0]
	for _, q := range s.db.questions {
		if q.SurveyID != survey.ID {
			kept = append(kept, q)
		}
	}
	s.db.questions = kept
	for i := range questions {
		questions[i].ID = uuid.New()
		questions[i].SurveyID = survey.ID
		s.db.questions = append(s.db.questions, questions[i])
	}
	return nil
}

func (s *memSurveyStore) Delete(_ context.Context, id uuid.UUID) error {
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.db.surveys, id)
	return nil
}

// ─── Question store stub ───

type memQuestionStore struct {
	db         *memDB
	failDelete error
}

func (s *memQuestionStore) ListBySurvey(_ context.Context, surveyID uuid.UUID) ([]model.Question, error) {
	return s.db.questionsOf(surveyID), nil
}

func (s *memQuestionStore) DeleteBySurvey(_ context.Context, surveyID uuid.UUID) (int64, error) {
	if s.failDelete != nil {
		return 0, s.failDelete
	}
	var n int64
	kept := s.db.questions[:0]
	for _, q := range s.db.questions {
		if q.SurveyID == surveyID {
			n++
			continue
		}
		kept = append(kept, q)
	}
	s.db.questions = kept
	return n, nil
}

// ─── Participant store stub ───

type memParticipantStore struct {
	db           *memDB
	failDelete   error
	failInsert   error
	deleteCalls  int
	existsProbes int
}

func (s *memParticipantStore) GetByToken(_ context.Context, token string) (*model.Participant, error) {
	p := s.db.participantByToken(token)
	if p == nil {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (s *memParticipantStore) TokenExists(_ context.Context, token string) (bool, error) {
	s.existsProbes++
	return s.db.participantByToken(token) != nil, nil
}

func (s *memParticipantStore) ListBySurveyPaginated(_ context.Context, surveyID uuid.UUID, limit, offset int) ([]model.Participant, int, error) {
	all, _ := s.ListBySurvey(context.Background(), surveyID)
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memParticipantStore) ListBySurvey(_ context.Context, surveyID uuid.UUID) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range s.db.participants {
		if p.SurveyID == surveyID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memParticipantStore) ListTokensPage(_ context.Context, surveyID uuid.UUID, limit, offset int) ([]string, error) {
	var tokens []string
	for _, p := range s.db.participants {
		if p.SurveyID == surveyID {
			tokens = append(tokens, p.Token)
		}
	}
	if offset >= len(tokens) {
		return nil, nil
	}
	end := offset + limit
	if end > len(tokens) {
		end = len(tokens)
	}
	return tokens[offset:end], nil
}

func (s *memParticipantStore) BulkInsert(_ context.Context, participants []model.Participant) (int, error) {
	if s.failInsert != nil {
		return 0, s.failInsert
	}
	for _, p := range participants {
		if s.db.participantByToken(p.Token) != nil {
			return 0, repository.ErrDuplicateToken
		}
	}
	for _, p := range participants {
		s.db.nextID++
		p.ID = s.db.nextID
		s.db.participants = append(s.db.participants, p)
	}
	return len(participants), nil
}

func (s *memParticipantStore) DeleteByTokens(_ context.Context, tokens []string) (int64, error) {
	s.deleteCalls++
	if s.failDelete != nil {
		return 0, s.failDelete
	}
	member := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		member[t] = struct{}{}
	}
	var n int64
	kept := s.db.participants[:0]
	for _, p := range s.db.participants {
		if _, del := member[p.Token]; del {
			n++
			continue
		}
		kept = append(kept, p)
	}
	s.db.participants = kept
	return n, nil
}

func (s *memParticipantStore) DeleteBySurvey(_ context.Context, surveyID uuid.UUID) (int64, error) {
	var n int64
	kept := s.db.participants[:0]
	for _, p := range s.db.participants {
		if p.SurveyID == surveyID {
			n++
			continue
		}
		kept = append(kept, p)
	}
	s.db.participants = kept
	return n, nil
}

// ─── Response store stub ───

type memResponseStore struct {
	db         *memDB
	failDelete error
	failSubmit error
}

func (s *memResponseStore) ListByToken(_ context.Context, token string) ([]model.Response, error) {
	var out []model.Response
	for _, r := range s.db.responses {
		if r.Token == token {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memResponseStore) ListBySurvey(_ context.Context, surveyID uuid.UUID) ([]repository.SurveyAnswer, error) {
	var out []repository.SurveyAnswer
	for _, r := range s.db.responses {
		p := s.db.participantByToken(r.Token)
		if p == nil || p.SurveyID != surveyID {
			continue
		}
		q := s.db.questionByID(r.QuestionID)
		if q == nil {
			continue
		}
		out = append(out, repository.SurveyAnswer{
			Token:       r.Token,
			Hospital:    p.Hospital,
			Participant: p.Name,
			QuestionID:  r.QuestionID,
			Position:    q.Position,
			Type:        q.Type,
			Scale:       r.Scale,
			Text:        r.Text,
			SubmittedAt: r.SubmittedAt,
		})
	}
	return out, nil
}

func (s *memResponseStore) DeleteByTokens(_ context.Context, tokens []string) (int64, error) {
	if s.failDelete != nil {
		return 0, s.failDelete
	}
	member := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		member[t] = struct{}{}
	}
	var n int64
	kept := s.db.responses[:0]
	for _, r := range s.db.responses {
		if _, del := member[r.Token]; del {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.db.responses = kept
	return n, nil
}

func (s *memResponseStore) DeleteBySurvey(_ context.Context, surveyID uuid.UUID) (int64, error) {
	var n int64
	kept := s.db.responses[:0]
	for _, r := range s.db.responses {
		if p := s.db.participantByToken(r.Token); p != nil && p.SurveyID == surveyID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	s.db.responses = kept
	return n, nil
}

func (s *memResponseStore) SubmitAndComplete(_ context.Context, token string, responses []model.Response) error {
	if s.failSubmit != nil {
		return s.failSubmit
	}
	if p := s.db.participantByToken(token); p != nil && p.Completed {
		return repository.ErrParticipantCompleted
	}
	if _, err := s.DeleteByTokens(context.Background(), []string{token}); err != nil {
		return err
	}
	s.db.responses = append(s.db.responses, responses...)
	if p := s.db.participantByToken(token); p != nil {
		p.Completed = true
	}
	return nil
}

// ─── Coordinator stub ───

type stubCoordinator struct {
	denyLock bool
	failLock error
	onLock   func() // runs before the lock is granted
	locked   map[string]bool
	unlocks  int
	events   []SubmissionEvent
}

func (c *stubCoordinator) TryLock(_ context.Context, token string) (bool, error) {
	if c.failLock != nil {
		return false, c.failLock
	}
	if c.denyLock {
		return false, nil
	}
	if c.onLock != nil {
		c.onLock()
	}
	if c.locked == nil {
		c.locked = make(map[string]bool)
	}
	if c.locked[token] {
		return false, nil
	}
	c.locked[token] = true
	return true, nil
}

func (c *stubCoordinator) Unlock(_ context.Context, token string) {
	c.unlocks++
	delete(c.locked, token)
}

func (c *stubCoordinator) Submitted(_ context.Context, event SubmissionEvent) {
	c.events = append(c.events, event)
}
