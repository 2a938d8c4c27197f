package service

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/rs/zerolog"
)

type mapStatsCache struct {
	entries map[string][]byte
	hits    int
	sets    int
}

func (c *mapStatsCache) Get(_ context.Context, surveyID string) ([]byte, bool) {
	payload, ok := c.entries[surveyID]
	if ok {
		c.hits++
	}
	return payload, ok
}

func (c *mapStatsCache) Set(_ context.Context, surveyID string, payload []byte) {
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.entries[surveyID] = payload
	c.sets++
}

func newStatsFixture(cache StatsCache) (*StatsService, *memDB) {
	db := newMemDB()
	svc := NewStatsService(
		&memSurveyStore{db: db},
		&memQuestionStore{db: db},
		&memParticipantStore{db: db},
		&memResponseStore{db: db},
		cache,
		zerolog.Nop(),
	)
	return svc, db
}

// seedStatsData builds one survey with an objective and a subjective question,
// three participants across two hospitals, two of them completed.
func seedStatsData(db *memDB) model.Survey {
	survey := db.addSurvey("Quarterly", true, model.QuestionTypeObjective, model.QuestionTypeSubjective)
	qs := db.questionsOf(survey.ID)

	a := db.addParticipant(survey.ID, "TOKENA0001", "General", "Kim", true)
	b := db.addParticipant(survey.ID, "TOKENB0001", "St. Mary", "Lee", true)
	db.addParticipant(survey.ID, "TOKENC0001", "General", "Park", false)

	db.responses = append(db.responses,
		model.Response{Token: a.Token, QuestionID: qs[0].ID, Scale: intPtr(5)},
		model.Response{Token: a.Token, QuestionID: qs[1].ID, Text: strPtr("clean wards")},
		model.Response{Token: b.Token, QuestionID: qs[0].ID, Scale: intPtr(2)},
		model.Response{Token: b.Token, QuestionID: qs[1].ID, Text: strPtr("long waits")},
	)
	return survey
}

func TestStatsSummaryAggregates(t *testing.T) {
	svc, db := newStatsFixture(nil)
	survey := seedStatsData(db)

	summary, err := svc.Summary(context.Background(), survey.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.Participants != 3 || summary.Completed != 2 {
		t.Errorf("participants=%d completed=%d, want 3/2", summary.Participants, summary.Completed)
	}
	if math.Abs(summary.ResponseRate-2.0/3.0) > 1e-9 {
		t.Errorf("response rate = %f", summary.ResponseRate)
	}

	if len(summary.Questions) != 2 {
		t.Fatalf("question stats len = %d", len(summary.Questions))
	}
	objective := summary.Questions[0]
	if objective.Answers != 2 || math.Abs(objective.Average-3.5) > 1e-9 {
		t.Errorf("objective answers=%d average=%f, want 2/3.5", objective.Answers, objective.Average)
	}
	wantHistogram := [5]int{0, 1, 0, 0, 1}
	if objective.Histogram != wantHistogram {
		t.Errorf("histogram = %v, want %v", objective.Histogram, wantHistogram)
	}
	subjective := summary.Questions[1]
	if subjective.Answers != 2 || subjective.Average != 0 {
		t.Errorf("subjective answers=%d average=%f", subjective.Answers, subjective.Average)
	}

	if len(summary.Hospitals) != 2 {
		t.Fatalf("hospital stats len = %d", len(summary.Hospitals))
	}
	general := summary.Hospitals[0]
	if general.Hospital != "General" {
		t.Fatalf("hospitals not sorted by name: %+v", summary.Hospitals)
	}
	if general.Participants != 2 || general.Completed != 1 || math.Abs(general.Average-5.0) > 1e-9 {
		t.Errorf("General = %+v", general)
	}
	stMary := summary.Hospitals[1]
	if stMary.Participants != 1 || stMary.Completed != 1 || math.Abs(stMary.Average-2.0) > 1e-9 {
		t.Errorf("St. Mary = %+v", stMary)
	}
}

func TestStatsSummaryUnknownSurvey(t *testing.T) {
	svc, _ := newStatsFixture(nil)
	if _, err := svc.Summary(context.Background(), uuid.New()); !errors.Is(err, ErrSurveyNotFound) {
		t.Errorf("err = %v, want ErrSurveyNotFound", err)
	}
}

func TestStatsSummaryUsesCache(t *testing.T) {
	cache := &mapStatsCache{}
	svc, db := newStatsFixture(cache)
	survey := seedStatsData(db)

	first, err := svc.Summary(context.Background(), survey.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache sets = %d, want 1", cache.sets)
	}

	// Mutate the backing data; the cached summary must still be served.
	db.addParticipant(survey.ID, "TOKEND0001", "General", "New", false)

	second, err := svc.Summary(context.Background(), survey.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if cache.hits != 1 {
		t.Errorf("cache hits = %d, want 1", cache.hits)
	}
	if second.Participants != first.Participants {
		t.Errorf("cached summary recomputed: %d != %d", second.Participants, first.Participants)
	}
}

func TestStatsSummaryRecomputesOnCorruptCache(t *testing.T) {
	cache := &mapStatsCache{}
	svc, db := newStatsFixture(cache)
	survey := seedStatsData(db)
	cache.Set(context.Background(), survey.ID.String(), []byte("{not json"))
	cache.sets = 0

	summary, err := svc.Summary(context.Background(), survey.ID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Participants != 3 {
		t.Errorf("participants = %d, want recomputed 3", summary.Participants)
	}
	if cache.sets != 1 {
		t.Error("recomputed summary should refresh the cache")
	}
}

func TestStatsExportCSV(t *testing.T) {
	svc, db := newStatsFixture(nil)
	survey := seedStatsData(db)

	payload, err := svc.ExportCSV(context.Background(), survey.ID)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(string(payload))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("csv has %d rows, want header + 4 answers", len(rows))
	}

	header := strings.Join(rows[0], ",")
	if header != "hospital,participant,token,question_position,question_type,scale,text,submitted_at" {
		t.Errorf("header = %q", header)
	}

	var sawScale, sawText bool
	for _, row := range rows[1:] {
		switch row[4] {
		case "OBJECTIVE":
			if row[5] == "" || row[6] != "" {
				t.Errorf("objective row should carry scale only: %v", row)
			}
			sawScale = true
		case "SUBJECTIVE":
			if row[5] != "" || row[6] == "" {
				t.Errorf("subjective row should carry text only: %v", row)
			}
			sawText = true
		default:
			t.Errorf("unexpected question type %q", row[4])
		}
	}
	if !sawScale || !sawText {
		t.Error("export should contain both answer kinds")
	}

	if _, err := svc.ExportCSV(context.Background(), uuid.New()); !errors.Is(err, ErrSurveyNotFound) {
		t.Errorf("unknown survey err = %v, want ErrSurveyNotFound", err)
	}
}
