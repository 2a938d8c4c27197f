package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/token"
	"github.com/rs/zerolog"
)

func newRosterFixture() (*RosterService, *memDB, *memParticipantStore) {
	db := newMemDB()
	surveys := &memSurveyStore{db: db}
	participants := &memParticipantStore{db: db}
	responses := &memResponseStore{db: db}
	svc := NewRosterService(surveys, participants, responses, zerolog.Nop())
	return svc, db, participants
}

func rosterRecords(n int) []model.RawParticipant {
	records := make([]model.RawParticipant, n)
	for i := range records {
		records[i] = model.RawParticipant{
			Hospital: "General",
			Name:     "Participant",
			Phone:    "010-1234-5678",
		}
	}
	return records
}

func TestRosterLoadBatchAssignsUniqueTokens(t *testing.T) {
	svc, db, _ := newRosterFixture()
	survey := db.addSurvey("S", true, model.QuestionTypeObjective)

	inserted, err := svc.LoadBatch(context.Background(), survey.ID, rosterRecords(50), false)
	if err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if inserted != 50 {
		t.Errorf("inserted = %d, want 50", inserted)
	}

	seen := make(map[string]struct{})
	for _, p := range db.participants {
		if len(p.Token) != token.Length {
			t.Fatalf("token %q has length %d", p.Token, len(p.Token))
		}
		if _, dup := seen[p.Token]; dup {
			t.Fatalf("duplicate token %q within batch", p.Token)
		}
		seen[p.Token] = struct{}{}
		if p.Completed {
			t.Error("fresh participant marked completed")
		}
	}
}

func TestRosterLoadBatchFirstBatchPurges(t *testing.T) {
	svc, db, _ := newRosterFixture()
	survey := db.addSurvey("S", true, model.QuestionTypeObjective)
	other := db.addSurvey("Other", true, model.QuestionTypeObjective)

	stale := db.addParticipant(survey.ID, "STALETOKEN", "Old", "Old", true)
	db.responses = append(db.responses, model.Response{
		Token:      stale.Token,
		QuestionID: db.questionsOf(survey.ID)[0].ID,
	})
	db.addParticipant(other.ID, "OTHERTOKEN", "Other", "Keep", false)

	inserted, err := svc.LoadBatch(context.Background(), survey.ID, rosterRecords(3), true)
	if err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if inserted != 3 {
		t.Errorf("inserted = %d, want 3", inserted)
	}

	var kept int
	for _, p := range db.participants {
		if p.SurveyID == survey.ID {
			kept++
			if p.Token == "STALETOKEN" {
				t.Error("stale participant survived the first-batch purge")
			}
		}
	}
	if kept != 3 {
		t.Errorf("survey roster has %d participants, want exactly the new 3", kept)
	}
	if len(db.responses) != 0 {
		t.Errorf("%d stale responses survived the purge", len(db.responses))
	}
	if db.participantByToken("OTHERTOKEN") == nil {
		t.Error("purge crossed survey boundary")
	}
}

func TestRosterLoadBatchKeepsRosterWithoutFirstBatchFlag(t *testing.T) {
	svc, db, _ := newRosterFixture()
	survey := db.addSurvey("S", true, model.QuestionTypeObjective)
	db.addParticipant(survey.ID, "EXISTING01", "General", "Early", false)

	if _, err := svc.LoadBatch(context.Background(), survey.ID, rosterRecords(2), false); err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if db.participantByToken("EXISTING01") == nil {
		t.Error("non-first batch must not purge the existing roster")
	}
	if len(db.participants) != 3 {
		t.Errorf("roster size = %d, want 3", len(db.participants))
	}
}

func TestRosterLoadBatchValidation(t *testing.T) {
	svc, db, _ := newRosterFixture()
	survey := db.addSurvey("S", true, model.QuestionTypeObjective)

	if _, err := svc.LoadBatch(context.Background(), survey.ID, nil, false); !errors.Is(err, ErrEmptyBatch) {
		t.Errorf("empty batch err = %v, want ErrEmptyBatch", err)
	}

	records := rosterRecords(2)
	records[1].Phone = "   "
	_, err := svc.LoadBatch(context.Background(), survey.ID, records, false)
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("err = %v, want ErrMissingField", err)
	}
	if !strings.Contains(err.Error(), "record 2") {
		t.Errorf("error should name the offending record: %v", err)
	}
	if len(db.participants) != 0 {
		t.Error("nothing may be inserted when validation fails")
	}

	_, err = svc.LoadBatch(context.Background(), uuid.New(), rosterRecords(1), false)
	if !errors.Is(err, ErrSurveyNotFound) {
		t.Errorf("unknown survey err = %v, want ErrSurveyNotFound", err)
	}
}

func TestRosterLoadBatchTrimsFields(t *testing.T) {
	svc, db, _ := newRosterFixture()
	survey := db.addSurvey("S", true, model.QuestionTypeObjective)

	records := []model.RawParticipant{{
		Hospital: "  St. Mary ",
		Name:     " Kim ",
		Phone:    " 010-1 ",
		Note:     " note ",
	}}
	if _, err := svc.LoadBatch(context.Background(), survey.ID, records, false); err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	p := db.participants[0]
	if p.Hospital != "St. Mary" || p.Name != "Kim" || p.Phone != "010-1" || p.Note != "note" {
		t.Errorf("fields not trimmed: %+v", p)
	}
}

func TestRosterListClampsPagination(t *testing.T) {
	svc, db, _ := newRosterFixture()
	survey := db.addSurvey("S", true, model.QuestionTypeObjective)
	for i := 0; i < 3; i++ {
		db.addParticipant(survey.ID, uuid.NewString()[:10], "General", "P", false)
	}

	page, pagination, err := svc.List(context.Background(), survey.ID, 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if pagination.Page != 1 || pagination.PerPage != 50 {
		t.Errorf("pagination not clamped: page=%d per_page=%d", pagination.Page, pagination.PerPage)
	}
	if len(page) != 3 || pagination.TotalItems != 3 {
		t.Errorf("len=%d total=%d, want 3", len(page), pagination.TotalItems)
	}

	_, pagination, err = svc.List(context.Background(), survey.ID, 1, 9000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if pagination.PerPage != 500 {
		t.Errorf("per_page not capped: %d", pagination.PerPage)
	}
}
