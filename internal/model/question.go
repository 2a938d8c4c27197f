package model

import "github.com/google/uuid"

// QuestionType distinguishes scaled questions from free-text ones.
type QuestionType string

const (
	// QuestionTypeObjective is answered on a fixed 1-5 scale.
	QuestionTypeObjective QuestionType = "OBJECTIVE"
	// QuestionTypeSubjective is answered with free text.
	QuestionTypeSubjective QuestionType = "SUBJECTIVE"
)

// Question represents a single survey question. Position is its 1-based
// display order, unique within the parent survey.
type Question struct {
	ID       uuid.UUID    `json:"id"`
	SurveyID uuid.UUID    `json:"survey_id"`
	Position int          `json:"position"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
}

// CreateQuestionRequest is one question inside a survey create/update payload.
// Positions are assigned from input order, not taken from the client.
type CreateQuestionRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
	Type string `json:"type" binding:"omitempty,oneof=OBJECTIVE SUBJECTIVE"`
}
