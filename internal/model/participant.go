package model

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one invited respondent of one survey, reached through an
// opaque access token. Tokens are globally unique across all participants.
type Participant struct {
	ID        int       `json:"id"`
	SurveyID  uuid.UUID `json:"survey_id"`
	Token     string    `json:"token"`
	Hospital  string    `json:"hospital"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Note      string    `json:"note,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RawParticipant is one row of a roster upload, before a token is assigned.
type RawParticipant struct {
	Hospital string `json:"hospital" binding:"required,min=1,max=255"`
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Phone    string `json:"phone" binding:"required,min=1,max=30"`
	Note     string `json:"note" binding:"omitempty,max=500"`
}

// LoadParticipantsRequest is the payload for bulk-registering a survey roster.
// IsFirstBatch marks the upload as a full replacement of any prior roster.
type LoadParticipantsRequest struct {
	Participants []RawParticipant `json:"participants" binding:"required,min=1,dive"`
	IsFirstBatch bool             `json:"is_first_batch"`
}
