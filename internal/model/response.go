package model

import (
	"time"

	"github.com/google/uuid"
)

// Response is one stored answer, keyed by (participant token, question id).
// It is a tagged variant: exactly one of Scale or Text is set, matching the
// question's type. The two-nullable-columns storage shape is deliberately not
// exposed beyond the repository layer.
type Response struct {
	Token       string    `json:"token"`
	QuestionID  uuid.UUID `json:"question_id"`
	Scale       *int      `json:"scale,omitempty"`
	Text        *string   `json:"text,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// IsScale reports whether the response carries a scale value.
func (r *Response) IsScale() bool { return r.Scale != nil }

// Answer is one answer inside a submission payload.
type Answer struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Scale      *int      `json:"scale" binding:"omitempty,min=1,max=5"`
	Text       *string   `json:"text" binding:"omitempty,max=4000"`
}

// SubmitRequest is the participant-facing submission payload. Every question
// of the survey must be answered; the service enforces this, not binding.
type SubmitRequest struct {
	Answers []Answer `json:"answers" binding:"required,min=1,dive"`
}
