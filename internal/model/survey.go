package model

import (
	"time"

	"github.com/google/uuid"
)

// ScaleVariant selects the wording of the 5-point answer scale shown to
// participants. It does not change how responses are stored or scored.
type ScaleVariant string

const (
	ScaleVariantAgreement    ScaleVariant = "AGREEMENT"
	ScaleVariantSatisfaction ScaleVariant = "SATISFACTION"
)

// Survey represents one satisfaction survey and owns its questions.
type Survey struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Active       bool         `json:"active"`
	ScaleVariant ScaleVariant `json:"scale_variant"`
	Questions    []Question   `json:"questions,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// CreateSurveyRequest is the payload for creating a new survey with its
// initial question set.
type CreateSurveyRequest struct {
	Title        string                  `json:"title" binding:"required,min=1,max=255"`
	Description  string                  `json:"description" binding:"omitempty,max=2000"`
	ScaleVariant string                  `json:"scale_variant" binding:"omitempty,oneof=AGREEMENT SATISFACTION"`
	Questions    []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// UpdateSurveyRequest is the payload for editing a survey. The question list
// fully replaces the existing set; there is no per-question patching.
type UpdateSurveyRequest struct {
	Title        string                  `json:"title" binding:"required,min=1,max=255"`
	Description  string                  `json:"description" binding:"omitempty,max=2000"`
	Active       *bool                   `json:"active" binding:"omitempty"`
	ScaleVariant string                  `json:"scale_variant" binding:"omitempty,oneof=AGREEMENT SATISFACTION"`
	Questions    []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
