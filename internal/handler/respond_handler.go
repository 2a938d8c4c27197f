package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
	"github.com/jaehyeon1716/survey-sub000/internal/service"
	"github.com/jaehyeon1716/survey-sub000/internal/token"
	"github.com/jaehyeon1716/survey-sub000/internal/validator"
	"github.com/rs/zerolog"
)

// RespondHandler handles the participant-facing survey endpoints. Requests
// authenticate with the access token in the path; there is no login.
type RespondHandler struct {
	submissionService *service.SubmissionService
	log               zerolog.Logger
}

// NewRespondHandler creates a new RespondHandler.
func NewRespondHandler(submissionService *service.SubmissionService, log zerolog.Logger) *RespondHandler {
	return &RespondHandler{
		submissionService: submissionService,
		log:               log.With().Str("component", "respond_handler").Logger(),
	}
}

// GetSurveyForToken godoc
// GET /api/v1/respond/:access_token
// Resolves the token to the survey, its questions and any prior responses.
func (h *RespondHandler) GetSurveyForToken(c *gin.Context) {
	accessToken := c.Param("access_token")
	if len(accessToken) != token.Length {
		response.Fail(c, http.StatusNotFound, response.ErrInvalidAccessToken)
		return
	}

	view, err := h.submissionService.Resume(c.Request.Context(), accessToken)
	if err != nil {
		h.failSubmission(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// SubmitResponses godoc
// POST /api/v1/respond/:access_token
// Stores a complete answer set and marks the participant completed.
func (h *RespondHandler) SubmitResponses(c *gin.Context) {
	accessToken := c.Param("access_token")
	if len(accessToken) != token.Length {
		response.Fail(c, http.StatusNotFound, response.ErrInvalidAccessToken)
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.submissionService.Submit(c.Request.Context(), accessToken, req.Answers); err != nil {
		h.failSubmission(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "thank you for your feedback"})
}

// failSubmission maps the submission gate errors onto API error codes.
func (h *RespondHandler) failSubmission(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		response.Fail(c, http.StatusNotFound, response.ErrInvalidAccessToken)
	case errors.Is(err, service.ErrSurveyInactive):
		response.Fail(c, http.StatusForbidden, response.ErrSurveyInactive)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrUnanswered):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrUnansweredQuestion, err.Error())
	case errors.Is(err, service.ErrAnswerMismatch):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
	case errors.Is(err, service.ErrSubmitInFlight):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	default:
		h.log.Error().Err(err).Msg("Submission failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
