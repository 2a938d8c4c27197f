package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/repository"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
	"github.com/jaehyeon1716/survey-sub000/internal/service"
	"github.com/jaehyeon1716/survey-sub000/internal/token"
	"github.com/jaehyeon1716/survey-sub000/internal/validator"
	"github.com/rs/zerolog"
)

// ParticipantHandler handles roster management endpoints.
type ParticipantHandler struct {
	rosterService *service.RosterService
	log           zerolog.Logger
}

// NewParticipantHandler creates a new ParticipantHandler.
func NewParticipantHandler(rosterService *service.RosterService, log zerolog.Logger) *ParticipantHandler {
	return &ParticipantHandler{
		rosterService: rosterService,
		log:           log.With().Str("component", "participant_handler").Logger(),
	}
}

// LoadParticipants godoc
// POST /api/v1/admin/surveys/:survey_id/participants
// Bulk-registers a roster batch. is_first_batch replaces any prior roster.
func (h *ParticipantHandler) LoadParticipants(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.LoadParticipantsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	count, err := h.rosterService.LoadBatch(c.Request.Context(), surveyID, req.Participants, req.IsFirstBatch)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSurveyNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrEmptyBatch), errors.Is(err, service.ErrMissingField):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
		case errors.Is(err, token.ErrExhausted):
			h.log.Error().Err(err).Str("survey_id", surveyID.String()).Msg("Token space exhausted")
			response.Fail(c, http.StatusConflict, response.ErrTokenExhausted)
		case errors.Is(err, repository.ErrDuplicateToken):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			h.log.Error().Err(err).Msg("Load participants failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"count": count})
}

// ListParticipants godoc
// GET /api/v1/admin/surveys/:survey_id/participants
// Lists the survey roster with tokens and completion flags, paginated.
func (h *ParticipantHandler) ListParticipants(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "50"))

	participants, pagination, err := h.rosterService.List(c.Request.Context(), surveyID, page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List participants failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"participants": participants}, pagination)
}
