package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaehyeon1716/survey-sub000/internal/model"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
	"github.com/jaehyeon1716/survey-sub000/internal/service"
	"github.com/jaehyeon1716/survey-sub000/internal/validator"
	"github.com/rs/zerolog"
)

// SurveyHandler handles survey management endpoints.
type SurveyHandler struct {
	surveyService *service.SurveyService
	log           zerolog.Logger
}

// NewSurveyHandler creates a new SurveyHandler.
func NewSurveyHandler(surveyService *service.SurveyService, log zerolog.Logger) *SurveyHandler {
	return &SurveyHandler{
		surveyService: surveyService,
		log:           log.With().Str("component", "survey_handler").Logger(),
	}
}

// ListSurveys godoc
// GET /api/v1/admin/surveys
// Lists surveys with their questions, paginated.
func (h *SurveyHandler) ListSurveys(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	surveys, pagination, err := h.surveyService.List(c.Request.Context(), page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List surveys failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"surveys": surveys}, pagination)
}

// CreateSurvey godoc
// POST /api/v1/admin/surveys
// Creates a survey with its question set.
func (h *SurveyHandler) CreateSurvey(c *gin.Context) {
	var req model.CreateSurveyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	survey, err := h.surveyService.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyTitle), errors.Is(err, service.ErrNoQuestions):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
		default:
			h.log.Error().Err(err).Msg("Create survey failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"survey": survey})
}

// GetSurvey godoc
// GET /api/v1/admin/surveys/:survey_id
func (h *SurveyHandler) GetSurvey(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	survey, err := h.surveyService.Get(c.Request.Context(), surveyID)
	if err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Get survey failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// UpdateSurvey godoc
// PUT /api/v1/admin/surveys/:survey_id
// Replaces the survey's fields and its entire question set.
func (h *SurveyHandler) UpdateSurvey(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateSurveyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	survey, err := h.surveyService.Update(c.Request.Context(), surveyID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSurveyNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrEmptyTitle), errors.Is(err, service.ErrNoQuestions):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error())
		default:
			h.log.Error().Err(err).Msg("Update survey failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"survey": survey})
}

// DeleteSurvey godoc
// DELETE /api/v1/admin/surveys/:survey_id
// Cascading delete: responses, participants, questions, then the survey row.
// On partial failure the response names the failed step; re-running the
// request completes the cascade.
func (h *SurveyHandler) DeleteSurvey(c *gin.Context) {
	surveyID, err := uuid.Parse(c.Param("survey_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	deleted, err := h.surveyService.Delete(c.Request.Context(), surveyID)
	if err != nil {
		if errors.Is(err, service.ErrSurveyNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		var stepErr *service.DeleteStepError
		if errors.As(err, &stepErr) {
			h.log.Error().Err(stepErr.Err).
				Str("survey_id", surveyID.String()).
				Str("step", string(stepErr.Step)).
				Msg("Cascading delete failed")
			response.FailWithMessage(c, http.StatusInternalServerError, response.ErrPersistence, stepErr.Error())
			return
		}
		h.log.Error().Err(err).Msg("Delete survey failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participants_deleted": deleted})
}
