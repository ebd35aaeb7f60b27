package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/internal/dto"
	"gorm.io/gorm"
)

// ListSurveysHandler godoc
// @Summary List cached surveys
// @Description Serves the locally cached survey catalog; works fully offline.
// @Tags Surveys
// @Produce json
// @Success 200 {array} dto.SurveySummaryResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /surveys [get]
func (ctrl *Controller) ListSurveysHandler(ctx *gin.Context) {
	surveys, err := ctrl.surveySvc.List()
	if err != nil {
		log.Error().Err(err).Msg("ListSurveys: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list surveys"})
		return
	}
	ctx.JSON(http.StatusOK, surveys)
}

// GetSurveyHandler godoc
// @Summary Get a cached survey with its questions
// @Tags Surveys
// @Produce json
// @Param survey_id path int true "Survey ID"
// @Success 200 {object} dto.SurveyResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid survey ID"
// @Failure 404 {object} dto.ErrorResponse "Survey not in local catalog"
// @Router /surveys/{survey_id} [get]
func (ctrl *Controller) GetSurveyHandler(ctx *gin.Context) {
	surveyID, err := strconv.ParseUint(ctx.Param("survey_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid survey ID"})
		return
	}
	survey, err := ctrl.surveySvc.Get(uint(surveyID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "survey not found"})
			return
		}
		log.Error().Err(err).Uint64("survey_id", surveyID).Msg("GetSurvey: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to load survey"})
		return
	}
	ctx.JSON(http.StatusOK, survey)
}

// RefreshSurveysHandler godoc
// @Summary Refresh the survey catalog from the platform
// @Description Replaces the local cache with the platform's current catalog. Requires connectivity.
// @Tags Surveys
// @Produce json
// @Success 200 {array} dto.SurveySummaryResponse
// @Failure 502 {object} dto.ErrorResponse "Platform unreachable or rejected the request"
// @Router /surveys/refresh [post]
func (ctrl *Controller) RefreshSurveysHandler(ctx *gin.Context) {
	surveys, err := ctrl.surveySvc.Refresh(ctx.Request.Context())
	if err != nil {
		log.Warn().Err(err).Msg("RefreshSurveys: refresh failed")
		ctx.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, surveys)
}
