package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/internal/dto"
	"github.com/sanametrics/fieldsync/internal/service"
	"gorm.io/gorm"
)

// StartInterviewHandler godoc
// @Summary Start a new interview
// @Description Opens a respondent session against a cached survey and returns the generated client_uuid.
// @Tags Interviews
// @Accept json
// @Produce json
// @Param interview body dto.StartInterviewRequest true "Target survey and respondent metadata"
// @Success 201 {object} dto.InterviewResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 404 {object} dto.ErrorResponse "Survey not in local catalog"
// @Router /interviews [post]
func (ctrl *Controller) StartInterviewHandler(ctx *gin.Context) {
	var req dto.StartInterviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	interview, err := ctrl.interviewSvc.Start(req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownSurvey) {
			ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
			return
		}
		log.Error().Err(err).Msg("StartInterview: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to start interview"})
		return
	}
	ctx.JSON(http.StatusCreated, interview)
}

// SaveInterviewHandler godoc
// @Summary Auto-save an interview draft
// @Description Merges the supplied fields into the stored interview; absent fields are preserved.
// @Tags Interviews
// @Accept json
// @Produce json
// @Param client_uuid path string true "Interview client UUID"
// @Param patch body dto.SaveInterviewRequest true "Fields to merge"
// @Success 200 {object} dto.InterviewResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown client_uuid"
// @Failure 409 {object} dto.ErrorResponse "Interview already synced"
// @Router /interviews/{client_uuid} [patch]
func (ctrl *Controller) SaveInterviewHandler(ctx *gin.Context) {
	var req dto.SaveInterviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	interview, err := ctrl.interviewSvc.SaveDraft(ctx.Param("client_uuid"), req)
	if err != nil {
		respondInterviewError(ctx, err, "SaveInterview")
		return
	}
	ctx.JSON(http.StatusOK, interview)
}

// SubmitInterviewHandler godoc
// @Summary Submit an interview
// @Description Validates the interview, queues it for sync and pushes it immediately. The returned status tells whether the push succeeded.
// @Tags Interviews
// @Produce json
// @Param client_uuid path string true "Interview client UUID"
// @Success 200 {object} dto.InterviewResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown client_uuid"
// @Failure 409 {object} dto.ErrorResponse "Interview already synced"
// @Failure 422 {object} dto.ErrorResponse "No answers captured yet"
// @Router /interviews/{client_uuid}/submit [post]
func (ctrl *Controller) SubmitInterviewHandler(ctx *gin.Context) {
	interview, err := ctrl.interviewSvc.Submit(ctx.Request.Context(), ctx.Param("client_uuid"))
	if err != nil {
		if errors.Is(err, service.ErrNoAnswers) {
			ctx.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
			return
		}
		respondInterviewError(ctx, err, "SubmitInterview")
		return
	}
	ctx.JSON(http.StatusOK, interview)
}

// GetInterviewHandler godoc
// @Summary Get one interview
// @Tags Interviews
// @Produce json
// @Param client_uuid path string true "Interview client UUID"
// @Success 200 {object} dto.InterviewResponse
// @Failure 404 {object} dto.ErrorResponse "Unknown client_uuid"
// @Router /interviews/{client_uuid} [get]
func (ctrl *Controller) GetInterviewHandler(ctx *gin.Context) {
	interview, err := ctrl.interviewSvc.Get(ctx.Param("client_uuid"))
	if err != nil {
		respondInterviewError(ctx, err, "GetInterview")
		return
	}
	ctx.JSON(http.StatusOK, interview)
}

// ListInterviewsHandler godoc
// @Summary List interviews
// @Description Lists all locally stored interviews. With pending=true, only those still waiting to reach the platform.
// @Tags Interviews
// @Produce json
// @Param pending query bool false "Only pending/error interviews"
// @Success 200 {array} dto.InterviewResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /interviews [get]
func (ctrl *Controller) ListInterviewsHandler(ctx *gin.Context) {
	var (
		interviews []dto.InterviewResponse
		err        error
	)
	if ctx.Query("pending") == "true" {
		interviews, err = ctrl.interviewSvc.ListPending()
	} else {
		interviews, err = ctrl.interviewSvc.List()
	}
	if err != nil {
		log.Error().Err(err).Msg("ListInterviews: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to list interviews"})
		return
	}
	ctx.JSON(http.StatusOK, interviews)
}

func respondInterviewError(ctx *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "interview not found"})
	case errors.Is(err, service.ErrInterviewFinalized):
		ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
	default:
		log.Error().Err(err).Str("op", op).Msg("Interview handler: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
