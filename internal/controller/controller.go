package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/sanametrics/fieldsync/internal/service"
)

type Controller struct {
	interviewSvc service.InterviewService
	surveySvc    service.SurveyService
	syncSvc      service.SyncService
	sessionSvc   service.SessionService
	reachability service.Reachability
}

func NewController(
	interviewSvc service.InterviewService,
	surveySvc service.SurveyService,
	syncSvc service.SyncService,
	sessionSvc service.SessionService,
	reachability service.Reachability,
) *Controller {
	return &Controller{
		interviewSvc: interviewSvc,
		surveySvc:    surveySvc,
		syncSvc:      syncSvc,
		sessionSvc:   sessionSvc,
		reachability: reachability,
	}
}

func (ctrl *Controller) RegisterRoutes(router *gin.Engine) {
	apiV1 := router.Group("/api/v1")
	{
		interviews := apiV1.Group("/interviews")
		interviews.POST("", ctrl.StartInterviewHandler)
		interviews.GET("", ctrl.ListInterviewsHandler)
		interviews.GET("/:client_uuid", ctrl.GetInterviewHandler)
		interviews.PATCH("/:client_uuid", ctrl.SaveInterviewHandler)
		interviews.POST("/:client_uuid/submit", ctrl.SubmitInterviewHandler)

		surveys := apiV1.Group("/surveys")
		surveys.GET("", ctrl.ListSurveysHandler)
		surveys.GET("/:survey_id", ctrl.GetSurveyHandler)
		surveys.POST("/refresh", ctrl.RefreshSurveysHandler)

		syncGroup := apiV1.Group("/sync")
		syncGroup.POST("/run", ctrl.RunSyncHandler)
		syncGroup.GET("/status", ctrl.SyncStatusHandler)

		auth := apiV1.Group("/auth")
		auth.POST("/login", ctrl.LoginHandler)
		auth.POST("/logout", ctrl.LogoutHandler)
	}
}
