package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/internal/dto"
)

// LoginHandler godoc
// @Summary Log the device in against the platform
// @Description Obtains a token pair from the platform and holds it for authenticated calls. Interview sync works without a session for public surveys.
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body dto.LoginRequest true "Platform credentials"
// @Success 204 "Session established"
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 401 {object} dto.ErrorResponse "Platform rejected the credentials"
// @Router /auth/login [post]
func (ctrl *Controller) LoginHandler(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := ctrl.sessionSvc.Login(ctx.Request.Context(), req.Username, req.Password); err != nil {
		log.Warn().Err(err).Msg("Login: rejected")
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// LogoutHandler godoc
// @Summary Clear the device session
// @Tags Auth
// @Success 204 "Session cleared"
// @Router /auth/logout [post]
func (ctrl *Controller) LogoutHandler(ctx *gin.Context) {
	ctrl.sessionSvc.Logout()
	ctx.Status(http.StatusNoContent)
}
