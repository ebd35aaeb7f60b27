package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sanametrics/fieldsync/internal/dto"
)

// RunSyncHandler godoc
// @Summary Trigger a sync run
// @Description Schedules a forced sync pass over every queued interview, ignoring retry backoff windows. Always returns 202; outcomes land in the per-interview status fields.
// @Tags Sync
// @Produce json
// @Success 202 {object} dto.SyncStatusResponse
// @Router /sync/run [post]
func (ctrl *Controller) RunSyncHandler(ctx *gin.Context) {
	// Detached from the request context: the run must not die with the
	// HTTP connection.
	go ctrl.syncSvc.TriggerSync(context.Background(), true)
	ctx.JSON(http.StatusAccepted, ctrl.syncStatus())
}

// SyncStatusHandler godoc
// @Summary Report sync state
// @Description Connectivity, queue depth and the outcome of the last sync run.
// @Tags Sync
// @Produce json
// @Success 200 {object} dto.SyncStatusResponse
// @Router /sync/status [get]
func (ctrl *Controller) SyncStatusHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, ctrl.syncStatus())
}

func (ctrl *Controller) syncStatus() dto.SyncStatusResponse {
	status := dto.SyncStatusResponse{
		Online:  ctrl.reachability.Online(),
		Running: ctrl.syncSvc.Running(),
	}
	if pending, err := ctrl.interviewSvc.ListPending(); err == nil {
		status.PendingCount = int64(len(pending))
	}
	if report := ctrl.syncSvc.LastReport(); report != nil {
		ranAt := report.RanAt
		status.LastRunAt = &ranAt
		status.LastSynced = report.Synced
		status.LastFailed = report.Failed
	}
	return status
}
