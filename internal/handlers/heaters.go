package handlers

import (
	"errors"
	"io"
	"net/http"

	"heating_scheduler/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errRun             = "heater run failed"
	errLedger          = "failed to load ledger"
	errFetchSchedules  = "failed to fetch schedules"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// RunRequest is the optional payload of POST /api/v1/runs.
type RunRequest struct {
	// Compute decisions without commands or persistence
	DryRun bool `json:"dry_run" example:"false"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get ledger
// @Description  Last persisted value per device (mode name or changed_<unix seconds>).
// @Tags         heaters
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/ledger [get]
// @Security     BearerAuth
func (h *Handler) getLedger(c *gin.Context) {
	e, err := h.services.Heaters.Ledger(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLedger, "ledger_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, e.Strings())
}

// @Summary      Trigger a heater run
// @Tags         heaters
// @Accept       json
// @Produce      json
// @Param        body  body      RunRequest  false  "Run options"
// @Success      200   {object}  service.RunReport
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/runs [post]
// @Security     BearerAuth
func (h *Handler) triggerRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	h.log.Infow("api_run_requested", "operator", c.GetString(operatorCtx), "dry_run", req.DryRun)
	report, err := h.services.Heaters.Run(c.Request.Context(), service.RunOptions{DryRun: req.DryRun})
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errRun, "api_run_failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Fetch schedules
// @Description  Refreshes the bookings file from the calendar.
// @Tags         schedules
// @Produce      json
// @Success      200  {object}  map[string]int  "count"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules/fetch [post]
// @Security     BearerAuth
func (h *Handler) fetchSchedules(c *gin.Context) {
	n, err := h.services.Schedules.Fetch(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errFetchSchedules, "api_fetch_schedules_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
