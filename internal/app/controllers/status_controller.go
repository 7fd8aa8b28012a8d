// Package controllers exposes the read-only HTTP surface: liveness, reactor
// status, and the current published timetable. The scheduler itself is driven
// by collection changes, never by HTTP.
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planora/scheduler/internal/app/repositories"
	"github.com/planora/scheduler/internal/app/services"
)

// StatusController handles the operational read endpoints.
type StatusController struct {
	reactor    *services.ReactorService
	timetables *repositories.TimetableRepository
}

// NewStatusController creates a new StatusController
func NewStatusController(reactor *services.ReactorService, timetables *repositories.TimetableRepository) *StatusController {
	return &StatusController{
		reactor:    reactor,
		timetables: timetables,
	}
}

// HealthCheck reports process liveness.
func (c *StatusController) HealthCheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
}

// GetStatus reports the reactor's operating mode and cycle counters.
func (c *StatusController) GetStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.reactor.Status())
}

// GetTimetable returns the latest published timetable document. Before the
// first successful publish there is nothing to return.
func (c *StatusController) GetTimetable(ctx *gin.Context) {
	doc, err := c.timetables.GetTimetable(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "no timetable published yet"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load timetable"})
		return
	}
	ctx.JSON(http.StatusOK, doc)
}
