package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PreferenceSource reports the stored browser preference.
type PreferenceSource interface {
	Preference() models.BrowserPreference
}

// Health returns a handler for GET /api/v1/health.
//
// Status is "degraded" while every batch slot is busy.
func Health(prefs PreferenceSource, slots *Slots, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if slots != nil && slots.Full() {
			status = "degraded"
		}
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			Version:    Version,
			Preference: prefs.Preference(),
		})
	}
}
