package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/models"
	"github.com/use-agent/charscrape/urlcheck"
)

// Prober checks whether a URL answers over the network.
type Prober interface {
	IsReachable(ctx context.Context, raw string) urlcheck.ProbeResult
}

// Validate returns a handler for POST /api/v1/validate. The shape check is
// always done; the network probe only when requested.
func Validate(prober Prober) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, invalidInput(err.Error()), func(d *models.ErrorDetail) any {
				return gin.H{"error": d}
			})
			return
		}

		u := urlcheck.Normalize(req.URL)
		resp := models.ValidateResponse{
			URL:        u,
			WellFormed: urlcheck.IsWellFormed(u),
		}
		if resp.WellFormed && req.Probe {
			r := prober.IsReachable(c.Request.Context(), u)
			resp.Probed = true
			resp.Reachable = r.Reachable
			resp.Reason = string(r.Reason)
			resp.StatusCode = r.StatusCode
			resp.Downgraded = r.Downgraded
			resp.Soft = !r.Reachable && r.Soft()
		}
		c.JSON(http.StatusOK, resp)
	}
}
