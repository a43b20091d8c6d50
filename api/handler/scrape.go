package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/cache"
	"github.com/use-agent/charscrape/cleaner"
	"github.com/use-agent/charscrape/models"
	"github.com/use-agent/charscrape/scraper"
)

// BatchRunner runs one scrape batch.
type BatchRunner interface {
	Scrape(ctx context.Context, urls []string, httpOnly bool) *scraper.Result
}

// Scrape returns a handler for POST /api/v1/scrape.
//
// Flow:
//  1. Parse and validate the request.
//  2. Serve from cache when max_age allows it.
//  3. Wait for a batch slot and run the batch.
//  4. Count tokens, store in cache, respond.
//
// A batch where every URL failed still answers 200 with success=false;
// the per-URL outcomes say why.
func Scrape(runner BatchRunner, slots *Slots, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()
		fail := func(d *models.ErrorDetail) any {
			return models.ScrapeResponse{
				Error:  d,
				Timing: models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
			}
		}

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, invalidInput(err.Error()), fail)
			return
		}

		var cacheKey string
		if cc != nil && req.MaxAge > 0 {
			cacheKey = cache.Key(req.URLs, req.HTTPOnly)
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		release, err := slots.Acquire(c.Request.Context())
		if err != nil {
			abortError(c, err, fail)
			return
		}
		res := runner.Scrape(c.Request.Context(), req.URLs, req.HTTPOnly)
		release()

		content := res.Document.Text()
		resp := &models.ScrapeResponse{
			Success:  !res.Document.Empty(),
			Content:  content,
			Sections: res.Document.Sections,
			Summary:  res.Summary,
			Tokens:   cleaner.CountTokens(content),
		}
		if !resp.Success {
			resp.Error = &models.ErrorDetail{
				Code:    models.ErrCodeContentTooShort,
				Message: "no URL produced usable content",
			}
		}

		if cacheKey != "" {
			cc.Set(cacheKey, resp)
			resp.CacheStatus = "miss"
		}
		out := *resp
		out.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		c.JSON(http.StatusOK, out)
	}
}
