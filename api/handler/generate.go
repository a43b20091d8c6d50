package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/card"
	"github.com/use-agent/charscrape/llm"
	"github.com/use-agent/charscrape/models"
)

// Generator turns source text into a profile.
type Generator interface {
	Generate(ctx context.Context, content, instructions string, img *llm.Image) (*llm.Result, error)
}

// Generate returns a handler for POST /api/v1/generate: scrape the URLs,
// ask the model for a profile and build the character card.
func Generate(runner BatchRunner, gen Generator, slots *Slots, creator string) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()
		var summary models.BatchSummary
		fail := func(d *models.ErrorDetail) any {
			return models.GenerateResponse{
				Summary: summary,
				Error:   d,
				Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
			}
		}

		var req models.GenerateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortError(c, invalidInput(err.Error()), fail)
			return
		}

		var img *llm.Image
		var imgBytes []byte
		if req.Image != "" {
			b, err := base64.StdEncoding.DecodeString(req.Image)
			if err != nil {
				abortError(c, invalidInput("image is not valid base64"), fail)
				return
			}
			imgBytes = b
			img = &llm.Image{MIME: http.DetectContentType(b), Data: b}
			if !strings.HasPrefix(img.MIME, "image/") {
				abortError(c, invalidInput("image has unsupported content type "+img.MIME), fail)
				return
			}
		}
		if len(req.URLs) == 0 && img == nil {
			abortError(c, invalidInput("provide urls or an image"), fail)
			return
		}

		var content string
		if len(req.URLs) > 0 {
			release, err := slots.Acquire(c.Request.Context())
			if err != nil {
				abortError(c, err, fail)
				return
			}
			res := runner.Scrape(c.Request.Context(), req.URLs, req.HTTPOnly)
			release()
			summary = res.Summary
			content = res.Document.Text()
			if res.Document.Empty() && img == nil {
				abortError(c, models.NewScrapeError(models.ErrCodeContentTooShort, "no URL produced usable content", nil), fail)
				return
			}
		}

		genStart := time.Now()
		out, err := gen.Generate(c.Request.Context(), content, req.Instructions, img)
		genMs := time.Since(genStart).Milliseconds()
		if err != nil {
			abortError(c, err, fail)
			return
		}

		payload, err := card.New(out.Profile, creator).Encode()
		if err != nil {
			abortError(c, err, fail)
			return
		}
		if len(imgBytes) == 0 {
			imgBytes = card.Blank()
		}
		pngBytes, err := card.Embed(imgBytes, payload)
		if err != nil {
			abortError(c, invalidInput("cannot embed card into image: "+err.Error()), fail)
			return
		}

		c.JSON(http.StatusOK, models.GenerateResponse{
			Success:  true,
			Profile:  out.Profile,
			Summary:  summary,
			Card:     payload,
			CardPNG:  base64.StdEncoding.EncodeToString(pngBytes),
			LLMUsage: out.Usage,
			Timing: models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				GenerationMs: genMs,
			},
		})
	}
}

// Unavailable is the Generator used when no LLM provider is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string, string, *llm.Image) (*llm.Result, error) {
	return nil, models.NewScrapeError(models.ErrCodeLLMFailure, "no LLM provider configured", nil)
}
