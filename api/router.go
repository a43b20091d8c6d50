package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/charscrape/api/handler"
	"github.com/use-agent/charscrape/api/middleware"
	"github.com/use-agent/charscrape/cache"
	"github.com/use-agent/charscrape/config"
)

// Scraper runs batches and reports the stored browser preference.
// *scraper.Service satisfies it.
type Scraper interface {
	handler.BatchRunner
	handler.PreferenceSource
}

// Deps are the collaborators the routes need. Cache and Generator may be
// nil: caching is then skipped and /generate answers LLM_FAILURE.
type Deps struct {
	Service   Scraper
	Prober    handler.Prober
	Generator handler.Generator
	Cache     *cache.Cache
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(deps Deps, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	slots := handler.NewSlots(cfg.Server.MaxConcurrentBatches)

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(deps.Service, slots, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(deps.Service, slots, deps.Cache))
	protected.POST("/validate", handler.Validate(deps.Prober))

	gen := deps.Generator
	if gen == nil {
		gen = handler.Unavailable{}
	}
	protected.POST("/generate", handler.Generate(deps.Service, gen, slots, cfg.Card.Creator))

	return r
}
