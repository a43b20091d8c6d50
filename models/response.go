package models

// ScrapeResponse is the response for POST /api/v1/scrape.
type ScrapeResponse struct {
	// Success is true when at least one URL produced a section.
	Success bool `json:"success"`

	// Content is the aggregate text, one titled section per URL.
	Content string `json:"content"`

	Sections []Section   `json:"sections"`
	Summary  BatchSummary `json:"summary"`

	// Tokens is the token count of Content.
	Tokens int `json:"tokens"`

	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs      int64 `json:"total_ms"`
	GenerationMs int64 `json:"generation_ms,omitempty"`
}

// ValidateResponse is the response for POST /api/v1/validate.
type ValidateResponse struct {
	URL        string `json:"url"`
	WellFormed bool   `json:"well_formed"`
	Probed     bool   `json:"probed"`
	Reachable  bool   `json:"reachable"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Downgraded bool   `json:"tls_downgraded,omitempty"`
	// Soft is set when the probe failure should not stop a scrape.
	Soft bool `json:"soft,omitempty"`
}

// GenerateResponse is the response for POST /api/v1/generate.
type GenerateResponse struct {
	Success bool         `json:"success"`
	Profile *Profile     `json:"profile,omitempty"`
	Summary BatchSummary `json:"summary"`

	// Card is the base64 chara_card_v3 JSON, as embedded in a PNG.
	Card string `json:"card,omitempty"`

	// CardPNG is the base64 PNG with the card embedded.
	CardPNG string `json:"card_png,omitempty"`

	LLMUsage *LLMUsage   `json:"llm_usage,omitempty"`
	Timing   TimingInfo  `json:"timing"`
	Error    *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status     string            `json:"status"` // "healthy" or "degraded"
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Preference BrowserPreference `json:"browser_preference"`
}
