package models

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URLs are scraped one at a time in the given order. Required.
	// A missing scheme is treated as https.
	URLs []string `json:"urls" binding:"required,min=1,max=20,dive,required"`

	// HTTPOnly skips the browser backend and uses the direct HTTP fetcher.
	HTTPOnly bool `json:"http_only,omitempty"`

	// MaxAge is the oldest cached batch result, in milliseconds, the caller
	// accepts. 0 disables the cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// ValidateRequest is the payload for POST /api/v1/validate.
type ValidateRequest struct {
	URL string `json:"url" binding:"required"`

	// Probe additionally checks reachability over the network.
	Probe bool `json:"probe,omitempty"`
}

// GenerateRequest is the payload for POST /api/v1/generate.
type GenerateRequest struct {
	// URLs to scrape as source material. May be empty when Instructions
	// alone describe the character.
	URLs []string `json:"urls" binding:"max=20,dive,required"`

	// Instructions are free-form guidance appended to the prompt.
	Instructions string `json:"instructions,omitempty"`

	// Image is an optional base64 picture of the character (PNG, JPEG,
	// GIF, WebP or BMP). It is sent to vision-capable providers and the
	// card is embedded into it.
	Image string `json:"image,omitempty"`

	HTTPOnly bool `json:"http_only,omitempty"`
}
