package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Cleaner   CleanerConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	LLM       LLMConfig
	Card      CardConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// MaxConcurrentBatches bounds how many batches run at once. Each batch
	// owns its own browser process.
	MaxConcurrentBatches int // default: 2
}

// BrowserConfig controls headless browser backends.
type BrowserConfig struct {
	// Enabled toggles the browser stage. When false every URL goes straight
	// to the HTTP fetcher.
	Enabled bool // default: true

	// Order is the candidate preference order.
	Order []string // default: ["chrome", "edge", "firefox"]

	// ChromiumDriver selects the automation library for chrome and edge:
	// "rod" or "chromedp". Empty keeps the per-browser default
	// (rod for chrome, chromedp for edge).
	ChromiumDriver string

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Stealth masks navigator.webdriver and friends (rod only).
	Stealth bool // default: true

	// BrowserBin overrides the binary of the first candidate.
	BrowserBin string

	// BlockedResourceTypes lists resource types to block (rod only).
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds drops requests to known ad and tracking hosts (rod only).
	BlockAds bool // default: true

	// PreferenceFile stores the last backend that initialized.
	// default: <user config dir>/charscrape/browser.json
	PreferenceFile string
}

// FetchConfig bounds every blocking step of a fetch.
type FetchConfig struct {
	PageLoadTimeout     time.Duration // default: 60s
	BodyWaitTimeout     time.Duration // default: 10s
	SelectorWaitTimeout time.Duration // default: 5s
	SettleDelay         time.Duration // default: 2s
	ScrollPause         time.Duration // default: 500ms

	HTTPTimeout  time.Duration // default: 30s
	RetryMax     int           // default: 3
	RetryWaitMin time.Duration // default: 1s
	RetryWaitMax time.Duration // default: 8s

	ProbeTimeout time.Duration // default: 12s
}

// CleanerConfig holds the extraction heuristics.
type CleanerConfig struct {
	MinWords         int      // default: 10
	// MinChars is the length HTTP fallback text must exceed.
	MinChars         int      // default: 50
	DensityFloor     float64  // default: 10
	LandmarkMaxWords int      // default: 50
	PatternMaxWords  int      // default: 20
	MaxTableRows     int      // default: 100
	MaxTableCols     int      // default: 10
	MaxEmptyRows     int      // default: 3
	SiteSelectors    []string // default: ["#mw-content-text .mw-parser-output"]
}

// ScraperConfig controls batch behavior.
type ScraperConfig struct {
	// Dedupe drops pages whose text is a near duplicate of an earlier
	// section in the same batch.
	Dedupe bool // default: false

	// DedupeDistance is the simhash Hamming distance counted as duplicate.
	DedupeDistance int // default: 3
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the batch result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 200

	// TTL is how long an entry survives regardless of max_age.
	TTL time.Duration // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// LLMConfig selects the profile generator.
type LLMConfig struct {
	// Provider is one of groq, openrouter, gemini, openai.
	Provider string // default: "groq"

	// APIKey falls back to the provider's conventional variable
	// (GROQ_API_KEY, OPENROUTER_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY).
	APIKey string

	// Model overrides the provider default.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	Timeout time.Duration // default: 120s
}

// CardConfig controls character card output.
type CardConfig struct {
	// OutputDir is where generated PNG cards are written.
	OutputDir string // default: "cards"

	Creator string // default: "Anonymous"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:                 envOr("CHARSCRAPE_HOST", "0.0.0.0"),
			Port:                 envIntOr("CHARSCRAPE_PORT", 8080),
			Mode:                 envOr("CHARSCRAPE_MODE", "release"),
			MaxConcurrentBatches: envIntOr("CHARSCRAPE_MAX_BATCHES", 2),
		},
		Browser: BrowserConfig{
			Enabled:        envBoolOr("CHARSCRAPE_BROWSER_ENABLED", true),
			Order:          envSliceOr("CHARSCRAPE_BROWSER_ORDER", []string{"chrome", "edge", "firefox"}),
			ChromiumDriver: os.Getenv("CHARSCRAPE_CHROMIUM_DRIVER"),
			Headless:       envBoolOr("CHARSCRAPE_HEADLESS", true),
			NoSandbox:      envBoolOr("CHARSCRAPE_NO_SANDBOX", false),
			Stealth:        envBoolOr("CHARSCRAPE_STEALTH", true),
			BrowserBin:     os.Getenv("CHARSCRAPE_BROWSER_BIN"),
			BlockedResourceTypes: envSliceOr("CHARSCRAPE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			BlockAds:       envBoolOr("CHARSCRAPE_BLOCK_ADS", true),
			PreferenceFile: envOr("CHARSCRAPE_PREFERENCE_FILE", defaultPreferenceFile()),
		},
		Fetch: FetchConfig{
			PageLoadTimeout:     envDurationOr("CHARSCRAPE_PAGE_LOAD_TIMEOUT", 60*time.Second),
			BodyWaitTimeout:     envDurationOr("CHARSCRAPE_BODY_WAIT_TIMEOUT", 10*time.Second),
			SelectorWaitTimeout: envDurationOr("CHARSCRAPE_SELECTOR_WAIT_TIMEOUT", 5*time.Second),
			SettleDelay:         envDurationOr("CHARSCRAPE_SETTLE_DELAY", 2*time.Second),
			ScrollPause:         envDurationOr("CHARSCRAPE_SCROLL_PAUSE", 500*time.Millisecond),
			HTTPTimeout:         envDurationOr("CHARSCRAPE_HTTP_TIMEOUT", 30*time.Second),
			RetryMax:            envIntOr("CHARSCRAPE_RETRY_MAX", 3),
			RetryWaitMin:        envDurationOr("CHARSCRAPE_RETRY_WAIT_MIN", time.Second),
			RetryWaitMax:        envDurationOr("CHARSCRAPE_RETRY_WAIT_MAX", 8*time.Second),
			ProbeTimeout:        envDurationOr("CHARSCRAPE_PROBE_TIMEOUT", 12*time.Second),
		},
		Cleaner: CleanerConfig{
			MinWords:         envIntOr("CHARSCRAPE_MIN_WORDS", 10),
			MinChars:         envIntOr("CHARSCRAPE_MIN_CHARS", 50),
			DensityFloor:     envFloatOr("CHARSCRAPE_DENSITY_FLOOR", 10),
			LandmarkMaxWords: envIntOr("CHARSCRAPE_LANDMARK_MAX_WORDS", 50),
			PatternMaxWords:  envIntOr("CHARSCRAPE_PATTERN_MAX_WORDS", 20),
			MaxTableRows:     envIntOr("CHARSCRAPE_MAX_TABLE_ROWS", 100),
			MaxTableCols:     envIntOr("CHARSCRAPE_MAX_TABLE_COLS", 10),
			MaxEmptyRows:     envIntOr("CHARSCRAPE_MAX_EMPTY_ROWS", 3),
			SiteSelectors: envSliceOr("CHARSCRAPE_SITE_SELECTORS", []string{
				"#mw-content-text .mw-parser-output",
			}),
		},
		Scraper: ScraperConfig{
			Dedupe:         envBoolOr("CHARSCRAPE_DEDUPE", false),
			DedupeDistance: envIntOr("CHARSCRAPE_DEDUPE_DISTANCE", 3),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("CHARSCRAPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("CHARSCRAPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("CHARSCRAPE_RATE_RPS", 1.0),
			Burst:             envIntOr("CHARSCRAPE_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("CHARSCRAPE_CACHE_MAX_ENTRIES", 200),
			TTL:        envDurationOr("CHARSCRAPE_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("CHARSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("CHARSCRAPE_LOG_FORMAT", "text"),
		},
		LLM: LLMConfig{
			Provider: envOr("CHARSCRAPE_LLM_PROVIDER", "groq"),
			APIKey:   os.Getenv("CHARSCRAPE_LLM_API_KEY"),
			Model:    os.Getenv("CHARSCRAPE_LLM_MODEL"),
			BaseURL:  os.Getenv("CHARSCRAPE_LLM_BASE_URL"),
			Timeout:  envDurationOr("CHARSCRAPE_LLM_TIMEOUT", 120*time.Second),
		},
		Card: CardConfig{
			OutputDir: envOr("CHARSCRAPE_CARD_DIR", "cards"),
			Creator:   envOr("CHARSCRAPE_CARD_CREATOR", "Anonymous"),
		},
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv(providerKeyEnv(cfg.LLM.Provider))
	}
	return cfg
}

// providerKeyEnv names the conventional API key variable of a provider.
func providerKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openrouter":
		return "OPENROUTER_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

func defaultPreferenceFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "browser.json"
	}
	return filepath.Join(dir, "charscrape", "browser.json")
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
