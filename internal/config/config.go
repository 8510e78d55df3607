package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Oracle settings
	OracleBackend string        `yaml:"oracle_backend"`
	OracleURL     string        `yaml:"oracle_url"`
	OracleModel   string        `yaml:"oracle_model"`
	OracleAPIKey  string        `yaml:"-"`
	OracleTimeout time.Duration `yaml:"oracle_timeout"`

	// Fetch settings
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	HTTPRetries      int           `yaml:"http_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	BrowserTimeout   time.Duration `yaml:"browser_timeout"`
	RenderTimeout    time.Duration `yaml:"render_timeout"`
	MinHTMLLength    int           `yaml:"min_html_length"`
	MaxContentSize   int64         `yaml:"max_content_size"`
	EnableBrowser    bool          `yaml:"enable_browser"`
	EnableAutomation bool          `yaml:"enable_automation"`
	ChromePath       string        `yaml:"chrome_path"`
	RenderServiceURL string        `yaml:"render_service_url"`
	JSHeavyDomains   []string      `yaml:"js_heavy_domains"`
	Proxies          []string      `yaml:"proxies"`
	RespectRobots    bool          `yaml:"respect_robots"`
	UserAgent        string        `yaml:"user_agent"`

	// Image settings
	ImageDir       string        `yaml:"image_dir"`
	ImageURLPrefix string        `yaml:"image_url_prefix"`
	ImagePause     time.Duration `yaml:"image_pause"`
	MaxImageSize   int64         `yaml:"max_image_size"`

	// Session settings
	HistoryThreshold int           `yaml:"history_threshold"`
	TokenBudget      int           `yaml:"token_budget"`
	KeepRecent       int           `yaml:"keep_recent"`
	MaxTokens        int           `yaml:"max_tokens"`
	Eviction         string        `yaml:"eviction"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	MaxSessions      int           `yaml:"max_sessions"`
	JournalPath      string        `yaml:"journal_path"`

	// Scrape settings
	MaxExtraPages  int           `yaml:"max_extra_pages"`
	ExtraPageDelay time.Duration `yaml:"extra_page_delay"`

	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		// Oracle defaults
		OracleBackend: "openai",
		OracleURL:     "",
		OracleModel:   "gpt-4o-mini",
		OracleTimeout: 120 * time.Second,

		// Fetch defaults
		HTTPTimeout:      30 * time.Second,
		HTTPRetries:      3,
		RetryBackoff:     500 * time.Millisecond,
		BrowserTimeout:   30 * time.Second,
		MinHTMLLength:    1000,
		MaxContentSize:   10 * 1024 * 1024, // 10 MB
		EnableBrowser:    true,
		EnableAutomation: true,
		RenderTimeout:    20 * time.Second,
		JSHeavyDomains: []string{
			"news.ycombinator.com", "reddit.com", "twitter.com",
			"x.com", "facebook.com", "instagram.com",
		},
		RespectRobots: true,

		// Image defaults
		ImageDir:       "./images",
		ImageURLPrefix: "/images/",
		ImagePause:     400 * time.Millisecond,
		MaxImageSize:   10 * 1024 * 1024, // 10 MB

		// Session defaults
		HistoryThreshold: 20,
		TokenBudget:      12000,
		KeepRecent:       18,
		MaxTokens:        11000,
		Eviction:         "none",
		SessionTTL:       24 * time.Hour,
		MaxSessions:      100,

		// Scrape defaults
		MaxExtraPages:  3,
		ExtraPageDelay: 1500 * time.Millisecond,

		Verbose: false,
	}
}

// Load builds a configuration from defaults, an optional YAML file and the environment.
// Flags are applied afterwards by the caller.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile overlays values from a YAML file onto c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.ImageDir = expandHome(c.ImageDir)
	c.JournalPath = expandHome(c.JournalPath)
	return nil
}

// ApplyEnv overlays environment variables onto c
func (c *Config) ApplyEnv() {
	setString(&c.OracleBackend, "SCRAPER_ORACLE_BACKEND")
	setString(&c.OracleURL, "OPENAI_BASE_URL")
	setString(&c.OracleURL, "SCRAPER_ORACLE_URL")
	setString(&c.OracleModel, "OPENAI_MODEL")
	setString(&c.OracleModel, "SCRAPER_ORACLE_MODEL")
	setString(&c.OracleAPIKey, "OPENAI_API_KEY")
	setString(&c.ChromePath, "SCRAPER_CHROME_PATH")
	setString(&c.RenderServiceURL, "SCRAPER_RENDER_URL")
	setString(&c.ImageDir, "SCRAPER_IMAGE_DIR")
	setString(&c.JournalPath, "SCRAPER_JOURNAL")
	setString(&c.Eviction, "SCRAPER_EVICTION")
	setInt(&c.MaxTokens, "SCRAPER_MAX_TOKENS")
	setInt(&c.MaxExtraPages, "SCRAPER_MAX_EXTRA_PAGES")
	setBool(&c.EnableBrowser, "SCRAPER_ENABLE_BROWSER")
	setBool(&c.EnableAutomation, "SCRAPER_ENABLE_AUTOMATION")
	setBool(&c.RespectRobots, "SCRAPER_RESPECT_ROBOTS")
	setBool(&c.Verbose, "SCRAPER_VERBOSE")
	if v := GetEnv("SCRAPER_PROXIES"); v != "" {
		c.Proxies = splitList(v)
	}
	if v := GetEnv("SCRAPER_JS_HEAVY_DOMAINS"); v != "" {
		c.JSHeavyDomains = splitList(v)
	}
	c.ImageDir = expandHome(c.ImageDir)
	c.JournalPath = expandHome(c.JournalPath)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.OracleBackend {
	case "openai", "ollama":
	default:
		return fmt.Errorf("oracle backend must be openai or ollama, got %q", c.OracleBackend)
	}
	if c.OracleModel == "" {
		return fmt.Errorf("oracle model cannot be empty")
	}
	if c.OracleBackend == "ollama" && c.OracleURL == "" {
		return fmt.Errorf("ollama backend requires an oracle URL")
	}
	if c.HTTPRetries < 0 {
		return fmt.Errorf("http retries cannot be negative")
	}
	if c.MinHTMLLength < 0 {
		return fmt.Errorf("min html length cannot be negative")
	}
	if c.KeepRecent < 1 || c.KeepRecent > c.HistoryThreshold {
		return fmt.Errorf("keep recent must be between 1 and the history threshold (%d)", c.HistoryThreshold)
	}
	if c.TokenBudget < 1 || c.MaxTokens < 2 {
		return fmt.Errorf("token budgets must be positive")
	}
	switch c.Eviction {
	case "none", "ttl", "lru":
	default:
		return fmt.Errorf("eviction must be one of none, ttl, lru")
	}
	if c.MaxExtraPages < 0 {
		return fmt.Errorf("max extra pages cannot be negative")
	}
	return nil
}

// expandHome expands the ~ in file paths to the user's home directory
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir := getHomeDir()
		return homeDir + path[1:]
	}
	return path
}

// getHomeDir returns the user's home directory
func getHomeDir() string {
	if home := GetEnv("HOME"); home != "" {
		return home
	}
	// Fallback for Windows
	if home := GetEnv("USERPROFILE"); home != "" {
		return home
	}
	return "."
}

func setString(dst *string, key string) {
	if v := GetEnv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := GetEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := GetEnv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetEnv is a wrapper around os.Getenv for easier testing
var GetEnv = os.Getenv
