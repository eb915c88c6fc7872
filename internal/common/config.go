package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Search      SearchConfig    `toml:"search"`
	Interview   InterviewConfig `toml:"interview"`
	Export      ExportConfig    `toml:"export"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines (default: "15:04:05")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the provider used for every generation stage
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "claude")
	MaxRetries      int         `toml:"max_retries"`      // Provider-level retries on transient errors (default: 3)
}

// SearchProvider names the web search backend
type SearchProvider string

const (
	SearchProviderTavily   SearchProvider = "tavily"
	SearchProviderGemini   SearchProvider = "gemini"
	SearchProviderDisabled SearchProvider = "disabled"
)

// SearchConfig contains web search configuration
type SearchConfig struct {
	Provider     SearchProvider `toml:"provider"`       // "tavily" (default), "gemini" or "disabled"
	TavilyAPIKey string         `toml:"tavily_api_key"` // Tavily API key (or TAVILY_API_KEY)
	TavilyURL    string         `toml:"tavily_url"`     // Override for the Tavily endpoint
	MaxResults   int            `toml:"max_results"`    // Results per query (default: 3)
	RateLimit    int            `toml:"rate_limit"`     // Requests per second (default: 2)
	Timeout      string         `toml:"timeout"`        // HTTP timeout (default: "30s")
}

// InterviewConfig contains interview pipeline settings
type InterviewConfig struct {
	MaxTurns         int    `toml:"max_turns"`          // Recorded on each interview (default: 2)
	DefaultAnalysts  int    `toml:"default_analysts"`   // Used when a request omits max_analysts (default: 3)
	MaxAnalystsLimit int    `toml:"max_analysts_limit"` // Upper bound accepted by Start (default: 10)
	RunRetention     string `toml:"run_retention"`      // Finished runs older than this are evicted (default: "24h", "0" keeps all)
	SweepSchedule    string `toml:"sweep_schedule"`     // Cron expression for the eviction sweep (default: "@every 10m")
}

// ExportConfig contains document export settings
type ExportConfig struct {
	OutputDir string `toml:"output_dir"` // Root directory for generated reports (default: "./reports")
	PDF       bool   `toml:"pdf"`        // Produce the paginated PDF (default: true)
	DOCX      bool   `toml:"docx"`       // Produce the structured DOCX (default: true)

	// PDFFont is a UTF-8 TrueType font for the PDF. Unset, the PDF uses core
	// Helvetica, which only covers cp1252.
	PDFFont     string `toml:"pdf_font"`
	PDFFontBold string `toml:"pdf_font_bold"` // Optional bold face for headings
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.5-flash",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			MaxRetries:      3,
		},
		Search: SearchConfig{
			Provider:   SearchProviderTavily,
			TavilyURL:  "https://api.tavily.com/search",
			MaxResults: 3,
			RateLimit:  2,
			Timeout:    "30s",
		},
		Interview: InterviewConfig{
			MaxTurns:         2,
			DefaultAnalysts:  3,
			MaxAnalystsLimit: 10,
			RunRetention:     "24h",
			SweepSchedule:    "@every 10m",
		},
		Export: ExportConfig{
			OutputDir: "./reports",
			PDF:       true,
			DOCX:      true,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ROUNDTABLE_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("ROUNDTABLE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("ROUNDTABLE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging
	if level := os.Getenv("ROUNDTABLE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("ROUNDTABLE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM
	if provider := os.Getenv("ROUNDTABLE_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if apiKey := os.Getenv("ROUNDTABLE_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("ROUNDTABLE_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("ROUNDTABLE_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // ROUNDTABLE_ prefix takes priority
	}
	if model := os.Getenv("ROUNDTABLE_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Search
	if provider := os.Getenv("ROUNDTABLE_SEARCH_PROVIDER"); provider != "" {
		config.Search.Provider = SearchProvider(provider)
	}
	if apiKey := os.Getenv("TAVILY_API_KEY"); apiKey != "" {
		config.Search.TavilyAPIKey = apiKey
	}
	if maxResults := os.Getenv("ROUNDTABLE_SEARCH_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Search.MaxResults = mr
		}
	}

	// Interview
	if maxTurns := os.Getenv("ROUNDTABLE_INTERVIEW_MAX_TURNS"); maxTurns != "" {
		if mt, err := strconv.Atoi(maxTurns); err == nil {
			config.Interview.MaxTurns = mt
		}
	}

	// Export
	if outputDir := os.Getenv("ROUNDTABLE_EXPORT_OUTPUT_DIR"); outputDir != "" {
		config.Export.OutputDir = outputDir
	}
	if pdfFont := os.Getenv("ROUNDTABLE_EXPORT_PDF_FONT"); pdfFont != "" {
		config.Export.PDFFont = pdfFont
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks values that would otherwise fail late inside a run
func (c *Config) Validate() error {
	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid llm.default_provider '%s': must be 'gemini' or 'claude'", c.LLM.DefaultProvider)
	}

	switch c.Search.Provider {
	case SearchProviderTavily, SearchProviderGemini, SearchProviderDisabled:
	default:
		return fmt.Errorf("invalid search.provider '%s': must be 'tavily', 'gemini' or 'disabled'", c.Search.Provider)
	}

	for name, value := range map[string]string{
		"gemini.timeout":          c.Gemini.Timeout,
		"claude.timeout":          c.Claude.Timeout,
		"search.timeout":          c.Search.Timeout,
		"interview.run_retention": c.Interview.RunRetention,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, value, err)
		}
	}

	if c.Interview.MaxAnalystsLimit < 1 {
		return fmt.Errorf("interview.max_analysts_limit must be at least 1, got %d", c.Interview.MaxAnalystsLimit)
	}
	if c.Interview.DefaultAnalysts < 1 || c.Interview.DefaultAnalysts > c.Interview.MaxAnalystsLimit {
		return fmt.Errorf("interview.default_analysts must be between 1 and %d, got %d", c.Interview.MaxAnalystsLimit, c.Interview.DefaultAnalysts)
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("export.output_dir is required")
	}
	for name, path := range map[string]string{
		"export.pdf_font":      c.Export.PDFFont,
		"export.pdf_font_bold": c.Export.PDFFontBold,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, path, err)
		}
	}

	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> config fallback -> error
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"ROUNDTABLE_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"ROUNDTABLE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
		"tavily_api_key":    {"TAVILY_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
