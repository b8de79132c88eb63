// Configuration management for the application.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults match the documented deployment. The placeholders keep the program
// runnable enough to surface a useful API error instead of a nil-config crash.
const (
	defaultSpreadsheetID   = "YOUR_SPREADSHEET_ID_HERE"
	defaultSheetRange      = "Sheet1!A1:Z1000"
	defaultGeminiAPIKey    = "YOUR_GEMINI_API_KEY"
	defaultModel           = "gemini-2.5-flash-lite"
	defaultProvider        = "gemini"
	defaultPersona         = "Majel"
	defaultOperator        = "Admiral Guff"
	defaultCredentialsFile = "credentials.json"
	defaultTokenFile       = "token.json"
	defaultConfigFile      = "majel.yaml"
)

// Config holds all application configuration from environment variables,
// command-line flags, and the optional YAML config file.
type Config struct {
	// Command-line flags
	ConfigFile      string
	CredentialsFile string
	TokenFile       string
	Verbose         bool

	// Environment variables / config file
	SpreadsheetID string
	SheetRange    string
	Provider      string
	Model         string
	Persona       string
	Operator      string

	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// fileConfig mirrors the optional majel.yaml. Only set fields override the
// environment-derived values.
type fileConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet-id"`
	SheetRange      string `yaml:"sheet-range"`
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	Persona         string `yaml:"persona"`
	Operator        string `yaml:"operator"`
	CredentialsFile string `yaml:"credentials-file"`
	TokenFile       string `yaml:"token-file"`
}

// ParseConfig parses command-line flags, environment variables, and the
// optional config file to create a Config. It registers flags on the default
// FlagSet, so it must be called once, from main.
func ParseConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := configFromEnv()

	var (
		configFile  = flag.String("config", defaultConfigFile, "Optional YAML config file")
		credentials = flag.String("credentials", defaultCredentialsFile, "OAuth client secrets file")
		token       = flag.String("token", defaultTokenFile, "Cached OAuth token file")
		model       = flag.String("model", "", "Model name (overrides config file and default)")
		provider    = flag.String("provider", "", "Chat provider: gemini or openai")
		verbose     = flag.Bool("verbose", false, "Verbose diagnostic logging")
	)
	flag.Parse()

	config.ConfigFile = *configFile
	config.CredentialsFile = *credentials
	config.TokenFile = *token
	config.Verbose = *verbose

	if err := applyFileConfig(config, config.ConfigFile); err != nil {
		return nil, err
	}

	// Flags win over the config file.
	if strings.TrimSpace(*model) != "" {
		config.Model = strings.TrimSpace(*model)
	}
	if strings.TrimSpace(*provider) != "" {
		config.Provider = strings.ToLower(strings.TrimSpace(*provider))
	}

	switch config.Provider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("unknown provider %q (expected gemini or openai)", config.Provider)
	}

	return config, nil
}

// configFromEnv builds a Config from environment variables and defaults.
func configFromEnv() *Config {
	return &Config{
		SpreadsheetID: envOrDefault("MAJEL_SPREADSHEET_ID", defaultSpreadsheetID),
		SheetRange:    envOrDefault("MAJEL_SHEET_RANGE", defaultSheetRange),
		Provider:      defaultProvider,
		Model:         defaultModel,
		Persona:       defaultPersona,
		Operator:      defaultOperator,
		GeminiAPIKey:  envOrDefault("GEMINI_API_KEY", defaultGeminiAPIKey),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
	}
}

// applyFileConfig overlays the YAML config file onto config. A missing file is
// not an error; a malformed one is.
func applyFileConfig(config *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overlay(&config.SpreadsheetID, fc.SpreadsheetID)
	overlay(&config.SheetRange, fc.SheetRange)
	overlay(&config.Model, fc.Model)
	overlay(&config.Persona, fc.Persona)
	overlay(&config.Operator, fc.Operator)
	overlay(&config.CredentialsFile, fc.CredentialsFile)
	overlay(&config.TokenFile, fc.TokenFile)
	if strings.TrimSpace(fc.Provider) != "" {
		config.Provider = strings.ToLower(strings.TrimSpace(fc.Provider))
	}
	return nil
}

// overlay replaces *dst when value is non-empty.
func overlay(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

// envOrDefault reads an environment variable with a fallback.
func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
