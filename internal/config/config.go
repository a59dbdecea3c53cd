package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIURL      = "http://localhost:8080"
	defaultEndpoint    = "/query"
	defaultHTTPTimeout = 2 * time.Minute
	defaultSheetsTab   = "Jobs"
)

// Config contains runtime settings for the mixer client
type Config struct {
	LogLevel  string
	LogFormat string // json or console

	APIURL          string        // base URL used to resolve a relative GraphQL endpoint
	GraphQLEndpoint string        // default /query
	HTTPTimeout     time.Duration // 0 disables the client-side timeout

	Host string // MCP listener, default 0.0.0.0
	Port string // default PORT env or 8080

	Sheets struct {
		CredentialsPath string
		CredentialsJSON string // inline service account key, used when no path is set
		SpreadsheetID   string
		Tab             string
	}
}

// Load populates config from environment variables
func Load() (Config, error) {
	cfg := Config{
		LogLevel:        "warn",
		LogFormat:       "json",
		APIURL:          defaultAPIURL,
		GraphQLEndpoint: defaultEndpoint,
		HTTPTimeout:     defaultHTTPTimeout,
		Host:            "0.0.0.0",
		Port:            "8080",
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if v := os.Getenv("MIXER_API_URL"); v != "" {
		cfg.APIURL = strings.TrimSuffix(v, "/")
	}

	if v := os.Getenv("GRAPHQL_ENDPOINT"); v != "" {
		cfg.GraphQLEndpoint = v
	}

	if v := os.Getenv("MCP_HOST"); v != "" {
		cfg.Host = v
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}

	cfg.Sheets.CredentialsPath = os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH")
	cfg.Sheets.CredentialsJSON = os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON")
	cfg.Sheets.SpreadsheetID = os.Getenv("GOOGLE_SHEETS_ID")
	if v := os.Getenv("GOOGLE_SHEETS_TAB"); v != "" {
		cfg.Sheets.Tab = v
	} else {
		cfg.Sheets.Tab = defaultSheetsTab
	}

	var problems []string

	if v := os.Getenv("MIXER_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			problems = append(problems, fmt.Sprintf("MIXER_HTTP_TIMEOUT: invalid duration %q", v))
		} else {
			cfg.HTTPTimeout = d
		}
	}

	if _, err := cfg.Endpoint(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return cfg, nil
}

// Endpoint returns the absolute GraphQL endpoint, resolving a relative
// GraphQLEndpoint against APIURL
func (c Config) Endpoint() (string, error) {
	ep, err := url.Parse(c.GraphQLEndpoint)
	if err != nil {
		return "", fmt.Errorf("GRAPHQL_ENDPOINT: %w", err)
	}
	if ep.IsAbs() {
		return ep.String(), nil
	}

	base, err := url.Parse(c.APIURL)
	if err != nil || !base.IsAbs() {
		return "", fmt.Errorf("MIXER_API_URL: %q is not an absolute URL", c.APIURL)
	}

	return base.ResolveReference(ep).String(), nil
}

// SheetsConfigured reports whether Google Sheets export can run
func (c Config) SheetsConfigured() bool {
	return c.Sheets.CredentialsPath != "" || c.Sheets.CredentialsJSON != ""
}
