// Package config loads the server configuration from flags, the environment
// and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/joinrollin/rollin-mcp/mcp"
	"github.com/joinrollin/rollin-mcp/rollin"
)

// EnvPrefix prefixes every environment variable, e.g. ROLLIN_API_KEY.
const EnvPrefix = "ROLLIN"

// Viper keys. Environment variables are EnvPrefix + "_" + upper-cased key.
const (
	KeyAPIKey    = "api_key"
	KeyAPIBase   = "api_base"
	KeyTransport = "transport"
	KeyPort      = "port"
	KeyLogLevel  = "log_level"
	KeyMCPToken  = "mcp_token"

	KeyMCPAuthHeader = "mcp_auth_header"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultPort     = "8080"
	DefaultLogLevel = "warn"
)

// ErrMissingAPIKey is returned by Load when ROLLIN_API_KEY is unset or empty.
var ErrMissingAPIKey = errors.New("ROLLIN_API_KEY environment variable is required")

// Config is the resolved, immutable server configuration.
type Config struct {
	APIKey    string
	APIBase   string
	Transport string
	Port      string
	LogLevel  string
	// MCPToken authenticates clients of the HTTP transport, presented in the
	// header named by MCPAuthHeader.
	MCPToken      string
	MCPAuthHeader string
}

// New returns a viper instance reading ROLLIN_* environment variables, with
// defaults for every optional setting.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIBase, rollin.DefaultBaseURL)
	v.SetDefault(KeyTransport, TransportStdio)
	v.SetDefault(KeyPort, DefaultPort)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyMCPAuthHeader, string(mcp.AuthHeaderBearer))
	return v
}

// Load reads envFile (when it exists) into the process environment and
// resolves the configuration from v. Variables already set in the environment
// win over the file. A missing or empty API key yields ErrMissingAPIKey.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v == nil {
		v = New()
	}

	cfg := &Config{
		APIKey:    v.GetString(KeyAPIKey),
		APIBase:   v.GetString(KeyAPIBase),
		Transport: strings.ToLower(v.GetString(KeyTransport)),
		Port:      v.GetString(KeyPort),
		LogLevel:  v.GetString(KeyLogLevel),
		MCPToken:  v.GetString(KeyMCPToken),

		MCPAuthHeader: strings.ToLower(v.GetString(KeyMCPAuthHeader)),
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate implements validation.Validatable.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.APIBase, validation.Required, is.URL),
		validation.Field(&c.Transport, validation.Required, validation.In(TransportStdio, TransportHTTP)),
		validation.Field(&c.Port, validation.When(c.Transport == TransportHTTP, validation.Required, is.Port)),
		validation.Field(&c.LogLevel, validation.By(checkLogLevel)),
		validation.Field(&c.MCPToken, validation.When(c.Transport == TransportHTTP,
			validation.Required.Error("is required for the http transport (set ROLLIN_MCP_TOKEN)"))),
		validation.Field(&c.MCPAuthHeader, validation.In(string(mcp.AuthHeaderBearer), string(mcp.AuthHeaderAPIKey))),
	)
}

// Level returns the configured slog level. Validate has already rejected
// unknown names, so the fallback is only reached for an unvalidated Config.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}

func checkLogLevel(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return errors.New("must be one of debug, info, warn, error")
	}
	return nil
}
