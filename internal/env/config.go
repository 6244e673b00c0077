package env

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/luma/webservices/server"
)

var (
	ErrInvalidExceptionMode = server.ErrInvalidExceptionMode
	ErrInvalidBodyLimit     = errors.New("Body size limits must be positive")
)

type Config struct {
	DebugHTTP        bool   `env:"WEBSERVICES_DEBUG_HTTP"`
	ExceptionMode    int    `env:"WEBSERVICES_EXCEPTION_MODE,default=0"`
	MaxBodyBytes     int64  `env:"WEBSERVICES_MAX_BODY_BYTES,default=4194304"`
	MaxInflatedBytes int64  `env:"WEBSERVICES_MAX_INFLATED_BYTES,default=16777216"`
	Charset          string `env:"WEBSERVICES_CHARSET,default=UTF-8"`
	LogLevel         string `env:"WEBSERVICES_LOG_LEVEL,default=info"`
	TelemetryStdout  bool   `env:"WEBSERVICES_TELEMETRY_STDOUT"`
}

// Exceptions returns the configured exception mode.
func (c *Config) Exceptions() server.ExceptionMode {
	return server.ExceptionMode(c.ExceptionMode)
}

func (c *Config) Validate() error {
	if !c.Exceptions().Valid() {
		return fmt.Errorf("%d: %w", c.ExceptionMode, ErrInvalidExceptionMode)
	}

	if c.MaxBodyBytes <= 0 || c.MaxInflatedBytes <= 0 {
		return ErrInvalidBodyLimit
	}

	return nil
}

// LoadConfig reads the configuration from the environment, after loading
// .env.local when it exists.
func LoadConfig(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("Failed to load .env.local: %w", err)
	}

	return LoadConfigWith(ctx, envconfig.OsLookuper())
}

// LoadConfigWith reads the configuration through lookuper.
func LoadConfigWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	config := Config{}

	if err := envconfig.ProcessWith(ctx, &config, lookuper); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
