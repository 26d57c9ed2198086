package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/client/upload"
	"github.com/dmitrijs2005/parishkeeper/internal/common"
	"github.com/dmitrijs2005/parishkeeper/internal/timex"
)

// Relational and storage drivers.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverTUS      = "tus"
	DriverS3       = "s3"
)

// Config holds runtime settings for the client.
type Config struct {
	BackendURL  string
	AnonKey     string
	LocalDBPath string

	RelationalDriver string
	PostgresDSN      string

	StorageDriver   string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	ChunkSize      int64
	RetryDelays    []time.Duration
	RequestTimeout time.Duration
	ResumeMaxAge   time.Duration

	TokenRefreshInterval time.Duration
	TokenRefreshMargin   time.Duration

	LogFormat string
	LogLevel  string
}

func (c *Config) LoadDefaults() {
	c.BackendURL = "http://127.0.0.1:54321"
	c.LocalDBPath = defaultDBPath()
	c.RelationalDriver = DriverREST
	c.StorageDriver = DriverTUS
	c.S3Region = "us-east-1"
	c.ChunkSize = upload.DefaultChunkSize
	c.RetryDelays = timex.Millis(0, 3000, 5000, 10000, 20000)
	c.RequestTimeout = 30 * time.Second
	c.ResumeMaxAge = 24 * time.Hour
	c.TokenRefreshInterval = 30 * time.Second
	c.TokenRefreshMargin = time.Minute
	c.LogFormat = "text"
	c.LogLevel = "info"
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "parishkeeper.db"
	}
	return filepath.Join(home, ".parishkeeper", "client.db")
}

// Validate reports settings the client cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.BackendURL == "" {
		errs = append(errs, errors.New("backend url is empty"))
	}
	if c.AnonKey == "" {
		errs = append(errs, errors.New("anon key is empty (set PARISH_ANON_KEY)"))
	}
	switch c.RelationalDriver {
	case DriverREST:
	case DriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres driver needs PARISH_POSTGRES_DSN"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown relational driver %q", c.RelationalDriver))
	}
	switch c.StorageDriver {
	case DriverTUS, DriverS3:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return nil
}

// LoadConfig applies defaults, then JSON, environment and flags from os.Args.
// Malformed input panics, as a misconfigured client cannot do anything useful.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	args := os.Args[1:]
	parseJson(cfg, args)
	parseEnv(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
