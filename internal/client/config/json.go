package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/parishkeeper/internal/flagx"
	"github.com/dmitrijs2005/parishkeeper/internal/timex"
)

// JsonConfig mirrors Config for unmarshalling. Absent fields leave the
// current value alone.
type JsonConfig struct {
	BackendURL           string           `json:"backend_url"`
	AnonKey              string           `json:"anon_key"`
	LocalDBPath          string           `json:"local_db_path"`
	RelationalDriver     string           `json:"relational_driver"`
	PostgresDSN          string           `json:"postgres_dsn"`
	StorageDriver        string           `json:"storage_driver"`
	S3Region             string           `json:"s3_region"`
	S3Endpoint           string           `json:"s3_endpoint"`
	S3AccessKey          string           `json:"s3_access_key"`
	S3SecretKey          string           `json:"s3_secret_key"`
	S3PublicBaseURL      string           `json:"s3_public_base_url"`
	ChunkSize            int64            `json:"chunk_size"`
	RetryDelays          []timex.Duration `json:"retry_delays"`
	RequestTimeout       timex.Duration   `json:"request_timeout"`
	ResumeMaxAge         timex.Duration   `json:"resume_max_age"`
	TokenRefreshInterval timex.Duration   `json:"token_refresh_interval"`
	TokenRefreshMargin   timex.Duration   `json:"token_refresh_margin"`
	LogFormat            string           `json:"log_format"`
	LogLevel             string           `json:"log_level"`
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.BackendURL, jc.BackendURL)
	setString(&cfg.AnonKey, jc.AnonKey)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.RelationalDriver, jc.RelationalDriver)
	setString(&cfg.PostgresDSN, jc.PostgresDSN)
	setString(&cfg.StorageDriver, jc.StorageDriver)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)

	if jc.ChunkSize > 0 {
		cfg.ChunkSize = jc.ChunkSize
	}
	if jc.RetryDelays != nil {
		cfg.RetryDelays = timex.Durations(jc.RetryDelays)
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.ResumeMaxAge.Duration > 0 {
		cfg.ResumeMaxAge = jc.ResumeMaxAge.Duration
	}
	if jc.TokenRefreshInterval.Duration > 0 {
		cfg.TokenRefreshInterval = jc.TokenRefreshInterval.Duration
	}
	if jc.TokenRefreshMargin.Duration > 0 {
		cfg.TokenRefreshMargin = jc.TokenRefreshMargin.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
