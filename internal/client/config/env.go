package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/parishkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

const defaultEnvFile = ".env"

// lookupEnv reads the dotenv file without touching the process environment
// and lets real variables override it.
func lookupEnv(path string) (func(string) (string, bool), error) {
	file, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		file = map[string]string{}
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

func parseEnv(cfg *Config, args []string) {
	path := flagx.EnvFilePath(args)
	if path == "" {
		path = defaultEnvFile
	}
	lookup, err := lookupEnv(path)
	if err != nil {
		panic(err)
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = d
		}
	}

	str("PARISH_URL", &cfg.BackendURL)
	str("PARISH_ANON_KEY", &cfg.AnonKey)
	str("PARISH_DB", &cfg.LocalDBPath)
	str("PARISH_RELATIONAL_DRIVER", &cfg.RelationalDriver)
	str("PARISH_POSTGRES_DSN", &cfg.PostgresDSN)
	str("PARISH_STORAGE_DRIVER", &cfg.StorageDriver)
	str("PARISH_S3_REGION", &cfg.S3Region)
	str("PARISH_S3_ENDPOINT", &cfg.S3Endpoint)
	str("PARISH_S3_ACCESS_KEY", &cfg.S3AccessKey)
	str("PARISH_S3_SECRET_KEY", &cfg.S3SecretKey)
	str("PARISH_S3_PUBLIC_URL", &cfg.S3PublicBaseURL)
	str("PARISH_LOG_FORMAT", &cfg.LogFormat)
	str("PARISH_LOG_LEVEL", &cfg.LogLevel)
	dur("PARISH_REQUEST_TIMEOUT", &cfg.RequestTimeout)
	dur("PARISH_RESUME_MAX_AGE", &cfg.ResumeMaxAge)

	if v, ok := lookup("PARISH_CHUNK_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("PARISH_CHUNK_SIZE: %w", err))
		}
		cfg.ChunkSize = n
	}

	// Comma separated milliseconds, e.g. "0,3000,5000".
	if v, ok := lookup("PARISH_RETRY_DELAYS_MS"); ok {
		delays := []time.Duration{}
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ms, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				panic(fmt.Errorf("PARISH_RETRY_DELAYS_MS: %w", err))
			}
			delays = append(delays, time.Duration(ms)*time.Millisecond)
		}
		cfg.RetryDelays = delays
	}
}
