// Package config loads runtime configuration for the parishkeeper client.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with -c or -config.
//  3. Environment: PARISH_* variables, read from the process and from an
//     optional dotenv file (-e/-env, default ".env"). Process variables win
//     over the file.
//  4. Command-line flags.
//
// Flags
//
//	-a string   backend base URL
//	-d string   local database path
//	-l string   log level (debug, info, warn, error)
//
// Secrets (anon key, S3 keys, Postgres DSN) have no flags; they come from
// JSON or the environment.
//
// # JSON schema
//
// Durations use timex.Duration, so "3s" and integer nanoseconds both work:
//
//	{
//	  "backend_url": "https://abc.supabase.co",
//	  "anon_key": "eyJ...",
//	  "chunk_size": 6291456,
//	  "retry_delays": ["0s", "3s", "5s", "10s", "20s"],
//	  "request_timeout": "30s"
//	}
package config
