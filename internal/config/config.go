// Package config resolves cmd/esengine's runtime configuration through
// the same layering the teacher used for its own settings (MORFX_*
// env vars in the original internal/config/config.go): built-in
// defaults, overridden by a .env file via github.com/joho/godotenv,
// overridden by environment variables, overridden last by explicit
// cobra flags, since a flag the user actually typed should always win.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the esengine host's resolved configuration.
type Config struct {
	// StoreDialect/StoreDSN/StoreMasterKey configure the optional
	// internal/store CodeBlock cache (spec §6.3's --cache flag).
	StoreDialect   string
	StoreDSN       string
	StoreMasterKey string

	// LogLevel is the internal/xlog level name ("debug", "info",
	// "warn", "error"), defaulting to "info".
	LogLevel string

	// ModuleRoot is the base directory internal/loader.FSLoader resolves
	// bare/relative specifiers against.
	ModuleRoot string
}

// defaults mirrors the teacher's own hard-coded fallback constants in
// LoadConfig, just renamed to esengine's domain.
func defaults() Config {
	return Config{
		StoreDialect: "sqlite",
		StoreDSN:     "",
		LogLevel:     "info",
		ModuleRoot:   ".",
	}
}

// Load resolves a Config from, in increasing precedence: built-in
// defaults, a .env file at dotenvPath (skipped silently if absent —
// a host embedding esengine need not ship one), process environment
// variables (ESENGINE_*), then flagOverrides, which is typically
// populated from cobra flags the user explicitly passed on this
// invocation (see cmd/esengine). Passing a nil flagOverrides is valid;
// it means "no flags were set this run."
func Load(dotenvPath string, flagOverrides map[string]string) *Config {
	cfg := defaults()

	if dotenvPath != "" {
		if env, err := godotenv.Read(dotenvPath); err == nil {
			applyEnvMap(&cfg, env)
		}
	}

	applyEnvMap(&cfg, environMap())

	for k, v := range flagOverrides {
		applyOne(&cfg, k, v)
	}

	return &cfg
}

func environMap() map[string]string {
	m := map[string]string{}
	for _, key := range []string{
		"ESENGINE_STORE_DIALECT",
		"ESENGINE_STORE_DSN",
		"ESENGINE_STORE_MASTER_KEY",
		"ESENGINE_LOG_LEVEL",
		"ESENGINE_MODULE_ROOT",
	} {
		if v, ok := os.LookupEnv(key); ok {
			m[key] = v
		}
	}
	return m
}

func applyEnvMap(cfg *Config, env map[string]string) {
	for k, v := range env {
		applyOne(cfg, k, v)
	}
}

// applyOne accepts both ESENGINE_-prefixed env-style keys and the bare
// flag names cmd/esengine registers (e.g. "log-level"), so the same
// function serves both the env layer and the flag-override layer.
func applyOne(cfg *Config, key, value string) {
	if value == "" {
		return
	}
	switch key {
	case "ESENGINE_STORE_DIALECT", "store-dialect":
		cfg.StoreDialect = value
	case "ESENGINE_STORE_DSN", "store-dsn":
		cfg.StoreDSN = value
	case "ESENGINE_STORE_MASTER_KEY", "store-master-key":
		cfg.StoreMasterKey = value
	case "ESENGINE_LOG_LEVEL", "log-level":
		cfg.LogLevel = value
	case "ESENGINE_MODULE_ROOT", "module-root":
		cfg.ModuleRoot = value
	}
}

// Bool parses s the permissive way shell environments expect
// ("1"/"true"/"yes" are all true); unrecognized or empty values fall
// back to def rather than erroring, since a malformed env var
// shouldn't crash a CLI invocation.
func Bool(s string, def bool) bool {
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
