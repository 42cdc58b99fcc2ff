package config

import (
	"os"
	"testing"
)

func clearConfigEnvVars() {
	for _, v := range []string{
		"ESENGINE_STORE_DIALECT",
		"ESENGINE_STORE_DSN",
		"ESENGINE_STORE_MASTER_KEY",
		"ESENGINE_LOG_LEVEL",
		"ESENGINE_MODULE_ROOT",
	} {
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	cfg := Load("", nil)

	if cfg.StoreDialect != "sqlite" {
		t.Errorf("StoreDialect = %q, want sqlite", cfg.StoreDialect)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.ModuleRoot != "." {
		t.Errorf("ModuleRoot = %q, want .", cfg.ModuleRoot)
	}
	if cfg.StoreDSN != "" {
		t.Errorf("StoreDSN = %q, want empty", cfg.StoreDSN)
	}
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("ESENGINE_STORE_DIALECT", "postgres")
	os.Setenv("ESENGINE_LOG_LEVEL", "debug")

	cfg := Load("", nil)

	if cfg.StoreDialect != "postgres" {
		t.Errorf("StoreDialect = %q, want postgres", cfg.StoreDialect)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("ESENGINE_LOG_LEVEL", "debug")

	cfg := Load("", map[string]string{"log-level": "error"})

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (flag should win)", cfg.LogLevel)
	}
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	cfg := Load("/nonexistent/path/to/.env", nil)

	if cfg.StoreDialect != "sqlite" {
		t.Errorf("expected defaults when dotenv is missing, got StoreDialect = %q", cfg.StoreDialect)
	}
}

func TestBool(t *testing.T) {
	cases := []struct {
		in  string
		def bool
		out bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"not-a-bool", true, true},
	}
	for _, c := range cases {
		if got := Bool(c.in, c.def); got != c.out {
			t.Errorf("Bool(%q, %v) = %v, want %v", c.in, c.def, got, c.out)
		}
	}
}
