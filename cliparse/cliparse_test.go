// cliparse/cliparse_test.go
package cliparse

import (
	"os"
	"testing"
	"time"
)

func TestParseFlags_EnvVars(t *testing.T) {
	os.Setenv("PORT", "9000")
	os.Setenv("DATABASE_URL", "postgres://test")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("TOKEN_TTL", "2h")
	os.Setenv("NATS_URL", "nats://localhost:4222")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected default database type postgres, got %s", cfg.DatabaseType)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("expected token TTL 2h, got %s", cfg.TokenTTL)
	}
	if cfg.SchedulerInterval != 10*time.Second {
		t.Errorf("expected scheduler interval 10s, got %s", cfg.SchedulerInterval)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("expected default bcrypt cost 12, got %d", cfg.BcryptCost)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected shutdown timeout 30s, got %s", cfg.ShutdownTimeout)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("expected NATS URL from env, got %q", cfg.NATSURL)
	}
	if cfg.EventSubject != "elections" {
		t.Errorf("expected default subject prefix, got %q", cfg.EventSubject)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	os.Setenv("PORT", "9000")
	defer os.Clearenv()

	cfg, err := ParseFlags([]string{"-p", "8080", "-d", "file:test.db", "-t", "sqlite", "-jwt-secret", "s1"})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.DatabaseType)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"missing database", map[string]string{"JWT_SECRET": "s"}},
		{"missing secret", map[string]string{"DATABASE_URL": "postgres://test"}},
		{"bad database type", map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "DATABASE_TYPE": "mysql"}},
		{"bad duration", map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "SCHEDULER_INTERVAL": "soon"}},
		{"bad cost", map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "BCRYPT_COST": "high"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			defer os.Clearenv()
			for k, v := range tc.env {
				os.Setenv(k, v)
			}
			if _, err := ParseFlags([]string{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
