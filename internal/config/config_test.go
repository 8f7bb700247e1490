package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("auth:\n  jwt_secret: " + secret + "\n"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./sgc.db", cfg.Database.Path)
	assert.Equal(t, 3, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, time.Duration(0), cfg.Auth.TokenTTL)
	assert.Equal(t, 6, cfg.Auth.PasswordMinLength)
	assert.Equal(t, 30, cfg.Auth.LoginRateLimit.RequestsPerMinute)
	assert.Nil(t, cfg.Middleware.CORS)
	assert.False(t, cfg.Server.TLSEnabled())
}

func TestParseFullDocument(t *testing.T) {
	doc := `
server:
  host: 127.0.0.1
  port: 9000
  read_timeout: 5s
  allowed_ips: ["10.0.0.1"]
database:
  path: /var/lib/sgc/sgc.db
auth:
  jwt_secret: ` + secret + `
  token_ttl: 8h
  max_login_attempts: 5
  bcrypt_cost: 12
middleware:
  compression: true
  cors:
    allowed_origins: ["https://sgc.example.com"]
  rate_limit:
    requests_per_second: 50
    burst: 100
alerting:
  enabled: true
  smtp_host: smtp.example.com
  from_email: alerts@example.com
  to_emails: ["suporte@example.com"]
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Middleware.Compression)
	require.NotNil(t, cfg.Middleware.CORS)
	assert.Equal(t, []string{"https://sgc.example.com"}, cfg.Middleware.CORS.AllowedOrigins)
	assert.Equal(t, 587, cfg.Alerting.SMTPPort)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("auth:\n  jwt_secret: " + secret + "\n  jwt_secrett: x\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing secret", "server:\n  port: 8000\n"},
		{"short secret", "auth:\n  jwt_secret: short\n"},
		{"bad port", "server:\n  port: 70000\nauth:\n  jwt_secret: " + secret + "\n"},
		{"bad cost", "auth:\n  jwt_secret: " + secret + "\n  bcrypt_cost: 40\n"},
		{"negative ttl", "auth:\n  jwt_secret: " + secret + "\n  token_ttl: -1h\n"},
		{"tls without files", "server:\n  tls:\n    enabled: true\nauth:\n  jwt_secret: " + secret + "\n"},
		{"alerting without recipients", "alerting:\n  enabled: true\n  smtp_host: h\n  from_email: a@b.c\nauth:\n  jwt_secret: " + secret + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvJWTSecret, secret)
	t.Setenv(EnvDBPath, "/tmp/override.db")

	cfg, err := Parse([]byte("auth:\n  jwt_secret: ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sgc.config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: "+secret+"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
