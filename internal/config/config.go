package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Environment variables that override the file. Secrets should come from here
// rather than from the YAML.
const (
	EnvJWTSecret = "SGC_JWT_SECRET"
	EnvDBPath    = "SGC_DB_PATH"
)

const minSecretLength = 32

// Config is the root of sgc.config.yaml.
type Config struct {
	Server     Server     `yaml:"server"`     // HTTP listener settings.
	Database   Database   `yaml:"database"`   // SQLite database settings.
	Auth       Auth       `yaml:"auth"`       // Token, lockout and password settings.
	Middleware Middleware `yaml:"middleware"` // Global middleware configuration.
	Alerting   Alerting   `yaml:"alerting"`   // SMTP settings for lockout alerts.
	LogConfig  string     `yaml:"log_config"` // Path of the JSON logger configuration.
}

type Server struct {
	Host         string        `yaml:"host"`          // Interface to bind. Empty binds all.
	Port         int           `yaml:"port"`          // Listening port.
	TLS          *TLS          `yaml:"tls"`           // Optional TLS settings.
	Insecure     bool          `yaml:"insecure"`      // Serve plain HTTP even when TLS is configured.
	AllowedIPs   []string      `yaml:"allowed_ips"`   // Client IPs allowed to reach the API. Empty allows all.
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // e.g., "15s"
	WriteTimeout time.Duration `yaml:"write_timeout"` // e.g., "15s"
	IdleTimeout  time.Duration `yaml:"idle_timeout"`  // e.g., "60s"

	// TrustProxyHeaders takes the client IP from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that overwrites them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

// TLS holds the certificate pair used when serving HTTPS.
type TLS struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Auth struct {
	JWTSecret            string         `yaml:"jwt_secret"`             // HMAC key for tokens. Prefer SGC_JWT_SECRET.
	TokenTTL             time.Duration  `yaml:"token_ttl"`              // Zero issues tokens that never expire.
	MaxLoginAttempts     int            `yaml:"max_login_attempts"`     // Consecutive failures before the account is locked.
	TokenCleanupInterval time.Duration  `yaml:"token_cleanup_interval"` // How often revoked and expired tokens are purged.
	TokenRetention       time.Duration  `yaml:"token_retention"`        // How long a dead token is kept before purge.
	BcryptCost           int            `yaml:"bcrypt_cost"`            // Zero uses bcrypt.DefaultCost.
	PasswordMinLength    int            `yaml:"password_min_length"`    // Minimum length of new passwords.
	LoginRateLimit       LoginRateLimit `yaml:"login_rate_limit"`       // Per-IP limit on POST /auth/login.
}

// LoginRateLimit bounds login attempts per client IP.
type LoginRateLimit struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

// Middleware defines the configuration for the global middleware components.
// Nil sections are not installed.
type Middleware struct {
	RateLimit   *RateLimit `yaml:"rate_limit"`  // Global rate limiting configuration.
	Security    *Security  `yaml:"security"`    // Security headers configuration.
	CORS        *CORS      `yaml:"cors"`        // CORS (Cross-Origin Resource Sharing) configuration.
	Compression bool       `yaml:"compression"` // Enables gzip compression if true.
}

// RateLimit defines the configuration for the global rate limiter.
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // Number of allowed requests per second.
	Burst             int     `yaml:"burst"`               // Maximum number of burst requests allowed.
}

// Security holds configuration settings for security-related HTTP headers.
type Security struct {
	HSTS                  bool   `yaml:"hsts"`                    // Enables HTTP Strict Transport Security (HSTS).
	HSTSMaxAge            int    `yaml:"hsts_max_age"`            // Duration (in seconds) for the HSTS policy.
	HSTSIncludeSubDomains bool   `yaml:"hsts_include_subdomains"` // Applies HSTS policy to all subdomains if true.
	HSTSPreload           bool   `yaml:"hsts_preload"`            // Includes the site in browsers' HSTS preload lists if true.
	FrameOptions          string `yaml:"frame_options"`           // Value for the X-Frame-Options header.
	ContentTypeOptions    bool   `yaml:"content_type_options"`    // Enables the X-Content-Type-Options header.
	XSSProtection         bool   `yaml:"xss_protection"`          // Enables the X-XSS-Protection header.
}

// CORS defines the configuration for Cross-Origin Resource Sharing.
type CORS struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`   // Origins allowed to access the API.
	AllowedMethods   []string `yaml:"allowed_methods"`   // HTTP methods allowed for CORS requests.
	AllowedHeaders   []string `yaml:"allowed_headers"`   // HTTP headers allowed in CORS requests.
	ExposedHeaders   []string `yaml:"exposed_headers"`   // HTTP headers exposed to the browser.
	AllowCredentials bool     `yaml:"allow_credentials"` // Indicates whether credentials are allowed.
	MaxAge           int      `yaml:"max_age"`           // Preflight cache duration in seconds.
}

// Alerting holds SMTP settings for lockout alerts.
type Alerting struct {
	Enabled   bool     `yaml:"enabled"`
	SMTPHost  string   `yaml:"smtp_host"`
	SMTPPort  int      `yaml:"smtp_port"`
	FromEmail string   `yaml:"from_email"`
	FromPass  string   `yaml:"from_password"`
	ToEmails  []string `yaml:"to_emails"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.applyEnv()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
}

// SetDefaults fills every unset value with its default.
func (cfg *Config) SetDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "./sgc.db"
	}

	if cfg.Auth.MaxLoginAttempts == 0 {
		cfg.Auth.MaxLoginAttempts = 3
	}
	if cfg.Auth.TokenCleanupInterval == 0 {
		cfg.Auth.TokenCleanupInterval = time.Hour
	}
	if cfg.Auth.TokenRetention == 0 {
		cfg.Auth.TokenRetention = 24 * time.Hour
	}
	if cfg.Auth.PasswordMinLength == 0 {
		cfg.Auth.PasswordMinLength = 6
	}
	if cfg.Auth.LoginRateLimit.RequestsPerMinute == 0 {
		cfg.Auth.LoginRateLimit.RequestsPerMinute = 30
	}
	if cfg.Auth.LoginRateLimit.Burst == 0 {
		cfg.Auth.LoginRateLimit.Burst = 10
	}

	if cfg.Alerting.SMTPPort == 0 {
		cfg.Alerting.SMTPPort = 587
	}
}

// Validate reports the first invalid setting.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required (or set %s)", EnvJWTSecret)
	}
	if len(cfg.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d characters", minSecretLength)
	}
	if cfg.Auth.TokenTTL < 0 {
		return errors.New("auth.token_ttl cannot be negative")
	}
	if cfg.Auth.MaxLoginAttempts < 1 {
		return errors.New("auth.max_login_attempts must be positive")
	}
	if cfg.Auth.BcryptCost != 0 && (cfg.Auth.BcryptCost < 4 || cfg.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31, got %d", cfg.Auth.BcryptCost)
	}
	if cfg.Auth.PasswordMinLength < 1 {
		return errors.New("auth.password_min_length must be positive")
	}
	if cfg.Auth.LoginRateLimit.RequestsPerMinute < 0 || cfg.Auth.LoginRateLimit.Burst < 0 {
		return errors.New("auth.login_rate_limit values cannot be negative")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if tls := cfg.Server.TLS; tls != nil && tls.Enabled && !cfg.Server.Insecure {
		if tls.CertFile == "" || tls.KeyFile == "" {
			return errors.New("server.tls requires cert_file and key_file")
		}
	}

	if rl := cfg.Middleware.RateLimit; rl != nil && (rl.RequestsPerSecond < 0 || rl.Burst < 0) {
		return errors.New("middleware.rate_limit values cannot be negative")
	}

	if cfg.Alerting.Enabled {
		if cfg.Alerting.SMTPHost == "" || cfg.Alerting.FromEmail == "" {
			return errors.New("alerting requires smtp_host and from_email")
		}
		if len(cfg.Alerting.ToEmails) == 0 {
			return errors.New("alerting requires at least one recipient in to_emails")
		}
	}

	return nil
}

// TLSEnabled reports whether the server should serve HTTPS.
func (s Server) TLSEnabled() bool {
	return s.TLS != nil && s.TLS.Enabled && !s.Insecure
}

// Addr is the listen address in host:port form.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
