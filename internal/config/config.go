package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ServerConfig is the configuration of the development API server
type ServerConfig struct {
	Server    HTTPConfig
	Auth      AuthConfig
	Cookie    CookieConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
}

type HTTPConfig struct {
	Port           string `validate:"required,numeric"`
	Env            string `validate:"oneof=development test staging production"`
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string `validate:"dive,cidr"`
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration `validate:"gt=0"`
	RefreshTokenExpiry time.Duration `validate:"gtfield=AccessTokenExpiry"`
	CleanupInterval    time.Duration `validate:"gt=0"`

	// Failed logins are padded to roughly the same duration
	TimingDelayBaseMs   int `validate:"min=0"`
	TimingDelayRandomMs int `validate:"min=0"`
}

type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite string `validate:"oneof=strict lax none"`
}

// AdminConfig seeds the single admin account. Both fields empty means no seeding.
type AdminConfig struct {
	Email    string `validate:"omitempty,email"`
	Password string
	Name     string
}

type RateLimitConfig struct {
	LoginRatePerMinute        int           `validate:"min=1"`
	MaxFailedAttemptsPerEmail int           `validate:"min=1"`
	EmailLockoutDuration      time.Duration `validate:"gt=0"`
	MaxAttemptsPerIP          int           `validate:"min=0"`
	LookbackWindow            time.Duration `validate:"gtefield=EmailLockoutDuration"`
}

// ClientConfig is the configuration of the mssadmin CLI
type ClientConfig struct {
	APIBaseURL    string `validate:"required,url"`
	StateDir      string `validate:"required"`
	Locale        string `validate:"oneof=en th"`
	LogLevel      string
	SharedRefresh bool
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadServer reads the server configuration from the environment and an
// optional .env file
func LoadServer() (*ServerConfig, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &ServerConfig{
		Server: HTTPConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			CleanupInterval:    getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", time.Hour),

			TimingDelayBaseMs:   getEnvAsInt("LOGIN_DELAY_BASE_MS", 250),
			TimingDelayRandomMs: getEnvAsInt("LOGIN_DELAY_RANDOM_MS", 100),
		},
		Cookie: CookieConfig{
			Domain:   getEnv("COOKIE_DOMAIN", ""),
			Secure:   getEnvAsBool("COOKIE_SECURE", env == "production"),
			SameSite: strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),
		},
		Admin: AdminConfig{
			Email:    strings.ToLower(strings.TrimSpace(getEnv("ADMIN_EMAIL", ""))),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
		RateLimit: RateLimitConfig{
			LoginRatePerMinute:        getEnvAsInt("LOGIN_RATE_PER_MINUTE", 10),
			MaxFailedAttemptsPerEmail: getEnvAsInt("MAX_FAILED_ATTEMPTS_PER_EMAIL", 5),
			EmailLockoutDuration:      getEnvAsDuration("EMAIL_LOCKOUT_DURATION", time.Minute),
			MaxAttemptsPerIP:          getEnvAsInt("MAX_FAILED_ATTEMPTS_PER_IP", 50),
			LookbackWindow:            getEnvAsDuration("LOGIN_LOOKBACK_WINDOW", 15*time.Minute),
		},
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}
	if (cfg.Admin.Email == "") != (cfg.Admin.Password == "") {
		return nil, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if cfg.Cookie.SameSite == "none" && !cfg.Cookie.Secure {
		return nil, fmt.Errorf("COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	return cfg, nil
}

// LoadClient reads the CLI configuration from the environment and an
// optional .env file
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	stateDir := getEnv("STATE_DIR", "")
	if stateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return nil, err
		}
		stateDir = dir
	}

	cfg := &ClientConfig{
		APIBaseURL:    strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
		StateDir:      stateDir,
		Locale:        strings.ToLower(getEnv("LOCALE", "en")),
		LogLevel:      getEnv("LOG_LEVEL", "warn"),
		SharedRefresh: getEnvAsBool("SHARED_REFRESH", false),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	return cfg, nil
}

// ParseLogLevel maps LOG_LEVEL values to slog levels, defaulting to info
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits for HS256
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.Repeat(weak, len(secretLower)/len(weak)) == secretLower {
			return errors.New("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func defaultStateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("STATE_DIR is not set and no user config directory is available: %w", err)
	}
	return filepath.Join(dir, "mssadmin"), nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if origins := splitList(getEnv("ALLOWED_ORIGINS", "")); len(origins) > 0 || env == "production" {
		return origins
	}

	// Development: the dashboard's local dev servers
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
