package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// App
	Env      string // dev / staging / prod
	HTTPAddr string

	// Token secrets. Access and ID tokens may share a key (single-key
	// compatibility); refresh tokens must never share either.
	AccessTokenSecret  string
	RefreshTokenSecret string
	IDTokenSecret      string

	// Token / code lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AuthCodeTTL     time.Duration

	// JWT identity
	JWTIssuer   string
	JWTAudience string

	// Cookies
	CookieDomain string // parent suffix for the SSO cookie; empty = host-only

	// Policy
	EmailVerificationRequired bool
	PasswordHashCost          int
	MinPasswordLength         int

	// Where /oauth/authorize sends browsers that have no session
	LoginURL string

	// CORS; empty list allows any origin (dev)
	CORSAllowedOrigins []string

	// Infrastructure
	DBAddr        string
	RedisAddr     string // optional; rate limiting disabled when empty
	RedisPassword string
	RedisDB       int
	RabbitURL     string // optional in dev; events dropped when absent

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func (c *Config) Production() bool { return c.Env == "prod" }

func Load() (*Config, error) {
	// Best-effort; env vars win over the .env file.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
	}

	// required values
	cfg.AccessTokenSecret = os.Getenv("ACCESS_TOKEN_SECRET")
	if cfg.AccessTokenSecret == "" {
		return nil, fmt.Errorf("missing required env var: ACCESS_TOKEN_SECRET")
	}
	cfg.RefreshTokenSecret = os.Getenv("REFRESH_TOKEN_SECRET")
	if cfg.RefreshTokenSecret == "" {
		return nil, fmt.Errorf("missing required env var: REFRESH_TOKEN_SECRET")
	}
	if cfg.RefreshTokenSecret == cfg.AccessTokenSecret {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET must differ from ACCESS_TOKEN_SECRET")
	}

	// ID tokens fall back to the access secret when no dedicated key is set.
	cfg.IDTokenSecret = getEnv("ID_TOKEN_SECRET", cfg.AccessTokenSecret)

	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}

	// optional with defaults
	var err error
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthCodeTTL, err = getDuration("AUTH_CODE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AuthCodeTTL > 10*time.Minute {
		return nil, fmt.Errorf("AUTH_CODE_TTL must not exceed 10m")
	}

	cfg.JWTIssuer = getEnv("JWT_ISSUER", "identra")
	cfg.JWTAudience = getEnv("JWT_AUDIENCE", "identra")
	cfg.CookieDomain = os.Getenv("COOKIE_DOMAIN")
	cfg.LoginURL = getEnv("LOGIN_URL", "/login")

	cfg.EmailVerificationRequired = getBool("EMAIL_VERIFICATION_REQUIRED", false)
	if cfg.PasswordHashCost, err = getInt("PASSWORD_HASH_COST", 12); err != nil {
		return nil, err
	}
	if cfg.MinPasswordLength, err = getInt("MIN_PASSWORD_LENGTH", 8); err != nil {
		return nil, err
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cfg.RabbitURL = os.Getenv("RABBIT_URL")

	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
