package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret           string   `mapstructure:"JWT_SECRET"`
	TokenTTLHours       int      `mapstructure:"TOKEN_TTL_HOURS"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS        float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int      `mapstructure:"RATE_LIMIT_BURST"`
	DefaultOrgCode      string   `mapstructure:"DEFAULT_ORG_CODE"`
	DefaultOrgName      string   `mapstructure:"DEFAULT_ORG_NAME"`
	DefaultProjectCode  string   `mapstructure:"DEFAULT_PROJECT_CODE"`
	DefaultProjectName  string   `mapstructure:"DEFAULT_PROJECT_NAME"`
	PhotoStore          string   `mapstructure:"PHOTO_STORE"`
	PhotoBucket         string   `mapstructure:"PHOTO_BUCKET"`
	PhotoReaperGraceMin int      `mapstructure:"PHOTO_REAPER_GRACE_MINUTES"`
	GeocoderURL         string   `mapstructure:"GEOCODER_URL"`
	GeocoderTimeoutSec  int      `mapstructure:"GEOCODER_TIMEOUT_SECONDS"`
	MigrationsDir       string   `mapstructure:"MIGRATIONS_DIR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("TOKEN_TTL_HOURS", 168)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("DEFAULT_ORG_CODE", "JS")
	v.SetDefault("DEFAULT_ORG_NAME", "Janice Smith Animal Welfare Trust")
	v.SetDefault("DEFAULT_PROJECT_CODE", "TAL")
	v.SetDefault("DEFAULT_PROJECT_NAME", "Taluka ABC Program")
	v.SetDefault("PHOTO_STORE", "memory")
	v.SetDefault("PHOTO_REAPER_GRACE_MINUTES", 60)
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("GEOCODER_TIMEOUT_SECONDS", 10)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("TOKEN_TTL_HOURS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("DEFAULT_ORG_CODE")
	v.BindEnv("DEFAULT_ORG_NAME")
	v.BindEnv("DEFAULT_PROJECT_CODE")
	v.BindEnv("DEFAULT_PROJECT_NAME")
	v.BindEnv("PHOTO_STORE")
	v.BindEnv("PHOTO_BUCKET")
	v.BindEnv("PHOTO_REAPER_GRACE_MINUTES")
	v.BindEnv("GEOCODER_URL")
	v.BindEnv("GEOCODER_TIMEOUT_SECONDS")
	v.BindEnv("MIGRATIONS_DIR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ==========================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active; unauthenticated requests get")
		log.Println("WARNING: super-admin access. Do NOT use this configuration in")
		log.Println("WARNING: production. Set ENV=production and configure JWT_SECRET.")
		log.Println("WARNING: ==========================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development a
// JWT secret is required so real token authentication is enforced, and the S3
// photo store needs a bucket name.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf(
			"JWT_SECRET must be set when ENV is %q; refusing to start without authentication configuration", c.Env)
	}
	if c.PhotoStore != "memory" && c.PhotoStore != "s3" {
		return fmt.Errorf("PHOTO_STORE must be \"memory\" or \"s3\", got %q", c.PhotoStore)
	}
	if c.PhotoStore == "s3" && c.PhotoBucket == "" {
		return fmt.Errorf("PHOTO_BUCKET is required when PHOTO_STORE is \"s3\"")
	}
	if c.TokenTTLHours <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS must be positive, got %d", c.TokenTTLHours)
	}
	return nil
}
