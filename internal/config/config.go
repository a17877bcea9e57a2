package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	DBMaxConns     int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns     int32         `mapstructure:"DB_MIN_CONNS"`
	DBSchema       string        `mapstructure:"DB_SCHEMA"`
	AuthIssuer     string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience   string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	ClinicTimezone string        `mapstructure:"CLINIC_TIMEZONE"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BodyLimit      string        `mapstructure:"BODY_LIMIT"`
	MetricsEnabled bool          `mapstructure:"METRICS_ENABLED"`

	// Shift boundaries, as clinic wall-clock hours.
	ShiftMorningStart   int `mapstructure:"SHIFT_MORNING_START"`
	ShiftAfternoonStart int `mapstructure:"SHIFT_AFTERNOON_START"`
	ShiftNightStart     int `mapstructure:"SHIFT_NIGHT_START"`

	AssignmentWindowBefore time.Duration `mapstructure:"ASSIGNMENT_WINDOW_BEFORE"`
	AssignmentWindowAfter  time.Duration `mapstructure:"ASSIGNMENT_WINDOW_AFTER"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"AUTH_ISSUER", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY", "CORS_ORIGINS",
	"CLINIC_TIMEZONE", "REQUEST_TIMEOUT", "BODY_LIMIT", "METRICS_ENABLED",
	"SHIFT_MORNING_START", "SHIFT_AFTERNOON_START", "SHIFT_NIGHT_START",
	"ASSIGNMENT_WINDOW_BEFORE", "ASSIGNMENT_WINDOW_AFTER",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "hospital")
	v.SetDefault("CORS_ORIGINS", "http://localhost:1420")
	v.SetDefault("CLINIC_TIMEZONE", "America/Mexico_City")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("SHIFT_MORNING_START", 7)
	v.SetDefault("SHIFT_AFTERNOON_START", 15)
	v.SetDefault("SHIFT_NIGHT_START", 23)
	v.SetDefault("ASSIGNMENT_WINDOW_BEFORE", "72h")
	v.SetDefault("ASSIGNMENT_WINDOW_AFTER", "96h")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location loads CLINIC_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	return loc, nil
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is mandatory, since there is no other way to authenticate.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid pool size: min %d, max %d", c.DBMinConns, c.DBMaxConns)
	}

	hours := []struct {
		key string
		val int
	}{
		{"SHIFT_MORNING_START", c.ShiftMorningStart},
		{"SHIFT_AFTERNOON_START", c.ShiftAfternoonStart},
		{"SHIFT_NIGHT_START", c.ShiftNightStart},
	}
	for i, h := range hours {
		if h.val < 0 || h.val > 23 {
			return fmt.Errorf("%s must be an hour in 0..23, got %d", h.key, h.val)
		}
		if i > 0 && h.val <= hours[i-1].val {
			return fmt.Errorf("%s (%d) must be after %s (%d)", h.key, h.val, hours[i-1].key, hours[i-1].val)
		}
	}

	if c.AssignmentWindowBefore < 0 || c.AssignmentWindowAfter < 0 {
		return fmt.Errorf("assignment windows must not be negative")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must not be negative")
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
