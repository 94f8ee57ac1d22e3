// config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service. Values come from the
// environment (a .env file is loaded into it by main).
type Config struct {
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	Port           string `mapstructure:"PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`

	// Bearer secrets gating the automated endpoints.
	CronSecret        string `mapstructure:"CRON_SECRET"`
	CronSecretToken   string `mapstructure:"CRON_SECRET_TOKEN"`
	InternalAPISecret string `mapstructure:"INTERNAL_API_SECRET"`

	// GatewayServiceToken proves a request came through the API gateway,
	// which is what sets the X-User-* headers admin routes rely on.
	GatewayServiceToken string `mapstructure:"GATEWAY_SERVICE_TOKEN"`
	AdminRole           string `mapstructure:"ADMIN_ROLE"`

	AMQPURL        string `mapstructure:"AMQP_URL"`
	EventsExchange string `mapstructure:"EVENTS_EXCHANGE"`

	CloudflareAccountID string `mapstructure:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID       string `mapstructure:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret   string `mapstructure:"R2_ACCESS_KEY_SECRET"`
	R2Bucket            string `mapstructure:"R2_BUCKET_NAME"`

	SchedulerEnabled      bool   `mapstructure:"SCHEDULER_ENABLED"`
	FundIntegritySchedule string `mapstructure:"FUND_INTEGRITY_SCHEDULE"`
	LevelsSchedule        string `mapstructure:"LEVELS_SCHEDULE"`
}

var keys = []string{
	"DATABASE_URL", "PORT", "ALLOWED_ORIGINS", "LOG_LEVEL",
	"CRON_SECRET", "CRON_SECRET_TOKEN", "INTERNAL_API_SECRET", "GATEWAY_SERVICE_TOKEN", "ADMIN_ROLE",
	"AMQP_URL", "EVENTS_EXCHANGE",
	"CLOUDFLARE_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_ACCESS_KEY_SECRET", "R2_BUCKET_NAME",
	"SCHEDULER_ENABLED", "FUND_INTEGRITY_SCHEDULE", "LEVELS_SCHEDULE",
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("PORT", "5200")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ADMIN_ROLE", "admin")
	viper.SetDefault("EVENTS_EXCHANGE", "sementesplay.events")
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("FUND_INTEGRITY_SCHEDULE", "0 * * * *") // hourly
	viper.SetDefault("LEVELS_SCHEDULE", "0 3 * * *")         // 03:00 daily
	viper.AutomaticEnv()

	for _, k := range keys {
		_ = viper.BindEnv(k)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.GatewayServiceToken = strings.TrimSpace(cfg.GatewayServiceToken)
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL environment variable not set")
	}

	return &cfg, nil
}

// CronSecrets returns the configured secrets accepted on cron routes.
func (c Config) CronSecrets() []string {
	var out []string
	for _, s := range []string{c.CronSecret, c.CronSecretToken} {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// R2Enabled reports whether report archiving to R2 is configured.
func (c Config) R2Enabled() bool {
	return c.CloudflareAccountID != "" && c.R2AccessKeyID != "" && c.R2AccessKeySecret != "" && c.R2Bucket != ""
}

// AllowedOriginsList splits ALLOWED_ORIGINS on commas and trims each origin.
func (c Config) AllowedOriginsList() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
