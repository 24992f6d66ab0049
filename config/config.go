package config

import (
	"net/url"
	"time"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion        string `mapstructure:"GENERAL_VERSION"`
	Environment           string `mapstructure:"ENVIRONMENT"`
	ServerPort            int    `mapstructure:"SERVER_PORT"`
	CorsAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	WashAPIURL            string `mapstructure:"WASH_API_URL"`
	WashAPITimeoutSeconds int    `mapstructure:"WASH_API_TIMEOUT_SECONDS"`
	SessionSecret         string `mapstructure:"SESSION_SECRET"`
	SessionTTLHours       int    `mapstructure:"SESSION_TTL_HOURS"`
	DatabaseHost          string `mapstructure:"DB_HOST"`
	DatabasePort          int    `mapstructure:"DB_PORT"`
	DatabaseName          string `mapstructure:"DB_NAME"`
	DatabaseUser          string `mapstructure:"DB_USER"`
	DatabasePassword      string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress  string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort     int    `mapstructure:"DB_CACHE_PORT"`
	DatabaseCacheReset    int    `mapstructure:"DB_CACHE_RESET"`
	GoogleMapsAPIKey      string `mapstructure:"GOOGLE_MAPS_API_KEY"`
	GeocodeURL            string `mapstructure:"GEOCODE_URL"`
	SchedulerEnabled      bool   `mapstructure:"SCHEDULER_ENABLED"`
	JournalRetentionDays  int    `mapstructure:"JOURNAL_RETENTION_DAYS"`
	OtelServiceName       string `mapstructure:"OTEL_SERVICE_NAME"`
	OtelExporterEndpoint  string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterInsecure  bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

const (
	defaultWashAPITimeout   = 30
	defaultSessionTTLHours  = 24 * 30
	defaultJournalRetention = 90
	defaultGeocodeURL       = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultServiceName      = "washfamily-gateway"
)

var ConfigInstance Config

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT", "CORS_ALLOW_ORIGINS",
		"WASH_API_URL", "WASH_API_TIMEOUT_SECONDS", "SESSION_SECRET", "SESSION_TTL_HOURS",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_CACHE_ADDRESS", "DB_CACHE_PORT", "DB_CACHE_RESET",
		"GOOGLE_MAPS_API_KEY", "GEOCODE_URL",
		"SCHEDULER_ENABLED", "JOURNAL_RETENTION_DAYS", "OTEL_SERVICE_NAME",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	viper.SetDefault("WASH_API_TIMEOUT_SECONDS", defaultWashAPITimeout)
	viper.SetDefault("SESSION_TTL_HOURS", defaultSessionTTLHours)
	viper.SetDefault("JOURNAL_RETENTION_DAYS", defaultJournalRetention)
	viper.SetDefault("GEOCODE_URL", defaultGeocodeURL)
	viper.SetDefault("OTEL_SERVICE_NAME", defaultServiceName)
	viper.SetDefault("DB_CACHE_RESET", -1)

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("WASH_API_URL")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"washApiUrl", config.WashAPIURL,
	)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func (c Config) WashAPITimeout() time.Duration {
	if c.WashAPITimeoutSeconds <= 0 {
		return defaultWashAPITimeout * time.Second
	}
	return time.Duration(c.WashAPITimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return defaultSessionTTLHours * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c Config) JournalRetention() time.Duration {
	if c.JournalRetentionDays <= 0 {
		return defaultJournalRetention * 24 * time.Hour
	}
	return time.Duration(c.JournalRetentionDays) * 24 * time.Hour
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.WashAPIURL == "" {
		return log.ErrMsg("Fatal error: WASH_API_URL is required")
	}

	if _, err := url.ParseRequestURI(config.WashAPIURL); err != nil {
		return log.Err("Fatal error: WASH_API_URL is not a valid URL", err)
	}

	if len(config.SessionSecret) < 32 {
		return log.ErrMsg("Fatal error: SESSION_SECRET must be at least 32 characters")
	}

	if config.DatabaseCacheAddress == "" || config.DatabaseCachePort == 0 {
		return log.ErrMsg("Fatal error: DB_CACHE_ADDRESS and DB_CACHE_PORT are required")
	}

	if config.GoogleMapsAPIKey == "" {
		log.Warn("GOOGLE_MAPS_API_KEY not set, reverse geocoding disabled")
	}

	ConfigInstance = config
	return nil
}
