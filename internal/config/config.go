package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Scheduling     SchedulingConfig
	Recommendation RecommendationConfig
	Catalog        CatalogConfig
	Kafka          KafkaConfig
	Logging        LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig selects and configures the appointment store
type DatabaseConfig struct {
	Driver          string
	URL             string
	SQLitePath      string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SchedulingConfig holds the working window offered to patients
type SchedulingConfig struct {
	DayStartHour       int
	DayEndHour         int
	SlotMinutes        int
	MaxDurationMinutes int
}

// RecommendationConfig holds recommendation defaults
type RecommendationConfig struct {
	DefaultLimit int
}

// CatalogConfig holds the doctor catalog cache and circuit breaker settings
type CatalogConfig struct {
	CacheSize        int
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// KafkaConfig holds domain event publishing configuration
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// Load reads configuration from environment variables and an optional config file
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)
	v.SetDefault("server.allowedorigins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.sqlitepath", "data/booking.db")
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	// Scheduling defaults
	v.SetDefault("scheduling.daystarthour", 9)
	v.SetDefault("scheduling.dayendhour", 18)
	v.SetDefault("scheduling.slotminutes", 30)
	v.SetDefault("scheduling.maxdurationminutes", 120)

	v.SetDefault("recommendation.defaultlimit", 10)

	// Catalog defaults
	v.SetDefault("catalog.cachesize", 512)
	v.SetDefault("catalog.maxrequests", 3)
	v.SetDefault("catalog.interval", 30*time.Second)
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.failurethreshold", 5)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "appointments")
	v.SetDefault("kafka.writetimeout", 5*time.Second)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputpath", "stdout")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")
	v.BindEnv("server.allowedorigins", "CORS_ALLOWED_ORIGINS")

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("database.sqlitepath", "SQLITE_PATH")

	// Scheduling
	v.BindEnv("scheduling.daystarthour", "SCHEDULING_DAY_START_HOUR")
	v.BindEnv("scheduling.dayendhour", "SCHEDULING_DAY_END_HOUR")
	v.BindEnv("scheduling.slotminutes", "SCHEDULING_SLOT_MINUTES")
	v.BindEnv("scheduling.maxdurationminutes", "SCHEDULING_MAX_DURATION_MINUTES")

	v.BindEnv("recommendation.defaultlimit", "RECOMMENDATION_DEFAULT_LIMIT")

	// Catalog
	v.BindEnv("catalog.cachesize", "CATALOG_CACHE_SIZE")
	v.BindEnv("catalog.timeout", "CATALOG_BREAKER_TIMEOUT")
	v.BindEnv("catalog.failurethreshold", "CATALOG_BREAKER_FAILURES")

	// Kafka
	v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlitepath is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}

	s := c.Scheduling
	if s.DayStartHour < 0 || s.DayEndHour > 24 || s.DayStartHour >= s.DayEndHour {
		return fmt.Errorf("scheduling hours must satisfy 0 <= start < end <= 24, got %d-%d", s.DayStartHour, s.DayEndHour)
	}
	if s.SlotMinutes <= 0 {
		return fmt.Errorf("scheduling.slotminutes must be positive")
	}
	if s.MaxDurationMinutes < s.SlotMinutes {
		return fmt.Errorf("scheduling.maxdurationminutes must be at least scheduling.slotminutes, got %d", s.MaxDurationMinutes)
	}

	if c.Recommendation.DefaultLimit <= 0 {
		return fmt.Errorf("recommendation.defaultlimit must be positive")
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka is enabled")
		}
	}

	return nil
}
