package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Postgres  PostgresConfig
	JWT       JWTConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Forecast  ForecastConfig
	Twilio    TwilioConfig
	SMTP      SMTPConfig
	Inventory InventoryConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port        string
	AppName     string
	TimeZone    string
	AutoMigrate bool
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// KafkaConfig with no brokers disables event publishing
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// RedisConfig with an empty Addr disables the reorder cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ForecastConfig struct {
	BaseURL        string
	Timeout        time.Duration
	CacheTTL       time.Duration
	LeadTimeDays   int
	SafetyFactor   float64
	UsageWindowDay int
}

type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	WhatsAppFrom       string
	DefaultCountryCode string
}

type SMTPConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	SenderName string
}

type InventoryConfig struct {
	LowStockThreshold int
}

// SeedConfig is the bootstrap master admin created on first migrate
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			AppName:     getEnv("APP_NAME", "StockPilot API"),
			TimeZone:    getEnv("APP_TIMEZONE", "Asia/Kolkata"),
			AutoMigrate: getEnvBool("AUTO_MIGRATE", false),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			DSN:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "stockpilot"),
			Password:        getEnv("DB_PASSWORD", "stockpilot"),
			DBName:          getEnv("DB_NAME", "stockpilot"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 3600),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
			TTL:    getEnvDuration("JWT_TTL", 24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "stockpilot.events"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Forecast: ForecastConfig{
			BaseURL:        getEnv("FORECAST_API_URL", ""),
			Timeout:        getEnvDuration("FORECAST_TIMEOUT", 3*time.Second),
			CacheTTL:       getEnvDuration("FORECAST_CACHE_TTL", 15*time.Minute),
			LeadTimeDays:   getEnvInt("REORDER_LEAD_TIME_DAYS", 7),
			SafetyFactor:   getEnvFloat("REORDER_SAFETY_FACTOR", 1.5),
			UsageWindowDay: getEnvInt("REORDER_USAGE_WINDOW_DAYS", 30),
		},
		Twilio: TwilioConfig{
			AccountSID:         getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:          getEnv("TWILIO_AUTH_TOKEN", ""),
			WhatsAppFrom:       getEnv("TWILIO_WHATSAPP_NUMBER", ""),
			DefaultCountryCode: getEnv("WHATSAPP_DEFAULT_COUNTRY_CODE", "91"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:       getEnvInt("SMTP_PORT", 587),
			User:       getEnv("EMAIL_USER", ""),
			Password:   getEnv("EMAIL_PASSWORD", ""),
			SenderName: getEnv("EMAIL_SENDER_NAME", "StockPilot - Purchase Department"),
		},
		Inventory: InventoryConfig{
			LowStockThreshold: getEnvInt("LOW_STOCK_THRESHOLD", 10),
		},
		Seed: SeedConfig{
			AdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.DBName == "") {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.Forecast.Timeout <= 0 {
		return fmt.Errorf("FORECAST_TIMEOUT must be positive")
	}
	if c.Inventory.LowStockThreshold < 0 {
		return fmt.Errorf("LOW_STOCK_THRESHOLD cannot be negative")
	}
	if _, err := time.LoadLocation(c.Server.TimeZone); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the business time zone used to date order and bill numbers
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Server.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
