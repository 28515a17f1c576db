package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rsmith2002/filingwatcher/internal/models"
	"gopkg.in/yaml.v3"
)

// DefaultReturnWindows are the forward-return horizons used when none are configured
const DefaultReturnWindows = "2w=14,1m=30,3m=90,6m=180,1y=365,2y=730,3y=1095"

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Pipeline  PipelineConfig
	Analytics AnalyticsConfig
	Watchlist []models.Company `validate:"dive"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `validate:"required"`
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required"`
	User     string
	Password string
	DBName   string `validate:"required"`
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string `validate:"required_if=Enabled true"`
	IngestTopic string   `validate:"required_if=Enabled true"`
	EventsTopic string   `validate:"required_if=Enabled true"`
	GroupID     string
}

// RedisConfig holds price cache configuration
type RedisConfig struct {
	Enabled   bool
	Addr      string `validate:"required_if=Enabled true"`
	Password  string
	DB        int           `validate:"gte=0"`
	TTL       time.Duration `validate:"gte=0"`
	LatestTTL time.Duration `validate:"gte=0"`
}

// PipelineConfig holds scheduling and migration settings
type PipelineConfig struct {
	Schedule       string
	MigrationsPath string `validate:"required"`
}

// AnalyticsConfig holds analytics settings
type AnalyticsConfig struct {
	ReturnWindows []models.ReturnWindow `validate:"required,min=1,unique=Label,dive"`
}

type watchlistFile struct {
	Companies     []models.Company      `yaml:"companies"`
	ReturnWindows []models.ReturnWindow `yaml:"return_windows"`
}

// Load reads configuration from an optional .env file, environment
// variables and the optional watchlist file, then validates it
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	windows, err := ParseReturnWindows(getEnv("RETURN_WINDOWS", DefaultReturnWindows))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "filingwatcher"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
			Brokers:     splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			IngestTopic: getEnv("KAFKA_INGEST_TOPIC", "filings-ingested"),
			EventsTopic: getEnv("KAFKA_EVENTS_TOPIC", "insider-events"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "filingwatcher"),
		},
		Redis: RedisConfig{
			Enabled:   getEnvBool("REDIS_ENABLED", false),
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			TTL:       getEnvDuration("REDIS_TTL", 24*time.Hour),
			LatestTTL: getEnvDuration("REDIS_LATEST_TTL", 15*time.Minute),
		},
		Pipeline: PipelineConfig{
			Schedule:       getEnv("PIPELINE_SCHEDULE", "0 6,14,22 * * *"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		},
		Analytics: AnalyticsConfig{
			ReturnWindows: windows,
		},
	}

	if path := os.Getenv("WATCHLIST_FILE"); path != "" {
		if err := cfg.loadWatchlist(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadWatchlist(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read watchlist file: %w", err)
	}

	var wf watchlistFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return fmt.Errorf("failed to parse watchlist file %s: %w", path, err)
	}

	for i := range wf.Companies {
		wf.Companies[i].Ticker = strings.ToUpper(strings.TrimSpace(wf.Companies[i].Ticker))
		wf.Companies[i].Enabled = true
	}
	c.Watchlist = wf.Companies
	if len(wf.ReturnWindows) > 0 {
		c.Analytics.ReturnWindows = wf.ReturnWindows
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseReturnWindows parses a "label=days" comma list, preserving order
func ParseReturnWindows(s string) ([]models.ReturnWindow, error) {
	var windows []models.ReturnWindow
	for _, part := range splitList(s) {
		label, days, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid return window %q: want label=days", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil {
			return nil, fmt.Errorf("invalid return window %q: %w", part, err)
		}
		windows = append(windows, models.ReturnWindow{Label: strings.TrimSpace(label), Days: n})
	}
	return windows, nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
