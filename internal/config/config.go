package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Punch source types
const (
	SourcePostgres = "postgres"
	SourceSheet    = "sheet"
	SourceSQLite   = "sqlite"
	SourceFile     = "file"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Source   SourceConfig
	Sheet    SheetConfig
	SQLite   SQLiteConfig
	Realtime RealtimeConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds the secret shared with the hosted auth platform
type JWTConfig struct {
	Secret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

// SourceConfig selects where punch events come from
type SourceConfig struct {
	Type     string
	FilePath string
}

// SheetConfig holds the spreadsheet values API settings
type SheetConfig struct {
	BaseURL         string
	SpreadsheetID   string
	Range           string
	APIKey          string
	CredentialsFile string
	PollInterval    time.Duration
}

type SQLiteConfig struct {
	Path string
}

type RealtimeConfig struct {
	Channel string
}

type CacheConfig struct {
	TTL time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hr_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET_KEY", ""),
	}

	config.Source = SourceConfig{
		Type:     strings.ToLower(getEnv("ATTENDANCE_SOURCE", SourcePostgres)),
		FilePath: getEnv("ATTENDANCE_FILE", ""),
	}

	// Spreadsheet configuration
	pollInterval, err := time.ParseDuration(getEnv("SHEET_POLL_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHEET_POLL_INTERVAL: %w", err)
	}

	config.Sheet = SheetConfig{
		BaseURL:         getEnv("SHEET_BASE_URL", "https://sheets.googleapis.com"),
		SpreadsheetID:   getEnv("SHEET_ID", ""),
		Range:           getEnv("SHEET_RANGE", "Attendance!A:G"),
		APIKey:          getEnv("SHEET_API_KEY", ""),
		CredentialsFile: getEnv("SHEET_CREDENTIALS_FILE", ""),
		PollInterval:    pollInterval,
	}

	config.SQLite = SQLiteConfig{
		Path: getEnv("SQLITE_PATH", "attendance.db"),
	}

	config.Realtime = RealtimeConfig{
		Channel: getEnv("REALTIME_CHANNEL", "punch_events_changed"),
	}

	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	config.Cache = CacheConfig{TTL: cacheTTL}

	return config, nil
}

// Validate validates the configuration needed by the API server
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return c.ValidateSource()
}

// ValidateSource validates the settings of the selected punch source
func (c *Config) ValidateSource() error {
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	// PostgreSQL renders dates with AT TIME ZONE and needs an IANA name
	if strings.EqualFold(c.App.Timezone, "Local") {
		return fmt.Errorf("invalid APP_TIMEZONE: use an IANA name such as Asia/Jakarta instead of Local")
	}

	switch c.Source.Type {
	case SourcePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case SourceSheet:
		if c.Sheet.SpreadsheetID == "" {
			return fmt.Errorf("SHEET_ID is required")
		}
		if c.Sheet.APIKey == "" && c.Sheet.CredentialsFile == "" {
			return fmt.Errorf("SHEET_API_KEY or SHEET_CREDENTIALS_FILE is required")
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	case SourceFile:
		if c.Source.FilePath == "" {
			return fmt.Errorf("ATTENDANCE_FILE is required")
		}
	default:
		return fmt.Errorf("unsupported ATTENDANCE_SOURCE: %q", c.Source.Type)
	}
	return nil
}

// Location returns the timezone used to render punch timestamps
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogLevel returns the slog level named by LOG_LEVEL, defaulting to info
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback string) []string {
	value := getEnv(env, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
