package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/assettracker/internal/labels"
	"github.com/mamadbah2/assettracker/internal/tagseq"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Sheets    SheetsConfig
	SQLite    SQLiteConfig
	MongoDB   MongoDBConfig
	Auth      AuthConfig
	Tags      tagseq.Config
	Labels    LabelsConfig
	Reporting ReportingConfig
	Notify    NotifyConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port       string
	LogLevel   string
	LogConsole bool
}

// StorageConfig selects the asset store.
type StorageConfig struct {
	Backend string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// SQLiteConfig points at the embedded database file.
type SQLiteConfig struct {
	Path string
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables snapshots storage.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// AuthConfig holds the static credential table and session lifetime.
type AuthConfig struct {
	// Users maps user name to a plain or bcrypt-hashed password.
	Users      map[string]string
	SessionTTL time.Duration
}

// LabelsConfig holds label sheet defaults.
type LabelsConfig struct {
	FontPaths []string
	Grid      labels.Grid
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// NotifyConfig holds the optional snapshot webhook.
type NotifyConfig struct {
	WebhookURL string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	yearMode, err := tagseq.ParseYearMode(getenvWithDefault("TAG_YEAR_MODE", "yy"))
	if err != nil {
		return nil, err
	}
	overflow, err := tagseq.ParseOverflowPolicy(os.Getenv("TAG_OVERFLOW_POLICY"))
	if err != nil {
		return nil, err
	}
	digits, err := getenvInt("TAG_SEQUENCE_DIGITS", 5)
	if err != nil {
		return nil, err
	}
	ttl, err := time.ParseDuration(getenvWithDefault("AUTH_SESSION_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("AUTH_SESSION_TTL: %w", err)
	}
	users, err := parseUsers(os.Getenv("APP_USERS"))
	if err != nil {
		return nil, err
	}
	grid, err := loadGrid()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       getenvWithDefault("APP_PORT", "8080"),
			LogLevel:   getenvWithDefault("LOG_LEVEL", "info"),
			LogConsole: strings.EqualFold(os.Getenv("LOG_FORMAT"), "console"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getenvWithDefault("STORAGE_BACKEND", BackendSQLite)),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		SQLite: SQLiteConfig{
			Path: getenvWithDefault("SQLITE_PATH", "data/assets.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "assettracker"),
		},
		Auth: AuthConfig{
			Users:      users,
			SessionTTL: ttl,
		},
		Tags: tagseq.Config{
			YearMode:       yearMode,
			SequenceDigits: digits,
			Overflow:       overflow,
		},
		Labels: LabelsConfig{
			FontPaths: splitList(os.Getenv("LABEL_FONT_PATHS"), labels.DefaultFontPaths()),
			Grid:      grid,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("SNAPSHOT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Bangkok"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("SQLITE_PATH must be provided")
		}
	case BackendSheets:
		if c.Sheets.CredentialsPath == "" {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided")
		}
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendSQLite, BackendSheets, c.Storage.Backend)
	}

	if len(c.Auth.Users) == 0 {
		return errors.New("APP_USERS must list at least one user:password pair")
	}
	if c.Auth.SessionTTL <= 0 {
		return errors.New("AUTH_SESSION_TTL must be positive")
	}

	if err := c.Tags.Validate(); err != nil {
		return fmt.Errorf("tag settings: %w", err)
	}
	if err := c.Labels.Grid.Validate(); err != nil {
		return fmt.Errorf("label settings: %w", err)
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("SNAPSHOT_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}

	return nil
}

// parseUsers reads "alice:secret,bob:$2a$10$..." into a credential table.
func parseUsers(raw string) (map[string]string, error) {
	users := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, password, ok := strings.Cut(pair, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || password == "" {
			return nil, fmt.Errorf("APP_USERS entry %q must look like user:password", name)
		}
		users[name] = password
	}
	return users, nil
}

func loadGrid() (labels.Grid, error) {
	grid := labels.DefaultGrid()
	floats := []struct {
		key string
		dst *float64
	}{
		{"LABEL_PAGE_WIDTH_MM", &grid.PageWidth},
		{"LABEL_PAGE_HEIGHT_MM", &grid.PageHeight},
		{"LABEL_MARGIN_MM", &grid.Margin},
		{"LABEL_WIDTH_MM", &grid.CellWidth},
		{"LABEL_HEIGHT_MM", &grid.CellHeight},
	}
	for _, f := range floats {
		value := os.Getenv(f.key)
		if value == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return grid, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = parsed
	}

	var err error
	if grid.Columns, err = getenvInt("LABEL_COLUMNS", grid.Columns); err != nil {
		return grid, err
	}
	if grid.Rows, err = getenvInt("LABEL_ROWS", grid.Rows); err != nil {
		return grid, err
	}
	return grid, nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func splitList(raw string, fallback []string) []string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
