package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	DB         DBConfig
	S3         S3Config
	Storage    StorageConfig
	OCR        OCRConfig
	Log        LogConfig
	Parser     ParserConfig
	Suggestion SuggestionConfig
	Email      EmailConfig
	Notify     NotifyConfig
	Review     ReviewConfig
	Reminder   ReminderConfig
}

// EmailConfig holds notification delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
	Recipient   string `mapstructure:"recipient"`
	BaseURL     string `mapstructure:"base_url"`
}

// NotifyConfig holds status-change dispatcher settings.
type NotifyConfig struct {
	Workers     int `mapstructure:"workers"`
	Buffer      int `mapstructure:"buffer"`
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// ReviewConfig holds review workflow settings.
type ReviewConfig struct {
	StrictTransitions bool `mapstructure:"strict_transitions"`
}

// ReminderConfig holds the pending-review digest job settings.
type ReminderConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Schedule   string        `mapstructure:"schedule"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// ParserProviderConfig holds settings for a single LLM extraction provider.
type ParserProviderConfig struct {
	Provider          string `mapstructure:"provider"`
	APIKey            string `mapstructure:"api_key"`
	DefaultModel      string `mapstructure:"default_model"`
	BaseURL           string `mapstructure:"base_url"`
	TimeoutSecs       int    `mapstructure:"timeout_secs"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// ParserConfig holds the alternate extraction strategy settings.
type ParserConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Mode           string   `mapstructure:"mode"` // fallback or merge
	CriticalFields []string `mapstructure:"critical_fields"`

	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
}

// PrimaryConfig returns the primary provider config.
func (p *ParserConfig) PrimaryConfig() *ParserProviderConfig {
	return &p.Primary
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (p *ParserConfig) SecondaryConfig() *ParserProviderConfig {
	if p.Secondary.Provider != "" {
		return &p.Secondary
	}
	return nil
}

// SuggestionConfig selects the suggestion generator.
type SuggestionConfig struct {
	Provider string `mapstructure:"provider"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds record store connection settings.
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// StorageConfig selects the object storage backend.
type StorageConfig struct {
	Provider string `mapstructure:"provider"`
	LocalDir string `mapstructure:"local_dir"`
}

// OCRConfig selects how document text is acquired.
type OCRConfig struct {
	Provider      string `mapstructure:"provider"`
	Region        string `mapstructure:"region"`
	PdfToTextPath string `mapstructure:"pdftotext_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional file and from environment
// variables with the SOLAROPS_ prefix.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SOLAROPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	envBindings := map[string]string{
		"server.port":                         "SOLAROPS_SERVER_PORT",
		"server.read_timeout":                 "SOLAROPS_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "SOLAROPS_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "SOLAROPS_SERVER_ENVIRONMENT",
		"server.cors_origins":                 "SOLAROPS_SERVER_CORS_ORIGINS",
		"db.driver":                           "SOLAROPS_DB_DRIVER",
		"db.path":                             "SOLAROPS_DB_PATH",
		"db.host":                             "SOLAROPS_DB_HOST",
		"db.port":                             "SOLAROPS_DB_PORT",
		"db.user":                             "SOLAROPS_DB_USER",
		"db.password":                         "SOLAROPS_DB_PASSWORD",
		"db.name":                             "SOLAROPS_DB_NAME",
		"db.sslmode":                          "SOLAROPS_DB_SSLMODE",
		"s3.region":                           "SOLAROPS_S3_REGION",
		"s3.bucket":                           "SOLAROPS_S3_BUCKET",
		"s3.endpoint":                         "SOLAROPS_S3_ENDPOINT",
		"s3.access_key":                       "SOLAROPS_S3_ACCESS_KEY",
		"s3.secret_key":                       "SOLAROPS_S3_SECRET_KEY",
		"s3.max_file_size_mb":                 "SOLAROPS_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":                   "SOLAROPS_S3_PRESIGN_EXPIRY",
		"storage.provider":                    "SOLAROPS_STORAGE_PROVIDER",
		"storage.local_dir":                   "SOLAROPS_STORAGE_LOCAL_DIR",
		"ocr.provider":                        "SOLAROPS_OCR_PROVIDER",
		"ocr.region":                          "SOLAROPS_OCR_REGION",
		"ocr.pdftotext_path":                  "SOLAROPS_OCR_PDFTOTEXT_PATH",
		"log.level":                           "SOLAROPS_LOG_LEVEL",
		"log.format":                          "SOLAROPS_LOG_FORMAT",
		"parser.enabled":                      "SOLAROPS_PARSER_ENABLED",
		"parser.mode":                         "SOLAROPS_PARSER_MODE",
		"parser.critical_fields":              "SOLAROPS_PARSER_CRITICAL_FIELDS",
		"parser.primary.provider":             "SOLAROPS_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":              "SOLAROPS_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":        "SOLAROPS_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.base_url":             "SOLAROPS_PARSER_PRIMARY_BASE_URL",
		"parser.primary.timeout_secs":         "SOLAROPS_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.primary.requests_per_minute":  "SOLAROPS_PARSER_PRIMARY_REQUESTS_PER_MINUTE",
		"parser.secondary.provider":           "SOLAROPS_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":            "SOLAROPS_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model":      "SOLAROPS_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.base_url":           "SOLAROPS_PARSER_SECONDARY_BASE_URL",
		"parser.secondary.timeout_secs":       "SOLAROPS_PARSER_SECONDARY_TIMEOUT_SECS",
		"parser.secondary.requests_per_minute": "SOLAROPS_PARSER_SECONDARY_REQUESTS_PER_MINUTE",
		"suggestion.provider":                 "SOLAROPS_SUGGESTION_PROVIDER",
		"email.provider":                      "SOLAROPS_EMAIL_PROVIDER",
		"email.region":                        "SOLAROPS_EMAIL_REGION",
		"email.from_address":                  "SOLAROPS_EMAIL_FROM_ADDRESS",
		"email.from_name":                     "SOLAROPS_EMAIL_FROM_NAME",
		"email.recipient":                     "SOLAROPS_EMAIL_RECIPIENT",
		"email.base_url":                      "SOLAROPS_EMAIL_BASE_URL",
		"notify.workers":                      "SOLAROPS_NOTIFY_WORKERS",
		"notify.buffer":                       "SOLAROPS_NOTIFY_BUFFER",
		"notify.timeout_secs":                 "SOLAROPS_NOTIFY_TIMEOUT_SECS",
		"review.strict_transitions":           "SOLAROPS_REVIEW_STRICT_TRANSITIONS",
		"reminder.enabled":                    "SOLAROPS_REMINDER_ENABLED",
		"reminder.schedule":                   "SOLAROPS_REMINDER_SCHEDULE",
		"reminder.stale_after":                "SOLAROPS_REMINDER_STALE_AFTER",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, eris.Wrapf(err, "config: read %s", path)
		}
	}

	cfg := &Config{}

	// PaaS platforms set PORT; honour it unless SOLAROPS_SERVER_PORT is explicit.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SOLAROPS_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  stringList(v, "server.cors_origins"),
	}
	cfg.DB = DBConfig{
		Driver:   v.GetString("db.driver"),
		Path:     v.GetString("db.path"),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Storage = StorageConfig{
		Provider: v.GetString("storage.provider"),
		LocalDir: v.GetString("storage.local_dir"),
	}
	cfg.OCR = OCRConfig{
		Provider:      v.GetString("ocr.provider"),
		Region:        v.GetString("ocr.region"),
		PdfToTextPath: v.GetString("ocr.pdftotext_path"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Parser = ParserConfig{
		Enabled:        v.GetBool("parser.enabled"),
		Mode:           v.GetString("parser.mode"),
		CriticalFields: stringList(v, "parser.critical_fields"),
		Primary:        providerConfig(v, "parser.primary"),
		Secondary:      providerConfig(v, "parser.secondary"),
	}
	cfg.Suggestion = SuggestionConfig{
		Provider: v.GetString("suggestion.provider"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Recipient:   v.GetString("email.recipient"),
		BaseURL:     v.GetString("email.base_url"),
	}
	cfg.Notify = NotifyConfig{
		Workers:     v.GetInt("notify.workers"),
		Buffer:      v.GetInt("notify.buffer"),
		TimeoutSecs: v.GetInt("notify.timeout_secs"),
	}
	cfg.Review = ReviewConfig{
		StrictTransitions: v.GetBool("review.strict_transitions"),
	}
	cfg.Reminder = ReminderConfig{
		Enabled:    v.GetBool("reminder.enabled"),
		Schedule:   v.GetString("reminder.schedule"),
		StaleAfter: v.GetDuration("reminder.stale_after"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "solarops.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "solarops")
	v.SetDefault("db.password", "solarops_secret")
	v.SetDefault("db.name", "solarops")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "solarops-paperwork")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 25)
	v.SetDefault("s3.presign_expiry", 3600)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_dir", "uploads")

	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.region", "ap-south-1")
	v.SetDefault("ocr.pdftotext_path", "pdftotext")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("parser.enabled", false)
	v.SetDefault("parser.mode", "fallback")
	v.SetDefault("parser.critical_fields", "customer_name,system_capacity_kw,panel_serial_numbers")
	v.SetDefault("parser.primary.provider", "openai")
	v.SetDefault("parser.primary.timeout_secs", 60)
	v.SetDefault("parser.primary.requests_per_minute", 30)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.timeout_secs", 60)
	v.SetDefault("parser.secondary.requests_per_minute", 30)

	v.SetDefault("suggestion.provider", "canned")

	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "noreply@solarops.local")
	v.SetDefault("email.from_name", "SolarOps")
	v.SetDefault("email.recipient", "client@example.com")
	v.SetDefault("email.base_url", "http://localhost:8080")

	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.buffer", 64)
	v.SetDefault("notify.timeout_secs", 30)

	v.SetDefault("review.strict_transitions", false)

	v.SetDefault("reminder.enabled", false)
	v.SetDefault("reminder.schedule", "0 9 * * 1-5")
	v.SetDefault("reminder.stale_after", "72h")
}

func providerConfig(v *viper.Viper, prefix string) ParserProviderConfig {
	return ParserProviderConfig{
		Provider:          v.GetString(prefix + ".provider"),
		APIKey:            v.GetString(prefix + ".api_key"),
		DefaultModel:      v.GetString(prefix + ".default_model"),
		BaseURL:           v.GetString(prefix + ".base_url"),
		TimeoutSecs:       v.GetInt(prefix + ".timeout_secs"),
		RequestsPerMinute: v.GetInt(prefix + ".requests_per_minute"),
	}
}

// stringList accepts either a comma-separated string (env) or a list (file).
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		return splitList(s)
	}
	return v.GetStringSlice(key)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// InitLogger builds the global zap logger from cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
