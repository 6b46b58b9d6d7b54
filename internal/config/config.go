package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service needs. It is built once at startup
// and passed to constructors; nothing below main reads the environment.
type Config struct {
	Port     string
	LogLevel string

	UseMemoryStore bool
	Database       DatabaseConfig

	SMTP SMTPConfig
	SMS  SMSConfig

	Geocode GeocodeConfig
	Storage StorageConfig

	FolioFormat        string
	DefaultCountryCode string

	JWTSecret string
	JWTTTL    time.Duration
}

type DatabaseConfig struct {
	Host                   string
	Port                   string
	User                   string
	Password               string
	Name                   string
	InstanceConnectionName string // Cloud SQL socket, production only
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	NotifyTo string // mailbox receiving decision emails
}

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// Public URL Twilio posts delivery reports to. Empty disables them.
	StatusCallbackURL string
}

type GeocodeConfig struct {
	BaseURL  string
	APIToken string
	Timeout  time.Duration
	RedisURL string
}

type StorageConfig struct {
	Backend   string // "local" or "s3"
	UploadDir string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

const (
	FolioPrefixed = "prefixed"
	FolioToken    = "token"

	StorageLocal = "local"
	StorageS3    = "s3"
)

// RequiredKeys are the environment keys without which the notification
// and geocoding collaborators cannot be built.
var RequiredKeys = []string{
	"SMTP_USERNAME",
	"SMS_ACCOUNT_SID",
	"SMS_AUTH_TOKEN",
	"SMS_FROM_NUMBER",
	"GEOCODE_API_TOKEN",
}

// LoadDotEnv loads .env for local development. Missing files are not an error.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env", "environments/.env.development"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err == nil {
			return
		}
	}
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup, mostly for tests.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	smtpPort, err := strconv.Atoi(get("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	geocodeTimeout, err := time.ParseDuration(get("GEOCODE_TIMEOUT", "7s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GEOCODE_TIMEOUT: %w", err)
	}
	jwtTTL, err := time.ParseDuration(get("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		Port:           get("PORT", "8080"),
		LogLevel:       get("LOG_LEVEL", "info"),
		UseMemoryStore: get("USE_MEMORY_STORE", "false") == "true",
		Database: DatabaseConfig{
			Host:                   get("DB_HOST", "localhost"),
			Port:                   get("DB_PORT", "5432"),
			User:                   get("DB_USER", "postgres"),
			Password:               get("DB_PASS", ""),
			Name:                   get("DB_NAME", "cotizaciones"),
			InstanceConnectionName: get("INSTANCE_CONNECTION_NAME", ""),
		},
		SMTP: SMTPConfig{
			Host:     get("SMTP_HOST", "smtp.gmail.com"),
			Port:     smtpPort,
			Username: get("SMTP_USERNAME", ""),
			Password: get("SMTP_PASSWORD", ""),
		},
		SMS: SMSConfig{
			AccountSID: get("SMS_ACCOUNT_SID", ""),
			AuthToken:  get("SMS_AUTH_TOKEN", ""),
			FromNumber: get("SMS_FROM_NUMBER", ""),

			StatusCallbackURL: get("SMS_STATUS_CALLBACK_URL", ""),
		},
		Geocode: GeocodeConfig{
			BaseURL:  strings.TrimRight(get("GEOCODE_BASE_URL", "https://api.copomex.com"), "/"),
			APIToken: get("GEOCODE_API_TOKEN", ""),
			Timeout:  geocodeTimeout,
			RedisURL: get("REDIS_URL", ""),
		},
		Storage: StorageConfig{
			Backend:   get("STORAGE_BACKEND", StorageLocal),
			UploadDir: get("UPLOAD_DIR", "uploads"),
			Bucket:    get("S3_BUCKET", ""),
			Region:    get("S3_REGION", "us-east-1"),
			Endpoint:  get("S3_ENDPOINT", ""),
			AccessKey: get("S3_ACCESS_KEY", ""),
			SecretKey: get("S3_SECRET_KEY", ""),
		},
		FolioFormat:        get("FOLIO_FORMAT", FolioPrefixed),
		DefaultCountryCode: get("DEFAULT_COUNTRY_CODE", "+52"),
		JWTSecret:          get("JWT_SECRET", ""),
		JWTTTL:             jwtTTL,
	}
	cfg.SMTP.NotifyTo = get("NOTIFY_EMAIL_TO", cfg.SMTP.Username)

	return cfg, nil
}

// Validate reports every missing required key and any inconsistent option.
func (c *Config) Validate() error {
	present := map[string]string{
		"SMTP_USERNAME":     c.SMTP.Username,
		"SMS_ACCOUNT_SID":   c.SMS.AccountSID,
		"SMS_AUTH_TOKEN":    c.SMS.AuthToken,
		"SMS_FROM_NUMBER":   c.SMS.FromNumber,
		"GEOCODE_API_TOKEN": c.Geocode.APIToken,
	}

	var missing []string
	for _, key := range RequiredKeys {
		if present[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.FolioFormat {
	case FolioPrefixed, FolioToken:
	default:
		return fmt.Errorf("invalid FOLIO_FORMAT %q", c.FolioFormat)
	}

	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// DSN builds the Postgres connection string, using the Cloud SQL unix socket
// when INSTANCE_CONNECTION_NAME is set.
func (d DatabaseConfig) DSN() string {
	if d.InstanceConnectionName != "" {
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			d.InstanceConnectionName, d.User, d.Password, d.Name)
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port)
}

// Environment returns a human label for the health endpoint.
func (c *Config) Environment() string {
	if c.Database.InstanceConnectionName != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}
