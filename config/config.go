package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string
	GinMode  string

	Database DatabaseConfig
	Storage  StorageConfig
	Upload   UploadConfig

	RedisAddr    string
	EventsStream string

	AdminJWTSecret    string
	AdminPasswordHash string
	AdminTokenTTL     time.Duration

	PublicBaseURL  string
	QRSize         int
	CORSOrigins    []string
	ExportTimezone string
}

type DatabaseConfig struct {
	Driver          string // postgres | mysql | sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

type StorageConfig struct {
	Driver             string // local | gcs
	UploadDir          string
	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string
	GCSPublic          bool
}

type UploadConfig struct {
	MaxFileBytes int64
	MaxFiles     int
}

// Load reads the environment. Call godotenv.Load first to pick up .env.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		GinMode:  os.Getenv("GIN_MODE"),

		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver:             strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
			GCSBucket:          os.Getenv("GCS_BUCKET"),
			GCSPrefix:          getEnv("GCS_PREFIX", "attachments"),
			GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
			GCSPublic:          getEnvBool("GCS_PUBLIC", false),
		},
		Upload: UploadConfig{
			MaxFileBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
			MaxFiles:     getEnvInt("MAX_UPLOAD_FILES", 10),
		},

		RedisAddr:    firstEnv("REDIS_ADDR", "REDIS_URI", "REDIS_URL"),
		EventsStream: getEnv("EVENTS_STREAM", "nnsurvey:events"),

		AdminJWTSecret:    os.Getenv("ADMIN_JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 12*time.Hour),

		PublicBaseURL:  strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		QRSize:         getEnvInt("QR_SIZE", 256),
		CORSOrigins:    splitList(os.Getenv("CORS_ORIGINS")),
		ExportTimezone: getEnv("EXPORT_TIMEZONE", "Asia/Shanghai"),
	}

	dsn, err := databaseDSN(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}
	cfg.Database.DSN = dsn

	switch cfg.Storage.Driver {
	case "local":
	case "gcs":
		if cfg.Storage.GCSBucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET must be set when STORAGE_DRIVER=gcs")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if cfg.Upload.MaxFileBytes <= 0 || cfg.Upload.MaxFiles <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES and MAX_UPLOAD_FILES must be positive")
	}
	if cfg.QRSize < 64 {
		cfg.QRSize = 64
	}
	return cfg, nil
}

// databaseDSN prefers a full connection string and otherwise assembles one
// from the discrete DB_* variables.
func databaseDSN(driver string) (string, error) {
	if v := firstEnv("DATABASE_URL", "POSTGRES_URI"); v != "" {
		return v, nil
	}

	switch driver {
	case "sqlite":
		return getEnv("DB_PATH", "nnsurvey.db") + "?_foreign_keys=on", nil
	case "postgres":
		host, name := os.Getenv("DB_HOST"), os.Getenv("DB_NAME")
		if host == "" || name == "" {
			return "", fmt.Errorf("DATABASE_URL (or DB_HOST and DB_NAME) environment variable is not set")
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
			Host:   host + ":" + getEnv("DB_PORT", "5432"),
			Path:   "/" + name,
		}
		q := url.Values{}
		q.Set("sslmode", getEnv("DB_SSLMODE", "require"))
		u.RawQuery = q.Encode()
		return u.String(), nil
	case "mysql":
		host, name := os.Getenv("DB_HOST"), os.Getenv("DB_NAME")
		if host == "" || name == "" {
			return "", fmt.Errorf("DATABASE_URL (or DB_HOST and DB_NAME) environment variable is not set")
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), host, getEnv("DB_PORT", "3306"), name), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
