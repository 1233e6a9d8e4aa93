// internal/config/config.go
package config

import (
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Auth     AuthConfig
	ERP      ERPConfig
	Supplier SupplierConfig
	Mail     MailConfig
	Schedule ScheduleConfig
	Storage  StorageConfig
	Events   EventsConfig
}

type ServerConfig struct {
	Port           string
	OpsPort        string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BatchSize       int
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// ERPConfig describes the ERP "execute" API. Every fetch is a POST of a
// service code plus a data object.
type ERPConfig struct {
	LoginURL    string
	ExecuteURL  string
	Username    string
	Password    string
	AppUser     string
	AppPassword string
	Company     string
	Entity      string
	Employer    string
	ManagerUser string
	RequestID   int
	Timeout     time.Duration
	RetryMax    int
	Warehouses  []string
	PriceList   string
	Services    ERPServices
}

type ERPServices struct {
	Inventory    string
	Sales        string
	Products     string
	Prices       string
	Clients      string
	InvoiceLines string
}

type SupplierConfig struct {
	BaseURL     string
	Username    string
	Password    string
	CatalogID   string
	RowsPerPage int
	PageDelay   time.Duration
	Timeout     time.Duration
	RetryMax    int
}

type MailConfig struct {
	Host       string
	Port       int
	Secure     bool
	Username   string
	Password   string
	From       string
	To         []string
	Subject    string
	MaxRows    int
	BatchLimit int
}

type ScheduleConfig struct {
	RunOnStart bool
	Timezone   string
	Jobs       map[string]string
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c ScheduleConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type StorageConfig struct {
	Backend         string
	Prefix          string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioRegion     string
	MinioUseSSL     bool
	DriveFolderID   string
	DriveCredential string
}

type EventsConfig struct {
	Brokers []string
	Topic   string
}

var (
	once     sync.Once
	instance *Config
)

// defaultSchedules are cron specs (minute resolution) per job name.
var defaultSchedules = map[string]string{
	"inventory_sync":      "*/30 * * * *",
	"products_sync":       "0 1 * * *",
	"prices_sync":         "0 3 * * *",
	"clients_sync":        "*/30 * * * *",
	"sales_sync":          "2,32 * * * *",
	"sales_detail_sync":   "0 */2 * * *",
	"invoice_lines_sync":  "30 0 * * *",
	"classification":      "0 2 * * *",
	"stock_alerts":        "10,40 * * * *",
	"suggestions":         "15,45 * * * *",
	"supplier_sync":       "20,50 * * * *",
	"supplier_alert_mail": "*/5 * * * *",
	"suggestions_export":  "0 6 * * *",
}

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		setDefaults(v)

		// Read from environment variables
		v.AutomaticEnv()

		instance = build(v)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("OPS_PORT", "9090")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "erpsync")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_SECONDS", 300)
	v.SetDefault("DB_BATCH_SIZE", 1000)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL_HOURS", 12)
	v.SetDefault("BCRYPT_COST", 10)

	v.SetDefault("ERP_LOGIN_URL", "")
	v.SetDefault("ERP_EXECUTE_URL", "")
	v.SetDefault("ERP_REQUEST_ID", 6254)
	v.SetDefault("ERP_EMPLOYER", "101")
	v.SetDefault("ERP_MANAGER_USER", "MNGBI")
	v.SetDefault("ERP_TIMEOUT_SECONDS", 120)
	v.SetDefault("ERP_RETRY_MAX", 2)
	v.SetDefault("ERP_WAREHOUSES", []string{"01P", "02P", "03P", "03R"})
	v.SetDefault("ERP_PRICE_LIST", "001")
	v.SetDefault("ERP_SERVICE_INVENTORY", "BI216CELM7S43")
	v.SetDefault("ERP_SERVICE_SALES", "BI215HGJY6CNS")
	v.SetDefault("ERP_SERVICE_PRODUCTS", "BI202G42S6RG1")
	v.SetDefault("ERP_SERVICE_PRICES", "BI228NFP4TG33")
	v.SetDefault("ERP_SERVICE_CLIENTS", "BI2034OLD65RE")
	v.SetDefault("ERP_SERVICE_INVOICE_LINES", "BI231C4MLBRKF")

	v.SetDefault("SUPPLIER_BASE_URL", "")
	v.SetDefault("SUPPLIER_CATALOG_ID", "1")
	v.SetDefault("SUPPLIER_ROWS_PER_PAGE", 15000)
	v.SetDefault("SUPPLIER_PAGE_DELAY_MS", 400)
	v.SetDefault("SUPPLIER_TIMEOUT_SECONDS", 20)
	v.SetDefault("SUPPLIER_RETRY_MAX", 3)

	v.SetDefault("SMTP_PORT", 465)
	v.SetDefault("MAIL_SUBJECT", "Reporte alertas proveedor")
	v.SetDefault("MAIL_MAX_ROWS", 2000)
	v.SetDefault("MAIL_BATCH_LIMIT", 10000)

	v.SetDefault("SCHEDULE_RUN_ON_START", false)
	v.SetDefault("SCHEDULE_TIMEZONE", "America/Bogota")
	for name, spec := range defaultSchedules {
		v.SetDefault(scheduleKey(name), spec)
	}

	v.SetDefault("STORAGE_BACKEND", "none")
	v.SetDefault("STORAGE_PREFIX", "exports")
	v.SetDefault("MINIO_REGION", "us-east-1")
	v.SetDefault("MINIO_USE_SSL", true)

	v.SetDefault("KAFKA_BROKERS", []string{})
	v.SetDefault("KAFKA_TOPIC", "erpsync.job_runs")
}

func build(v *viper.Viper) *Config {
	smtpPort := v.GetInt("SMTP_PORT")
	secure := smtpPort == 465
	if v.IsSet("SMTP_SECURE") {
		secure = v.GetBool("SMTP_SECURE")
	}

	schedules := make(map[string]string, len(defaultSchedules))
	for name := range defaultSchedules {
		schedules[name] = v.GetString(scheduleKey(name))
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			OpsPort:        v.GetString("OPS_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_SECONDS")) * time.Second,
			BatchSize:       v.GetInt("DB_BATCH_SIZE"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("JWT_SECRET"),
			TokenTTL:   time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
			BcryptCost: v.GetInt("BCRYPT_COST"),
		},
		ERP: ERPConfig{
			LoginURL:    v.GetString("ERP_LOGIN_URL"),
			ExecuteURL:  v.GetString("ERP_EXECUTE_URL"),
			Username:    v.GetString("ERP_LOGIN_USER"),
			Password:    v.GetString("ERP_LOGIN_PASS"),
			AppUser:     v.GetString("ERP_APPUSER"),
			AppPassword: v.GetString("ERP_APPUSER_PWD"),
			Company:     v.GetString("ERP_COMPANY"),
			Entity:      v.GetString("ERP_ENTITY"),
			Employer:    v.GetString("ERP_EMPLOYER"),
			ManagerUser: v.GetString("ERP_MANAGER_USER"),
			RequestID:   v.GetInt("ERP_REQUEST_ID"),
			Timeout:     time.Duration(v.GetInt("ERP_TIMEOUT_SECONDS")) * time.Second,
			RetryMax:    v.GetInt("ERP_RETRY_MAX"),
			Warehouses:  splitList(v.GetStringSlice("ERP_WAREHOUSES")),
			PriceList:   v.GetString("ERP_PRICE_LIST"),
			Services: ERPServices{
				Inventory:    v.GetString("ERP_SERVICE_INVENTORY"),
				Sales:        v.GetString("ERP_SERVICE_SALES"),
				Products:     v.GetString("ERP_SERVICE_PRODUCTS"),
				Prices:       v.GetString("ERP_SERVICE_PRICES"),
				Clients:      v.GetString("ERP_SERVICE_CLIENTS"),
				InvoiceLines: v.GetString("ERP_SERVICE_INVOICE_LINES"),
			},
		},
		Supplier: SupplierConfig{
			BaseURL:     v.GetString("SUPPLIER_BASE_URL"),
			Username:    v.GetString("SUPPLIER_USER"),
			Password:    v.GetString("SUPPLIER_PASS"),
			CatalogID:   v.GetString("SUPPLIER_CATALOG_ID"),
			RowsPerPage: v.GetInt("SUPPLIER_ROWS_PER_PAGE"),
			PageDelay:   time.Duration(v.GetInt("SUPPLIER_PAGE_DELAY_MS")) * time.Millisecond,
			Timeout:     time.Duration(v.GetInt("SUPPLIER_TIMEOUT_SECONDS")) * time.Second,
			RetryMax:    v.GetInt("SUPPLIER_RETRY_MAX"),
		},
		Mail: MailConfig{
			Host:       strings.TrimSpace(v.GetString("SMTP_HOST")),
			Port:       smtpPort,
			Secure:     secure,
			Username:   v.GetString("SMTP_USER"),
			Password:   v.GetString("SMTP_PASS"),
			From:       v.GetString("MAIL_FROM"),
			To:         splitList(v.GetStringSlice("MAIL_TO")),
			Subject:    v.GetString("MAIL_SUBJECT"),
			MaxRows:    v.GetInt("MAIL_MAX_ROWS"),
			BatchLimit: v.GetInt("MAIL_BATCH_LIMIT"),
		},
		Schedule: ScheduleConfig{
			RunOnStart: v.GetBool("SCHEDULE_RUN_ON_START"),
			Timezone:   v.GetString("SCHEDULE_TIMEZONE"),
			Jobs:       schedules,
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(v.GetString("STORAGE_BACKEND")),
			Prefix:          v.GetString("STORAGE_PREFIX"),
			MinioEndpoint:   v.GetString("MINIO_ENDPOINT"),
			MinioAccessKey:  v.GetString("MINIO_ACCESS_KEY"),
			MinioSecretKey:  v.GetString("MINIO_SECRET_KEY"),
			MinioBucket:     v.GetString("MINIO_BUCKET"),
			MinioRegion:     v.GetString("MINIO_REGION"),
			MinioUseSSL:     v.GetBool("MINIO_USE_SSL"),
			DriveFolderID:   v.GetString("GOOGLE_DRIVE_FOLDER_ID"),
			DriveCredential: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
		},
		Events: EventsConfig{
			Brokers: splitList(v.GetStringSlice("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
	}
}

func scheduleKey(job string) string {
	return "SCHEDULE_" + strings.ToUpper(job)
}

// splitList flattens values that arrive either as repeated entries or as a
// single comma separated env var.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}
