package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	StorageTypeLocal = "local"
	StorageTypeS3    = "s3"
)

type Config struct {
	Environment string         `json:"environment"`
	Server      ServerConfig   `json:"server"`
	Database    DatabaseConfig `json:"database"`
	Storage     StorageConfig  `json:"storage"`
	Events      EventsConfig   `json:"events"`
	PDF         PDFConfig      `json:"pdf"`
}

type ServerConfig struct {
	Port           string        `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	MaxHeaderBytes int           `json:"max_header_bytes"`
	RateLimitRPS   float64       `json:"rate_limit_rps"`
	RateLimitBurst int           `json:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"dbname"`
	SSLMode      string        `json:"sslmode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
}

type StorageConfig struct {
	Type  string             `json:"type"`
	Local LocalStorageConfig `json:"local"`
	S3    S3StorageConfig    `json:"s3"`
}

type LocalStorageConfig struct {
	BasePath string `json:"base_path"`
}

type S3StorageConfig struct {
	BucketName string `json:"bucket_name"`
	Endpoint   string `json:"endpoint"`
	AccessKey  string `json:"access_key"`
	SecretKey  string `json:"secret_key"`
	UseSSL     bool   `json:"use_ssl"`
}

type EventsConfig struct {
	Brokers          []string      `json:"brokers"`
	Topic            string        `json:"topic"`
	DispatchInterval time.Duration `json:"dispatch_interval"`
	DispatchBatch    int           `json:"dispatch_batch"`
	MaxAttempts      int           `json:"max_attempts"`
}

type PDFConfig struct {
	RenderOrderDetails bool `json:"render_order_details"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configDir, err := filepath.Abs("config")
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}

		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.loadFromEnv()
	config.setDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		c.Database.SSLMode = sslmode
	}

	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		c.Server.Port = serverPort
	}

	if storageType := os.Getenv("STORAGE_TYPE"); storageType != "" {
		c.Storage.Type = storageType
	}
	if basePath := os.Getenv("STORAGE_LOCAL_BASE_PATH"); basePath != "" {
		c.Storage.Local.BasePath = basePath
	}
	if bucket := os.Getenv("STORAGE_S3_BUCKET_NAME"); bucket != "" {
		c.Storage.S3.BucketName = bucket
	}
	if endpoint := os.Getenv("STORAGE_S3_ENDPOINT"); endpoint != "" {
		c.Storage.S3.Endpoint = endpoint
	}
	if accessKey := os.Getenv("STORAGE_S3_ACCESS_KEY"); accessKey != "" {
		c.Storage.S3.AccessKey = accessKey
	}
	if secretKey := os.Getenv("STORAGE_S3_SECRET_KEY"); secretKey != "" {
		c.Storage.S3.SecretKey = secretKey
	}

	if brokers := os.Getenv("EVENTS_BROKERS"); brokers != "" {
		c.Events.Brokers = strings.Split(brokers, ",")
	}
	if topic := os.Getenv("EVENTS_TOPIC"); topic != "" {
		c.Events.Topic = topic
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.MaxHeaderBytes == 0 {
		c.Server.MaxHeaderBytes = 1 << 20
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = 100.0
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 200
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = time.Hour
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageTypeLocal
	}
	if c.Storage.Local.BasePath == "" {
		c.Storage.Local.BasePath = "./contracts"
	}
	if c.Events.Topic == "" {
		c.Events.Topic = "contract-events"
	}
	if len(c.Events.Brokers) == 0 {
		c.Events.Brokers = []string{"localhost:9092"}
	}
	if c.Events.DispatchInterval == 0 {
		c.Events.DispatchInterval = 2 * time.Second
	}
	if c.Events.DispatchBatch == 0 {
		c.Events.DispatchBatch = 50
	}
	if c.Events.MaxAttempts == 0 {
		c.Events.MaxAttempts = 3
	}
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Storage.Type != StorageTypeLocal && c.Storage.Type != StorageTypeS3 {
		return fmt.Errorf("storage type must be %q or %q", StorageTypeLocal, StorageTypeS3)
	}
	if c.Storage.Type == StorageTypeS3 {
		if c.Storage.S3.BucketName == "" {
			return fmt.Errorf("S3 bucket name is required")
		}
		if c.Storage.S3.Endpoint == "" {
			return fmt.Errorf("S3 endpoint is required")
		}
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("events topic is required")
	}
	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
