package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535

	// DestinationLocal stores documents in a local folder
	DestinationLocal = "local"
	// DestinationObjectStore stores documents in an object store bucket
	DestinationObjectStore = "objectstore"

	// ObjectStoreMinio selects the S3-compatible driver
	ObjectStoreMinio = "minio"
	// ObjectStoreGCS selects the Google Cloud Storage driver
	ObjectStoreGCS = "gcs"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
	App      AppConfig      `yaml:"app"`
	Job      JobConfig      `yaml:"job"`
	Worker   WorkerConfig   `yaml:"worker"`
	Storage  StorageConfig  `yaml:"storage"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds the metadata store (PostgreSQL) connection configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	RetryAttempts   int           `yaml:"retry_attempts"`
	RetryInterval   time.Duration `yaml:"retry_interval"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange/queue configuration
type RabbitMQConfig struct {
	URL        string           `yaml:"url"`
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Queue      QueueConfig      `yaml:"queue"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
	Consumer   ConsumerConfig   `yaml:"consumer"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// QueueConfig holds RabbitMQ queue configuration
type QueueConfig struct {
	Name       string `yaml:"name"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
	Exclusive  bool   `yaml:"exclusive"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// ConsumerConfig holds RabbitMQ consumer settings
type ConsumerConfig struct {
	PrefetchCount int `yaml:"prefetch_count"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// JobConfig holds settings shared by the ingress and the worker
type JobConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// WorkerConfig holds worker service configuration
type WorkerConfig struct {
	Concurrency      int           `yaml:"concurrency"`
	Destination      string        `yaml:"destination"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	MaxDocumentBytes int64         `yaml:"max_document_bytes"`
	SpoolDir         string        `yaml:"spool_dir"`
	UserAgent        string        `yaml:"user_agent"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	MetricsPort      int           `yaml:"metrics_port"`
}

// StorageConfig holds the storage sink backends
type StorageConfig struct {
	Local       LocalStorageConfig `yaml:"local"`
	ObjectStore ObjectStoreConfig  `yaml:"object_store"`
}

// LocalStorageConfig holds the local folder sink settings
type LocalStorageConfig struct {
	Path string `yaml:"path"`
}

// ObjectStoreConfig holds the object store sink settings
type ObjectStoreConfig struct {
	Driver    string `yaml:"driver"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	ProjectID string `yaml:"project_id"`
}

// Load reads the configuration file, expands ${VAR} references from the
// environment and parses it.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.RabbitMQ.Exchange.Type == "" {
		c.RabbitMQ.Exchange.Type = "direct"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = c.RabbitMQ.Queue.Name
	}
	if c.RabbitMQ.Consumer.PrefetchCount == 0 {
		c.RabbitMQ.Consumer.PrefetchCount = 1
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 1
	}
	if c.Worker.ShutdownTimeout == 0 {
		c.Worker.ShutdownTimeout = 30 * time.Second
	}
	if c.Worker.FetchTimeout == 0 {
		c.Worker.FetchTimeout = 60 * time.Second
	}
	if c.Storage.ObjectStore.Driver == "" {
		c.Storage.ObjectStore.Driver = ObjectStoreMinio
	}
}

// ValidateAPIConfig checks the settings the ingress service needs
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	return c.validateJob()
}

// ValidateWorkerConfig checks the settings the worker service needs
func (c *Config) ValidateWorkerConfig() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRabbitMQ(); err != nil {
		return err
	}

	if err := c.validateJob(); err != nil {
		return err
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be greater than 0")
	}

	if c.RabbitMQ.Consumer.PrefetchCount != 1 {
		return fmt.Errorf("rabbitmq consumer prefetch_count must be 1 (got %d)", c.RabbitMQ.Consumer.PrefetchCount)
	}

	if c.Worker.FetchTimeout <= 0 {
		return fmt.Errorf("worker fetch_timeout must be greater than 0")
	}

	if c.Worker.MaxDocumentBytes < 0 {
		return fmt.Errorf("worker max_document_bytes must not be negative")
	}

	if c.Worker.MetricsPort != 0 && (c.Worker.MetricsPort < MinPort || c.Worker.MetricsPort > MaxPort) {
		return fmt.Errorf("invalid worker metrics port: %d (must be between %d and %d)", c.Worker.MetricsPort, MinPort, MaxPort)
	}

	switch c.Worker.Destination {
	case DestinationLocal:
		if c.Storage.Local.Path == "" {
			return fmt.Errorf("storage local path is required for destination %q", DestinationLocal)
		}
	case DestinationObjectStore:
		return c.validateObjectStore()
	case "":
		return fmt.Errorf("worker destination is required")
	default:
		return fmt.Errorf("invalid worker destination: %q (must be %q or %q)", c.Worker.Destination, DestinationLocal, DestinationObjectStore)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.DSN != "" {
		return nil
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < MinPort || c.Database.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", c.Database.Port, MinPort, MaxPort)
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	return nil
}

func (c *Config) validateRabbitMQ() error {
	if c.RabbitMQ.URL == "" {
		if c.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required")
		}

		if c.RabbitMQ.Port < MinPort || c.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.RabbitMQ.Port, MinPort, MaxPort)
		}
	}

	if c.RabbitMQ.Exchange.Name == "" {
		return fmt.Errorf("rabbitmq exchange name is required")
	}

	if c.RabbitMQ.Queue.Name == "" {
		return fmt.Errorf("rabbitmq queue name is required")
	}

	if c.RabbitMQ.Connection.RetryAttempts <= 0 {
		return fmt.Errorf("rabbitmq connection retry_attempts must be greater than 0")
	}

	return nil
}

func (c *Config) validateJob() error {
	if c.Job.MaxAttempts <= 0 {
		return fmt.Errorf("job max_attempts must be greater than 0")
	}
	return nil
}

func (c *Config) validateObjectStore() error {
	store := c.Storage.ObjectStore
	if store.Bucket == "" {
		return fmt.Errorf("storage object_store bucket is required")
	}

	switch store.Driver {
	case ObjectStoreMinio:
		if store.Endpoint == "" {
			return fmt.Errorf("storage object_store endpoint is required for driver %q", ObjectStoreMinio)
		}
		if store.AccessKey == "" || store.SecretKey == "" {
			return fmt.Errorf("storage object_store credentials are required for driver %q", ObjectStoreMinio)
		}
	case ObjectStoreGCS:
	default:
		return fmt.Errorf("invalid storage object_store driver: %q", store.Driver)
	}

	return nil
}
