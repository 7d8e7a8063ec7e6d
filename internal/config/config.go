package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MQTT      MQTTConfig
	NATS      NATSConfig
	Redis     RedisConfig
	Ingestion IngestionConfig
	Offline   OfflineConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	AutoMigrate bool
}

type MQTTConfig struct {
	Enabled              bool
	Broker               string
	ClientID             string
	Username             string
	Password             string
	TelemetryTopic       string
	EventTopic           string
	QoS                  byte
	KeepAlive            int
	ConnectTimeout       int
	MaxReconnectInterval time.Duration
}

type NATSConfig struct {
	Enabled          bool
	URL              string
	Stream           string
	Consumer         string
	TelemetrySubject string
	EventSubject     string
	AckWait          time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

// IngestionConfig sizes the worker pool and bounds per-message work.
type IngestionConfig struct {
	Workers        int
	QueueSize      int
	MessageTimeout time.Duration
}

type OfflineConfig struct {
	After    time.Duration // zero disables the sweep
	Interval time.Duration
}

type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENVIRONMENT", "development")

	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("MQTT_ENABLED", true)
	v.SetDefault("MQTT_BROKER", "tcp://localhost:1883")
	v.SetDefault("MQTT_CLIENT_ID", "waste-bin-monitor")
	v.SetDefault("MQTT_TELEMETRY_TOPIC", "trash/sensors")
	v.SetDefault("MQTT_EVENT_TOPIC", "trash/events")
	v.SetDefault("MQTT_QOS", 1)
	v.SetDefault("MQTT_KEEP_ALIVE", 30)
	v.SetDefault("MQTT_CONNECT_TIMEOUT", 10)
	v.SetDefault("MQTT_MAX_RECONNECT_INTERVAL", time.Minute)

	v.SetDefault("NATS_ENABLED", false)
	v.SetDefault("NATS_URL", "nats://127.0.0.1:4222")
	v.SetDefault("NATS_STREAM", "BINS")
	v.SetDefault("NATS_CONSUMER", "BIN_INGESTION")
	v.SetDefault("NATS_TELEMETRY_SUBJECT", "bins.telemetry")
	v.SetDefault("NATS_EVENT_SUBJECT", "bins.events")
	v.SetDefault("NATS_ACK_WAIT", 30*time.Second)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_TTL", 5*time.Minute)

	v.SetDefault("INGESTION_WORKERS", 8)
	v.SetDefault("INGESTION_QUEUE_SIZE", 1024)
	v.SetDefault("INGESTION_MESSAGE_TIMEOUT", 10*time.Second)

	v.SetDefault("OFFLINE_AFTER", 0)
	v.SetDefault("OFFLINE_SWEEP_INTERVAL", time.Minute)

	v.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	v.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)

	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"})
	v.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("CORS_ALLOW_CREDENTIALS", true)
	v.SetDefault("CORS_MAX_AGE", 12*time.Hour)
}

func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(".env")
	v.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(homeDir)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:        v.GetString("SERVER_PORT"),
			Host:        v.GetString("SERVER_HOST"),
			Environment: v.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			DBName:      v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		MQTT: MQTTConfig{
			Enabled:              v.GetBool("MQTT_ENABLED"),
			Broker:               v.GetString("MQTT_BROKER"),
			ClientID:             v.GetString("MQTT_CLIENT_ID"),
			Username:             v.GetString("MQTT_USERNAME"),
			Password:             v.GetString("MQTT_PASSWORD"),
			TelemetryTopic:       v.GetString("MQTT_TELEMETRY_TOPIC"),
			EventTopic:           v.GetString("MQTT_EVENT_TOPIC"),
			QoS:                  byte(v.GetUint("MQTT_QOS")),
			KeepAlive:            v.GetInt("MQTT_KEEP_ALIVE"),
			ConnectTimeout:       v.GetInt("MQTT_CONNECT_TIMEOUT"),
			MaxReconnectInterval: v.GetDuration("MQTT_MAX_RECONNECT_INTERVAL"),
		},
		NATS: NATSConfig{
			Enabled:          v.GetBool("NATS_ENABLED"),
			URL:              v.GetString("NATS_URL"),
			Stream:           v.GetString("NATS_STREAM"),
			Consumer:         v.GetString("NATS_CONSUMER"),
			TelemetrySubject: v.GetString("NATS_TELEMETRY_SUBJECT"),
			EventSubject:     v.GetString("NATS_EVENT_SUBJECT"),
			AckWait:          v.GetDuration("NATS_ACK_WAIT"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		Ingestion: IngestionConfig{
			Workers:        v.GetInt("INGESTION_WORKERS"),
			QueueSize:      v.GetInt("INGESTION_QUEUE_SIZE"),
			MessageTimeout: v.GetDuration("INGESTION_MESSAGE_TIMEOUT"),
		},
		Offline: OfflineConfig{
			After:    v.GetDuration("OFFLINE_AFTER"),
			Interval: v.GetDuration("OFFLINE_SWEEP_INTERVAL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   v.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: v.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   v.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   v.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   v.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   v.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetDuration("CORS_MAX_AGE"),
		},
	}
}

// Validate rejects configurations the ingestion pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Ingestion.Workers <= 0 {
		return errors.New("INGESTION_WORKERS must be positive")
	}
	if c.Ingestion.QueueSize <= 0 {
		return errors.New("INGESTION_QUEUE_SIZE must be positive")
	}
	if c.Ingestion.MessageTimeout <= 0 {
		return errors.New("INGESTION_MESSAGE_TIMEOUT must be positive")
	}
	if !c.MQTT.Enabled && !c.NATS.Enabled {
		return errors.New("at least one inbound source (MQTT or NATS) must be enabled")
	}
	if c.Offline.After < 0 {
		return errors.New("OFFLINE_AFTER cannot be negative")
	}
	if c.Offline.After > 0 && c.Offline.Interval <= 0 {
		return errors.New("OFFLINE_SWEEP_INTERVAL must be positive when OFFLINE_AFTER is set")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
