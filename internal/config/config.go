package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process-wide configuration, loaded once at startup.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Razorpay  RazorpayConfig  `mapstructure:"razorpay"`
	Business  BusinessConfig  `mapstructure:"business"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LogConfig struct {
	Env string `mapstructure:"env"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	PaymentResult string `mapstructure:"payment_result"`
}

// RazorpayConfig holds the gateway credentials. KeySecret doubles as the
// HMAC key for callback signatures.
type RazorpayConfig struct {
	KeyID     string        `mapstructure:"key_id"`
	KeySecret string        `mapstructure:"key_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	Currency  string        `mapstructure:"currency"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type BusinessConfig struct {
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	LockRetryInterval time.Duration `mapstructure:"lock_retry_interval"`
	LockMaxRetries    int           `mapstructure:"lock_max_retries"`
	StoreTimeout      time.Duration `mapstructure:"store_timeout"`
	OutboxInterval    time.Duration `mapstructure:"outbox_interval"`
	OutboxBatchSize   int           `mapstructure:"outbox_batch_size"`
	OutboxMaxRetry    int           `mapstructure:"outbox_max_retry"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

const writeTimeoutSlack = 5 * time.Second

// WriteTimeout bounds a response write. It outlasts the slowest handler
// path: the gateway call plus the store write on create-order, or the lock
// wait plus the store transaction on verify-payment.
func (c *Config) WriteTimeout() time.Duration {
	longest := c.Server.RequestTimeout
	if d := c.Razorpay.Timeout + c.Business.StoreTimeout; d > longest {
		longest = d
	}
	lockWait := c.Business.LockRetryInterval * time.Duration(c.Business.LockMaxRetries)
	if d := lockWait + c.Business.StoreTimeout; d > longest {
		longest = d
	}
	return longest + writeTimeoutSlack
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("log.env", "development")
	v.SetDefault("mysql.max_open_conns", 20)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("kafka.topic.payment_result", "payment-result")
	v.SetDefault("razorpay.base_url", "https://api.razorpay.com")
	v.SetDefault("razorpay.currency", "INR")
	v.SetDefault("razorpay.timeout", 10*time.Second)
	v.SetDefault("business.lock_ttl", 30*time.Second)
	v.SetDefault("business.lock_retry_interval", 100*time.Millisecond)
	v.SetDefault("business.lock_max_retries", 30)
	v.SetDefault("business.store_timeout", 5*time.Second)
	v.SetDefault("business.outbox_interval", time.Second)
	v.SetDefault("business.outbox_batch_size", 100)
	v.SetDefault("business.outbox_max_retry", 5)
	v.SetDefault("rate_limit.rps", 10)
	v.SetDefault("rate_limit.burst", 20)
}

// Load reads configPath (optional) and overlays environment variables,
// e.g. RAZORPAY_KEY_SECRET overrides razorpay.key_secret.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	// AutomaticEnv only applies to keys viper already knows about.
	for _, key := range []string{"razorpay.key_id", "razorpay.key_secret", "mysql.password", "redis.password"} {
		_ = v.BindEnv(key)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if c.Razorpay.KeyID == "" || c.Razorpay.KeySecret == "" {
		return errors.New("razorpay.key_id and razorpay.key_secret are required")
	}
	if c.Razorpay.Currency == "" {
		return errors.New("razorpay.currency is required")
	}
	return nil
}

// LoadConfig loads the configuration or exits the process.
func LoadConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}
