package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	Pricing  PricingConfig
	Order    OrderConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr string
}

type PaymentConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	Currency      string
}

// PricingConfig holds the checkout policy constants. TaxRate applies to the
// discounted subtotal; DeliveryFee is flat per order.
type PricingConfig struct {
	TaxRate     float64
	DeliveryFee float64
}

type OrderConfig struct {
	NumberMaxAttempts int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "pronto")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "pronto")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PAYMENT_KEY_ID", "")
	viper.SetDefault("PAYMENT_KEY_SECRET", "")
	viper.SetDefault("PAYMENT_WEBHOOK_SECRET", "")
	viper.SetDefault("PAYMENT_BASE_URL", "https://api.razorpay.com/v1")
	viper.SetDefault("PAYMENT_CURRENCY", "USD")
	viper.SetDefault("TAX_RATE", 0.08)
	viper.SetDefault("DELIVERY_FEE", 2.99)
	viper.SetDefault("ORDER_NUMBER_MAX_ATTEMPTS", 5)
	viper.SetDefault("LOG_LEVEL", "info")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
		},
		Payment: PaymentConfig{
			KeyID:         viper.GetString("PAYMENT_KEY_ID"),
			KeySecret:     viper.GetString("PAYMENT_KEY_SECRET"),
			WebhookSecret: viper.GetString("PAYMENT_WEBHOOK_SECRET"),
			BaseURL:       viper.GetString("PAYMENT_BASE_URL"),
			Currency:      viper.GetString("PAYMENT_CURRENCY"),
		},
		Pricing: PricingConfig{
			TaxRate:     viper.GetFloat64("TAX_RATE"),
			DeliveryFee: viper.GetFloat64("DELIVERY_FEE"),
		},
		Order: OrderConfig{
			NumberMaxAttempts: viper.GetInt("ORDER_NUMBER_MAX_ATTEMPTS"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	return cfg, nil
}
