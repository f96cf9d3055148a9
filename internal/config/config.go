package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GRPCPort    string
	GinMode     string
	LogJSON     bool
	ServiceName string
	ServiceHost string

	DatabaseURL string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string
	BaseURL             string
	Currency            string
	ProviderTimeout     time.Duration

	FreeShippingThreshold float64
	FlatShippingFee       float64

	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	KafkaBrokers []string
	ConsulAddr   string
}

func Default() Config {
	return Config{
		Port:                  "8080",
		GRPCPort:              "5001",
		GinMode:               "debug",
		ServiceName:           "mizora",
		ServiceHost:           "localhost",
		BaseURL:               "http://localhost:3000",
		Currency:              "inr",
		ProviderTimeout:       10 * time.Second,
		FreeShippingThreshold: 499,
		FlatShippingFee:       50,
		SMTPPort:              "587",
		FromEmail:             "no-reply@mizora.in",
	}
}

// Load reads an optional .env file and layers the environment over Default.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv(Default())
}

func FromEnv(c Config) Config {
	str(&c.Port, "PORT")
	str(&c.GRPCPort, "GRPC_PORT")
	str(&c.GinMode, "GIN_MODE")
	str(&c.ServiceName, "SERVICE_NAME")
	str(&c.ServiceHost, "SERVICE_HOST")
	str(&c.DatabaseURL, "DATABASE_URL")
	str(&c.JWTSecret, "JWT_SECRET")
	str(&c.StripeSecretKey, "STRIPE_SECRET_KEY")
	str(&c.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	str(&c.BaseURL, "BASE_URL")
	str(&c.Currency, "CURRENCY")
	str(&c.SMTPHost, "SMTP_HOST")
	str(&c.SMTPPort, "SMTP_PORT")
	str(&c.SMTPUser, "SMTP_USER")
	str(&c.SMTPPass, "SMTP_PASS")
	str(&c.FromEmail, "FROM_EMAIL")
	str(&c.ConsulAddr, "CONSUL_ADDR")

	if v := os.Getenv("LOG_JSON"); v != "" {
		c.LogJSON, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.FreeShippingThreshold = f
		}
	}
	if v := os.Getenv("FLAT_SHIPPING_FEE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.FlatShippingFee = f
		}
	}
	if v := os.Getenv("PROVIDER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.ProviderTimeout = d
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
