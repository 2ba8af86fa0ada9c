package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Merchant carries the shop identity, the shared API secret and the
// store-wide order defaults. It is passed by reference into the gateway
// client, the order store and the callback dispatcher.
type Merchant struct {
	Username        string
	Password        string
	ShopCode        string
	APIHash         string
	CallbackOkURL   string
	CallbackFailURL string
	Defaults        Defaults
}

// Defaults fill unset optional order fields at construction time.
type Defaults struct {
	ProductName string
	ProductType string
	Locale      string
	Currency    string
}

type Config struct {
	Merchant Merchant

	WebhookPath string
	AppPort     string
	AppEnv      string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Merchant: Merchant{
			Username:        os.Getenv("VALLET_USERNAME"),
			Password:        os.Getenv("VALLET_PASSWORD"),
			ShopCode:        os.Getenv("VALLET_SHOP_CODE"),
			APIHash:         os.Getenv("VALLET_API_HASH"),
			CallbackOkURL:   os.Getenv("CALLBACK_OK_URL"),
			CallbackFailURL: os.Getenv("CALLBACK_FAIL_URL"),
			Defaults: Defaults{
				ProductName: os.Getenv("DEFAULT_PRODUCT_NAME"),
				ProductType: os.Getenv("DEFAULT_PRODUCT_TYPE"),
				Locale:      os.Getenv("DEFAULT_LOCALE"),
				Currency:    os.Getenv("DEFAULT_CURRENCY"),
			},
		},
		WebhookPath: getenvOr("WEBHOOK_PATH", "/webhook/payment"),
		AppPort:     getenvOr("APP_PORT", "8080"),
		AppEnv:      os.Getenv("APP_ENV"),
		DBHost:      os.Getenv("DB_HOST"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBPort:      os.Getenv("DB_PORT"),
	}

	if cfg.Merchant.Username == "" || cfg.Merchant.APIHash == "" {
		log.Fatal("Environment variables not loaded properly: VALLET_USERNAME and VALLET_API_HASH are required")
	}

	return cfg
}

func getenvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
