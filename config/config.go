package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	WhatsAppToken       string
	WhatsAppPhoneID     string
	WhatsAppVerifyToken string
	WhatsAppAPIBase     string
	WhatsAppSendTimeout int // seconds

	MediaBucket    string
	MediaRegion    string
	MediaBaseURL   string
	MediaAccessKey string
	MediaSecretKey string

	PaymentAPIURL        string
	PaymentKeyID         string
	PaymentSecret        string
	PaymentWebhookSecret string

	RendererURL string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:              getEnv("APP_PORT", "8080"),
		AppMode:              getEnv("APP_MODE", "debug"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBName:               getEnv("DB_NAME", "waconsole"),
		DBPort:               getEnv("DB_PORT", "5432"),
		RedisHost:            getEnv("REDIS_HOST", "localhost"),
		RedisPort:            getEnv("REDIS_PORT", "6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		WhatsAppToken:        getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneID:      getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:  getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAPIBase:      getEnv("WHATSAPP_API_BASE", "https://graph.facebook.com/v20.0"),
		WhatsAppSendTimeout:  getEnvAsInt("WHATSAPP_SEND_TIMEOUT_SEC", 15),
		MediaBucket:          getEnv("MEDIA_BUCKET", ""),
		MediaRegion:          getEnv("MEDIA_REGION", "ap-south-1"),
		MediaBaseURL:         getEnv("MEDIA_BASE_URL", ""),
		MediaAccessKey:       getEnv("MEDIA_ACCESS_KEY", ""),
		MediaSecretKey:       getEnv("MEDIA_SECRET_KEY", ""),
		PaymentAPIURL:        getEnv("PAYMENT_API_URL", "https://api.razorpay.com/v1"),
		PaymentKeyID:         getEnv("PAYMENT_KEY_ID", ""),
		PaymentSecret:        getEnv("PAYMENT_KEY_SECRET", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		RendererURL:          getEnv("RENDERER_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
