package environments

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ProviderConfig configures the messaging provider. BusinessNumber is the
// business-line identifier used as the default sender for outbound
// messages; inbound direction detection uses the number each payload
// carries, not this value. An empty Token disables the send API client.
type ProviderConfig struct {
	APIURL         string
	PhoneNumberID  string
	Token          string
	BusinessNumber string
	Timeout        time.Duration
}

type AuthConfig struct {
	SampleDataAPIKey string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "3000"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "whatsapp"),
			Password: GetEnv("DB_PASSWORD", "whatsapp123"),
			DBName:   GetEnv("DB_NAME", "whatsapp_clone"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			APIURL:         GetEnv("PROVIDER_API_URL", "https://graph.facebook.com/v19.0"),
			PhoneNumberID:  GetEnv("PROVIDER_PHONE_NUMBER_ID", ""),
			Token:          GetEnv("PROVIDER_TOKEN", ""),
			BusinessNumber: GetEnv("BUSINESS_PHONE_NUMBER", "918329446654"),
			Timeout:        time.Duration(GetEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Auth: AuthConfig{
			SampleDataAPIKey: GetEnv("SAMPLE_DATA_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
