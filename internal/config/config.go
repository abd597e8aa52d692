package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Keys     APIKeys
	Chat     ChatConfig
	Tts      TtsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type APIKeys struct {
	GoogleGemini string
	Tts          string
}

type ChatConfig struct {
	// Delay between streamed chunk publishes; purely a pacing concern,
	// zero disables it.
	StreamDelay time.Duration
	GeminiModel string
	TitleTopic  string
}

type TtsConfig struct {
	Endpoint     string
	DefaultVoice string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DATABASE_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "default_secret"),
			TokenTTL:  time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Tts:          getEnv("TTS_API_KEY", ""),
		},
		Chat: ChatConfig{
			StreamDelay: time.Duration(getEnvAsInt("CHAT_STREAM_DELAY_MS", 500)) * time.Millisecond,
			GeminiModel: getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			TitleTopic:  getEnv("SESSION_TITLE_TOPIC_NAME", "GENERATE_SESSION_TITLE"),
		},
		Tts: TtsConfig{
			Endpoint:     getEnv("TTS_ENDPOINT", "https://chirp.googleapis.com/v1/tts:generate"),
			DefaultVoice: getEnv("TTS_DEFAULT_VOICE", "en-US-Wavenet-D"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
