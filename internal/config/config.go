package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Auth    AuthConfig    `mapstructure:"auth"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Payment PaymentConfig `mapstructure:"payment"`
	TTS     TTSConfig     `mapstructure:"tts"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type LLMConfig struct {
	DefaultProvider string       `mapstructure:"default_provider"`
	Groq            GroqConfig   `mapstructure:"groq"`
	Gemini          GeminiConfig `mapstructure:"gemini"`
}

type GroqConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type PaymentConfig struct {
	DefaultProvider string         `mapstructure:"default_provider"`
	AmountMinor     int64          `mapstructure:"amount_minor"`
	Currency        string         `mapstructure:"currency"`
	CallbackURL     string         `mapstructure:"callback_url"`
	ClientURL       string         `mapstructure:"client_url"`
	Stripe          StripeConfig   `mapstructure:"stripe"`
	Paystack        PaystackConfig `mapstructure:"paystack"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type PaystackConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type TTSConfig struct {
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
}

type ElevenLabsConfig struct {
	APIKey  string `mapstructure:"api_key"`
	VoiceID string `mapstructure:"voice_id"`
}

type LimitsConfig struct {
	ChatRequestsPerMinute int `mapstructure:"chat_requests_per_minute"`
	ChatBurst             int `mapstructure:"chat_burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Mongo
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "haven")
	v.SetDefault("mongo.connect_timeout", "10s")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "720h") // 30 days

	// LLM
	v.SetDefault("llm.default_provider", "groq")
	v.SetDefault("llm.groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")

	// Payment
	v.SetDefault("payment.default_provider", "stripe")
	v.SetDefault("payment.amount_minor", 999) // $9.99
	v.SetDefault("payment.currency", "usd")
	v.SetDefault("payment.client_url", "http://localhost:3000")

	// TTS
	v.SetDefault("tts.elevenlabs.voice_id", "EXAVITQu4vr4xnSDxMaL")

	// Limits
	v.SetDefault("limits.chat_requests_per_minute", 20)
	v.SetDefault("limits.chat_burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Mongo
	v.BindEnv("mongo.uri", "MONGO_URI")

	// Redis
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	// LLM API keys
	v.BindEnv("llm.groq.api_key", "GROQ_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")

	// Payment providers
	v.BindEnv("payment.stripe.secret_key", "STRIPE_SECRET_KEY")
	v.BindEnv("payment.stripe.webhook_secret", "STRIPE_WEBHOOK_SECRET")
	v.BindEnv("payment.paystack.secret_key", "PAYSTACK_SECRET_KEY")
	v.BindEnv("payment.callback_url", "PAYMENT_CALLBACK_URL")
	v.BindEnv("payment.client_url", "CLIENT_URL")

	// TTS
	v.BindEnv("tts.elevenlabs.api_key", "ELEVENLABS_API_KEY")
}
