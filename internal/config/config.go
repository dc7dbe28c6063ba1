package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	JWT       JWTConfig
	Redis     RedisConfig
	AI        AIConfig
	TTS       TTSConfig  `mapstructure:"tts"`
	STT       STTConfig  `mapstructure:"stt"`
	Auth      AuthConfig `mapstructure:"auth"`
	Dataset   DatasetConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
	// 对外访问地址，用于拼接 OAuth 回调 URL
	PublicURL string `mapstructure:"public_url"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	// 上游生成预算，超时后流直接结束
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type TTSConfig struct {
	APIKey  string `mapstructure:"api_key"`
	VoiceID string `mapstructure:"voice_id"`
	ModelID string `mapstructure:"model_id"`
}

type STTConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

// AuthConfig 托管身份提供方（OAuth 跳转 + 邮箱魔法链接）
type AuthConfig struct {
	ProviderURL  string `mapstructure:"provider_url"`
	APIKey       string `mapstructure:"api_key"`
	DefaultPath  string `mapstructure:"default_path"`
	CookieDomain string `mapstructure:"cookie_domain"`
}

type DatasetConfig struct {
	VideosPath   string `mapstructure:"videos_path"`
	DocumentPath string `mapstructure:"document_path"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("PULSE")
	viper.AutomaticEnv()

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.public_url", "PUBLIC_URL")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// TTS / STT
	viper.BindEnv("tts.api_key", "ELEVENLABS_API_KEY")
	viper.BindEnv("stt.api_key", "DEEPGRAM_API_KEY")

	// Auth provider
	viper.BindEnv("auth.provider_url", "AUTH_PROVIDER_URL")
	viper.BindEnv("auth.api_key", "AUTH_API_KEY")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if cfg.AI.TimeoutSeconds <= 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.Auth.DefaultPath == "" {
		cfg.Auth.DefaultPath = "/dashboard/training"
	}

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
