package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Teams         TeamsConfig         `mapstructure:"teams"`
	Ticketing     TicketingConfig     `mapstructure:"ticketing"`
	Triage        TriageConfig        `mapstructure:"triage"`
	Conversations ConversationsConfig `mapstructure:"conversations"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
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

type LLMConfig struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	RequestTimeout  time.Duration   `mapstructure:"request_timeout"`
	Gemini          GeminiConfig    `mapstructure:"gemini"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	Ollama          OllamaConfig    `mapstructure:"ollama"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type TeamsConfig struct {
	AppID       string        `mapstructure:"app_id"`
	AppPassword string        `mapstructure:"app_password"`
	TokenURL    string        `mapstructure:"token_url"`
	Scope       string        `mapstructure:"scope"`
	SendTimeout time.Duration `mapstructure:"send_timeout"`
}

type TicketingConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Email          string        `mapstructure:"email"`
	APIToken       string        `mapstructure:"api_token"`
	ProjectKey     string        `mapstructure:"project_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type TriageConfig struct {
	// FallbackTurnThreshold is the turn count at which the deterministic
	// "enough information" heuristic fires when the LLM is unavailable.
	FallbackTurnThreshold int `mapstructure:"fallback_turn_threshold"`
	MaxKeyPoints          int `mapstructure:"max_key_points"`
}

type ConversationsConfig struct {
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	MaxCostBytes int64         `mapstructure:"max_cost_bytes"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
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
	v.SetDefault("server.port", 3978)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "sapira")
	v.SetDefault("database.database", "sapira_triage")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// LLM
	v.SetDefault("llm.default_provider", "gemini")
	v.SetDefault("llm.request_timeout", "20s")
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.ollama.host", "")
	v.SetDefault("llm.ollama.default_model", "llama3")

	// Teams
	v.SetDefault("teams.token_url", "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token")
	v.SetDefault("teams.scope", "https://api.botframework.com/.default")
	v.SetDefault("teams.send_timeout", "15s")

	// Ticketing
	v.SetDefault("ticketing.request_timeout", "30s")

	// Triage
	v.SetDefault("triage.fallback_turn_threshold", 6)
	v.SetDefault("triage.max_key_points", 5)

	// Conversations
	v.SetDefault("conversations.idle_ttl", "24h")
	v.SetDefault("conversations.max_cost_bytes", 67108864) // 64 MiB

	// Rate limit
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// LLM API Keys
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Teams bot credentials
	v.BindEnv("teams.app_id", "TEAMS_APP_ID")
	v.BindEnv("teams.app_password", "TEAMS_APP_PASSWORD")

	// Ticketing credentials
	v.BindEnv("ticketing.base_url", "JIRA_BASE_URL")
	v.BindEnv("ticketing.email", "JIRA_EMAIL")
	v.BindEnv("ticketing.api_token", "JIRA_API_TOKEN")
	v.BindEnv("ticketing.project_key", "JIRA_PROJECT_KEY")
}
