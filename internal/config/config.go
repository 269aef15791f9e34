package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendPostgres = "postgres"
	BackendChromem  = "chromem"

	DriverPgdriver = "pgdriver"
	DriverPq       = "pq"

	LimiterMemory = "memory"
	LimiterRedis  = "redis"
)

// DefaultTemperature applies when llm.temperature is absent. An explicit 0
// is kept.
const DefaultTemperature = 0.7

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Database    DatabaseConfig    `yaml:"database"`
	Chromem     ChromemConfig     `yaml:"chromem"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Redis       RedisConfig       `yaml:"redis"`
	Chat        ChatConfig        `yaml:"chat"`
	Embed       EmbedConfig       `yaml:"embed"`
	ResumePath  string            `yaml:"resume_path"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	MaxTokens   int64         `yaml:"max_tokens"`
	Temperature *float64      `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	SiteURL     string        `yaml:"site_url"`
	SiteTitle   string        `yaml:"site_title"`
}

type VectorStoreConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	Password       string `yaml:"password"`
	Driver         string `yaml:"driver"`
	MigrationsPath string `yaml:"migrations_path"`
	Debug          bool   `yaml:"debug"`
}

type ChromemConfig struct {
	Path          string `yaml:"path"`
	InMemory      bool   `yaml:"in_memory"`
	Collection    string `yaml:"collection"`
	Compress      bool   `yaml:"compress"`
	ExportPath    string `yaml:"export_path"`
	EncryptionKey string `yaml:"encryption_key"`
}

type RateLimitConfig struct {
	Limit      int           `yaml:"limit"`
	Window     time.Duration `yaml:"window"`
	Backend    string        `yaml:"backend"`
	MaxEntries int           `yaml:"max_entries"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type ChatConfig struct {
	OwnerName   string `yaml:"owner_name"`
	TopK        int    `yaml:"top_k"`
	WordBudget  int    `yaml:"word_budget"`
	PromptWords int    `yaml:"prompt_words"`
	MaxLength   int    `yaml:"max_length"`
}

type EmbedConfig struct {
	Secret string `yaml:"secret"`
}

// LoadConfig reads the YAML file at path, applies environment overrides and
// defaults, then validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.Embedding.APIKey, "OPENAI_API_KEY")
	set(&c.LLM.APIKey, "OPENROUTER_API_KEY")
	set(&c.Database.URL, "SUPABASE_DB_URL")
	set(&c.Database.Password, "SUPABASE_DB_PASSWORD")
	set(&c.Embed.Secret, "EMBED_SECRET_KEY")
	set(&c.Redis.Addr, "REDIS_ADDR")
	set(&c.LLM.SiteURL, "SITE_URL")
	set(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions == 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://openrouter.ai/api/v1/"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "deepseek/deepseek-r1-0528:free"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.Temperature == nil {
		t := DefaultTemperature
		c.LLM.Temperature = &t
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = 30 * time.Second
	}
	if c.LLM.SiteTitle == "" {
		c.LLM.SiteTitle = "Portfolio Chat"
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = BackendPostgres
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPgdriver
	}
	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "file://migrations"
	}
	if c.Chromem.Path == "" {
		c.Chromem.Path = "./chromemdb"
	}
	if c.Chromem.Collection == "" {
		c.Chromem.Collection = "cv_embeddings"
	}
	if c.RateLimit.Limit == 0 {
		c.RateLimit.Limit = 10
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.RateLimit.Backend == "" {
		c.RateLimit.Backend = LimiterMemory
	}
	if c.RateLimit.MaxEntries == 0 {
		c.RateLimit.MaxEntries = 10000
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "ratelimit:chat:"
	}
	if c.Chat.TopK == 0 {
		c.Chat.TopK = 5
	}
	if c.Chat.WordBudget == 0 {
		c.Chat.WordBudget = 75
	}
	if c.Chat.PromptWords == 0 {
		c.Chat.PromptWords = 50
	}
	if c.Chat.MaxLength == 0 {
		c.Chat.MaxLength = 2000
	}
	if c.ResumePath == "" {
		c.ResumePath = "./configs/resume.yaml"
	}
}

// Validate reports structural mistakes. Missing credentials are not checked
// here; the component that needs one fails when it is constructed.
func (c *Config) Validate() error {
	var problems []string
	switch c.VectorStore.Backend {
	case BackendPostgres, BackendChromem:
	default:
		problems = append(problems, fmt.Sprintf("vector_store.backend %q is not one of postgres, chromem", c.VectorStore.Backend))
	}
	switch c.Database.Driver {
	case DriverPgdriver, DriverPq:
	default:
		problems = append(problems, fmt.Sprintf("database.driver %q is not one of pgdriver, pq", c.Database.Driver))
	}
	switch c.RateLimit.Backend {
	case LimiterMemory, LimiterRedis:
	default:
		problems = append(problems, fmt.Sprintf("rate_limit.backend %q is not one of memory, redis", c.RateLimit.Backend))
	}
	if c.RateLimit.Limit < 0 || c.RateLimit.Window < 0 {
		problems = append(problems, "rate_limit.limit and rate_limit.window must be positive")
	}
	if t := c.LLM.Temperature; t != nil && (*t < 0 || *t > 2) {
		problems = append(problems, "llm.temperature must be between 0 and 2")
	}
	if c.Chat.TopK < 0 || c.Chat.WordBudget < 0 || c.Chat.MaxLength < 0 {
		problems = append(problems, "chat.top_k, chat.word_budget and chat.max_length must be positive")
	}
	if c.Embedding.Dimensions < 0 {
		problems = append(problems, "embedding.dimensions must be positive")
	}
	if c.RateLimit.Backend == LimiterRedis && c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required when rate_limit.backend is redis")
	}
	if c.Chromem.EncryptionKey != "" && len(c.Chromem.EncryptionKey) != 32 {
		problems = append(problems, "chromem.encryption_key must be 32 bytes")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
