package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port           int                `json:"port"`
	JWTSecret      string             `json:"jwt_secret"`
	JWTTTLHours    int                `json:"jwt_ttl_hours"`
	DisableSignup  bool               `json:"disable_signup"`
	UploadMaxBytes int64              `json:"upload_max_bytes"`
	CORSAllowlist  []string           `json:"cors_allowlist"`
	Database       DatabaseConfig     `json:"database"`
	LogConfig      logger.LogConfig   `json:"log_config"`
	FileStore      FileStoreConfig    `json:"file_store"`
	AI             AIConfig           `json:"ai"`
	Conversation   ConversationConfig `json:"conversation"`
	RateLimit      RateLimitConfig    `json:"rate_limit"`
	Jobs           JobsConfig         `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIProviderConfig struct {
	Name string      `json:"name"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AIConfig binds features to "provider:model" references. Chat and Embed
// entries are tried in order until one succeeds.
type AIConfig struct {
	Providers        []AIProviderConfig `json:"providers"`
	Chat             []string           `json:"chat"`
	Embed            []string           `json:"embed"`
	Speech           string             `json:"speech"`
	Transcribe       string             `json:"transcribe"`
	Voice            string             `json:"voice"`
	Timeout          int                `json:"timeout"`
	MaxInputChars    int                `json:"max_input_chars"`
	CacheSize        int                `json:"cache_size"`
	CacheTTLMinutes  int                `json:"cache_ttl_minutes"`
	SemanticMinScore float64            `json:"semantic_min_score"`
	TokenEncoding    string             `json:"token_encoding"`
}

type ConversationConfig struct {
	Workers          int    `json:"workers"`
	QueueSize        int    `json:"queue_size"`
	ReplyTimeout     int    `json:"reply_timeout"`
	MaxHistoryTokens int    `json:"max_history_tokens"`
	SystemPrompt     string `json:"system_prompt"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

type JobsConfig struct {
	ConversationReaper    string `json:"conversation_reaper"`
	NoteEmbedding         string `json:"note_embedding"`
	EmbeddingBatch        int    `json:"embedding_batch"`
	EmbeddingCacheCleanup string `json:"embedding_cache_cleanup"`
	EmbeddingCacheMaxDays int    `json:"embedding_cache_max_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = 20 * 1024 * 1024
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	cfg.FileStore.Type = strings.ToLower(strings.TrimSpace(cfg.FileStore.Type))
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.Type != "local" && cfg.FileStore.Type != "s3" {
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.MaxInputChars <= 0 {
		cfg.AI.MaxInputChars = 20000
	}
	if cfg.AI.CacheSize <= 0 {
		cfg.AI.CacheSize = 1000
	}
	if cfg.AI.CacheTTLMinutes <= 0 {
		cfg.AI.CacheTTLMinutes = 120
	}
	if cfg.AI.SemanticMinScore <= 0 {
		cfg.AI.SemanticMinScore = 0.55
	}
	if cfg.AI.TokenEncoding == "" {
		cfg.AI.TokenEncoding = "cl100k_base"
	}
	names := make(map[string]bool, len(cfg.AI.Providers))
	for _, p := range cfg.AI.Providers {
		if p.Name == "" || p.Type == "" {
			return fmt.Errorf("ai.providers entries require name and type")
		}
		names[p.Name] = true
	}
	refs := append(append([]string{}, cfg.AI.Chat...), cfg.AI.Embed...)
	if cfg.AI.Speech != "" {
		refs = append(refs, cfg.AI.Speech)
	}
	if cfg.AI.Transcribe != "" {
		refs = append(refs, cfg.AI.Transcribe)
	}
	for _, ref := range refs {
		provider, model, ok := SplitModelRef(ref)
		if !ok || model == "" {
			return fmt.Errorf("invalid ai model reference: %q", ref)
		}
		if !names[provider] {
			return fmt.Errorf("ai model reference %q uses unknown provider", ref)
		}
	}
	if cfg.Conversation.Workers <= 0 {
		cfg.Conversation.Workers = 4
	}
	if cfg.Conversation.QueueSize <= 0 {
		cfg.Conversation.QueueSize = 64
	}
	if cfg.Conversation.ReplyTimeout <= 0 {
		cfg.Conversation.ReplyTimeout = 120
	}
	if cfg.Conversation.MaxHistoryTokens <= 0 {
		cfg.Conversation.MaxHistoryTokens = 6000
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.Jobs.ConversationReaper == "" {
		cfg.Jobs.ConversationReaper = "*/5 * * * *"
	}
	if cfg.Jobs.NoteEmbedding == "" {
		cfg.Jobs.NoteEmbedding = "*/10 * * * *"
	}
	if cfg.Jobs.EmbeddingBatch <= 0 {
		cfg.Jobs.EmbeddingBatch = 50
	}
	if cfg.Jobs.EmbeddingCacheCleanup == "" {
		cfg.Jobs.EmbeddingCacheCleanup = "0 3 * * *"
	}
	if cfg.Jobs.EmbeddingCacheMaxDays <= 0 {
		cfg.Jobs.EmbeddingCacheMaxDays = 30
	}
	return nil
}

// SplitModelRef splits "provider:model". Model names may themselves contain
// colons, so only the first one separates.
func SplitModelRef(ref string) (string, string, bool) {
	provider, model, ok := strings.Cut(strings.TrimSpace(ref), ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(provider), strings.TrimSpace(model), provider != ""
}
