package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vieagent/vieagent/app/core/srv"
	"github.com/vieagent/vieagent/pkg/selector"
	"github.com/vieagent/vieagent/pkg/types"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	conf.SetConfigBytes(raw)

	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func (c CoreConfig) LoadCustomConfig(cfg any) error {
	if len(c.bytes) == 0 {
		return nil
	}
	if err := toml.Unmarshal(c.bytes, cfg); err != nil {
		return err
	}
	return nil
}

type CustomConfig[T any] struct {
	CustomConfig T `toml:"custom_config"`
}

func NewCustomConfigPayload[T any]() CustomConfig[T] {
	return CustomConfig[T]{}
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr     string      `toml:"addr"`
	Log      Log         `toml:"log"`
	Postgres PGConfig    `toml:"postgres"`
	Redis    RedisConfig `toml:"redis"`

	AI        srv.AIConfig    `toml:"ai"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Selector  SelectorConfig  `toml:"selector"`
	Retention RetentionConfig `toml:"retention"`
	Semaphore SemaphoreConfig `toml:"semaphore"`

	bytes []byte `toml:"-"`
}

func (c *CoreConfig) SetConfigBytes(raw []byte) {
	c.bytes = raw
}

// RetrievalConfig carries the search defaults; requests can override any field
// and are re-validated either way.
type RetrievalConfig struct {
	Search      types.SearchConfig `toml:"search"`
	CacheTTLSec int                `toml:"cache_ttl_sec"`
}

func (c RetrievalConfig) SearchDefaults() types.SearchConfig {
	cfg := c.Search
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.7
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 10
	}
	if cfg.SemanticWeight == 0 && cfg.KeywordWeight == 0 {
		cfg.SemanticWeight = 0.7
		cfg.KeywordWeight = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.MaxSources == 0 {
		cfg.MaxSources = 5
	}
	if cfg.TimeoutMs == 0 {
		cfg.TimeoutMs = 10000
	}
	return cfg
}

type ChunkerConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

type SelectorConfig struct {
	Models  []types.ModelConfig   `toml:"models"`
	Weights selector.ScoreWeights `toml:"weights"`
}

type RetentionConfig struct {
	// PerformanceDays bounds how long model performance records are kept.
	PerformanceDays int    `toml:"performance_days"`
	SweepCron       string `toml:"sweep_cron"`
}

type SemaphoreConfig struct {
	Ingest IngestSemaphoreConfig `toml:"ingest"`
}

type IngestSemaphoreConfig struct {
	MaxConcurrency int `toml:"max_concurrency"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("VIEAGENT_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("VIEAGENT_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	Cluster       bool     `toml:"cluster"`
	ClusterAddrs  []string `toml:"cluster_addrs"`
	ClusterPasswd string   `toml:"cluster_passwd"`

	KeyPrefix string `toml:"key_prefix"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("VIEAGENT_REDIS_ADDR")
	r.Password = os.Getenv("VIEAGENT_REDIS_PASSWORD")
	if dbStr := os.Getenv("VIEAGENT_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("VIEAGENT_LOG_LEVEL")
	l.Path = os.Getenv("VIEAGENT_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
