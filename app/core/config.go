package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/prodpilot/prodpilot/app/core/srv"
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
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr     string   `toml:"addr"`
	Log      Log      `toml:"log"`
	Postgres PGConfig `toml:"postgres"`

	AI     srv.AIConfig `toml:"ai"`
	Ingest IngestConfig `toml:"ingest"`
}

// IngestConfig 文档入库管道配置
type IngestConfig struct {
	MaxConcurrency int    `toml:"max_concurrency"` // 单实例并行处理的文档数，默认 4
	MaxRetryTimes  int    `toml:"max_retry_times"` // 文档处理失败后的最大补偿次数，默认 3
	FetchTimeout   int    `toml:"fetch_timeout"`   // 来源拉取超时(秒)，默认 60
	EmbedTimeout   int    `toml:"embed_timeout"`   // 单文档向量化超时(秒)，默认 300
	GithubAPIBase  string `toml:"github_api_base"` // GitHub API 地址，便于企业版或测试替换
	MaxUploadSize  int64  `toml:"max_upload_size"` // 单个上传文件大小上限(字节)
}

func (c *IngestConfig) FromENV() {
	if v := os.Getenv("PRODPILOT_INGEST_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrency = n
		}
	}
	c.GithubAPIBase = os.Getenv("PRODPILOT_GITHUB_API_BASE")
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("PRODPILOT_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.AI.Token = os.Getenv("PRODPILOT_AI_TOKEN")
	c.AI.Endpoint = os.Getenv("PRODPILOT_AI_ENDPOINT")
	c.AI.DefaultModel = os.Getenv("PRODPILOT_AI_EMBEDDING_MODEL")
	c.Ingest.FromENV()
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("PRODPILOT_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("PRODPILOT_LOG_LEVEL")
	l.Path = os.Getenv("PRODPILOT_LOG_PATH")
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
