package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/hybridrec/core"
)

const (
	// EnvPrefix 是环境变量前缀，"__" 表示层级：HYBRIDREC_HYBRID__OVERFETCH_FACTOR -> hybrid.overfetch_factor
	EnvPrefix = "HYBRIDREC_"

	// ConfigPathEnvVar 可以指定配置文件路径
	ConfigPathEnvVar = "HYBRIDREC_CONFIG"
)

// Settings 是服务运行参数。
type Settings struct {
	Server  ServerSettings  `koanf:"server"`
	Log     LogSettings     `koanf:"log"`
	Hybrid  HybridSettings  `koanf:"hybrid"`
	Store   StoreSettings   `koanf:"store"`
	Catalog CatalogSettings `koanf:"catalog"`
	Data    DataSettings    `koanf:"data"`
	Breaker BreakerSettings `koanf:"breaker"`
}

type ServerSettings struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxTopN         int           `koanf:"max_top_n"`
	RateLimit       int           `koanf:"rate_limit"` // 每个 IP 每个窗口的请求数，0 表示不限流
	RateWindow      time.Duration `koanf:"rate_window"`
	TrustProxy      bool          `koanf:"trust_proxy"` // 部署在可信反向代理之后时开启，限流按转发头中的客户端 IP 计
	AdminToken      string        `koanf:"admin_token"` // /admin 接口的 Bearer Token，为空时不开放 /admin
}

type LogSettings struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json / console
}

type HybridSettings struct {
	OverfetchFactor int           `koanf:"overfetch_factor"`
	PriceFloorRatio float64       `koanf:"price_floor_ratio"`
	SourceTimeout   time.Duration `koanf:"source_timeout"`
	DefaultTopN     int           `koanf:"default_top_n"`
	DefaultScene    string        `koanf:"default_scene"`
	SceneFile       string        `koanf:"scene_file"`    // 场景表 YAML，可选
	PipelineFile    string        `koanf:"pipeline_file"` // 候选预过滤 pipeline YAML，可选
}

type StoreSettings struct {
	Backend string        `koanf:"backend"` // memory / redis
	Redis   RedisSettings `koanf:"redis"`
}

type RedisSettings struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type CatalogSettings struct {
	Source    string        `koanf:"source"` // memory / store / feast
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	Feast     FeastSettings `koanf:"feast"`
}

type FeastSettings struct {
	Host        string `koanf:"host"`
	Port        int    `koanf:"port"`
	Project     string `koanf:"project"`
	FeatureView string `koanf:"feature_view"`
	Token       string `koanf:"token"`
}

type DataSettings struct {
	PostgresDSN   string `koanf:"postgres_dsn"`
	ProductsFile  string `koanf:"products_file"`
	RatingsFile   string `koanf:"ratings_file"`
	SVDComponents int    `koanf:"svd_components"`
}

type BreakerSettings struct {
	Enabled             bool          `koanf:"enabled"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures"`
	OpenTimeout         time.Duration `koanf:"open_timeout"`
}

// DefaultSettings 返回默认参数，先于配置文件和环境变量加载。
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Addr:            ":8000",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxTopN:         100,
			RateLimit:       100,
			RateWindow:      time.Minute,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "json",
		},
		Hybrid: HybridSettings{
			OverfetchFactor: core.DefaultOverfetchFactor,
			PriceFloorRatio: core.DefaultPriceFloorRatio,
			SourceTimeout:   core.DefaultSourceTimeout,
			DefaultTopN:     core.DefaultTopN,
			DefaultScene:    core.DefaultScene,
		},
		Store: StoreSettings{
			Backend: "memory",
			Redis:   RedisSettings{Addr: "127.0.0.1:6379"},
		},
		Catalog: CatalogSettings{
			Source:    "memory",
			CacheSize: 10000,
			CacheTTL:  5 * time.Minute,
			Feast:     FeastSettings{Port: 6566, FeatureView: "product"},
		},
		Data: DataSettings{
			SVDComponents: 50,
		},
		Breaker: BreakerSettings{
			Enabled:             true,
			ConsecutiveFailures: 5,
			OpenTimeout:         30 * time.Second,
		},
	}
}

// LoadSettings 按 默认值 -> YAML 文件 -> 环境变量 的顺序加载并校验参数。
// path 为空时读取 HYBRIDREC_CONFIG；两者都为空时不读文件。
func LoadSettings(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// envTransformFunc 把 HYBRIDREC_STORE__REDIS__ADDR 转成 store.redis.addr。
// HYBRIDREC_CONFIG 只用于定位配置文件，返回空串丢弃。
func envTransformFunc(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// Validate 校验参数取值。
func (s *Settings) Validate() error {
	var problems []string
	if s.Hybrid.OverfetchFactor < 1 {
		problems = append(problems, "hybrid.overfetch_factor must be >= 1")
	}
	if s.Hybrid.PriceFloorRatio <= 0 || s.Hybrid.PriceFloorRatio > 1 {
		problems = append(problems, "hybrid.price_floor_ratio must be in (0, 1]")
	}
	if s.Hybrid.SourceTimeout <= 0 {
		problems = append(problems, "hybrid.source_timeout must be positive")
	}
	if s.Server.MaxTopN < 1 {
		problems = append(problems, "server.max_top_n must be >= 1")
	}
	if s.Hybrid.DefaultTopN < 1 || s.Hybrid.DefaultTopN > s.Server.MaxTopN {
		problems = append(problems, "hybrid.default_top_n must be in [1, server.max_top_n]")
	}
	switch s.Store.Backend {
	case "memory", "redis":
	default:
		problems = append(problems, fmt.Sprintf("store.backend %q not in (memory, redis)", s.Store.Backend))
	}
	switch s.Catalog.Source {
	case "memory", "store":
	case "feast":
		if s.Catalog.Feast.Host == "" || s.Catalog.Feast.Project == "" {
			problems = append(problems, "catalog.feast.host and catalog.feast.project are required")
		}
	default:
		problems = append(problems, fmt.Sprintf("catalog.source %q not in (memory, store, feast)", s.Catalog.Source))
	}
	switch s.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q not in (json, console)", s.Log.Format))
	}
	if len(problems) > 0 {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// HybridConfig 返回编排参数。
func (s *Settings) HybridConfig() core.HybridConfig {
	return core.HybridConfig{
		OverfetchFactor: s.Hybrid.OverfetchFactor,
		PriceFloorRatio: s.Hybrid.PriceFloorRatio,
		SourceTimeout:   s.Hybrid.SourceTimeout,
		DefaultTopN:     s.Hybrid.DefaultTopN,
		DefaultScene:    s.Hybrid.DefaultScene,
	}.WithDefaults()
}
