package core

import (
	"io"
	"log/slog"
	"os"

	"github.com/go-redis/redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vieagent/vieagent/app/core/srv"
	"github.com/vieagent/vieagent/app/store"
	"github.com/vieagent/vieagent/app/store/sqlstore"
	"github.com/vieagent/vieagent/pkg/cache"
	"github.com/vieagent/vieagent/pkg/selector"
	"github.com/vieagent/vieagent/pkg/types"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	store store.Store
	cache types.Cache
	redis redis.UniversalClient

	metrics *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	core := &Core{
		cfg:     cfg,
		metrics: NewMetrics("vieagent", "core"),
	}

	setupSqlStore(core)
	setupCache(core)

	core.srv = srv.SetupSrvs(
		srv.ApplyAI(cfg.AI),
		srv.ApplySelector(cfg.Selector.Models, selectorWeights(cfg.Selector), core.store.ModelPerformanceStore()),
	)

	return core
}

// NewCore assembles a core from prebuilt dependencies. MustSetupCore remains
// the production path; this constructor lets callers inject their own store,
// cache and services.
func NewCore(cfg CoreConfig, s store.Store, c types.Cache, services *srv.Srv) *Core {
	return &Core{
		cfg:     cfg,
		srv:     services,
		store:   s,
		cache:   c,
		metrics: NewMetrics("vieagent", "core"),
	}
}

func selectorWeights(cfg SelectorConfig) selector.ScoreWeights {
	w := cfg.Weights
	if w == (selector.ScoreWeights{}) {
		return selector.DefaultScoreWeights()
	}
	return w
}

func setupSqlStore(core *Core) {
	provider := sqlstore.MustSetup(core.cfg.Postgres)()
	if err := provider.Install(); err != nil {
		panic(err)
	}
	core.store = provider
	slog.Info("sql store ready")
}

func setupCache(core *Core) {
	if core.cfg.Redis.Addr == "" && len(core.cfg.Redis.ClusterAddrs) == 0 {
		core.cache = cache.NewMemoryCache()
		return
	}

	if core.cfg.Redis.Cluster {
		core.redis = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    core.cfg.Redis.ClusterAddrs,
			Password: core.cfg.Redis.ClusterPasswd,
		})
	} else {
		core.redis = redis.NewClient(&redis.Options{
			Addr:     core.cfg.Redis.Addr,
			Password: core.cfg.Redis.Password,
			DB:       core.cfg.Redis.DB,
		})
	}
	core.cache = cache.NewRedisCache(core.redis, core.cfg.Redis.KeyPrefix)
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) Store() store.Store {
	return s.store
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Cache() types.Cache {
	return s.cache
}

func (s *Core) Redis() redis.UniversalClient {
	return s.redis
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

// ReloadAI rebuilds the AI drivers from a freshly loaded config.
func (s *Core) ReloadAI(cfg srv.AIConfig) error {
	return s.srv.ReloadAI(cfg)
}

func (s *Core) GetAIStatus() map[string]interface{} {
	return s.srv.GetAIStatus()
}
