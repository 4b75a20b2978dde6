// Package container provides dependency injection using Uber FX.
package container

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"

	appsuggestion "github.com/kruger4712/mealprep/internal/application/suggestion"
	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/cache"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	httpserver "github.com/kruger4712/mealprep/internal/infrastructure/http"
	"github.com/kruger4712/mealprep/internal/infrastructure/monitoring"
	"github.com/kruger4712/mealprep/internal/infrastructure/provider/ollama"
	"github.com/kruger4712/mealprep/internal/infrastructure/provider/openai"
	"github.com/kruger4712/mealprep/internal/infrastructure/recipestore"
	"github.com/kruger4712/mealprep/internal/ports/inbound"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
	"github.com/kruger4712/mealprep/pkg/logger"
)

// Module wires the whole subsystem.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	CacheModule,
	ProviderModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration.
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Environment == "development",
		})
	},
)

// CacheModule provides the key-value repository and the response cache.
// Redis when enabled, in-memory otherwise.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.CacheRepository, error) {
		if cfg.Redis.Enabled {
			return cache.NewRedisRepository(&cfg.Redis, log)
		}
		log.Info("redis disabled, using in-memory cache repository")
		return cache.NewMemoryRepository(), nil
	},
	func(repo outbound.CacheRepository, cfg *config.Config, log *zap.Logger) *cache.ResponseCache {
		return cache.NewResponseCache(repo, cfg.Cache, cfg.Orchestrator, nil, log)
	},
)

// ProviderModule provides the generative provider clients and the recipe
// store.
var ProviderModule = fx.Provide(
	fx.Annotate(
		func(cfg *config.Config, log *zap.Logger) outbound.ProviderClient {
			return ollama.NewClient(cfg.Providers.Primary, log)
		},
		fx.ResultTags(`name:"primary"`),
	),
	fx.Annotate(
		func(cfg *config.Config, log *zap.Logger) (outbound.ProviderClient, error) {
			return openai.NewClient(cfg.Providers.Secondary, log)
		},
		fx.ResultTags(`name:"secondary"`),
	),
	func() outbound.RecipeStore {
		return recipestore.NewMemoryStore()
	},
)

// ServiceModule provides the orchestration services.
var ServiceModule = fx.Provide(
	func() *monitoring.Metrics {
		return monitoring.New(prometheus.DefaultRegisterer)
	},
	func(log *zap.Logger) *appsuggestion.Parser {
		return appsuggestion.NewParser(log)
	},
	func(store outbound.RecipeStore, cfg *config.Config, log *zap.Logger) *appsuggestion.Validator {
		return appsuggestion.NewValidator(store, cfg.Orchestrator, log)
	},
	func(store outbound.RecipeStore, log *zap.Logger) *appsuggestion.Enhancer {
		return appsuggestion.NewEnhancer(store, log)
	},
	func(cfg *config.Config, log *zap.Logger) *appsuggestion.Scorer {
		return appsuggestion.NewScorer(cfg.Orchestrator.QualityWeights, log)
	},
	appsuggestion.NewPipeline,
	func(repo outbound.CacheRepository, cfg *config.Config, log *zap.Logger) *appsuggestion.CostController {
		return appsuggestion.NewCostController(repo, cfg.Budget, log)
	},
	func(cfg *config.Config, log *zap.Logger) *appsuggestion.HealthTracker {
		return appsuggestion.NewHealthTracker(cfg.Orchestrator.HealthWindow, log)
	},
	fx.Annotate(
		newStrategies,
		fx.ParamTags(`name:"primary"`, `name:"secondary"`),
	),
	func(
		strategies []appsuggestion.Strategy,
		health *appsuggestion.HealthTracker,
		cost *appsuggestion.CostController,
		responses *cache.ResponseCache,
		cfg *config.Config,
		metrics *monitoring.Metrics,
		log *zap.Logger,
	) *appsuggestion.Coordinator {
		return appsuggestion.NewCoordinator(strategies, health, cost, responses, cfg.Orchestrator, metrics, log)
	},
	func(coordinator *appsuggestion.Coordinator, cfg *config.Config, metrics *monitoring.Metrics, log *zap.Logger) *appsuggestion.Batcher {
		return appsuggestion.NewBatcher(coordinator, cfg.Batch, metrics, log)
	},
	func(coordinator *appsuggestion.Coordinator, batcher *appsuggestion.Batcher, cfg *config.Config) inbound.SuggestionService {
		if cfg.Batch.Enabled {
			return batcher
		}
		return coordinator
	},
)

func newStrategies(
	primary outbound.ProviderClient,
	secondary outbound.ProviderClient,
	pipeline *appsuggestion.Pipeline,
	store outbound.RecipeStore,
	validator *appsuggestion.Validator,
	enhancer *appsuggestion.Enhancer,
	scorer *appsuggestion.Scorer,
	responses *cache.ResponseCache,
	cfg *config.Config,
	log *zap.Logger,
) []appsuggestion.Strategy {
	return []appsuggestion.Strategy{
		appsuggestion.NewProviderStrategy(suggestion.LevelPrimary, primary, cfg.Providers.Primary, pipeline, log),
		appsuggestion.NewProviderStrategy(suggestion.LevelSecondary, secondary, cfg.Providers.Secondary, pipeline, log),
		appsuggestion.NewRuleBasedStrategy(store, validator, enhancer, scorer, cfg.Orchestrator, log),
		appsuggestion.NewCachedStrategy(responses, validator, scorer, log),
		appsuggestion.NewDefaultStrategy(store, validator, scorer, log),
	}
}

// HTTPModule provides the web server.
var HTTPModule = fx.Provide(
	func(health *appsuggestion.HealthTracker) httpserver.HealthReporter {
		return health
	},
	httpserver.NewServer,
)

// LifecycleModule ties component lifecycles to the fx app.
var LifecycleModule = fx.Invoke(
	func(lc fx.Lifecycle, batcher *appsuggestion.Batcher, cfg *config.Config, log *zap.Logger) {
		if !cfg.Batch.Enabled {
			return
		}
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				batcher.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				batcher.Stop()
				return nil
			},
		})
	},
	func(lc fx.Lifecycle, server *httpserver.Server, cfg *config.Config, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.Start(); err != nil {
						log.Error("http server failed", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			},
		})
	},
)
