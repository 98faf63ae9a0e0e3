package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abdhe/comparison-poster/pkg/article"
	"github.com/abdhe/comparison-poster/pkg/catalog"
	"github.com/abdhe/comparison-poster/pkg/config"
	"github.com/abdhe/comparison-poster/pkg/llm"
	"github.com/abdhe/comparison-poster/pkg/pipeline"
	"github.com/abdhe/comparison-poster/pkg/publish"
	"github.com/abdhe/comparison-poster/pkg/queue"
	"github.com/abdhe/comparison-poster/pkg/resilience"
)

// app holds everything a posting command needs.
type app struct {
	cfg     config.Config
	sites   []config.Site
	store   *queue.Store
	arbiter *llm.Arbiter
	pipe    *pipeline.Pipeline
	cache   *catalog.Cache
	log     *logrus.Logger
}

// buildStore opens just the config, sites and queue store, enough for the
// control commands.
func buildStore(log *logrus.Logger) (config.Config, []config.Site, *queue.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	sites, err := config.LoadSites(cfg.SitesFile)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	store, err := queue.Open(cfg.QueueDB)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log.Debugf("opened queue store %s with %d sites", cfg.QueueDB, len(sites))
	return cfg, sites, store, nil
}

// buildApp wires the full pipeline: providers, arbiter, catalog (with the
// Redis cache when configured), publishers, store.
func buildApp(ctx context.Context, log *logrus.Logger) (*app, error) {
	cfg, sites, store, err := buildStore(log)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePosting(); err != nil {
		return nil, err
	}

	keys, err := resilience.LoadKeys(cfg.FallbackKeysFile)
	if err != nil {
		return nil, err
	}
	pool, err := resilience.NewKeyPool(keys)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.FallbackKeysFile, err)
	}
	log.Infof("loaded %d fallback credentials", pool.Size())

	primary := llm.NewPrimaryClient(cfg.PrimaryURL,
		llm.WithPrimaryTimeout(cfg.RequestTimeout),
		llm.WithProbeTimeout(cfg.ProbeTimeout),
	)
	fallback := llm.NewRotatingClient(cfg.FallbackURL, cfg.FallbackModel, pool, log,
		llm.WithRotatingTimeout(cfg.RequestTimeout),
		llm.WithMaxRetries(cfg.MaxRetries),
	)
	arbiter := llm.NewArbiter(primary, fallback, log, llm.WithCooldown(cfg.HealthCooldown))

	var searcher catalog.Searcher = catalog.NewClient(
		cfg.CatalogURL, cfg.CatalogAccessKey, cfg.CatalogPartnerTag, cfg.RequestTimeout)

	var cache *catalog.Cache
	if cfg.RedisAddr != "" {
		cache = catalog.NewCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := cache.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Warnf("redis unreachable, catalog cache disabled: %v", err)
			cache.Close()
			cache = nil
		} else {
			searcher = catalog.NewCachingSearcher(searcher, cache, log)
			log.Infof("catalog cache enabled (ttl=%s)", cfg.CacheTTL)
		}
	}

	publishers := make(map[int]pipeline.Publisher, len(sites))
	for _, site := range sites {
		publishers[site.ID] = publish.NewClient(site.URL, site.Username, site.AppPassword, log)
	}

	pipe := pipeline.New(pipeline.Options{
		Catalog:     searcher,
		Generator:   article.NewGenerator(arbiter, log),
		Publishers:  publishers,
		Store:       store,
		Sites:       sites,
		MaxProducts: cfg.MaxProducts,
		PostDelay:   cfg.PostDelay,
		Log:         log,
	})

	return &app{
		cfg:     cfg,
		sites:   sites,
		store:   store,
		arbiter: arbiter,
		pipe:    pipe,
		cache:   cache,
		log:     log,
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// logStats prints the provider counters at the end of a posting command.
func (a *app) logStats() {
	s := a.arbiter.Stats()
	a.log.Infof("provider stats: total=%d primary=%d/%d fallback=%d/%d primary_healthy=%t",
		s.TotalRequests, s.PrimarySuccess, s.PrimaryFailure,
		s.FallbackSuccess, s.FallbackFailure, s.PrimaryHealthy)
}
