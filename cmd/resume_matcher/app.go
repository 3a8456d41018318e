package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/cache"
	"github.com/jonathan/resume-matcher/internal/categorize"
	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/db"
	"github.com/jonathan/resume-matcher/internal/esco"
	"github.com/jonathan/resume-matcher/internal/fetch"
	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/pipeline"
	"github.com/jonathan/resume-matcher/internal/schemas"
	"github.com/jonathan/resume-matcher/internal/server"
)

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *observability.Metrics
	validator *esco.Validator
	scanner   *pipeline.Scanner
	fetcher   *fetch.CachedFetcher
	health    server.HealthCheck
	closers   []func()
}

// loadConfig reads --config (or the defaults) and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if escoURL != "" {
		cfg.ESCO.BaseURL = escoURL
	}
	if noValidation {
		disabled := false
		cfg.Validation.Enabled = &disabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp wires configuration, logging, metrics, caches, the ESCO validator and the scanner.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := observability.NewLogger(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, metrics: observability.NewMetrics()}

	cacheOpts := []cache.Option{cache.WithLogger(logger), cache.WithRecorder(a.metrics)}
	store, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if store != nil {
		cacheOpts = append(cacheOpts, cache.WithStore(store))
	}

	client := esco.NewClient(cfg.ClientConfig(), logger, a.metrics)
	caches := esco.NewCaches(cfg.SearchTTL(), cfg.ValidationTTL(), cacheOpts...)
	a.validator = esco.NewValidator(client, caches, cfg.ValidatorConfig(), logger, a.metrics)

	var validator pipeline.Validator
	if cfg.ValidationEnabled() {
		validator = a.validator
	}
	dict := categorize.DefaultDictionary()
	if path := cfg.Extraction.DictionaryPath; path != "" {
		extra, err := categorize.LoadDictionary(path)
		if err != nil {
			a.Close()
			return nil, err
		}
		dict = dict.Merge(extra)
	}
	a.scanner = pipeline.NewScanner(cfg.PipelineOptions(), categorize.NewMatcher(dict), validator, logger, a.metrics)
	a.fetcher = fetch.NewCachedFetcher(fetch.DefaultPageTTL, nil, logger, cacheOpts...)
	return a, nil
}

// openStore connects the optional second cache tier named by cache.driver.
func (a *app) openStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.Cache.Driver {
	case "redis":
		store, err := cache.NewRedisStore(ctx, a.cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis cache: %w", err)
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		a.health = store.Ping
		a.logger.Debug("using redis cache tier")
		return store, nil
	case "postgres":
		database, err := db.Connect(ctx, a.cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres cache: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		if purged, err := database.PurgeExpiredCacheEntries(ctx); err != nil {
			a.logger.Warn("failed to purge expired cache entries", zap.Error(err))
		} else {
			a.logger.Debug("using postgres cache tier", zap.Int64("purged", purged))
		}
		a.health = database.Ping
		return db.NewCacheStore(database), nil
	default:
		return nil, nil
	}
}

// Close releases connections and flushes the logger.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// writeOutput writes v as indented JSON to path, or to the command's stdout when path is empty.
// When schemaName is set the document is checked against the embedded schema first.
func writeOutput(cmd *cobra.Command, path, schemaName string, v any) error {
	if schemaName != "" {
		if err := schemas.ValidateValue(schemaName, v); err != nil {
			var validationErr *schemas.ValidationError
			if errors.As(err, &validationErr) {
				return fmt.Errorf("generated JSON does not validate against schema: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Could not validate output against schema: %v\n", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Output: %s\n", path)
	return nil
}
