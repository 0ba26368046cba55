package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"TalkIdeas/internal/config"
	"TalkIdeas/internal/importer"
	"TalkIdeas/internal/infrastructure/httpapi"
	"TalkIdeas/internal/infrastructure/llm"
	"TalkIdeas/internal/infrastructure/parser"
	"TalkIdeas/internal/infrastructure/placeholder"
	"TalkIdeas/internal/infrastructure/scheduler"
	"TalkIdeas/internal/infrastructure/speech"
	"TalkIdeas/internal/infrastructure/storage"
	"TalkIdeas/internal/infrastructure/telegram"
	"TalkIdeas/internal/infrastructure/watcher"
	"TalkIdeas/internal/logging"
	"TalkIdeas/internal/ports"
	"TalkIdeas/internal/staging"
	"TalkIdeas/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Repository
	machine   *staging.Machine
	processor *usecase.Processor
}

// New opens the store and builds every collaborator. A store that cannot be
// opened or bootstrapped is fatal.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	transcriber, err := buildTranscriber(cfg.Transcriber)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	generator, err := buildGenerator(cfg.Ideas, baseLogger.With("component", "ideas"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	rules := stagingRules(cfg.Staging)
	machine := staging.NewMachine(staging.Config{
		StagingDir:  cfg.Staging.StagingDir,
		Rules:       rules,
		SettleDelay: cfg.Staging.SettleDelay,
	}, baseLogger.With("component", "staging"))

	processor := usecase.NewProcessor(usecase.ProcessorDeps{
		Repository:  store,
		Transcriber: transcriber,
		Generator:   generator,
		Importer:    buildImporter(),
		Tracker:     machine,
		StagingDir:  cfg.Staging.StagingDir,
		Rules:       rules,
		Logger:      baseLogger.With("component", "processor"),
	})

	baseLogger.Debug("application ready",
		"db", cfg.Database.Path,
		"transcriber", cfg.Transcriber.Provider,
		"ideas", cfg.Ideas.Provider,
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		machine:   machine,
		processor: processor,
	}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

// Config returns the effective configuration.
func (a *Application) Config() config.Config {
	return a.cfg
}

// Store exposes the repository for read commands.
func (a *Application) Store() ports.Store {
	return a.store
}

// Processor returns the orchestration use case.
func (a *Application) Processor() *usecase.Processor {
	return a.processor
}

// Publisher returns the digest publisher, or an error when Telegram is not configured.
func (a *Application) Publisher() (*usecase.Publisher, error) {
	tg := a.cfg.Notifications.Telegram
	if !tg.Enabled() {
		return nil, errors.New("telegram notifications are not configured (set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID)")
	}
	notifier := telegram.NewNotifier(tg.BaseURL, tg.BotToken, tg.ChatID)
	return usecase.NewPublisher(a.store, notifier, a.logger.With("component", "publisher")), nil
}

// ResetStore drops and recreates the schema.
func (a *Application) ResetStore(ctx context.Context) error {
	return a.store.Reset(ctx)
}

// Watch stages trigger files from the watched folder until ctx is cancelled.
// A periodic sweep catches files that arrived without an event.
func (a *Application) Watch(ctx context.Context) error {
	if err := os.MkdirAll(a.cfg.Staging.StagingDir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	w, err := watcher.New(a.cfg.Staging.WatchDir, a.machine, a.logger.With("component", "watcher"))
	if err != nil {
		return err
	}

	sweeps := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Staging.SweepInterval),
		a.machine,
		a.cfg.Staging.WatchDir,
		a.logger.With("component", "sweeper"),
	)
	if err := sweeps.Start(ctx); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sweeps.Stop(stopCtx); err != nil {
			a.logger.Error("stop sweeper", "error", err)
		}
	}()

	a.logger.Info("file monitor started",
		"watch_dir", a.cfg.Staging.WatchDir,
		"staging_dir", a.cfg.Staging.StagingDir,
		"prefix", a.cfg.Staging.TriggerPrefix,
	)
	return w.Run(ctx)
}

// Serve runs the dashboard API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context, addr string) error {
	server := httpapi.NewServer(a.store, a.logger.With("component", "httpapi"))

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func stagingRules(cfg config.StagingConfig) staging.Rules {
	rules := staging.DefaultRules()
	if cfg.TriggerPrefix != "" {
		rules.Prefix = cfg.TriggerPrefix
	}
	if len(cfg.Extensions) > 0 {
		rules.Extensions = cfg.Extensions
	}
	return rules
}

func buildTranscriber(cfg config.TranscriberConfig) (ports.Transcriber, error) {
	switch cfg.Provider {
	case "", config.ProviderPlaceholder:
		return placeholder.Transcriber{}, nil
	case config.ProviderOpenAI:
		return llm.NewWhisperTranscriber(cfg)
	case config.ProviderHTTP:
		if cfg.Endpoint == "" {
			return nil, errors.New("transcriber: http provider needs an endpoint")
		}
		return speech.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("transcriber: unknown provider %q", cfg.Provider)
	}
}

func buildGenerator(cfg config.IdeasConfig, logger *slog.Logger) (ports.IdeaGenerator, error) {
	switch cfg.Provider {
	case "", config.ProviderPlaceholder:
		return placeholder.Generator{}, nil
	case config.ProviderOpenAI:
		return llm.NewIdeaGenerator(cfg, logger)
	default:
		return nil, fmt.Errorf("ideas: unknown provider %q", cfg.Provider)
	}
}

func buildImporter() *importer.Registry {
	html := parser.NewHTMLTranscript(nil)
	registry := importer.NewRegistry()
	registry.Register(html)
	registry.Register(parser.NewTextTranscript())
	registry.RegisterURL(html)
	return registry
}
