// Why this file: ./internal/app/app.go
// This wires the whole assistant together: config, storage, LLM manager,
// knowledge retriever, tool clients, offline engine, and the pipeline
// orchestrator. Initialization is tolerant - a missing LLM key or an
// unreachable knowledge index degrades features instead of aborting,
// because the offline path must work with nothing but the corpus.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/krishimitra-assistant/config"
	"github.com/yourusername/krishimitra-assistant/internal/connectivity"
	"github.com/yourusername/krishimitra-assistant/internal/llm"
	"github.com/yourusername/krishimitra-assistant/internal/logger"
	"github.com/yourusername/krishimitra-assistant/internal/offline"
	"github.com/yourusername/krishimitra-assistant/internal/pipeline"
	"github.com/yourusername/krishimitra-assistant/internal/rag"
	"github.com/yourusername/krishimitra-assistant/internal/tools"
	"github.com/yourusername/krishimitra-assistant/models"
	"github.com/yourusername/krishimitra-assistant/storage"
)

// Application is the process-scoped assembly of all components.
type Application struct {
	Config *config.Config
	Logger *zap.Logger

	storage      *storage.SQLiteDB
	priceStore   *storage.SQLiteDB
	stepFactory  *logger.Factory
	llmManager   *llm.Manager
	retriever    *rag.Retriever
	offline      *offline.Engine
	watcher      *offline.Watcher
	prober       *connectivity.Prober
	keepAlive    *connectivity.KeepAlive
	mandi        *tools.MandiClient
	weather      *tools.WeatherClient
	forecast     *tools.ForecastClient
	disease      *tools.DiseaseClient
	orchestrator *pipeline.Orchestrator
}

// New builds the application from configuration.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	zlog, err := buildLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &Application{Config: cfg, Logger: zlog}

	logDir := ""
	if cfg.Logging.EnableLog {
		logDir = cfg.Logging.LogDir
	}
	if app.stepFactory, err = logger.NewFactory(cfg.Logging.Level, false, logDir); err != nil {
		zlog.Warn("step logging unavailable", zap.Error(err))
	}

	if err := app.initializeStorage(); err != nil {
		zlog.Warn("storage unavailable, caches disabled", zap.Error(err))
	}

	if err := app.initializeLLM(); err != nil {
		zlog.Warn("LLM unavailable, falling back to keyword pipeline", zap.Error(err))
	}

	if err := app.initializeRetriever(); err != nil {
		zlog.Warn("knowledge index unavailable, RAG disabled", zap.Error(err))
	}

	app.initializeOffline()
	app.initializeTools()
	app.initializePipeline()

	return app, nil
}

// Answer runs the query pipeline. The returned FinalResponse is always
// complete.
func (app *Application) Answer(ctx context.Context, query *models.Query) models.FinalResponse {
	return app.orchestrator.Answer(ctx, query)
}

// WarmupOffline builds the offline engine's vectors with console
// progress. Used by the CLI warmup command and the explicit endpoint.
func (app *Application) WarmupOffline() error {
	return app.offline.WarmUp()
}

// OfflineStatus reports the offline engine's readiness.
func (app *Application) OfflineStatus() offline.Status {
	return app.offline.Status()
}

// SearchOffline runs a raw similarity search against the corpus.
func (app *Application) SearchOffline(query string, topK int) []offline.Match {
	return app.offline.Search(query, topK)
}

// IsOnline probes connectivity.
func (app *Application) IsOnline() bool {
	return app.prober.IsOnline()
}

// KeepAlive exposes the background pinger for the server layer.
func (app *Application) KeepAlive() *connectivity.KeepAlive {
	return app.keepAlive
}

// Mandi exposes the mandi price client for the server layer.
func (app *Application) Mandi() *tools.MandiClient {
	return app.mandi
}

// Weather exposes the weather client for the server layer.
func (app *Application) Weather() *tools.WeatherClient {
	return app.weather
}

// Forecast exposes the price-forecast client for the server layer.
func (app *Application) Forecast() *tools.ForecastClient {
	return app.forecast
}

// Retriever exposes the knowledge retriever; nil when the index is
// unreachable.
func (app *Application) Retriever() *rag.Retriever {
	return app.retriever
}

// LLMStats reports per-provider call statistics.
func (app *Application) LLMStats() map[string]llm.ProviderStats {
	if app.llmManager == nil {
		return nil
	}
	return app.llmManager.GetStats()
}

// Close shuts everything down.
func (app *Application) Close() error {
	if app.keepAlive != nil {
		app.keepAlive.Stop()
	}
	if app.watcher != nil {
		app.watcher.Close()
	}
	if app.retriever != nil {
		app.retriever.Close()
	}
	if app.priceStore != nil && app.priceStore != app.storage {
		app.priceStore.Close()
	}
	if app.storage != nil {
		app.storage.Close()
	}
	if app.stepFactory != nil {
		app.stepFactory.Close()
	}
	return app.Logger.Sync()
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Level == "debug" {
		zcfg = zap.NewDevelopmentConfig()
	}
	return zcfg.Build()
}

func (app *Application) initializeStorage() error {
	store, err := storage.NewSQLiteDB(app.Config.Offline.CachePath)
	if err != nil {
		return err
	}
	app.storage = store

	// Prices live in their own file so clearing the offline cache does
	// not throw away fetched market data, and vice versa.
	pricePath := app.Config.Tools.PriceCachePath
	if pricePath == "" || pricePath == app.Config.Offline.CachePath {
		app.priceStore = store
		return nil
	}
	priceStore, err := storage.NewSQLiteDB(pricePath)
	if err != nil {
		app.Logger.Warn("price cache unavailable, sharing offline cache", zap.Error(err))
		app.priceStore = store
		return nil
	}
	app.priceStore = priceStore
	return nil
}

func (app *Application) initializeLLM() error {
	cfg := app.Config.LLM
	manager, err := llm.NewManager(llm.ProvidersConfig{
		Primary:       cfg.Primary,
		FallbackOrder: cfg.Fallbacks,
		Groq: llm.ProviderConfig{
			APIKey:      cfg.Groq.APIKey,
			BaseURL:     cfg.Groq.BaseURL,
			Model:       cfg.Groq.Model,
			MaxTokens:   cfg.Groq.MaxTokens,
			Temperature: cfg.Groq.Temperature,
			Timeout:     config.Duration(cfg.Groq.Timeout, 30*time.Second),
		},
		OpenAI: llm.ProviderConfig{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			Timeout:     config.Duration(cfg.OpenAI.Timeout, 30*time.Second),
		},
	})
	if err != nil {
		return err
	}
	app.llmManager = manager
	return nil
}

func (app *Application) initializeRetriever() error {
	embedder := rag.NewOpenAIEmbedder(app.Config.LLM.OpenAI.APIKey, app.Config.Vector.Dimension)
	retriever, err := rag.NewRetriever(rag.Config{
		Host:       app.Config.Vector.Host,
		Port:       app.Config.Vector.Port,
		Collection: app.Config.Vector.Collection,
	}, embedder)
	if err != nil {
		return err
	}
	app.retriever = retriever
	return nil
}

func (app *Application) initializeOffline() {
	var store offline.VectorStore
	if app.storage != nil {
		store = app.storage
	}
	app.offline = offline.NewEngine(app.Config.Offline.CorpusPath, store, app.Logger)

	watcher, err := offline.WatchCorpus(app.offline, app.Logger)
	if err != nil {
		app.Logger.Warn("corpus watcher unavailable", zap.Error(err))
	} else {
		app.watcher = watcher
	}
}

func (app *Application) initializeTools() {
	app.prober = connectivity.NewProber()

	var priceStore tools.PriceStore
	if app.priceStore != nil {
		priceStore = app.priceStore
	}
	app.mandi = tools.NewMandiClient(
		app.Config.Tools.DataGovAPIKey,
		app.Config.Tools.DataGovURL,
		app.Config.PriceCacheTTL(),
		priceStore,
		app.Logger,
	)

	app.weather = tools.NewWeatherClient(app.Config.Tools.OpenWeatherKey, app.Config.Tools.WeatherURL)
	app.forecast = tools.NewForecastClient(app.Config.Tools.ForecastAPIURL)
	app.disease = tools.NewDiseaseClient(app.Config.Tools.DiseaseAPIURL)

	app.keepAlive = connectivity.NewKeepAlive(map[string]string{
		"disease_api":  app.Config.Tools.DiseaseAPIURL,
		"forecast_api": app.Config.Tools.ForecastAPIURL,
	}, app.Config.KeepAliveInterval(), app.Logger)
}

func (app *Application) initializePipeline() {
	var client pipeline.LLMClient
	if app.llmManager != nil {
		client = app.llmManager
	}

	var retriever pipeline.KnowledgeRetriever
	if app.retriever != nil {
		retriever = app.retriever
	}

	dispatcher := pipeline.NewDispatcher(
		app.weather,
		app.forecast,
		app.mandi,
		app.disease,
		retriever,
		client,
		app.Logger,
	)

	app.orchestrator = pipeline.NewOrchestrator(
		app.prober,
		pipeline.NewClassifier(client),
		pipeline.NewExtractor(client),
		dispatcher,
		pipeline.NewSynthesizer(client),
		app.offline,
		app.stepFactory,
		app.Logger,
	)
}
