// Package app wires the application together: configuration, storage,
// upstream data providers, the LLM factory and the compiled analysis graph.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/interfaces"
	"github.com/finagent-ir/finagent/internal/llm"
	"github.com/finagent-ir/finagent/internal/pipeline"
	"github.com/finagent-ir/finagent/internal/providers/rahavard"
	"github.com/finagent-ir/finagent/internal/providers/sahamyab"
	"github.com/finagent-ir/finagent/internal/providers/tavily"
	"github.com/finagent-ir/finagent/internal/providers/transport"
	"github.com/finagent-ir/finagent/internal/providers/twitterrapid"
	"github.com/finagent-ir/finagent/internal/scraper"
	"github.com/finagent-ir/finagent/internal/storage/badger"
	"github.com/finagent-ir/finagent/internal/workflow"
	"github.com/finagent-ir/finagent/internal/workflow/nodes"
)

// App holds the wired application components.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Storage interfaces.StorageManager

	Market *rahavard.Client
	Social *sahamyab.Client
	Tweets *twitterrapid.Client
	Web    *tavily.Client

	LLM      *llm.ProviderFactory
	Pipeline *pipeline.Pipeline
	Scraper  *scraper.Scraper
	Builder  *nodes.Builder
	Graph    *workflow.CompiledGraph

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the application from configuration. Optional providers
// (tweet search, web search) are wired only when their credentials are set.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	httpClient, err := transport.NewHTTPClient(&config.Providers)
	if err != nil {
		cancel()
		storageManager.Close()
		return nil, fmt.Errorf("failed to build HTTP client: %w", err)
	}

	a := &App{
		Config:  config,
		Logger:  logger,
		Storage: storageManager,
		ctx:     ctx,
		cancel:  cancel,
	}

	a.Market = rahavard.NewClient(
		rahavard.WithBaseURL(config.Providers.RahavardBaseURL),
		rahavard.WithHTTPClient(httpClient),
		rahavard.WithLogger(logger),
	)
	a.Social = sahamyab.NewClient(
		sahamyab.WithBaseURL(config.Providers.SahamyabBaseURL),
		sahamyab.WithHTTPClient(httpClient),
		sahamyab.WithLogger(logger),
	)

	pipelineOpts := []pipeline.Option{}
	if config.Providers.RapidAPIKey != "" {
		a.Tweets = twitterrapid.NewClient(
			config.Providers.RapidAPIKey,
			config.Providers.RapidAPIHost,
			twitterrapid.WithBaseURL(config.Providers.RapidBaseURL),
			twitterrapid.WithHTTPClient(httpClient),
			twitterrapid.WithLogger(logger),
		)
		pipelineOpts = append(pipelineOpts, pipeline.WithTweetSearch(a.Tweets))
	}
	if config.Providers.TavilyAPIKey != "" {
		a.Web = tavily.NewClient(
			config.Providers.TavilyAPIKey,
			tavily.WithBaseURL(config.Providers.TavilyBaseURL),
			tavily.WithHTTPClient(httpClient),
			tavily.WithLogger(logger),
		)
		pipelineOpts = append(pipelineOpts, pipeline.WithWebSearch(a.Web))
	}

	a.Pipeline = pipeline.New(a.Market, a.Social, storageManager.AssetStorage(), logger, pipelineOpts...)
	a.Scraper = scraper.New(scraper.WithHTTPClient(httpClient), scraper.WithLogger(logger))
	a.LLM = llm.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, logger)

	a.Builder = nodes.NewBuilder(a.LLM, a.Pipeline, a.Scraper, logger,
		nodes.WithModel(config.LLM.Model),
		nodes.WithMaxTokens(config.LLM.MaxTokens),
		nodes.WithCallTimeout(config.LLMTimeout()),
	)

	saver := workflow.NewBadgerSaver(storageManager.CheckpointStorage())
	graph, err := a.Builder.AnalysisGraph(saver)
	if err != nil {
		cancel()
		storageManager.Close()
		return nil, fmt.Errorf("failed to compile analysis graph: %w", err)
	}
	a.Graph = graph

	logger.Info().
		Str("default_provider", config.LLM.DefaultProvider).
		Str("model", config.LLM.Model).
		Bool("tweets", a.Tweets != nil).
		Bool("web_search", a.Web != nil).
		Msg("Application initialized")

	return a, nil
}

// Context returns the application lifetime context.
func (a *App) Context() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// Close releases application resources.
func (a *App) Close() error {
	a.cancel()

	if a.LLM != nil {
		if err := a.LLM.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM provider")
		}
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
