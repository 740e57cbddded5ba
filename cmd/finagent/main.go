package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/finagent-ir/finagent/internal/app"
	"github.com/finagent-ir/finagent/internal/common"
	"github.com/finagent-ir/finagent/internal/render"
	"github.com/finagent-ir/finagent/internal/scheduler"
	"github.com/finagent-ir/finagent/internal/server"
	"github.com/finagent-ir/finagent/internal/workflow"
	"github.com/finagent-ir/finagent/internal/workflow/nodes"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	symbol      = flag.String("symbol", "", "Analyze a single symbol and print the report")
	serve       = flag.Bool("serve", false, "Run the HTTP server")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	serverHost  = flag.String("host", "", "Server host (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")

	config *common.Config
	logger arbor.ILogger
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Finagent version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup order: config file(s) and env, then CLI overrides, then logger
	// and banner.
	paths := []string{}
	if *configFile != "" {
		paths = append(paths, *configFile)
	} else if _, err := os.Stat("finagent.toml"); err == nil {
		paths = append(paths, "finagent.toml")
	}

	var err error
	config, err = common.LoadFromFiles(paths...)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	common.ApplyFlagOverrides(config, *serverHost, *serverPort)
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())
	common.InstallCrashHandler(config.CrashDir())

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if *serve {
		runServer(application)
		return
	}
	runCLI(application, *symbol)
}

// runCLI drives one analysis conversation in the terminal. The workflow asks
// for a symbol when the opening message does not contain one.
func runCLI(application *app.App, symbol string) {
	ctx := application.Context()
	threadID := uuid.New().String()
	cfg := workflow.Config{ThreadID: threadID}

	message := symbol
	if message == "" {
		message = "سلام"
	}

	stdin := bufio.NewScanner(os.Stdin)
	events, err := application.Graph.Stream(ctx, workflow.Delta{nodes.KeyUserMessage: message}, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to start analysis")
		return
	}

	for {
		consumeEvents(events)

		snap, err := application.Graph.GetState(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load analysis state")
			return
		}
		if snap.Interrupt == "" {
			printReport(snap.Values)
			return
		}

		fmt.Printf("\n%s\n> ", snap.Interrupt)
		if !stdin.Scan() {
			logger.Info().Msg("Input closed, aborting analysis")
			return
		}
		events, err = application.Graph.ResumeStream(ctx, strings.TrimSpace(stdin.Text()), cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to resume analysis")
			return
		}
	}
}

// consumeEvents drains one streaming pass, logging progress.
func consumeEvents(events <-chan workflow.Event) {
	seen := map[string]bool{}
	for ev := range events {
		if ev.Err != nil {
			logger.Warn().Err(ev.Err).Str("node", ev.Node).Msg("Analysis step failed")
			continue
		}
		for _, key := range nodes.ProgressKeys {
			if _, ok := ev.Delta[key]; ok && !seen[key] {
				seen[key] = true
				logger.Info().
					Str("node", ev.Node).
					Int("step", len(seen)).
					Int("total", nodes.TotalSteps).
					Msg("Analysis step complete")
			}
		}
	}
}

func printReport(state workflow.State) {
	memo := state.GetString(nodes.KeyFinalReport)
	if memo == "" {
		logger.Error().Msg("Analysis finished without a final report")
		return
	}

	report, err := render.FullReport(
		state.GetString(nodes.KeySymbol),
		state[nodes.KeyTechnicalConsensus],
		state[nodes.KeyFundamentalConsensus],
		state[nodes.KeySocialConsensus],
		memo,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render report")
		fmt.Println(memo)
		return
	}
	fmt.Println("\n" + report)
}

// runServer starts the HTTP server and, when enabled, the watchlist
// scheduler, then blocks until an interrupt.
func runServer(application *app.App) {
	sched := scheduler.NewService(&config.Scheduler, application.Pipeline, logger)
	if err := sched.Start(application.Context()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		return
	}
	defer sched.Stop()

	srv := server.New(application)
	common.SafeGo(logger, "http-server", func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("Interrupt signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
