package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/navalhub/internal/config"
	"github.com/mitchelldurbincs/navalhub/internal/game/events"
	"github.com/mitchelldurbincs/navalhub/internal/game/mapgen"
	"github.com/mitchelldurbincs/navalhub/internal/loader"
	"github.com/mitchelldurbincs/navalhub/internal/monitoring"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/strategy"
)

var csvHeader = []string{"game", "strategy_1", "strategy_2", "winner", "turns", "rehits", "outcome"}

func main() {
	os.Exit(run().HubExitStatus())
}

func run() outcome.Code {
	configFile := pflag.String("config-file", "", "Path to a settings file (YAML)")
	rulesPath := pflag.String("rules", loader.StandardRulesName, "Rules file")
	pflag.IntP("games", "n", 0, "Number of games to play")
	pflag.IntP("workers", "w", 0, "Games played in parallel")
	pflag.String("strategy-1", "", "Strategy of player 1 (random, hunt, sweep)")
	pflag.String("strategy-2", "", "Strategy of player 2 (random, hunt, sweep)")
	pflag.StringP("out", "o", "", "CSV file for per-game results")
	pflag.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	pflag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Ignoring .env")
	}
	if err := config.Init(*configFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment config")
	}
	if err := config.BindFlags(pflag.CommandLine, map[string]string{
		"games":      "selfplay.games",
		"workers":    "selfplay.workers",
		"strategy-1": "selfplay.strategy_1",
		"strategy-2": "selfplay.strategy_2",
		"out":        "selfplay.output_file",
		"log-level":  "hub.log_level",
	}); err != nil {
		log.Fatal().Err(err).Msg("Invalid flags")
	}
	cfg := config.Get()
	setupLogging(cfg.Hub.LogLevel)

	rules, err := loader.LoadRules(*rulesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *rulesPath).Msg("Failed to load rules")
	}
	// Validate has already checked both names
	kind1, _ := strategy.ParseKind(cfg.Selfplay.Strategy1)
	kind2, _ := strategy.ParseKind(cfg.Selfplay.Strategy2)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	monitor := monitoring.NewSessionMonitor(log.Logger, cfg.Monitoring.Interval())
	bus.Subscribe(monitor)
	if cfg.Monitoring.Enabled {
		monitor.Start()
	}

	m := matchup{
		rules: rules,
		kinds: [2]strategy.Kind{kind1, kind2},
		placement: mapgen.PlacementConfig{
			MaxAttempts: cfg.Agent.PlacementAttempts,
			Spacing:     cfg.Agent.PlacementSpacing,
		},
		maxRehits: cfg.Hub.MaxRehits,
		bus:       bus,
		logger:    log.Logger,
	}

	var (
		w   *csv.Writer
		wMu sync.Mutex
	)
	if cfg.Selfplay.OutputFile != "" {
		f, err := os.Create(cfg.Selfplay.OutputFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create output file")
		}
		defer f.Close()
		w = csv.NewWriter(f)
		defer w.Flush()
		if err := w.Write(csvHeader); err != nil {
			log.Fatal().Err(err).Msg("Failed to write CSV header")
		}
	}

	log.Info().
		Int("games", cfg.Selfplay.Games).
		Int("workers", cfg.Selfplay.Workers).
		Str("strategy_1", kind1.String()).
		Str("strategy_2", kind2.String()).
		Msg("Starting self-play")

	start := time.Now()
	var wins [2]int
	var failed int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Selfplay.Workers)
	for round := 0; round < cfg.Selfplay.Games; round++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := playGame(gctx, m, round)
			if err != nil {
				return err
			}

			wMu.Lock()
			defer wMu.Unlock()
			if res.Winner >= 1 && res.Winner <= 2 {
				wins[res.Winner-1]++
			} else {
				failed++
			}
			if w != nil {
				row := []string{
					strconv.Itoa(round),
					kind1.String(),
					kind2.String(),
					strconv.Itoa(res.Winner),
					strconv.Itoa(res.Turns),
					strconv.Itoa(res.Rehits),
					res.Code.String(),
				}
				if err := w.Write(row); err != nil {
					return fmt.Errorf("writing game %d: %w", round, err)
				}
			}
			return nil
		})
	}
	err = g.Wait()
	monitor.Stop()

	if err != nil {
		log.Error().Err(err).Msg("Self-play stopped")
	}
	log.Info().
		Int("player_1_wins", wins[0]).
		Int("player_2_wins", wins[1]).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Self-play finished")

	switch {
	case ctx.Err() != nil:
		return outcome.SignalTerminated
	case err != nil:
		return outcome.CodeOf(err)
	}
	return outcome.Normal
}

func setupLogging(level string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
