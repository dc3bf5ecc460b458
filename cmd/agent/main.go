package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/mitchelldurbincs/navalhub/internal/agent"
	"github.com/mitchelldurbincs/navalhub/internal/config"
	"github.com/mitchelldurbincs/navalhub/internal/game/mapgen"
	"github.com/mitchelldurbincs/navalhub/internal/loader"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/peer"
	"github.com/mitchelldurbincs/navalhub/internal/protocol"
	"github.com/mitchelldurbincs/navalhub/internal/strategy"
)

// RandomMap as the map argument asks for a generated fleet
const RandomMap = "random"

func main() {
	code := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if msg := code.AgentMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code.AgentExitStatus())
}

type arguments struct {
	id      int
	mapPath string
	seed    int64
}

// parseArgs checks "id map seed" in the order the codes are reported
func parseArgs(args []string) (arguments, error) {
	if len(args) != 3 {
		return arguments{}, outcome.Errorf(outcome.BadArgCount, "got %d arguments", len(args))
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 || id > protocol.MaxPlayerID {
		return arguments{}, outcome.Errorf(outcome.InvalidID, "player id %q", args[0])
	}
	seed, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || seed <= 0 {
		return arguments{}, outcome.Errorf(outcome.InvalidSeed, "seed %q", args[2])
	}
	return arguments{id: id, mapPath: args[1], seed: seed}, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) outcome.Code {
	flags := pflag.NewFlagSet("agent", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config-file", "", "Path to a settings file (YAML)")
	flags.String("strategy", "", "Targeting strategy (random, hunt, sweep)")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.Bool("spacing", false, "Keep generated ships from touching")
	if err := flags.Parse(args); err != nil {
		return outcome.BadArgCount
	}

	parsed, err := parseArgs(flags.Args())
	// The map file is checked before the seed
	if code := outcome.CodeOf(err); err != nil && code != outcome.InvalidSeed {
		return code
	}

	var source agent.FleetSource
	if flags.Arg(1) != RandomMap {
		fleet, ferr := loader.LoadFleet(flags.Arg(1))
		if ferr != nil {
			fmt.Fprintln(stderr, ferr)
			return outcome.InvalidMap
		}
		source = agent.FixedFleet(fleet)
	}
	if err != nil {
		return outcome.CodeOf(err)
	}

	if err := config.Init(*configFile); err != nil {
		fmt.Fprintln(stderr, err)
		return outcome.CommError
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		fmt.Fprintln(stderr, err)
		return outcome.CommError
	}
	if err := config.BindFlags(flags, map[string]string{
		"strategy":  "agent.strategy",
		"log-level": "agent.log_level",
		"spacing":   "agent.placement_spacing",
	}); err != nil {
		fmt.Fprintln(stderr, err)
		return outcome.CommError
	}
	cfg := config.Get()
	setupLogging(cfg.Agent.LogLevel, stderr)

	rng := rand.New(rand.NewSource(parsed.seed))
	if source == nil {
		source = agent.RandomFleet(mapgen.PlacementConfig{
			MaxAttempts: cfg.Agent.PlacementAttempts,
			Spacing:     cfg.Agent.PlacementSpacing,
		}, rng)
	}

	kind, err := strategy.ParseKind(cfg.Agent.Strategy)
	if err != nil {
		log.Error().Err(err).Msg("Unknown strategy")
		return outcome.CommError
	}
	strat, err := strategy.New(kind, rng)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create strategy")
		return outcome.CommError
	}

	engine, err := agent.NewEngine(parsed.id, source, strat, log.Logger)
	if err != nil {
		return outcome.CodeOf(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ch := peer.NewStream(stdin, stdout, peer.Options{Logger: log.Logger})
	defer ch.Terminate()

	if err := engine.Run(ctx, ch); err != nil {
		log.Debug().Err(err).Msg("Agent stopped")
		return outcome.CodeOf(err)
	}
	return outcome.Normal
}

// setupLogging sends every log line to stderr; stdout is the protocol
func setupLogging(level string, out io.Writer) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	}
}
