package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/mitchelldurbincs/navalhub/internal/config"
	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/game/events"
	"github.com/mitchelldurbincs/navalhub/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/navalhub/internal/loader"
	"github.com/mitchelldurbincs/navalhub/internal/monitoring"
	"github.com/mitchelldurbincs/navalhub/internal/outcome"
	"github.com/mitchelldurbincs/navalhub/internal/peer"
	"github.com/mitchelldurbincs/navalhub/internal/referee"
	"github.com/mitchelldurbincs/navalhub/internal/supervisor"
)

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	if msg := code.HubMessage(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(code.HubExitStatus())
}

func run(args []string, stdout, stderr io.Writer) outcome.Code {
	flags := pflag.NewFlagSet("hub", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configFile := flags.String("config-file", "", "Path to a settings file (YAML)")
	flags.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "Log format (console, json)")
	flags.Bool("show-boards", true, "Print both boards after every round of turns")
	flags.Int("max-rehits", 0, "Repeated guesses allowed per turn (0 for unlimited)")
	flags.Int("read-timeout-ms", 0, "Per-line agent read timeout in milliseconds (0 to wait forever)")
	flags.Int("max-sessions", 0, "Maximum sessions per run (0 for unlimited)")
	if err := flags.Parse(args); err != nil || flags.NArg() != 2 {
		return outcome.BadArgCount
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
	}
	if err := config.Init(*configFile); err != nil {
		fmt.Fprintln(stderr, err)
		return outcome.InvalidConfig
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		fmt.Fprintln(stderr, err)
		return outcome.InvalidConfig
	}
	if err := config.BindFlags(flags, map[string]string{
		"log-level":       "hub.log_level",
		"log-format":      "hub.log_format",
		"show-boards":     "hub.show_boards",
		"max-rehits":      "hub.max_rehits",
		"read-timeout-ms": "hub.read_timeout_ms",
		"max-sessions":    "hub.max_sessions",
	}); err != nil {
		fmt.Fprintln(stderr, err)
		return outcome.InvalidConfig
	}
	cfg := config.Get()

	setupLogging(cfg.Hub.LogLevel, cfg.Hub.LogFormat, stderr)
	if config.ConfigFilePath() != "" {
		config.WatchConfig(func(c *config.Config) {
			if level, err := zerolog.ParseLevel(c.Hub.LogLevel); err == nil {
				zerolog.SetGlobalLevel(level)
			}
		})
	}

	rulesPath, rosterPath := flags.Arg(0), flags.Arg(1)

	roster, err := loader.LoadRoster(rosterPath)
	if err != nil {
		log.Error().Err(err).Str("path", rosterPath).Msg("Failed to load config")
		return outcome.CodeOf(outcome.Wrap(outcome.InvalidConfig, err))
	}
	rules, err := loader.LoadRules(rulesPath)
	if err != nil {
		log.Error().Err(err).Str("path", rulesPath).Msg("Failed to load rules")
		return outcome.CodeOf(outcome.Wrap(outcome.InvalidRules, err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := events.NewEventBus()
	eventLogger := subscribers.NewLoggerSubscriber("hub_events", log.Logger, zerolog.DebugLevel)
	eventLogger.SetDevMode(cfg.Development.VerboseEvents)
	bus.Subscribe(eventLogger)

	if cfg.Monitoring.Enabled {
		monitor := monitoring.NewSessionMonitor(log.Logger, cfg.Monitoring.Interval())
		bus.Subscribe(monitor)
		monitor.Start()
		defer monitor.Stop()
	}

	sup := supervisor.New(cfg.Hub.MaxSessions, log.Logger)
	if code := startSessions(ctx, sup, roster, rules, cfg, bus, stdout); code != outcome.Normal {
		return code
	}

	log.Info().
		Int("sessions", sup.Len()).
		Int("rows", rules.Rows).
		Int("cols", rules.Cols).
		Int("ships", rules.NumShips).
		Msg("Starting hub")

	report := sup.Run(ctx)
	if report.Err != nil {
		log.Error().Err(report.Err).Str("outcome", report.Outcome.String()).Msg("Hub finished with errors")
	}
	return report.Outcome
}

// startSessions spawns both agents of every roster entry. Agent i of
// round r gets the arguments "i map seed" with seed 2r+i.
func startSessions(ctx context.Context, sup *supervisor.Supervisor, roster *loader.Roster, rules core.Rules,
	cfg *config.Config, bus *events.EventBus, stdout io.Writer) outcome.Code {
	var started []*referee.Session
	abort := func(code outcome.Code, err error) outcome.Code {
		log.Error().Err(err).Msg("Failed to start sessions")
		for _, s := range started {
			s.Close()
		}
		return code
	}

	for round, entry := range roster.Sessions {
		var peers [referee.NumPlayers]peer.Channel
		var names [referee.NumPlayers]string

		for i, agent := range entry.Agents {
			id := i + 1
			args := append(append([]string(nil), agent.Args...),
				strconv.Itoa(id), agent.Map, strconv.Itoa(2*round+id))

			proc, err := peer.Spawn(ctx, agent.Command, args, peer.Options{
				ReadTimeout: cfg.Hub.ReadTimeout(),
				Logger:      log.With().Str("component", "peer").Int("round", round).Int("player", id).Logger(),
			})
			if err != nil {
				for _, p := range peers[:i] {
					p.Terminate()
				}
				return abort(outcome.AgentStart, err)
			}
			peers[i] = proc
			names[i] = agent.Command
		}

		session := referee.NewSession(rules, peers, referee.Options{
			Round:      round,
			Agents:     names,
			MaxRehits:  cfg.Hub.MaxRehits,
			Output:     stdout,
			ShowBoards: cfg.Hub.ShowBoards,
			Bus:        bus,
			Logger:     log.Logger,
		})
		if err := sup.Add(session); err != nil {
			session.Close()
			return abort(outcome.InvalidConfig, err)
		}
		started = append(started, session)
	}
	return outcome.Normal
}

func setupLogging(level, format string, out io.Writer) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	// stdout carries the game transcript, so logs go to stderr
	if os.Getenv("APP_ENV") == "production" || format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		})
	}
}
