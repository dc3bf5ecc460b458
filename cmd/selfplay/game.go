package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/navalhub/internal/agent"
	"github.com/mitchelldurbincs/navalhub/internal/game/core"
	"github.com/mitchelldurbincs/navalhub/internal/game/events"
	"github.com/mitchelldurbincs/navalhub/internal/game/mapgen"
	"github.com/mitchelldurbincs/navalhub/internal/peer"
	"github.com/mitchelldurbincs/navalhub/internal/referee"
	"github.com/mitchelldurbincs/navalhub/internal/strategy"
	"github.com/mitchelldurbincs/navalhub/internal/supervisor"
)

// matchup is one self-play pairing
type matchup struct {
	rules     core.Rules
	kinds     [2]strategy.Kind
	placement mapgen.PlacementConfig
	maxRehits int
	bus       events.Publisher
	logger    zerolog.Logger
}

// playGame runs game number round between two in-process agents over
// pipes. Agent i is seeded with 2*round+i, as the hub does.
func playGame(ctx context.Context, m matchup, round int) (supervisor.Result, error) {
	var hubEnds [referee.NumPlayers]peer.Channel
	var names [referee.NumPlayers]string
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < referee.NumPlayers; i++ {
		id := i + 1
		rng := rand.New(rand.NewSource(int64(2*round + id)))
		strat, err := strategy.New(m.kinds[i], rng)
		if err != nil {
			return supervisor.Result{}, err
		}
		engine, err := agent.NewEngine(id, agent.RandomFleet(m.placement, rng), strat, m.logger)
		if err != nil {
			return supervisor.Result{}, err
		}

		hubEnd, agentEnd := peer.NewPipe(peer.Options{Logger: m.logger})
		hubEnds[i] = hubEnd
		names[i] = m.kinds[i].String()

		g.Go(func() error {
			defer agentEnd.Terminate()
			// Agent failures surface in the referee's result
			if err := engine.Run(gctx, agentEnd); err != nil {
				m.logger.Debug().Err(err).Int("round", round).Int("player", id).Msg("Agent stopped")
			}
			return nil
		})
	}

	session := referee.NewSession(m.rules, hubEnds, referee.Options{
		ID:        fmt.Sprintf("selfplay-%d", round),
		Round:     round,
		Agents:    names,
		MaxRehits: m.maxRehits,
		Bus:       m.bus,
		Logger:    m.logger,
	})
	sup := supervisor.New(1, m.logger)
	if err := sup.Add(session); err != nil {
		session.Close()
		return supervisor.Result{}, err
	}

	report := sup.Run(ctx)
	if err := g.Wait(); err != nil {
		return supervisor.Result{}, err
	}
	return report.Results[0], nil
}
