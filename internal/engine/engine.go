// Package engine is the process supervisor: it owns the world and player
// registries, the strand, the optional auto-tick scheduler, the optional
// periodic snapshotter, and the HTTP server, running them all under one
// errgroup so that any fatal error or signal cancellation drains the
// others cleanly. Grounded in the teacher's cmd/server/main.go signal
// handling, generalized from a bare stop channel to an errgroup.
package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"strayfinder/internal/api"
	"strayfinder/internal/players"
	"strayfinder/internal/snapshot"
	"strayfinder/internal/store"
	"strayfinder/internal/strand"
	"strayfinder/internal/tick"
	"strayfinder/internal/world"
	"strayfinder/pkg/logger"
)

// Config holds everything Engine needs to supervise one running process.
type Config struct {
	World       *world.Registry
	Players     *players.Registry
	Pipeline    *tick.Pipeline
	Leaderboard *store.Leaderboard
	Strand      *strand.Strand
	API         *api.Server

	// TickPeriod, if non-zero, runs the simulation on an internal
	// schedule instead of relying on the external /api/v1/game/tick
	// endpoint, which the API server then rejects.
	TickPeriod time.Duration

	// StateFile and SaveStatePeriod control periodic snapshotting. A
	// zero SaveStatePeriod disables the periodic snapshotter; a final
	// save still runs at shutdown if StateFile is set.
	StateFile       string
	SaveStatePeriod time.Duration
}

// Engine runs Config's subsystems until ctx is canceled.
type Engine struct {
	cfg Config
}

// New returns an Engine ready to Run.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Run blocks until ctx is canceled or a supervised goroutine returns a
// fatal error, then performs a final snapshot save before returning.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.cfg.Strand.Run(gctx)
		return nil
	})

	if e.cfg.TickPeriod > 0 {
		g.Go(func() error {
			return e.runTicker(gctx)
		})
	}

	if e.cfg.StateFile != "" && e.cfg.SaveStatePeriod > 0 {
		g.Go(func() error {
			return e.runSnapshotter(gctx)
		})
	}

	g.Go(func() error {
		return e.cfg.API.Run(gctx)
	})

	err := g.Wait()

	// The strand's consumer loop has already stopped by the time g.Wait
	// returns, so the final save talks to World/Players directly — safe
	// because every other supervised goroutine has exited too.
	if e.cfg.StateFile != "" {
		if saveErr := snapshot.Save(e.cfg.StateFile, e.cfg.World, e.cfg.Players); saveErr != nil {
			logger.Log.WithError(saveErr).Error("final snapshot save failed")
		}
	}

	return err
}

// runTicker drives the simulation at cfg.TickPeriod and persists any
// retirements it produces. A tick error is fatal: per spec.md §7,
// uncaught exceptions in the tick pipeline must not be silently skipped.
func (e *Engine) runTicker(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var retirements []tick.Retirement
			err := e.cfg.Strand.Submit(ctx, func() error {
				rets, err := e.cfg.Pipeline.Tick(e.cfg.TickPeriod)
				if err != nil {
					return err
				}
				retirements = rets
				return nil
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			for _, ret := range retirements {
				if err := e.cfg.Leaderboard.AddPlayerScore(ctx, ret.Name, ret.Score, ret.PlayTimeMs); err != nil {
					logger.Log.WithError(err).WithField("player", ret.Name).Warn("failed to persist retirement record")
				}
			}
		}
	}
}

// runSnapshotter saves world/player state at cfg.SaveStatePeriod. Save
// failures are logged and retried on the next interval, per spec.md §7;
// they never cancel the group.
func (e *Engine) runSnapshotter(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.SaveStatePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := e.saveSnapshot(ctx); err != nil {
				logger.Log.WithError(err).Warn("periodic snapshot save failed")
			}
		}
	}
}

func (e *Engine) saveSnapshot(ctx context.Context) error {
	return e.cfg.Strand.Submit(ctx, func() error {
		return snapshot.Save(e.cfg.StateFile, e.cfg.World, e.cfg.Players)
	})
}
