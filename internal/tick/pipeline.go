// Package tick implements the ordered per-tick simulation pipeline: move,
// collide, score, generate loot, retire, and signal subscribers — run once
// per call to Pipeline.Tick, always from the strand.
package tick

import (
	"context"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"strayfinder/internal/apperr"
	"strayfinder/internal/collision"
	"strayfinder/internal/geometry"
	"strayfinder/internal/players"
	"strayfinder/internal/world"
)

// DefaultRetirementThreshold is the default continuous-stop duration after
// which a player is retired, per spec.md §4.5.
const DefaultRetirementThreshold = 60 * time.Second

// Leaderboard is the subset of the retirement store that Tick's callers
// write the returned retirements to; the pipeline itself never calls it.
// A failure here is logged by the caller and does not undo the tick: the
// player is still removed from its session regardless of whether the
// leaderboard write succeeded.
type Leaderboard interface {
	AddPlayerScore(ctx context.Context, name string, score int, playTimeMs int64) error
}

// Retirement is one player detached from its session this tick, for the
// caller to persist (and log on failure) after Tick returns.
type Retirement struct {
	Name       string
	Score      int
	PlayTimeMs int64
}

// Pipeline owns the world and player registries and runs Tick against them.
type Pipeline struct {
	World               *world.Registry
	Players             *players.Registry
	RetirementThreshold time.Duration

	subscribers []func(time.Duration)
}

// New returns a Pipeline. A zero RetirementThreshold means
// DefaultRetirementThreshold.
func New(w *world.Registry, p *players.Registry, retirementThreshold time.Duration) *Pipeline {
	if retirementThreshold <= 0 {
		retirementThreshold = DefaultRetirementThreshold
	}
	return &Pipeline{World: w, Players: p, RetirementThreshold: retirementThreshold}
}

// DoOnTick registers fn to be called, in registration order, after every
// successful Tick. The engine's periodic snapshotter runs on its own timer
// and does not register here.
func (pl *Pipeline) DoOnTick(fn func(time.Duration)) {
	pl.subscribers = append(pl.subscribers, fn)
}

// Tick advances the simulation by dt. It returns InvalidTime if dt < 0.
// Retired players are returned for the caller to persist to the
// leaderboard and to log; persistence failures never unwind the tick.
func (pl *Pipeline) Tick(dt time.Duration) ([]Retirement, error) {
	if dt < 0 {
		return nil, apperr.NewValidation(apperr.InvalidTime, "tick delta must be >= 0")
	}

	bySession := pl.Players.BySession()

	for session, sessionPlayers := range bySession {
		sort.Slice(sessionPlayers, func(i, j int) bool { return sessionPlayers[i].ID() < sessionPlayers[j].ID() })
		moveAndCollide(session, sessionPlayers, dt)
	}

	for _, session := range pl.World.Sessions() {
		session.GenerateLostObjects(dt, pl.Players.SpawnRNG())
	}

	var retired []Retirement
	for _, sessionPlayers := range bySession {
		for _, p := range sessionPlayers {
			p.AccrueDuration(dt)
			if !p.Dog.Stationary() || p.StopDuration() < pl.RetirementThreshold {
				continue
			}

			retired = append(retired, Retirement{
				Name:       p.Dog.Name,
				Score:      p.Score,
				PlayTimeMs: p.LiveDuration().Milliseconds() + pl.RetirementThreshold.Milliseconds(),
			})
			pl.Players.Retire(p)
		}
	}

	for _, fn := range pl.subscribers {
		fn(dt)
	}

	return retired, nil
}

// moveAndCollide runs phases 2a-2g of §4.5 for one session's players.
func moveAndCollide(session *world.Session, sessionPlayers []*players.Player, dt time.Duration) {
	if len(sessionPlayers) == 0 {
		return
	}

	net := session.Map.Network()
	dtSeconds := dt.Seconds()

	nextPos := make([]geometry.Step, len(sessionPlayers))
	for i, p := range sessionPlayers {
		nextPos[i] = geometry.Move(net, p.Dog.Position, p.Dog.Velocity, p.Dog.Direction, dtSeconds)
	}

	offices := session.Map.Offices
	lostObjects := session.LostObjects()
	officeCount := len(offices)

	items := make([]collision.Item, 0, officeCount+len(lostObjects))
	for _, o := range offices {
		items = append(items, collision.Item{
			Position: mgl64.Vec2{float64(o.X), float64(o.Y)},
			Radius:   world.OfficeRadius,
		})
	}
	for _, obj := range lostObjects {
		items = append(items, collision.Item{Position: obj.Position, Radius: 0})
	}

	gatherers := make([]collision.Gatherer, len(sessionPlayers))
	for i, p := range sessionPlayers {
		gatherers[i] = collision.Gatherer{
			Start:  p.Dog.Position,
			End:    nextPos[i].Position,
			Radius: world.GathererRadius,
		}
	}

	events := collision.Detect(collision.Provider{Gatherers: gatherers, Items: items})

	taken := make(map[int]bool, len(lostObjects))
	for _, ev := range events {
		p := sessionPlayers[ev.GathererIndex]

		if ev.ItemIndex < officeCount {
			for _, item := range p.Dog.BagItems() {
				if value, err := session.Map.ValueOf(item.Type); err == nil {
					p.Score += value
				}
			}
			p.Dog.ClearBag()
			continue
		}

		obj := lostObjects[ev.ItemIndex-officeCount]
		if taken[obj.ID] {
			continue
		}
		if p.Dog.AddToBag(obj.ID, obj.Type) {
			taken[obj.ID] = true
		}
	}

	session.RemoveLostObjects(taken)

	for i, p := range sessionPlayers {
		p.Dog.Position = nextPos[i].Position
		if nextPos[i].Stopped {
			p.Dog.Stop()
		}
	}
}
