// Package players manages the cross-session player registry: token
// issuance and lookup, and the score/duration bookkeeping that rides along
// with each dog.
package players

import (
	"math/rand"
	"time"

	"strayfinder/internal/apperr"
	"strayfinder/internal/world"
)

// Player pairs one dog with its session and tracks score and the
// live/stop duration accounting used for retirement.
type Player struct {
	Token   string
	Dog     *world.Dog
	Session *world.Session

	Score int

	liveDuration time.Duration
	stopDuration time.Duration
}

// ID is the player's id as returned to clients: the dog's session-local id.
func (p *Player) ID() int {
	return p.Dog.ID
}

// LiveDuration returns the accumulated moving time.
func (p *Player) LiveDuration() time.Duration { return p.liveDuration }

// StopDuration returns the accumulated continuous stopped time.
func (p *Player) StopDuration() time.Duration { return p.stopDuration }

// AccrueDuration adds dt to the live or stop accumulator depending on
// whether the dog is currently moving, per §4.5 step 4. Stop duration is
// continuous: moving at all resets it, so retirement only fires after an
// unbroken run of stopped ticks.
func (p *Player) AccrueDuration(dt time.Duration) {
	if p.Dog.Stationary() {
		p.stopDuration += dt
	} else {
		p.liveDuration += dt
		p.stopDuration = 0
	}
}

// ResetStopDuration clears the stopped-time accumulator. AccrueDuration
// already clears it on any tick in which the dog is moving.
func (p *Player) ResetStopDuration() {
	p.stopDuration = 0
}

// Registry is the process-wide token-to-player map. It is owned by the
// strand; callers outside the strand must not touch it directly.
type Registry struct {
	world          *world.Registry
	randomizeSpawn bool
	lootConfig     world.LootConfig
	tokens         *tokenGenerator

	// spawnRNG drives position/type sampling (random dog spawn points,
	// random lost-object positions and types) — a stream kept separate
	// from tokens per the design note on distinct RNG streams.
	spawnRNG *rand.Rand

	byToken map[string]*Player
}

// NewRegistry wires a player registry to the given map/session catalogue.
// spawnRNG may be nil, in which case one seeded from OS entropy is created.
func NewRegistry(w *world.Registry, randomizeSpawn bool, lootConfig world.LootConfig, spawnRNG *rand.Rand) *Registry {
	if spawnRNG == nil {
		spawnRNG = rand.New(rand.NewSource(mustEntropySeed()))
	}
	return &Registry{
		world:          w,
		randomizeSpawn: randomizeSpawn,
		lootConfig:     lootConfig,
		tokens:         newTokenGenerator(),
		spawnRNG:       spawnRNG,
		byToken:        make(map[string]*Player),
	}
}

// SpawnRNG returns the shared position/type sampling stream, for use by
// the tick pipeline's loot generation step.
func (r *Registry) SpawnRNG() *rand.Rand {
	return r.spawnRNG
}

// Join creates (or reuses) the session for mapID, spawns a new dog in it,
// and registers a fresh player under a newly minted token.
func (r *Registry) Join(userName, mapID string) (token string, playerID int, err error) {
	if userName == "" {
		return "", 0, apperr.NewValidation(apperr.EmptyName, "user name must not be empty")
	}

	session, err := r.world.FindOrCreateSession(mapID, r.lootConfig)
	if err != nil {
		return "", 0, err
	}

	dog := session.CreateDog(userName, r.randomizeSpawn, r.spawnRNG)

	tok := r.tokens.Next()
	for _, exists := r.byToken[tok]; exists; _, exists = r.byToken[tok] {
		tok = r.tokens.Next()
	}

	p := &Player{Token: tok, Dog: dog, Session: session}
	r.byToken[tok] = p

	return tok, dog.ID, nil
}

// RestorePlayer reinserts a player at an exact token, score, and duration
// state. Used by snapshot restore, which must reproduce tokens exactly
// rather than minting fresh ones; the dog and session are assumed to have
// already been restored into world state.
func (r *Registry) RestorePlayer(token string, dog *world.Dog, session *world.Session, score int, liveDurationMs, stopDurationMs int64) {
	r.byToken[token] = &Player{
		Token:        token,
		Dog:          dog,
		Session:      session,
		Score:        score,
		liveDuration: time.Duration(liveDurationMs) * time.Millisecond,
		stopDuration: time.Duration(stopDurationMs) * time.Millisecond,
	}
}

// FindByToken returns the player owning token.
func (r *Registry) FindByToken(token string) (*Player, error) {
	p, ok := r.byToken[token]
	if !ok {
		return nil, apperr.NewValidation(apperr.UnknownToken, "no player with this token")
	}
	return p, nil
}

// Players returns every live player.
func (r *Registry) Players() []*Player {
	out := make([]*Player, 0, len(r.byToken))
	for _, p := range r.byToken {
		out = append(out, p)
	}
	return out
}

// BySession groups live players by their session.
func (r *Registry) BySession() map[*world.Session][]*Player {
	out := make(map[*world.Session][]*Player)
	for _, p := range r.byToken {
		out[p.Session] = append(out[p.Session], p)
	}
	return out
}

// Retire removes a player from the registry and its dog from the session.
// Callers (the tick pipeline) are responsible for persisting the
// corresponding retirement record before or after calling this.
func (r *Registry) Retire(p *Player) {
	delete(r.byToken, p.Token)
	p.Session.RemoveDog(p.Dog.ID)
}
