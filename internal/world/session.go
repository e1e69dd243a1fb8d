package world

import (
	"math/rand"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"strayfinder/internal/geometry"
	"strayfinder/internal/loot"
)

// LostObject is a collectible on the road network.
type LostObject struct {
	ID       int
	Type     int
	Position mgl64.Vec2
}

// LootConfig configures a new session's loot generator.
type LootConfig struct {
	BaseInterval time.Duration
	Probability  float64
}

// Session is the runtime state for one map that has been joined at least
// once: its dogs, its lost objects, and its loot generator. A session lives
// for process lifetime once created.
type Session struct {
	Map *Map

	dogs         map[int]*Dog
	nextDogID    int
	lostObjects  []LostObject
	nextObjectID int

	loot *loot.Generator
}

func newSession(m *Map, cfg LootConfig) *Session {
	return &Session{
		Map:  m,
		dogs: make(map[int]*Dog),
		loot: loot.New(cfg.BaseInterval, cfg.Probability),
	}
}

// Dogs returns every dog currently in the session, in ascending ID order.
func (s *Session) Dogs() []*Dog {
	out := make([]*Dog, 0, len(s.dogs))
	for _, d := range s.dogs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Dog returns the dog with the given id, or nil.
func (s *Session) Dog(id int) *Dog {
	return s.dogs[id]
}

// LostObjects returns every lost object currently on the map, in the order
// they were added.
func (s *Session) LostObjects() []LostObject {
	return s.lostObjects
}

// TypeCount returns the map's lost-object type count, T.
func (s *Session) TypeCount() int {
	return s.Map.TypeCount()
}

// CreateDog spawns a new dog, either at the first road's start position
// (deterministic) or at a uniformly random position on the road network
// (randomizeSpawn).
func (s *Session) CreateDog(name string, randomizeSpawn bool, rng *rand.Rand) *Dog {
	var pos mgl64.Vec2
	if randomizeSpawn {
		pos = RandomRoadPosition(s.Map, rng)
	} else {
		r := s.Map.Roads[0]
		pos = mgl64.Vec2{float64(r.X0), float64(r.Y0)}
	}

	id := s.nextDogID
	s.nextDogID++

	d := NewDog(id, name, pos, s.Map.DefaultBagCapacity)
	s.dogs[id] = d
	return d
}

// RestoreDog reconstructs a dog at a caller-chosen id with an explicit
// position, velocity and facing, advancing the session's id counter past
// it if needed. Used by snapshot restore, which must reproduce dog ids
// exactly rather than minting fresh ones.
func (s *Session) RestoreDog(id int, name string, pos, vel mgl64.Vec2, dir geometry.Direction, capacity int) *Dog {
	d := NewDog(id, name, pos, capacity)
	d.Velocity = vel
	d.Direction = dir
	s.dogs[id] = d
	if id >= s.nextDogID {
		s.nextDogID = id + 1
	}
	return d
}

// RemoveDog detaches a dog from the session, e.g. on retirement.
func (s *Session) RemoveDog(id int) {
	delete(s.dogs, id)
}

// GenerateLostObjects asks the loot generator how many new objects to
// spawn this tick and places them at random positions with random types.
// It is a no-op if the map has zero lost-object types.
func (s *Session) GenerateLostObjects(dt time.Duration, rng *rand.Rand) {
	t := s.Map.TypeCount()
	if t == 0 {
		return
	}

	n := s.loot.Generate(dt, len(s.lostObjects), len(s.dogs))
	for i := 0; i < n; i++ {
		obj := LostObject{
			ID:       s.nextObjectID,
			Type:     rng.Intn(t),
			Position: RandomRoadPosition(s.Map, rng),
		}
		s.nextObjectID++
		s.lostObjects = append(s.lostObjects, obj)
	}
}

// PlaceLostObject inserts a lost object at a caller-chosen id, advancing the
// session's id counter past it if needed. Used by snapshot restore to
// reconstruct exact object ids, and by tests that need deterministic loot
// without driving the random generator.
func (s *Session) PlaceLostObject(id, typ int, pos mgl64.Vec2) {
	s.lostObjects = append(s.lostObjects, LostObject{ID: id, Type: typ, Position: pos})
	if id >= s.nextObjectID {
		s.nextObjectID = id + 1
	}
}

// RemoveLostObjects drops every lost object whose ID is in taken.
func (s *Session) RemoveLostObjects(taken map[int]bool) {
	if len(taken) == 0 {
		return
	}
	kept := s.lostObjects[:0]
	for _, obj := range s.lostObjects {
		if !taken[obj.ID] {
			kept = append(kept, obj)
		}
	}
	s.lostObjects = kept
}

// RandomRoadPosition picks a uniformly random point on m's road network by
// first choosing a uniformly random road, then a uniformly random point
// along it. This is a sampling simplification noted in DESIGN.md: it is
// uniform over roads, not over road-network area.
func RandomRoadPosition(m *Map, rng *rand.Rand) mgl64.Vec2 {
	r := m.Roads[rng.Intn(len(m.Roads))]
	if r.Horizontal() {
		x0, x1 := float64(r.X0), float64(r.X1)
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		x := x0 + rng.Float64()*(x1-x0)
		return mgl64.Vec2{x, float64(r.Y0)}
	}
	y0, y1 := float64(r.Y0), float64(r.Y1)
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y := y0 + rng.Float64()*(y1-y0)
	return mgl64.Vec2{float64(r.X0), y}
}
