// Package world holds the map catalogue, the per-map game sessions, and
// the dogs and lost objects living inside them.
package world

import (
	"encoding/json"
	"fmt"

	"strayfinder/internal/apperr"
	"strayfinder/internal/geometry"
)

// Building is an opaque, purely cosmetic rectangle.
type Building struct {
	X, Y, W, H int
}

// Office converts carried items to score when a dog reaches it.
type Office struct {
	ID      string
	X, Y    int
	OffsetX int
	OffsetY int
}

// OfficeRadius is the fixed collection radius of every office.
const OfficeRadius = 0.5

// GathererRadius is the fixed collection radius of a moving dog.
const GathererRadius = 0.6

// Map is the immutable description of one named map, loaded once from
// config and shared by every session created for it.
type Map struct {
	ID   string
	Name string

	Roads     []geometry.Road
	Buildings []Building
	Offices   []Office

	DefaultSpeed       float64
	DefaultBagCapacity int

	// LootValues[i] is the score value of lost-object type i.
	LootValues []int
	// LootRaw[i] is the opaque JSON object the config supplied for type i,
	// carried through verbatim for the /api/v1/maps/{id} response.
	LootRaw []json.RawMessage
}

// TypeCount returns T, the number of lost-object types on this map.
func (m *Map) TypeCount() int {
	return len(m.LootValues)
}

// Network returns the road network used for kinematics and random spawns.
func (m *Map) Network() geometry.Network {
	return geometry.Network{Roads: m.Roads}
}

// ValueOf returns the score value of lost-object type t, or an error if t
// is out of range.
func (m *Map) ValueOf(t int) (int, error) {
	if t < 0 || t >= len(m.LootValues) {
		return 0, fmt.Errorf("world: type %d out of range [0,%d)", t, len(m.LootValues))
	}
	return m.LootValues[t], nil
}

// Registry is the immutable catalogue of maps loaded at startup, plus the
// mutable set of sessions created for the maps actually joined.
type Registry struct {
	order []string
	byID  map[string]*Map

	sessions map[string]*Session
}

// NewRegistry builds a Registry from the ordered list of maps. Order is
// preserved for the maps listing endpoint.
func NewRegistry(maps []*Map) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]*Map, len(maps)),
		sessions: make(map[string]*Session),
	}
	for _, m := range maps {
		if _, dup := r.byID[m.ID]; dup {
			return nil, apperr.NewConfig(fmt.Sprintf("duplicate map id %q", m.ID), nil)
		}
		if len(m.Roads) == 0 {
			return nil, apperr.NewConfig(fmt.Sprintf("map %q has no roads", m.ID), nil)
		}
		r.order = append(r.order, m.ID)
		r.byID[m.ID] = m
	}
	return r, nil
}

// Maps returns the maps in load order.
func (r *Registry) Maps() []*Map {
	out := make([]*Map, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Find returns the map with the given id, or nil.
func (r *Registry) Find(id string) *Map {
	return r.byID[id]
}

// Sessions returns every currently live session.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Session returns the live session for mapID, if any.
func (r *Registry) Session(mapID string) *Session {
	return r.sessions[mapID]
}

// FindOrCreateSession returns the session for mapID, creating it (and its
// loot generator) on first use. lootCfg configures the new session's loot
// generator; it is ignored if a session already exists.
func (r *Registry) FindOrCreateSession(mapID string, lootCfg LootConfig) (*Session, error) {
	m, ok := r.byID[mapID]
	if !ok {
		return nil, apperr.NewValidation(apperr.UnknownMap, fmt.Sprintf("map %q not found", mapID))
	}
	if s, ok := r.sessions[mapID]; ok {
		return s, nil
	}
	s := newSession(m, lootCfg)
	r.sessions[mapID] = s
	return s, nil
}
