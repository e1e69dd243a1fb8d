package players

import (
	"math/rand"
	"testing"
	"time"

	"strayfinder/internal/geometry"
	"strayfinder/internal/world"
)

func mustWorld(t *testing.T) *world.Registry {
	t.Helper()
	reg, err := world.NewRegistry([]*world.Map{{
		ID:                 "town",
		Name:               "Town",
		DefaultBagCapacity: 3,
		Roads:              []geometry.Road{{X0: 0, Y0: 0, X1: 10, Y1: 0}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestJoinRejectsEmptyName(t *testing.T) {
	w := mustWorld(t)
	r := NewRegistry(w, false, world.LootConfig{}, rand.New(rand.NewSource(1)))

	if _, _, err := r.Join("", "town"); err == nil {
		t.Fatal("expected an error for an empty user name")
	}
}

func TestJoinAssignsUniqueTokens(t *testing.T) {
	w := mustWorld(t)
	r := NewRegistry(w, false, world.LootConfig{}, rand.New(rand.NewSource(1)))

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		tok, _, err := r.Join("Rex", "town")
		if err != nil {
			t.Fatal(err)
		}
		if seen[tok] {
			t.Fatalf("token %s issued twice", tok)
		}
		seen[tok] = true
	}
}

func TestFindByTokenUnknown(t *testing.T) {
	w := mustWorld(t)
	r := NewRegistry(w, false, world.LootConfig{}, rand.New(rand.NewSource(1)))

	if _, err := r.FindByToken("deadbeef"); err == nil {
		t.Fatal("expected an error for an unknown token")
	}
}

func TestRetireRemovesPlayerAndDog(t *testing.T) {
	w := mustWorld(t)
	r := NewRegistry(w, false, world.LootConfig{}, rand.New(rand.NewSource(1)))

	tok, _, err := r.Join("Rex", "town")
	if err != nil {
		t.Fatal(err)
	}
	p, err := r.FindByToken(tok)
	if err != nil {
		t.Fatal(err)
	}

	r.Retire(p)

	if _, err := r.FindByToken(tok); err == nil {
		t.Fatal("expected the token to be gone after retirement")
	}
	if p.Session.Dog(p.Dog.ID) != nil {
		t.Fatal("expected the dog to be removed from its session")
	}
}

func TestAccrueDurationSplitsLiveAndStopTime(t *testing.T) {
	w := mustWorld(t)
	r := NewRegistry(w, false, world.LootConfig{}, rand.New(rand.NewSource(1)))
	tok, _, _ := r.Join("Rex", "town")
	p, _ := r.FindByToken(tok)

	p.AccrueDuration(time.Second)
	if p.StopDuration() != time.Second || p.LiveDuration() != 0 {
		t.Fatalf("expected stationary dog to accrue stop time, got live=%v stop=%v", p.LiveDuration(), p.StopDuration())
	}

	p.Dog.Velocity[0] = 1
	p.AccrueDuration(time.Second)
	if p.LiveDuration() != time.Second {
		t.Fatalf("expected moving dog to accrue live time, got %v", p.LiveDuration())
	}

	p.ResetStopDuration()
	if p.StopDuration() != 0 {
		t.Fatal("expected ResetStopDuration to zero the stop accumulator")
	}
}
