package snapshot

import (
	"math/rand"
	"path/filepath"
	"testing"

	"strayfinder/internal/geometry"
	"strayfinder/internal/players"
	"strayfinder/internal/world"
)

func testRegistries(t *testing.T) (*world.Registry, *players.Registry) {
	t.Helper()
	w, err := world.NewRegistry([]*world.Map{{
		ID:                 "town",
		Roads:              []geometry.Road{{X0: 0, Y0: 0, X1: 10, Y1: 0}},
		LootValues:         []int{5, 3},
		DefaultBagCapacity: 2,
	}})
	if err != nil {
		t.Fatal(err)
	}
	pr := players.NewRegistry(w, false, world.LootConfig{}, rand.New(rand.NewSource(1)))
	return w, pr
}

func TestRestoreIsNoopWhenFileMissing(t *testing.T) {
	w, pr := testRegistries(t)
	if err := Restore(filepath.Join(t.TempDir(), "missing.state"), w, pr); err != nil {
		t.Fatalf("expected no error for a missing state file, got %v", err)
	}
}

func TestSaveThenRestoreRoundTrips(t *testing.T) {
	w, pr := testRegistries(t)
	tok, id, err := pr.Join("Rex", "town")
	if err != nil {
		t.Fatal(err)
	}
	p, _ := pr.FindByToken(tok)
	p.Dog.SetDirection(geometry.East, 1.0)
	p.Dog.AddToBag(0, 1)
	p.Score = 5

	session := w.Session("town")
	session.PlaceLostObject(7, 0, p.Dog.Position)

	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, w, pr); err != nil {
		t.Fatal(err)
	}

	w2, pr2 := testRegistries(t)
	if err := Restore(path, w2, pr2); err != nil {
		t.Fatal(err)
	}

	p2, err := pr2.FindByToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if p2.Dog.ID != id || p2.Score != 5 {
		t.Fatalf("expected restored player id=%d score=5, got id=%d score=%d", id, p2.Dog.ID, p2.Score)
	}
	if p2.Dog.Position != p.Dog.Position {
		t.Fatalf("expected restored position %v, got %v", p.Dog.Position, p2.Dog.Position)
	}
	if p2.Dog.BagCount() != 1 {
		t.Fatalf("expected 1 bag item after restore, got %d", p2.Dog.BagCount())
	}

	session2 := w2.Session("town")
	if len(session2.LostObjects()) != 1 || session2.LostObjects()[0].ID != 7 {
		t.Fatalf("expected lost object id=7 to survive the round trip, got %v", session2.LostObjects())
	}
}

func TestRestoreRejectsBagCapacityMismatch(t *testing.T) {
	w, pr := testRegistries(t)
	pr.Join("Rex", "town")
	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, w, pr); err != nil {
		t.Fatal(err)
	}

	w2, err := world.NewRegistry([]*world.Map{{
		ID:                 "town",
		Roads:              []geometry.Road{{X0: 0, Y0: 0, X1: 10, Y1: 0}},
		LootValues:         []int{5, 3},
		DefaultBagCapacity: 99,
	}})
	if err != nil {
		t.Fatal(err)
	}
	pr2 := players.NewRegistry(w2, false, world.LootConfig{}, rand.New(rand.NewSource(1)))

	if err := Restore(path, w2, pr2); err == nil {
		t.Fatal("expected a bag capacity mismatch to fail restore")
	}
}
