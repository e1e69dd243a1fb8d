package world

import (
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"strayfinder/internal/geometry"
)

func testMap() *Map {
	return &Map{
		ID:                 "town",
		Name:               "Town",
		Roads:              []geometry.Road{{X0: 0, Y0: 0, X1: 10, Y1: 0}},
		DefaultSpeed:       1.0,
		DefaultBagCapacity: 3,
		LootValues:         []int{5, 3},
	}
}

func TestRegistryFindOrCreateSessionIsIdempotent(t *testing.T) {
	reg, err := NewRegistry([]*Map{testMap()})
	if err != nil {
		t.Fatal(err)
	}

	s1, err := reg.FindOrCreateSession("town", LootConfig{BaseInterval: time.Second, Probability: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	s2, err := reg.FindOrCreateSession("town", LootConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatal("expected the same session to be returned on the second join")
	}
}

func TestRegistryUnknownMap(t *testing.T) {
	reg, _ := NewRegistry([]*Map{testMap()})
	if _, err := reg.FindOrCreateSession("nowhere", LootConfig{}); err == nil {
		t.Fatal("expected an error for an unknown map id")
	}
}

func TestCreateDogDeterministicSpawn(t *testing.T) {
	reg, _ := NewRegistry([]*Map{testMap()})
	s, _ := reg.FindOrCreateSession("town", LootConfig{})

	d := s.CreateDog("Rex", false, nil)

	if d.Position != (mgl64.Vec2{0, 0}) {
		t.Fatalf("expected deterministic spawn at road start, got %v", d.Position)
	}
}

func TestBagCapacityInvariant(t *testing.T) {
	d := NewDog(0, "Rex", mgl64.Vec2{0, 0}, 2)

	if !d.AddToBag(1, 0) {
		t.Fatal("expected first insert to succeed")
	}
	if !d.AddToBag(2, 1) {
		t.Fatal("expected second insert to succeed")
	}
	if d.AddToBag(3, 0) {
		t.Fatal("expected third insert to fail: bag is full")
	}
	if d.BagCount() != 2 {
		t.Fatalf("expected 2 items in bag, got %d", d.BagCount())
	}

	items := d.ClearBag()
	if len(items) != 2 {
		t.Fatalf("expected ClearBag to return 2 items, got %d", len(items))
	}
	if d.BagCount() != 0 {
		t.Fatal("expected bag to be empty after ClearBag")
	}
}

func TestGenerateLostObjectsNoopWithoutTypes(t *testing.T) {
	m := testMap()
	m.LootValues = nil
	reg, _ := NewRegistry([]*Map{m})
	s, _ := reg.FindOrCreateSession("town", LootConfig{BaseInterval: time.Second, Probability: 1})

	s.GenerateLostObjects(time.Second, rand.New(rand.NewSource(1)))

	if len(s.LostObjects()) != 0 {
		t.Fatal("expected no lost objects to be generated when T=0")
	}
}

func TestRandomRoadPositionIsOnNetwork(t *testing.T) {
	m := testMap()
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		p := RandomRoadPosition(m, rng)
		if !m.Network().OnNetwork(p) {
			t.Fatalf("sampled position %v is off the road network", p)
		}
	}
}
