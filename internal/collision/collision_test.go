package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestStationaryGathererNeverCollects(t *testing.T) {
	p := Provider{
		Gatherers: []Gatherer{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{0, 0}, Radius: 10}},
		Items:     []Item{{Position: mgl64.Vec2{0, 0}, Radius: 10}},
	}

	if events := Detect(p); len(events) != 0 {
		t.Fatalf("expected no events for a stationary gatherer, got %v", events)
	}
}

func TestSymmetryUnderSweepReversal(t *testing.T) {
	item := Item{Position: mgl64.Vec2{5, 0}, Radius: 0.1}
	forward := Provider{
		Gatherers: []Gatherer{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{10, 0}, Radius: 0.6}},
		Items:     []Item{item},
	}
	backward := Provider{
		Gatherers: []Gatherer{{Start: mgl64.Vec2{10, 0}, End: mgl64.Vec2{0, 0}, Radius: 0.6}},
		Items:     []Item{item},
	}

	fe := Detect(forward)
	be := Detect(backward)

	if len(fe) != 1 || len(be) != 1 {
		t.Fatalf("expected exactly one event each way, got %d and %d", len(fe), len(be))
	}
	if diff := (fe[0].Time + be[0].Time) - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected times to sum to 1, got %v and %v", fe[0].Time, be[0].Time)
	}
}

func TestEventsOrderedByTime(t *testing.T) {
	p := Provider{
		Gatherers: []Gatherer{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{10, 0}, Radius: 0.6}},
		Items: []Item{
			{Position: mgl64.Vec2{7, 0}, Radius: 0},
			{Position: mgl64.Vec2{3, 0}, Radius: 0},
		},
	}

	events := Detect(p)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Time > events[1].Time {
		t.Fatalf("events not ordered by time: %v", events)
	}
	if events[0].ItemIndex != 1 {
		t.Fatalf("expected the closer item (index 1) first, got %d", events[0].ItemIndex)
	}
}

func TestNoCollisionOutsideSweepWindow(t *testing.T) {
	p := Provider{
		Gatherers: []Gatherer{{Start: mgl64.Vec2{0, 0}, End: mgl64.Vec2{5, 0}, Radius: 0.1}},
		Items:     []Item{{Position: mgl64.Vec2{10, 0}, Radius: 0.1}},
	}

	if events := Detect(p); len(events) != 0 {
		t.Fatalf("expected no events, item is past the end of the sweep, got %v", events)
	}
}
