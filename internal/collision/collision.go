// Package collision implements the swept-segment vs. point gathering test
// shared by item pickup and office deposit.
package collision

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Tolerance absorbs floating point error in the swept-distance comparison.
const Tolerance = 1e-10

// Gatherer is a moving circle: a dog's position before and after one tick.
type Gatherer struct {
	Start, End mgl64.Vec2
	Radius     float64
}

// Item is a stationary circle: an office or a lost object.
type Item struct {
	Position mgl64.Vec2
	Radius   float64
}

// Provider supplies the ordered items and gatherers for one detection pass.
type Provider struct {
	Gatherers []Gatherer
	Items     []Item
}

// Event is one (gatherer, item) pickup, with Time in [0,1] along the
// gatherer's sweep.
type Event struct {
	ItemIndex     int
	GathererIndex int
	SqDistance    float64
	Time          float64
}

// Detect runs the swept-segment test for every (gatherer, item) pair and
// returns the events in non-decreasing Time order.
func Detect(p Provider) []Event {
	var events []Event

	for gi, g := range p.Gatherers {
		a := g.End.Sub(g.Start)
		aa := a.Dot(a)

		for ii, it := range p.Items {
			sumRadii := g.Radius + it.Radius

			// A gatherer that didn't move this tick never collects: a·a
			// divides the projection below, so we treat it as a no-op
			// rather than divide by zero.
			if aa == 0 {
				continue
			}

			b := it.Position.Sub(g.Start)
			u := a.Dot(b) / aa

			if u < 0 || u > 1 {
				continue
			}

			c := g.Start.Add(a.Mul(clamp01(u)))
			d := it.Position.Sub(c)
			d2 := d.Dot(d)

			if d2 <= sumRadii*sumRadii+Tolerance {
				events = append(events, Event{ItemIndex: ii, GathererIndex: gi, SqDistance: d2, Time: u})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})

	return events
}

func clamp01(u float64) float64 {
	return math.Max(0, math.Min(1, u))
}
