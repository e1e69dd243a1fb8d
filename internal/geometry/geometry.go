// Package geometry implements the road graph and the road-constrained
// kinematics used to move a dog each tick.
package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
)

// HalfRoadWidth is the fixed half-width of every road, W in spec terms.
const HalfRoadWidth = 0.4

// Direction is one of the four facing directions a dog can have.
type Direction uint8

const (
	North Direction = iota
	South
	West
	East
)

// String renders the wire form used by the HTTP API ("U","D","L","R").
func (d Direction) String() string {
	switch d {
	case North:
		return "U"
	case South:
		return "D"
	case West:
		return "L"
	case East:
		return "R"
	default:
		return ""
	}
}

// DirectionFromString parses the wire form. ok is false for anything other
// than the four known single-letter codes.
func DirectionFromString(s string) (Direction, bool) {
	switch s {
	case "U":
		return North, true
	case "D":
		return South, true
	case "L":
		return West, true
	case "R":
		return East, true
	default:
		return 0, false
	}
}

// Velocity returns the velocity vector for a dog facing d at speed units
// per second.
func (d Direction) Velocity(speed float64) mgl64.Vec2 {
	switch d {
	case North:
		return mgl64.Vec2{0, -speed}
	case South:
		return mgl64.Vec2{0, speed}
	case West:
		return mgl64.Vec2{-speed, 0}
	case East:
		return mgl64.Vec2{speed, 0}
	default:
		return mgl64.Vec2{0, 0}
	}
}

// Road is an axis-aligned segment with integer endpoints and the fixed
// half-width HalfRoadWidth. Exactly one of X0==X1 (vertical) or Y0==Y1
// (horizontal) holds.
type Road struct {
	X0, Y0 int
	X1, Y1 int
}

// Horizontal reports whether the road runs along the X axis.
func (r Road) Horizontal() bool {
	return r.Y0 == r.Y1
}

// Bounds returns the road's axis-aligned bounding box, inflated by
// HalfRoadWidth on every side.
func (r Road) Bounds() (minX, minY, maxX, maxY float64) {
	x0, x1 := float64(r.X0), float64(r.X1)
	y0, y1 := float64(r.Y0), float64(r.Y1)
	minX, maxX = minmax(x0, x1)
	minY, maxY = minmax(y0, y1)
	minX -= HalfRoadWidth
	minY -= HalfRoadWidth
	maxX += HalfRoadWidth
	maxY += HalfRoadWidth
	return
}

// Contains reports whether p lies inside the road's bounding box.
func (r Road) Contains(p mgl64.Vec2) bool {
	minX, minY, maxX, maxY := r.Bounds()
	return p[0] >= minX && p[0] <= maxX && p[1] >= minY && p[1] <= maxY
}

func minmax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}

// Network is an immutable set of roads forming the street area of one map.
type Network struct {
	Roads []Road
}

// OnNetwork reports whether p lies inside the union of road bounding boxes.
func (n Network) OnNetwork(p mgl64.Vec2) bool {
	for _, r := range n.Roads {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// RoadsContaining returns every road whose bounding box contains p.
func (n Network) RoadsContaining(p mgl64.Vec2) []Road {
	var out []Road
	for _, r := range n.Roads {
		if r.Contains(p) {
			out = append(out, r)
		}
	}
	return out
}

// Step is the outcome of one kinematic tick for a dog.
type Step struct {
	Position mgl64.Vec2
	Stopped  bool
}

// Move computes the next position for a dog at pos, moving with velocity v
// and facing dir, over dt seconds. If the straight-line candidate lands on
// the road network it is accepted outright. Otherwise the dog is clamped
// to the furthest reachable coordinate along its facing direction among the
// roads currently containing pos, and reported stopped.
//
// pos must already lie on the network (an invariant of Dog); Move panics
// if RoadsContaining(pos) is empty, since that invariant would have been
// violated earlier.
func Move(n Network, pos, v mgl64.Vec2, dir Direction, dt float64) Step {
	candidate := pos.Add(v.Mul(dt))
	if n.OnNetwork(candidate) {
		return Step{Position: candidate, Stopped: false}
	}

	containing := n.RoadsContaining(pos)
	if len(containing) == 0 {
		panic("geometry: Move called with a position off the road network")
	}

	clamped := pos
	switch dir {
	case North:
		clamped[1] = minBound(containing, axisY, true)
	case South:
		clamped[1] = minBound(containing, axisY, false)
	case West:
		clamped[0] = minBound(containing, axisX, true)
	case East:
		clamped[0] = minBound(containing, axisX, false)
	}

	return Step{Position: clamped, Stopped: true}
}

type axis int

const (
	axisX axis = iota
	axisY
)

// minBound returns, across roads, the minimum bound (wantMin=true) or the
// maximum bound (wantMin=false) of the requested axis's inflated range.
func minBound(roads []Road, a axis, wantMin bool) float64 {
	var result float64
	first := true
	for _, r := range roads {
		minX, minY, maxX, maxY := r.Bounds()
		var v float64
		if a == axisX {
			if wantMin {
				v = minX
			} else {
				v = maxX
			}
		} else {
			if wantMin {
				v = minY
			} else {
				v = maxY
			}
		}
		if first {
			result = v
			first = false
			continue
		}
		if wantMin && v < result {
			result = v
		}
		if !wantMin && v > result {
			result = v
		}
	}
	return result
}
