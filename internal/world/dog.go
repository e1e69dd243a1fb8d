package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"strayfinder/internal/geometry"
)

// BagItem is one lost object carried in a dog's bag.
type BagItem struct {
	ObjectID int
	Type     int
}

// Dog is one session-local player avatar.
type Dog struct {
	ID        int
	Name      string
	Position  mgl64.Vec2
	Velocity  mgl64.Vec2
	Direction geometry.Direction

	// bag has a fixed length equal to the session's bag capacity; a nil
	// entry is an empty slot. Use BagCount/AddToBag/ClearBag rather than
	// indexing directly.
	bag []*BagItem
}

// NewDog creates a dog at pos with the given bag capacity, facing South
// by default.
func NewDog(id int, name string, pos mgl64.Vec2, capacity int) *Dog {
	return &Dog{
		ID:        id,
		Name:      name,
		Position:  pos,
		Direction: geometry.South,
		bag:       make([]*BagItem, capacity),
	}
}

// BagCapacity returns the fixed number of bag slots.
func (d *Dog) BagCapacity() int {
	return len(d.bag)
}

// BagCount returns the number of non-empty bag slots.
func (d *Dog) BagCount() int {
	n := 0
	for _, it := range d.bag {
		if it != nil {
			n++
		}
	}
	return n
}

// BagItems returns the carried items in slot order, skipping empties.
func (d *Dog) BagItems() []BagItem {
	out := make([]BagItem, 0, len(d.bag))
	for _, it := range d.bag {
		if it != nil {
			out = append(out, *it)
		}
	}
	return out
}

// AddToBag inserts item into the first empty slot. It reports false
// (without mutating anything) if the bag is already full.
func (d *Dog) AddToBag(objectID, typeIdx int) bool {
	for i, it := range d.bag {
		if it == nil {
			d.bag[i] = &BagItem{ObjectID: objectID, Type: typeIdx}
			return true
		}
	}
	return false
}

// ClearBag empties every slot and returns the items that were carried.
func (d *Dog) ClearBag() []BagItem {
	items := d.BagItems()
	for i := range d.bag {
		d.bag[i] = nil
	}
	return items
}

// SetDirection changes facing and sets velocity to the map's default speed
// in that direction. An empty/unrecognized move is handled by the caller
// via Stop, not this method.
func (d *Dog) SetDirection(dir geometry.Direction, speed float64) {
	d.Direction = dir
	d.Velocity = dir.Velocity(speed)
}

// Stop zeroes velocity, keeping the current facing.
func (d *Dog) Stop() {
	d.Velocity = mgl64.Vec2{0, 0}
}

// Stationary reports whether the dog has zero velocity.
func (d *Dog) Stationary() bool {
	return d.Velocity[0] == 0 && d.Velocity[1] == 0
}
