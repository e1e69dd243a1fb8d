// Package snapshot implements crash-consistent save/restore of live world
// state: sessions, dogs, lost objects, and players, keyed by token.
package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"strayfinder/internal/apperr"
	"strayfinder/internal/geometry"
	"strayfinder/internal/players"
	"strayfinder/internal/world"
)

// magic identifies a strayfinder state file; version is bumped on any
// incompatible change to the document below it. Restore rejects a
// mismatched version outright rather than attempting to migrate it.
const (
	magic          = "SFSS"
	currentVersion = uint32(1)
)

type header struct {
	Magic   [4]byte
	Version uint32
}

// document is the full textual body of a snapshot, following the header.
type document struct {
	Sessions []sessionDoc `json:"sessions"`
}

type sessionDoc struct {
	MapID       string      `json:"mapId"`
	TypeCount   int         `json:"typeCount"`
	LostObjects []objectDoc `json:"lostObjects"`
	Dogs        []dogDoc    `json:"dogs"`
}

type objectDoc struct {
	ID   int     `json:"id"`
	Type int     `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type dogDoc struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	VX           float64   `json:"vx"`
	VY           float64   `json:"vy"`
	Direction    string    `json:"direction"`
	BagCapacity  int       `json:"bagCapacity"`
	Bag          []*bagDoc `json:"bag"`
	Score        int       `json:"score"`
	Token        string    `json:"token"`
	LiveDuration int64     `json:"liveDurationMs"`
	StopDuration int64     `json:"stopDurationMs"`
}

type bagDoc struct {
	ObjectID int `json:"objectId"`
	Type     int `json:"type"`
}

// Save serializes every live session to path, atomically: it writes to a
// temp file beside path, named after path's base name without its
// extension plus "_tmp.state", fsyncs, then renames over path. A partially
// written temp file left behind by a crash never replaces the live file,
// satisfying the durability contract in spec.md §4.6.
func Save(path string, w *world.Registry, pr *players.Registry) error {
	doc := buildDocument(w, pr)

	body, err := json.Marshal(doc)
	if err != nil {
		return apperr.NewPersistence("encoding snapshot", err)
	}

	tmp := tempPath(path)
	f, err := os.Create(tmp)
	if err != nil {
		return apperr.NewPersistence("creating temp state file", err)
	}

	hdr := header{Version: currentVersion}
	copy(hdr.Magic[:], magic)
	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperr.NewPersistence("writing state header", err)
	}
	if _, err := f.Write(body); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperr.NewPersistence("writing state body", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperr.NewPersistence("syncing state file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return apperr.NewPersistence("closing state file", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return apperr.NewPersistence("renaming state file into place", err)
	}
	return nil
}

func tempPath(path string) string {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	return filepath.Join(dir, stem+"_tmp.state")
}

func buildDocument(w *world.Registry, pr *players.Registry) document {
	byDog := make(map[*world.Session]map[int]*players.Player)
	for session, ps := range pr.BySession() {
		m := make(map[int]*players.Player, len(ps))
		for _, p := range ps {
			m[p.Dog.ID] = p
		}
		byDog[session] = m
	}

	var doc document
	for _, session := range w.Sessions() {
		sd := sessionDoc{
			MapID:     session.Map.ID,
			TypeCount: session.TypeCount(),
		}
		for _, obj := range session.LostObjects() {
			sd.LostObjects = append(sd.LostObjects, objectDoc{ID: obj.ID, Type: obj.Type, X: obj.Position[0], Y: obj.Position[1]})
		}

		playersByDog := byDog[session]
		for _, dog := range session.Dogs() {
			dd := dogDoc{
				ID:          dog.ID,
				Name:        dog.Name,
				X:           dog.Position[0],
				Y:           dog.Position[1],
				VX:          dog.Velocity[0],
				VY:          dog.Velocity[1],
				Direction:   dog.Direction.String(),
				BagCapacity: dog.BagCapacity(),
			}
			for _, item := range dog.BagItems() {
				item := item
				dd.Bag = append(dd.Bag, &bagDoc{ObjectID: item.ObjectID, Type: item.Type})
			}
			if p, ok := playersByDog[dog.ID]; ok {
				dd.Score = p.Score
				dd.Token = p.Token
				dd.LiveDuration = p.LiveDuration().Milliseconds()
				dd.StopDuration = p.StopDuration().Milliseconds()
			}
			sd.Dogs = append(sd.Dogs, dd)
		}
		doc.Sessions = append(doc.Sessions, sd)
	}
	return doc
}

// Restore loads path into w and pr. It is a no-op, returning no error, if
// the file does not exist. Any other failure — bad magic/version,
// unknown map id, or a mismatch with the current config on bag capacity,
// type count, a lost object's type outside the map's range, or a lost
// object lying off the map's road network — is fatal: the caller
// must abort startup.
func Restore(path string, w *world.Registry, pr *players.Registry) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperr.NewPersistence("opening state file", err)
	}
	defer f.Close()

	var hdr header
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return apperr.NewPersistence("reading state header", err)
	}
	if string(hdr.Magic[:]) != magic {
		return apperr.NewPersistence("state file has an invalid magic header", nil)
	}
	if hdr.Version != currentVersion {
		return apperr.NewPersistence(fmt.Sprintf("state file version %d is not supported (expected %d)", hdr.Version, currentVersion), nil)
	}

	body, err := io.ReadAll(f)
	if err != nil {
		return apperr.NewPersistence("reading state body", err)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return apperr.NewPersistence("decoding state body", err)
	}

	return applyDocument(doc, w, pr)
}

func applyDocument(doc document, w *world.Registry, pr *players.Registry) error {
	for _, sd := range doc.Sessions {
		m := w.Find(sd.MapID)
		if m == nil {
			return apperr.NewPersistence(fmt.Sprintf("snapshot references unknown map %q", sd.MapID), nil)
		}
		if m.TypeCount() != sd.TypeCount {
			return apperr.NewPersistence(fmt.Sprintf("map %q type count mismatch: config has %d, snapshot has %d", sd.MapID, m.TypeCount(), sd.TypeCount), nil)
		}

		session, err := w.FindOrCreateSession(sd.MapID, world.LootConfig{})
		if err != nil {
			return apperr.NewPersistence("creating session during restore", err)
		}

		for _, obj := range sd.LostObjects {
			if obj.Type < 0 || obj.Type >= m.TypeCount() {
				return apperr.NewPersistence(fmt.Sprintf("snapshot lost object %d has out-of-range type %d", obj.ID, obj.Type), nil)
			}
			pos := mgl64.Vec2{obj.X, obj.Y}
			if !m.Network().OnNetwork(pos) {
				return apperr.NewPersistence(fmt.Sprintf("snapshot lost object %d lies off the road network", obj.ID), nil)
			}
			session.PlaceLostObject(obj.ID, obj.Type, pos)
		}

		for _, dd := range sd.Dogs {
			if dd.BagCapacity != m.DefaultBagCapacity {
				return apperr.NewPersistence(fmt.Sprintf("dog %d bag capacity mismatch: config has %d, snapshot has %d", dd.ID, m.DefaultBagCapacity, dd.BagCapacity), nil)
			}
			dir, ok := geometry.DirectionFromString(dd.Direction)
			if !ok {
				return apperr.NewPersistence(fmt.Sprintf("dog %d has an invalid direction %q", dd.ID, dd.Direction), nil)
			}

			dog := session.RestoreDog(dd.ID, dd.Name, mgl64.Vec2{dd.X, dd.Y}, mgl64.Vec2{dd.VX, dd.VY}, dir, dd.BagCapacity)
			for _, item := range dd.Bag {
				if item == nil {
					continue
				}
				dog.AddToBag(item.ObjectID, item.Type)
			}

			if dd.Token != "" {
				pr.RestorePlayer(dd.Token, dog, session, dd.Score, dd.LiveDuration, dd.StopDuration)
			}
		}
	}
	return nil
}
