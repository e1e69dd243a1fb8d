// Package appconfig loads the JSON config file naming a server's maps,
// roads, buildings, offices and loot types, per spec.md §6.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"strayfinder/internal/apperr"
	"strayfinder/internal/geometry"
	"strayfinder/internal/world"
)

// lootGeneratorConfig mirrors the config file's lootGeneratorConfig object.
type lootGeneratorConfig struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

// roadConfig accepts either {x0,y0,x1} (horizontal) or {x0,y0,y1}
// (vertical); exactly one of X1/Y1 must be set.
type roadConfig struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingConfig struct {
	X, Y, W, H int
}

type officeConfig struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// lootTypeConfig captures the fields the core needs (value); the raw
// object is kept alongside for pass-through to the /maps/{id} response.
type lootTypeConfig struct {
	Value int `json:"value"`
}

type mapConfig struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	DogSpeed     *float64          `json:"dogSpeed,omitempty"`
	BagCapacity  *int              `json:"bagCapacity,omitempty"`
	Roads        []roadConfig      `json:"roads"`
	Buildings    []buildingConfig  `json:"buildings"`
	Offices      []officeConfig    `json:"offices"`
	LootTypesRaw []json.RawMessage `json:"lootTypes"`
}

type fileConfig struct {
	DefaultDogSpeed     float64             `json:"defaultDogSpeed"`
	DefaultBagCapacity  int                 `json:"defaultBagCapacity"`
	LootGeneratorConfig lootGeneratorConfig `json:"lootGeneratorConfig"`
	DogRetirementTime   float64             `json:"dogRetirementTime"`
	Maps                []mapConfig         `json:"maps"`
}

// Config is the fully parsed, validated configuration used to build the
// world registry and the tick pipeline's retirement threshold and loot
// generator defaults.
type Config struct {
	DefaultDogSpeed     float64
	DefaultBagCapacity  int
	LootBaseInterval    time.Duration
	LootProbability     float64
	RetirementThreshold time.Duration
	Maps                []*world.Map
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.NewConfig("reading config file", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, apperr.NewConfig("parsing config file", err)
	}

	retirement := 60 * time.Second
	if fc.DogRetirementTime > 0 {
		retirement = time.Duration(fc.DogRetirementTime * float64(time.Second))
	}

	cfg := &Config{
		DefaultDogSpeed:     fc.DefaultDogSpeed,
		DefaultBagCapacity:  fc.DefaultBagCapacity,
		LootBaseInterval:    time.Duration(fc.LootGeneratorConfig.Period * float64(time.Second)),
		LootProbability:     fc.LootGeneratorConfig.Probability,
		RetirementThreshold: retirement,
	}

	if len(fc.Maps) == 0 {
		return nil, apperr.NewConfig("config file declares no maps", nil)
	}

	for _, mc := range fc.Maps {
		m, err := buildMap(mc, cfg.DefaultDogSpeed, cfg.DefaultBagCapacity)
		if err != nil {
			return nil, err
		}
		cfg.Maps = append(cfg.Maps, m)
	}

	return cfg, nil
}

func buildMap(mc mapConfig, defaultSpeed float64, defaultBagCapacity int) (*world.Map, error) {
	if mc.ID == "" {
		return nil, apperr.NewConfig("a map is missing an id", nil)
	}
	if len(mc.Roads) == 0 {
		return nil, apperr.NewConfig(fmt.Sprintf("map %q has no roads", mc.ID), nil)
	}

	m := &world.Map{
		ID:                 mc.ID,
		Name:               mc.Name,
		DefaultSpeed:       defaultSpeed,
		DefaultBagCapacity: defaultBagCapacity,
	}
	if mc.DogSpeed != nil {
		m.DefaultSpeed = *mc.DogSpeed
	}
	if mc.BagCapacity != nil {
		m.DefaultBagCapacity = *mc.BagCapacity
	}

	for _, rc := range mc.Roads {
		road, err := buildRoad(mc.ID, rc)
		if err != nil {
			return nil, err
		}
		m.Roads = append(m.Roads, road)
	}

	for _, bc := range mc.Buildings {
		m.Buildings = append(m.Buildings, world.Building{X: bc.X, Y: bc.Y, W: bc.W, H: bc.H})
	}

	for _, oc := range mc.Offices {
		m.Offices = append(m.Offices, world.Office{ID: oc.ID, X: oc.X, Y: oc.Y, OffsetX: oc.OffsetX, OffsetY: oc.OffsetY})
	}

	for _, raw := range mc.LootTypesRaw {
		var lt lootTypeConfig
		if err := json.Unmarshal(raw, &lt); err != nil {
			return nil, apperr.NewConfig(fmt.Sprintf("map %q has a malformed loot type", mc.ID), err)
		}
		m.LootValues = append(m.LootValues, lt.Value)
		m.LootRaw = append(m.LootRaw, raw)
	}

	return m, nil
}

func buildRoad(mapID string, rc roadConfig) (geometry.Road, error) {
	switch {
	case rc.X1 != nil && rc.Y1 == nil:
		return geometry.Road{X0: rc.X0, Y0: rc.Y0, X1: *rc.X1, Y1: rc.Y0}, nil
	case rc.Y1 != nil && rc.X1 == nil:
		return geometry.Road{X0: rc.X0, Y0: rc.Y0, X1: rc.X0, Y1: *rc.Y1}, nil
	default:
		return geometry.Road{}, apperr.NewConfig(fmt.Sprintf("map %q has a road that is neither purely horizontal nor vertical", mapID), nil)
	}
}
