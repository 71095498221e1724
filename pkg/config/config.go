// Package config loads and saves simulation settings as JSON.
// Only settings and the starting scenario live here, never running state.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/olivierh59500/plate-field-go/pkg/exchange"
	"github.com/olivierh59500/plate-field-go/pkg/plate"
	"github.com/olivierh59500/plate-field-go/pkg/seed"
	"github.com/olivierh59500/plate-field-go/pkg/simulation"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// Limits on resistor strength and fill density
const (
	MinResistor = 0.01
	MaxResistor = 1.0
	MinDensity  = 1
	MaxDensity  = 6
)

// Presets that spread bodies over the bound
var boundedPresets = map[string]bool{"rect": true, "noise": true, "large-plate": true}

// Config is the full settings file
type Config struct {
	Theta      float64           `json:"theta"`
	Epsilon    float64           `json:"epsilon"`
	Tunables   exchange.Tunables `json:"tunables"`
	TickMillis int               `json:"tick_ms"`
	Workers    int               `json:"workers,omitempty"` // 0 selects GOMAXPROCS
	Scenario   Scenario          `json:"scenario"`
	Editor     Editor            `json:"editor"`
}

// Scenario describes the starting layout
type Scenario struct {
	Preset string        `json:"preset"`
	Bodies int           `json:"bodies"`
	Bound  float64       `json:"bound"` // Half extent for rectangular presets
	Seed   int64         `json:"seed"`
	Plates []PlateConfig `json:"plates,omitempty"`
}

// PlateConfig is one extra plate added on top of the preset
type PlateConfig struct {
	Min      [2]float64 `json:"min"`
	Max      [2]float64 `json:"max"`
	Type     plate.Type `json:"type"`
	Strength float64    `json:"strength,omitempty"` // Battery field
	Resist   float64    `json:"resist,omitempty"`   // Resistor drag
}

// Editor holds the consumer-side editing defaults
type Editor struct {
	GridSize         float64 `json:"grid_size"`
	Density          int     `json:"density"`
	BatteryStrength  float64 `json:"battery_strength"`
	ResistorStrength float64 `json:"resistor_strength"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Theta:      simulation.DefaultTheta,
		Epsilon:    simulation.DefaultEpsilon,
		Tunables:   exchange.Tunables{Dt: 1.0, QE: 0.56, QP: 4.5e-2},
		TickMillis: int(simulation.DefaultTickInterval / time.Millisecond),
		Scenario: Scenario{
			Preset: "three-body",
			Bodies: 1000,
			Bound:  200,
		},
		Editor: Editor{
			GridSize:         10,
			Density:          4,
			BatteryStrength:  1.0,
			ResistorStrength: 0.5,
		},
	}
}

// Load reads path over the defaults, so a file may set only some fields
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg as indented JSON
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects settings the simulation cannot run with
func (c Config) Validate() error {
	if c.Theta < 0 {
		return fmt.Errorf("%w: theta %v is negative", ErrInvalid, c.Theta)
	}
	if c.Epsilon < 0 {
		return fmt.Errorf("%w: epsilon %v is negative", ErrInvalid, c.Epsilon)
	}
	if c.Tunables.Dt <= 0 {
		return fmt.Errorf("%w: dt %v must be positive", ErrInvalid, c.Tunables.Dt)
	}
	if c.Scenario.Bodies < 0 {
		return fmt.Errorf("%w: body count %d is negative", ErrInvalid, c.Scenario.Bodies)
	}
	if boundedPresets[c.Scenario.Preset] && !(c.Scenario.Bound > 0) {
		return fmt.Errorf("%w: preset %s needs a positive bound, got %v", ErrInvalid, c.Scenario.Preset, c.Scenario.Bound)
	}
	if c.Editor.GridSize <= 0 {
		return fmt.Errorf("%w: grid size %v must be positive", ErrInvalid, c.Editor.GridSize)
	}
	if c.Editor.Density < MinDensity || c.Editor.Density > MaxDensity {
		return fmt.Errorf("%w: density %d outside %d..%d", ErrInvalid, c.Editor.Density, MinDensity, MaxDensity)
	}
	if !(c.Editor.ResistorStrength >= MinResistor && c.Editor.ResistorStrength <= MaxResistor) {
		return fmt.Errorf("%w: resistor strength %v outside %v..%v", ErrInvalid, c.Editor.ResistorStrength, MinResistor, MaxResistor)
	}
	for i, p := range c.Scenario.Plates {
		if p.Min[0] >= p.Max[0] || p.Min[1] >= p.Max[1] {
			return fmt.Errorf("%w: plate %d has empty bounds %v..%v", ErrInvalid, i, p.Min, p.Max)
		}
		// Bodies on a resistor take its value as their resistance, which must stay in (0, 1]
		if p.Type == plate.Resistor && !(p.Resist > 0 && p.Resist <= 1) {
			return fmt.Errorf("%w: resistor plate %d has resist %v outside (0, 1]", ErrInvalid, i, p.Resist)
		}
	}
	return nil
}

// TickInterval returns the simulation cadence
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

// Plate builds the configured plate
func (p PlateConfig) Plate() plate.Plate {
	out := plate.New(r2.Vec{X: p.Min[0], Y: p.Min[1]}, r2.Vec{X: p.Max[0], Y: p.Max[1]})
	out.Apply(p.Type, p.Strength, p.Resist)
	return out
}

// Scene builds the starting layout: the preset plus any configured plates
func (c Config) Scene() (seed.Scene, error) {
	rng := rand.New(rand.NewSource(c.Scenario.Seed))
	scene, err := seed.Preset(c.Scenario.Preset, c.Scenario.Bodies, c.Scenario.Bound, rng)
	if err != nil {
		return scene, fmt.Errorf("build scenario: %w", err)
	}
	for _, p := range c.Scenario.Plates {
		scene.Plates = append(scene.Plates, p.Plate())
	}
	return scene, nil
}

// NewSimulation creates a simulation loaded with the configured scene
func (c Config) NewSimulation() (*simulation.Simulation, error) {
	scene, err := c.Scene()
	if err != nil {
		return nil, err
	}

	sim := simulation.New(c.Theta, c.Epsilon, c.Tunables)
	if c.Workers > 0 {
		sim.Workers = c.Workers
	}
	sim.Bodies = scene.Bodies
	sim.Plates = scene.Plates
	return sim, nil
}
