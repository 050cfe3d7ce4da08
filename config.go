package planar

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Integration method selectors.
const (
	IntegrationVerlet = "verlet"
	IntegrationEuler  = "euler"
)

// Bounds is an optional axis-aligned world boundary. Bodies are clamped
// inside it and emit boundary-contact events when they hit an edge.
type Bounds struct {
	Min mgl64.Vec2 `yaml:"min"`
	Max mgl64.Vec2 `yaml:"max"`
}

// Config holds every tunable of a World. All fields round-trip through
// YAML so scenes can ship their physics settings as files.
type Config struct {
	// Gravity acceleration applied to every body, scaled per body
	Gravity mgl64.Vec2 `yaml:"gravity"`
	// Damping is the default per-body linear damping (0..1)
	Damping   float64 `yaml:"damping"`
	TimeScale float64 `yaml:"time_scale"`
	// TimeStep is the fixed integration step in seconds
	TimeStep float64 `yaml:"time_step"`
	// MaxSubSteps caps the fixed steps drained per Simulate call
	MaxSubSteps int `yaml:"max_sub_steps"`

	SleepVelocityThreshold float64 `yaml:"sleep_velocity_threshold"`
	SleepAngularThreshold  float64 `yaml:"sleep_angular_threshold"`
	// SleepTimeThreshold is the idle time in milliseconds before a body
	// falls asleep
	SleepTimeThreshold float64 `yaml:"sleep_time_threshold"`
	EnableSleeping     bool    `yaml:"enable_sleeping"`

	// Integration selects the scheme: "verlet" (default) or "euler"
	Integration string `yaml:"integration"`

	Bounds *Bounds `yaml:"bounds,omitempty"`

	// Broad-phase grid sizing
	CellSize  float64 `yaml:"cell_size"`
	GridCells int     `yaml:"grid_cells"`
}

// DefaultConfig returns the construction defaults applied before any
// caller configuration.
func DefaultConfig() Config {
	return Config{
		Gravity:                mgl64.Vec2{0, 9.8},
		Damping:                0.01,
		TimeScale:              1,
		TimeStep:               1.0 / 60,
		MaxSubSteps:            5,
		SleepVelocityThreshold: 0.05,
		SleepAngularThreshold:  0.05,
		SleepTimeThreshold:     1000,
		EnableSleeping:         true,
		Integration:            IntegrationVerlet,
		CellSize:               100,
		GridCells:              1024,
	}
}

// ConfigPatch updates only the fields that are set; nil pointers leave
// the current value untouched. ClearBounds removes the world bounds.
type ConfigPatch struct {
	Gravity                *mgl64.Vec2
	Damping                *float64
	TimeScale              *float64
	TimeStep               *float64
	MaxSubSteps            *int
	SleepVelocityThreshold *float64
	SleepAngularThreshold  *float64
	SleepTimeThreshold     *float64
	EnableSleeping         *bool
	Integration            *string
	Bounds                 *Bounds
	ClearBounds            bool
	CellSize               *float64
	GridCells              *int
}

// Apply merges the present fields of the patch into the config.
func (c *Config) Apply(p ConfigPatch) {
	if p.Gravity != nil {
		c.Gravity = *p.Gravity
	}
	if p.Damping != nil {
		c.Damping = *p.Damping
	}
	if p.TimeScale != nil {
		c.TimeScale = *p.TimeScale
	}
	if p.TimeStep != nil {
		c.TimeStep = *p.TimeStep
	}
	if p.MaxSubSteps != nil {
		c.MaxSubSteps = *p.MaxSubSteps
	}
	if p.SleepVelocityThreshold != nil {
		c.SleepVelocityThreshold = *p.SleepVelocityThreshold
	}
	if p.SleepAngularThreshold != nil {
		c.SleepAngularThreshold = *p.SleepAngularThreshold
	}
	if p.SleepTimeThreshold != nil {
		c.SleepTimeThreshold = *p.SleepTimeThreshold
	}
	if p.EnableSleeping != nil {
		c.EnableSleeping = *p.EnableSleeping
	}
	if p.Integration != nil {
		c.Integration = *p.Integration
	}
	if p.Bounds != nil {
		bounds := *p.Bounds
		c.Bounds = &bounds
	}
	if p.ClearBounds {
		c.Bounds = nil
	}
	if p.CellSize != nil {
		c.CellSize = *p.CellSize
	}
	if p.GridCells != nil {
		c.GridCells = *p.GridCells
	}
}

// normalize clamps nonsensical values back to usable defaults.
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.TimeStep <= 0 {
		c.TimeStep = defaults.TimeStep
	}
	if c.TimeScale <= 0 {
		c.TimeScale = defaults.TimeScale
	}
	if c.MaxSubSteps <= 0 {
		c.MaxSubSteps = defaults.MaxSubSteps
	}
	if c.CellSize <= 0 {
		c.CellSize = defaults.CellSize
	}
	if c.GridCells <= 0 {
		c.GridCells = defaults.GridCells
	}
	if c.Integration != IntegrationEuler {
		c.Integration = IntegrationVerlet
	}
}

// LoadConfig reads a YAML config file, layered over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	config.normalize()

	return config, nil
}

// Pointer helpers for patch and body-config literals.

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Uint(v uint32) *uint32 { return &v }

func Flag(v bool) *bool { return &v }

func Vec(x, y float64) *mgl64.Vec2 { return &mgl64.Vec2{x, y} }
