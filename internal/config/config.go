// Package config loads simulation parameters from YAML with embedded defaults.
// Scenario loaders override the defaults file; the decision core only ever
// reads the resulting Config.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every tunable of the decision core. The relevance/threat
// thresholds and decay constants are hand-tuned values carried over from the
// source model; they are configuration, not derived quantities.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Tick       TickConfig       `yaml:"tick"`
	Scent      ScentConfig      `yaml:"scent"`
	Movement   MovementConfig   `yaml:"movement"`
	Perception PerceptionConfig `yaml:"perception"`
	Cognition  CognitionConfig  `yaml:"cognition"`
	Population PopulationConfig `yaml:"population"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	API        APIConfig        `yaml:"api"`

	Species map[string]SpeciesConfig `yaml:"species"`
}

// WorldConfig holds map construction parameters.
type WorldConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"`
}

// TickConfig holds scheduling parameters.
type TickConfig struct {
	TicksPerHour int     `yaml:"ticks_per_hour"`
	TicksPerDay  int     `yaml:"ticks_per_day"`
	IntervalMS   int     `yaml:"interval_ms"` // wall-clock per tick at speed 1.0
	Speed        float64 `yaml:"speed"`
}

// ScentConfig holds shared scent field parameters.
type ScentConfig struct {
	GlobalDecay  float64 `yaml:"global_decay"`  // per-tick multiplier, e.g. 0.95
	Epsilon      float64 `yaml:"epsilon"`       // snap-to-zero floor
	EmitFalloff  float64 `yaml:"emit_falloff"`  // per-tile distance decay on emission
	GradientMin  float64 `yaml:"gradient_min"`  // below this, gradient is the zero vector
}

// MovementConfig holds steering weights and path search limits.
type MovementConfig struct {
	MomentumWeight float64 `yaml:"momentum_weight"`
	TargetWeight   float64 `yaml:"target_weight"`
	ScentWeight    float64 `yaml:"scent_weight"`
	SocialWeight   float64 `yaml:"social_weight"`
	ExploreWeight  float64 `yaml:"explore_weight"`
	NoiseWeight    float64 `yaml:"noise_weight"`

	MoveBonus     float64 `yaml:"move_bonus"`     // prefer-moving score bonus
	MomentumBlend float64 `yaml:"momentum_blend"` // EMA weight of the new step
	PathBudget    int     `yaml:"path_budget"`    // max expanded nodes for path search
}

// PerceptionConfig holds perception and memory parameters.
type PerceptionConfig struct {
	StalenessTicks uint64  `yaml:"staleness_ticks"` // records older than this are purged
	MemoryLimit    int     `yaml:"memory_limit"`    // rolling event memory length
	RelevanceMin   float64 `yaml:"relevance_min"`   // min relevance to enter memory
	ThreatHigh     float64 `yaml:"threat_high"`     // high-confidence threat threshold
}

// CognitionConfig holds external cognition provider settings.
type CognitionConfig struct {
	Endpoint  string `yaml:"endpoint"`    // empty = provider disabled
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the key
	TimeoutMS int    `yaml:"timeout_ms"`
	MaxPerMin int    `yaml:"max_per_min"`
}

// PopulationConfig holds starting population counts.
type PopulationConfig struct {
	Settlers      int     `yaml:"settlers"`
	Deer          int     `yaml:"deer"`
	Wolves        int     `yaml:"wolves"`
	Boars         int     `yaml:"boars"`
	ArrivalChance float64 `yaml:"arrival_chance"` // per-day chance of a faction group
}

// DifficultyConfig scales drive decay for harder or gentler runs.
type DifficultyConfig struct {
	DecayMultiplier float64 `yaml:"decay_multiplier"`
}

// TelemetryConfig controls CSV stat export.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	IntervalTicks uint64 `yaml:"interval_ticks"`
}

// APIConfig controls the read-only HTTP surface.
type APIConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// SpeciesConfig holds per-species behavior parameters. Drives absent from the
// map are simply not present on agents of that species.
type SpeciesConfig struct {
	PerceptionRadius int                    `yaml:"perception_radius"`
	DecisionInterval uint64                 `yaml:"decision_interval"`
	MaxHealth        float64                `yaml:"max_health"`
	MaxAgeTicks      uint64                 `yaml:"max_age_ticks"` // 0 = no aging (settlers, factions)
	Drives           map[string]DriveConfig `yaml:"drives"`
}

// DriveConfig holds the full parameter set of one drive.
type DriveConfig struct {
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
	Initial     float64 `yaml:"initial"`
	DecayRate   float64 `yaml:"decay_rate"`   // proportional per-tick decay
	LinearDecay float64 `yaml:"linear_decay"` // flat per-tick decay
	Restore     float64 `yaml:"restore"`      // default satisfaction amount
	Critical    float64 `yaml:"critical"`     // override threshold
}

// Load reads the embedded defaults and then overlays the YAML file at path,
// if given. Returns an error for unreadable files or invalid values.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the embedded default configuration.
// Panics if the embedded file is invalid — that is a build defect.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded defaults invalid: %v", err))
	}
	return cfg
}

// Validate checks invariants that would otherwise surface as silent
// misbehavior deep inside the simulation.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world size %dx%d invalid", c.World.Width, c.World.Height)
	}
	if c.Scent.GlobalDecay <= 0 || c.Scent.GlobalDecay >= 1 {
		return fmt.Errorf("scent global_decay %v must be in (0,1)", c.Scent.GlobalDecay)
	}
	if c.Scent.Epsilon <= 0 {
		return fmt.Errorf("scent epsilon %v must be positive", c.Scent.Epsilon)
	}
	if c.Movement.PathBudget <= 0 {
		return fmt.Errorf("movement path_budget %d must be positive", c.Movement.PathBudget)
	}
	if c.Perception.StalenessTicks == 0 {
		return fmt.Errorf("perception staleness_ticks must be positive")
	}
	if c.Difficulty.DecayMultiplier <= 0 {
		return fmt.Errorf("difficulty decay_multiplier %v must be positive", c.Difficulty.DecayMultiplier)
	}
	for name, sp := range c.Species {
		if sp.DecisionInterval == 0 {
			return fmt.Errorf("species %s: decision_interval must be positive", name)
		}
		if sp.PerceptionRadius <= 0 {
			return fmt.Errorf("species %s: perception_radius must be positive", name)
		}
		for drive, d := range sp.Drives {
			if d.Min >= d.Max {
				return fmt.Errorf("species %s drive %s: min %v >= max %v", name, drive, d.Min, d.Max)
			}
			if d.Initial < d.Min || d.Initial > d.Max {
				return fmt.Errorf("species %s drive %s: initial %v outside [%v,%v]", name, drive, d.Initial, d.Min, d.Max)
			}
			if d.Critical < d.Min || d.Critical > d.Max {
				return fmt.Errorf("species %s drive %s: critical %v outside [%v,%v]", name, drive, d.Critical, d.Min, d.Max)
			}
		}
	}
	return nil
}

// CognitionTimeout returns the per-request provider deadline.
func (c *Config) CognitionTimeout() time.Duration {
	if c.Cognition.TimeoutMS <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.Cognition.TimeoutMS) * time.Millisecond
}

// TickInterval returns the wall-clock duration of one tick at speed 1.0.
func (c *Config) TickInterval() time.Duration {
	if c.Tick.IntervalMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.Tick.IntervalMS) * time.Millisecond
}
