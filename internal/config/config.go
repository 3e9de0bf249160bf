// Package config resolves run settings from defaults, an optional YAML file,
// FACILITY_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"example.com/your_project/facility-location/internal/facility"
)

// EnvPrefix prefixes every environment override, e.g. FACILITY_SOLVER_DURATION.
const EnvPrefix = "FACILITY"

// Config is the resolved run configuration.
type Config struct {
	Solver  Solver
	Policy  facility.Policy
	Log     Log
	Metrics Metrics
	Batch   Batch
}

// Solver bounds each MIP solve.
type Solver struct {
	Duration time.Duration
	Gap      float64
}

// Log selects verbosity and encoding.
type Log struct {
	Level  string
	Format string
}

// Metrics configures the textfile export. An empty Textfile disables it.
type Metrics struct {
	Textfile string
}

// Batch bounds concurrent invocations of the batch command.
type Batch struct {
	Parallel int
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	p := facility.DefaultPolicy()
	v.SetDefault("solver.duration", 3*time.Minute)
	v.SetDefault("solver.gap", 0.0)
	v.SetDefault("policy.capacity", p.Capacity)
	v.SetDefault("policy.budget", p.Budget)
	v.SetDefault("policy.distance_cap", p.DistanceCap)
	v.SetDefault("policy.scaled_distance_cap", p.ScaledDistanceCap)
	v.SetDefault("policy.cost_mode_cap", p.CostModeCap.String())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("batch.parallel", 4)
}

// New returns a viper instance with defaults and environment overrides in
// place. When file is not empty it is read as well.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return v, nil
}

// BindFlags binds the flags that override config keys. Flag names use
// dashes, keys use dots.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, flag := range map[string]string{
		"solver.duration":  "duration",
		"solver.gap":       "gap",
		"log.level":        "log-level",
		"log.format":       "log-format",
		"metrics.textfile": "metrics-textfile",
		"batch.parallel":   "parallel",
	} {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load reads v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Solver: Solver{
			Duration: v.GetDuration("solver.duration"),
			Gap:      v.GetFloat64("solver.gap"),
		},
		Policy: facility.Policy{
			Capacity:          v.GetFloat64("policy.capacity"),
			Budget:            v.GetFloat64("policy.budget"),
			DistanceCap:       v.GetFloat64("policy.distance_cap"),
			ScaledDistanceCap: v.GetFloat64("policy.scaled_distance_cap"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Metrics: Metrics{Textfile: v.GetString("metrics.textfile")},
		Batch:   Batch{Parallel: v.GetInt("batch.parallel")},
	}
	var err error
	if cfg.Policy.CostModeCap, err = facility.ParseCostModeCap(v.GetString("policy.cost_mode_cap")); err != nil {
		return Config{}, fmt.Errorf("policy.cost_mode_cap: %w", err)
	}
	if cfg.Solver.Duration <= 0 {
		return Config{}, fmt.Errorf("solver.duration must be positive, got %s", cfg.Solver.Duration)
	}
	if cfg.Solver.Gap < 0 {
		return Config{}, fmt.Errorf("solver.gap must not be negative, got %v", cfg.Solver.Gap)
	}
	for key, val := range map[string]float64{
		"policy.capacity":            cfg.Policy.Capacity,
		"policy.budget":              cfg.Policy.Budget,
		"policy.distance_cap":        cfg.Policy.DistanceCap,
		"policy.scaled_distance_cap": cfg.Policy.ScaledDistanceCap,
	} {
		if val < 0 {
			return Config{}, fmt.Errorf("%s must not be negative, got %v", key, val)
		}
	}
	if cfg.Batch.Parallel < 1 {
		cfg.Batch.Parallel = 1
	}
	return cfg, nil
}
