// Package config loads pipeline configuration from YAML, overlaying
// only the keys present in the file over the package defaults
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/bone-collider/bonesync"
	"github.com/lixenwraith/bone-collider/collision"
	"github.com/lixenwraith/bone-collider/parameter"
)

// Config aggregates the option surface of all four pipeline components.
// Durations are plain milliseconds for config-file friendliness
type Config struct {
	Tracker TrackerConfig `yaml:"tracker"`
	Batcher BatcherConfig `yaml:"batcher"`
	Sync    SyncConfig    `yaml:"sync"`
	Manager ManagerConfig `yaml:"manager"`
}

type TrackerConfig struct {
	PositionThreshold float64 `yaml:"position_threshold"`
	RotationThreshold float64 `yaml:"rotation_threshold"`
	ScaleThreshold    float64 `yaml:"scale_threshold"`
}

type BatcherConfig struct {
	BatchIntervalMs int `yaml:"batch_interval_ms"`
	MaxBatchSize    int `yaml:"max_batch_size"`
	UpdateTimeoutMs int `yaml:"update_timeout_ms"`
}

type SyncConfig struct {
	Strategy           string   `yaml:"strategy"`
	UpdateFrequency    float64  `yaml:"update_frequency"`
	BatchUpdates       bool     `yaml:"batch_updates"`
	MaxUpdatesPerFrame int      `yaml:"max_updates_per_frame"`
	EnabledBones       []string `yaml:"enabled_bones"`
}

type ManagerConfig struct {
	SpatialHash    bool    `yaml:"spatial_hash"`
	CellSize       float64 `yaml:"cell_size"`
	ObjectRadius   float64 `yaml:"object_radius"`
	EventQueueSize int     `yaml:"event_queue_size"`
	EventsPerFrame int     `yaml:"events_per_frame"`
	PairEvents     bool    `yaml:"pair_events"`
}

// Default returns the fully populated standard configuration
func Default() Config {
	return Config{
		Tracker: TrackerConfig{
			PositionThreshold: parameter.PositionThreshold,
			RotationThreshold: parameter.RotationThreshold,
			ScaleThreshold:    parameter.ScaleThreshold,
		},
		Batcher: BatcherConfig{
			BatchIntervalMs: int(parameter.BatchInterval / time.Millisecond),
			MaxBatchSize:    parameter.MaxBatchSize,
			UpdateTimeoutMs: int(parameter.UpdateTimeout / time.Millisecond),
		},
		Sync: SyncConfig{
			Strategy:           bonesync.StrategyRealtime.String(),
			UpdateFrequency:    parameter.SyncFrequency,
			MaxUpdatesPerFrame: parameter.MaxUpdatesPerFrame,
		},
		Manager: ManagerConfig{
			SpatialHash:    true,
			CellSize:       parameter.CollisionCellSize,
			ObjectRadius:   parameter.CollisionObjectRadius,
			EventQueueSize: parameter.EventQueueSize,
			EventsPerFrame: parameter.EventsPerFrame,
			PairEvents:     true,
		},
	}
}

// Parse overlays YAML data over the defaults. Keys absent from the data
// keep their default values
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse: %w", err)
	}
	if _, err := bonesync.ParseStrategy(cfg.Sync.Strategy); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML config file
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config read: %w", err)
	}
	return Parse(data)
}

// Thresholds converts the tracker section
func (c Config) Thresholds() bonesync.Thresholds {
	return bonesync.Thresholds{
		Position: c.Tracker.PositionThreshold,
		Rotation: c.Tracker.RotationThreshold,
		Scale:    c.Tracker.ScaleThreshold,
	}
}

// BatcherOptions converts the batcher section
func (c Config) BatcherOptions() bonesync.BatcherOptions {
	return bonesync.BatcherOptions{
		BatchInterval: time.Duration(c.Batcher.BatchIntervalMs) * time.Millisecond,
		MaxBatchSize:  c.Batcher.MaxBatchSize,
		UpdateTimeout: time.Duration(c.Batcher.UpdateTimeoutMs) * time.Millisecond,
	}
}

// SyncOptions converts the sync section. The strategy string was
// validated at parse time; an unknown value here falls back to realtime
func (c Config) SyncOptions() bonesync.SyncOptions {
	strategy, _ := bonesync.ParseStrategy(c.Sync.Strategy)
	return bonesync.SyncOptions{
		Strategy:           strategy,
		UpdateFrequency:    c.Sync.UpdateFrequency,
		BatchUpdates:       c.Sync.BatchUpdates,
		MaxUpdatesPerFrame: c.Sync.MaxUpdatesPerFrame,
		EnabledBones:       c.Sync.EnabledBones,
	}
}

// ManagerOptions converts the manager section
func (c Config) ManagerOptions() collision.Options {
	return collision.Options{
		SpatialHashEnabled: c.Manager.SpatialHash,
		CellSize:           c.Manager.CellSize,
		ObjectRadius:       c.Manager.ObjectRadius,
		EventQueueSize:     c.Manager.EventQueueSize,
		EventsPerFrame:     c.Manager.EventsPerFrame,
		PairEventsEnabled:  c.Manager.PairEvents,
	}
}
