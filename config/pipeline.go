package config

import (
	"github.com/lixenwraith/bone-collider/bonesync"
	"github.com/lixenwraith/bone-collider/clock"
	"github.com/lixenwraith/bone-collider/collision"
)

// Pipeline is a fully wired instance set: shape arena, tracker, batcher,
// syncer, and manager sharing one clock. The host owns it; there are no
// process-wide singletons
type Pipeline struct {
	Arena   *collision.ShapeArena
	Tracker *bonesync.Tracker
	Batcher *bonesync.Batcher
	Syncer  *bonesync.Syncer
	Manager *collision.Manager
}

// Build constructs a pipeline from the configuration. A nil clock uses
// the system clock
func (c Config) Build(source bonesync.BoneSource, clk clock.Clock) *Pipeline {
	if clk == nil {
		clk = clock.NewSystemClock()
	}

	arena := collision.NewShapeArena()
	tracker := bonesync.NewTracker(c.Thresholds(), clk)
	batcher := bonesync.NewBatcher(c.BatcherOptions(), arena, clk)
	syncer := bonesync.NewSyncer(c.SyncOptions(), source, tracker, batcher, arena)
	manager := collision.NewManager(c.ManagerOptions(), clk)

	return &Pipeline{
		Arena:   arena,
		Tracker: tracker,
		Batcher: batcher,
		Syncer:  syncer,
		Manager: manager,
	}
}

// Tick advances the whole pipeline by one host frame: sync propagation,
// batched flushes, then manager event drain and index rebuild
func (p *Pipeline) Tick(dt float64) {
	p.Syncer.Update(dt)
	p.Batcher.ProcessBatch(dt)
	p.Manager.Update(dt)
}
