package bonesync

import (
	"fmt"
	"math"

	"github.com/lixenwraith/bone-collider/collision"
	"github.com/lixenwraith/bone-collider/parameter"
	"github.com/lixenwraith/bone-collider/vmath"
)

// Strategy selects when bone transforms propagate to shapes. Pure mode
// switch; changing it emits no transition events
type Strategy uint8

const (
	// StrategyRealtime fires on a frame-global timer at UpdateFrequency
	StrategyRealtime Strategy = iota
	// StrategyKeyframe fires near integer-second animation boundaries
	StrategyKeyframe
	// StrategyThreshold delegates the fire decision per bone to the tracker
	StrategyThreshold
	// StrategyManual never auto-fires; only ForceSyncAll propagates
	StrategyManual
)

func (s Strategy) String() string {
	switch s {
	case StrategyRealtime:
		return "realtime"
	case StrategyKeyframe:
		return "keyframe"
	case StrategyThreshold:
		return "threshold"
	case StrategyManual:
		return "manual"
	}
	return "unknown"
}

// ParseStrategy maps a config string to a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "realtime":
		return StrategyRealtime, nil
	case "keyframe":
		return StrategyKeyframe, nil
	case "threshold":
		return StrategyThreshold, nil
	case "manual":
		return StrategyManual, nil
	}
	return StrategyRealtime, fmt.Errorf("unknown sync strategy %q", s)
}

// BoneSource is the external animation collaborator. The library never
// owns its lifetime
type BoneSource interface {
	// CurrentTime returns the animation clock in seconds
	CurrentTime() float64
	// BoneTransform returns the current pose of a bone, false if absent
	BoneTransform(name string) (vmath.Transform, bool)
}

// Mapping associates one animated bone with one collision shape.
// Several mappings may share a bone, each with its own offset and flags
type Mapping struct {
	BoneName string
	Shape    collision.ShapeHandle
	// Offset composes over the bone pose: position/rotation add, scale
	// multiplies
	Offset       *vmath.Transform
	SyncPosition bool
	SyncRotation bool
	SyncScale    bool
	// Priority is carried into batched updates
	Priority int
}

// SyncOptions configures a Syncer. Zero fields fall back to defaults
type SyncOptions struct {
	Strategy Strategy
	// UpdateFrequency is the realtime-strategy rate in Hz
	UpdateFrequency float64
	// BatchUpdates routes shape writes through the Batcher instead of
	// applying directly
	BatchUpdates bool
	// MaxUpdatesPerFrame is the shared per-pass budget across all
	// bones and mappings
	MaxUpdatesPerFrame int
	// EnabledBones, when non-empty, is an allow-list; other bones are
	// skipped
	EnabledBones []string
}

// DefaultSyncOptions returns the standard sync configuration
func DefaultSyncOptions() SyncOptions {
	return SyncOptions{
		Strategy:           StrategyRealtime,
		UpdateFrequency:    parameter.SyncFrequency,
		MaxUpdatesPerFrame: parameter.MaxUpdatesPerFrame,
	}
}

func (o SyncOptions) normalized() SyncOptions {
	if o.UpdateFrequency <= 0 {
		o.UpdateFrequency = parameter.SyncFrequency
	}
	if o.MaxUpdatesPerFrame <= 0 {
		o.MaxUpdatesPerFrame = parameter.MaxUpdatesPerFrame
	}
	return o
}

// SyncStats is an advisory snapshot of propagation accounting
type SyncStats struct {
	// Applied counts shape updates routed this lifetime (direct writes
	// plus batched schedules)
	Applied uint64
	// SkippedBudget counts mappings deferred by the per-frame budget;
	// they stay eligible next frame
	SkippedBudget   uint64
	SkippedDisabled uint64
	MissingBones    uint64
	DeadShapes      uint64
	SyncPasses      uint64
	MappedBones     int
	Mappings        int
}

// Syncer bridges an external bone source to collision shapes, gating
// propagation by strategy and optionally delegating writes to a Batcher
type Syncer struct {
	opts    SyncOptions
	source  BoneSource
	tracker *Tracker
	batcher *Batcher
	arena   *collision.ShapeArena

	mappings  map[string][]*Mapping
	boneOrder []string
	enabled   map[string]struct{}

	active    bool
	syncTimer float64 // accumulated ms since last fire

	applied         uint64
	skippedBudget   uint64
	skippedDisabled uint64
	missingBones    uint64
	deadShapes      uint64
	syncPasses      uint64
	mappingCount    int
}

// NewSyncer wires a syncer over its collaborators. tracker and arena are
// required; batcher may be nil when BatchUpdates is off
func NewSyncer(opts SyncOptions, source BoneSource, tracker *Tracker, batcher *Batcher, arena *collision.ShapeArena) *Syncer {
	s := &Syncer{
		opts:     opts.normalized(),
		source:   source,
		tracker:  tracker,
		batcher:  batcher,
		arena:    arena,
		mappings: make(map[string][]*Mapping),
	}
	s.SetEnabledBones(opts.EnabledBones)
	return s
}

// SetEnabledBones replaces the allow-list. Empty enables all bones
func (s *Syncer) SetEnabledBones(bones []string) {
	if len(bones) == 0 {
		s.enabled = nil
		return
	}
	s.enabled = make(map[string]struct{}, len(bones))
	for _, b := range bones {
		s.enabled[b] = struct{}{}
	}
}

// AddBoneMapping appends a mapping to its bone's list and starts
// tracking the bone with its current pose as the baseline
func (s *Syncer) AddBoneMapping(m Mapping) {
	entry := m
	if _, ok := s.mappings[m.BoneName]; !ok {
		s.boneOrder = append(s.boneOrder, m.BoneName)
	}
	s.mappings[m.BoneName] = append(s.mappings[m.BoneName], &entry)
	s.mappingCount++

	if cur, ok := s.source.BoneTransform(m.BoneName); ok {
		s.tracker.StartTracking(m.BoneName, cur)
	}
}

// RemoveMapping removes the mapping for one bone/shape association.
// Removing the last mapping for a bone also stops tracking it
func (s *Syncer) RemoveMapping(bone string, shape collision.ShapeHandle) {
	list := s.mappings[bone]
	for i, m := range list {
		if m.Shape == shape {
			list = append(list[:i], list[i+1:]...)
			s.mappingCount--
			break
		}
	}
	if len(list) == 0 {
		s.dropBone(bone)
		return
	}
	s.mappings[bone] = list
}

// RemoveBoneMappings removes all mappings for a bone and stops tracking
func (s *Syncer) RemoveBoneMappings(bone string) {
	s.mappingCount -= len(s.mappings[bone])
	s.dropBone(bone)
}

func (s *Syncer) dropBone(bone string) {
	if _, ok := s.mappings[bone]; !ok {
		return
	}
	delete(s.mappings, bone)
	for i, b := range s.boneOrder {
		if b == bone {
			s.boneOrder = append(s.boneOrder[:i], s.boneOrder[i+1:]...)
			break
		}
	}
	s.tracker.StopTracking(bone)
}

// StartSync activates per-frame propagation
func (s *Syncer) StartSync() {
	s.active = true
}

// StopSync deactivates propagation and abandons any updates still
// pending in the batcher
func (s *Syncer) StopSync() {
	s.active = false
	s.syncTimer = 0
	if s.batcher != nil {
		s.batcher.Clear()
	}
}

// Active reports whether the syncer is propagating
func (s *Syncer) Active() bool {
	return s.active
}

// Update advances the sync timer and, if the strategy gate passes, runs
// one propagation pass over bone mappings in registration order under
// the shared per-frame budget. dt is in seconds
func (s *Syncer) Update(dt float64) {
	if !s.active {
		return
	}
	s.syncTimer += dt * 1000

	if !s.gate(dt) {
		return
	}
	s.syncTimer = 0
	s.pass()
}

// gate is the frame-global fire decision, a pure function of strategy
// and timer. Threshold defers the real decision to the per-bone tracker
func (s *Syncer) gate(dt float64) bool {
	switch s.opts.Strategy {
	case StrategyRealtime:
		return s.syncTimer >= 1000.0/s.opts.UpdateFrequency
	case StrategyKeyframe:
		t := s.source.CurrentTime()
		return math.Abs(t-math.Round(t)) <= dt
	case StrategyThreshold:
		return true
	case StrategyManual:
		return false
	}
	return false
}

// pass iterates mapped bones in registration order, routing one update
// per mapping until the frame budget runs out. Budget-exhausted
// mappings are counted skipped, not dropped
func (s *Syncer) pass() {
	budget := s.opts.MaxUpdatesPerFrame

	for _, bone := range s.boneOrder {
		if s.enabled != nil {
			if _, ok := s.enabled[bone]; !ok {
				s.skippedDisabled++
				continue
			}
		}

		cur, ok := s.source.BoneTransform(bone)
		if !ok {
			s.missingBones++
			continue
		}

		if s.opts.Strategy == StrategyThreshold && !s.tracker.ShouldUpdate(bone, cur) {
			continue
		}

		for _, m := range s.mappings[bone] {
			if budget <= 0 {
				s.skippedBudget++
				continue
			}
			if s.route(m, cur) {
				budget--
			}
		}
	}

	s.syncPasses++
}

// route composes the final payload for one mapping and either schedules
// it on the batcher or writes the shape directly
func (s *Syncer) route(m *Mapping, bone vmath.Transform) bool {
	payload := s.compose(m, bone)

	if s.opts.BatchUpdates && s.batcher != nil {
		s.batcher.ScheduleUpdate(updateID(m), m.Shape, payload, m.Priority)
		s.applied++
		return true
	}

	shape, ok := s.arena.Resolve(m.Shape)
	if !ok {
		s.deadShapes++
		return false
	}
	payload.apply(shape)
	s.applied++
	return true
}

// compose builds the flagged payload, folding in the mapping offset
func (s *Syncer) compose(m *Mapping, bone vmath.Transform) ShapeUpdate {
	target := bone
	if m.Offset != nil {
		target = vmath.ComposeOffset(bone, *m.Offset)
	}
	return ShapeUpdate{
		Transform:     target,
		ApplyPosition: m.SyncPosition,
		ApplyRotation: m.SyncRotation,
		ApplyScale:    m.SyncScale,
	}
}

// updateID keys a batcher entry by bone and shape so the newest pose
// for a given association always wins
func updateID(m *Mapping) string {
	return fmt.Sprintf("%s:%x", m.BoneName, m.Shape.Key())
}

// ForceSyncAll bypasses strategy gating, batching, and the frame
// budget: every mapped bone's baseline is force-refreshed and every
// mapped shape written synchronously
func (s *Syncer) ForceSyncAll() {
	for _, bone := range s.boneOrder {
		cur, ok := s.source.BoneTransform(bone)
		if !ok {
			s.missingBones++
			continue
		}
		s.tracker.ForceUpdate(bone, cur)

		for _, m := range s.mappings[bone] {
			shape, ok := s.arena.Resolve(m.Shape)
			if !ok {
				s.deadShapes++
				continue
			}
			s.compose(m, cur).apply(shape)
			s.applied++
		}
	}
	s.syncPasses++
}

// Stats returns an advisory snapshot
func (s *Syncer) Stats() SyncStats {
	return SyncStats{
		Applied:         s.applied,
		SkippedBudget:   s.skippedBudget,
		SkippedDisabled: s.skippedDisabled,
		MissingBones:    s.missingBones,
		DeadShapes:      s.deadShapes,
		SyncPasses:      s.syncPasses,
		MappedBones:     len(s.boneOrder),
		Mappings:        s.mappingCount,
	}
}
