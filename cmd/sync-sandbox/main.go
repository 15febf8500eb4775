// Command sync-sandbox drives the full pipeline over a synthetic bone
// rig and a pair of orbiting collidable nodes, showing live component
// stats in the terminal. Collision-enter events play a short blip
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/bone-collider/bonesync"
	"github.com/lixenwraith/bone-collider/collision"
	"github.com/lixenwraith/bone-collider/config"
	"github.com/lixenwraith/bone-collider/vmath"
)

const sampleRate = beep.SampleRate(44100)

// orbitNode is a collidable circling the origin
type orbitNode struct {
	id     uint64
	name   string
	radius float64
	speed  float64
	orbit  float64
	angle  float64
}

func (n *orbitNode) ID() uint64   { return n.id }
func (n *orbitNode) Name() string { return n.name }
func (n *orbitNode) Kind() collision.Kind {
	return collision.KindCharacter
}
func (n *orbitNode) Position() vmath.Vec3 {
	return vmath.Vec3{
		X: n.orbit * math.Cos(n.angle),
		Y: n.orbit * math.Sin(n.angle),
	}
}
func (n *orbitNode) CollisionRadius() float64 { return n.radius }

func (n *orbitNode) advance(dt float64) {
	n.angle += n.speed * dt
}

type sandbox struct {
	screen   tcell.Screen
	pipeline *config.Pipeline
	source   *bonesync.SyntheticBoneSource
	nodes    []*orbitNode
	enters   int
	audioOK  bool
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	mute := flag.Bool("mute", false, "disable event blips")
	fps := flag.Int("fps", 60, "simulation rate")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	sb, err := newSandbox(cfg, !*mute)
	if err != nil {
		log.Fatalf("sandbox: %v", err)
	}
	defer sb.screen.Fini()

	sb.run(time.Second / time.Duration(*fps))
}

func newSandbox(cfg config.Config, audio bool) (*sandbox, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	source := bonesync.NewSyntheticBoneSource([]bonesync.SyntheticBone{
		{Name: "spine", Amplitude: vmath.Vec3{Y: 0.5}, Frequency: 0.5},
		{Name: "arm.L", Base: vmath.Transform{Position: vmath.Vec3{X: -1}}, Amplitude: vmath.Vec3{X: 1.5}, Frequency: 1.2},
		{Name: "arm.R", Base: vmath.Transform{Position: vmath.Vec3{X: 1}}, Amplitude: vmath.Vec3{X: 1.5}, Frequency: 1.2},
		{Name: "head", Base: vmath.Transform{Position: vmath.Vec3{Y: 2}}, Spin: vmath.Vec3{Z: 0.8}, Frequency: 0.3},
	})

	sb := &sandbox{
		screen:   screen,
		pipeline: cfg.Build(source, nil),
		source:   source,
	}

	for _, bone := range []string{"spine", "arm.L", "arm.R", "head"} {
		shape := collision.NewShape(bone + "_col")
		handle := sb.pipeline.Arena.Add(shape)
		sb.pipeline.Syncer.AddBoneMapping(bonesync.Mapping{
			BoneName:     bone,
			Shape:        handle,
			SyncPosition: true,
			SyncRotation: true,
		})
	}
	sb.pipeline.Syncer.StartSync()

	sb.nodes = []*orbitNode{
		{id: 1, name: "chaser", radius: 1.5, speed: 1.1, orbit: 4},
		{id: 2, name: "runner", radius: 1.5, speed: 0.7, orbit: 4, angle: math.Pi},
		{id: 3, name: "anchor", radius: 2.0, speed: 0, orbit: 0},
	}
	for _, n := range sb.nodes {
		sb.pipeline.Manager.RegisterObject(n)
	}

	if audio {
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			fmt.Fprintf(os.Stderr, "audio init failed, running silent: %v\n", err)
		} else {
			sb.audioOK = true
		}
	}

	sb.pipeline.Manager.AddEventListener(collision.EventEnter, collision.Listener{
		ID: "blip",
		Handle: func(collision.Event) {
			sb.enters++
			sb.playBlip()
		},
	})

	return sb, nil
}

func (sb *sandbox) playBlip() {
	if !sb.audioOK {
		return
	}
	sine, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(50*time.Millisecond), sine))
}

func (sb *sandbox) run(frame time.Duration) {
	quit := make(chan struct{})
	go func() {
		for {
			switch ev := sb.screen.PollEvent().(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					close(quit)
					return
				}
			case *tcell.EventResize:
				sb.screen.Sync()
			}
		}
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	dt := frame.Seconds()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			sb.step(dt)
			sb.draw()
		}
	}
}

func (sb *sandbox) step(dt float64) {
	sb.source.Advance(dt)
	for _, n := range sb.nodes {
		n.advance(dt)
	}
	sb.pipeline.Tick(dt)
}

func (sb *sandbox) draw() {
	sb.screen.Clear()

	tr := sb.pipeline.Tracker.Stats()
	ba := sb.pipeline.Batcher.Stats()
	sy := sb.pipeline.Syncer.Stats()
	mg := sb.pipeline.Manager.Stats()

	lines := []string{
		"sync-sandbox  (q to quit)",
		"",
		fmt.Sprintf("tracker   bones=%d total=%d last1s=%d mem=%dB",
			tr.TrackedBones, tr.TotalUpdates, tr.UpdatesLastSecond, tr.MemoryEstimate),
		fmt.Sprintf("batcher   pending=%d processed=%d dropped=%d avg=%.1f bps=%.1f",
			ba.PendingUpdates, ba.ProcessedUpdates, ba.DroppedUpdates, ba.AvgBatchSize, ba.BatchesPerSecond),
		fmt.Sprintf("syncer    passes=%d applied=%d skipped=%d missing=%d",
			sy.SyncPasses, sy.Applied, sy.SkippedBudget, sy.MissingBones),
		fmt.Sprintf("manager   objects=%d cells=%d queued=%d drained=%d evicted=%d rate=%d/s",
			mg.Objects, mg.Cells, mg.QueuedEvents, mg.ProcessedEvents, mg.EvictedEvents, mg.EventsLastSecond),
		"",
		fmt.Sprintf("enter events: %d", sb.enters),
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	for row, line := range lines {
		for col, r := range line {
			sb.screen.SetContent(col+2, row+1, r, nil, style)
		}
	}
	sb.screen.Show()
}
