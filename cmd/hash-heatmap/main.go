// Command hash-heatmap scatters a synthetic scene into the collision
// manager, rebuilds the spatial hash once, and renders per-cell
// occupancy of the z=0 slab as a WebP heatmap
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/HugoSmits86/nativewebp"

	"github.com/lixenwraith/bone-collider/collision"
	"github.com/lixenwraith/bone-collider/vmath"
)

type scatterNode struct {
	id  uint64
	pos vmath.Vec3
}

func (n *scatterNode) ID() uint64           { return n.id }
func (n *scatterNode) Name() string         { return fmt.Sprintf("node-%d", n.id) }
func (n *scatterNode) Kind() collision.Kind { return collision.KindStatic }
func (n *scatterNode) Position() vmath.Vec3 { return n.pos }

func main() {
	objects := flag.Int("objects", 2000, "objects to scatter")
	extent := flag.Float64("extent", 200, "world half-extent per axis")
	cellSize := flag.Float64("cell", 10, "hash cell size")
	seed := flag.Int64("seed", 1, "scatter seed")
	out := flag.String("out", "heatmap.webp", "output file")
	flag.Parse()

	opts := collision.DefaultOptions()
	opts.CellSize = *cellSize
	mgr := collision.NewManager(opts, nil)

	// Gaussian clusters give the heatmap some structure to show
	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *objects; i++ {
		cx := (rng.Float64()*2 - 1) * *extent * 0.6
		cy := (rng.Float64()*2 - 1) * *extent * 0.6
		if i%4 != 0 {
			cx = rng.NormFloat64() * *extent * 0.15
			cy = rng.NormFloat64() * *extent * 0.15
		}
		mgr.RegisterObject(&scatterNode{
			id:  uint64(i + 1),
			pos: vmath.Vec3{X: cx, Y: cy},
		})
	}
	mgr.Update(0)

	img := renderSlab(mgr, *extent, *cellSize)

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, img, nil); err != nil {
		log.Fatalf("encode: %v", err)
	}

	st := mgr.Stats()
	fmt.Printf("wrote %s: %d objects across %d cells\n", *out, st.Objects, st.Cells)
}

// renderSlab maps each xy cell of the z=0 slab to one pixel block,
// shaded by occupancy relative to the densest cell
func renderSlab(mgr *collision.Manager, extent, cellSize float64) *image.NRGBA {
	half := int32(math.Ceil(extent / cellSize))
	counts := make(map[[2]int32]int)
	max := 0
	mgr.Hash().ForEachCell(func(x, y, z int32, n int) {
		if z != 0 {
			return
		}
		counts[[2]int32{x, y}] = n
		if n > max {
			max = n
		}
	})

	const px = 6
	side := int(2*half) * px
	img := image.NewNRGBA(image.Rect(0, 0, side, side))
	for cy := -half; cy < half; cy++ {
		for cx := -half; cx < half; cx++ {
			c := heat(counts[[2]int32{cx, cy}], max)
			ox := int(cx+half) * px
			oy := int(half-1-cy) * px
			for dy := 0; dy < px; dy++ {
				for dx := 0; dx < px; dx++ {
					img.SetNRGBA(ox+dx, oy+dy, c)
				}
			}
		}
	}
	return img
}

func heat(n, max int) color.NRGBA {
	if n == 0 || max == 0 {
		return color.NRGBA{R: 16, G: 16, B: 32, A: 255}
	}
	t := float64(n) / float64(max)
	return color.NRGBA{
		R: uint8(40 + 215*t),
		G: uint8(40 + 120*(1-math.Abs(2*t-1))),
		B: uint8(200 * (1 - t)),
		A: 255,
	}
}
