// Package plotview is a rendering engine that draws each viewport as a PNG
// projection onto the first two axes of every cloud's first space.
package plotview

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/pcv/internal/fsutil"
	"github.com/banshee-data/pcv/internal/viewer"
)

// EngineName identifies this engine.
const EngineName = "png"

// dpi matches the default resolution of the gonum/plot image canvas.
const dpi = 96

// Engine collects prepared clouds and writes one PNG per viewport when run.
type Engine struct {
	fs     fsutil.FileSystem
	dir    string
	prefix string
	width  vg.Length
	height vg.Length

	clouds  []viewer.PreparedCloud
	written []string
}

// New creates an engine writing <prefix>viewport-<n>.png files of the given
// pixel size into dir.
func New(fsys fsutil.FileSystem, dir, prefix string, widthPx, heightPx int) *Engine {
	return &Engine{
		fs:     fsys,
		dir:    dir,
		prefix: prefix,
		width:  vg.Length(widthPx) * vg.Inch / dpi,
		height: vg.Length(heightPx) * vg.Inch / dpi,
	}
}

// Name implements viewer.Engine.
func (e *Engine) Name() string { return EngineName }

// Written returns the files written by the last Run.
func (e *Engine) Written() []string { return e.written }

// AddCloud implements viewer.Engine.
func (e *Engine) AddCloud(_ context.Context, c viewer.PreparedCloud) error {
	if _, _, _, ok := c.Coordinates(0); !ok {
		return fmt.Errorf("cloud %s: first space missing from reloaded file", c.Name)
	}
	e.clouds = append(e.clouds, c)
	return nil
}

// Run draws and writes every viewport.
func (e *Engine) Run(ctx context.Context, _ viewer.Handler) error {
	e.written = nil
	byViewport := make(map[int][]viewer.PreparedCloud)
	for _, c := range e.clouds {
		byViewport[c.Viewport] = append(byViewport[c.Viewport], c)
	}
	vps := make([]int, 0, len(byViewport))
	for vp := range byViewport {
		vps = append(vps, vp)
	}
	sort.Ints(vps)

	if err := e.fs.MkdirAll(e.dir, 0o755); err != nil {
		return err
	}
	for _, vp := range vps {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(e.dir, fmt.Sprintf("%sviewport-%d.png", e.prefix, vp))
		if err := e.draw(path, vp, byViewport[vp]); err != nil {
			return fmt.Errorf("viewport %d: %w", vp, err)
		}
		e.written = append(e.written, path)
	}
	return nil
}

func (e *Engine) draw(path string, viewport int, clouds []viewer.PreparedCloud) (err error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("viewport %d", viewport)
	p.X.Label.Text = clouds[0].Spaces[0][0]
	p.Y.Label.Text = clouds[0].Spaces[0][1]
	p.Add(plotter.NewGrid())

	for i, c := range clouds {
		a, b, _, _ := c.Coordinates(0)
		pts := make(plotter.XYs, len(a))
		for j := range a {
			pts[j] = plotter.XY{X: float64(a[j]), Y: float64(b[j])}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		s.GlyphStyle.Color = cloudColor(c, i)
		s.GlyphStyle.Radius = vg.Points(float64(c.Size))
		p.Add(s)
		p.Legend.Add(c.Name, s)
	}

	wt, err := p.WriterTo(e.width, e.height, "png")
	if err != nil {
		return err
	}
	f, err := e.fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = wt.WriteTo(f)
	return err
}

func cloudColor(c viewer.PreparedCloud, i int) color.Color {
	alpha := uint8(c.Opacity * 255)
	if !c.HasColor {
		r, g, b, _ := plotutil.Color(i).RGBA()
		return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
	}
	packed := c.Color.Packed()
	return color.NRGBA{R: uint8(packed >> 16), G: uint8(packed >> 8), B: uint8(packed), A: alpha}
}
