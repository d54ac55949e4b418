// Package htmlview is a rendering engine that writes every prepared cloud
// into one interactive HTML page, one 3D scatter chart per viewport.
// Hovering a point shows the cloud name and point index.
package htmlview

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pcv/internal/fsutil"
	"github.com/banshee-data/pcv/internal/viewer"
)

// EngineName identifies this engine.
const EngineName = "html"

// maxPointsPerSeries bounds the page size; larger clouds are strided.
const maxPointsPerSeries = 50000

// Engine collects prepared clouds and writes the page when run.
type Engine struct {
	fs     fsutil.FileSystem
	path   string
	title  string
	clouds []viewer.PreparedCloud
}

// New creates an engine writing its page to path.
func New(fsys fsutil.FileSystem, path, title string) *Engine {
	return &Engine{fs: fsys, path: path, title: title}
}

// Name implements viewer.Engine.
func (e *Engine) Name() string { return EngineName }

// Path returns where the page is written.
func (e *Engine) Path() string { return e.path }

// AddCloud implements viewer.Engine.
func (e *Engine) AddCloud(_ context.Context, c viewer.PreparedCloud) error {
	if _, _, _, ok := c.Coordinates(0); !ok {
		return fmt.Errorf("cloud %s: first space missing from reloaded file", c.Name)
	}
	e.clouds = append(e.clouds, c)
	return nil
}

// Run writes the page. The page is static, so the handler only serves to
// print the key bindings into the page subtitle.
func (e *Engine) Run(ctx context.Context, h viewer.Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = e.title
	for _, vp := range e.viewports() {
		page.AddCharts(e.chart(vp, h))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	if dir := filepath.Dir(e.path); dir != "." {
		if err := e.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return e.fs.WriteFile(e.path, buf.Bytes(), 0o644)
}

func (e *Engine) viewports() []int {
	seen := make(map[int]bool)
	var vps []int
	for _, c := range e.clouds {
		if !seen[c.Viewport] {
			seen[c.Viewport] = true
			vps = append(vps, c.Viewport)
		}
	}
	sort.Ints(vps)
	return vps
}

func (e *Engine) chart(viewport int, h viewer.Handler) *charts.Scatter3D {
	subtitle := fmt.Sprintf("viewport %d", viewport)
	if h != nil {
		subtitle += " | press h in the viewer for help"
	}

	var axes [3]string
	chart := charts.NewScatter3D()
	for _, c := range e.clouds {
		if c.Viewport != viewport {
			continue
		}
		if axes[0] == "" {
			axes = c.Spaces[0]
		}
		chart.AddSeries(c.Name, seriesData(c), charts.WithItemStyleOpts(itemStyle(c)))
	}

	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: e.title, Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: e.title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: axes[0]}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: axes[1]}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: axes[2]}),
	)
	return chart
}

func seriesData(c viewer.PreparedCloud) []opts.Chart3DData {
	a, b, d, _ := c.Coordinates(0)
	stride := 1
	if len(a) > maxPointsPerSeries {
		stride = (len(a) + maxPointsPerSeries - 1) / maxPointsPerSeries
	}

	data := make([]opts.Chart3DData, 0, len(a)/stride+1)
	for i := 0; i < len(a); i += stride {
		data = append(data, opts.Chart3DData{
			Name:  fmt.Sprintf("%s #%d", c.Name, i),
			Value: []interface{}{a[i], b[i], d[i]},
		})
	}
	return data
}

func itemStyle(c viewer.PreparedCloud) opts.ItemStyle {
	if !c.HasColor {
		return opts.ItemStyle{}
	}
	packed := c.Color.Packed()
	return opts.ItemStyle{Color: fmt.Sprintf("#%06x", packed)}
}
