// Package viewer runs the render-preparation pass of a session: it checks
// every registered cloud, synthesises its packed colour, writes it as a PCD
// file, reloads the file and hands the result to a rendering engine. It then
// answers the engine's pick and keyboard events.
package viewer

import (
	"context"
	"errors"

	"github.com/banshee-data/pcv/internal/pcd"
	"github.com/banshee-data/pcv/internal/pointcloud"
)

var (
	// ErrNoSpace reports a cloud without any declared space. Such a cloud
	// cannot be picked and is skipped.
	ErrNoSpace = errors.New("cloud has no space")

	// ErrOutputDir reports an output directory that could not be created.
	// It aborts the whole render pass.
	ErrOutputDir = errors.New("output directory unavailable")
)

// PreparedCloud is a cloud as reloaded from its PCD file, with the render
// attributes an engine needs.
type PreparedCloud struct {
	ID       pointcloud.CloudID
	Name     string
	Viewport int
	Size     int
	Opacity  float64
	Color    pointcloud.Color
	HasColor bool
	Spaces   [][3]string
	Path     string
	Table    *pcd.Table
}

// Points returns the number of points in the reloaded table.
func (p PreparedCloud) Points() int {
	if p.Table == nil {
		return 0
	}
	return p.Table.Points()
}

// Coordinates returns the three axes of space i.
func (p PreparedCloud) Coordinates(i int) (a, b, c []float32, ok bool) {
	if p.Table == nil || i < 0 || i >= len(p.Spaces) {
		return nil, nil, nil, false
	}
	s := p.Spaces[i]
	var okA, okB, okC bool
	a, okA = p.Table.Field(s[0])
	b, okB = p.Table.Field(s[1])
	c, okC = p.Table.Field(s[2])
	return a, b, c, okA && okB && okC
}

// Engine displays prepared clouds and reports interaction back through a
// Handler.
type Engine interface {
	// Name identifies the engine in logs and metrics.
	Name() string
	// AddCloud materialises one prepared cloud.
	AddCloud(ctx context.Context, c PreparedCloud) error
	// Run drives the engine until its session ends or ctx is done. Events
	// are delivered to h on one logical thread.
	Run(ctx context.Context, h Handler) error
}

// Handler receives interaction events from an engine.
type Handler interface {
	// Pick resolves a picked coordinate to the point it came from.
	Pick(a, b, c float32) (PickResult, bool)
	// Key handles a key press and returns a message for the user, empty
	// when the key means nothing.
	Key(key string) string
}
