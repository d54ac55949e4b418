package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/pcv/internal/fsutil"
	"github.com/banshee-data/pcv/internal/pcd"
	"github.com/banshee-data/pcv/internal/pointcloud"
)

// loadPCD adds one cloud per file, named after the file.
func loadPCD(reg *pointcloud.Registry, fsys fsutil.FileSystem, path string) error {
	f, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, err := pcd.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c := reg.Cloud(name)
	for _, field := range table.Fields {
		if err := c.AddFeature(field.Name, field.Values, pointcloud.KeepViewport); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if c.HasFeature("x") && c.HasFeature("y") && c.HasFeature("z") {
		if err := c.AddSpace("x", "y", "z"); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// buildDemo fills reg with a helix, its normals, two labelled segments and
// a child cloud attached to the first helix point.
func buildDemo(reg *pointcloud.Registry) error {
	const n = 200
	helix := make(pointcloud.PointNormalCloud, n)
	for i := range helix {
		t := float64(i) / 10
		helix[i] = pointcloud.PointNormal{
			X: float32(math.Cos(t)), Y: float32(math.Sin(t)), Z: float32(t / 5),
			NormalX: float32(math.Cos(t)), NormalY: float32(math.Sin(t)),
			Curvature: float32(i) / n,
		}
	}
	if err := reg.AddCloud("helix", helix, 0); err != nil {
		return err
	}
	reg.Cloud("helix").SetSize(2)

	groups := [][]int{make([]int, 0, n/2), make([]int, 0, n/2)}
	for i := 0; i < n; i++ {
		groups[i%2] = append(groups[i%2], i)
	}
	if err := reg.AddLabelsFeature("helix", groups, "segment", pointcloud.KeepViewport); err != nil {
		return err
	}

	top := make([]int, 0, n/4)
	for i := n - n/4; i < n; i++ {
		top = append(top, i)
	}
	if err := reg.AddCloudIndices("top", helix, top, 1); err != nil {
		return err
	}
	reg.Cloud("top").SetColor(1, 0.3, 0.1)

	neighbours := helix.Select([]int{0, 1, 2, 3})
	return reg.AddCloudIndexed("helix", neighbours, 0, "start", 1)
}

func parseCoordinates(s string) (a, b, c float32, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want three comma-separated coordinates, got %q", s)
	}
	var out [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("coordinate %d: %w", i, err)
		}
		out[i] = float32(v)
	}
	return out[0], out[1], out[2], nil
}
