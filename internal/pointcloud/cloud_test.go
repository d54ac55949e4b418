package pointcloud

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcv/internal/testutil"
	"github.com/banshee-data/pcv/internal/timeutil"
)

var testTime = time.Date(2024, 3, 5, 14, 7, 9, 123_000_000, time.UTC)

func newTestRegistry(t *testing.T) (*Registry, *testutil.RecordingLogger) {
	t.Helper()
	log := &testutil.RecordingLogger{}
	return NewRegistry("test", WithLogger(log), WithClock(timeutil.NewMockClock(testTime))), log
}

func xyzCloud(t *testing.T, r *Registry, name string) *Cloud {
	t.Helper()
	c := r.Cloud(name)
	v := []float32{0, 1, 2}
	require.NoError(t, c.AddFeature("x", v, KeepViewport))
	require.NoError(t, c.AddFeature("y", v, KeepViewport))
	require.NoError(t, c.AddFeature("z", v, KeepViewport))
	return c
}

func TestCloud_PickRoundTrip(t *testing.T) {
	r, log := newTestRegistry(t)
	c := xyzCloud(t, r, "c")
	require.NoError(t, c.AddSpace("x", "y", "z"))

	s, i := c.Pick(1, 1, 1)
	require.NotNil(t, s)
	assert.Equal(t, 1, i)
	assert.Equal(t, "xyz", s.Name())

	s, i = c.Pick(5, 5, 5)
	assert.Nil(t, s)
	assert.Equal(t, NotFound, i)
	testutil.AssertNothingLogged(t, log.Errors())
}

func TestCloud_PointCountIsFirstFeature(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := r.Cloud("c")
	assert.Equal(t, 0, c.PointCount())

	require.NoError(t, c.AddFeature("a", []float32{1, 2, 3, 4}, KeepViewport))
	for _, name := range []string{"b", "c", "d"} {
		require.NoError(t, c.AddFeature(name, []float32{0, 0, 0, 0}, KeepViewport))
		assert.Equal(t, 4, c.PointCount())
	}
	assert.Equal(t, 4, c.FeatureCount())
}

func TestCloud_AddFeatureLengthMismatch(t *testing.T) {
	r, log := newTestRegistry(t)
	c := xyzCloud(t, r, "c")

	err := c.AddFeature("i", []float32{1, 2}, KeepViewport)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.False(t, c.HasFeature("i"))
	assert.Equal(t, 3, c.PointCount())
	testutil.AssertLogged(t, log.Errors(), "[addFeature]")
}

func TestCloud_OverwriteSoleFeatureAnyLength(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := r.Cloud("c")
	require.NoError(t, c.AddFeature("x", []float32{1, 2, 3}, KeepViewport))
	require.NoError(t, c.AddFeature("x", []float32{1, 2}, KeepViewport))
	assert.Equal(t, 2, c.PointCount())
}

func TestCloud_AddFeatureTwiceOverwrites(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := xyzCloud(t, r, "c")
	require.NoError(t, c.AddFeature("x", []float32{9, 9, 9}, KeepViewport))
	require.NoError(t, c.AddFeature("x", []float32{4, 5, 6}, KeepViewport))

	assert.Equal(t, []string{"x", "y", "z"}, c.FeatureNames())
	got, err := c.Feature("x")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 5, 6}, got)
}

func TestCloud_AddSpaceMissingFeature(t *testing.T) {
	r, log := newTestRegistry(t)
	c := xyzCloud(t, r, "c")
	require.NoError(t, c.AddSpace("x", "y", "z"))

	err := c.AddSpace("x", "y", "w")
	assert.ErrorIs(t, err, ErrFeatureNotFound)
	assert.Len(t, c.Spaces(), 1)
	testutil.AssertLogged(t, log.Errors(), "following feature does not exist: w")
}

func TestCloud_PickAfterFeatureOverwrite(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := xyzCloud(t, r, "c")
	require.NoError(t, c.AddSpace("x", "y", "z"))
	require.NoError(t, c.AddFeature("z", []float32{7, 8, 9}, KeepViewport))

	_, i := c.Pick(1, 1, 1)
	assert.Equal(t, NotFound, i)
	_, i = c.Pick(1, 1, 8)
	assert.Equal(t, 1, i)
}

func TestCloud_PickSecondSpace(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := r.Cloud("pn")
	require.NoError(t, c.AddCloud(PointNormalCloud{
		{X: 0, Y: 0, Z: 0, NormalX: 0, NormalY: 0, NormalZ: 1},
		{X: 1, Y: 1, Z: 1, NormalX: 1, NormalY: 0, NormalZ: 0},
	}, KeepViewport))

	s, i := c.Pick(1, 0, 0)
	require.NotNil(t, s)
	assert.Equal(t, "normal_xnormal_ynormal_z", s.Name())
	assert.Equal(t, 1, i)
}

func TestCloud_Viewport(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := r.Cloud("c")
	require.NoError(t, c.AddFeature("x", []float32{1}, 2))
	assert.Equal(t, 2, c.Viewport())

	require.NoError(t, c.AddFeature("y", []float32{1}, KeepViewport))
	assert.Equal(t, 2, c.Viewport())

	c.SetViewport(0)
	assert.Equal(t, 0, c.Viewport())
	c.SetViewport(KeepViewport)
	assert.Equal(t, 0, c.Viewport())
}

func TestCloud_Setters(t *testing.T) {
	r, log := newTestRegistry(t)
	c := r.Cloud("c").SetSize(3).SetOpacity(0.5).SetColor(1, 0.5, 0)

	assert.Equal(t, 3, c.Size())
	assert.InDelta(t, 0.5, c.Opacity(), 1e-12)
	col, ok := c.Color()
	assert.True(t, ok)
	assert.Equal(t, Color{R: 1, G: 0.5, B: 0}, col)
	testutil.AssertNothingLogged(t, log.Warnings())

	c.SetSize(0).SetOpacity(2)
	assert.Equal(t, 1, c.Size())
	assert.Equal(t, 1.0, c.Opacity())
	assert.Len(t, log.Warnings(), 2)

	c.ClearColor()
	_, ok = c.Color()
	assert.False(t, ok)
}

func TestColor_Packed(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		want  uint32
	}{
		{"red", Color{1, 0, 0}, 16711680},
		{"green", Color{0, 1, 0}, 65280},
		{"blue", Color{0, 0, 1}, 255},
		{"white", Color{1, 1, 1}, 16777215},
		{"black", Color{0, 0, 0}, 0},
		{"half truncates", Color{0.5, 0.5, 0.5}, 127<<16 | 127<<8 | 127},
		{"clamped", Color{2, -1, 0}, 16711680},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.color.Packed(); got != tt.want {
				t.Errorf("Packed() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCloud_TimestampFromClock(t *testing.T) {
	clock := timeutil.NewMockClock(testTime)
	r := NewRegistry("t", WithClock(clock), WithLogger(&testutil.RecordingLogger{}))
	c := r.Cloud("c")
	assert.Equal(t, "20240305.140709.123", c.Timestamp())

	clock.Advance(2 * time.Second)
	require.NoError(t, c.AddCloud(XYZCloud{{1, 2, 3}}, KeepViewport))
	assert.Equal(t, "20240305.140711.123", c.Timestamp())
}

func TestCloud_AddCloudShapes(t *testing.T) {
	tests := []struct {
		name       string
		records    Records
		wantNames  []string
		wantSpaces []string
	}{
		{
			name:       "xyz",
			records:    XYZCloud{{1, 2, 3}, {4, 5, 6}},
			wantNames:  []string{"x", "y", "z"},
			wantSpaces: []string{"xyz"},
		},
		{
			name:       "normal",
			records:    NormalCloud{{0, 0, 1, 0.1}, {0, 1, 0, 0.2}},
			wantNames:  []string{"normal_x", "normal_y", "normal_z", "curvature"},
			wantSpaces: []string{"normal_xnormal_ynormal_z"},
		},
		{
			name:       "point normal",
			records:    PointNormalCloud{{X: 1}, {Y: 1}},
			wantNames:  []string{"x", "y", "z", "normal_x", "normal_y", "normal_z", "curvature"},
			wantSpaces: []string{"xyz", "normal_xnormal_ynormal_z"},
		},
		{
			name:       "curvatures",
			records:    CurvatureCloud{{1, 0, 0, 0.5, 0.25}, {0, 1, 0, 0.1, 0.2}},
			wantNames:  []string{"principal_curvature_x", "principal_curvature_y", "principal_curvature_z", "pc1", "pc2"},
			wantSpaces: []string{"principal_curvature_xprincipal_curvature_yprincipal_curvature_z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, log := newTestRegistry(t)
			c := r.Cloud(tt.name)
			require.NoError(t, c.AddCloud(tt.records, 1))

			if diff := cmp.Diff(tt.wantNames, c.FeatureNames()); diff != "" {
				t.Errorf("FeatureNames() mismatch (-want +got):\n%s", diff)
			}
			var spaces []string
			for _, s := range c.Spaces() {
				spaces = append(spaces, s.Name())
			}
			if diff := cmp.Diff(tt.wantSpaces, spaces); diff != "" {
				t.Errorf("Spaces mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.records.Len(), c.PointCount())
			assert.Equal(t, 1, c.Viewport())
			testutil.AssertNothingLogged(t, log.Errors())
		})
	}
}

func TestCloud_AddCloudIndices(t *testing.T) {
	r, log := newTestRegistry(t)
	c := r.Cloud("sub")
	in := XYZCloud{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}, {3, 3, 3}}

	require.NoError(t, c.AddCloudIndices(in, []int{3, 1, 9}, KeepViewport))
	x, _ := c.Feature("x")
	assert.Equal(t, []float32{3, 1}, x)
	testutil.AssertLogged(t, log.Warnings(), "index 9")

	_, i := c.Pick(1, 1, 1)
	assert.Equal(t, 1, i)
}

func TestAddFeatureGenerics(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := r.Cloud("g")
	type sample struct{ intensity uint16 }

	require.NoError(t, AddFeatureFunc(c, "intensity",
		[]sample{{10}, {20}, {30}}, func(s sample) float32 { return float32(s.intensity) }, KeepViewport))
	require.NoError(t, AddFeatureValues(c, "ring", []int{0, 1, 2}, KeepViewport))
	require.NoError(t, AddFeatureValues(c, "range", []float64{1.5, 2.5, 3.5}, KeepViewport))

	got, _ := c.Feature("intensity")
	assert.Equal(t, []float32{10, 20, 30}, got)
	got, _ = c.Feature("range")
	assert.Equal(t, []float32{1.5, 2.5, 3.5}, got)

	err := AddFeatureValues(c, "short", []int8{1}, KeepViewport)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestCloud_HasRGB(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := xyzCloud(t, r, "c")
	assert.False(t, c.HasRGB())
	require.NoError(t, c.AddFeature(RGBFeature, []float32{0, 0, 0}, KeepViewport))
	assert.True(t, c.HasRGB())
}

func TestCloud_SynthesizeRGB(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, c *Cloud)
		wantNames []string
		wantRGB   []float32
	}{
		{
			name:      "uncoloured cloud is left alone",
			setup:     func(t *testing.T, c *Cloud) {},
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "colour becomes a uniform rgb feature",
			setup:     func(t *testing.T, c *Cloud) { c.SetColor(0, 0, 1) },
			wantNames: []string{"x", "y", "z", "rgb"},
			wantRGB:   []float32{255, 255, 255},
		},
		{
			name: "clearing the colour drops the synthesised rgb",
			setup: func(t *testing.T, c *Cloud) {
				c.SetColor(1, 0, 0)
				_, _, err := c.SynthesizeRGB()
				require.NoError(t, err)
				c.ClearColor()
			},
			wantNames: []string{"x", "y", "z"},
		},
		{
			name: "clearing the colour keeps a caller rgb",
			setup: func(t *testing.T, c *Cloud) {
				require.NoError(t, c.AddFeature(RGBFeature, []float32{1, 2, 3}, KeepViewport))
				c.SetColor(1, 0, 0).ClearColor()
			},
			wantNames: []string{"x", "y", "z", "rgb"},
			wantRGB:   []float32{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			c := xyzCloud(t, r, "c")
			tt.setup(t, c)

			_, _, err := c.SynthesizeRGB()
			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, c.FeatureNames())
			if tt.wantRGB != nil {
				rgb, err := c.Feature(RGBFeature)
				require.NoError(t, err)
				assert.Equal(t, tt.wantRGB, rgb)
			}
		})
	}
}
