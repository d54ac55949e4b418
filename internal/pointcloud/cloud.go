package pointcloud

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/banshee-data/pcv/internal/monitoring"
	"github.com/banshee-data/pcv/internal/timeutil"
)

// KeepViewport leaves a cloud's viewport unchanged.
const KeepViewport = -1

// CloudID identifies a cloud inside its registry.
type CloudID string

func newCloudID() CloudID {
	return CloudID(uuid.NewString())
}

// Color is a cloud-uniform RGB colour with channels in [0, 1].
type Color struct {
	R, G, B float32
}

// Packed returns (r<<16)|(g<<8)|b with each channel scaled to 0-255.
// Channels are clamped to [0, 1] and truncated, not rounded.
func (c Color) Packed() uint32 {
	return uint32(channel(c.R))<<16 | uint32(channel(c.G))<<8 | uint32(channel(c.B))
}

func channel(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v * 255)
}

// Cloud is a named collection of features, spaces, render attributes and
// per-point child clouds. Create clouds through a Registry.
type Cloud struct {
	id    CloudID
	name  string
	log   monitoring.Logger
	clock timeutil.Clock

	viewport int
	size     int
	opacity  float64
	color    Color
	hasColor bool
	// rgb was synthesised from color rather than supplied by the caller
	syntheticRGB bool

	epsilon   float64
	features  *FeatureStore
	spaces    []*Space
	indexed   map[int]map[string]CloudID
	timestamp string
}

func newCloud(name string, log monitoring.Logger, clock timeutil.Clock, epsilon float64) *Cloud {
	c := &Cloud{
		id:       newCloudID(),
		name:     name,
		log:      monitoring.OrDefault(log),
		clock:    timeutil.OrReal(clock),
		size:     1,
		opacity:  1,
		epsilon:  epsilon,
		features: NewFeatureStore(),
		indexed:  make(map[int]map[string]CloudID),
	}
	c.stamp()
	return c
}

func (c *Cloud) ID() CloudID       { return c.id }
func (c *Cloud) Name() string      { return c.name }
func (c *Cloud) Viewport() int     { return c.viewport }
func (c *Cloud) Size() int         { return c.size }
func (c *Cloud) Opacity() float64  { return c.opacity }
func (c *Cloud) Timestamp() string { return c.timestamp }

// Color returns the cloud colour and whether one was set.
func (c *Cloud) Color() (Color, bool) {
	return c.color, c.hasColor
}

// PointCount is the length of the first feature added, 0 without features.
func (c *Cloud) PointCount() int {
	return c.features.PointCount()
}

// FeatureCount returns the number of distinct features.
func (c *Cloud) FeatureCount() int {
	return c.features.Len()
}

// FeatureNames returns feature names in insertion order.
func (c *Cloud) FeatureNames() []string {
	return c.features.Names()
}

// HasFeature reports whether the cloud has the named feature.
func (c *Cloud) HasFeature(name string) bool {
	return c.features.Has(name)
}

// Feature returns the values of a feature.
func (c *Cloud) Feature(name string) ([]float32, error) {
	return c.features.Get(name)
}

// HasRGB reports whether the packed colour feature exists.
func (c *Cloud) HasRGB() bool {
	return c.features.Has(RGBFeature)
}

// Spaces returns the declared spaces in declaration order.
func (c *Cloud) Spaces() []*Space {
	return c.spaces
}

// SetViewport sets the viewport; KeepViewport (or any negative value) is a no-op.
func (c *Cloud) SetViewport(viewport int) *Cloud {
	if viewport >= 0 {
		c.viewport = viewport
	}
	return c
}

// SetSize sets the rendered point size, at least 1.
func (c *Cloud) SetSize(size int) *Cloud {
	if size < 1 {
		c.log.Warnf("[setSize] size %d for [%s] is below 1, using 1", size, c.name)
		size = 1
	}
	c.size = size
	return c
}

// SetOpacity sets the opacity, clamped to [0, 1].
func (c *Cloud) SetOpacity(opacity float64) *Cloud {
	if opacity < 0 || opacity > 1 {
		c.log.Warnf("[setOpacity] opacity %g for [%s] is outside [0, 1], clamping", opacity, c.name)
		opacity = min(max(opacity, 0), 1)
	}
	c.opacity = opacity
	return c
}

// SetColor sets a cloud-uniform colour with channels in [0, 1].
func (c *Cloud) SetColor(r, g, b float32) *Cloud {
	c.color = Color{R: r, G: g, B: b}
	c.hasColor = true
	return c
}

// ClearColor removes the cloud colour together with any rgb feature that
// SynthesizeRGB derived from it. An rgb feature added by the caller is kept.
func (c *Cloud) ClearColor() *Cloud {
	c.color = Color{}
	c.hasColor = false
	if c.syntheticRGB && !c.spaceUses(RGBFeature) {
		c.features.Delete(RGBFeature)
		c.syntheticRGB = false
	}
	return c
}

// SynthesizeRGB writes the cloud colour as a uniform packed rgb feature. It
// does nothing for an uncoloured cloud and returns the colour it applied.
func (c *Cloud) SynthesizeRGB() (Color, bool, error) {
	if !c.hasColor {
		return Color{}, false, nil
	}
	rgb := make([]float32, c.PointCount())
	packed := float32(c.color.Packed())
	for i := range rgb {
		rgb[i] = packed
	}
	if err := c.AddFeature(RGBFeature, rgb, KeepViewport); err != nil {
		return c.color, true, err
	}
	c.syntheticRGB = true
	return c.color, true, nil
}

func (c *Cloud) spaceUses(name string) bool {
	for _, sp := range c.spaces {
		for _, f := range sp.Features() {
			if f == name {
				return true
			}
		}
	}
	return false
}

// AddFeature adds or overwrites a feature. Once the cloud has a point count,
// values must match it; the only feature of a cloud may be overwritten with
// any length.
func (c *Cloud) AddFeature(name string, values []float32, viewport int) error {
	if n := c.features.Len(); n > 0 {
		soleOverwrite := n == 1 && c.features.Has(name)
		if !soleOverwrite && len(values) != c.PointCount() {
			c.log.Errorf("[addFeature] feature [%s] has %d values but cloud [%s] has %d points",
				name, len(values), c.name, c.PointCount())
			return fmt.Errorf("%w: feature %q has %d values, cloud %q has %d points",
				ErrLengthMismatch, name, len(values), c.name, c.PointCount())
		}
	}

	c.features.Set(name, values)
	if name == RGBFeature {
		c.syntheticRGB = false
	}
	c.SetViewport(viewport)
	return nil
}

// AddSpace declares the three named features as a 3D space. All three must
// exist; otherwise nothing is added.
func (c *Cloud) AddSpace(a, b, d string) error {
	for _, name := range []string{a, b, d} {
		if !c.features.Has(name) {
			c.log.Errorf("[addSpace] following feature does not exist: %s", name)
			return fmt.Errorf("add space to %q: %w: %s", c.name, ErrFeatureNotFound, name)
		}
	}

	s, err := newStoreSpace(c.features, a, b, d, c.epsilon)
	if err != nil {
		c.log.Errorf("[addSpace] %v", err)
		return err
	}
	c.spaces = append(c.spaces, s)
	return nil
}

// AddCloud decomposes typed point records into features and declares the
// natural space of the record shape.
func (c *Cloud) AddCloud(records Records, viewport int) error {
	if err := records.Decompose(c, viewport); err != nil {
		return err
	}
	c.SetViewport(viewport)
	c.stamp()
	return nil
}

// AddCloudIndices is AddCloud over the records at the given indices only.
// Indices outside the records are skipped with a warning.
func (c *Cloud) AddCloudIndices(records Records, indices []int, viewport int) error {
	valid := make([]int, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= records.Len() {
			c.log.Warnf("[addCloud] index %d outside input of %d points, skipped", i, records.Len())
			continue
		}
		valid = append(valid, i)
	}
	return c.AddCloud(records.Select(valid), viewport)
}

// Pick resolves a coordinate against every space in declaration order and
// returns the first match.
func (c *Cloud) Pick(a, b, d float32) (space *Space, index int) {
	for _, s := range c.spaces {
		if i := s.FindPickedPointIndex(a, b, d); i != NotFound {
			return s, i
		}
	}
	return nil, NotFound
}

// IndexedClouds returns the child clouds attached at point i, by name.
func (c *Cloud) IndexedClouds(i int) map[string]CloudID {
	out := make(map[string]CloudID, len(c.indexed[i]))
	for name, id := range c.indexed[i] {
		out[name] = id
	}
	return out
}

// IndexedPoints returns the sorted point indices that carry child clouds.
func (c *Cloud) IndexedPoints() []int {
	pts := make([]int, 0, len(c.indexed))
	for i := range c.indexed {
		pts = append(pts, i)
	}
	sort.Ints(pts)
	return pts
}

// attachIndexed records a child cloud under (i, name). An out-of-range index
// is logged and reported but the attachment is still stored: the child
// exists, it just never renders through this parent.
func (c *Cloud) attachIndexed(i int, name string, id CloudID) error {
	var err error
	if i < 0 || i >= c.PointCount() {
		c.log.Errorf("[addCloudIndexed] Index %d out of range for [%s] (%d points). Adding the cloud anyway, but it will never be rendered.",
			i, c.name, c.PointCount())
		err = fmt.Errorf("attach %q to %q: %w: %d", name, c.name, ErrIndexOutOfRange, i)
	}

	if c.indexed[i] == nil {
		c.indexed[i] = make(map[string]CloudID)
	}
	c.indexed[i][name] = id
	return err
}

func (c *Cloud) indexedChild(i int, name string) (CloudID, bool) {
	id, ok := c.indexed[i][name]
	return id, ok
}

func (c *Cloud) stamp() {
	c.timestamp = FormatTimestamp(c.clock.Now())
}

// joinErrs is errors.Join that keeps single errors unwrapped.
func joinErrs(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.Join(errs...)
}
