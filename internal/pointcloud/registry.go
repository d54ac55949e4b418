package pointcloud

import (
	"fmt"
	"sort"

	"github.com/banshee-data/pcv/internal/monitoring"
	"github.com/banshee-data/pcv/internal/timeutil"
)

// Registry owns every cloud of one visualisation session. It is the single
// mutation and query surface used by callers.
type Registry struct {
	name    string
	log     monitoring.Logger
	clock   timeutil.Clock
	epsilon float64

	clouds map[CloudID]*Cloud
	names  map[string]CloudID
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used by the registry and its clouds.
func WithLogger(l monitoring.Logger) Option {
	return func(r *Registry) { r.log = monitoring.OrDefault(l) }
}

// WithClock sets the clock used for creation timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(r *Registry) { r.clock = timeutil.OrReal(c) }
}

// WithPickEpsilon sets the squared distance under which a pick matches.
func WithPickEpsilon(eps float64) Option {
	return func(r *Registry) {
		if eps > 0 {
			r.epsilon = eps
		}
	}
}

// NewRegistry creates an empty registry for the named session.
func NewRegistry(name string, opts ...Option) *Registry {
	r := &Registry{
		name:    name,
		log:     monitoring.OrDefault(nil),
		clock:   timeutil.RealClock{},
		epsilon: DefaultPickEpsilon,
		clouds:  make(map[CloudID]*Cloud),
		names:   make(map[string]CloudID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the session name.
func (r *Registry) Name() string { return r.name }

// Logger returns the registry logger.
func (r *Registry) Logger() monitoring.Logger { return r.log }

// Clock returns the registry clock.
func (r *Registry) Clock() timeutil.Clock { return r.clock }

// Len returns the number of top-level names.
func (r *Registry) Len() int { return len(r.names) }

// Cloud returns the named top-level cloud, creating it on first reference.
func (r *Registry) Cloud(name string) *Cloud {
	if id, ok := r.names[name]; ok {
		return r.clouds[id]
	}
	c := r.newCloud(name)
	r.names[name] = c.id
	return c
}

// Lookup returns the named top-level cloud without creating it.
func (r *Registry) Lookup(name string) (*Cloud, bool) {
	id, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.clouds[id], true
}

// ByID returns the cloud with the given identifier.
func (r *Registry) ByID(id CloudID) (*Cloud, bool) {
	c, ok := r.clouds[id]
	return c, ok
}

// Names returns the sorted top-level cloud names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clouds returns the top-level clouds in name order.
func (r *Registry) Clouds() []*Cloud {
	names := r.Names()
	out := make([]*Cloud, len(names))
	for i, name := range names {
		out[i] = r.clouds[r.names[name]]
	}
	return out
}

func (r *Registry) newCloud(name string) *Cloud {
	c := newCloud(name, r.log, r.clock, r.epsilon)
	r.clouds[c.id] = c
	return c
}

// AddFeature adds or overwrites a feature of the named cloud.
func (r *Registry) AddFeature(cloud, feature string, values []float32, viewport int) error {
	return r.Cloud(cloud).AddFeature(feature, values, viewport)
}

// AddLabelsFeature adds a label feature built from groups of point indices.
func (r *Registry) AddLabelsFeature(cloud string, groups [][]int, feature string, viewport int) error {
	return r.Cloud(cloud).AddLabelsFeature(groups, feature, viewport)
}

// AddSpace declares three existing features of the named cloud as a space.
func (r *Registry) AddSpace(cloud, a, b, c string) error {
	return r.Cloud(cloud).AddSpace(a, b, c)
}

// AddCloud decomposes records into the named cloud.
func (r *Registry) AddCloud(cloud string, records Records, viewport int) error {
	return r.Cloud(cloud).AddCloud(records, viewport)
}

// AddCloudIndices decomposes the records at indices into the named cloud.
func (r *Registry) AddCloudIndices(cloud string, records Records, indices []int, viewport int) error {
	return r.Cloud(cloud).AddCloudIndices(records, indices, viewport)
}

// AddCloudIndexed builds a child cloud from records and attaches it to point
// i of parent. The child is also registered at top level under its own name;
// both views share one Cloud. An unknown parent is created and logged, an
// out-of-range index is logged and still attached.
func (r *Registry) AddCloudIndexed(parent string, records Records, i int, child string, viewport int) error {
	p, ok := r.Lookup(parent)
	if !ok {
		r.log.Errorf("[addCloudIndexed] parent cloud [%s] does not exist; creating it empty", parent)
		p = r.Cloud(parent)
	}

	c, err := r.childCloud(p, i, child)
	if err != nil {
		return err
	}
	if err := c.AddCloud(records, viewport); err != nil {
		return err
	}
	return p.attachIndexed(i, child, c.id)
}

// childCloud returns the child attached at (p, i, name), creating it on
// first reference. The top-level name is pointed at that child every time.
func (r *Registry) childCloud(p *Cloud, i int, name string) (*Cloud, error) {
	if id, ok := p.indexedChild(i, name); ok {
		if cur, bound := r.names[name]; bound && cur != id {
			r.log.Warnf("[addCloudIndexed] top-level name [%s] now refers to the child of [%s] at %d", name, p.name, i)
		}
		r.names[name] = id
		return r.clouds[id], nil
	}

	if id, ok := r.names[name]; ok {
		if p.id == id {
			r.log.Errorf("[addCloudIndexed] cloud [%s] cannot be its own child", name)
			return nil, fmt.Errorf("attach %q: %w", name, ErrSelfAttach)
		}
		r.log.Warnf("[addCloudIndexed] top-level name [%s] now refers to the child of [%s] at %d", name, p.name, i)
	}
	c := r.newCloud(name)
	r.names[name] = c.id
	return c, nil
}

// IndexedClouds returns the child clouds attached at point i of parent.
func (r *Registry) IndexedClouds(parent string, i int) []*Cloud {
	p, ok := r.Lookup(parent)
	if !ok {
		return nil
	}
	ids := p.IndexedClouds(i)
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Cloud, 0, len(names))
	for _, name := range names {
		if c, ok := r.clouds[ids[name]]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SetFeaturesOrder moves the named features to the front of every cloud, in
// the given order. Names a cloud lacks are skipped with a warning.
func (r *Registry) SetFeaturesOrder(names []string) {
	ids := make([]CloudID, 0, len(r.clouds))
	for id := range r.clouds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return r.clouds[ids[i]].name < r.clouds[ids[j]].name })

	for _, id := range ids {
		c := r.clouds[id]
		for _, name := range c.features.MoveToFront(names) {
			r.log.Warnf("[setFeaturesOrder] cloud [%s] has no feature [%s]", c.name, name)
		}
	}
}
