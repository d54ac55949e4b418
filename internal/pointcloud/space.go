package pointcloud

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// NotFound is returned by FindPickedPointIndex when no point matches.
const NotFound = -1

// DefaultPickEpsilon is the squared distance under which a nearest
// neighbour counts as the picked point.
const DefaultPickEpsilon = 1e-10

// Space is a triple of features interpreted as 3D coordinates, with a
// KD-tree over the per-point triples for exact-match reverse lookup.
//
// The tree is built from a snapshot of the three features. When the space
// belongs to a cloud, it remembers the feature revisions of that snapshot
// and rebuilds itself on the next query after any of them is overwritten.
type Space struct {
	U1, U2, U3 string

	store   *FeatureStore
	revs    [3]uint64
	tree    *kdtree.Tree
	n       int
	epsilon float64
}

// NewSpace builds a detached space from three named value arrays. The arrays
// must have equal length.
func NewSpace(names [3]string, values [3][]float32, epsilon float64) (*Space, error) {
	s := &Space{U1: names[0], U2: names[1], U3: names[2], epsilon: epsilon}
	if err := s.build(values); err != nil {
		return nil, err
	}
	return s, nil
}

// newStoreSpace builds a space over features of store. Callers check the
// features exist first.
func newStoreSpace(store *FeatureStore, a, b, c string, epsilon float64) (*Space, error) {
	s := &Space{U1: a, U2: b, U3: c, store: store, epsilon: epsilon}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name concatenates the three feature names.
func (s *Space) Name() string {
	return s.U1 + s.U2 + s.U3
}

// Features returns the three feature names in axis order.
func (s *Space) Features() [3]string {
	return [3]string{s.U1, s.U2, s.U3}
}

// Len returns the number of indexed points.
func (s *Space) Len() int {
	return s.n
}

// Stale reports whether a referenced feature changed since the last build.
func (s *Space) Stale() bool {
	if s.store == nil {
		return false
	}
	for i, name := range s.Features() {
		if s.store.featureRevision(name) != s.revs[i] {
			return true
		}
	}
	return false
}

// FindPickedPointIndex returns the index of the point whose coordinates match
// (a, b, c), or NotFound. Only a squared distance below the space epsilon is
// a match, so a click never resolves to a merely nearby point.
func (s *Space) FindPickedPointIndex(a, b, c float32) int {
	if s.Stale() {
		if err := s.rebuild(); err != nil {
			return NotFound
		}
	}
	if s.tree == nil || s.n == 0 {
		return NotFound
	}

	q := spacePoint{coord: [3]float64{float64(a), float64(b), float64(c)}, index: NotFound}
	got, dist := s.tree.Nearest(q)
	if got == nil {
		return NotFound
	}
	if dist < s.epsilon {
		return got.(spacePoint).index
	}
	return NotFound
}

func (s *Space) rebuild() error {
	var values [3][]float32
	for i, name := range s.Features() {
		v, err := s.store.Get(name)
		if err != nil {
			return err
		}
		values[i] = v
		s.revs[i] = s.store.featureRevision(name)
	}
	return s.build(values)
}

func (s *Space) build(values [3][]float32) error {
	n := len(values[0])
	if len(values[1]) != n || len(values[2]) != n {
		return fmt.Errorf("%w: space %s has axes of length %d, %d, %d",
			ErrLengthMismatch, s.Name(), len(values[0]), len(values[1]), len(values[2]))
	}

	s.n = n
	if n == 0 {
		s.tree = nil
		return nil
	}

	pts := make(spacePoints, n)
	for i := 0; i < n; i++ {
		pts[i] = spacePoint{
			coord: [3]float64{float64(values[0][i]), float64(values[1][i]), float64(values[2][i])},
			index: i,
		}
	}
	s.tree = kdtree.New(pts, false)
	return nil
}

// spacePoint is a 3D coordinate tagged with the index of its source point.
type spacePoint struct {
	coord [3]float64
	index int
}

func (p spacePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(spacePoint)
	return p.coord[d] - q.coord[d]
}

func (p spacePoint) Dims() int { return 3 }

// Distance is the squared euclidean distance.
func (p spacePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(spacePoint)
	var sum float64
	for i := range p.coord {
		d := p.coord[i] - q.coord[i]
		sum += d * d
	}
	return sum
}

type spacePoints []spacePoint

func (p spacePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p spacePoints) Len() int                              { return len(p) }
func (p spacePoints) Pivot(d kdtree.Dim) int                { return spacePlane{Dim: d, spacePoints: p}.Pivot() }
func (p spacePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// spacePlane sorts points along one dimension for median partitioning.
type spacePlane struct {
	kdtree.Dim
	spacePoints
}

func (p spacePlane) Less(i, j int) bool {
	return p.spacePoints[i].coord[p.Dim] < p.spacePoints[j].coord[p.Dim]
}
func (p spacePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p spacePlane) Slice(start, end int) kdtree.SortSlicer {
	p.spacePoints = p.spacePoints[start:end]
	return p
}
func (p spacePlane) Swap(i, j int) {
	p.spacePoints[i], p.spacePoints[j] = p.spacePoints[j], p.spacePoints[i]
}
