package pointcloud

import "fmt"

// RGBFeature is the name of the packed colour pseudo-feature. It is the only
// feature serialised as an unsigned integer.
const RGBFeature = "rgb"

// Feature is a named array of one scalar value per point.
type Feature struct {
	Name   string
	Values []float32

	revision uint64
}

// FeatureStore is an insertion-ordered collection of features. Names are
// unique; setting an existing name overwrites its values in place.
type FeatureStore struct {
	features []*Feature
	index    map[string]int
	revision uint64
}

// NewFeatureStore creates an empty store.
func NewFeatureStore() *FeatureStore {
	return &FeatureStore{index: make(map[string]int)}
}

// Set appends a new feature or overwrites the values of an existing one
// without moving it. The values are copied.
func (s *FeatureStore) Set(name string, values []float32) {
	s.revision++
	data := make([]float32, len(values))
	copy(data, values)

	if i, ok := s.index[name]; ok {
		s.features[i].Values = data
		s.features[i].revision = s.revision
		return
	}

	s.index[name] = len(s.features)
	s.features = append(s.features, &Feature{Name: name, Values: data, revision: s.revision})
}

// Get returns the values of a feature. The slice is owned by the store.
func (s *FeatureStore) Get(name string) ([]float32, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, name)
	}
	return s.features[i].Values, nil
}

// Has reports whether a feature exists.
func (s *FeatureStore) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// PointCount is the length of the first feature, or 0 for an empty store.
func (s *FeatureStore) PointCount() int {
	if len(s.features) == 0 {
		return 0
	}
	return len(s.features[0].Values)
}

// Delete removes a feature, keeping the order of the rest. It reports
// whether the feature existed.
func (s *FeatureStore) Delete(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	s.revision++
	s.features = append(s.features[:i], s.features[i+1:]...)
	delete(s.index, name)
	for j := i; j < len(s.features); j++ {
		s.index[s.features[j].Name] = j
	}
	return true
}

// Len returns the number of distinct features.
func (s *FeatureStore) Len() int {
	return len(s.features)
}

// Names returns feature names in insertion order.
func (s *FeatureStore) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name
	}
	return names
}

// featureRevision returns the revision a feature was last written at, or 0.
func (s *FeatureStore) featureRevision(name string) uint64 {
	if i, ok := s.index[name]; ok {
		return s.features[i].revision
	}
	return 0
}

// MoveToFront puts the named features first, in the given order, keeping the
// relative order of the rest. It returns the names that were not found.
func (s *FeatureStore) MoveToFront(names []string) (missing []string) {
	front := make([]*Feature, 0, len(s.features))
	taken := make(map[string]bool, len(names))
	for _, name := range names {
		i, ok := s.index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if taken[name] {
			continue
		}
		taken[name] = true
		front = append(front, s.features[i])
	}
	for _, f := range s.features {
		if !taken[f.Name] {
			front = append(front, f)
		}
	}

	s.features = front
	for i, f := range s.features {
		s.index[f.Name] = i
	}
	return missing
}
