package pointcloud

import (
	"errors"
	"math/rand"
	"testing"
)

func TestSpace_FindPickedPointIndex(t *testing.T) {
	v := []float32{0, 1, 2}
	s, err := NewSpace([3]string{"x", "y", "z"}, [3][]float32{v, v, v}, DefaultPickEpsilon)
	if err != nil {
		t.Fatalf("NewSpace() error = %v", err)
	}

	tests := []struct {
		name    string
		a, b, c float32
		want    int
	}{
		{"first", 0, 0, 0, 0},
		{"middle", 1, 1, 1, 1},
		{"last", 2, 2, 2, 2},
		{"far away", 5, 5, 5, NotFound},
		{"near miss", 1, 1, 1.001, NotFound},
		{"mixed axes", 0, 1, 2, NotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.FindPickedPointIndex(tt.a, tt.b, tt.c); got != tt.want {
				t.Errorf("FindPickedPointIndex(%v, %v, %v) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
			}
		})
	}
}

func TestSpace_Empty(t *testing.T) {
	s, err := NewSpace([3]string{"x", "y", "z"}, [3][]float32{}, DefaultPickEpsilon)
	if err != nil {
		t.Fatalf("NewSpace() error = %v", err)
	}
	if got := s.FindPickedPointIndex(0, 0, 0); got != NotFound {
		t.Errorf("empty space returned %d, want NotFound", got)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSpace_LengthMismatch(t *testing.T) {
	_, err := NewSpace([3]string{"x", "y", "z"},
		[3][]float32{{1, 2}, {1, 2, 3}, {1, 2}}, DefaultPickEpsilon)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("NewSpace() error = %v, want ErrLengthMismatch", err)
	}
}

func TestSpace_NameAndFeatures(t *testing.T) {
	v := []float32{1}
	s, _ := NewSpace([3]string{"normal_x", "normal_y", "normal_z"}, [3][]float32{v, v, v}, DefaultPickEpsilon)
	if got := s.Name(); got != "normal_xnormal_ynormal_z" {
		t.Errorf("Name() = %q", got)
	}
	if got := s.Features(); got != [3]string{"normal_x", "normal_y", "normal_z"} {
		t.Errorf("Features() = %v", got)
	}
}

func TestSpace_ExactMatchAmongCloseNeighbours(t *testing.T) {
	// Points a hair apart must never be confused with one another.
	xs := []float32{1, 1.0001, 1.0002, 1.0003}
	ys := []float32{0, 0, 0, 0}
	s, err := NewSpace([3]string{"x", "y", "z"}, [3][]float32{xs, ys, ys}, DefaultPickEpsilon)
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range xs {
		if got := s.FindPickedPointIndex(x, 0, 0); got != i {
			t.Errorf("pick %v = %d, want %d", x, got, i)
		}
	}
	if got := s.FindPickedPointIndex(1.00005, 0, 0); got != NotFound {
		t.Errorf("pick between points = %d, want NotFound", got)
	}
}

func TestSpace_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 500
	var vals [3][]float32
	for d := range vals {
		vals[d] = make([]float32, n)
		for i := range vals[d] {
			vals[d][i] = rng.Float32()*200 - 100
		}
	}
	s, err := NewSpace([3]string{"a", "b", "c"}, vals, DefaultPickEpsilon)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if got := s.FindPickedPointIndex(vals[0][i], vals[1][i], vals[2][i]); got != i {
			t.Fatalf("pick point %d = %d", i, got)
		}
	}
}

func TestSpace_RebuildsAfterFeatureOverwrite(t *testing.T) {
	store := NewFeatureStore()
	store.Set("x", []float32{0, 1, 2})
	store.Set("y", []float32{0, 1, 2})
	store.Set("z", []float32{0, 1, 2})

	s, err := newStoreSpace(store, "x", "y", "z", DefaultPickEpsilon)
	if err != nil {
		t.Fatal(err)
	}
	if s.Stale() {
		t.Fatal("fresh space reported stale")
	}

	store.Set("x", []float32{10, 11, 12})
	if !s.Stale() {
		t.Fatal("space should be stale after overwrite")
	}
	if got := s.FindPickedPointIndex(1, 1, 1); got != NotFound {
		t.Errorf("old coordinate still matched: %d", got)
	}
	if got := s.FindPickedPointIndex(11, 1, 1); got != 1 {
		t.Errorf("new coordinate = %d, want 1", got)
	}
	if s.Stale() {
		t.Error("space still stale after query")
	}
}

func TestSpace_UnrelatedOverwriteNotStale(t *testing.T) {
	store := NewFeatureStore()
	for _, n := range []string{"x", "y", "z", "i"} {
		store.Set(n, []float32{0, 1})
	}
	s, _ := newStoreSpace(store, "x", "y", "z", DefaultPickEpsilon)
	store.Set("i", []float32{5, 5})
	if s.Stale() {
		t.Error("overwriting a feature outside the space made it stale")
	}
}

func TestSpacePoint_Distance(t *testing.T) {
	p := spacePoint{coord: [3]float64{0, 0, 0}}
	q := spacePoint{coord: [3]float64{1, 2, 2}}
	if got := p.Distance(q); got != 9 {
		t.Errorf("Distance() = %v, want squared distance 9", got)
	}
	if got := q.Compare(p, 1); got != 2 {
		t.Errorf("Compare(dim 1) = %v, want 2", got)
	}
}
