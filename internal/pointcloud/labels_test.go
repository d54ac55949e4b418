package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pcv/internal/testutil"
)

func TestAddLabelsFeature(t *testing.T) {
	tests := []struct {
		name       string
		groups     [][]int
		want       []float32
		wantErr    error
		wantLogged string
	}{
		{
			name:   "two groups",
			groups: [][]int{{0, 2}, {1}},
			want:   []float32{0, 1, 0},
		},
		{
			name:   "unlabelled points",
			groups: [][]int{{1}},
			want:   []float32{-1, 0, -1},
		},
		{
			name:   "no groups",
			groups: nil,
			want:   []float32{-1, -1, -1},
		},
		{
			name:       "out of range skipped",
			groups:     [][]int{{0, 5, 2}, {1}},
			want:       []float32{0, 1, 0},
			wantErr:    ErrIndexOutOfRange,
			wantLogged: "index 5",
		},
		{
			name:       "negative skipped",
			groups:     [][]int{{-1}, {2}},
			want:       []float32{-1, -1, 1},
			wantErr:    ErrIndexOutOfRange,
			wantLogged: "index -1",
		},
		{
			name:   "later group wins",
			groups: [][]int{{0, 1}, {1}},
			want:   []float32{0, 1, -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, log := newTestRegistry(t)
			xyzCloud(t, r, "c")

			err := r.AddLabelsFeature("c", tt.groups, "labels", KeepViewport)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				testutil.AssertLogged(t, log.Errors(), tt.wantLogged)
			} else {
				require.NoError(t, err)
			}

			got, err := r.Cloud("c").Feature("labels")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddLabelsFeature_NoPoints(t *testing.T) {
	r, log := newTestRegistry(t)
	err := r.AddLabelsFeature("empty", [][]int{{0}}, "labels", KeepViewport)

	assert.ErrorIs(t, err, ErrNoPoints)
	assert.False(t, r.Cloud("empty").HasFeature("labels"))
	testutil.AssertLogged(t, log.Errors(), "[addLabelsFeature]")
}

func TestAddLabelsFeature_Viewport(t *testing.T) {
	r, _ := newTestRegistry(t)
	xyzCloud(t, r, "c")
	require.NoError(t, r.AddLabelsFeature("c", [][]int{{0}}, "labels", 3))
	assert.Equal(t, 3, r.Cloud("c").Viewport())
}
