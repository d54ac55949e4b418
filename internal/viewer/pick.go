package viewer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/banshee-data/pcv/internal/pointcloud"
)

// PickResult names the point a pick resolved to.
type PickResult struct {
	Cloud    string
	CloudID  pointcloud.CloudID
	Space    string
	Index    int
	Children []string
}

func (r PickResult) String() string {
	s := fmt.Sprintf("cloud [%s] space [%s] point %d", r.Cloud, r.Space, r.Index)
	if len(r.Children) > 0 {
		s += " children [" + strings.Join(r.Children, ", ") + "]"
	}
	return s
}

// Pick resolves (a, b, c) against every cloud in name order and returns the
// first exact match. Children attached at the matched point are listed.
func (s *Session) Pick(a, b, c float32) (PickResult, bool) {
	for _, cloud := range s.reg.Clouds() {
		space, i := cloud.Pick(a, b, c)
		if i == pointcloud.NotFound {
			continue
		}
		res := PickResult{
			Cloud:   cloud.Name(),
			CloudID: cloud.ID(),
			Space:   space.Name(),
			Index:   i,
		}
		for name := range cloud.IndexedClouds(i) {
			res.Children = append(res.Children, name)
		}
		sort.Strings(res.Children)

		s.lastPick = &res
		s.metrics.Pick(true)
		return res, true
	}
	s.metrics.Pick(false)
	return PickResult{Index: pointcloud.NotFound}, false
}

// LastPick returns the most recent successful pick.
func (s *Session) LastPick() (PickResult, bool) {
	if s.lastPick == nil {
		return PickResult{}, false
	}
	return *s.lastPick, true
}
