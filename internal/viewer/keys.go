package viewer

import (
	"fmt"
	"strings"
)

const helpText = `Keys:
  h  print this help
  i  identify the next cloud
  I  identify the previous cloud
  u  stop identifying clouds
Click a point to print the cloud, space and index it belongs to.`

// Key handles the viewer key bindings.
func (s *Session) Key(key string) string {
	switch key {
	case "h":
		return helpText
	case "i":
		return s.identifyClouds(true, false)
	case "I":
		return s.identifyClouds(true, true)
	case "u":
		return s.identifyClouds(false, false)
	}
	return ""
}

// Identified returns the name of the identified cloud, if any.
func (s *Session) Identified() (string, bool) {
	names := s.reg.Names()
	if s.identified < 0 || s.identified >= len(names) {
		return "", false
	}
	return names[s.identified], true
}

// identifyClouds steps through the clouds in name order, wrapping at both
// ends. Disabling forgets the current position.
func (s *Session) identifyClouds(enabled, back bool) string {
	n := s.reg.Len()
	if !enabled || n == 0 {
		s.identified = -1
		return "identification off"
	}

	switch {
	case s.identified < 0 || s.identified >= n:
		if back {
			s.identified = n - 1
		} else {
			s.identified = 0
		}
	case back:
		s.identified = (s.identified - 1 + n) % n
	default:
		s.identified = (s.identified + 1) % n
	}

	name, _ := s.Identified()
	c, _ := s.reg.Lookup(name)
	var b strings.Builder
	fmt.Fprintf(&b, "identified cloud [%s] (%d/%d): %d points, viewport %d", name, s.identified+1, n, c.PointCount(), c.Viewport())
	if fields := c.FeatureNames(); len(fields) > 0 {
		fmt.Fprintf(&b, ", features %s", strings.Join(fields, " "))
	}
	return b.String()
}
