package pointcloud

import "fmt"

// UnlabeledPoint is the label of points that belong to no group.
const UnlabeledPoint = -1

// AddLabelsFeature turns a partition of point indices into one label
// feature: every point of group k gets label k, every other point gets -1.
// Out-of-range indices are logged and skipped; the feature is still added
// and the returned error wraps ErrIndexOutOfRange.
func (c *Cloud) AddLabelsFeature(groups [][]int, name string, viewport int) error {
	n := c.PointCount()
	if n <= 0 {
		c.log.Errorf("[addLabelsFeature] no points in cloud [%s], addLabelsFeature should be called after at least one call to addCloud.", c.name)
		return fmt.Errorf("labels %q on %q: %w", name, c.name, ErrNoPoints)
	}

	labels := make([]float32, n)
	for i := range labels {
		labels[i] = UnlabeledPoint
	}

	var skipped []int
	for label, group := range groups {
		for _, i := range group {
			if i < 0 || i >= n {
				c.log.Errorf("[addLabelsFeature] index %d of group %d is out of bounds for [%s] (%d points).", i, label, c.name, n)
				skipped = append(skipped, i)
				continue
			}
			labels[i] = float32(label)
		}
	}

	if err := c.AddFeature(name, labels, viewport); err != nil {
		return err
	}
	if len(skipped) > 0 {
		return fmt.Errorf("labels %q on %q: %w: %v", name, c.name, ErrIndexOutOfRange, skipped)
	}
	return nil
}
