package pointcloud

import "time"

// TimestampLayout renders creation times as YYYYMMDD.HHMMSS.mmm, which sorts
// chronologically as a plain string.
const TimestampLayout = "20060102.150405.000"

// FormatTimestamp formats t with TimestampLayout in t's own location.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
