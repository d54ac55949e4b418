package pcd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/pcv/internal/fsutil"
	"github.com/banshee-data/pcv/internal/pointcloud"
	"github.com/banshee-data/pcv/internal/security"
	"github.com/banshee-data/pcv/internal/timeutil"
)

// DefaultPrefix starts every file name a session writes.
const DefaultPrefix = "visualizer."

// Extension is the file extension of written clouds.
const Extension = ".pcd"

// timestampLen is the length of a pointcloud.TimestampLayout string.
var timestampLen = len(pointcloud.TimestampLayout)

// Name identifies one written cloud file.
type Name struct {
	Prefix    string
	Timestamp string
	Session   string
	Viewport  int
	Cloud     string
}

// String renders <prefix><timestamp>.<session>.<viewport>-view.<cloud>.pcd.
// Session and cloud names are sanitised so they cannot add path elements.
func (n Name) String() string {
	return n.Prefix + n.Timestamp + "." + security.SanitizeFilename(n.Session) + "." +
		strconv.Itoa(n.Viewport) + "-view." + security.SanitizeFilename(n.Cloud) + Extension
}

// Path joins the file name onto dir.
func (n Name) Path(dir string) string {
	return filepath.Join(dir, n.String())
}

// ParseName splits a file name written by Name.String. The cloud and session
// components come back sanitised.
func ParseName(prefix, file string) (Name, error) {
	base := filepath.Base(file)
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, Extension) {
		return Name{}, fmt.Errorf("%w: %s is not a %s*%s file", ErrFormat, base, prefix, Extension)
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(base, prefix), Extension)
	if len(rest) < timestampLen+1 || rest[timestampLen] != '.' {
		return Name{}, fmt.Errorf("%w: %s has no timestamp", ErrFormat, base)
	}
	n := Name{Prefix: prefix, Timestamp: rest[:timestampLen]}
	rest = rest[timestampLen+1:]

	view := strings.Index(rest, "-view.")
	if view < 0 {
		return Name{}, fmt.Errorf("%w: %s has no viewport", ErrFormat, base)
	}
	head, cloud := rest[:view], rest[view+len("-view."):]
	dot := strings.LastIndex(head, ".")
	if dot < 0 {
		return Name{}, fmt.Errorf("%w: %s has no session", ErrFormat, base)
	}
	vp, err := strconv.Atoi(head[dot+1:])
	if err != nil {
		return Name{}, fmt.Errorf("%w: %s: viewport: %v", ErrFormat, base, err)
	}
	n.Session, n.Viewport, n.Cloud = head[:dot], vp, cloud
	return n, nil
}

// ClearSavedData removes files in dir whose name starts with prefix followed
// by a timestamp older than clock.Now() minus hours. Timestamps are compared
// as strings. A missing directory is not an error. It returns the removed
// paths.
func ClearSavedData(fsys fsutil.FileSystem, dir, prefix string, clock timeutil.Clock, hours float64) ([]string, error) {
	if !fsys.Exists(dir) {
		return nil, nil
	}
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("clear saved data in %s: %w", dir, err)
	}

	limit := Threshold(timeutil.OrReal(clock), hours)
	var removed []string
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ts, ok := fileTimestamp(prefix, name)
		if !ok || ts >= limit {
			continue
		}
		path := filepath.Join(dir, name)
		if err := fsys.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, path)
	}
	if len(errs) > 0 {
		return removed, fmt.Errorf("clear saved data in %s: %w", dir, errors.Join(errs...))
	}
	return removed, nil
}

// Threshold is the timestamp string hours before now.
func Threshold(clock timeutil.Clock, hours float64) string {
	back := time.Duration(hours * float64(time.Hour))
	return pointcloud.FormatTimestamp(clock.Now().Add(-back))
}

// fileTimestamp returns the timestamp part of a "<prefix>20..." file name.
func fileTimestamp(prefix, name string) (string, bool) {
	if !strings.HasPrefix(name, prefix+"20") || len(name) < len(prefix)+timestampLen {
		return "", false
	}
	return name[len(prefix) : len(prefix)+timestampLen], true
}
