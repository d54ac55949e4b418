package viewer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/banshee-data/pcv/internal/catalog"
	"github.com/banshee-data/pcv/internal/fsutil"
	"github.com/banshee-data/pcv/internal/metrics"
	"github.com/banshee-data/pcv/internal/monitoring"
	"github.com/banshee-data/pcv/internal/pcd"
	"github.com/banshee-data/pcv/internal/pointcloud"
	"github.com/banshee-data/pcv/internal/security"
)

// Default output location, relative to the working directory.
const DefaultOutputDir = "VisualizerData"

// Recorder stores a catalog entry for every written cloud file and drops
// the entries of removed files.
type Recorder interface {
	Record(ctx context.Context, e catalog.Entry) error
	Forget(ctx context.Context, paths []string) (int64, error)
}

// Session renders the clouds of one registry and answers engine events.
// Like the registry, it is not safe for concurrent use.
type Session struct {
	reg     *pointcloud.Registry
	fs      fsutil.FileSystem
	dir     string
	prefix  string
	log     monitoring.Logger
	catalog Recorder
	metrics *metrics.Metrics

	identified int
	lastPick   *PickResult
}

// Option configures a Session.
type Option func(*Session)

// WithFileSystem sets the filesystem PCD files are written to.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(s *Session) { s.fs = fsys }
}

// WithOutputDir sets the directory PCD files are written to.
func WithOutputDir(dir string) Option {
	return func(s *Session) { s.dir = dir }
}

// WithFilePrefix sets the prefix of written file names.
func WithFilePrefix(prefix string) Option {
	return func(s *Session) { s.prefix = prefix }
}

// WithRecorder records written files in a catalog.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.catalog = r }
}

// WithMetrics counts render and pick activity.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// NewSession creates a session over reg. It logs through the registry's
// logger.
func NewSession(reg *pointcloud.Registry, opts ...Option) *Session {
	s := &Session{
		reg:        reg,
		fs:         fsutil.OSFileSystem{},
		dir:        DefaultOutputDir,
		prefix:     pcd.DefaultPrefix,
		log:        reg.Logger(),
		identified: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry the session renders.
func (s *Session) Registry() *pointcloud.Registry { return s.reg }

// Report summarises one render pass.
type Report struct {
	Prepared []PreparedCloud
	Failed   map[string]error
}

// Err joins the per-cloud failures, nil when every cloud rendered.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for name, err := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}

// Render prepares every top-level cloud, in name order, and adds it to
// engine. A failing cloud is logged and skipped; only an unusable output
// directory aborts the pass.
func (s *Session) Render(ctx context.Context, engine Engine) (*Report, error) {
	clock := s.reg.Clock()
	start := clock.Now()
	defer func() { s.metrics.RenderPass(clock.Since(start).Seconds()) }()

	if err := s.fs.Mkdir(s.dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		s.log.Errorf("[render] cannot create output directory %s: %v", s.dir, err)
		return nil, fmt.Errorf("%w: %s: %v", ErrOutputDir, s.dir, err)
	}

	report := &Report{Failed: make(map[string]error)}
	for _, c := range s.reg.Clouds() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		p, err := s.prepare(c)
		if err == nil {
			err = engine.AddCloud(ctx, p)
			if err != nil {
				s.log.Errorf("[render] engine %s rejected cloud [%s]: %v", engine.Name(), c.Name(), err)
			}
		}
		if err != nil {
			report.Failed[c.Name()] = err
			s.metrics.CloudSkipped(skipReason(err))
			continue
		}

		if s.catalog != nil {
			if err := s.catalog.Record(ctx, catalogEntry(s.reg.Name(), c, p)); err != nil {
				s.log.Warnf("[render] catalog: %v", err)
			}
		}
		s.metrics.CloudRendered(engine.Name(), p.Points())
		report.Prepared = append(report.Prepared, p)
	}
	return report, nil
}

// Run renders then hands control to the engine until it finishes.
func (s *Session) Run(ctx context.Context, engine Engine) (*Report, error) {
	report, err := s.Render(ctx, engine)
	if err != nil {
		return report, err
	}
	return report, engine.Run(ctx, s)
}

// Clean removes files of the output directory older than hours, using the
// registry clock, and forgets them in the catalog.
func (s *Session) Clean(ctx context.Context, hours float64) ([]string, error) {
	removed, err := pcd.ClearSavedData(s.fs, s.dir, s.prefix, s.reg.Clock(), hours)
	if err != nil {
		s.log.Warnf("[clearSavedData] %v", err)
	}
	s.metrics.FilesRemoved(len(removed))
	if s.catalog != nil && len(removed) > 0 {
		if _, cerr := s.catalog.Forget(ctx, removed); cerr != nil {
			s.log.Warnf("[clearSavedData] catalog: %v", cerr)
		}
	}
	return removed, err
}

// prepare validates, colours, writes and reloads one cloud.
func (s *Session) prepare(c *pointcloud.Cloud) (PreparedCloud, error) {
	if len(c.Spaces()) == 0 {
		s.log.Errorf("[render] cloud [%s] has no space and cannot be rendered", c.Name())
		return PreparedCloud{}, fmt.Errorf("%w: %s", ErrNoSpace, c.Name())
	}

	color, hasColor, err := c.SynthesizeRGB()
	if err != nil {
		return PreparedCloud{}, err
	}

	name := pcd.Name{
		Prefix:    s.prefix,
		Timestamp: c.Timestamp(),
		Session:   s.reg.Name(),
		Viewport:  c.Viewport(),
		Cloud:     c.Name(),
	}
	path := name.Path(s.dir)
	if err := security.ValidateWithinDirectory(path, s.dir); err != nil {
		s.log.Errorf("[render] refusing to write cloud [%s]: %v", c.Name(), err)
		return PreparedCloud{}, err
	}

	if err := s.write(path, c); err != nil {
		s.log.Errorf("[render] cannot write cloud [%s] to %s: %v", c.Name(), path, err)
		return PreparedCloud{}, err
	}
	table, err := s.read(path)
	if err != nil {
		s.log.Errorf("[render] cannot reload cloud [%s] from %s: %v", c.Name(), path, err)
		return PreparedCloud{}, err
	}

	p := PreparedCloud{
		ID:       c.ID(),
		Name:     c.Name(),
		Viewport: c.Viewport(),
		Size:     c.Size(),
		Opacity:  c.Opacity(),
		Color:    color,
		HasColor: hasColor,
		Path:     path,
		Table:    table,
	}
	for _, sp := range c.Spaces() {
		p.Spaces = append(p.Spaces, sp.Features())
	}
	return p, nil
}

func (s *Session) write(path string, c *pointcloud.Cloud) (err error) {
	names := c.FeatureNames()
	fields := make([]pcd.Field, len(names))
	for i, name := range names {
		values, err := c.Feature(name)
		if err != nil {
			return err
		}
		fields[i] = pcd.Field{Name: name, Values: values}
	}

	w, err := s.fs.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return pcd.Encode(w, fields)
}

func (s *Session) read(path string) (*pcd.Table, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pcd.Decode(f)
}

func catalogEntry(session string, c *pointcloud.Cloud, p PreparedCloud) catalog.Entry {
	return catalog.Entry{
		Path:     p.Path,
		CloudID:  string(p.ID),
		Session:  session,
		Cloud:    p.Name,
		Viewport: p.Viewport,
		Created:  c.Timestamp(),
		Points:   p.Points(),
		Fields:   p.Table.Names(),
	}
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrNoSpace):
		return "no_space"
	case errors.Is(err, pointcloud.ErrLengthMismatch), errors.Is(err, pcd.ErrFieldLength):
		return "length_mismatch"
	}
	return "error"
}
