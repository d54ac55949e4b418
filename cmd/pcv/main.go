// Command pcv renders point clouds with a chosen engine.
//
// With no -input it renders a small demo scene. PCD files given with -input
// become one cloud each, with an (x, y, z) space when those fields exist.
//
//	pcv -engine html
//	pcv -config viewer.yaml -input scan.pcd,labels.pcd
//	pcv -clean
//
// With -connect it acts as a client of a running grpc engine:
//
//	pcv -connect localhost:50061 -list
//	pcv -connect localhost:50061 -pick 1,2,3
//	pcv -connect localhost:50061 -key i
//	pcv -connect localhost:50061 -stop
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/pcv/internal/catalog"
	"github.com/banshee-data/pcv/internal/config"
	"github.com/banshee-data/pcv/internal/fsutil"
	"github.com/banshee-data/pcv/internal/metrics"
	"github.com/banshee-data/pcv/internal/monitoring"
	"github.com/banshee-data/pcv/internal/pointcloud"
	"github.com/banshee-data/pcv/internal/timeutil"
	"github.com/banshee-data/pcv/internal/version"
	"github.com/banshee-data/pcv/internal/viewer"
	"github.com/banshee-data/pcv/internal/viewer/htmlview"
	"github.com/banshee-data/pcv/internal/viewer/plotview"
	"github.com/banshee-data/pcv/internal/viewer/remote"
)

var (
	configFile  = flag.String("config", "", "Path to a .json or .yaml viewer config")
	input       = flag.String("input", "", "Comma-separated PCD files to render (demo scene when empty)")
	engineName  = flag.String("engine", "", "Rendering engine: html, png or grpc (overrides config)")
	outputDir   = flag.String("output", "", "Directory for saved cloud files (overrides config)")
	clean       = flag.Bool("clean", false, "Remove saved files older than the retention period and exit")
	metricsAddr = flag.String("metrics-addr", "", "Serve prometheus metrics on this address (overrides config)")
	showVersion = flag.Bool("version", false, "Print version and exit")

	connect = flag.String("connect", "", "Address of a running grpc viewer; enables client mode")
	list    = flag.Bool("list", false, "Client mode: list clouds")
	pick    = flag.String("pick", "", "Client mode: pick the point at a,b,c")
	key     = flag.String("key", "", "Client mode: send a key press")
	stop    = flag.Bool("stop", false, "Client mode: close the viewer session")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	if *connect != "" {
		err = runClient(ctx, *connect)
	} else {
		err = run(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("pcv: %v", err)
	}
}

func loadConfig() (*config.ViewerConfig, error) {
	cfg := config.EmptyViewerConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadViewerConfig(*configFile); err != nil {
			return nil, err
		}
	}
	if *engineName != "" {
		cfg.Engine = engineName
	}
	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Printf("%s starting, engine %s", version.String(), cfg.GetEngine())

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	if addr := cfg.GetMetricsAddr(); addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux(m), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("metrics listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	reg := pointcloud.NewRegistry(cfg.GetSessionName(),
		pointcloud.WithLogger(monitoring.StdLogger{}),
		pointcloud.WithClock(timeutil.RealClock{}),
		pointcloud.WithPickEpsilon(cfg.GetPickEpsilon()),
	)

	fsys := fsutil.OSFileSystem{}
	opts := []viewer.Option{
		viewer.WithFileSystem(fsys),
		viewer.WithOutputDir(cfg.GetOutputDir()),
		viewer.WithFilePrefix(cfg.GetFilePrefix()),
		viewer.WithMetrics(m),
	}
	if path := cfg.GetCatalogPath(); path != "" {
		store, err := catalog.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, viewer.WithRecorder(store))
	}
	session := viewer.NewSession(reg, opts...)

	if *clean {
		removed, err := session.Clean(ctx, float64(cfg.GetRetentionHours()))
		log.Printf("removed %d saved files from %s", len(removed), cfg.GetOutputDir())
		return err
	}

	if *input == "" {
		if err := buildDemo(reg); err != nil {
			log.Printf("demo scene: %v", err)
		}
	} else {
		for _, path := range strings.Split(*input, ",") {
			if err := loadPCD(reg, fsys, strings.TrimSpace(path)); err != nil {
				return err
			}
		}
	}

	engine, err := newEngine(cfg, fsys)
	if err != nil {
		return err
	}
	report, err := session.Run(ctx, engine)
	if report != nil {
		log.Printf("rendered %d clouds with %s engine, %d failed", len(report.Prepared), engine.Name(), len(report.Failed))
		if rerr := report.Err(); rerr != nil {
			log.Printf("render failures: %v", rerr)
		}
	}
	if h, ok := engine.(*htmlview.Engine); ok && err == nil {
		log.Printf("wrote %s", h.Path())
	}
	if p, ok := engine.(*plotview.Engine); ok && err == nil {
		for _, path := range p.Written() {
			log.Printf("wrote %s", path)
		}
	}
	return err
}

func newEngine(cfg *config.ViewerConfig, fsys fsutil.FileSystem) (viewer.Engine, error) {
	switch cfg.GetEngine() {
	case config.EngineHTML:
		return htmlview.New(fsys, cfg.GetHTMLPath(), "pcv: "+cfg.GetSessionName()), nil
	case config.EnginePNG:
		return plotview.New(fsys, cfg.GetPNGDir(), cfg.GetFilePrefix(), cfg.GetPNGWidth(), cfg.GetPNGHeight()), nil
	case config.EngineGRPC:
		return remote.New(cfg.GetGRPCAddr()), nil
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.GetEngine())
	}
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return mux
}

func runClient(ctx context.Context, addr string) error {
	c, err := remote.Dial(addr)
	if err != nil {
		return err
	}
	defer c.CloseConn()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch {
	case *list:
		clouds, err := c.ListClouds(ctx)
		if err != nil {
			return err
		}
		for _, cl := range clouds {
			fmt.Printf("%s\tviewport %d\t%d points\t%s\n", cl.Name, cl.Viewport, cl.Points, cl.Path)
		}
	case *pick != "":
		a, b, d, err := parseCoordinates(*pick)
		if err != nil {
			return err
		}
		res, ok, err := c.Pick(ctx, a, b, d)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no point at that coordinate")
			return nil
		}
		fmt.Println(res)
	case *key != "":
		msg, err := c.Key(ctx, *key)
		if err != nil {
			return err
		}
		fmt.Println(msg)
	case *stop:
		return c.Close(ctx)
	default:
		return errors.New("client mode needs one of -list, -pick, -key or -stop")
	}
	return nil
}
