// Package remote is a rendering engine that exposes the prepared clouds and
// the session's pick and key handling over gRPC, for an external viewer to
// drive. The session ends when a client calls Close or the context is done.
package remote

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/pcv/internal/viewer"
)

// EngineName identifies this engine.
const EngineName = "grpc"

// maxMsgSize allows large clouds in ListClouds replies.
const maxMsgSize = 16 * 1024 * 1024

var _ ViewerServer = (*Engine)(nil)

// Engine serves the viewer service. All handler calls are serialised, so
// the session still sees one logical thread.
type Engine struct {
	addr string
	lis  net.Listener

	mu      sync.Mutex
	handler viewer.Handler
	clouds  []viewer.PreparedCloud

	done      chan struct{}
	closeOnce sync.Once
}

// New creates an engine listening on addr when run.
func New(addr string) *Engine {
	return &Engine{addr: addr, done: make(chan struct{})}
}

// NewWithListener creates an engine serving on an existing listener.
func NewWithListener(lis net.Listener) *Engine {
	return &Engine{addr: lis.Addr().String(), lis: lis, done: make(chan struct{})}
}

// Name implements viewer.Engine.
func (e *Engine) Name() string { return EngineName }

// AddCloud implements viewer.Engine.
func (e *Engine) AddCloud(_ context.Context, c viewer.PreparedCloud) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clouds = append(e.clouds, c)
	return nil
}

// Run serves until a client calls Close or ctx is done.
func (e *Engine) Run(ctx context.Context, h viewer.Handler) error {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()

	lis := e.lis
	if lis == nil {
		log.Printf("[Viewer] Attempting to bind to %s...", e.addr)
		var err error
		lis, err = net.Listen("tcp", e.addr)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}

	server := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)
	RegisterViewerServer(server, e)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[gRPC] viewer listening on %s", lis.Addr())
		serveErr <- server.Serve(lis)
	}()

	select {
	case <-e.done:
		log.Printf("[gRPC] viewer closed by client")
		server.GracefulStop()
		return nil
	case <-ctx.Done():
		log.Printf("[gRPC] viewer cancelled")
		server.GracefulStop()
		return ctx.Err()
	case err := <-serveErr:
		return fmt.Errorf("grpc serve: %w", err)
	}
}

// ListClouds returns the prepared clouds with their first-space coordinates.
func (e *Engine) ListClouds(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clouds := make([]interface{}, 0, len(e.clouds))
	for _, c := range e.clouds {
		clouds = append(clouds, cloudToMap(c))
	}
	out, err := structpb.NewStruct(map[string]interface{}{"clouds": clouds})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode clouds: %v", err)
	}
	return out, nil
}

// Pick resolves a coordinate through the session handler.
func (e *Engine) Pick(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	a, b, c, err := coordinates(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handler == nil {
		return nil, status.Error(codes.Unavailable, "viewer not running")
	}
	res, ok := e.handler.Pick(a, b, c)
	if ok {
		log.Printf("[gRPC] pick (%g, %g, %g): %s", a, b, c, res)
	}
	return pickToStruct(res, ok)
}

// Key forwards a key press to the session handler.
func (e *Engine) Key(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	key := in.GetFields()["key"].GetStringValue()
	if key == "" {
		return nil, status.Error(codes.InvalidArgument, "key is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handler == nil {
		return nil, status.Error(codes.Unavailable, "viewer not running")
	}
	msg := e.handler.Key(key)
	return structpb.NewStruct(map[string]interface{}{"message": msg})
}

// Close ends the session.
func (e *Engine) Close(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	e.closeOnce.Do(func() { close(e.done) })
	return &emptypb.Empty{}, nil
}

func cloudToMap(c viewer.PreparedCloud) map[string]interface{} {
	spaces := make([]interface{}, len(c.Spaces))
	for i, s := range c.Spaces {
		spaces[i] = []interface{}{s[0], s[1], s[2]}
	}
	m := map[string]interface{}{
		"id":       string(c.ID),
		"name":     c.Name,
		"viewport": c.Viewport,
		"size":     c.Size,
		"opacity":  c.Opacity,
		"points":   c.Points(),
		"path":     c.Path,
		"spaces":   spaces,
	}
	if c.HasColor {
		m["rgb"] = c.Color.Packed()
	}
	if a, b, d, ok := c.Coordinates(0); ok {
		m["coordinates"] = []interface{}{floats(a), floats(b), floats(d)}
	}
	return m
}

func floats(v []float32) []interface{} {
	out := make([]interface{}, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func coordinates(in *structpb.Struct) (a, b, c float32, err error) {
	f := in.GetFields()
	var out [3]float32
	for i, k := range []string{"a", "b", "c"} {
		v, ok := f[k]
		if !ok {
			return 0, 0, 0, fmt.Errorf("missing coordinate %q", k)
		}
		if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum {
			return 0, 0, 0, fmt.Errorf("coordinate %q is not a number", k)
		}
		out[i] = float32(v.GetNumberValue())
	}
	return out[0], out[1], out[2], nil
}

func pickToStruct(res viewer.PickResult, ok bool) (*structpb.Struct, error) {
	children := make([]interface{}, len(res.Children))
	for i, c := range res.Children {
		children[i] = c
	}
	return structpb.NewStruct(map[string]interface{}{
		"found":    ok,
		"cloud":    res.Cloud,
		"cloud_id": string(res.CloudID),
		"space":    res.Space,
		"index":    res.Index,
		"children": children,
	})
}
