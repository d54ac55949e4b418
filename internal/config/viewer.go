package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Engine names accepted by the engine setting.
const (
	EngineHTML = "html"
	EnginePNG  = "png"
	EngineGRPC = "grpc"
)

// ViewerConfig is the root configuration of a visualisation session.
// Every field is optional; the Get* methods supply defaults for any field
// omitted from the file, so partial configs are safe.
type ViewerConfig struct {
	// Saved cloud files
	OutputDir      *string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	FilePrefix     *string `json:"file_prefix,omitempty" yaml:"file_prefix,omitempty"`
	SessionName    *string `json:"session_name,omitempty" yaml:"session_name,omitempty"`
	RetentionHours *int    `json:"retention_hours,omitempty" yaml:"retention_hours,omitempty"`

	// Picking
	PickEpsilon *float64 `json:"pick_epsilon,omitempty" yaml:"pick_epsilon,omitempty"`

	// Rendering engine
	Engine    *string `json:"engine,omitempty" yaml:"engine,omitempty"` // html, png or grpc
	HTMLPath  *string `json:"html_path,omitempty" yaml:"html_path,omitempty"`
	PNGDir    *string `json:"png_dir,omitempty" yaml:"png_dir,omitempty"`
	PNGWidth  *int    `json:"png_width,omitempty" yaml:"png_width,omitempty"`   // pixels
	PNGHeight *int    `json:"png_height,omitempty" yaml:"png_height,omitempty"` // pixels
	GRPCAddr  *string `json:"grpc_addr,omitempty" yaml:"grpc_addr,omitempty"`

	// Optional services (empty disables)
	CatalogPath *string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
	MetricsAddr *string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyViewerConfig returns a ViewerConfig with all fields set to nil.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// DefaultViewerConfig returns a ViewerConfig with every field populated
// from the defaults used by the Get* methods.
func DefaultViewerConfig() *ViewerConfig {
	empty := EmptyViewerConfig()
	return &ViewerConfig{
		OutputDir:      ptrString(empty.GetOutputDir()),
		FilePrefix:     ptrString(empty.GetFilePrefix()),
		SessionName:    ptrString(empty.GetSessionName()),
		RetentionHours: ptrInt(empty.GetRetentionHours()),
		PickEpsilon:    ptrFloat64(empty.GetPickEpsilon()),
		Engine:         ptrString(empty.GetEngine()),
		HTMLPath:       ptrString(empty.GetHTMLPath()),
		PNGDir:         ptrString(empty.GetPNGDir()),
		PNGWidth:       ptrInt(empty.GetPNGWidth()),
		PNGHeight:      ptrInt(empty.GetPNGHeight()),
		GRPCAddr:       ptrString(empty.GetGRPCAddr()),
		CatalogPath:    ptrString(empty.GetCatalogPath()),
		MetricsAddr:    ptrString(empty.GetMetricsAddr()),
	}
}

// LoadViewerConfig loads a ViewerConfig from a .json, .yaml or .yml file.
// The file must be under 1MB.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ViewerConfig) Validate() error {
	if c.OutputDir != nil && strings.TrimSpace(*c.OutputDir) == "" {
		return fmt.Errorf("output_dir must not be empty")
	}

	if c.SessionName != nil && strings.ContainsAny(*c.SessionName, `/\`) {
		return fmt.Errorf("session_name must not contain path separators, got %q", *c.SessionName)
	}

	if c.RetentionHours != nil && *c.RetentionHours < 0 {
		return fmt.Errorf("retention_hours must be non-negative, got %d", *c.RetentionHours)
	}

	if c.PickEpsilon != nil && (*c.PickEpsilon <= 0 || *c.PickEpsilon > 1) {
		return fmt.Errorf("pick_epsilon must be in (0, 1], got %g", *c.PickEpsilon)
	}

	if c.Engine != nil {
		switch *c.Engine {
		case EngineHTML, EnginePNG, EngineGRPC:
		default:
			return fmt.Errorf("unknown engine %q (want %s, %s or %s)", *c.Engine, EngineHTML, EnginePNG, EngineGRPC)
		}
	}

	if c.PNGWidth != nil && *c.PNGWidth <= 0 {
		return fmt.Errorf("png_width must be positive, got %d", *c.PNGWidth)
	}
	if c.PNGHeight != nil && *c.PNGHeight <= 0 {
		return fmt.Errorf("png_height must be positive, got %d", *c.PNGHeight)
	}

	return nil
}

// GetOutputDir returns the directory saved cloud files are written to.
func (c *ViewerConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "VisualizerData"
	}
	return *c.OutputDir
}

// GetFilePrefix returns the prefix of every saved cloud file name.
func (c *ViewerConfig) GetFilePrefix() string {
	if c.FilePrefix == nil {
		return "visualizer."
	}
	return *c.FilePrefix
}

// GetSessionName returns the session name embedded in file names.
func (c *ViewerConfig) GetSessionName() string {
	if c.SessionName == nil || *c.SessionName == "" {
		return "pcv"
	}
	return *c.SessionName
}

// GetRetentionHours returns how many hours of saved files cleanup keeps.
func (c *ViewerConfig) GetRetentionHours() int {
	if c.RetentionHours == nil {
		return 1
	}
	return *c.RetentionHours
}

// GetPickEpsilon returns the squared-distance threshold of an exact pick.
func (c *ViewerConfig) GetPickEpsilon() float64 {
	if c.PickEpsilon == nil {
		return 1e-10
	}
	return *c.PickEpsilon
}

// GetEngine returns the rendering engine name.
func (c *ViewerConfig) GetEngine() string {
	if c.Engine == nil || *c.Engine == "" {
		return EngineHTML
	}
	return *c.Engine
}

// GetHTMLPath returns the page written by the html engine.
func (c *ViewerConfig) GetHTMLPath() string {
	if c.HTMLPath == nil || *c.HTMLPath == "" {
		return filepath.Join(c.GetOutputDir(), "viewer.html")
	}
	return *c.HTMLPath
}

// GetPNGDir returns the directory the png engine writes into.
func (c *ViewerConfig) GetPNGDir() string {
	if c.PNGDir == nil || *c.PNGDir == "" {
		return c.GetOutputDir()
	}
	return *c.PNGDir
}

// GetPNGWidth returns the png width in pixels.
func (c *ViewerConfig) GetPNGWidth() int {
	if c.PNGWidth == nil {
		return 800
	}
	return *c.PNGWidth
}

// GetPNGHeight returns the png height in pixels.
func (c *ViewerConfig) GetPNGHeight() int {
	if c.PNGHeight == nil {
		return 800
	}
	return *c.PNGHeight
}

// GetGRPCAddr returns the listen address of the grpc engine.
func (c *ViewerConfig) GetGRPCAddr() string {
	if c.GRPCAddr == nil || *c.GRPCAddr == "" {
		return "localhost:50061"
	}
	return *c.GRPCAddr
}

// GetCatalogPath returns the sqlite catalog path; empty disables the catalog.
func (c *ViewerConfig) GetCatalogPath() string {
	if c.CatalogPath == nil {
		return ""
	}
	return *c.CatalogPath
}

// GetMetricsAddr returns the prometheus listen address; empty disables it.
func (c *ViewerConfig) GetMetricsAddr() string {
	if c.MetricsAddr == nil {
		return ""
	}
	return *c.MetricsAddr
}
