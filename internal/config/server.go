// Package config loads the JSON configuration file of the ciefunctions
// server. Every field is optional; the Get* methods supply the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/fsutil"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// maxFileSize bounds the configuration file.
const maxFileSize = 1 * 1024 * 1024

// Defaults for fields omitted from the file.
const (
	DefaultListen          = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// ServerConfig is the root of the configuration file.
type ServerConfig struct {
	Listen *string `json:"listen,omitempty"`

	// Reference data: a CSV directory or a SQLite database. The database
	// wins when both are set.
	DataDir   *string `json:"data_dir,omitempty"`
	RefDBPath *string `json:"refdb_path,omitempty"`

	// Debug mounts the tsweb debugger and tailsql under /debug/.
	Debug *bool `json:"debug,omitempty"`

	ReadTimeout     *string `json:"read_timeout,omitempty"` // duration string like "10s"
	WriteTimeout    *string `json:"write_timeout,omitempty"`
	ShutdownTimeout *string `json:"shutdown_timeout,omitempty"`

	// Transformation solver
	SolverSeed          *float64 `json:"solver_seed,omitempty"`
	SolverTolerance     *float64 `json:"solver_tolerance,omitempty"`
	SolverInitialLambda *float64 `json:"solver_initial_lambda,omitempty"`
	SolverWindow        *float64 `json:"solver_window,omitempty"`
	SolverMaxRetries    *int     `json:"solver_max_retries,omitempty"`

	// ObserverCacheSize bounds the number of derived observers kept in
	// memory.
	ObserverCacheSize *int `json:"observer_cache_size,omitempty"`
}

func ptrString(v string) *string { return &v }
func ptrBool(v bool) *bool       { return &v }

// LoadServerConfig reads a ServerConfig from a .json file of at most 1 MB.
func LoadServerConfig(fsys fsutil.FileSystem, path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	if !fsutil.HasExt(cleanPath, ".json") {
		return nil, fmt.Errorf("config file must have .json extension, got %q", filepath.Ext(cleanPath))
	}

	info, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ServerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *ServerConfig) Validate() error {
	for name, v := range map[string]*string{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}
	if c.SolverTolerance != nil && *c.SolverTolerance <= 0 {
		return fmt.Errorf("solver_tolerance must be positive, got %g", *c.SolverTolerance)
	}
	if c.SolverWindow != nil && *c.SolverWindow <= 0 {
		return fmt.Errorf("solver_window must be positive, got %g", *c.SolverWindow)
	}
	if c.SolverInitialLambda != nil && (*c.SolverInitialLambda < 390 || *c.SolverInitialLambda > 830) {
		return fmt.Errorf("solver_initial_lambda must be between 390 and 830, got %g", *c.SolverInitialLambda)
	}
	if c.SolverMaxRetries != nil && *c.SolverMaxRetries < 1 {
		return fmt.Errorf("solver_max_retries must be at least 1, got %d", *c.SolverMaxRetries)
	}
	if c.ObserverCacheSize != nil && *c.ObserverCacheSize < 1 {
		return fmt.Errorf("observer_cache_size must be at least 1, got %d", *c.ObserverCacheSize)
	}
	return nil
}

// ApplyFlags overrides file values with non-empty command line values.
func (c *ServerConfig) ApplyFlags(listen, dataDir, refDB string, debug bool) {
	if listen != "" {
		c.Listen = ptrString(listen)
	}
	if dataDir != "" {
		c.DataDir = ptrString(dataDir)
	}
	if refDB != "" {
		c.RefDBPath = ptrString(refDB)
	}
	if debug {
		c.Debug = ptrBool(true)
	}
}

// GetListen returns the listen address or ":8080".
func (c *ServerConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// GetDataDir returns the CSV reference directory, possibly empty.
func (c *ServerConfig) GetDataDir() string {
	if c.DataDir == nil {
		return ""
	}
	return *c.DataDir
}

// GetRefDBPath returns the reference database path, possibly empty.
func (c *ServerConfig) GetRefDBPath() string {
	if c.RefDBPath == nil {
		return ""
	}
	return *c.RefDBPath
}

// GetDebug reports whether the debug routes are enabled.
func (c *ServerConfig) GetDebug() bool {
	return c.Debug != nil && *c.Debug
}

func duration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetReadTimeout returns the HTTP read timeout.
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return duration(c.ReadTimeout, DefaultReadTimeout)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return duration(c.WriteTimeout, DefaultWriteTimeout)
}

// GetShutdownTimeout returns the graceful shutdown grace period.
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return duration(c.ShutdownTimeout, DefaultShutdownTimeout)
}

// GetSolverConfig returns the transformation solver settings. Unset
// fields keep the solver defaults.
func (c *ServerConfig) GetSolverConfig() colorimetry.SolverConfig {
	s := colorimetry.DefaultSolverConfig()
	if c.SolverSeed != nil {
		s.Seed = *c.SolverSeed
	}
	if c.SolverTolerance != nil {
		s.Tolerance = *c.SolverTolerance
	}
	if c.SolverInitialLambda != nil {
		s.InitialLambda = *c.SolverInitialLambda
	}
	if c.SolverWindow != nil {
		s.Window = *c.SolverWindow
	}
	if c.SolverMaxRetries != nil {
		s.MaxRetries = *c.SolverMaxRetries
	}
	return s
}

// GetObserverCacheSize returns the observer cache bound.
func (c *ServerConfig) GetObserverCacheSize() int {
	if c.ObserverCacheSize == nil {
		return refdata.DefaultObserverCacheSize
	}
	return *c.ObserverCacheSize
}
