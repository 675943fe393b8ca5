package spritelist

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the file form of the list options.
//
//	initial_capacity = 256
//	lazy = true
//	use_spatial_index = true
//	spatial_cell_size = 64.0
//	rebuild_workers = 4
//	label = "Enemies"
type Config struct {
	InitialCapacity int     `toml:"initial_capacity"`
	Lazy            bool    `toml:"lazy"`
	UseSpatialIndex bool    `toml:"use_spatial_index"`
	SpatialCellSize float32 `toml:"spatial_cell_size"`
	RebuildWorkers  int     `toml:"rebuild_workers"`
	Label           string  `toml:"label"`
}

// DefaultConfig returns the configuration matching a list built without options.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: DefaultInitialCapacity,
		SpatialCellSize: DefaultSpatialCellSize,
		RebuildWorkers:  1,
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the decoded configuration
//   - error: an error if the file cannot be read, is malformed or has unknown keys
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("spritelist: loading %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("spritelist: loading %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeConfig parses a TOML document on top of DefaultConfig.
//
// Parameters:
//   - data: the document
//
// Returns:
//   - Config: the decoded configuration
//   - error: an error if the document is malformed or has unknown keys
func DecodeConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("spritelist: decoding config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, fmt.Errorf("spritelist: decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func checkUndecoded(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
}

func (c Config) validate() error {
	if c.InitialCapacity < 0 {
		return fmt.Errorf("spritelist: initial_capacity must not be negative, got %d", c.InitialCapacity)
	}
	if c.SpatialCellSize <= 0 {
		return fmt.Errorf("spritelist: spatial_cell_size must be positive, got %g", c.SpatialCellSize)
	}
	if c.RebuildWorkers < 1 {
		return fmt.Errorf("spritelist: rebuild_workers must be at least 1, got %d", c.RebuildWorkers)
	}
	return nil
}

// Options converts the configuration into builder options. Device and logger are not part of the
// file form and must be passed separately.
//
// Returns:
//   - []SpriteListBuilderOption: the options
func (c Config) Options() []SpriteListBuilderOption {
	opts := []SpriteListBuilderOption{
		WithInitialCapacity(c.InitialCapacity),
		WithLazy(c.Lazy),
		WithSpatialIndex(c.UseSpatialIndex),
		WithSpatialCellSize(c.SpatialCellSize),
		WithRebuildWorkers(c.RebuildWorkers),
	}
	if c.Label != "" {
		opts = append(opts, WithLabel(c.Label))
	}
	return opts
}
