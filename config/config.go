// Package config loads and saves core configurations.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
)

// CoreConfig holds the construction parameters of one core.
type CoreConfig struct {
	// Hart is the hart index. It selects the CSR bank.
	Hart int `json:"hart" yaml:"hart"`

	// ResetVector is the first fetch address after reset.
	ResetVector uint32 `json:"reset_vector" yaml:"reset_vector"`

	// WallClockDivider is the number of cycles per wall-clock tick.
	// Default: 15.
	WallClockDivider uint64 `json:"wall_clock_divider" yaml:"wall_clock_divider"`

	// SoftwareTraps enables the illegal-instruction trap. Default: true.
	SoftwareTraps bool `json:"software_traps" yaml:"software_traps"`

	// CSR is the CSR bank placement and register numbering.
	CSR emu.CSRMap `json:"csr" yaml:"csr"`

	// ICache and DCache attach cache statistics models when set.
	ICache *cache.Config `json:"icache,omitempty" yaml:"icache,omitempty"`
	DCache *cache.Config `json:"dcache,omitempty" yaml:"dcache,omitempty"`
}

// Default returns the configuration of hart 0 with no cache models.
func Default() *CoreConfig {
	return &CoreConfig{
		Hart:             0,
		ResetVector:      core.DefaultResetVector,
		WallClockDivider: core.DefaultWallClockDivider,
		SoftwareTraps:    true,
		CSR:              emu.DefaultCSRMap(),
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads a CoreConfig from a YAML (.yaml, .yml) or JSON file. Fields
// missing from the file keep their default values.
func Load(path string) (*CoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read core config file: %w", err)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse core config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid core config %s: %w", path, err)
	}

	return config, nil
}

// Save writes the CoreConfig to path, as YAML or JSON by extension.
func (c *CoreConfig) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize core config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write core config file: %w", err)
	}

	return nil
}

// Validate checks the configuration without building a core.
func (c *CoreConfig) Validate() error {
	if c.Hart < 0 {
		return fmt.Errorf("hart %d: %w", c.Hart, core.ErrInvalidHart)
	}
	if c.WallClockDivider == 0 {
		return core.ErrWallClockDivider
	}
	if err := c.CSR.Validate(); err != nil {
		return fmt.Errorf("csr: %w", err)
	}
	if c.ICache != nil {
		if err := c.ICache.Validate(); err != nil {
			return fmt.Errorf("icache: %w", err)
		}
	}
	if c.DCache != nil {
		if err := c.DCache.Validate(); err != nil {
			return fmt.Errorf("dcache: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy of the CoreConfig.
func (c *CoreConfig) Clone() *CoreConfig {
	clone := *c
	if c.ICache != nil {
		icache := *c.ICache
		clone.ICache = &icache
	}
	if c.DCache != nil {
		dcache := *c.DCache
		clone.DCache = &dcache
	}
	return &clone
}

// Options converts the configuration to core options.
func (c *CoreConfig) Options() []core.Option {
	opts := []core.Option{
		core.WithHart(c.Hart),
		core.WithResetVector(c.ResetVector),
		core.WithWallClockDivider(c.WallClockDivider),
		core.WithSoftwareTraps(c.SoftwareTraps),
		core.WithCSRMap(c.CSR),
	}
	if c.ICache != nil {
		opts = append(opts, core.WithICache(*c.ICache))
	}
	if c.DCache != nil {
		opts = append(opts, core.WithDCache(*c.DCache))
	}
	return opts
}

// NewCore builds a core from the configuration plus any extra options,
// which are applied last.
func (c *CoreConfig) NewCore(extra ...core.Option) (*core.Core, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return core.NewCore(append(c.Options(), extra...)...)
}
