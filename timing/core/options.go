package core

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
)

// Default core parameters.
const (
	DefaultResetVector      uint32 = 0x0FFE0000
	DefaultWallClockDivider uint64 = 15
)

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithHart sets the hart index. Hart 0 uses the first CSR bank, every other
// hart the second.
func WithHart(hart int) Option {
	return func(c *Core) {
		c.hart = hart
	}
}

// WithResetVector sets the address the core starts fetching at after
// reset.
func WithResetVector(addr uint32) Option {
	return func(c *Core) {
		c.resetVector = addr
	}
}

// WithCSRMap sets the CSR bank placement and register numbers.
func WithCSRMap(csrMap emu.CSRMap) Option {
	return func(c *Core) {
		c.csrMap = csrMap
	}
}

// WithWallClockDivider sets how many cycles make one wall-clock tick.
func WithWallClockDivider(divider uint64) Option {
	return func(c *Core) {
		c.wallClockDivider = divider
	}
}

// WithSoftwareTraps enables or disables the illegal-instruction trap.
// When disabled, illegal instructions are skipped and Tick reports false.
func WithSoftwareTraps(enabled bool) Option {
	return func(c *Core) {
		c.softwareTraps = enabled
	}
}

// WithICache attaches an instruction cache statistics model.
func WithICache(config cache.Config) Option {
	return func(c *Core) {
		c.icacheConfig = &config
	}
}

// WithDCache attaches a data cache statistics model. CDISCARD and CFLUSH
// act on it.
func WithDCache(config cache.Config) Option {
	return func(c *Core) {
		c.dcacheConfig = &config
	}
}

// WithDefaultCaches attaches both L1 models with their default shapes.
func WithDefaultCaches() Option {
	return func(c *Core) {
		WithICache(cache.DefaultL1IConfig())(c)
		WithDCache(cache.DefaultL1DConfig())(c)
	}
}

// WithLogger sets the logger used for instruction and trap tracing.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}
