// Package cache provides tag-only L1 cache statistics models using Akita
// cache components.
//
// The models never hold data and never touch the bus. They observe the
// addresses the core fetches, loads and stores and count what a real L1
// would have done with them.
package cache

import (
	"errors"
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// ErrGeometry is returned for cache shapes the directory cannot hold.
var ErrGeometry = errors.New("invalid cache geometry")

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size" yaml:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity" yaml:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size" yaml:"block_size"`
	// HitLatency in cycles
	HitLatency uint64 `json:"hit_latency" yaml:"hit_latency"`
	// MissLatency in cycles, including the line fill
	MissLatency uint64 `json:"miss_latency" yaml:"miss_latency"`
}

// DefaultL1IConfig returns the default instruction cache shape:
// 16KB, 4-way, 64B lines.
func DefaultL1IConfig() Config {
	return Config{
		Size:          16 * 1024,
		Associativity: 4,
		BlockSize:     64,
		HitLatency:    1,
		MissLatency:   16,
	}
}

// DefaultL1DConfig returns the default data cache shape:
// 32KB, 4-way, 64B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:          32 * 1024,
		Associativity: 4,
		BlockSize:     64,
		HitLatency:    1,
		MissLatency:   16,
	}
}

// Validate checks that the geometry describes a whole number of
// power-of-two sets.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("size %d, ways %d, block %d: %w",
			c.Size, c.Associativity, c.BlockSize, ErrGeometry)
	}
	if !isPowerOfTwo(c.BlockSize) {
		return fmt.Errorf("block size %d is not a power of two: %w", c.BlockSize, ErrGeometry)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of ways*block: %w", c.Size, ErrGeometry)
	}
	if !isPowerOfTwo(c.Size / (c.Associativity * c.BlockSize)) {
		return fmt.Errorf("set count is not a power of two: %w", ErrGeometry)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access would take.
	Latency uint64
	// Evicted is true if a valid line was replaced.
	Evicted bool
	// EvictedAddr is the line address of the replaced line.
	EvictedAddr uint32
	// Writeback is true if the replaced line was dirty.
	Writeback bool
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64 `json:"reads"`
	Writes     uint64 `json:"writes"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
	Writebacks uint64 `json:"writebacks"`
	// Discards counts invalidate-all operations; DiscardedDirty the dirty
	// lines they dropped without writeback.
	Discards       uint64 `json:"discards"`
	DiscardedDirty uint64 `json:"discarded_dirty"`
	Flushes        uint64 `json:"flushes"`
	// Cycles accumulates the modeled latency of every access.
	Cycles uint64 `json:"cycles"`
}

// HitRate returns hits over accesses, or zero before the first access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a tag-only set-associative cache model.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// New creates a new cache with the given configuration. It returns an
// error when the geometry is invalid.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) lineAddr(addr uint32) uint64 {
	size := uint64(c.config.BlockSize)
	return (uint64(addr) / size) * size
}

// Read records a load or fetch of addr.
func (c *Cache) Read(addr uint32) AccessResult {
	c.stats.Reads++
	return c.access(addr, false)
}

// Write records a store to addr. Stores write-allocate and leave the line
// dirty.
func (c *Cache) Write(addr uint32) AccessResult {
	c.stats.Writes++
	return c.access(addr, true)
}

func (c *Cache) access(addr uint32, isWrite bool) AccessResult {
	lineAddr := c.lineAddr(addr)

	block := c.directory.Lookup(0, lineAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.stats.Cycles += c.config.HitLatency
		c.directory.Visit(block)
		if isWrite {
			block.IsDirty = true
		}
		return AccessResult{Hit: true, Latency: c.config.HitLatency}
	}

	c.stats.Misses++
	c.stats.Cycles += c.config.MissLatency
	result := AccessResult{Latency: c.config.MissLatency}

	victim := c.directory.FindVictim(lineAddr)
	if victim == nil {
		return result
	}

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint32(victim.Tag)
		if victim.IsDirty {
			c.stats.Writebacks++
			result.Writeback = true
		}
	}

	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.directory.Visit(victim)

	return result
}

// Contains reports whether the line holding addr is resident.
func (c *Cache) Contains(addr uint32) bool {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	return block != nil && block.IsValid
}

// Invalidate marks a cache line as invalid without writeback.
func (c *Cache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Discard invalidates every line, dropping dirty ones without writeback.
func (c *Cache) Discard() {
	c.stats.Discards++
	c.forEachBlock(func(block *akitacache.Block) {
		if block.IsValid && block.IsDirty {
			c.stats.DiscardedDirty++
		}
		block.IsValid = false
		block.IsDirty = false
	})
}

// Flush counts a writeback for every dirty line and invalidates all lines.
func (c *Cache) Flush() {
	c.stats.Flushes++
	c.forEachBlock(func(block *akitacache.Block) {
		if block.IsValid && block.IsDirty {
			c.stats.Writebacks++
		}
		block.IsValid = false
		block.IsDirty = false
	})
}

func (c *Cache) forEachBlock(fn func(block *akitacache.Block)) {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			fn(block)
		}
	}
}

// Reset invalidates all cache lines without writeback and clears
// statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
