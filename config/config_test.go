package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/config"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
)

var _ = Describe("CoreConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	Describe("Default", func() {
		It("should be valid", func() {
			Expect(config.Default().Validate()).To(Succeed())
		})

		It("should enable software traps and the standard CSR map", func() {
			c := config.Default()
			Expect(c.SoftwareTraps).To(BeTrue())
			Expect(c.WallClockDivider).To(Equal(uint64(15)))
			Expect(c.CSR).To(Equal(emu.DefaultCSRMap()))
			Expect(c.ICache).To(BeNil())
		})
	})

	Describe("Load", func() {
		It("should read YAML with hex values and keep unspecified defaults", func() {
			path := write("core.yaml", `
hart: 1
reset_vector: 0x80000000
dcache:
  size: 1024
  associativity: 2
  block_size: 32
`)
			c, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Hart).To(Equal(1))
			Expect(c.ResetVector).To(Equal(uint32(0x80000000)))
			Expect(c.WallClockDivider).To(Equal(uint64(15)))
			Expect(c.CSR.MEPC).To(Equal(uint16(emu.CSRMEPC)))
			Expect(c.DCache).NotTo(BeNil())
			Expect(c.DCache.BlockSize).To(Equal(32))
		})

		It("should read JSON", func() {
			path := write("core.json", `{"wall_clock_divider": 4, "software_traps": false}`)
			c, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.WallClockDivider).To(Equal(uint64(4)))
			Expect(c.SoftwareTraps).To(BeFalse())
		})

		It("should reject invalid values", func() {
			path := write("core.json", `{"wall_clock_divider": 0}`)
			_, err := config.Load(path)
			Expect(err).To(MatchError(core.ErrWallClockDivider))
		})

		It("should report parse errors", func() {
			path := write("core.yml", "hart: [")
			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})

		It("should report missing files", func() {
			_, err := config.Load(filepath.Join(dir, "missing.json"))
			Expect(err).To(MatchError(os.ErrNotExist))
		})
	})

	Describe("Save", func() {
		DescribeTable("round trips through both formats",
			func(name string) {
				original := config.Default()
				original.Hart = 1
				icache := cache.DefaultL1IConfig()
				original.ICache = &icache

				path := filepath.Join(dir, name)
				Expect(original.Save(path)).To(Succeed())

				loaded, err := config.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(loaded).To(Equal(original))
			},
			Entry("yaml", "core.yaml"),
			Entry("json", "core.json"),
		)
	})

	Describe("Validate", func() {
		It("should reject a negative hart", func() {
			c := config.Default()
			c.Hart = -2
			Expect(c.Validate()).To(MatchError(core.ErrInvalidHart))
		})

		It("should reject a broken CSR map", func() {
			c := config.Default()
			c.CSR.MTVEC = c.CSR.MEPC
			Expect(c.Validate()).To(MatchError(emu.ErrCSROffsetDuplicate))
		})

		It("should reject a broken cache", func() {
			c := config.Default()
			c.DCache = &cache.Config{Size: 1000, Associativity: 2, BlockSize: 64}
			Expect(c.Validate()).To(MatchError(cache.ErrGeometry))
		})
	})

	It("should deep copy on Clone", func() {
		c := config.Default()
		dcache := cache.DefaultL1DConfig()
		c.DCache = &dcache

		clone := c.Clone()
		clone.DCache.Size = 1
		clone.Hart = 1

		Expect(c.DCache.Size).To(Equal(32 * 1024))
		Expect(c.Hart).To(Equal(0))
	})

	It("should build a core from its options", func() {
		c := config.Default()
		c.Hart = 1
		c.ResetVector = 0x2000
		dcache := cache.DefaultL1DConfig()
		c.DCache = &dcache

		cpu, err := c.NewCore()
		Expect(err).NotTo(HaveOccurred())
		Expect(cpu.Hart()).To(Equal(1))
		Expect(cpu.DCache()).NotTo(BeNil())
		Expect(cpu.ICache()).To(BeNil())

		memory := emu.NewMemory()
		cpu.Tick(memory, 0)
		Expect(cpu.PC()).To(Equal(uint32(0x2000)))
	})
})
