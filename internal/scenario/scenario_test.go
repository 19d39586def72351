package scenario_test

import (
	"context"
	"errors"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/trussim/internal/construction"
	"github.com/san-kum/trussim/internal/scenario"
)

const bridgeYAML = `name: bridge
materials:
  - name: steel
    modulus: 1000
  - name: cable
    formula: "100*s + 1000*s^3"
nodes:
  - {x: 0, y: 0, free: false}
  - {x: 2, y: 0, free: false}
  - {x: 1, y: 1, free: true}
sticks:
  - {nodes: [0, 2], material: steel, area: 1}
  - {nodes: [2, 1], material: cable, area: 2}
forces:
  - {node: 2, x: 0, y: -1}
`

func modulus(v float64) *float64 { return &v }

var _ = Describe("Scenario", func() {
	var (
		path string
		s    *scenario.Scenario
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "bridge.yaml")
		Expect(writeFile(path, bridgeYAML)).To(Succeed())

		var err error
		s, err = scenario.LoadScenario(path)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("LoadScenario", func() {
		It("parses every section", func() {
			Expect(s.Name).To(Equal("bridge"))
			Expect(s.Materials).To(HaveLen(2))
			Expect(*s.Materials[0].Modulus).To(Equal(1000.0))
			Expect(s.Materials[1].Formula).To(Equal("100*s + 1000*s^3"))
			Expect(s.Nodes).To(HaveLen(3))
			Expect(s.Sticks[1].Nodes).To(Equal([2]int{2, 1}))
			Expect(s.Forces[0].Y).To(Equal(-1.0))
		})

		It("fails on a missing file", func() {
			_, err := scenario.LoadScenario(filepath.Join(GinkgoT().TempDir(), "nope.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Build", func() {
		It("creates entities in file order", func() {
			c, err := scenario.Build(s, construction.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.NodeCount()).To(Equal(3))
			Expect(c.StickCount()).To(Equal(2))
			Expect(c.ForceCount()).To(Equal(1))

			m, err := c.StickMaterial(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.MaterialName(m)).To(Equal("cable"))
		})

		It("produces a solvable construction", func() {
			c, err := scenario.Build(s, construction.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Simulate(true)).To(Succeed())
			Expect(c.Report().Converged).To(BeTrue())

			p, err := c.NodeCoord(2)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Y).To(BeNumerically("<", 1))
		})

		It("rejects an unknown stick material", func() {
			s.Sticks[0].Material = "titanium"
			_, err := scenario.Build(s, construction.DefaultConfig())
			Expect(err).To(MatchError(ContainSubstring("titanium")))
		})

		It("rejects a material with both modulus and formula", func() {
			s.Materials[0].Formula = "s"
			_, err := scenario.Build(s, construction.DefaultConfig())
			Expect(err).To(HaveOccurred())
		})

		It("wraps construction errors", func() {
			s.Sticks[0].Nodes = [2]int{0, 7}
			_, err := scenario.Build(s, construction.DefaultConfig())
			Expect(errors.Is(err, construction.ErrInvalidArgument)).To(BeTrue())
		})

		It("leaves sticks without a material name unassigned", func() {
			s.Sticks[0].Material = ""
			c, err := scenario.Build(s, construction.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(c.StickMaterial(0)).To(Equal(construction.NoMaterial))
		})
	})

	Describe("Dump", func() {
		It("reproduces the scenario through a build round trip", func() {
			c, err := scenario.Build(s, construction.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())

			dumped, err := scenario.Dump(c, "bridge")
			Expect(err).NotTo(HaveOccurred())
			Expect(dumped).To(Equal(s))
		})

		It("survives saving to disk", func() {
			out := filepath.Join(GinkgoT().TempDir(), "out.yaml")
			Expect(scenario.SaveScenario(out, s)).To(Succeed())

			again, err := scenario.LoadScenario(out)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(s))
		})
	})

	Describe("RunSweep", func() {
		It("solves once per load factor", func() {
			results, err := scenario.RunSweep(context.Background(), s,
				scenario.LoadSweep{MinFactor: 0.5, MaxFactor: 2, NumSteps: 4}, construction.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))
			Expect(results[0].Factor).To(Equal(0.5))
			Expect(results[3].Factor).To(BeNumerically("~", 2, 1e-12))
			for _, r := range results {
				Expect(r.Converged).To(BeTrue())
			}
			Expect(results[3].MaxForce).To(BeNumerically(">", results[0].MaxForce))
		})

		It("does not touch the input forces", func() {
			_, err := scenario.RunSweep(context.Background(), s,
				scenario.LoadSweep{MinFactor: 3, MaxFactor: 3, NumSteps: 1}, construction.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Forces[0].Y).To(Equal(-1.0))
		})

		It("stops on a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := scenario.RunSweep(ctx, s, scenario.LoadSweep{MinFactor: 1, MaxFactor: 2, NumSteps: 2}, construction.DefaultConfig())
			Expect(err).To(MatchError(context.Canceled))
		})

		It("rejects an empty sweep", func() {
			_, err := scenario.RunSweep(context.Background(), s, scenario.LoadSweep{}, construction.DefaultConfig())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("scaling", func() {
		It("scales stick areas on a copy", func() {
			scaled := scenario.ScaleAreas(s, 2)
			for i := range s.Sticks {
				Expect(scaled.Sticks[i].Area).To(Equal(2 * s.Sticks[i].Area))
				Expect(scaled.Sticks[i].Nodes).To(Equal(s.Sticks[i].Nodes))
			}
			Expect(s.Sticks[0].Area).NotTo(Equal(scaled.Sticks[0].Area))
		})

		It("scales force vectors on a copy", func() {
			scaled := scenario.ScaleLoads(s, -0.5)
			Expect(scaled.Forces[0].Y).To(Equal(0.5))
			Expect(s.Forces[0].Y).To(Equal(-1.0))
		})
	})

	It("keeps a linear modulus pointer per material", func() {
		other := &scenario.Scenario{Materials: []scenario.Material{{Name: "a", Modulus: modulus(3)}}}
		c, err := scenario.Build(other, construction.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(c.MaterialModulus(0)).To(Equal(3.0))
	})
})
