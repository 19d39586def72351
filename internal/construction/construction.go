package construction

import (
	"log/slog"
	"math"

	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/material"
)

// NoMaterial marks a stick whose material was deleted. Such a stick has to be
// given a material before the next simulation.
const NoMaterial = -1

type node struct {
	free      bool
	coord     geom.Coord
	simulated geom.Coord
}

type stick struct {
	nodes    [2]int
	material int
	area     float64
}

type force struct {
	node      int
	direction geom.Coord
}

// Construction is the aggregate root of the truss model.
type Construction struct {
	nodes      []node
	sticks     []stick
	forces     []force
	materials  []material.Material
	simulation bool
	cfg        Config
	report     Report
}

// New returns an empty construction. cfg is validated when simulating.
func New(cfg Config) *Construction {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Construction{cfg: cfg}
}

func (c *Construction) Config() Config { return c.cfg }

// Simulation reports whether geometry getters return solved values.
func (c *Construction) Simulation() bool { return c.simulation }

func (c *Construction) mutable() error {
	if c.simulation {
		return ErrInvalidState
	}
	return nil
}

func (c *Construction) checkNode(i int) error {
	if i < 0 || i >= len(c.nodes) {
		return invalidArg("node %d out of range [0, %d)", i, len(c.nodes))
	}
	return nil
}

func (c *Construction) checkStick(i int) error {
	if i < 0 || i >= len(c.sticks) {
		return invalidArg("stick %d out of range [0, %d)", i, len(c.sticks))
	}
	return nil
}

func (c *Construction) checkForce(i int) error {
	if i < 0 || i >= len(c.forces) {
		return invalidArg("force %d out of range [0, %d)", i, len(c.forces))
	}
	return nil
}

func (c *Construction) checkMaterial(i int) error {
	if i < 0 || i >= len(c.materials) {
		return invalidArg("material %d out of range [0, %d)", i, len(c.materials))
	}
	return nil
}

func validArea(area float64) bool {
	return !math.IsNaN(area) && !math.IsInf(area, 0) && area >= 0
}

// Nodes

func (c *Construction) CreateNode(coord geom.Coord, free bool) (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}
	if !coord.IsValid() {
		return 0, invalidArg("node coordinate %v is not finite", coord)
	}
	c.nodes = append(c.nodes, node{free: free, coord: coord, simulated: coord})
	return len(c.nodes) - 1, nil
}

// DeleteNode removes the node and every stick attached to it. Sticks and,
// with CascadeForces, forces referencing higher nodes are renumbered.
func (c *Construction) DeleteNode(i int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkNode(i); err != nil {
		return err
	}

	kept := c.sticks[:0]
	for _, s := range c.sticks {
		if s.nodes[0] == i || s.nodes[1] == i {
			continue
		}
		for j := range s.nodes {
			if s.nodes[j] > i {
				s.nodes[j]--
			}
		}
		kept = append(kept, s)
	}
	c.sticks = kept

	if c.cfg.CascadeForces {
		keptForces := c.forces[:0]
		for _, f := range c.forces {
			if f.node == i {
				continue
			}
			if f.node > i {
				f.node--
			}
			keptForces = append(keptForces, f)
		}
		c.forces = keptForces
	}

	c.nodes = append(c.nodes[:i], c.nodes[i+1:]...)
	return nil
}

func (c *Construction) SetNodeCoord(i int, coord geom.Coord) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkNode(i); err != nil {
		return err
	}
	if !coord.IsValid() {
		return invalidArg("node coordinate %v is not finite", coord)
	}
	c.nodes[i].coord = coord
	c.nodes[i].simulated = coord
	return nil
}

func (c *Construction) SetNodeFree(i int, free bool) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkNode(i); err != nil {
		return err
	}
	c.nodes[i].free = free
	return nil
}

func (c *Construction) NodeCount() int { return len(c.nodes) }

// NodeCoord returns the solved position while simulating, the rest position otherwise.
func (c *Construction) NodeCoord(i int) (geom.Coord, error) {
	if err := c.checkNode(i); err != nil {
		return geom.Coord{}, err
	}
	if c.simulation {
		return c.nodes[i].simulated, nil
	}
	return c.nodes[i].coord, nil
}

// NodeRestCoord returns the undeformed position regardless of simulation state.
func (c *Construction) NodeRestCoord(i int) (geom.Coord, error) {
	if err := c.checkNode(i); err != nil {
		return geom.Coord{}, err
	}
	return c.nodes[i].coord, nil
}

func (c *Construction) NodeFree(i int) (bool, error) {
	if err := c.checkNode(i); err != nil {
		return false, err
	}
	return c.nodes[i].free, nil
}

// Sticks

// CreateStick connects two distinct nodes. A stick with exactly the same
// ordered node pair is rejected; the reversed pair is accepted.
func (c *Construction) CreateStick(nodes [2]int, mat int, area float64) (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}
	for _, n := range nodes {
		if err := c.checkNode(n); err != nil {
			return 0, err
		}
	}
	if nodes[0] == nodes[1] {
		return 0, invalidArg("stick needs two distinct nodes, got %d twice", nodes[0])
	}
	if !validArea(area) {
		return 0, invalidArg("stick area %v must be finite and non-negative", area)
	}
	if mat != NoMaterial {
		if err := c.checkMaterial(mat); err != nil {
			return 0, err
		}
	}
	for i, s := range c.sticks {
		if s.nodes == nodes {
			return 0, invalidArg("stick %d already connects nodes %d and %d", i, nodes[0], nodes[1])
		}
	}

	c.sticks = append(c.sticks, stick{nodes: nodes, material: mat, area: area})
	return len(c.sticks) - 1, nil
}

func (c *Construction) DeleteStick(i int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkStick(i); err != nil {
		return err
	}
	c.sticks = append(c.sticks[:i], c.sticks[i+1:]...)
	return nil
}

// SetStickMaterial assigns a material, or NoMaterial.
func (c *Construction) SetStickMaterial(i int, mat int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkStick(i); err != nil {
		return err
	}
	if mat != NoMaterial {
		if err := c.checkMaterial(mat); err != nil {
			return err
		}
	}
	c.sticks[i].material = mat
	return nil
}

func (c *Construction) SetStickArea(i int, area float64) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkStick(i); err != nil {
		return err
	}
	if !validArea(area) {
		return invalidArg("stick area %v must be finite and non-negative", area)
	}
	c.sticks[i].area = area
	return nil
}

func (c *Construction) StickCount() int { return len(c.sticks) }

func (c *Construction) StickMaterial(i int) (int, error) {
	if err := c.checkStick(i); err != nil {
		return 0, err
	}
	return c.sticks[i].material, nil
}

func (c *Construction) StickArea(i int) (float64, error) {
	if err := c.checkStick(i); err != nil {
		return 0, err
	}
	return c.sticks[i].area, nil
}

func (c *Construction) StickNodes(i int) ([2]int, error) {
	if err := c.checkStick(i); err != nil {
		return [2]int{}, err
	}
	return c.sticks[i].nodes, nil
}

func (c *Construction) restLength(i int) float64 {
	s := c.sticks[i]
	return c.nodes[s.nodes[0]].coord.Distance(c.nodes[s.nodes[1]].coord)
}

// StickLength returns the deformed length while simulating, the rest length otherwise.
func (c *Construction) StickLength(i int) (float64, error) {
	if err := c.checkStick(i); err != nil {
		return 0, err
	}
	if !c.simulation {
		return c.restLength(i), nil
	}
	s := c.sticks[i]
	return c.nodes[s.nodes[0]].simulated.Distance(c.nodes[s.nodes[1]].simulated), nil
}

// StickStrain returns length/restLength - 1 of the solved geometry.
func (c *Construction) StickStrain(i int) (float64, error) {
	if !c.simulation {
		return 0, ErrNotSimulated
	}
	length, err := c.StickLength(i)
	if err != nil {
		return 0, err
	}
	return length/c.restLength(i) - 1, nil
}

// StickForce returns the axial force of the solved geometry; positive is tension.
func (c *Construction) StickForce(i int) (float64, error) {
	strain, err := c.StickStrain(i)
	if err != nil {
		return 0, err
	}
	s := c.sticks[i]
	if s.material == NoMaterial {
		return 0, invalidArg("stick %d has no material", i)
	}
	return s.area * c.materials[s.material].Stress(strain), nil
}

// Forces

func (c *Construction) CreateForce(n int, direction geom.Coord) (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}
	if err := c.checkNode(n); err != nil {
		return 0, err
	}
	if !direction.IsValid() {
		return 0, invalidArg("force direction %v is not finite", direction)
	}
	c.forces = append(c.forces, force{node: n, direction: direction})
	return len(c.forces) - 1, nil
}

func (c *Construction) DeleteForce(i int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkForce(i); err != nil {
		return err
	}
	c.forces = append(c.forces[:i], c.forces[i+1:]...)
	return nil
}

func (c *Construction) SetForceDirection(i int, direction geom.Coord) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkForce(i); err != nil {
		return err
	}
	if !direction.IsValid() {
		return invalidArg("force direction %v is not finite", direction)
	}
	c.forces[i].direction = direction
	return nil
}

func (c *Construction) ForceCount() int { return len(c.forces) }

func (c *Construction) ForceDirection(i int) (geom.Coord, error) {
	if err := c.checkForce(i); err != nil {
		return geom.Coord{}, err
	}
	return c.forces[i].direction, nil
}

// ForceNode returns the node a force acts on. After DeleteNode without
// CascadeForces the index may no longer name an existing node.
func (c *Construction) ForceNode(i int) (int, error) {
	if err := c.checkForce(i); err != nil {
		return 0, err
	}
	return c.forces[i].node, nil
}
