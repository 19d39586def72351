// Package construction models a pin-jointed plane truss and solves for its
// deformed equilibrium.
//
// A [Construction] owns four dense, index-addressed collections:
//
//   - nodes: free (solved for) or fixed (anchored) points
//   - sticks: axial members between two nodes, with a material and an area
//   - forces: external point loads on nodes
//   - materials: linear or formula-driven stress–strain laws
//
// Indices are positions in those collections and shift when an earlier
// element of the same kind is deleted.
//
// # Example
//
//	c := construction.New(construction.DefaultConfig())
//	a, _ := c.CreateNode(geom.Coord{X: 0, Y: 0}, false)
//	b, _ := c.CreateNode(geom.Coord{X: 1, Y: 0}, true)
//	steel, _ := c.CreateLinearMaterial("steel", 200e9)
//	c.CreateStick([2]int{a, b}, steel, 1e-4)
//	c.CreateForce(b, geom.Coord{X: 1000})
//	if err := c.Simulate(true); err != nil { ... }
//	strain, _ := c.StickStrain(0)
//
// # Thread Safety
//
// A Construction is NOT thread-safe and is meant for a single owner. Solving
// several constructions at once is fine as long as each goroutine owns its own.
package construction
