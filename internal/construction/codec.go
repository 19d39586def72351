package construction

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/san-kum/trussim/internal/geom"
	"github.com/san-kum/trussim/internal/material"
)

// Signature opens every construction file.
var Signature = [8]byte{'P', '6', 'C', 'N', 'S', 'T', '0', 0}

const noMaterialOnDisk = math.MaxUint32

// maxString bounds name and formula lengths read from a file.
const maxString = 1 << 20

type fileHeader struct {
	Signature [8]byte
	Nodes     uint32
	Sticks    uint32
	Forces    uint32
	Materials uint32
}

type fileNode struct {
	Free bool
	_    [7]byte
	X, Y float64
}

type fileStick struct {
	N0, N1   uint32
	Material uint32
	_        [4]byte
	Area     float64
}

type fileForce struct {
	Node   uint32
	_      [4]byte
	DX, DY float64
}

// snapshot is a decoded file before it is merged into a construction.
type snapshot struct {
	nodes     []node
	sticks    []stick
	forces    []force
	materials []material.Material
}

// Save writes the construction to path.
func (c *Construction) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Load replaces the construction with the contents of path.
func (c *Construction) Load(path string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()
	_, err = c.ReadFrom(f)
	return err
}

// Import appends the contents of path to the construction.
func (c *Construction) Import(path string) error {
	if err := c.mutable(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()
	return c.ImportFrom(f)
}

// WriteTo encodes the rest geometry. Simulated coordinates are not written.
func (c *Construction) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}
	enc := func(v any) {
		if cw.err == nil {
			cw.err = binary.Write(cw, binary.LittleEndian, v)
		}
	}

	enc(fileHeader{
		Signature: Signature,
		Nodes:     uint32(len(c.nodes)),
		Sticks:    uint32(len(c.sticks)),
		Forces:    uint32(len(c.forces)),
		Materials: uint32(len(c.materials)),
	})
	for _, n := range c.nodes {
		enc(fileNode{Free: n.free, X: n.coord.X, Y: n.coord.Y})
	}
	for _, s := range c.sticks {
		m := uint32(noMaterialOnDisk)
		if s.material != NoMaterial {
			m = uint32(s.material)
		}
		enc(fileStick{N0: uint32(s.nodes[0]), N1: uint32(s.nodes[1]), Material: m, Area: s.area})
	}
	for _, f := range c.forces {
		enc(fileForce{Node: uint32(f.node), DX: f.direction.X, DY: f.direction.Y})
	}
	for _, m := range c.materials {
		enc(uint32(len(m.Name())))
		enc([]byte(m.Name()))
		enc(uint32(m.Type()))
		if modulus, ok := m.Modulus(); ok {
			enc(modulus)
		} else {
			src, _ := m.Formula()
			enc(uint32(len(src)))
			enc([]byte(src))
		}
	}

	if cw.err == nil {
		cw.err = bw.Flush()
	}
	if cw.err != nil {
		return cw.n, fmt.Errorf("%w: %v", ErrIO, cw.err)
	}
	return cw.n, nil
}

// ReadFrom replaces the construction with the decoded stream. On error the
// construction is left unchanged.
func (c *Construction) ReadFrom(r io.Reader) (int64, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}
	cr := &countingReader{r: bufio.NewReader(r)}
	snap, err := decode(cr)
	if err != nil {
		return cr.n, err
	}
	c.nodes = snap.nodes
	c.sticks = snap.sticks
	c.forces = snap.forces
	c.materials = snap.materials
	c.report = Report{}
	return cr.n, nil
}

// ImportFrom merges the decoded stream into the construction. Node indices of
// imported sticks and forces are shifted past the existing nodes; materials
// whose name already exists are not imported and the existing one is used.
func (c *Construction) ImportFrom(r io.Reader) error {
	if err := c.mutable(); err != nil {
		return err
	}
	snap, err := decode(bufio.NewReader(r))
	if err != nil {
		return err
	}

	remap := make([]int, len(snap.materials))
	materials := append([]material.Material(nil), c.materials...)
	for i, m := range snap.materials {
		if j := c.FindMaterial(m.Name()); j != NoMaterial {
			remap[i] = j
			continue
		}
		remap[i] = len(materials)
		materials = append(materials, m)
	}

	offset := len(c.nodes)
	for _, s := range snap.sticks {
		s.nodes[0] += offset
		s.nodes[1] += offset
		if s.material != NoMaterial {
			s.material = remap[s.material]
		}
		c.sticks = append(c.sticks, s)
	}
	for _, f := range snap.forces {
		f.node += offset
		c.forces = append(c.forces, f)
	}
	c.nodes = append(c.nodes, snap.nodes...)
	c.materials = materials
	return nil
}

func badFormat(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrBadFormat}, args...)...)
}

// readErr maps a short read to ErrBadFormat.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return badFormat("truncated %s", what)
	}
	return fmt.Errorf("%w: reading %s: %v", ErrIO, what, err)
}

func decode(r io.Reader) (*snapshot, error) {
	var h fileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, readErr("header", err)
	}
	if h.Signature != Signature {
		return nil, badFormat("bad signature %q", h.Signature[:])
	}

	snap := &snapshot{}
	for i := uint32(0); i < h.Nodes; i++ {
		var fn fileNode
		if err := binary.Read(r, binary.LittleEndian, &fn); err != nil {
			return nil, readErr("node", err)
		}
		coord := geom.Coord{X: fn.X, Y: fn.Y}
		if !coord.IsValid() {
			return nil, badFormat("node %d coordinate is not finite", i)
		}
		snap.nodes = append(snap.nodes, node{free: fn.Free, coord: coord, simulated: coord})
	}

	for i := uint32(0); i < h.Sticks; i++ {
		var fs fileStick
		if err := binary.Read(r, binary.LittleEndian, &fs); err != nil {
			return nil, readErr("stick", err)
		}
		if fs.N0 >= h.Nodes || fs.N1 >= h.Nodes || fs.N0 == fs.N1 {
			return nil, badFormat("stick %d has invalid nodes %d, %d", i, fs.N0, fs.N1)
		}
		if !validArea(fs.Area) {
			return nil, badFormat("stick %d has invalid area %v", i, fs.Area)
		}
		m := NoMaterial
		if fs.Material != noMaterialOnDisk {
			if fs.Material >= h.Materials {
				return nil, badFormat("stick %d references missing material %d", i, fs.Material)
			}
			m = int(fs.Material)
		}
		snap.sticks = append(snap.sticks, stick{nodes: [2]int{int(fs.N0), int(fs.N1)}, material: m, area: fs.Area})
	}

	for i := uint32(0); i < h.Forces; i++ {
		var ff fileForce
		if err := binary.Read(r, binary.LittleEndian, &ff); err != nil {
			return nil, readErr("force", err)
		}
		dir := geom.Coord{X: ff.DX, Y: ff.DY}
		if !dir.IsValid() {
			return nil, badFormat("force %d direction is not finite", i)
		}
		// A force may outlive its node; Simulate rejects it.
		snap.forces = append(snap.forces, force{node: int(ff.Node), direction: dir})
	}

	for i := uint32(0); i < h.Materials; i++ {
		m, err := decodeMaterial(r)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		snap.materials = append(snap.materials, m)
	}
	return snap, nil
}

func decodeMaterial(r io.Reader) (material.Material, error) {
	name, err := readString(r, "material name")
	if err != nil {
		return material.Material{}, err
	}
	var kind uint32
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return material.Material{}, readErr("material type", err)
	}

	switch material.Type(kind) {
	case material.Linear:
		var modulus float64
		if err := binary.Read(r, binary.LittleEndian, &modulus); err != nil {
			return material.Material{}, readErr("modulus", err)
		}
		m, err := material.NewLinear(name, modulus)
		if err != nil {
			return material.Material{}, badFormat("%v", err)
		}
		return m, nil
	case material.Nonlinear:
		src, err := readString(r, "formula")
		if err != nil {
			return material.Material{}, err
		}
		m, err := material.NewNonlinear(name, src)
		if err != nil {
			return material.Material{}, badFormat("%v", err)
		}
		return m, nil
	}
	return material.Material{}, badFormat("unknown material type %d", kind)
}

func readString(r io.Reader, what string) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", readErr(what, err)
	}
	if n > maxString {
		return "", badFormat("%s length %d too large", what, n)
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		return "", readErr(what, err)
	}
	return buf.String(), nil
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}
