package construction

import "github.com/san-kum/trussim/internal/material"

// CreateLinearMaterial adds a Hookean material. If a material with the same
// name exists it is replaced in place and its index is returned.
func (c *Construction) CreateLinearMaterial(name string, modulus float64) (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}
	m, err := material.NewLinear(name, modulus)
	if err != nil {
		return 0, invalidArg("%v", err)
	}
	return c.putMaterial(m), nil
}

// CreateNonlinearMaterial adds a formula-driven material, replacing any
// material of the same name in place.
func (c *Construction) CreateNonlinearMaterial(name, src string) (int, error) {
	if err := c.mutable(); err != nil {
		return 0, err
	}
	m, err := material.NewNonlinear(name, src)
	if err != nil {
		return 0, invalidArg("%v", err)
	}
	return c.putMaterial(m), nil
}

func (c *Construction) putMaterial(m material.Material) int {
	if i := c.FindMaterial(m.Name()); i != NoMaterial {
		c.materials[i] = m
		return i
	}
	c.materials = append(c.materials, m)
	return len(c.materials) - 1
}

// DeleteMaterial removes a material. Sticks made of it get NoMaterial and
// sticks made of later materials are renumbered.
func (c *Construction) DeleteMaterial(i int) error {
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.checkMaterial(i); err != nil {
		return err
	}
	for j := range c.sticks {
		switch m := c.sticks[j].material; {
		case m == i:
			c.sticks[j].material = NoMaterial
		case m > i:
			c.sticks[j].material--
		}
	}
	c.materials = append(c.materials[:i], c.materials[i+1:]...)
	return nil
}

func (c *Construction) MaterialCount() int { return len(c.materials) }

// FindMaterial returns the index of the material with the given name, or NoMaterial.
func (c *Construction) FindMaterial(name string) int {
	for i, m := range c.materials {
		if m.Name() == name {
			return i
		}
	}
	return NoMaterial
}

func (c *Construction) MaterialName(i int) (string, error) {
	if err := c.checkMaterial(i); err != nil {
		return "", err
	}
	return c.materials[i].Name(), nil
}

func (c *Construction) MaterialType(i int) (material.Type, error) {
	if err := c.checkMaterial(i); err != nil {
		return 0, err
	}
	return c.materials[i].Type(), nil
}

func (c *Construction) MaterialModulus(i int) (float64, error) {
	if err := c.checkMaterial(i); err != nil {
		return 0, err
	}
	modulus, ok := c.materials[i].Modulus()
	if !ok {
		return 0, invalidArg("material %d is not linear", i)
	}
	return modulus, nil
}

func (c *Construction) MaterialFormula(i int) (string, error) {
	if err := c.checkMaterial(i); err != nil {
		return "", err
	}
	src, ok := c.materials[i].Formula()
	if !ok {
		return "", invalidArg("material %d is not nonlinear", i)
	}
	return src, nil
}

// Material returns material i by value.
func (c *Construction) Material(i int) (material.Material, error) {
	if err := c.checkMaterial(i); err != nil {
		return material.Material{}, err
	}
	return c.materials[i], nil
}
