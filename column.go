package censusdf

import "fmt"

// Col is a named Vector.
type Col struct {
	name string

	*Vector
}

// NewCol creates a column from data, which may be a *Vector or a slice matching dt.
func NewCol(name string, data any, dt DataTypes) (*Col, error) {
	if e := validName(name); e != nil {
		return nil, e
	}

	if v, ok := data.(*Vector); ok {
		return &Col{name: name, Vector: v}, nil
	}

	v, e := NewVector(data, dt)
	if e != nil {
		return nil, e
	}

	return &Col{name: name, Vector: v}, nil
}

// MustCol is NewCol that panics on error. Handy for literals.
func MustCol(name string, data any) *Col {
	var dt DataTypes
	switch data.(type) {
	case []float64:
		dt = DTfloat
	case []int:
		dt = DTint
	case []string:
		dt = DTstring
	}

	c, e := NewCol(name, data, dt)
	if e != nil {
		panic(e)
	}

	return c
}

func (c *Col) Name() string {
	return c.name
}

// Rename changes the name of c. Don't rename a column that belongs to a DF -- use DF.Rename.
func (c *Col) Rename(newName string) error {
	if e := validName(newName); e != nil {
		return e
	}

	c.name = newName

	return nil
}

func (c *Col) Copy() *Col {
	return &Col{name: c.name, Vector: c.Vector.Copy()}
}

func (c *Col) String() string {
	return fmt.Sprintf("%s (%s, %d rows)", c.name, c.VectorType(), c.Len())
}
