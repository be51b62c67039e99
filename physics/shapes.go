package physics

// Shape is a collision primitive. Dynamic bodies are always spheres; static
// geometry is boxes (ground tiles, props) or vertical cylinders.
type Shape interface {
	isShape()
}

// Sphere is defined by its radius.
type Sphere struct {
	Radius float64
}

// Box is defined by its half extents along each axis.
type Box struct {
	HalfX, HalfY, HalfZ float64
}

// Cylinder is a vertical cylinder. Contact tests use the larger of the two
// radii; tapered cylinders collide as their bounding cylinder.
type Cylinder struct {
	RadiusTop    float64
	RadiusBottom float64
	Height       float64
	Segments     int
}

func (Sphere) isShape()   {}
func (Box) isShape()      {}
func (Cylinder) isShape() {}

func (c Cylinder) radius() float64 {
	if c.RadiusTop > c.RadiusBottom {
		return c.RadiusTop
	}
	return c.RadiusBottom
}
