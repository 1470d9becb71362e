package lighting

import (
	gomath "math"

	"github.com/halcyon3d/halcyon/pkg/math"
)

// Directional is a sun-style light: parallel rays along Direction.
type Directional struct {
	Direction [3]float32
	Color     [3]float32
	Power     float32
}

// NewDirectional creates a white directional light of unit intensity.
func NewDirectional(direction [3]float32) *Directional {
	return &Directional{
		Direction: direction,
		Color:     [3]float32{1, 1, 1},
		Power:     1,
	}
}

// WorldMatrix places the light opposite its ray direction.
func (d *Directional) WorldMatrix() math.Mat4 {
	return math.Translate(-d.Direction[0], -d.Direction[1], -d.Direction[2])
}

// Diffuse returns the RGB color.
func (d *Directional) Diffuse() [3]float32 {
	return d.Color
}

// Intensity returns the brightness multiplier.
func (d *Directional) Intensity() float32 {
	return d.Power
}

// SunDirection converts longitude/latitude angles to a light direction vector.
// Longitude is rotation around Y axis (0-360), latitude is elevation from horizon (0-90).
// Returns a normalized direction vector pointing towards the sun.
func SunDirection(longitude, latitude int32) [3]float32 {
	// Convert degrees to radians
	lonRad := float64(longitude) * gomath.Pi / 180.0
	latRad := float64(latitude) * gomath.Pi / 180.0

	// Spherical to Cartesian conversion
	// Longitude is around Y axis, latitude is elevation from horizon
	x := float32(gomath.Cos(latRad) * gomath.Sin(lonRad))
	y := float32(gomath.Sin(latRad))
	z := float32(gomath.Cos(latRad) * gomath.Cos(lonRad))

	return [3]float32{x, y, z}
}

// SunDirectionF32 is like SunDirection but accepts float32 angles.
func SunDirectionF32(longitude, latitude float32) [3]float32 {
	return SunDirection(int32(longitude), int32(latitude))
}
