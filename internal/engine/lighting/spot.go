package lighting

import (
	gomath "math"

	"github.com/halcyon3d/halcyon/pkg/math"
)

// SpotLight is a cone of light from Position along Direction. Angle is the
// full cone aperture in radians; Exponent shapes the falloff towards the
// cone edge.
type SpotLight struct {
	Position  math.Vec3
	Direction math.Vec3
	Angle     float32
	Exponent  float32
	Color     [3]float32
	Power     float32
}

// NewSpotLight creates a white spot light of unit intensity.
func NewSpotLight(position, direction math.Vec3, angle, exponent float32) *SpotLight {
	return &SpotLight{
		Position:  position,
		Direction: direction,
		Angle:     angle,
		Exponent:  exponent,
		Color:     [3]float32{1, 1, 1},
		Power:     1,
	}
}

// WorldMatrix places the light at its position.
func (l *SpotLight) WorldMatrix() math.Mat4 {
	return math.Translate(l.Position.X, l.Position.Y, l.Position.Z)
}

// Diffuse returns the RGB color.
func (l *SpotLight) Diffuse() [3]float32 {
	return l.Color
}

// Intensity returns the brightness multiplier.
func (l *SpotLight) Intensity() float32 {
	return l.Power
}

// SetDirectionToTarget aims the cone at target and returns the new direction.
func (l *SpotLight) SetDirectionToTarget(target math.Vec3) math.Vec3 {
	l.Direction = target.Sub(l.Position).Normalize()
	return l.Direction
}

// CosHalfAngle is the cosine of the half aperture, the value shaders compare
// against the dot of the fragment direction.
func (l *SpotLight) CosHalfAngle() float32 {
	return float32(gomath.Cos(float64(l.Angle) * 0.5))
}

// NormalizedDirection returns the unit cone axis.
func (l *SpotLight) NormalizedDirection() math.Vec3 {
	return l.Direction.Normalize()
}
