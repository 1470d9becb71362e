package camera

import "github.com/halcyon3d/halcyon/pkg/math"

// TargetCamera is a free camera aimed at an explicit target point. The
// particle system reads its position and target to build billboard frames
// and to park invisible particles.
type TargetCamera struct {
	PositionVector math.Vec3
	Target         math.Vec3
	Up             math.Vec3
}

// NewTargetCamera creates a camera at position looking at target.
func NewTargetCamera(position, target math.Vec3) *TargetCamera {
	return &TargetCamera{
		PositionVector: position,
		Target:         target,
		Up:             math.Vec3{X: 0, Y: 1, Z: 0},
	}
}

// GlobalPosition returns the camera position in world space.
func (c *TargetCamera) GlobalPosition() math.Vec3 {
	return c.PositionVector
}

// CurrentTarget returns the point the camera looks at.
func (c *TargetCamera) CurrentTarget() math.Vec3 {
	return c.Target
}

// SetTarget re-aims the camera.
func (c *TargetCamera) SetTarget(target math.Vec3) {
	c.Target = target
}

// ViewMatrix returns the look-at view matrix.
func (c *TargetCamera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.PositionVector, c.Target, c.Up)
}
