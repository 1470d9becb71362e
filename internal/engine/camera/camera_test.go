package camera

import (
	"testing"

	"github.com/halcyon3d/halcyon/pkg/math"
)

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func TestOrbitCameraPosition(t *testing.T) {
	c := NewOrbitCamera()
	c.Distance = 10
	c.RotationX = 0
	c.RotationY = 0
	c.SetCenter(1, 2, 3)

	p := c.Position()
	if absf(p.X-1) > 1e-5 || absf(p.Y-2) > 1e-5 || absf(p.Z-13) > 1e-5 {
		t.Errorf("position = %+v, want (1, 2, 13)", p)
	}

	if c.GlobalPosition() != p {
		t.Error("GlobalPosition disagrees with Position")
	}
	if c.CurrentTarget() != (math.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("target = %+v, want the center", c.CurrentTarget())
	}
}

func TestOrbitCameraDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleDrag(0, 1e6)
	if c.RotationX != c.MaxPitch {
		t.Errorf("pitch = %f, want clamped to %f", c.RotationX, c.MaxPitch)
	}
	c.HandleDrag(0, -1e6)
	if c.RotationX != c.MinPitch {
		t.Errorf("pitch = %f, want clamped to %f", c.RotationX, c.MinPitch)
	}
}

func TestOrbitCameraZoomClamps(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleZoom(1e6)
	if c.Distance != c.MinDistance {
		t.Errorf("distance = %f, want clamped to %f", c.Distance, c.MinDistance)
	}
	for i := 0; i < 200; i++ {
		c.HandleZoom(-10)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("distance = %f, want clamped to %f", c.Distance, c.MaxDistance)
	}
}

func TestOrbitCameraFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	c.FitToBounds(0, 0, 0, 100, 50, 100)

	if c.CenterX != 50 || c.CenterY != 25 || c.CenterZ != 50 {
		t.Errorf("center = (%f, %f, %f), want (50, 25, 50)", c.CenterX, c.CenterY, c.CenterZ)
	}
	if c.Distance < 200 {
		t.Errorf("distance = %f, want at least 200", c.Distance)
	}
}

func TestTargetCamera(t *testing.T) {
	c := NewTargetCamera(math.Vec3{Z: -10}, math.Vec3{})

	if c.GlobalPosition() != (math.Vec3{Z: -10}) {
		t.Errorf("position = %+v, want (0, 0, -10)", c.GlobalPosition())
	}

	c.SetTarget(math.Vec3{X: 5})
	if c.CurrentTarget() != (math.Vec3{X: 5}) {
		t.Errorf("target = %+v, want (5, 0, 0)", c.CurrentTarget())
	}

	// the eye maps to the view-space origin
	eye := c.ViewMatrix().TransformVec3(c.GlobalPosition())
	if absf(eye.X) > 1e-4 || absf(eye.Y) > 1e-4 || absf(eye.Z) > 1e-4 {
		t.Errorf("view of eye = %+v, want origin", eye)
	}
}
