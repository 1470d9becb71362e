package picking

import (
	gomath "math"

	"github.com/halcyon3d/halcyon/pkg/math"
)

// BoundingBox is an axis-aligned box in local space plus its world-space
// projection, refreshed by Update.
type BoundingBox struct {
	Minimum math.Vec3
	Maximum math.Vec3
	Center  math.Vec3
	Extends math.Vec3

	// Eight local corners and their world-space images.
	Vectors      [8]math.Vec3
	VectorsWorld [8]math.Vec3
	MinimumWorld math.Vec3
	MaximumWorld math.Vec3
}

// NewBoundingBox creates a bounding box from local min/max corners. The
// world-space fields start as the local ones (identity world).
func NewBoundingBox(minimum, maximum math.Vec3) *BoundingBox {
	b := &BoundingBox{Minimum: minimum, Maximum: maximum}
	b.Vectors = [8]math.Vec3{
		minimum,
		maximum,
		{X: maximum.X, Y: minimum.Y, Z: minimum.Z},
		{X: minimum.X, Y: maximum.Y, Z: minimum.Z},
		{X: minimum.X, Y: minimum.Y, Z: maximum.Z},
		{X: maximum.X, Y: maximum.Y, Z: minimum.Z},
		{X: minimum.X, Y: maximum.Y, Z: maximum.Z},
		{X: maximum.X, Y: minimum.Y, Z: maximum.Z},
	}
	b.Center = maximum.Add(minimum).Scale(0.5)
	b.Extends = maximum.Sub(minimum).Scale(0.5)
	b.Update(math.Identity())
	return b
}

// Update projects the local corners through world and recomputes the world
// min/max.
func (b *BoundingBox) Update(world math.Mat4) {
	min := math.Vec3{X: gomath.MaxFloat32, Y: gomath.MaxFloat32, Z: gomath.MaxFloat32}
	max := math.Vec3{X: -gomath.MaxFloat32, Y: -gomath.MaxFloat32, Z: -gomath.MaxFloat32}

	for i, v := range b.Vectors {
		w := world.TransformVec3(v)
		b.VectorsWorld[i] = w

		if w.X < min.X {
			min.X = w.X
		}
		if w.Y < min.Y {
			min.Y = w.Y
		}
		if w.Z < min.Z {
			min.Z = w.Z
		}
		if w.X > max.X {
			max.X = w.X
		}
		if w.Y > max.Y {
			max.Y = w.Y
		}
		if w.Z > max.Z {
			max.Z = w.Z
		}
	}

	b.MinimumWorld = min
	b.MaximumWorld = max
}

// IntersectsPoint reports whether the world-space box contains the point,
// with a small tolerance per axis.
func (b *BoundingBox) IntersectsPoint(point math.Vec3) bool {
	const delta = 1e-6

	if b.MaximumWorld.X-point.X < -delta || point.X-b.MinimumWorld.X < -delta {
		return false
	}
	if b.MaximumWorld.Y-point.Y < -delta || point.Y-b.MinimumWorld.Y < -delta {
		return false
	}
	if b.MaximumWorld.Z-point.Z < -delta || point.Z-b.MinimumWorld.Z < -delta {
		return false
	}
	return true
}

// BoundingSphere is the sphere enclosing a local min/max box plus its world
// projection.
type BoundingSphere struct {
	Minimum math.Vec3
	Maximum math.Vec3
	Center  math.Vec3
	Radius  float32

	CenterWorld math.Vec3
	RadiusWorld float32
}

// NewBoundingSphere creates the sphere enclosing the given local box.
func NewBoundingSphere(minimum, maximum math.Vec3) *BoundingSphere {
	s := &BoundingSphere{Minimum: minimum, Maximum: maximum}
	distance := minimum.Distance(maximum)
	s.Center = minimum.Add(maximum.Sub(minimum).Scale(0.5))
	s.Radius = distance * 0.5
	s.Update(math.Identity())
	return s
}

// Update recomputes the world center and radius. The world radius scales by
// the largest axis stretch of the matrix.
func (s *BoundingSphere) Update(world math.Mat4) {
	s.CenterWorld = world.TransformVec3(s.Center)

	stretch := world.TransformNormal(math.Vec3{X: 1, Y: 1, Z: 1})
	m := float32(gomath.Abs(float64(stretch.X)))
	if v := float32(gomath.Abs(float64(stretch.Y))); v > m {
		m = v
	}
	if v := float32(gomath.Abs(float64(stretch.Z))); v > m {
		m = v
	}
	s.RadiusWorld = s.Radius * m
}

// BoundingInfo pairs the box and sphere built from the same local extents.
type BoundingInfo struct {
	BoundingBox    *BoundingBox
	BoundingSphere *BoundingSphere
}

// NewBoundingInfo builds both volumes from local min/max corners.
func NewBoundingInfo(minimum, maximum math.Vec3) *BoundingInfo {
	return &BoundingInfo{
		BoundingBox:    NewBoundingBox(minimum, maximum),
		BoundingSphere: NewBoundingSphere(minimum, maximum),
	}
}

// Update refreshes both volumes against a new world matrix.
func (bi *BoundingInfo) Update(world math.Mat4) {
	bi.BoundingBox.Update(world)
	bi.BoundingSphere.Update(world)
}
