package picking

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

func TestIntersectsBoxMinMax(t *testing.T) {
	min := math.Vec3{X: -1, Y: -1, Z: -1}
	max := math.Vec3{X: 1, Y: 1, Z: 1}

	hit := New(math.Vec3{X: -5}, math.Vec3{X: 1})
	if !hit.IntersectsBoxMinMax(min, max) {
		t.Error("ray aimed at the box missed")
	}

	away := New(math.Vec3{X: 5}, math.Vec3{X: 1})
	if away.IntersectsBoxMinMax(min, max) {
		t.Error("ray pointing away hit")
	}

	inside := New(math.Vec3{}, math.Vec3{Y: 1})
	if !inside.IntersectsBoxMinMax(min, max) {
		t.Error("ray starting inside missed")
	}
}

func TestIntersectsBoxDegenerateAxis(t *testing.T) {
	min := math.Vec3{X: -1, Y: -1, Z: -1}
	max := math.Vec3{X: 1, Y: 1, Z: 1}

	// zero direction on Y degrades to a containment test on that axis
	aligned := New(math.Vec3{X: -5, Y: 0.5}, math.Vec3{X: 1})
	if !aligned.IntersectsBoxMinMax(min, max) {
		t.Error("in-slab axis-aligned ray missed")
	}

	offset := New(math.Vec3{X: -5, Y: 2}, math.Vec3{X: 1})
	if offset.IntersectsBoxMinMax(min, max) {
		t.Error("out-of-slab axis-aligned ray hit")
	}
}

func TestIntersectsSphere(t *testing.T) {
	sphere := NewBoundingSphere(math.Vec3{X: 4, Y: -1, Z: -1}, math.Vec3{X: 6, Y: 1, Z: 1})

	if !New(math.Vec3{}, math.Vec3{X: 1}).IntersectsSphere(sphere) {
		t.Error("ray through the center missed")
	}
	if New(math.Vec3{}, math.Vec3{X: -1}).IntersectsSphere(sphere) {
		t.Error("ray pointing away hit")
	}
	if New(math.Vec3{Y: 10}, math.Vec3{X: 1}).IntersectsSphere(sphere) {
		t.Error("ray passing wide hit")
	}
	if !New(math.Vec3{X: 5}, math.Vec3{Y: 1}).IntersectsSphere(sphere) {
		t.Error("origin inside the sphere missed")
	}
}

func TestIntersectsTriangle(t *testing.T) {
	v0 := math.Vec3{}
	v1 := math.Vec3{X: 1}
	v2 := math.Vec3{Y: 1}

	r := New(math.Vec3{X: 0.25, Y: 0.25, Z: -1}, math.Vec3{Z: 1})
	info := r.IntersectsTriangle(v0, v1, v2)
	if info == nil {
		t.Fatal("ray through the triangle missed")
	}
	if absf(info.BU-0.25) > 1e-5 || absf(info.BV-0.25) > 1e-5 {
		t.Errorf("barycentrics = (%f, %f), want (0.25, 0.25)", info.BU, info.BV)
	}
	if absf(info.Distance-1) > 1e-5 {
		t.Errorf("distance = %f, want 1", info.Distance)
	}
}

func TestIntersectsTriangleMisses(t *testing.T) {
	v0 := math.Vec3{}
	v1 := math.Vec3{X: 1}
	v2 := math.Vec3{Y: 1}

	if New(math.Vec3{X: 2, Y: 0.25, Z: -1}, math.Vec3{Z: 1}).IntersectsTriangle(v0, v1, v2) != nil {
		t.Error("ray outside the triangle hit")
	}
	// parallel to the triangle plane: zero determinant
	if New(math.Vec3{Z: -1}, math.Vec3{X: 1}).IntersectsTriangle(v0, v1, v2) != nil {
		t.Error("parallel ray hit")
	}
	// the hit lies past the ray length
	short := NewWithLength(math.Vec3{X: 0.25, Y: 0.25, Z: -1}, math.Vec3{Z: 1}, 0.5)
	if short.IntersectsTriangle(v0, v1, v2) != nil {
		t.Error("hit beyond the ray length reported")
	}
}

func TestIntersectsPlane(t *testing.T) {
	r := New(math.Vec3{}, math.Vec3{Z: 1})

	// plane z = 5
	d, ok := r.IntersectsPlane(Plane{Normal: math.Vec3{Z: 1}, D: -5})
	if !ok || absf(d-5) > 1e-5 {
		t.Errorf("distance = %f ok=%v, want 5", d, ok)
	}

	// plane z = -5 lies behind the origin
	if _, ok := r.IntersectsPlane(Plane{Normal: math.Vec3{Z: 1}, D: 5}); ok {
		t.Error("plane behind the origin hit")
	}

	// parallel
	if _, ok := r.IntersectsPlane(Plane{Normal: math.Vec3{X: 1}, D: -5}); ok {
		t.Error("parallel plane hit")
	}

	// a hair behind the origin clamps to zero
	grazing := New(math.Vec3{Z: 1e-8}, math.Vec3{Z: 1})
	d, ok = grazing.IntersectsPlane(Plane{Normal: math.Vec3{Z: 1}, D: 0})
	if !ok || d != 0 {
		t.Errorf("grazing distance = %f ok=%v, want 0", d, ok)
	}
}

func TestIntersectionSegment(t *testing.T) {
	r := New(math.Vec3{}, math.Vec3{X: 1})

	d := r.IntersectionSegment(math.Vec3{X: 5, Y: -1}, math.Vec3{X: 5, Y: 1}, 0.1)
	if absf(d-5) > 1e-2 {
		t.Errorf("distance = %f, want 5", d)
	}

	// closest approach farther than the threshold
	if d := r.IntersectionSegment(math.Vec3{X: 5, Y: 1}, math.Vec3{X: 5, Y: 2}, 0.5); d != -1 {
		t.Errorf("distance = %f, want -1 sentinel", d)
	}

	// segment behind the origin
	if d := r.IntersectionSegment(math.Vec3{X: -5, Y: -1}, math.Vec3{X: -5, Y: 1}, 0.1); d != -1 {
		t.Errorf("distance = %f, want -1 sentinel", d)
	}
}

func TestCreateNewUnprojects(t *testing.T) {
	r := CreateNew(50, 50, 100, 100, math.Identity(), math.Identity(), math.Identity())

	if absf(r.Origin.X) > 1e-5 || absf(r.Origin.Y) > 1e-5 || absf(r.Origin.Z+1) > 1e-5 {
		t.Errorf("origin = %+v, want (0, 0, -1)", r.Origin)
	}
	if absf(r.Direction.Z-1) > 1e-5 {
		t.Errorf("direction = %+v, want (0, 0, 1)", r.Direction)
	}

	// right edge of the viewport maps to ndc x = 1, top edge to ndc y = 1
	edge := CreateNew(100, 0, 100, 100, math.Identity(), math.Identity(), math.Identity())
	if absf(edge.Origin.X-1) > 1e-5 || absf(edge.Origin.Y-1) > 1e-5 {
		t.Errorf("edge origin = %+v, want (1, 1, -1)", edge.Origin)
	}
}

func TestFromTo(t *testing.T) {
	r := FromTo(math.Vec3{}, math.Vec3{Y: 3}, math.Identity())

	if absf(r.Length-3) > 1e-5 {
		t.Errorf("length = %f, want 3", r.Length)
	}
	if absf(r.Direction.Y-1) > 1e-5 {
		t.Errorf("direction = %+v, want (0, 1, 0)", r.Direction)
	}
}

func TestTransformRay(t *testing.T) {
	r := NewWithLength(math.Vec3{X: 1}, math.Vec3{Z: 1}, 7)
	moved := Transform(r, math.Translate(0, 5, 0))

	if absf(moved.Origin.X-1) > 1e-5 || absf(moved.Origin.Y-5) > 1e-5 {
		t.Errorf("origin = %+v, want (1, 5, 0)", moved.Origin)
	}
	if absf(moved.Direction.Z-1) > 1e-5 {
		t.Errorf("direction = %+v, want (0, 0, 1)", moved.Direction)
	}
	if moved.Length != 7 {
		t.Errorf("length = %f, want 7", moved.Length)
	}
}
