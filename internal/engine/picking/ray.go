// Package picking provides ray casting and bounding-volume intersection.
package picking

import (
	gomath "math"

	"github.com/halcyon3d/halcyon/pkg/math"
)

const (
	// smallNum guards the segment test against near-parallel divisions.
	smallNum = 1e-8
	// rayLength is the pseudo-infinite extent used to turn a ray into a
	// segment for the closest-approach test.
	rayLength = 10e8
)

// IntersectionInfo carries the barycentric coordinates and distance of a
// ray/triangle hit.
type IntersectionInfo struct {
	BU       float32
	BV       float32
	Distance float32
}

// Plane is a plane in normal/distance form: Dot(Normal, p) + D = 0.
type Plane struct {
	Normal math.Vec3
	D      float32
}

// Ray is a picking ray with origin, normalized direction and a maximum
// length. Rays are reused across many triangle tests, so the intermediate
// vectors of the Moller-Trumbore test live on the struct.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
	Length    float32

	vectorsSet bool
	edge1      math.Vec3
	edge2      math.Vec3
	pvec       math.Vec3
	tvec       math.Vec3
	qvec       math.Vec3
}

// New creates a ray of unbounded length.
func New(origin, direction math.Vec3) *Ray {
	return &Ray{Origin: origin, Direction: direction, Length: gomath.MaxFloat32}
}

// NewWithLength creates a ray with an explicit maximum length.
func NewWithLength(origin, direction math.Vec3, length float32) *Ray {
	return &Ray{Origin: origin, Direction: direction, Length: length}
}

// IntersectsBoxMinMax tests the ray against an axis-aligned box given as
// min/max corners using the slab method. Directions smaller than 1e-7 on an
// axis degenerate to a containment check on that axis.
func (r *Ray) IntersectsBoxMinMax(minimum, maximum math.Vec3) bool {
	d := float32(0)
	maxValue := float32(gomath.MaxFloat32)

	axes := [3]struct {
		dir, org, min, max float32
	}{
		{r.Direction.X, r.Origin.X, minimum.X, maximum.X},
		{r.Direction.Y, r.Origin.Y, minimum.Y, maximum.Y},
		{r.Direction.Z, r.Origin.Z, minimum.Z, maximum.Z},
	}

	for _, a := range axes {
		if float32(gomath.Abs(float64(a.dir))) < 0.0000001 {
			if a.org < a.min || a.org > a.max {
				return false
			}
			continue
		}

		inv := 1 / a.dir
		min := (a.min - a.org) * inv
		max := (a.max - a.org) * inv
		if float64(max) == gomath.Inf(-1) {
			max = float32(gomath.MaxFloat32)
		}
		if min > max {
			min, max = max, min
		}

		if min > d {
			d = min
		}
		if max < maxValue {
			maxValue = max
		}
		if d > maxValue {
			return false
		}
	}
	return true
}

// IntersectsBox tests the ray against a bounding box in local terms.
func (r *Ray) IntersectsBox(box *BoundingBox) bool {
	return r.IntersectsBoxMinMax(box.Minimum, box.Maximum)
}

// IntersectsSphere tests the ray against a bounding sphere. An origin inside
// the sphere always hits; otherwise the sphere must lie ahead of the origin
// and within the radius of the ray line.
func (r *Ray) IntersectsSphere(sphere *BoundingSphere) bool {
	to := sphere.Center.Sub(r.Origin)
	pyth := to.Dot(to)
	rr := sphere.Radius * sphere.Radius

	if pyth <= rr {
		return true
	}

	dot := to.Dot(r.Direction)
	if dot < 0 {
		return false
	}

	return pyth-dot*dot <= rr
}

// IntersectsTriangle runs the Moller-Trumbore test against one triangle.
// Returns nil for a degenerate determinant, out-of-range barycentrics, or a
// hit beyond the ray length.
func (r *Ray) IntersectsTriangle(vertex0, vertex1, vertex2 math.Vec3) *IntersectionInfo {
	if !r.vectorsSet {
		r.vectorsSet = true
		r.edge1 = math.Vec3{}
		r.edge2 = math.Vec3{}
		r.pvec = math.Vec3{}
		r.tvec = math.Vec3{}
		r.qvec = math.Vec3{}
	}

	r.edge1 = vertex1.Sub(vertex0)
	r.edge2 = vertex2.Sub(vertex0)
	r.pvec = r.Direction.Cross(r.edge2)
	det := r.edge1.Dot(r.pvec)

	if det == 0 {
		return nil
	}
	invdet := 1 / det

	r.tvec = r.Origin.Sub(vertex0)

	bu := r.tvec.Dot(r.pvec) * invdet
	if bu < 0 || bu > 1 {
		return nil
	}

	r.qvec = r.tvec.Cross(r.edge1)

	bv := r.Direction.Dot(r.qvec) * invdet
	if bv < 0 || bu+bv > 1 {
		return nil
	}

	distance := r.edge2.Dot(r.qvec) * invdet
	if distance > r.Length {
		return nil
	}

	return &IntersectionInfo{BU: bu, BV: bv, Distance: distance}
}

// IntersectsPlane returns the distance along the ray to the plane. Near
// parallel rays miss; distances a hair behind the origin clamp to zero.
func (r *Ray) IntersectsPlane(plane Plane) (float32, bool) {
	const tolerance = 9.99999997475243e-07

	result1 := plane.Normal.Dot(r.Direction)
	if float32(gomath.Abs(float64(result1))) < tolerance {
		return 0, false
	}

	result2 := plane.Normal.Dot(r.Origin)
	distance := (-plane.D - result2) / result1
	if distance < 0 {
		if distance < -tolerance {
			return 0, false
		}
		return 0, true
	}
	return distance, true
}

// IntersectionSegment returns the distance along the ray to its closest
// approach with the segment [segA, segB], or -1 when the two never come
// within threshold of each other at a valid ray parameter. The ray is
// treated as a segment of pseudo-infinite length.
func (r *Ray) IntersectionSegment(segA, segB math.Vec3, threshold float32) float32 {
	rsegb := r.Origin.Add(r.Direction.Scale(rayLength))

	u := segB.Sub(segA)
	v := rsegb.Sub(r.Origin)
	w := segA.Sub(r.Origin)
	a := u.Dot(u)
	b := u.Dot(v)
	c := v.Dot(v)
	d := u.Dot(w)
	e := v.Dot(w)
	bigD := a*c - b*b
	sN, sD := float32(0), bigD
	tN, tD := float32(0), bigD

	if bigD < smallNum {
		// Near-parallel lines; pin to segA.
		sN = 0
		sD = 1
		tN = e
		tD = c
	} else {
		sN = b*e - c*d
		tN = a*e - b*d
		if sN < 0 {
			sN = 0
			tN = e
			tD = c
		} else if sN > sD {
			sN = sD
			tN = e + b
			tD = c
		}
	}

	if tN < 0 {
		tN = 0
		if -d < 0 {
			sN = 0
		} else if -d > a {
			sN = sD
		} else {
			sN = -d
			sD = a
		}
	} else if tN > tD {
		tN = tD
		if -d+b < 0 {
			sN = 0
		} else if -d+b > a {
			sN = sD
		} else {
			sN = -d + b
			sD = a
		}
	}

	sc := float32(0)
	if float32(gomath.Abs(float64(sN))) >= smallNum {
		sc = sN / sD
	}
	tc := float32(0)
	if float32(gomath.Abs(float64(tN))) >= smallNum {
		tc = tN / tD
	}

	qtc := v.Scale(tc)
	dP := w.Add(u.Scale(sc)).Sub(qtc)

	if tc > 0 && tc <= r.Length && dP.Dot(dP) < threshold*threshold {
		return qtc.Length()
	}
	return -1
}

// CreateNew builds a picking ray from viewport pixel coordinates by
// unprojecting the near and far plane points through the combined
// world/view/projection transform.
func CreateNew(x, y, viewportWidth, viewportHeight float32, world, view, projection math.Mat4) *Ray {
	invVP := projection.Mul(view).Mul(world).Inverse()

	start := unproject(x, y, 0, viewportWidth, viewportHeight, invVP)
	end := unproject(x, y, 1, viewportWidth, viewportHeight, invVP)

	direction := end.Sub(start).Normalize()
	return New(start, direction)
}

// FromTo builds a ray between two points and transforms it by world.
func FromTo(origin, end math.Vec3, world math.Mat4) *Ray {
	direction := end.Sub(origin)
	length := direction.Length()
	direction = direction.Normalize()
	return Transform(NewWithLength(origin, direction, length), world)
}

// Transform returns the ray moved into the space described by matrix. The
// direction is re-normalized; length is preserved.
func Transform(ray *Ray, matrix math.Mat4) *Ray {
	newOrigin := matrix.TransformVec3(ray.Origin)
	newDirection := matrix.TransformNormal(ray.Direction).Normalize()
	return NewWithLength(newOrigin, newDirection, ray.Length)
}

func unproject(x, y, z, viewportWidth, viewportHeight float32, invVP math.Mat4) math.Vec3 {
	ndcX := 2*x/viewportWidth - 1
	ndcY := 1 - 2*y/viewportHeight
	ndcZ := 2*z - 1

	v := invVP.MulVec4(math.Vec4{ndcX, ndcY, ndcZ, 1})
	if v[3] != 0 {
		v[0] /= v[3]
		v[1] /= v[3]
		v[2] /= v[3]
	}
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
