// Package particles implements a solid particle system: many copies of small
// template shapes merged into one updatable mesh, repositioned per frame on
// the CPU and pushed through the device engine's dynamic buffers.
package particles

import (
	"github.com/halcyon3d/halcyon/internal/engine/device"
	"github.com/halcyon3d/halcyon/internal/engine/picking"
	"github.com/halcyon3d/halcyon/pkg/math"
)

// PositionFunction customizes a particle at build time.
type PositionFunction func(particle *SolidParticle, idx, idxInShape int)

// VertexFunction customizes a single template vertex at build time.
type VertexFunction func(particle *SolidParticle, vertex *math.Vec3, vertexIdx int)

// ModelShape is a shared particle template: the shape vertices, its UVs and
// the builder callbacks to replay on rebuild.
type ModelShape struct {
	ID int

	shape   []math.Vec3
	shapeUV []float32

	positionFunction PositionFunction
	vertexFunction   VertexFunction
}

// SolidParticle is one instance of a model shape inside the system's mesh.
type SolidParticle struct {
	Idx        int
	ShapeID    int
	IdxInShape int

	Position           math.Vec3
	Rotation           math.Vec3
	RotationQuaternion *math.Quat
	Scaling            math.Vec3
	Color              *device.Color4

	// UVs selects the sub-rectangle of the texture: x,y bottom-left and
	// z,w top-right.
	UVs math.Vec4

	IsVisible bool

	// pos is the particle's first float index in the positions array.
	pos int

	model             *ModelShape
	boundingInfo      *picking.BoundingInfo
	modelBoundingInfo *picking.BoundingInfo
}

func newSolidParticle(idx, pos int, model *ModelShape, shapeID, idxInShape int,
	modelBoundingInfo *picking.BoundingInfo) *SolidParticle {

	p := &SolidParticle{
		Idx:        idx,
		pos:        pos,
		model:      model,
		ShapeID:    shapeID,
		IdxInShape: idxInShape,
		Scaling:    math.Vec3{X: 1, Y: 1, Z: 1},
		UVs:        math.Vec4{0, 0, 1, 1},
		IsVisible:  true,
	}
	if modelBoundingInfo != nil {
		p.modelBoundingInfo = modelBoundingInfo
		p.boundingInfo = picking.NewBoundingInfo(
			modelBoundingInfo.BoundingBox.Minimum, modelBoundingInfo.BoundingBox.Maximum)
	}
	return p
}

// BoundingInfo returns the per-particle bounding volumes maintained by
// SetParticles when particle intersection is enabled, nil otherwise.
func (p *SolidParticle) BoundingInfo() *picking.BoundingInfo {
	return p.boundingInfo
}

// Intersects reports whether the bounding volumes of two particles overlap.
// With bounding-sphere-only systems the box test is skipped.
func (p *SolidParticle) Intersects(other *SolidParticle, sphereOnly bool) bool {
	if p.boundingInfo == nil || other.boundingInfo == nil {
		return false
	}

	s1 := p.boundingInfo.BoundingSphere
	s2 := other.boundingInfo.BoundingSphere
	distance := s1.CenterWorld.Distance(s2.CenterWorld)
	if distance > s1.RadiusWorld+s2.RadiusWorld {
		return false
	}
	if sphereOnly {
		return true
	}

	b1 := p.boundingInfo.BoundingBox
	b2 := other.boundingInfo.BoundingBox
	if b1.MinimumWorld.X > b2.MaximumWorld.X || b1.MaximumWorld.X < b2.MinimumWorld.X {
		return false
	}
	if b1.MinimumWorld.Y > b2.MaximumWorld.Y || b1.MaximumWorld.Y < b2.MinimumWorld.Y {
		return false
	}
	if b1.MinimumWorld.Z > b2.MaximumWorld.Z || b1.MaximumWorld.Z < b2.MinimumWorld.Z {
		return false
	}
	return true
}

// PickedParticle maps a face of the merged mesh back to its particle.
type PickedParticle struct {
	Idx    int
	FaceID int
}
