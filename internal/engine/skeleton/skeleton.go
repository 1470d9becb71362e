// Package skeleton implements the bone transform hierarchy used for
// skeletal animation: local matrices composed up the parent chain into
// absolute transforms, with edit operations in either local or world space.
package skeleton

import "github.com/halcyon3d/halcyon/pkg/math"

// Space selects the coordinate space of a bone operation.
type Space int

const (
	// SpaceLocal addresses the bone relative to its parent.
	SpaceLocal Space = iota
	// SpaceWorld addresses the bone in skeleton (or mesh world) space.
	SpaceWorld
)

// Mesh is the minimal surface a bone needs from the mesh it deforms.
type Mesh interface {
	WorldMatrix() math.Mat4
	Scaling() math.Vec3
}

// Skeleton owns a set of bones. Bones register themselves on construction;
// the skeleton tracks dirtiness for skinning uploads and optionally carries
// a pose matrix applied above the root bones.
type Skeleton struct {
	Name  string
	Bones []*Bone

	// DimensionsAtRest feeds the root-bone rescale path of animation
	// retargeting. Nil when never measured.
	DimensionsAtRest *math.Vec3

	poseMatrix *math.Mat4
	dirty      bool
	renderID   int
}

// New creates an empty skeleton.
func New(name string) *Skeleton {
	return &Skeleton{Name: name, dirty: true}
}

// PoseMatrix returns the matrix applied above root bones, or nil.
func (s *Skeleton) PoseMatrix() *math.Mat4 {
	return s.poseMatrix
}

// SetPoseMatrix installs the matrix applied above root bones.
func (s *Skeleton) SetPoseMatrix(m math.Mat4) {
	s.poseMatrix = &m
	s.MarkAsDirty()
}

// MarkAsDirty flags the skeleton for re-upload of its skinning matrices.
func (s *Skeleton) MarkAsDirty() {
	s.dirty = true
}

// IsDirty reports whether any bone changed since the last ClearDirty.
func (s *Skeleton) IsDirty() bool {
	return s.dirty
}

// ClearDirty resets the dirty flag after matrices were consumed.
func (s *Skeleton) ClearDirty() {
	s.dirty = false
}

// ComputeAbsoluteTransforms recomputes absolute transforms for the whole
// hierarchy starting at the root bones.
func (s *Skeleton) ComputeAbsoluteTransforms() {
	for _, bone := range s.Bones {
		if bone.parent == nil {
			bone.ComputeAbsoluteTransforms()
		}
	}
}

// ReturnToRest resets every bone to its rest pose.
func (s *Skeleton) ReturnToRest() {
	for _, bone := range s.Bones {
		bone.ReturnToRest()
	}
}
