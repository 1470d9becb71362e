package skeleton

import (
	gomath "math"

	"github.com/halcyon3d/halcyon/pkg/math"
)

// Bone is one joint of a skeleton. The local matrix positions the bone
// relative to its parent; the absolute transform is the composition up to
// the root (and through the skeleton pose matrix, when set). The inverted
// absolute transform is kept in lock step for skinning.
type Bone struct {
	Name     string
	Children []*Bone

	// Length is the distance to the next bone, used by animation
	// retargeting. Negative when unknown.
	Length int

	Animations []*Animation

	skeleton *Skeleton
	parent   *Bone

	matrix     math.Mat4
	baseMatrix math.Mat4
	restPose   math.Mat4

	absoluteTransform         math.Mat4
	invertedAbsoluteTransform math.Mat4

	scaleMatrix         math.Mat4
	scaleVector         math.Vec3
	negateScaleChildren math.Vec3
	scalingDeterminant  float32

	currentRenderID int
}

// NewBone creates a bone with matrix as both its local matrix and rest pose,
// registers it with the skeleton and links it under parent (nil for roots).
func NewBone(name string, s *Skeleton, parent *Bone, matrix math.Mat4) *Bone {
	return NewBoneWithRest(name, s, parent, matrix, matrix)
}

// NewBoneWithRest creates a bone with distinct local matrix and rest pose.
func NewBoneWithRest(name string, s *Skeleton, parent *Bone, matrix, restPose math.Mat4) *Bone {
	b := &Bone{
		Name:                name,
		Length:              -1,
		skeleton:            s,
		parent:              parent,
		matrix:              matrix,
		baseMatrix:          matrix,
		restPose:            restPose,
		scaleMatrix:         math.Identity(),
		scaleVector:         math.Vec3{X: 1, Y: 1, Z: 1},
		negateScaleChildren: math.Vec3{X: 1, Y: 1, Z: 1},
		scalingDeterminant:  1,
	}
	if parent != nil {
		parent.Children = append(parent.Children, b)
	}
	s.Bones = append(s.Bones, b)

	b.updateDifferenceMatrix(b.baseMatrix)

	if b.absoluteTransform.Determinant() < 0 {
		b.scalingDeterminant *= -1
	}
	return b
}

// Parent returns the parent bone, or nil for a root.
func (b *Bone) Parent() *Bone {
	return b.parent
}

// LocalMatrix returns the bone's matrix relative to its parent.
func (b *Bone) LocalMatrix() math.Mat4 {
	return b.matrix
}

// BaseMatrix returns the matrix installed by the last UpdateMatrix.
func (b *Bone) BaseMatrix() math.Mat4 {
	return b.baseMatrix
}

// RestPose returns the bind-time local matrix.
func (b *Bone) RestPose() math.Mat4 {
	return b.restPose
}

// AbsoluteTransform returns the composition of local matrices up to the
// root, including the skeleton pose matrix when present.
func (b *Bone) AbsoluteTransform() math.Mat4 {
	return b.absoluteTransform
}

// InvertedAbsoluteTransform returns the inverse of the absolute transform.
func (b *Bone) InvertedAbsoluteTransform() math.Mat4 {
	return b.invertedAbsoluteTransform
}

// ReturnToRest reinstalls the rest pose as the local matrix.
func (b *Bone) ReturnToRest() {
	b.UpdateMatrix(b.restPose, true)
}

// UpdateMatrix installs a new local matrix. When updateDifference is set the
// absolute and inverted transforms of this bone and its subtree are
// recomputed immediately.
func (b *Bone) UpdateMatrix(matrix math.Mat4, updateDifference bool) {
	b.baseMatrix = matrix
	b.matrix = matrix

	b.skeleton.MarkAsDirty()

	if updateDifference {
		b.updateDifferenceMatrix(b.baseMatrix)
	}
}

func (b *Bone) updateDifferenceMatrix(rootMatrix math.Mat4) {
	if b.parent != nil {
		b.absoluteTransform = b.parent.absoluteTransform.Mul(rootMatrix)
	} else {
		b.absoluteTransform = rootMatrix
	}

	b.invertedAbsoluteTransform = b.absoluteTransform.Inverse()

	for _, child := range b.Children {
		child.updateDifferenceMatrix(child.baseMatrix)
	}
}

// MarkAsDirty bumps the bone's render counter and dirties the skeleton.
func (b *Bone) MarkAsDirty() {
	b.currentRenderID++
	b.skeleton.MarkAsDirty()
}

// ComputeAbsoluteTransforms recomputes the absolute transform of this bone
// and its subtree from the current local matrices. Root bones combine with
// the skeleton pose matrix when one is set.
func (b *Bone) ComputeAbsoluteTransforms() {
	if b.parent != nil {
		b.absoluteTransform = b.parent.absoluteTransform.Mul(b.matrix)
	} else {
		b.absoluteTransform = b.matrix
		if pose := b.skeleton.PoseMatrix(); pose != nil {
			b.absoluteTransform = pose.Mul(b.absoluteTransform)
		}
	}

	for _, child := range b.Children {
		child.ComputeAbsoluteTransforms()
	}
}

// Translate moves the bone by vec in the given space. World-space deltas
// are carried into the parent's frame first; mesh, when non-nil, supplies
// the world matrix the skeleton is viewed through.
func (b *Bone) Translate(vec math.Vec3, space Space, mesh Mesh) {
	if space == SpaceLocal {
		b.matrix[12] += vec.X
		b.matrix[13] += vec.Y
		b.matrix[14] += vec.Z
	} else {
		b.skeleton.ComputeAbsoluteTransforms()

		tmat := b.parentFrame(mesh)
		tmat[12] = 0
		tmat[13] = 0
		tmat[14] = 0
		tmat = tmat.Inverse()

		tvec := tmat.TransformVec3(vec)
		b.matrix[12] += tvec.X
		b.matrix[13] += tvec.Y
		b.matrix[14] += tvec.Z
	}

	b.MarkAsDirty()
}

// SetPosition places the bone at position in the given space.
func (b *Bone) SetPosition(position math.Vec3, space Space, mesh Mesh) {
	if space == SpaceLocal {
		b.matrix[12] = position.X
		b.matrix[13] = position.Y
		b.matrix[14] = position.Z
	} else {
		b.skeleton.ComputeAbsoluteTransforms()

		tmat := b.parentFrame(mesh).Inverse()
		tvec := tmat.TransformVec3(position)
		b.matrix[12] = tvec.X
		b.matrix[13] = tvec.Y
		b.matrix[14] = tvec.Z
	}

	b.MarkAsDirty()
}

// SetAbsolutePosition places the bone at a world-space position.
func (b *Bone) SetAbsolutePosition(position math.Vec3, mesh Mesh) {
	b.SetPosition(position, SpaceWorld, mesh)
}

// parentFrame is the parent's absolute transform viewed through the bound
// mesh's world matrix. Roots use the mesh world matrix alone.
func (b *Bone) parentFrame(mesh Mesh) math.Mat4 {
	tmat := math.Identity()
	if b.parent != nil {
		tmat = b.parent.absoluteTransform
	}
	if mesh != nil {
		tmat = mesh.WorldMatrix().Mul(tmat)
	}
	return tmat
}

// Position returns the bone position in the given space.
func (b *Bone) Position(space Space, mesh Mesh) math.Vec3 {
	if space == SpaceLocal {
		return b.matrix.Translation()
	}

	b.skeleton.ComputeAbsoluteTransforms()

	tmat := b.absoluteTransform
	if mesh != nil {
		tmat = mesh.WorldMatrix().Mul(tmat)
	}
	return tmat.Translation()
}

// AbsolutePosition returns the bone position in world space.
func (b *Bone) AbsolutePosition(mesh Mesh) math.Vec3 {
	return b.Position(SpaceWorld, mesh)
}

// Scale returns the accumulated scale applied through ScaleBy/SetScale.
func (b *Bone) Scale() math.Vec3 {
	return b.scaleVector
}

// SetScale sets the bone's accumulated scale to exactly (x, y, z),
// compensating whatever scale is already applied. While an animation is
// playing the scale vector is first re-derived from the animated local
// matrix.
func (b *Bone) SetScale(x, y, z float32, scaleChildren bool) {
	if len(b.Animations) > 0 && b.Animations[0] != nil && !b.Animations[0].IsStopped() {
		if !scaleChildren {
			b.negateScaleChildren.X = 1 / x
			b.negateScaleChildren.Y = 1 / y
			b.negateScaleChildren.Z = 1 / z
		}
		b.syncScaleVector()
	}

	b.ScaleBy(x/b.scaleVector.X, y/b.scaleVector.Y, z/b.scaleVector.Z, scaleChildren)
}

// ScaleBy multiplies the bone's scale by (x, y, z). The scale is applied in
// the bone's own frame, before its local matrix. When scaleChildren is
// false, children keep their world positions; when true, child offsets
// scale with the bone and every child is scaled recursively.
func (b *Bone) ScaleBy(x, y, z float32, scaleChildren bool) {
	origLocMat := b.matrix
	origLocMatInv := origLocMat.Inverse()

	scaleMat := math.Scale(x, y, z)
	b.scaleMatrix = scaleMat.Mul(b.scaleMatrix)
	b.scaleVector.X *= x
	b.scaleVector.Y *= y
	b.scaleVector.Z *= z

	locMat := origLocMatInv.Mul(b.matrix)
	locMat = scaleMat.Mul(locMat)
	locMat = origLocMat.Mul(locMat)
	b.matrix = locMat

	if b.parent != nil {
		b.absoluteTransform = b.parent.absoluteTransform.Mul(b.matrix)
	} else {
		b.absoluteTransform = b.matrix
	}

	scaleMatInv := scaleMat.Inverse()

	for _, child := range b.Children {
		child.matrix = scaleMatInv.Mul(child.matrix)
		if scaleChildren {
			child.matrix[12] *= x
			child.matrix[13] *= y
			child.matrix[14] *= z
		}
	}

	b.ComputeAbsoluteTransforms()

	if scaleChildren {
		for _, child := range b.Children {
			child.ScaleBy(x, y, z, scaleChildren)
		}
	}

	b.MarkAsDirty()
}

// syncScaleVector re-derives the scale vector and matrix from the current
// local matrix, recovering per-axis sign from the basis entries.
func (b *Bone) syncScaleVector() {
	lm := b.matrix

	xsq := lm[0]*lm[0] + lm[1]*lm[1] + lm[2]*lm[2]
	ysq := lm[4]*lm[4] + lm[5]*lm[5] + lm[6]*lm[6]
	zsq := lm[8]*lm[8] + lm[9]*lm[9] + lm[10]*lm[10]

	xs := float32(1)
	if lm[0]*lm[1]*lm[2] < 0 {
		xs = -1
	}
	ys := float32(1)
	if lm[4]*lm[5]*lm[6] < 0 {
		ys = -1
	}
	zs := float32(1)
	if lm[8]*lm[9]*lm[10] < 0 {
		zs = -1
	}

	b.scaleVector.X = xs * sqrt32(xsq)
	b.scaleVector.Y = ys * sqrt32(ysq)
	b.scaleVector.Z = zs * sqrt32(zsq)

	if b.parent != nil {
		b.scaleVector.X /= b.parent.negateScaleChildren.X
		b.scaleVector.Y /= b.parent.negateScaleChildren.Y
		b.scaleVector.Z /= b.parent.negateScaleChildren.Z
	}

	b.scaleMatrix = math.Scale(b.scaleVector.X, b.scaleVector.Y, b.scaleVector.Z)
}

// SetYawPitchRoll sets the bone rotation from yaw/pitch/roll in the given
// space, replacing the current rotation.
func (b *Bone) SetYawPitchRoll(yaw, pitch, roll float32, space Space, mesh Mesh) {
	rotMat := math.RotationYawPitchRoll(yaw, pitch, roll)
	rotMatInv := b.negativeRotation(space, mesh)
	b.rotateWithMatrix(rotMat.Mul(rotMatInv), space, mesh)
}

// Rotate adds a rotation of amount radians around axis in the given space.
func (b *Bone) Rotate(axis math.Vec3, amount float32, space Space, mesh Mesh) {
	rmat := math.RotateAxis([3]float32{axis.X, axis.Y, axis.Z}, amount)
	b.rotateWithMatrix(rmat, space, mesh)
}

// SetAxisAngle sets the bone rotation from an axis and angle, replacing the
// current rotation.
func (b *Bone) SetAxisAngle(axis math.Vec3, angle float32, space Space, mesh Mesh) {
	rotMat := math.RotateAxis([3]float32{axis.X, axis.Y, axis.Z}, angle)
	rotMatInv := b.negativeRotation(space, mesh)
	b.rotateWithMatrix(rotMat.Mul(rotMatInv), space, mesh)
}

// SetRotationMatrix sets the bone rotation from a rotation matrix,
// replacing the current rotation.
func (b *Bone) SetRotationMatrix(rotMat math.Mat4, space Space, mesh Mesh) {
	rotMatInv := b.negativeRotation(space, mesh)
	b.rotateWithMatrix(rotMat.Mul(rotMatInv), space, mesh)
}

// rotateWithMatrix applies rmat to the local matrix inside the parent's
// scale frame (world: the parent's full absolute frame), preserving the
// local translation.
func (b *Bone) rotateWithMatrix(rmat math.Mat4, space Space, mesh Mesh) {
	lx := b.matrix[12]
	ly := b.matrix[13]
	lz := b.matrix[14]

	if b.parent != nil {
		var parentScale math.Mat4
		if space == SpaceWorld {
			if mesh != nil {
				parentScale = mesh.WorldMatrix().Mul(b.parent.absoluteTransform)
			} else {
				parentScale = b.parent.absoluteTransform
			}
		} else {
			parentScale = b.parent.scaleMatrix
		}
		parentScaleInv := parentScale.Inverse()
		b.matrix = parentScaleInv.Mul(rmat).Mul(parentScale).Mul(b.matrix)
	} else if space == SpaceWorld && mesh != nil {
		parentScale := mesh.WorldMatrix()
		parentScaleInv := parentScale.Inverse()
		b.matrix = parentScaleInv.Mul(rmat).Mul(parentScale).Mul(b.matrix)
	} else {
		b.matrix = rmat.Mul(b.matrix)
	}

	b.matrix[12] = lx
	b.matrix[13] = ly
	b.matrix[14] = lz

	b.ComputeAbsoluteTransforms()

	b.MarkAsDirty()
}

// negativeRotation builds the matrix that cancels the bone's current
// rotation in the given space, leaving its accumulated scale in place.
func (b *Bone) negativeRotation(space Space, mesh Mesh) math.Mat4 {
	if space == SpaceWorld {
		scaleMatrix := b.scaleMatrix
		rotMatInv := b.absoluteTransform

		if mesh != nil {
			rotMatInv = mesh.WorldMatrix().Mul(rotMatInv)
			ms := mesh.Scaling()
			scaleMatrix = math.Scale(ms.X, ms.Y, ms.Z).Mul(scaleMatrix)
		}

		rotMatInv = rotMatInv.Inverse()
		scaleMatrix[0] *= b.scalingDeterminant
		return scaleMatrix.Mul(rotMatInv)
	}

	rotMatInv := b.matrix.Inverse()
	scaleMatrix := b.scaleMatrix

	if b.parent != nil {
		rotMatInv = rotMatInv.Mul(b.parent.scaleMatrix.Inverse())
	} else {
		scaleMatrix[0] *= b.scalingDeterminant
	}

	return scaleMatrix.Mul(rotMatInv)
}

// Rotation returns the bone's rotation in the given space as a quaternion.
func (b *Bone) Rotation(space Space, mesh Mesh) math.Quat {
	if space == SpaceLocal {
		_, rotation, _, _ := b.matrix.Decompose()
		return rotation
	}

	mat := b.absoluteTransform
	if mesh != nil {
		mat = mesh.WorldMatrix().Mul(mat)
	}
	_, rotation, _, _ := mat.Decompose()
	return rotation
}

// Direction transforms localAxis through the bone's absolute frame (and the
// mesh world matrix, when bound) and normalizes the result.
func (b *Bone) Direction(localAxis math.Vec3, mesh Mesh) math.Vec3 {
	b.skeleton.ComputeAbsoluteTransforms()

	mat := b.absoluteTransform
	if mesh != nil {
		mat = mesh.WorldMatrix().Mul(mat)
	}
	return mat.TransformNormal(localAxis).Normalize()
}

func sqrt32(v float32) float32 {
	return float32(gomath.Sqrt(float64(v)))
}
