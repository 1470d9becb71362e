package skeleton

import (
	gomath "math"
	"testing"

	"github.com/halcyon3d/halcyon/pkg/math"
)

const pi = float32(gomath.Pi)

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func nearVec(t *testing.T, got, want math.Vec3, eps float32, name string) {
	t.Helper()
	if absf(got.X-want.X) > eps || absf(got.Y-want.Y) > eps || absf(got.Z-want.Z) > eps {
		t.Errorf("%s = %+v, want %+v", name, got, want)
	}
}

func TestAbsoluteTransformChain(t *testing.T) {
	s := New("test")
	root := NewBone("root", s, nil, math.Translate(0, 1, 0))
	child := NewBone("child", s, root, math.Translate(0, 1, 0))

	nearVec(t, root.AbsoluteTransform().Translation(), math.Vec3{Y: 1}, 1e-6, "root absolute")
	nearVec(t, child.AbsoluteTransform().Translation(), math.Vec3{Y: 2}, 1e-6, "child absolute")

	// inverted transform undoes the chain
	back := child.InvertedAbsoluteTransform().TransformVec3(math.Vec3{Y: 2})
	nearVec(t, back, math.Vec3{}, 1e-5, "inverted absolute applied to bone origin")
}

func TestUpdateMatrixPropagatesToChildren(t *testing.T) {
	s := New("test")
	root := NewBone("root", s, nil, math.Identity())
	child := NewBone("child", s, root, math.Translate(0, 1, 0))

	root.UpdateMatrix(math.Translate(5, 0, 0), true)

	nearVec(t, child.AbsoluteTransform().Translation(), math.Vec3{X: 5, Y: 1}, 1e-6, "child absolute")
}

func TestPoseMatrixAppliesAboveRoots(t *testing.T) {
	s := New("test")
	root := NewBone("root", s, nil, math.Translate(1, 0, 0))
	child := NewBone("child", s, root, math.Translate(0, 1, 0))

	s.SetPoseMatrix(math.Translate(0, 0, 3))
	s.ComputeAbsoluteTransforms()

	nearVec(t, root.AbsoluteTransform().Translation(), math.Vec3{X: 1, Z: 3}, 1e-6, "root absolute")
	nearVec(t, child.AbsoluteTransform().Translation(), math.Vec3{X: 1, Y: 1, Z: 3}, 1e-6, "child absolute")
}

func TestTranslateLocal(t *testing.T) {
	s := New("test")
	b := NewBone("root", s, nil, math.Translate(1, 2, 3))

	b.Translate(math.Vec3{X: 1, Y: -1, Z: 0}, SpaceLocal, nil)

	nearVec(t, b.LocalMatrix().Translation(), math.Vec3{X: 2, Y: 1, Z: 3}, 1e-6, "local translation")
}

func TestTranslateWorldUnderRotatedParent(t *testing.T) {
	s := New("test")
	parent := NewBone("parent", s, nil, math.RotateAxis([3]float32{0, 1, 0}, pi/2))
	child := NewBone("child", s, parent, math.Identity())

	before := child.AbsolutePosition(nil)
	child.Translate(math.Vec3{X: 1}, SpaceWorld, nil)
	after := child.AbsolutePosition(nil)

	nearVec(t, after.Sub(before), math.Vec3{X: 1}, 1e-5, "world-space displacement")
}

func TestSetPositionWorld(t *testing.T) {
	s := New("test")
	parent := NewBone("parent", s, nil, math.Translate(3, 0, 0))
	child := NewBone("child", s, parent, math.Translate(0, 1, 0))

	child.SetPosition(math.Vec3{X: 5, Y: 5, Z: 5}, SpaceWorld, nil)

	nearVec(t, child.AbsolutePosition(nil), math.Vec3{X: 5, Y: 5, Z: 5}, 1e-5, "absolute position")
}

func TestScaleByKeepsChildWorldPositions(t *testing.T) {
	s := New("test")
	root := NewBone("root", s, nil, math.Identity())
	child := NewBone("child", s, root, math.Translate(0, 2, 0))

	root.ScaleBy(2, 2, 2, false)

	nearVec(t, root.Scale(), math.Vec3{X: 2, Y: 2, Z: 2}, 1e-6, "root scale")
	nearVec(t, child.Position(SpaceWorld, nil), math.Vec3{Y: 2}, 1e-5, "child world position")
	nearVec(t, child.Scale(), math.Vec3{X: 1, Y: 1, Z: 1}, 1e-6, "child scale")
}

func TestScaleByScalesChildOffsets(t *testing.T) {
	s := New("test")
	root := NewBone("root", s, nil, math.Identity())
	child := NewBone("child", s, root, math.Translate(0, 2, 0))

	root.ScaleBy(2, 2, 2, true)

	nearVec(t, child.Position(SpaceWorld, nil), math.Vec3{Y: 4}, 1e-5, "child world position")
	nearVec(t, child.Scale(), math.Vec3{X: 2, Y: 2, Z: 2}, 1e-6, "child scale")
}

func TestSetScaleIsAbsolute(t *testing.T) {
	s := New("test")
	b := NewBone("root", s, nil, math.Identity())

	b.ScaleBy(2, 2, 2, false)
	b.SetScale(3, 3, 3, false)

	nearVec(t, b.Scale(), math.Vec3{X: 3, Y: 3, Z: 3}, 1e-5, "scale vector")
	p := b.AbsoluteTransform().TransformVec3(math.Vec3{X: 1})
	nearVec(t, p, math.Vec3{X: 3}, 1e-5, "scaled x axis")
}

func TestRotateLocalPreservesTranslation(t *testing.T) {
	s := New("test")
	b := NewBone("root", s, nil, math.Translate(1, 2, 3))

	b.Rotate(math.Vec3{Y: 1}, pi/2, SpaceLocal, nil)

	nearVec(t, b.LocalMatrix().Translation(), math.Vec3{X: 1, Y: 2, Z: 3}, 1e-6, "local translation")
	nearVec(t, b.Direction(math.Vec3{X: 1}, nil), math.Vec3{Z: -1}, 1e-5, "rotated x axis")
}

func TestSetYawPitchRollReplacesRotation(t *testing.T) {
	s := New("test")
	b := NewBone("root", s, nil, math.Identity())

	// two successive sets must not accumulate
	b.SetYawPitchRoll(pi/4, 0, 0, SpaceLocal, nil)
	b.SetYawPitchRoll(pi/2, 0, 0, SpaceLocal, nil)

	nearVec(t, b.Direction(math.Vec3{X: 1}, nil), math.Vec3{Z: -1}, 1e-5, "x axis after yaw")
}

func TestReturnToRest(t *testing.T) {
	s := New("test")
	rest := math.Translate(0, 1, 0)
	b := NewBoneWithRest("root", s, nil, math.Identity(), rest)

	b.UpdateMatrix(math.Translate(9, 9, 9), true)
	b.ReturnToRest()

	nearVec(t, b.LocalMatrix().Translation(), math.Vec3{Y: 1}, 1e-6, "local translation")
}

func TestDirtyTracking(t *testing.T) {
	s := New("test")
	b := NewBone("root", s, nil, math.Identity())

	s.ClearDirty()
	if s.IsDirty() {
		t.Fatal("dirty after ClearDirty")
	}
	b.Translate(math.Vec3{X: 1}, SpaceLocal, nil)
	if !s.IsDirty() {
		t.Error("bone edit did not dirty the skeleton")
	}
}

func TestSkeletonReturnToRest(t *testing.T) {
	s := New("test")
	a := NewBoneWithRest("a", s, nil, math.Identity(), math.Translate(1, 0, 0))
	b := NewBoneWithRest("b", s, a, math.Identity(), math.Translate(0, 1, 0))

	s.ReturnToRest()

	nearVec(t, a.LocalMatrix().Translation(), math.Vec3{X: 1}, 1e-6, "bone a")
	nearVec(t, b.LocalMatrix().Translation(), math.Vec3{Y: 1}, 1e-6, "bone b")
}
