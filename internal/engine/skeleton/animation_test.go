package skeleton

import (
	"testing"

	"github.com/halcyon3d/halcyon/pkg/math"
)

func TestInterpolateTranslation(t *testing.T) {
	a := NewAnimation("move", 30)
	a.SetKeys([]AnimationKey{
		{Frame: 0, Value: math.Identity()},
		{Frame: 10, Value: math.Translate(10, 0, 0)},
	})

	nearVec(t, a.Interpolate(5).Translation(), math.Vec3{X: 5}, 1e-5, "midpoint")
	nearVec(t, a.Interpolate(-3).Translation(), math.Vec3{}, 1e-6, "clamped before first key")
	nearVec(t, a.Interpolate(42).Translation(), math.Vec3{X: 10}, 1e-6, "clamped after last key")
}

func TestInterpolateRotation(t *testing.T) {
	a := NewAnimation("turn", 30)
	a.SetKeys([]AnimationKey{
		{Frame: 0, Value: math.Identity()},
		{Frame: 10, Value: math.RotationYawPitchRoll(pi/2, 0, 0)},
	})

	// halfway through a quarter turn: the x axis points at 45 degrees
	m := a.Interpolate(5)
	p := m.TransformVec3(math.Vec3{X: 1})
	want := float32(0.70710678)
	if absf(p.X-want) > 1e-4 || absf(p.Z+want) > 1e-4 {
		t.Errorf("x axis at midpoint = %+v, want (%f, 0, %f)", p, want, -want)
	}
}

func TestCopyAnimationRange(t *testing.T) {
	s := New("test")
	source := NewBone("source", s, nil, math.Identity())
	dest := NewBone("dest", s, nil, math.Identity())

	src := NewAnimation("anim", 30)
	for f := 0; f <= 20; f += 5 {
		src.AppendKey(AnimationKey{Frame: f, Value: math.Translate(float32(f), 0, 0)})
	}
	src.CreateRange("walk", 5, 15)
	source.Animations = append(source.Animations, src)
	dest.Animations = append(dest.Animations, NewAnimation("anim", 30))

	if !dest.CopyAnimationRange(source, "walk", 100, false, nil) {
		t.Fatal("CopyAnimationRange failed")
	}

	keys := dest.Animations[0].Keys()
	if len(keys) != 3 {
		t.Fatalf("copied %d keys, want 3", len(keys))
	}
	if keys[0].Frame != 105 || keys[2].Frame != 115 {
		t.Errorf("key frames = %d..%d, want 105..115", keys[0].Frame, keys[2].Frame)
	}
	r := dest.Animations[0].Range("walk")
	if r == nil || r.From != 105 || r.To != 115 {
		t.Errorf("copied range = %+v, want 105..115", r)
	}
}

func TestCopyAnimationRangeMissing(t *testing.T) {
	s := New("test")
	source := NewBone("source", s, nil, math.Identity())
	dest := NewBone("dest", s, nil, math.Identity())

	if dest.CopyAnimationRange(source, "walk", 0, false, nil) {
		t.Error("copy succeeded with no source track")
	}

	source.Animations = append(source.Animations, NewAnimation("anim", 30))
	dest.Animations = append(dest.Animations, NewAnimation("anim", 30))
	if dest.CopyAnimationRange(source, "missing", 0, false, nil) {
		t.Error("copy succeeded with an unknown range")
	}
}

func TestCopyAnimationRangeRescalesByParentLength(t *testing.T) {
	s := New("test")
	sourceParent := NewBone("sp", s, nil, math.Identity())
	sourceParent.Length = 2
	source := NewBone("source", s, sourceParent, math.Identity())
	source.Length = 1

	destParent := NewBone("dp", s, nil, math.Identity())
	destParent.Length = 4
	dest := NewBone("dest", s, destParent, math.Identity())
	dest.Length = 2

	src := NewAnimation("anim", 30)
	src.AppendKey(AnimationKey{Frame: 0, Value: math.Translate(1, 1, 1)})
	src.CreateRange("walk", 0, 0)
	source.Animations = append(source.Animations, src)
	dest.Animations = append(dest.Animations, NewAnimation("anim", 30))

	if !dest.CopyAnimationRange(source, "walk", 0, true, nil) {
		t.Fatal("CopyAnimationRange failed")
	}

	got := dest.Animations[0].Keys()[0].Value.Translation()
	nearVec(t, got, math.Vec3{X: 2, Y: 2, Z: 2}, 1e-5, "rescaled translation")
}

func TestCopyAnimationRangeRescalesRootByDimensions(t *testing.T) {
	s := New("test")
	source := NewBone("source", s, nil, math.Identity())
	dest := NewBone("dest", s, nil, math.Identity())

	src := NewAnimation("anim", 30)
	src.AppendKey(AnimationKey{Frame: 0, Value: math.Translate(1, 2, 3)})
	src.CreateRange("walk", 0, 0)
	source.Animations = append(source.Animations, src)
	dest.Animations = append(dest.Animations, NewAnimation("anim", 30))

	ratio := math.Vec3{X: 2, Y: 1, Z: 0.5}
	if !dest.CopyAnimationRange(source, "walk", 0, true, &ratio) {
		t.Fatal("CopyAnimationRange failed")
	}

	got := dest.Animations[0].Keys()[0].Value.Translation()
	nearVec(t, got, math.Vec3{X: 2, Y: 2, Z: 1.5}, 1e-5, "rescaled translation")
}
