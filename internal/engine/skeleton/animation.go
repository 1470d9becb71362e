package skeleton

import "github.com/halcyon3d/halcyon/pkg/math"

// AnimationKey is one matrix keyframe.
type AnimationKey struct {
	Frame int
	Value math.Mat4
}

// AnimationRange names a frame interval inside an animation's key list.
type AnimationRange struct {
	Name string
	From int
	To   int
}

// Animation is a matrix keyframe track targeting a bone's local matrix.
type Animation struct {
	Name           string
	FramePerSecond int

	keys    []AnimationKey
	ranges  map[string]*AnimationRange
	running bool
}

// NewAnimation creates an empty matrix track.
func NewAnimation(name string, framePerSecond int) *Animation {
	return &Animation{
		Name:           name,
		FramePerSecond: framePerSecond,
		ranges:         make(map[string]*AnimationRange),
	}
}

// Keys returns the keyframe list.
func (a *Animation) Keys() []AnimationKey {
	return a.keys
}

// SetKeys replaces the keyframe list.
func (a *Animation) SetKeys(keys []AnimationKey) {
	a.keys = keys
}

// AppendKey adds one keyframe at the end of the list.
func (a *Animation) AppendKey(key AnimationKey) {
	a.keys = append(a.keys, key)
}

// Range returns the named range, or nil.
func (a *Animation) Range(name string) *AnimationRange {
	return a.ranges[name]
}

// CreateRange registers a named frame interval.
func (a *Animation) CreateRange(name string, from, to int) {
	a.ranges[name] = &AnimationRange{Name: name, From: from, To: to}
}

// Start marks the track as playing.
func (a *Animation) Start() {
	a.running = true
}

// Stop marks the track as stopped.
func (a *Animation) Stop() {
	a.running = false
}

// IsStopped reports whether the track is not currently playing.
func (a *Animation) IsStopped() bool {
	return !a.running
}

// Interpolate samples the track at frame, slerping rotation and lerping
// scale and translation between the surrounding keys.
func (a *Animation) Interpolate(frame float32) math.Mat4 {
	if len(a.keys) == 0 {
		return math.Identity()
	}
	if len(a.keys) == 1 || frame <= float32(a.keys[0].Frame) {
		return a.keys[0].Value
	}

	last := a.keys[len(a.keys)-1]
	if frame >= float32(last.Frame) {
		return last.Value
	}

	prev := 0
	for i := 1; i < len(a.keys); i++ {
		if float32(a.keys[i].Frame) > frame {
			break
		}
		prev = i
	}
	k0 := a.keys[prev]
	k1 := a.keys[prev+1]

	t := float32(0)
	if k1.Frame != k0.Frame {
		t = (frame - float32(k0.Frame)) / float32(k1.Frame-k0.Frame)
	}

	s0, r0, p0, _ := k0.Value.Decompose()
	s1, r1, p1, _ := k1.Value.Decompose()

	scale := math.Vec3{
		X: s0.X + t*(s1.X-s0.X),
		Y: s0.Y + t*(s1.Y-s0.Y),
		Z: s0.Z + t*(s1.Z-s0.Z),
	}
	rotation := r0.Slerp(r1, t)
	position := math.Vec3{
		X: p0.X + t*(p1.X-p0.X),
		Y: p0.Y + t*(p1.Y-p0.Y),
		Z: p0.Z + t*(p1.Z-p0.Z),
	}

	m := rotation.ToMat4().Mul(math.Scale(scale.X, scale.Y, scale.Z))
	m.SetTranslation(position)
	return m
}

// CopyAnimationRange copies the named range of the source bone's first
// animation track into this bone's first track, offsetting frames and
// optionally rescaling translations. Non-root bones rescale by the ratio of
// parent bone lengths; root bones rescale by skelDimensionsRatio when
// provided. Returns false when the source bone has no usable track or the
// range does not exist.
func (b *Bone) CopyAnimationRange(source *Bone, rangeName string, frameOffset int, rescaleAsRequired bool, skelDimensionsRatio *math.Vec3) bool {
	if len(source.Animations) == 0 || source.Animations[0] == nil {
		return false
	}
	if len(b.Animations) == 0 || b.Animations[0] == nil {
		return false
	}

	sourceRange := source.Animations[0].Range(rangeName)
	if sourceRange == nil {
		return false
	}
	from := sourceRange.From
	to := sourceRange.To
	sourceKeys := source.Animations[0].Keys()

	sourceBoneLength := source.Length
	sourceParent := source.Parent()
	parent := b.Parent()
	parentScalingReqd := rescaleAsRequired && sourceParent != nil &&
		sourceBoneLength > 0 && b.Length > 0 && sourceBoneLength != b.Length
	parentRatio := float32(0)
	if parentScalingReqd {
		parentRatio = float32(parent.Length) / float32(sourceParent.Length)
	}

	dimensionsScalingReqd := rescaleAsRequired && parent == nil &&
		skelDimensionsRatio != nil &&
		(skelDimensionsRatio.X != 1 || skelDimensionsRatio.Y != 1 || skelDimensionsRatio.Z != 1)

	dest := b.Animations[0]

	for _, orig := range sourceKeys {
		if orig.Frame < from || orig.Frame > to {
			continue
		}

		mat := orig.Value
		if rescaleAsRequired {
			if parentScalingReqd {
				t := mat.Translation()
				mat.SetTranslation(t.Scale(parentRatio))
			} else if dimensionsScalingReqd {
				t := mat.Translation()
				mat.SetTranslation(math.Vec3{
					X: t.X * skelDimensionsRatio.X,
					Y: t.Y * skelDimensionsRatio.Y,
					Z: t.Z * skelDimensionsRatio.Z,
				})
			}
		}
		dest.AppendKey(AnimationKey{Frame: orig.Frame + frameOffset, Value: mat})
	}
	dest.CreateRange(rangeName, from+frameOffset, to+frameOffset)
	return true
}
