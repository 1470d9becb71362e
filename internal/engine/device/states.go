package device

import "github.com/halcyon3d/halcyon/internal/logger"

// depthCullingState records depth and culling settings until ApplyStates
// flushes them to the device in one pass.
type depthCullingState struct {
	depthTest bool
	depthMask bool
	depthFunc CompareFunc

	cullEnabled bool
	cullSet     bool
	cullFront   bool

	dirty bool
}

func (s *depthCullingState) reset() {
	s.depthTest = true
	s.depthMask = true
	s.depthFunc = CompareLessEqual
	s.cullSet = false
	s.dirty = true
}

func (s *depthCullingState) apply(ctx Context) {
	if !s.dirty {
		return
	}
	s.dirty = false

	if s.depthTest {
		ctx.Enable(CapDepthTest)
	} else {
		ctx.Disable(CapDepthTest)
	}
	ctx.DepthMask(s.depthMask)
	ctx.DepthFunc(s.depthFunc)

	if !s.cullSet {
		ctx.Disable(CapCullFace)
	} else if s.cullEnabled {
		ctx.Enable(CapCullFace)
		ctx.CullFace(s.cullFront)
	} else {
		ctx.Disable(CapCullFace)
	}
}

// alphaState records the blending mode until ApplyStates flushes it.
type alphaState struct {
	alphaBlend   bool
	blendSet     bool
	blendFactors [4]BlendFactor

	dirty bool
}

func (s *alphaState) reset() {
	s.alphaBlend = false
	s.blendSet = false
	s.dirty = true
}

func (s *alphaState) setBlendFunctions(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor) {
	factors := [4]BlendFactor{srcRGB, dstRGB, srcAlpha, dstAlpha}
	if s.blendSet && factors == s.blendFactors {
		return
	}
	s.blendFactors = factors
	s.blendSet = true
	s.dirty = true
}

func (s *alphaState) apply(ctx Context) {
	if !s.dirty {
		return
	}
	s.dirty = false

	if s.alphaBlend {
		ctx.Enable(CapBlend)
	} else {
		ctx.Disable(CapBlend)
	}
	if s.blendSet {
		ctx.BlendFuncSeparate(s.blendFactors[0], s.blendFactors[1], s.blendFactors[2], s.blendFactors[3])
	}
}

// stencilState records the stencil toggle until ApplyStates flushes it.
type stencilState struct {
	stencilTest bool
	dirty       bool
}

func (s *stencilState) reset() {
	s.stencilTest = false
	s.dirty = true
}

func (s *stencilState) apply(ctx Context) {
	if !s.dirty {
		return
	}
	s.dirty = false

	if s.stencilTest {
		ctx.Enable(CapStencilTest)
	} else {
		ctx.Disable(CapStencilTest)
	}
}

// ApplyStates flushes the pending depth, alpha and stencil records to the
// device. Draw calls do this implicitly.
func (e *Engine) ApplyStates() {
	e.depthCulling.apply(e.ctx)
	e.alphaState.apply(e.ctx)
	e.stencilState.apply(e.ctx)
}

// SetState configures face culling for the next draw. Culling direction
// follows CullBackFaces unless zOffset rendering flips it via force.
func (e *Engine) SetState(culling bool, force bool) {
	if !e.depthCulling.cullSet || e.depthCulling.cullEnabled != culling || force {
		e.depthCulling.cullSet = true
		e.depthCulling.cullEnabled = culling
		e.depthCulling.cullFront = !e.CullBackFaces
		e.depthCulling.dirty = true
	}
}

// SetDepthBuffer toggles depth testing.
func (e *Engine) SetDepthBuffer(enable bool) {
	if e.depthCulling.depthTest != enable {
		e.depthCulling.depthTest = enable
		e.depthCulling.dirty = true
	}
}

// DepthWrite reports whether depth writes are enabled.
func (e *Engine) DepthWrite() bool {
	return e.depthCulling.depthMask
}

// SetDepthWrite toggles depth writes.
func (e *Engine) SetDepthWrite(enable bool) {
	if e.depthCulling.depthMask != enable {
		e.depthCulling.depthMask = enable
		e.depthCulling.dirty = true
	}
}

// SetDepthFunctionToGreater accepts fragments farther than the stored depth.
func (e *Engine) SetDepthFunctionToGreater() {
	e.setDepthFunction(CompareGreater)
}

// SetDepthFunctionToGreaterOrEqual accepts fragments at or farther than the
// stored depth.
func (e *Engine) SetDepthFunctionToGreaterOrEqual() {
	e.setDepthFunction(CompareGreaterEqual)
}

// SetDepthFunctionToLess accepts fragments closer than the stored depth.
func (e *Engine) SetDepthFunctionToLess() {
	e.setDepthFunction(CompareLess)
}

// SetDepthFunctionToLessOrEqual accepts fragments at or closer than the
// stored depth.
func (e *Engine) SetDepthFunctionToLessOrEqual() {
	e.setDepthFunction(CompareLessEqual)
}

func (e *Engine) setDepthFunction(fn CompareFunc) {
	if e.depthCulling.depthFunc != fn {
		e.depthCulling.depthFunc = fn
		e.depthCulling.dirty = true
	}
}

// SetColorWrite toggles writes to the color planes.
func (e *Engine) SetColorWrite(enable bool) {
	e.ctx.ColorMask(enable, enable, enable, enable)
}

// SetStencilBuffer toggles stencil testing.
func (e *Engine) SetStencilBuffer(enable bool) {
	if e.stencilState.stencilTest != enable {
		e.stencilState.stencilTest = enable
		e.stencilState.dirty = true
	}
}

// SetAlphaMode selects the blending equation for subsequent draws. Depth
// writes are enabled only in AlphaDisable mode.
func (e *Engine) SetAlphaMode(mode int) {
	if e.alphaMode == mode {
		return
	}

	switch mode {
	case AlphaDisable:
		e.SetDepthWrite(true)
		e.alphaState.alphaBlend = false
		e.alphaState.dirty = true
	case AlphaAdd:
		e.SetDepthWrite(false)
		e.alphaState.setBlendFunctions(BlendSrcAlpha, BlendOne, BlendZero, BlendOne)
		e.alphaState.alphaBlend = true
		e.alphaState.dirty = true
	case AlphaCombine:
		e.SetDepthWrite(false)
		e.alphaState.setBlendFunctions(BlendSrcAlpha, BlendOneMinusSrcAlpha, BlendOne, BlendOne)
		e.alphaState.alphaBlend = true
		e.alphaState.dirty = true
	case AlphaSubtract:
		e.SetDepthWrite(false)
		e.alphaState.setBlendFunctions(BlendZero, BlendOneMinusSrcColor, BlendOne, BlendOne)
		e.alphaState.alphaBlend = true
		e.alphaState.dirty = true
	case AlphaMultiply:
		e.SetDepthWrite(false)
		e.alphaState.setBlendFunctions(BlendDstColor, BlendZero, BlendOne, BlendOne)
		e.alphaState.alphaBlend = true
		e.alphaState.dirty = true
	case AlphaMaximized:
		e.SetDepthWrite(false)
		e.alphaState.setBlendFunctions(BlendSrcAlpha, BlendOneMinusSrcColor, BlendOne, BlendOne)
		e.alphaState.alphaBlend = true
		e.alphaState.dirty = true
	case AlphaOneOne:
		e.SetDepthWrite(false)
		e.alphaState.setBlendFunctions(BlendOne, BlendOne, BlendZero, BlendOne)
		e.alphaState.alphaBlend = true
		e.alphaState.dirty = true
	}

	e.alphaMode = mode
}

// AlphaMode returns the current blending mode.
func (e *Engine) AlphaMode() int {
	return e.alphaMode
}

// SetAlphaTesting toggles shader-side alpha testing.
func (e *Engine) SetAlphaTesting(enable bool) {
	e.alphaTest = enable
}

// AlphaTesting reports whether alpha testing is on.
func (e *Engine) AlphaTesting() bool {
	return e.alphaTest
}

func (e *Engine) indexType() IndexType {
	if e.uintIndicesSet {
		return IndexUnsignedInt
	}
	return IndexUnsignedShort
}

func (e *Engine) indexByteOffset(indexStart int) int {
	if e.uintIndicesSet {
		return indexStart * 4
	}
	return indexStart * 2
}

// Draw submits an indexed draw of the bound buffers. useTriangles false
// draws lines for wireframe rendering. instancesCount above zero issues an
// instanced draw when the device supports it; otherwise a single instance
// is drawn and a warning is logged.
func (e *Engine) Draw(useTriangles bool, indexStart, indexCount, instancesCount int) {
	e.ApplyStates()
	e.drawCalls++

	mode := Triangles
	if !useTriangles {
		mode = Lines
	}

	if instancesCount > 0 {
		if !e.caps.InstancedArrays {
			logger.Warn("instanced draw requested without device support, drawing one instance")
			e.ctx.DrawElements(mode, int32(indexCount), e.indexType(), e.indexByteOffset(indexStart))
			return
		}
		e.ctx.DrawElementsInstanced(mode, int32(indexCount), e.indexType(),
			e.indexByteOffset(indexStart), int32(instancesCount))
		return
	}

	e.ctx.DrawElements(mode, int32(indexCount), e.indexType(), e.indexByteOffset(indexStart))
}

// DrawUnIndexed submits a non-indexed draw of the bound vertex streams.
func (e *Engine) DrawUnIndexed(useTriangles bool, verticesStart, verticesCount, instancesCount int) {
	e.ApplyStates()
	e.drawCalls++

	mode := Triangles
	if !useTriangles {
		mode = Lines
	}

	if instancesCount > 0 {
		if !e.caps.InstancedArrays {
			logger.Warn("instanced draw requested without device support, drawing one instance")
			e.ctx.DrawArrays(mode, int32(verticesStart), int32(verticesCount))
			return
		}
		e.ctx.DrawArraysInstanced(mode, int32(verticesStart), int32(verticesCount), int32(instancesCount))
		return
	}

	e.ctx.DrawArrays(mode, int32(verticesStart), int32(verticesCount))
}

// DrawPointClouds submits a point-mode draw of the bound vertex streams.
func (e *Engine) DrawPointClouds(verticesStart, verticesCount, instancesCount int) {
	e.ApplyStates()
	e.drawCalls++

	if instancesCount > 0 && e.caps.InstancedArrays {
		e.ctx.DrawArraysInstanced(Points, int32(verticesStart), int32(verticesCount), int32(instancesCount))
		return
	}
	e.ctx.DrawArrays(Points, int32(verticesStart), int32(verticesCount))
}
