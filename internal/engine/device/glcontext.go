package device

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// GLContext implements Context on a current OpenGL 4.1 core context. It is
// the only file that touches GL numeric constants; everything above speaks
// the package enums.
type GLContext struct{}

// NewGLContext initializes the GL bindings for the current context.
func NewGLContext() (*GLContext, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return &GLContext{}, nil
}

// EXT_texture_filter_anisotropic constants; not exported by the 4.1 core
// bindings.
const (
	glTextureMaxAnisotropyExt    = 0x84FE
	glMaxTextureMaxAnisotropyExt = 0x84FF
)

var glBufferTargets = map[BufferTarget]uint32{
	ArrayBuffer:        gl.ARRAY_BUFFER,
	ElementArrayBuffer: gl.ELEMENT_ARRAY_BUFFER,
}

var glUsages = map[BufferUsage]uint32{
	StaticDraw:  gl.STATIC_DRAW,
	DynamicDraw: gl.DYNAMIC_DRAW,
}

var glTextureTargets = map[TextureTarget]uint32{
	Texture2D:      gl.TEXTURE_2D,
	TextureCubeMap: gl.TEXTURE_CUBE_MAP,
}

var glFilters = map[TextureFilter]int32{
	FilterNearest:             gl.NEAREST,
	FilterLinear:              gl.LINEAR,
	FilterNearestMipmapLinear: gl.NEAREST_MIPMAP_LINEAR,
	FilterLinearMipmapNearest: gl.LINEAR_MIPMAP_NEAREST,
	FilterLinearMipmapLinear:  gl.LINEAR_MIPMAP_LINEAR,
}

var glWraps = map[TextureWrap]int32{
	WrapRepeat:         gl.REPEAT,
	WrapClampToEdge:    gl.CLAMP_TO_EDGE,
	WrapMirroredRepeat: gl.MIRRORED_REPEAT,
}

var glFormats = map[TextureFormat]uint32{
	FormatRGBA:           gl.RGBA,
	FormatRGB:            gl.RGB,
	FormatAlpha:          gl.RED,
	FormatLuminance:      gl.RED,
	FormatLuminanceAlpha: gl.RG,
}

var glTexelTypes = map[TexelType]uint32{
	TexelUnsignedByte: gl.UNSIGNED_BYTE,
	TexelFloat:        gl.FLOAT,
	TexelHalfFloat:    gl.HALF_FLOAT,
}

var glAttachments = map[Attachment]uint32{
	ColorAttachment0:       gl.COLOR_ATTACHMENT0,
	DepthAttachment:        gl.DEPTH_ATTACHMENT,
	DepthStencilAttachment: gl.DEPTH_STENCIL_ATTACHMENT,
}

var glRenderbufferFormats = map[RenderbufferFormat]uint32{
	RenderbufferDepth16:      gl.DEPTH_COMPONENT16,
	RenderbufferDepthStencil: gl.DEPTH24_STENCIL8,
}

var glCapabilities = map[Capability]uint32{
	CapDepthTest:   gl.DEPTH_TEST,
	CapCullFace:    gl.CULL_FACE,
	CapBlend:       gl.BLEND,
	CapStencilTest: gl.STENCIL_TEST,
	CapScissorTest: gl.SCISSOR_TEST,
}

var glCompareFuncs = map[CompareFunc]uint32{
	CompareNever:        gl.NEVER,
	CompareLess:         gl.LESS,
	CompareEqual:        gl.EQUAL,
	CompareLessEqual:    gl.LEQUAL,
	CompareGreater:      gl.GREATER,
	CompareNotEqual:     gl.NOTEQUAL,
	CompareGreaterEqual: gl.GEQUAL,
	CompareAlways:       gl.ALWAYS,
}

var glBlendFactors = map[BlendFactor]uint32{
	BlendZero:             gl.ZERO,
	BlendOne:              gl.ONE,
	BlendSrcAlpha:         gl.SRC_ALPHA,
	BlendOneMinusSrcAlpha: gl.ONE_MINUS_SRC_ALPHA,
	BlendOneMinusSrcColor: gl.ONE_MINUS_SRC_COLOR,
	BlendDstColor:         gl.DST_COLOR,
}

var glPrimitives = map[PrimitiveMode]uint32{
	Triangles: gl.TRIANGLES,
	Lines:     gl.LINES,
	Points:    gl.POINTS,
}

var glIndexTypes = map[IndexType]uint32{
	IndexUnsignedShort: gl.UNSIGNED_SHORT,
	IndexUnsignedInt:   gl.UNSIGNED_INT,
}

var glIntParams = map[IntParam]uint32{
	ParamMaxTextureImageUnits:  gl.MAX_TEXTURE_IMAGE_UNITS,
	ParamMaxTextureSize:        gl.MAX_TEXTURE_SIZE,
	ParamMaxCubeMapTextureSize: gl.MAX_CUBE_MAP_TEXTURE_SIZE,
	ParamMaxRenderbufferSize:   gl.MAX_RENDERBUFFER_SIZE,
	ParamMaxVertexAttribs:      gl.MAX_VERTEX_ATTRIBS,
	ParamMaxAnisotropy:         glMaxTextureMaxAnisotropyExt,
}

var glStringParams = map[StringParam]uint32{
	ParamVersion:  gl.VERSION,
	ParamRenderer: gl.RENDERER,
	ParamVendor:   gl.VENDOR,
}

func (c *GLContext) CreateBuffer() BufferHandle {
	var id uint32
	gl.GenBuffers(1, &id)
	return BufferHandle(id)
}

func (c *GLContext) BindBuffer(target BufferTarget, buffer BufferHandle) {
	gl.BindBuffer(glBufferTargets[target], uint32(buffer))
}

func (c *GLContext) BufferDataFloat(target BufferTarget, data []float32, usage BufferUsage) {
	gl.BufferData(glBufferTargets[target], len(data)*4, gl.Ptr(data), glUsages[usage])
}

func (c *GLContext) BufferDataUint16(target BufferTarget, data []uint16, usage BufferUsage) {
	gl.BufferData(glBufferTargets[target], len(data)*2, gl.Ptr(data), glUsages[usage])
}

func (c *GLContext) BufferDataUint32(target BufferTarget, data []uint32, usage BufferUsage) {
	gl.BufferData(glBufferTargets[target], len(data)*4, gl.Ptr(data), glUsages[usage])
}

func (c *GLContext) BufferSubDataFloat(target BufferTarget, offsetBytes int, data []float32) {
	gl.BufferSubData(glBufferTargets[target], offsetBytes, len(data)*4, gl.Ptr(data))
}

func (c *GLContext) DeleteBuffer(buffer BufferHandle) {
	id := uint32(buffer)
	gl.DeleteBuffers(1, &id)
}

func (c *GLContext) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (c *GLContext) DisableVertexAttribArray(index uint32) {
	gl.DisableVertexAttribArray(index)
}

func (c *GLContext) VertexAttribPointer(index uint32, size int32, normalized bool, strideBytes, offsetBytes int32) {
	gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, normalized, strideBytes, uintptr(offsetBytes))
}

func (c *GLContext) VertexAttribDivisor(index uint32, divisor uint32) {
	gl.VertexAttribDivisor(index, divisor)
}

func (c *GLContext) CreateTexture() TextureHandle {
	var id uint32
	gl.GenTextures(1, &id)
	return TextureHandle(id)
}

func (c *GLContext) BindTexture(target TextureTarget, texture TextureHandle) {
	gl.BindTexture(glTextureTargets[target], uint32(texture))
}

func (c *GLContext) ActiveTexture(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
}

func (c *GLContext) TexImage2D(target TextureTarget, level, width, height int, format TextureFormat, texelType TexelType, data []byte) {
	gl.TexImage2D(glTextureTargets[target], int32(level), int32(glFormats[format]),
		int32(width), int32(height), 0, glFormats[format], glTexelTypes[texelType], glPixels(data))
}

func (c *GLContext) TexImage2DCubeFace(face, level, width, height int, format TextureFormat, texelType TexelType, data []byte) {
	gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), int32(level), int32(glFormats[format]),
		int32(width), int32(height), 0, glFormats[format], glTexelTypes[texelType], glPixels(data))
}

func glPixels(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}

func (c *GLContext) TexMinFilter(target TextureTarget, filter TextureFilter) {
	gl.TexParameteri(glTextureTargets[target], gl.TEXTURE_MIN_FILTER, glFilters[filter])
}

func (c *GLContext) TexMagFilter(target TextureTarget, filter TextureFilter) {
	gl.TexParameteri(glTextureTargets[target], gl.TEXTURE_MAG_FILTER, glFilters[filter])
}

func (c *GLContext) TexWrap(target TextureTarget, s, t TextureWrap) {
	gl.TexParameteri(glTextureTargets[target], gl.TEXTURE_WRAP_S, glWraps[s])
	gl.TexParameteri(glTextureTargets[target], gl.TEXTURE_WRAP_T, glWraps[t])
}

func (c *GLContext) TexAnisotropy(target TextureTarget, level float32) {
	gl.TexParameterf(glTextureTargets[target], glTextureMaxAnisotropyExt, level)
}

func (c *GLContext) GenerateMipmap(target TextureTarget) {
	gl.GenerateMipmap(glTextureTargets[target])
}

func (c *GLContext) UnpackFlipY(flip bool) {
	// Desktop GL has no UNPACK_FLIP_Y; callers pre-flip rows. Kept as a
	// no-op so the command stream matches across backends.
	_ = flip
}

func (c *GLContext) UnpackAlignment(alignment int32) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, alignment)
}

func (c *GLContext) DeleteTexture(texture TextureHandle) {
	id := uint32(texture)
	gl.DeleteTextures(1, &id)
}

func (c *GLContext) CreateFramebuffer() FramebufferHandle {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return FramebufferHandle(id)
}

func (c *GLContext) BindFramebuffer(framebuffer FramebufferHandle) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(framebuffer))
}

func (c *GLContext) FramebufferTexture2D(attachment Attachment, texture TextureHandle, level int) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, glAttachments[attachment], gl.TEXTURE_2D, uint32(texture), int32(level))
}

func (c *GLContext) FramebufferTextureCubeFace(attachment Attachment, face int, texture TextureHandle, level int) {
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, glAttachments[attachment],
		gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(face), uint32(texture), int32(level))
}

func (c *GLContext) DeleteFramebuffer(framebuffer FramebufferHandle) {
	id := uint32(framebuffer)
	gl.DeleteFramebuffers(1, &id)
}

func (c *GLContext) CreateRenderbuffer() RenderbufferHandle {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	return RenderbufferHandle(id)
}

func (c *GLContext) BindRenderbuffer(renderbuffer RenderbufferHandle) {
	gl.BindRenderbuffer(gl.RENDERBUFFER, uint32(renderbuffer))
}

func (c *GLContext) RenderbufferStorage(format RenderbufferFormat, width, height int) {
	gl.RenderbufferStorage(gl.RENDERBUFFER, glRenderbufferFormats[format], int32(width), int32(height))
}

func (c *GLContext) FramebufferRenderbuffer(attachment Attachment, renderbuffer RenderbufferHandle) {
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, glAttachments[attachment], gl.RENDERBUFFER, uint32(renderbuffer))
}

func (c *GLContext) DeleteRenderbuffer(renderbuffer RenderbufferHandle) {
	id := uint32(renderbuffer)
	gl.DeleteRenderbuffers(1, &id)
}

func (c *GLContext) CreateShader(shaderType ShaderType) ShaderHandle {
	t := uint32(gl.VERTEX_SHADER)
	if shaderType == FragmentShader {
		t = gl.FRAGMENT_SHADER
	}
	return ShaderHandle(gl.CreateShader(t))
}

func (c *GLContext) ShaderSource(shader ShaderHandle, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(uint32(shader), 1, csources, nil)
	free()
}

func (c *GLContext) CompileShader(shader ShaderHandle) bool {
	gl.CompileShader(uint32(shader))
	var status int32
	gl.GetShaderiv(uint32(shader), gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (c *GLContext) ShaderInfoLog(shader ShaderHandle) string {
	var length int32
	gl.GetShaderiv(uint32(shader), gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(uint32(shader), length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (c *GLContext) DeleteShader(shader ShaderHandle) {
	gl.DeleteShader(uint32(shader))
}

func (c *GLContext) CreateProgram() ProgramHandle {
	return ProgramHandle(gl.CreateProgram())
}

func (c *GLContext) AttachShader(program ProgramHandle, shader ShaderHandle) {
	gl.AttachShader(uint32(program), uint32(shader))
}

func (c *GLContext) LinkProgram(program ProgramHandle) bool {
	gl.LinkProgram(uint32(program))
	var status int32
	gl.GetProgramiv(uint32(program), gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (c *GLContext) ProgramInfoLog(program ProgramHandle) string {
	var length int32
	gl.GetProgramiv(uint32(program), gl.INFO_LOG_LENGTH, &length)
	if length == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(uint32(program), length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (c *GLContext) UseProgram(program ProgramHandle) {
	gl.UseProgram(uint32(program))
}

func (c *GLContext) DeleteProgram(program ProgramHandle) {
	gl.DeleteProgram(uint32(program))
}

func (c *GLContext) GetUniformLocation(program ProgramHandle, name string) UniformLocation {
	return UniformLocation(gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00")))
}

func (c *GLContext) GetAttribLocation(program ProgramHandle, name string) int32 {
	return gl.GetAttribLocation(uint32(program), gl.Str(name+"\x00"))
}

func (c *GLContext) Uniform1i(location UniformLocation, v int32) {
	gl.Uniform1i(int32(location), v)
}

func (c *GLContext) Uniform1iv(location UniformLocation, v []int32) {
	gl.Uniform1iv(int32(location), int32(len(v)), &v[0])
}

func (c *GLContext) Uniform1f(location UniformLocation, v float32) {
	gl.Uniform1f(int32(location), v)
}

func (c *GLContext) Uniform2f(location UniformLocation, x, y float32) {
	gl.Uniform2f(int32(location), x, y)
}

func (c *GLContext) Uniform3f(location UniformLocation, x, y, z float32) {
	gl.Uniform3f(int32(location), x, y, z)
}

func (c *GLContext) Uniform4f(location UniformLocation, x, y, z, w float32) {
	gl.Uniform4f(int32(location), x, y, z, w)
}

func (c *GLContext) Uniform1fv(location UniformLocation, v []float32) {
	gl.Uniform1fv(int32(location), int32(len(v)), &v[0])
}

func (c *GLContext) UniformMatrix4fv(location UniformLocation, v []float32) {
	gl.UniformMatrix4fv(int32(location), int32(len(v)/16), false, &v[0])
}

func (c *GLContext) Enable(cap Capability) {
	gl.Enable(glCapabilities[cap])
}

func (c *GLContext) Disable(cap Capability) {
	gl.Disable(glCapabilities[cap])
}

func (c *GLContext) DepthFunc(fn CompareFunc) {
	gl.DepthFunc(glCompareFuncs[fn])
}

func (c *GLContext) DepthMask(write bool) {
	gl.DepthMask(write)
}

func (c *GLContext) ColorMask(r, g, b, a bool) {
	gl.ColorMask(r, g, b, a)
}

func (c *GLContext) CullFace(front bool) {
	if front {
		gl.CullFace(gl.FRONT)
	} else {
		gl.CullFace(gl.BACK)
	}
}

func (c *GLContext) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor) {
	gl.BlendFuncSeparate(glBlendFactors[srcRGB], glBlendFactors[dstRGB],
		glBlendFactors[srcAlpha], glBlendFactors[dstAlpha])
}

func (c *GLContext) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (c *GLContext) Scissor(x, y, width, height int32) {
	gl.Scissor(x, y, width, height)
}

func (c *GLContext) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (c *GLContext) ClearDepth(depth float32) {
	gl.ClearDepth(float64(depth))
}

func (c *GLContext) ClearStencil(stencil int32) {
	gl.ClearStencil(stencil)
}

func (c *GLContext) Clear(mask ClearMask) {
	var bits uint32
	if mask&ClearColorBit != 0 {
		bits |= gl.COLOR_BUFFER_BIT
	}
	if mask&ClearDepthBit != 0 {
		bits |= gl.DEPTH_BUFFER_BIT
	}
	if mask&ClearStencilBit != 0 {
		bits |= gl.STENCIL_BUFFER_BIT
	}
	gl.Clear(bits)
}

func (c *GLContext) Flush() {
	gl.Flush()
}

func (c *GLContext) DrawElements(mode PrimitiveMode, count int32, indexType IndexType, offsetBytes int) {
	gl.DrawElementsWithOffset(glPrimitives[mode], count, glIndexTypes[indexType], uintptr(offsetBytes))
}

func (c *GLContext) DrawArrays(mode PrimitiveMode, first, count int32) {
	gl.DrawArrays(glPrimitives[mode], first, count)
}

func (c *GLContext) DrawElementsInstanced(mode PrimitiveMode, count int32, indexType IndexType, offsetBytes int, instances int32) {
	gl.DrawElementsInstanced(glPrimitives[mode], count, glIndexTypes[indexType], gl.PtrOffset(offsetBytes), instances)
}

func (c *GLContext) DrawArraysInstanced(mode PrimitiveMode, first, count int32, instances int32) {
	gl.DrawArraysInstanced(glPrimitives[mode], first, count, instances)
}

func (c *GLContext) GetInteger(param IntParam) int32 {
	var v int32
	gl.GetIntegerv(glIntParams[param], &v)
	return v
}

func (c *GLContext) GetString(param StringParam) string {
	if param == ParamExtensions {
		var count int32
		gl.GetIntegerv(gl.NUM_EXTENSIONS, &count)
		exts := make([]string, 0, count)
		for i := int32(0); i < count; i++ {
			exts = append(exts, gl.GoStr(gl.GetStringi(gl.EXTENSIONS, uint32(i))))
		}
		return strings.Join(exts, " ")
	}
	return gl.GoStr(gl.GetString(glStringParams[param]))
}
