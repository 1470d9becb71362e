// Package device wraps a graphics context behind a state-cache engine:
// redundant binds, pointer setups, program switches and texture activations
// are filtered out before they reach the driver. The Context interface is a
// closed enumeration of device commands; the OpenGL mapping lives in
// glcontext.go and tests substitute a recording implementation.
package device

// Handles are opaque device object names. Zero is the null object.
type (
	BufferHandle       uint32
	TextureHandle      uint32
	ProgramHandle      uint32
	ShaderHandle       uint32
	FramebufferHandle  uint32
	RenderbufferHandle uint32
)

// UniformLocation is a resolved uniform slot. Negative means not found.
type UniformLocation int32

// BufferTarget selects which binding point a buffer operation addresses.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// BufferUsage is the upload frequency hint.
type BufferUsage int

const (
	StaticDraw BufferUsage = iota
	DynamicDraw
)

// TextureTarget selects the texture binding point.
type TextureTarget int

const (
	Texture2D TextureTarget = iota
	TextureCubeMap
)

// TextureFilter is a minification or magnification filter.
type TextureFilter int

const (
	FilterNearest TextureFilter = iota
	FilterLinear
	FilterNearestMipmapLinear
	FilterLinearMipmapNearest
	FilterLinearMipmapLinear
)

// TextureWrap is an addressing mode for a texture axis.
type TextureWrap int

const (
	WrapRepeat TextureWrap = iota
	WrapClampToEdge
	WrapMirroredRepeat
)

// TextureFormat is a texel component layout.
type TextureFormat int

const (
	FormatRGBA TextureFormat = iota
	FormatRGB
	FormatAlpha
	FormatLuminance
	FormatLuminanceAlpha
)

// TexelType is the component storage type of an upload.
type TexelType int

const (
	TexelUnsignedByte TexelType = iota
	TexelFloat
	TexelHalfFloat
)

// Attachment selects a framebuffer attachment point.
type Attachment int

const (
	ColorAttachment0 Attachment = iota
	DepthAttachment
	DepthStencilAttachment
)

// RenderbufferFormat is a renderbuffer storage layout.
type RenderbufferFormat int

const (
	RenderbufferDepth16 RenderbufferFormat = iota
	RenderbufferDepthStencil
)

// ShaderType distinguishes the two pipeline stages.
type ShaderType int

const (
	VertexShader ShaderType = iota
	FragmentShader
)

// Capability is a toggleable device feature.
type Capability int

const (
	CapDepthTest Capability = iota
	CapCullFace
	CapBlend
	CapStencilTest
	CapScissorTest
)

// CompareFunc is a depth/stencil comparison.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// BlendFactor is one operand of the blend equation.
type BlendFactor int

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendOneMinusSrcColor
	BlendDstColor
)

// PrimitiveMode selects the assembly of a draw call.
type PrimitiveMode int

const (
	Triangles PrimitiveMode = iota
	Lines
	Points
)

// IndexType is the element width of an indexed draw.
type IndexType int

const (
	IndexUnsignedShort IndexType = iota
	IndexUnsignedInt
)

// ClearMask selects the planes affected by Clear.
type ClearMask int

const (
	ClearColorBit ClearMask = 1 << iota
	ClearDepthBit
	ClearStencilBit
)

// IntParam is a queryable integer device limit.
type IntParam int

const (
	ParamMaxTextureImageUnits IntParam = iota
	ParamMaxTextureSize
	ParamMaxCubeMapTextureSize
	ParamMaxRenderbufferSize
	ParamMaxVertexAttribs
	ParamMaxAnisotropy
)

// StringParam is a queryable device string.
type StringParam int

const (
	ParamVersion StringParam = iota
	ParamRenderer
	ParamVendor
	ParamExtensions
)

// Context is the closed command set the engine issues to the device. Every
// call maps one to one onto a driver call; all dedup happens above it.
type Context interface {
	// Buffers
	CreateBuffer() BufferHandle
	BindBuffer(target BufferTarget, buffer BufferHandle)
	BufferDataFloat(target BufferTarget, data []float32, usage BufferUsage)
	BufferDataUint16(target BufferTarget, data []uint16, usage BufferUsage)
	BufferDataUint32(target BufferTarget, data []uint32, usage BufferUsage)
	BufferSubDataFloat(target BufferTarget, offsetBytes int, data []float32)
	DeleteBuffer(buffer BufferHandle)

	// Vertex attributes
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, normalized bool, strideBytes, offsetBytes int32)
	VertexAttribDivisor(index uint32, divisor uint32)

	// Textures
	CreateTexture() TextureHandle
	BindTexture(target TextureTarget, texture TextureHandle)
	ActiveTexture(unit int)
	TexImage2D(target TextureTarget, level, width, height int, format TextureFormat, texelType TexelType, data []byte)
	TexImage2DCubeFace(face, level, width, height int, format TextureFormat, texelType TexelType, data []byte)
	TexMinFilter(target TextureTarget, filter TextureFilter)
	TexMagFilter(target TextureTarget, filter TextureFilter)
	TexWrap(target TextureTarget, s, t TextureWrap)
	TexAnisotropy(target TextureTarget, level float32)
	GenerateMipmap(target TextureTarget)
	UnpackFlipY(flip bool)
	UnpackAlignment(alignment int32)
	DeleteTexture(texture TextureHandle)

	// Framebuffers
	CreateFramebuffer() FramebufferHandle
	BindFramebuffer(framebuffer FramebufferHandle)
	FramebufferTexture2D(attachment Attachment, texture TextureHandle, level int)
	FramebufferTextureCubeFace(attachment Attachment, face int, texture TextureHandle, level int)
	DeleteFramebuffer(framebuffer FramebufferHandle)
	CreateRenderbuffer() RenderbufferHandle
	BindRenderbuffer(renderbuffer RenderbufferHandle)
	RenderbufferStorage(format RenderbufferFormat, width, height int)
	FramebufferRenderbuffer(attachment Attachment, renderbuffer RenderbufferHandle)
	DeleteRenderbuffer(renderbuffer RenderbufferHandle)

	// Programs
	CreateShader(shaderType ShaderType) ShaderHandle
	ShaderSource(shader ShaderHandle, source string)
	CompileShader(shader ShaderHandle) bool
	ShaderInfoLog(shader ShaderHandle) string
	DeleteShader(shader ShaderHandle)
	CreateProgram() ProgramHandle
	AttachShader(program ProgramHandle, shader ShaderHandle)
	LinkProgram(program ProgramHandle) bool
	ProgramInfoLog(program ProgramHandle) string
	UseProgram(program ProgramHandle)
	DeleteProgram(program ProgramHandle)
	GetUniformLocation(program ProgramHandle, name string) UniformLocation
	GetAttribLocation(program ProgramHandle, name string) int32

	// Uniforms
	Uniform1i(location UniformLocation, v int32)
	Uniform1iv(location UniformLocation, v []int32)
	Uniform1f(location UniformLocation, v float32)
	Uniform2f(location UniformLocation, x, y float32)
	Uniform3f(location UniformLocation, x, y, z float32)
	Uniform4f(location UniformLocation, x, y, z, w float32)
	Uniform1fv(location UniformLocation, v []float32)
	UniformMatrix4fv(location UniformLocation, v []float32)

	// Fixed-function state
	Enable(cap Capability)
	Disable(cap Capability)
	DepthFunc(fn CompareFunc)
	DepthMask(write bool)
	ColorMask(r, g, b, a bool)
	CullFace(front bool)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor)

	// Frame
	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float32)
	ClearStencil(stencil int32)
	Clear(mask ClearMask)
	Flush()

	// Draws
	DrawElements(mode PrimitiveMode, count int32, indexType IndexType, offsetBytes int)
	DrawArrays(mode PrimitiveMode, first, count int32)
	DrawElementsInstanced(mode PrimitiveMode, count int32, indexType IndexType, offsetBytes int, instances int32)
	DrawArraysInstanced(mode PrimitiveMode, first, count int32, instances int32)

	// Queries
	GetInteger(param IntParam) int32
	GetString(param StringParam) string
}
