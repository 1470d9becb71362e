package device

// recordingContext counts every command reaching the device, so tests can
// assert that the engine's caches filtered redundant calls out.
type recordingContext struct {
	calls map[string]int

	nextHandle uint32

	extensions string

	failCompile bool
	failLink    bool

	attribLocations  map[string]int32
	uniformLocations map[string]UniformLocation
}

func newRecordingContext() *recordingContext {
	return &recordingContext{
		calls:            make(map[string]int),
		extensions:       "GL_ARB_instanced_arrays GL_ARB_texture_float",
		attribLocations:  make(map[string]int32),
		uniformLocations: make(map[string]UniformLocation),
	}
}

func (c *recordingContext) record(name string) {
	c.calls[name]++
}

func (c *recordingContext) handle() uint32 {
	c.nextHandle++
	return c.nextHandle
}

func (c *recordingContext) CreateBuffer() BufferHandle {
	c.record("CreateBuffer")
	return BufferHandle(c.handle())
}

func (c *recordingContext) BindBuffer(target BufferTarget, buffer BufferHandle) {
	c.record("BindBuffer")
}

func (c *recordingContext) BufferDataFloat(target BufferTarget, data []float32, usage BufferUsage) {
	c.record("BufferDataFloat")
}

func (c *recordingContext) BufferDataUint16(target BufferTarget, data []uint16, usage BufferUsage) {
	c.record("BufferDataUint16")
}

func (c *recordingContext) BufferDataUint32(target BufferTarget, data []uint32, usage BufferUsage) {
	c.record("BufferDataUint32")
}

func (c *recordingContext) BufferSubDataFloat(target BufferTarget, offsetBytes int, data []float32) {
	c.record("BufferSubDataFloat")
}

func (c *recordingContext) DeleteBuffer(buffer BufferHandle) {
	c.record("DeleteBuffer")
}

func (c *recordingContext) EnableVertexAttribArray(index uint32) {
	c.record("EnableVertexAttribArray")
}

func (c *recordingContext) DisableVertexAttribArray(index uint32) {
	c.record("DisableVertexAttribArray")
}

func (c *recordingContext) VertexAttribPointer(index uint32, size int32, normalized bool, strideBytes, offsetBytes int32) {
	c.record("VertexAttribPointer")
}

func (c *recordingContext) VertexAttribDivisor(index uint32, divisor uint32) {
	c.record("VertexAttribDivisor")
}

func (c *recordingContext) CreateTexture() TextureHandle {
	c.record("CreateTexture")
	return TextureHandle(c.handle())
}

func (c *recordingContext) BindTexture(target TextureTarget, texture TextureHandle) {
	c.record("BindTexture")
}

func (c *recordingContext) ActiveTexture(unit int) {
	c.record("ActiveTexture")
}

func (c *recordingContext) TexImage2D(target TextureTarget, level, width, height int, format TextureFormat, texelType TexelType, data []byte) {
	c.record("TexImage2D")
}

func (c *recordingContext) TexImage2DCubeFace(face, level, width, height int, format TextureFormat, texelType TexelType, data []byte) {
	c.record("TexImage2DCubeFace")
}

func (c *recordingContext) TexMinFilter(target TextureTarget, filter TextureFilter) {
	c.record("TexMinFilter")
}

func (c *recordingContext) TexMagFilter(target TextureTarget, filter TextureFilter) {
	c.record("TexMagFilter")
}

func (c *recordingContext) TexWrap(target TextureTarget, s, t TextureWrap) {
	c.record("TexWrap")
}

func (c *recordingContext) TexAnisotropy(target TextureTarget, level float32) {
	c.record("TexAnisotropy")
}

func (c *recordingContext) GenerateMipmap(target TextureTarget) {
	c.record("GenerateMipmap")
}

func (c *recordingContext) UnpackFlipY(flip bool) {
	c.record("UnpackFlipY")
}

func (c *recordingContext) UnpackAlignment(alignment int32) {
	c.record("UnpackAlignment")
}

func (c *recordingContext) DeleteTexture(texture TextureHandle) {
	c.record("DeleteTexture")
}

func (c *recordingContext) CreateFramebuffer() FramebufferHandle {
	c.record("CreateFramebuffer")
	return FramebufferHandle(c.handle())
}

func (c *recordingContext) BindFramebuffer(framebuffer FramebufferHandle) {
	c.record("BindFramebuffer")
}

func (c *recordingContext) FramebufferTexture2D(attachment Attachment, texture TextureHandle, level int) {
	c.record("FramebufferTexture2D")
}

func (c *recordingContext) FramebufferTextureCubeFace(attachment Attachment, face int, texture TextureHandle, level int) {
	c.record("FramebufferTextureCubeFace")
}

func (c *recordingContext) DeleteFramebuffer(framebuffer FramebufferHandle) {
	c.record("DeleteFramebuffer")
}

func (c *recordingContext) CreateRenderbuffer() RenderbufferHandle {
	c.record("CreateRenderbuffer")
	return RenderbufferHandle(c.handle())
}

func (c *recordingContext) BindRenderbuffer(renderbuffer RenderbufferHandle) {
	c.record("BindRenderbuffer")
}

func (c *recordingContext) RenderbufferStorage(format RenderbufferFormat, width, height int) {
	c.record("RenderbufferStorage")
}

func (c *recordingContext) FramebufferRenderbuffer(attachment Attachment, renderbuffer RenderbufferHandle) {
	c.record("FramebufferRenderbuffer")
}

func (c *recordingContext) DeleteRenderbuffer(renderbuffer RenderbufferHandle) {
	c.record("DeleteRenderbuffer")
}

func (c *recordingContext) CreateShader(shaderType ShaderType) ShaderHandle {
	c.record("CreateShader")
	return ShaderHandle(c.handle())
}

func (c *recordingContext) ShaderSource(shader ShaderHandle, source string) {
	c.record("ShaderSource")
}

func (c *recordingContext) CompileShader(shader ShaderHandle) bool {
	c.record("CompileShader")
	return !c.failCompile
}

func (c *recordingContext) ShaderInfoLog(shader ShaderHandle) string {
	return "mock compile error"
}

func (c *recordingContext) DeleteShader(shader ShaderHandle) {
	c.record("DeleteShader")
}

func (c *recordingContext) CreateProgram() ProgramHandle {
	c.record("CreateProgram")
	return ProgramHandle(c.handle())
}

func (c *recordingContext) AttachShader(program ProgramHandle, shader ShaderHandle) {
	c.record("AttachShader")
}

func (c *recordingContext) LinkProgram(program ProgramHandle) bool {
	c.record("LinkProgram")
	return !c.failLink
}

func (c *recordingContext) ProgramInfoLog(program ProgramHandle) string {
	return "mock link error"
}

func (c *recordingContext) UseProgram(program ProgramHandle) {
	c.record("UseProgram")
}

func (c *recordingContext) DeleteProgram(program ProgramHandle) {
	c.record("DeleteProgram")
}

func (c *recordingContext) GetUniformLocation(program ProgramHandle, name string) UniformLocation {
	if location, ok := c.uniformLocations[name]; ok {
		return location
	}
	return UniformLocation(len(c.uniformLocations) + 1)
}

func (c *recordingContext) GetAttribLocation(program ProgramHandle, name string) int32 {
	if location, ok := c.attribLocations[name]; ok {
		return location
	}
	return 0
}

func (c *recordingContext) Uniform1i(location UniformLocation, v int32) {
	c.record("Uniform1i")
}

func (c *recordingContext) Uniform1iv(location UniformLocation, v []int32) {
	c.record("Uniform1iv")
}

func (c *recordingContext) Uniform1f(location UniformLocation, v float32) {
	c.record("Uniform1f")
}

func (c *recordingContext) Uniform2f(location UniformLocation, x, y float32) {
	c.record("Uniform2f")
}

func (c *recordingContext) Uniform3f(location UniformLocation, x, y, z float32) {
	c.record("Uniform3f")
}

func (c *recordingContext) Uniform4f(location UniformLocation, x, y, z, w float32) {
	c.record("Uniform4f")
}

func (c *recordingContext) Uniform1fv(location UniformLocation, v []float32) {
	c.record("Uniform1fv")
}

func (c *recordingContext) UniformMatrix4fv(location UniformLocation, v []float32) {
	c.record("UniformMatrix4fv")
}

func (c *recordingContext) Enable(cap Capability) {
	c.record("Enable")
}

func (c *recordingContext) Disable(cap Capability) {
	c.record("Disable")
}

func (c *recordingContext) DepthFunc(fn CompareFunc) {
	c.record("DepthFunc")
}

func (c *recordingContext) DepthMask(write bool) {
	c.record("DepthMask")
}

func (c *recordingContext) ColorMask(r, g, b, a bool) {
	c.record("ColorMask")
}

func (c *recordingContext) CullFace(front bool) {
	c.record("CullFace")
}

func (c *recordingContext) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha BlendFactor) {
	c.record("BlendFuncSeparate")
}

func (c *recordingContext) Viewport(x, y, width, height int32) {
	c.record("Viewport")
}

func (c *recordingContext) Scissor(x, y, width, height int32) {
	c.record("Scissor")
}

func (c *recordingContext) ClearColor(r, g, b, a float32) {
	c.record("ClearColor")
}

func (c *recordingContext) ClearDepth(depth float32) {
	c.record("ClearDepth")
}

func (c *recordingContext) ClearStencil(stencil int32) {
	c.record("ClearStencil")
}

func (c *recordingContext) Clear(mask ClearMask) {
	c.record("Clear")
}

func (c *recordingContext) Flush() {
	c.record("Flush")
}

func (c *recordingContext) DrawElements(mode PrimitiveMode, count int32, indexType IndexType, offsetBytes int) {
	c.record("DrawElements")
}

func (c *recordingContext) DrawArrays(mode PrimitiveMode, first, count int32) {
	c.record("DrawArrays")
}

func (c *recordingContext) DrawElementsInstanced(mode PrimitiveMode, count int32, indexType IndexType, offsetBytes int, instances int32) {
	c.record("DrawElementsInstanced")
}

func (c *recordingContext) DrawArraysInstanced(mode PrimitiveMode, first, count int32, instances int32) {
	c.record("DrawArraysInstanced")
}

func (c *recordingContext) GetInteger(param IntParam) int32 {
	switch param {
	case ParamMaxTextureImageUnits:
		return 16
	case ParamMaxTextureSize:
		return 4096
	case ParamMaxCubeMapTextureSize:
		return 2048
	case ParamMaxRenderbufferSize:
		return 4096
	case ParamMaxVertexAttribs:
		return 16
	case ParamMaxAnisotropy:
		return 16
	}
	return 0
}

func (c *recordingContext) GetString(param StringParam) string {
	switch param {
	case ParamVersion:
		return "4.1 mock"
	case ParamRenderer:
		return "mock renderer"
	case ParamVendor:
		return "mock vendor"
	case ParamExtensions:
		return c.extensions
	}
	return ""
}
