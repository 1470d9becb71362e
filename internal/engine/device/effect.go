package device

import (
	"go.uber.org/zap"

	"github.com/halcyon3d/halcyon/internal/logger"
	"github.com/halcyon3d/halcyon/pkg/math"
)

// Effect is a compiled and linked shader program together with its resolved
// attribute and uniform locations. Effects are cached per key; requesting
// the same key returns the already-compiled program.
type Effect struct {
	Key string

	engine  *Engine
	program ProgramHandle

	attributesNames []string
	attributes      []int32
	uniforms        map[string]UniformLocation
	samplers        []string

	isReady          bool
	compilationError string
}

// IsReady reports whether compilation and linking succeeded.
func (ef *Effect) IsReady() bool {
	return ef.isReady
}

// CompilationError returns the shader or link log when IsReady is false.
func (ef *Effect) CompilationError() string {
	return ef.compilationError
}

// AttributesNames returns the attribute streams the effect consumes, in
// declaration order.
func (ef *Effect) AttributesNames() []string {
	return ef.attributesNames
}

// AttributeLocation returns the device slot of the index-th declared
// attribute, negative when the linker discarded it.
func (ef *Effect) AttributeLocation(index int) int32 {
	if index < 0 || index >= len(ef.attributes) {
		return -1
	}
	return ef.attributes[index]
}

// UniformLocation resolves a uniform by name. Unknown names give -1.
func (ef *Effect) UniformLocation(name string) UniformLocation {
	if location, ok := ef.uniforms[name]; ok {
		return location
	}
	return -1
}

// SetMatrix uploads a 4x4 matrix uniform.
func (ef *Effect) SetMatrix(name string, value math.Mat4) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.UniformMatrix4fv(location, value[:])
	}
}

// SetMatrices uploads an array of 4x4 matrices, flattened column-major.
func (ef *Effect) SetMatrices(name string, values []float32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.UniformMatrix4fv(location, values)
	}
}

// SetFloat uploads a scalar uniform.
func (ef *Effect) SetFloat(name string, value float32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.Uniform1f(location, value)
	}
}

// SetFloat2 uploads a vec2 uniform.
func (ef *Effect) SetFloat2(name string, x, y float32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.Uniform2f(location, x, y)
	}
}

// SetFloat3 uploads a vec3 uniform.
func (ef *Effect) SetFloat3(name string, x, y, z float32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.Uniform3f(location, x, y, z)
	}
}

// SetVector3 uploads a vec3 uniform from a vector.
func (ef *Effect) SetVector3(name string, v math.Vec3) {
	ef.SetFloat3(name, v.X, v.Y, v.Z)
}

// SetFloat4 uploads a vec4 uniform.
func (ef *Effect) SetFloat4(name string, x, y, z, w float32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.Uniform4f(location, x, y, z, w)
	}
}

// SetColor4 uploads an RGBA uniform.
func (ef *Effect) SetColor4(name string, c Color4) {
	ef.SetFloat4(name, c.R, c.G, c.B, c.A)
}

// SetInt uploads an integer uniform.
func (ef *Effect) SetInt(name string, value int32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.Uniform1i(location, value)
	}
}

// SetFloatArray uploads a float array uniform.
func (ef *Effect) SetFloatArray(name string, values []float32) {
	if location := ef.UniformLocation(name); location >= 0 {
		ef.engine.ctx.Uniform1fv(location, values)
	}
}

// SetTexture binds a texture to the sampler slot registered for name.
func (ef *Effect) SetTexture(name string, texture *Texture) {
	for i, sampler := range ef.samplers {
		if sampler == name {
			ef.engine.SetTexture(i, ef.UniformLocation(name), texture)
			return
		}
	}
}

// EffectCreationOptions declares the interface of a shader pair.
type EffectCreationOptions struct {
	VertexSource   string
	FragmentSource string
	Attributes     []string
	Uniforms       []string
	Samplers       []string
	Defines        string
}

// CreateEffect compiles, links and caches a shader program. The cache key is
// name plus defines; repeated requests reuse the compiled effect.
func (e *Engine) CreateEffect(name string, options EffectCreationOptions) *Effect {
	key := name + options.Defines
	if cached, ok := e.compiledEffects[key]; ok {
		return cached
	}

	effect := &Effect{
		Key:             key,
		engine:          e,
		attributesNames: options.Attributes,
		samplers:        options.Samplers,
		uniforms:        make(map[string]UniformLocation),
	}
	e.compiledEffects[key] = effect

	vertexSource := options.VertexSource
	fragmentSource := options.FragmentSource
	if options.Defines != "" {
		vertexSource = options.Defines + "\n" + vertexSource
		fragmentSource = options.Defines + "\n" + fragmentSource
	}

	program := e.createShaderProgram(name, vertexSource, fragmentSource)
	if program == 0 {
		effect.compilationError = "shader program creation failed"
		return effect
	}
	effect.program = program

	effect.attributes = make([]int32, len(options.Attributes))
	for i, attribute := range options.Attributes {
		effect.attributes[i] = e.ctx.GetAttribLocation(program, attribute)
	}
	for _, uniform := range options.Uniforms {
		effect.uniforms[uniform] = e.ctx.GetUniformLocation(program, uniform)
	}
	for _, sampler := range options.Samplers {
		if _, ok := effect.uniforms[sampler]; !ok {
			effect.uniforms[sampler] = e.ctx.GetUniformLocation(program, sampler)
		}
	}

	effect.isReady = true
	return effect
}

func (e *Engine) compileShader(name, source string, shaderType ShaderType) ShaderHandle {
	shader := e.ctx.CreateShader(shaderType)
	e.ctx.ShaderSource(shader, source)
	if !e.ctx.CompileShader(shader) {
		log := e.ctx.ShaderInfoLog(shader)
		logger.Error("shader compilation failed",
			zap.String("effect", name), zap.String("log", log))
		e.ctx.DeleteShader(shader)
		return 0
	}
	return shader
}

func (e *Engine) createShaderProgram(name, vertexSource, fragmentSource string) ProgramHandle {
	vertexShader := e.compileShader(name, vertexSource, VertexShader)
	if vertexShader == 0 {
		return 0
	}
	fragmentShader := e.compileShader(name, fragmentSource, FragmentShader)
	if fragmentShader == 0 {
		e.ctx.DeleteShader(vertexShader)
		return 0
	}

	program := e.ctx.CreateProgram()
	e.ctx.AttachShader(program, vertexShader)
	e.ctx.AttachShader(program, fragmentShader)
	linked := e.ctx.LinkProgram(program)

	e.ctx.DeleteShader(vertexShader)
	e.ctx.DeleteShader(fragmentShader)

	if !linked {
		log := e.ctx.ProgramInfoLog(program)
		logger.Error("shader program link failed",
			zap.String("effect", name), zap.String("log", log))
		e.ctx.DeleteProgram(program)
		return 0
	}
	return program
}

// setProgram switches the active program only when it differs.
func (e *Engine) setProgram(program ProgramHandle) {
	if e.currentProgram != program {
		e.ctx.UseProgram(program)
		e.currentProgram = program
	}
}

// EnableEffect makes effect current for subsequent draws and uniform
// uploads. Re-enabling the current effect is free.
func (e *Engine) EnableEffect(effect *Effect) {
	if effect == nil || !effect.isReady {
		return
	}
	if effect == e.currentEffect {
		return
	}
	e.setProgram(effect.program)
	e.currentEffect = effect
}

// CurrentEffect returns the effect last enabled, nil after a cache wipe.
func (e *Engine) CurrentEffect() *Effect {
	return e.currentEffect
}

// BindSamplers assigns the effect's sampler uniforms to consecutive texture
// units and clears the current-effect cache so the next EnableEffect
// re-binds.
func (e *Engine) BindSamplers(effect *Effect) {
	e.setProgram(effect.program)
	for i, sampler := range effect.samplers {
		if location := effect.UniformLocation(sampler); location >= 0 {
			e.ctx.Uniform1i(location, int32(i))
		}
	}
	e.currentEffect = nil
}

// ReleaseEffects deletes every cached program, forcing recompilation on next
// use.
func (e *Engine) ReleaseEffects() {
	for _, effect := range e.compiledEffects {
		if effect.program != 0 {
			e.ctx.DeleteProgram(effect.program)
		}
	}
	e.compiledEffects = make(map[string]*Effect)
}
