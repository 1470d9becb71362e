package device

import (
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/halcyon3d/halcyon/internal/logger"
)

// Sampling modes for texture filtering.
const (
	NearestSampling   = 1
	BilinearSampling  = 2
	TrilinearSampling = 3
)

// Alpha compositing modes.
const (
	AlphaDisable = iota
	AlphaAdd
	AlphaCombine
	AlphaSubtract
	AlphaMultiply
	AlphaMaximized
	AlphaOneOne
)

// fpsRange is the sliding-window length of the frame-time average.
const fpsRange = 60

// Caps holds the device limits and feature bits queried once at startup.
type Caps struct {
	MaxTextureImageUnits  int
	MaxTextureSize        int
	MaxCubeMapTextureSize int
	MaxRenderbufferSize   int
	MaxVertexAttribs      int

	UintIndices                     bool
	InstancedArrays                 bool
	StandardDerivatives             bool
	TextureFloat                    bool
	TextureFloatLinearFiltering     bool
	TextureFloatRender              bool
	TextureHalfFloat                bool
	TextureHalfFloatLinearFiltering bool
	TextureAnisotropicFilter        bool
	MaxAnisotropy                   int
}

// Viewport is a fractional viewport within the render surface.
type Viewport struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// Color4 is an RGBA clear color.
type Color4 struct {
	R, G, B, A float32
}

// PendingTracker is notified when asynchronous resource loads start and
// finish, so a scene can hold off rendering until its data arrives.
type PendingTracker interface {
	AddPendingData(data interface{})
	RemovePendingData(data interface{})
}

// Image is a decoded texture image.
type Image struct {
	Width  int
	Height int
	Data   []byte
}

// ImageLoader resolves a URL to a decoded image, calling exactly one of the
// two callbacks when done. Completion may be deferred to a later frame.
type ImageLoader func(url string, onLoad func(Image), onError func(msg string))

type bufferPointer struct {
	index      uint32
	size       int32
	normalized bool
	stride     int32
	offset     int32
	buffer     *Buffer
}

// Engine issues commands to a Context while caching device state, so that
// redundant binds and state changes never reach the driver. All methods
// must be called from the render goroutine.
type Engine struct {
	ctx   Context
	valid bool

	width  int
	height int

	caps Caps

	glVersion  string
	glRenderer string
	glVendor   string

	// Binding caches.
	boundBuffers       map[BufferTarget]*Buffer
	bufferPointers     map[uint32]*bufferPointer
	vertexAttribArrays []bool
	cachedVertexBuffer *Buffer
	cachedVertexMap    map[Kind]*VertexBuffer
	cachedEffect       *Effect
	cachedIndexBuffer  *Buffer
	uintIndicesSet     bool
	currentProgram     ProgramHandle
	currentEffect      *Effect
	activeTextureUnit  int
	boundTextures      map[int]*Texture
	currentFramebuffer FramebufferHandle
	currentTarget      *Texture
	cachedViewport     *Viewport

	currentInstanceLocations []uint32
	currentInstanceBuffers   []*Buffer

	// Lazily-applied state records.
	depthCulling depthCullingState
	alphaState   alphaState
	stencilState stencilState
	alphaMode    int
	alphaTest    bool

	// CullBackFaces selects the default winding culled by SetState.
	CullBackFaces bool

	compiledEffects map[string]*Effect
	loadedTextures  []*Texture

	loadImage ImageLoader

	// Frame measurement.
	fps        float32
	deltaTime  time.Duration
	frameTimes []time.Time
	now        func() time.Time

	drawCalls int

	renderLoops []renderLoopEntry
}

type renderLoopEntry struct {
	id uintptr
	fn func()
}

// Options configures engine construction.
type Options struct {
	Width  int
	Height int

	// Stencil requests a stencil buffer on the default surface.
	Stencil bool

	// ImageLoader resolves texture URLs. Nil disables CreateTexture.
	ImageLoader ImageLoader
}

// New wraps ctx in a state-cache engine. A nil context is reported and
// yields a non-functional engine (IsValid returns false) rather than a
// panic, matching the failure mode of a lost device.
func New(ctx Context, options Options) *Engine {
	e := &Engine{
		ctx:             ctx,
		width:           options.Width,
		height:          options.Height,
		boundBuffers:    make(map[BufferTarget]*Buffer),
		bufferPointers:  make(map[uint32]*bufferPointer),
		boundTextures:   make(map[int]*Texture),
		compiledEffects: make(map[string]*Effect),
		loadImage:       options.ImageLoader,
		fps:             60,
		now:             time.Now,
		CullBackFaces:   true,
	}
	e.depthCulling.reset()
	e.alphaState.reset()
	e.stencilState.reset()

	if ctx == nil {
		logger.Error("device context is nil, engine disabled")
		return e
	}
	e.valid = true

	e.caps.MaxTextureImageUnits = int(ctx.GetInteger(ParamMaxTextureImageUnits))
	e.caps.MaxTextureSize = int(ctx.GetInteger(ParamMaxTextureSize))
	e.caps.MaxCubeMapTextureSize = int(ctx.GetInteger(ParamMaxCubeMapTextureSize))
	e.caps.MaxRenderbufferSize = int(ctx.GetInteger(ParamMaxRenderbufferSize))
	e.caps.MaxVertexAttribs = int(ctx.GetInteger(ParamMaxVertexAttribs))

	e.glVersion = ctx.GetString(ParamVersion)
	e.glRenderer = ctx.GetString(ParamRenderer)
	e.glVendor = ctx.GetString(ParamVendor)
	if e.glVendor == "" {
		e.glVendor = "Unknown vendor"
	}
	if e.glRenderer == "" {
		e.glRenderer = "Unknown renderer"
	}

	extensions := ctx.GetString(ParamExtensions)
	e.caps.StandardDerivatives = true
	e.caps.UintIndices = true
	e.caps.InstancedArrays = hasExtension(extensions, "GL_ARB_instanced_arrays")
	e.caps.TextureFloat = hasExtension(extensions, "GL_ARB_texture_float")
	e.caps.TextureFloatLinearFiltering = e.caps.TextureFloat
	e.caps.TextureFloatRender = e.caps.TextureFloat
	e.caps.TextureHalfFloat = hasExtension(extensions, "GL_ARB_half_float_pixel")
	e.caps.TextureHalfFloatLinearFiltering = e.caps.TextureHalfFloat
	e.caps.TextureAnisotropicFilter = hasExtension(extensions, "GL_EXT_texture_filter_anisotropic")
	if e.caps.TextureAnisotropicFilter {
		e.caps.MaxAnisotropy = int(ctx.GetInteger(ParamMaxAnisotropy))
	}

	e.SetDepthBuffer(true)
	e.SetDepthFunctionToLessOrEqual()
	e.SetDepthWrite(true)

	logger.Info("device engine initialized",
		zap.String("version", e.glVersion),
		zap.String("renderer", e.glRenderer),
		zap.String("vendor", e.glVendor))

	return e
}

func hasExtension(extensions, name string) bool {
	for len(extensions) > 0 {
		i := 0
		for i < len(extensions) && extensions[i] != ' ' {
			i++
		}
		if extensions[:i] == name {
			return true
		}
		if i == len(extensions) {
			break
		}
		extensions = extensions[i+1:]
	}
	return false
}

// IsValid reports whether construction acquired a usable context.
func (e *Engine) IsValid() bool {
	return e.valid
}

// Caps returns the device limits queried at construction.
func (e *Engine) Caps() Caps {
	return e.caps
}

// RenderWidth returns the width of the current render target, or of the
// default surface when none is bound.
func (e *Engine) RenderWidth() int {
	if e.currentTarget != nil {
		return e.currentTarget.Width
	}
	return e.width
}

// RenderHeight returns the height of the current render target, or of the
// default surface when none is bound.
func (e *Engine) RenderHeight() int {
	if e.currentTarget != nil {
		return e.currentTarget.Height
	}
	return e.height
}

// SetSize resizes the default surface dimensions.
func (e *Engine) SetSize(width, height int) {
	e.width = width
	e.height = height
}

// DrawCalls returns the number of draw submissions since the last reset.
func (e *Engine) DrawCalls() int {
	return e.drawCalls
}

// ResetDrawCalls zeroes the draw-call counter, typically once per frame.
func (e *Engine) ResetDrawCalls() {
	e.drawCalls = 0
}

// SetViewport installs a fractional viewport against the current render
// size and remembers it for RestoreDefaultFramebuffer.
func (e *Engine) SetViewport(viewport Viewport) {
	width := e.RenderWidth()
	height := e.RenderHeight()

	v := viewport
	e.cachedViewport = &v

	e.ctx.Viewport(int32(viewport.X*float32(width)), int32(viewport.Y*float32(height)),
		int32(float32(width)*viewport.Width), int32(float32(height)*viewport.Height))
}

// SetDirectViewport installs a pixel viewport, bypassing the cache. The
// previously cached fractional viewport is returned for restoration.
func (e *Engine) SetDirectViewport(x, y, width, height int) *Viewport {
	prev := e.cachedViewport
	e.cachedViewport = nil
	e.ctx.Viewport(int32(x), int32(y), int32(width), int32(height))
	return prev
}

// Clear clears the selected planes of the current target.
func (e *Engine) Clear(color Color4, backBuffer, depth, stencil bool) {
	e.ApplyStates()

	var mask ClearMask
	if backBuffer {
		e.ctx.ClearColor(color.R, color.G, color.B, color.A)
		mask |= ClearColorBit
	}
	if depth {
		e.ctx.ClearDepth(1)
		mask |= ClearDepthBit
	}
	if stencil {
		e.ctx.ClearStencil(0)
		mask |= ClearStencilBit
	}
	e.ctx.Clear(mask)
}

// ScissorClear clears only the given pixel rectangle.
func (e *Engine) ScissorClear(x, y, width, height int, color Color4) {
	e.ctx.Enable(CapScissorTest)
	e.ctx.Scissor(int32(x), int32(y), int32(width), int32(height))
	e.Clear(color, true, true, true)
	e.ctx.Disable(CapScissorTest)
}

// BeginFrame starts a frame and samples the FPS window.
func (e *Engine) BeginFrame() {
	e.measureFPS()
}

// EndFrame flushes the device queue.
func (e *Engine) EndFrame() {
	e.ctx.Flush()
}

// FPS returns the moving-average frames per second.
func (e *Engine) FPS() float32 {
	return e.fps
}

// DeltaTime returns the duration between the two most recent frames.
func (e *Engine) DeltaTime() time.Duration {
	return e.deltaTime
}

func (e *Engine) measureFPS() {
	e.frameTimes = append(e.frameTimes, e.now())
	length := len(e.frameTimes)

	if length >= 2 {
		e.deltaTime = e.frameTimes[length-1].Sub(e.frameTimes[length-2])
	}

	if length >= fpsRange {
		if length > fpsRange {
			e.frameTimes = e.frameTimes[1:]
			length--
		}

		var sum time.Duration
		for i := 0; i < length-1; i++ {
			sum += e.frameTimes[i+1].Sub(e.frameTimes[i])
		}

		avgMillis := float32(sum.Seconds()) * 1000 / float32(length-1)
		if avgMillis > 0 {
			e.fps = 1000 / avgMillis
		}
	}
}

// RunRenderLoop registers fn to run every frame. Registering the same
// function twice is a no-op.
func (e *Engine) RunRenderLoop(fn func()) {
	id := reflect.ValueOf(fn).Pointer()
	for _, entry := range e.renderLoops {
		if entry.id == id {
			return
		}
	}
	e.renderLoops = append(e.renderLoops, renderLoopEntry{id: id, fn: fn})
}

// StopRenderLoop removes fn from the per-frame list. A nil fn removes every
// registered callback.
func (e *Engine) StopRenderLoop(fn func()) {
	if fn == nil {
		e.renderLoops = nil
		return
	}
	id := reflect.ValueOf(fn).Pointer()
	for i, entry := range e.renderLoops {
		if entry.id == id {
			e.renderLoops = append(e.renderLoops[:i], e.renderLoops[i+1:]...)
			return
		}
	}
}

// RenderFrame executes one frame: BeginFrame, every registered callback in
// registration order, EndFrame.
func (e *Engine) RenderFrame() {
	e.BeginFrame()
	for _, entry := range e.renderLoops {
		entry.fn()
	}
	e.EndFrame()
}

// HasRenderLoops reports whether any render callback is registered.
func (e *Engine) HasRenderLoops() bool {
	return len(e.renderLoops) > 0
}

// WipeCaches forgets every cached binding and state record. Required after
// device state changed behind the engine's back; also issued internally on
// render-target switches.
func (e *Engine) WipeCaches() {
	e.resetTextureCache()
	e.currentEffect = nil

	e.stencilState.reset()
	e.depthCulling.reset()
	e.SetDepthFunctionToLessOrEqual()
	e.alphaState.reset()

	e.cachedVertexBuffer = nil
	e.cachedVertexMap = nil
	e.cachedIndexBuffer = nil
	e.cachedEffect = nil

	e.boundBuffers = make(map[BufferTarget]*Buffer)
	e.bufferPointers = make(map[uint32]*bufferPointer)
}

func (e *Engine) resetTextureCache() {
	for unit := range e.boundTextures {
		e.boundTextures[unit] = nil
	}
}

// Dispose stops the render loop and releases every owned device object.
func (e *Engine) Dispose() {
	e.StopRenderLoop(nil)

	for _, effect := range e.compiledEffects {
		if effect.program != 0 {
			e.ctx.DeleteProgram(effect.program)
		}
	}
	e.compiledEffects = make(map[string]*Effect)

	for _, texture := range e.loadedTextures {
		e.releaseTexture(texture)
	}
	e.loadedTextures = nil

	e.UnbindAllAttributes()

	e.valid = false
	e.ctx = nil
}
