package device

import (
	"os"
	"testing"
	"time"

	"github.com/halcyon3d/halcyon/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithFileConfig("error", logger.FileConfig{}, false)
	os.Exit(m.Run())
}

func newTestEngine(t *testing.T) (*Engine, *recordingContext) {
	t.Helper()
	ctx := newRecordingContext()
	e := New(ctx, Options{Width: 800, Height: 600})
	if !e.IsValid() {
		t.Fatal("engine not valid with mock context")
	}
	return e, ctx
}

func TestNewQueriesCaps(t *testing.T) {
	e, _ := newTestEngine(t)

	caps := e.Caps()
	if caps.MaxTextureImageUnits != 16 {
		t.Errorf("MaxTextureImageUnits = %d, want 16", caps.MaxTextureImageUnits)
	}
	if caps.MaxTextureSize != 4096 {
		t.Errorf("MaxTextureSize = %d, want 4096", caps.MaxTextureSize)
	}
	if !caps.InstancedArrays {
		t.Error("InstancedArrays not detected from extension string")
	}
	if !caps.TextureFloat {
		t.Error("TextureFloat not detected from extension string")
	}
	if caps.TextureHalfFloat {
		t.Error("TextureHalfFloat detected without its extension")
	}
}

func TestNewWithNilContext(t *testing.T) {
	e := New(nil, Options{})
	if e.IsValid() {
		t.Error("engine reported valid without a context")
	}
}

func TestBindBufferDeduplicates(t *testing.T) {
	e, ctx := newTestEngine(t)

	x := &Buffer{handle: BufferHandle(100), references: 1}
	y := &Buffer{handle: BufferHandle(200), references: 1}

	before := ctx.calls["BindBuffer"]
	e.bindArrayBuffer(x)
	e.bindArrayBuffer(x)
	if got := ctx.calls["BindBuffer"] - before; got != 1 {
		t.Errorf("binding same buffer twice issued %d device binds, want 1", got)
	}

	before = ctx.calls["BindBuffer"]
	e.bindArrayBuffer(y)
	e.bindArrayBuffer(x)
	e.bindArrayBuffer(y)
	if got := ctx.calls["BindBuffer"] - before; got != 3 {
		t.Errorf("alternating buffers issued %d device binds, want 3", got)
	}
}

func TestBindBufferTargetsAreIndependent(t *testing.T) {
	e, ctx := newTestEngine(t)

	x := &Buffer{handle: BufferHandle(100), references: 1}

	before := ctx.calls["BindBuffer"]
	e.bindArrayBuffer(x)
	e.bindIndexBuffer(x)
	if got := ctx.calls["BindBuffer"] - before; got != 2 {
		t.Errorf("binding to two targets issued %d device binds, want 2", got)
	}
}

func TestVertexAttribPointerCache(t *testing.T) {
	e, ctx := newTestEngine(t)

	buf := &Buffer{handle: BufferHandle(100), references: 1}

	before := ctx.calls["VertexAttribPointer"]
	e.vertexAttribPointer(buf, 0, 3, false, 12, 0)
	e.vertexAttribPointer(buf, 0, 3, false, 12, 0)
	if got := ctx.calls["VertexAttribPointer"] - before; got != 1 {
		t.Errorf("identical pointer setup issued %d device calls, want 1", got)
	}

	before = ctx.calls["VertexAttribPointer"]
	e.vertexAttribPointer(buf, 0, 3, false, 24, 0)
	if got := ctx.calls["VertexAttribPointer"] - before; got != 1 {
		t.Errorf("changed stride issued %d device calls, want 1", got)
	}

	other := &Buffer{handle: BufferHandle(200), references: 1}
	before = ctx.calls["VertexAttribPointer"]
	e.vertexAttribPointer(other, 0, 3, false, 24, 0)
	if got := ctx.calls["VertexAttribPointer"] - before; got != 1 {
		t.Errorf("changed buffer issued %d device calls, want 1", got)
	}
}

func TestCreateIndexBufferWidth(t *testing.T) {
	e, ctx := newTestEngine(t)

	small := e.CreateIndexBuffer([]uint32{0, 1, 2, 2, 1, 3})
	if small.Is32Bits() {
		t.Error("small indices stored as 32 bits")
	}
	if ctx.calls["BufferDataUint16"] != 1 {
		t.Errorf("BufferDataUint16 called %d times, want 1", ctx.calls["BufferDataUint16"])
	}

	large := e.CreateIndexBuffer([]uint32{0, 70000, 2})
	if !large.Is32Bits() {
		t.Error("out-of-range indices not stored as 32 bits")
	}
	if ctx.calls["BufferDataUint32"] != 1 {
		t.Errorf("BufferDataUint32 called %d times, want 1", ctx.calls["BufferDataUint32"])
	}
}

func TestCreateIndexBufferWithoutUintIndices(t *testing.T) {
	e, ctx := newTestEngine(t)
	e.caps.UintIndices = false

	buf := e.CreateIndexBuffer([]uint32{0, 70000, 2})
	if buf.Is32Bits() {
		t.Error("32-bit storage used without device support")
	}
	if ctx.calls["BufferDataUint32"] != 0 {
		t.Error("uint32 upload issued without device support")
	}
}

func TestReleaseBufferRefcount(t *testing.T) {
	e, ctx := newTestEngine(t)

	buf := e.CreateVertexBuffer([]float32{0, 0, 0})
	buf.Retain()

	if e.ReleaseBuffer(buf) {
		t.Error("buffer freed while a reference remained")
	}
	if ctx.calls["DeleteBuffer"] != 0 {
		t.Error("device delete issued while a reference remained")
	}

	if !e.ReleaseBuffer(buf) {
		t.Error("buffer not freed on last release")
	}
	if ctx.calls["DeleteBuffer"] != 1 {
		t.Errorf("DeleteBuffer called %d times, want 1", ctx.calls["DeleteBuffer"])
	}
}

func TestWipeCachesForcesRebind(t *testing.T) {
	e, ctx := newTestEngine(t)

	buf := &Buffer{handle: BufferHandle(100), references: 1}
	e.bindArrayBuffer(buf)

	e.WipeCaches()

	before := ctx.calls["BindBuffer"]
	e.bindArrayBuffer(buf)
	if got := ctx.calls["BindBuffer"] - before; got != 1 {
		t.Errorf("bind after wipe issued %d device binds, want 1", got)
	}
}

func TestMeasureFPS(t *testing.T) {
	e, _ := newTestEngine(t)

	current := time.Unix(0, 0)
	e.now = func() time.Time {
		current = current.Add(16666667 * time.Nanosecond)
		return current
	}

	for i := 0; i < 120; i++ {
		e.BeginFrame()
	}

	fps := e.FPS()
	if fps < 59.4 || fps > 60.6 {
		t.Errorf("FPS = %f, want within 1%% of 60", fps)
	}
	if dt := e.DeltaTime(); dt < 16*time.Millisecond || dt > 17*time.Millisecond {
		t.Errorf("DeltaTime = %v, want about 16.67ms", dt)
	}
}

func TestRenderLoopRegistration(t *testing.T) {
	e, _ := newTestEngine(t)

	count := 0
	loop := func() { count++ }

	e.RunRenderLoop(loop)
	e.RunRenderLoop(loop)
	if !e.HasRenderLoops() {
		t.Fatal("render loop not registered")
	}

	e.RenderFrame()
	if count != 1 {
		t.Errorf("callback ran %d times in one frame, want 1", count)
	}

	e.StopRenderLoop(loop)
	e.RenderFrame()
	if count != 1 {
		t.Error("callback ran after removal")
	}

	e.RunRenderLoop(loop)
	e.StopRenderLoop(nil)
	if e.HasRenderLoops() {
		t.Error("nil StopRenderLoop did not clear all callbacks")
	}
}

func TestDrawCallCounter(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Draw(true, 0, 6, 0)
	e.DrawUnIndexed(true, 0, 3, 0)
	e.DrawPointClouds(0, 10, 0)
	if e.DrawCalls() != 3 {
		t.Errorf("DrawCalls = %d, want 3", e.DrawCalls())
	}

	e.ResetDrawCalls()
	if e.DrawCalls() != 0 {
		t.Errorf("DrawCalls after reset = %d, want 0", e.DrawCalls())
	}
}

func TestInstancedDrawFallback(t *testing.T) {
	e, ctx := newTestEngine(t)
	e.caps.InstancedArrays = false

	e.Draw(true, 0, 6, 4)
	if ctx.calls["DrawElementsInstanced"] != 0 {
		t.Error("instanced draw issued without device support")
	}
	if ctx.calls["DrawElements"] != 1 {
		t.Errorf("DrawElements called %d times, want 1 fallback draw", ctx.calls["DrawElements"])
	}
}

func TestInstancedDraw(t *testing.T) {
	e, ctx := newTestEngine(t)
	e.caps.InstancedArrays = true

	e.Draw(true, 0, 6, 4)
	if ctx.calls["DrawElementsInstanced"] != 1 {
		t.Errorf("DrawElementsInstanced called %d times, want 1", ctx.calls["DrawElementsInstanced"])
	}
	if ctx.calls["DrawElements"] != 0 {
		t.Error("plain DrawElements issued for an instanced draw")
	}
}

func TestSetAlphaModeTogglesDepthWrite(t *testing.T) {
	e, _ := newTestEngine(t)

	e.SetAlphaMode(AlphaCombine)
	if e.DepthWrite() {
		t.Error("depth writes left on in blended mode")
	}
	if !e.alphaState.alphaBlend {
		t.Error("blending not enabled in AlphaCombine")
	}

	e.SetAlphaMode(AlphaDisable)
	if !e.DepthWrite() {
		t.Error("depth writes not restored in AlphaDisable")
	}
	if e.alphaState.alphaBlend {
		t.Error("blending left on in AlphaDisable")
	}
}

func TestFloatRenderTargetFallbacks(t *testing.T) {
	e, _ := newTestEngine(t)
	e.caps.TextureFloat = false
	e.caps.TextureFloatLinearFiltering = false

	options := DefaultRenderTargetOptions()
	options.Type = TexelFloat
	options.SamplingMode = TrilinearSampling

	target := e.CreateRenderTargetTexture(256, 256, options)
	if target.texelType != TexelUnsignedByte {
		t.Error("float target did not fall back to byte texels")
	}
	if target.SamplingMode() != NearestSampling {
		t.Errorf("float target sampling = %d, want nearest", target.SamplingMode())
	}
}

func TestFloatRenderTargetWithoutLinearFiltering(t *testing.T) {
	e, _ := newTestEngine(t)
	e.caps.TextureFloatLinearFiltering = false

	options := DefaultRenderTargetOptions()
	options.Type = TexelFloat
	options.SamplingMode = BilinearSampling

	target := e.CreateRenderTargetTexture(128, 128, options)
	if target.texelType != TexelFloat {
		t.Error("float texels dropped although the device supports them")
	}
	if target.SamplingMode() != NearestSampling {
		t.Error("float target not forced to nearest sampling")
	}
}

func TestBindFramebufferTracksTarget(t *testing.T) {
	e, ctx := newTestEngine(t)

	target := e.CreateRenderTargetTexture(256, 128, DefaultRenderTargetOptions())

	e.BindFramebuffer(target, 0)
	if e.CurrentRenderTarget() != target {
		t.Error("current render target not tracked")
	}
	if e.RenderWidth() != 256 || e.RenderHeight() != 128 {
		t.Errorf("render size = %dx%d, want 256x128", e.RenderWidth(), e.RenderHeight())
	}

	before := ctx.calls["BindFramebuffer"]
	e.bindUnboundFramebuffer(target.framebuffer)
	if got := ctx.calls["BindFramebuffer"] - before; got != 0 {
		t.Errorf("rebinding current framebuffer issued %d device binds, want 0", got)
	}

	e.UnbindFramebuffer(target, false)
	if e.CurrentRenderTarget() != nil {
		t.Error("render target still current after unbind")
	}
	if e.RenderWidth() != 800 || e.RenderHeight() != 600 {
		t.Error("render size not restored to default surface")
	}
}

type pendingRecorder struct {
	added   int
	removed int
}

func (p *pendingRecorder) AddPendingData(data interface{})    { p.added++ }
func (p *pendingRecorder) RemovePendingData(data interface{}) { p.removed++ }

func TestCreateTexturePendingTracking(t *testing.T) {
	ctx := newRecordingContext()

	var deliver func(Image)
	loader := func(url string, onLoad func(Image), onError func(string)) {
		deliver = onLoad
	}
	e := New(ctx, Options{Width: 800, Height: 600, ImageLoader: loader})

	tracker := &pendingRecorder{}
	texture := e.CreateTexture("grass.png", false, true, tracker, TrilinearSampling, nil, nil)

	if tracker.added != 1 || tracker.removed != 0 {
		t.Fatalf("pending add/remove = %d/%d before load, want 1/0", tracker.added, tracker.removed)
	}
	if texture.IsReady() {
		t.Error("texture ready before image delivery")
	}

	deliver(Image{Width: 64, Height: 32, Data: make([]byte, 64*32*4)})

	if tracker.removed != 1 {
		t.Errorf("pending removed = %d after load, want 1", tracker.removed)
	}
	if !texture.IsReady() {
		t.Error("texture not ready after image delivery")
	}
	if texture.Width != 64 || texture.Height != 32 {
		t.Errorf("texture size = %dx%d, want 64x32", texture.Width, texture.Height)
	}
}

func TestCreateTextureErrorStillRemovesPending(t *testing.T) {
	ctx := newRecordingContext()

	loader := func(url string, onLoad func(Image), onError func(string)) {
		onError("not found")
	}
	e := New(ctx, Options{Width: 800, Height: 600, ImageLoader: loader})

	tracker := &pendingRecorder{}
	gotError := ""
	texture := e.CreateTexture("missing.png", false, true, tracker, BilinearSampling,
		nil, func(msg string) { gotError = msg })

	if tracker.added != 1 || tracker.removed != 1 {
		t.Errorf("pending add/remove = %d/%d after failure, want 1/1", tracker.added, tracker.removed)
	}
	if texture.IsReady() {
		t.Error("texture ready after failed load")
	}
	if gotError != "not found" {
		t.Errorf("onError got %q, want %q", gotError, "not found")
	}
}

func TestReleaseInternalTextureRefcount(t *testing.T) {
	e, ctx := newTestEngine(t)

	texture := e.CreateRawTexture(make([]byte, 4), 1, 1, FormatRGBA, false, false, NearestSampling)
	texture.Retain()

	e.ReleaseInternalTexture(texture)
	if ctx.calls["DeleteTexture"] != 0 {
		t.Error("texture deleted while a reference remained")
	}

	e.ReleaseInternalTexture(texture)
	if ctx.calls["DeleteTexture"] != 1 {
		t.Errorf("DeleteTexture called %d times, want 1", ctx.calls["DeleteTexture"])
	}
	if len(e.loadedTextures) != 0 {
		t.Errorf("loadedTextures has %d entries after release, want 0", len(e.loadedTextures))
	}
}

func TestCreateEffectCache(t *testing.T) {
	e, ctx := newTestEngine(t)

	options := EffectCreationOptions{
		VertexSource:   "void main() {}",
		FragmentSource: "void main() {}",
		Attributes:     []string{"position", "normal"},
		Uniforms:       []string{"world", "viewProjection"},
		Samplers:       []string{"diffuseSampler"},
	}

	first := e.CreateEffect("default", options)
	if !first.IsReady() {
		t.Fatalf("effect not ready: %s", first.CompilationError())
	}

	second := e.CreateEffect("default", options)
	if first != second {
		t.Error("same key compiled twice")
	}
	if ctx.calls["LinkProgram"] != 1 {
		t.Errorf("LinkProgram called %d times, want 1", ctx.calls["LinkProgram"])
	}
}

func TestCreateEffectCompileFailure(t *testing.T) {
	e, ctx := newTestEngine(t)
	ctx.failCompile = true

	effect := e.CreateEffect("broken", EffectCreationOptions{
		VertexSource:   "nonsense",
		FragmentSource: "nonsense",
	})
	if effect.IsReady() {
		t.Error("effect ready despite compile failure")
	}
	if effect.CompilationError() == "" {
		t.Error("no compilation error recorded")
	}
}

func TestEnableEffectDeduplicates(t *testing.T) {
	e, ctx := newTestEngine(t)

	effect := e.CreateEffect("dedup", EffectCreationOptions{
		VertexSource:   "void main() {}",
		FragmentSource: "void main() {}",
	})

	before := ctx.calls["UseProgram"]
	e.EnableEffect(effect)
	e.EnableEffect(effect)
	if got := ctx.calls["UseProgram"] - before; got != 1 {
		t.Errorf("re-enabling effect issued %d UseProgram calls, want 1", got)
	}
}

func TestBindBuffersSkipsRepeatedSetup(t *testing.T) {
	e, ctx := newTestEngine(t)
	ctx.attribLocations["position"] = 0
	ctx.attribLocations["normal"] = 1

	effect := e.CreateEffect("geom", EffectCreationOptions{
		VertexSource:   "void main() {}",
		FragmentSource: "void main() {}",
		Attributes:     []string{"position", "normal"},
	})

	positions := e.CreateVertexBuffer(make([]float32, 12))
	normals := e.CreateVertexBuffer(make([]float32, 12))
	indices := e.CreateIndexBuffer([]uint32{0, 1, 2})

	buffers := map[Kind]*VertexBuffer{
		PositionKind: {Buffer: positions, Size: 3, Stride: 3},
		NormalKind:   {Buffer: normals, Size: 3, Stride: 3},
	}

	e.BindBuffers(buffers, indices, effect)
	before := ctx.calls["VertexAttribPointer"]
	e.BindBuffers(buffers, indices, effect)
	if got := ctx.calls["VertexAttribPointer"] - before; got != 0 {
		t.Errorf("rebinding same map issued %d pointer calls, want 0", got)
	}
}
