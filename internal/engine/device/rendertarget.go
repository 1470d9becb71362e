package device

import "github.com/halcyon3d/halcyon/internal/logger"

// RenderTargetOptions configures offscreen target creation.
type RenderTargetOptions struct {
	GenerateMipMaps       bool
	GenerateDepthBuffer   bool
	GenerateStencilBuffer bool
	Type                  TexelType
	SamplingMode          int
}

// DefaultRenderTargetOptions gives a depth-buffered bilinear byte target.
func DefaultRenderTargetOptions() RenderTargetOptions {
	return RenderTargetOptions{
		GenerateDepthBuffer: true,
		Type:                TexelUnsignedByte,
		SamplingMode:        BilinearSampling,
	}
}

// adjustRenderTargetOptions downgrades requests the device cannot honor,
// logging each fallback.
func (e *Engine) adjustRenderTargetOptions(options RenderTargetOptions) RenderTargetOptions {
	if options.Type == TexelFloat && !e.caps.TextureFloatLinearFiltering {
		// Float textures sample correctly only with nearest filtering here.
		options.SamplingMode = NearestSampling
		logger.Warn("float render target forced to nearest sampling")
	}
	if options.Type == TexelHalfFloat && !e.caps.TextureHalfFloatLinearFiltering {
		options.SamplingMode = NearestSampling
		logger.Warn("half-float render target forced to nearest sampling")
	}

	if options.Type == TexelFloat && !e.caps.TextureFloat {
		options.Type = TexelUnsignedByte
		logger.Warn("float textures unsupported, render target falls back to byte texels")
	}
	if options.Type == TexelHalfFloat && !e.caps.TextureHalfFloat {
		options.Type = TexelUnsignedByte
		logger.Warn("half-float textures unsupported, render target falls back to byte texels")
	}
	return options
}

func (e *Engine) attachDepth(texture *Texture, options RenderTargetOptions, width, height int) {
	if options.GenerateStencilBuffer {
		texture.depthBuffer = e.ctx.CreateRenderbuffer()
		e.ctx.BindRenderbuffer(texture.depthBuffer)
		e.ctx.RenderbufferStorage(RenderbufferDepthStencil, width, height)
		e.ctx.FramebufferRenderbuffer(DepthStencilAttachment, texture.depthBuffer)
	} else if options.GenerateDepthBuffer {
		texture.depthBuffer = e.ctx.CreateRenderbuffer()
		e.ctx.BindRenderbuffer(texture.depthBuffer)
		e.ctx.RenderbufferStorage(RenderbufferDepth16, width, height)
		e.ctx.FramebufferRenderbuffer(DepthAttachment, texture.depthBuffer)
	}
}

// CreateRenderTargetTexture allocates a texture with an attached framebuffer
// for offscreen rendering.
func (e *Engine) CreateRenderTargetTexture(width, height int, options RenderTargetOptions) *Texture {
	options = e.adjustRenderTargetOptions(options)

	width = e.clampTextureSize(width)
	height = e.clampTextureSize(height)

	texture := &Texture{
		handle:          e.ctx.CreateTexture(),
		references:      1,
		samplingMode:    options.SamplingMode,
		generateMipMaps: options.GenerateMipMaps,
		isRenderTarget:  true,
		texelType:       options.Type,
		Width:           width,
		Height:          height,
		BaseWidth:       width,
		BaseHeight:      height,
	}
	e.loadedTextures = append(e.loadedTextures, texture)

	min, mag := getSamplingParameters(options.SamplingMode, options.GenerateMipMaps)

	e.bindTextureDirectly(Texture2D, texture)
	e.ctx.TexMagFilter(Texture2D, mag)
	e.ctx.TexMinFilter(Texture2D, min)
	e.ctx.TexWrap(Texture2D, WrapClampToEdge, WrapClampToEdge)
	e.ctx.TexImage2D(Texture2D, 0, width, height, FormatRGBA, options.Type, nil)

	texture.framebuffer = e.ctx.CreateFramebuffer()
	e.bindUnboundFramebuffer(texture.framebuffer)
	e.ctx.FramebufferTexture2D(ColorAttachment0, texture.handle, 0)
	e.attachDepth(texture, options, width, height)

	if options.GenerateMipMaps {
		e.ctx.GenerateMipmap(Texture2D)
	}

	e.bindTextureDirectly(Texture2D, nil)
	e.ctx.BindRenderbuffer(0)
	e.bindUnboundFramebuffer(0)

	texture.isReady = true
	return texture
}

// CreateRenderTargetCubeTexture allocates a cube map with an attached
// framebuffer. Faces are selected at bind time.
func (e *Engine) CreateRenderTargetCubeTexture(size int, options RenderTargetOptions) *Texture {
	options = e.adjustRenderTargetOptions(options)

	if e.caps.MaxCubeMapTextureSize > 0 && size > e.caps.MaxCubeMapTextureSize {
		size = e.caps.MaxCubeMapTextureSize
	}

	texture := &Texture{
		handle:          e.ctx.CreateTexture(),
		references:      1,
		samplingMode:    options.SamplingMode,
		generateMipMaps: options.GenerateMipMaps,
		isRenderTarget:  true,
		isCube:          true,
		texelType:       options.Type,
		Width:           size,
		Height:          size,
		BaseWidth:       size,
		BaseHeight:      size,
	}
	e.loadedTextures = append(e.loadedTextures, texture)

	min, mag := getSamplingParameters(options.SamplingMode, options.GenerateMipMaps)

	e.bindTextureDirectly(TextureCubeMap, texture)
	e.ctx.TexMagFilter(TextureCubeMap, mag)
	e.ctx.TexMinFilter(TextureCubeMap, min)
	e.ctx.TexWrap(TextureCubeMap, WrapClampToEdge, WrapClampToEdge)
	for face := 0; face < 6; face++ {
		e.ctx.TexImage2DCubeFace(face, 0, size, size, FormatRGBA, options.Type, nil)
	}

	texture.framebuffer = e.ctx.CreateFramebuffer()
	e.bindUnboundFramebuffer(texture.framebuffer)
	e.attachDepth(texture, options, size, size)

	if options.GenerateMipMaps {
		e.ctx.GenerateMipmap(TextureCubeMap)
	}

	e.bindTextureDirectly(TextureCubeMap, nil)
	e.ctx.BindRenderbuffer(0)
	e.bindUnboundFramebuffer(0)

	texture.isReady = true
	return texture
}

// bindUnboundFramebuffer binds only when the cached framebuffer differs.
func (e *Engine) bindUnboundFramebuffer(framebuffer FramebufferHandle) {
	if e.currentFramebuffer != framebuffer {
		e.ctx.BindFramebuffer(framebuffer)
		e.currentFramebuffer = framebuffer
	}
}

// BindFramebuffer redirects rendering into texture. For cube maps faceIndex
// selects the face attached as the color target. The viewport is set to the
// full target and all binding caches are wiped, since target switches leave
// unknown state behind.
func (e *Engine) BindFramebuffer(texture *Texture, faceIndex int) {
	e.currentTarget = texture
	e.bindUnboundFramebuffer(texture.framebuffer)

	if texture.isCube {
		e.ctx.FramebufferTextureCubeFace(ColorAttachment0, faceIndex, texture.handle, 0)
	}

	e.ctx.Viewport(0, 0, int32(texture.Width), int32(texture.Height))
	e.WipeCaches()
}

// UnbindFramebuffer returns rendering to the default surface, regenerating
// the target's mipmap chain unless suppressed.
func (e *Engine) UnbindFramebuffer(texture *Texture, disableGenerateMipMaps bool) {
	e.currentTarget = nil

	if texture.generateMipMaps && !texture.isCube && !disableGenerateMipMaps {
		e.bindTextureDirectly(Texture2D, texture)
		e.ctx.GenerateMipmap(Texture2D)
		e.bindTextureDirectly(Texture2D, nil)
	}

	e.bindUnboundFramebuffer(0)
}

// GenerateMipMapsForCubemap rebuilds the mip chain of a rendered cube map.
func (e *Engine) GenerateMipMapsForCubemap(texture *Texture) {
	if !texture.generateMipMaps {
		return
	}
	e.bindTextureDirectly(TextureCubeMap, texture)
	e.ctx.GenerateMipmap(TextureCubeMap)
	e.bindTextureDirectly(TextureCubeMap, nil)
}

// RestoreDefaultFramebuffer rebinds the default surface, restores the last
// cached viewport and wipes the binding caches.
func (e *Engine) RestoreDefaultFramebuffer() {
	e.currentTarget = nil
	e.bindUnboundFramebuffer(0)

	if e.cachedViewport != nil {
		e.SetViewport(*e.cachedViewport)
	}

	e.WipeCaches()
}

// CurrentRenderTarget returns the bound offscreen target, or nil when
// rendering to the default surface.
func (e *Engine) CurrentRenderTarget() *Texture {
	return e.currentTarget
}
