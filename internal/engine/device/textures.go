package device

import (
	"go.uber.org/zap"

	"github.com/halcyon3d/halcyon/internal/logger"
)

// Texture is a device texture tracked by the engine. Render targets carry
// their framebuffer and depth renderbuffer alongside the texture object.
type Texture struct {
	handle TextureHandle

	URL        string
	Width      int
	Height     int
	BaseWidth  int
	BaseHeight int

	references      int
	samplingMode    int
	generateMipMaps bool
	isCube          bool
	isReady         bool

	// Render target plumbing.
	isRenderTarget bool
	framebuffer    FramebufferHandle
	depthBuffer    RenderbufferHandle
	texelType      TexelType
}

// IsReady reports whether the texture's data has been uploaded.
func (t *Texture) IsReady() bool {
	return t.isReady
}

// IsCube reports whether the texture is a cube map.
func (t *Texture) IsCube() bool {
	return t.isCube
}

// SamplingMode returns the filtering mode the texture was prepared with.
func (t *Texture) SamplingMode() int {
	return t.samplingMode
}

// Retain adds a reference for a new sharer of the texture.
func (t *Texture) Retain() {
	t.references++
}

func (t *Texture) target() TextureTarget {
	if t.isCube {
		return TextureCubeMap
	}
	return Texture2D
}

// getSamplingParameters maps a sampling mode onto min/mag filters. Mip
// filters are requested only when mipmaps were generated.
func getSamplingParameters(samplingMode int, generateMipMaps bool) (min, mag TextureFilter) {
	mag = FilterNearest
	min = FilterNearest

	switch samplingMode {
	case BilinearSampling:
		mag = FilterLinear
		if generateMipMaps {
			min = FilterLinearMipmapNearest
		} else {
			min = FilterLinear
		}
	case TrilinearSampling:
		mag = FilterLinear
		if generateMipMaps {
			min = FilterLinearMipmapLinear
		} else {
			min = FilterLinear
		}
	case NearestSampling:
		mag = FilterNearest
		if generateMipMaps {
			min = FilterNearestMipmapLinear
		} else {
			min = FilterNearest
		}
	}
	return min, mag
}

// activateTexture switches the active unit only when it differs.
func (e *Engine) activateTexture(unit int) {
	if e.activeTextureUnit != unit {
		e.ctx.ActiveTexture(unit)
		e.activeTextureUnit = unit
	}
}

// bindTextureDirectly binds texture on the active unit unless the cache says
// it is already bound there.
func (e *Engine) bindTextureDirectly(target TextureTarget, texture *Texture) {
	if e.boundTextures[e.activeTextureUnit] == texture {
		return
	}
	var handle TextureHandle
	if texture != nil {
		handle = texture.handle
	}
	e.ctx.BindTexture(target, handle)
	e.boundTextures[e.activeTextureUnit] = texture
}

// clampTextureSize narrows a dimension to the device limit.
func (e *Engine) clampTextureSize(size int) int {
	if e.caps.MaxTextureSize > 0 && size > e.caps.MaxTextureSize {
		return e.caps.MaxTextureSize
	}
	return size
}

// prepareTexture uploads image data and configures filtering on a bound
// texture object.
func (e *Engine) prepareTexture(texture *Texture, image Image, invertY bool) {
	width := e.clampTextureSize(image.Width)
	height := e.clampTextureSize(image.Height)
	if width != image.Width || height != image.Height {
		logger.Warn("texture exceeds device limit, clamping",
			zap.String("url", texture.URL),
			zap.Int("width", image.Width),
			zap.Int("height", image.Height),
			zap.Int("max", e.caps.MaxTextureSize))
	}

	e.bindTextureDirectly(Texture2D, texture)
	e.ctx.UnpackFlipY(invertY)
	e.ctx.TexImage2D(Texture2D, 0, width, height, FormatRGBA, TexelUnsignedByte, image.Data)

	min, mag := getSamplingParameters(texture.samplingMode, texture.generateMipMaps)
	e.ctx.TexMagFilter(Texture2D, mag)
	e.ctx.TexMinFilter(Texture2D, min)
	if texture.generateMipMaps {
		e.ctx.GenerateMipmap(Texture2D)
	}

	e.bindTextureDirectly(Texture2D, nil)

	texture.BaseWidth = image.Width
	texture.BaseHeight = image.Height
	texture.Width = width
	texture.Height = height
	texture.isReady = true
}

// CreateTexture starts an asynchronous texture load through the engine's
// image loader. The tracker, when given, holds a pending entry from call
// until load completion, success or failure. onLoad and onError may be nil.
func (e *Engine) CreateTexture(url string, noMipmap, invertY bool, tracker PendingTracker,
	samplingMode int, onLoad func(), onError func(msg string)) *Texture {

	texture := &Texture{
		handle:          e.ctx.CreateTexture(),
		URL:             url,
		references:      1,
		samplingMode:    samplingMode,
		generateMipMaps: !noMipmap,
	}
	e.loadedTextures = append(e.loadedTextures, texture)

	if e.loadImage == nil {
		logger.Error("texture load requested without an image loader", zap.String("url", url))
		if onError != nil {
			onError("no image loader configured")
		}
		return texture
	}

	if tracker != nil {
		tracker.AddPendingData(texture)
	}

	e.loadImage(url,
		func(image Image) {
			e.prepareTexture(texture, image, invertY)
			if tracker != nil {
				tracker.RemovePendingData(texture)
			}
			if onLoad != nil {
				onLoad()
			}
		},
		func(msg string) {
			if tracker != nil {
				tracker.RemovePendingData(texture)
			}
			logger.Error("texture load failed", zap.String("url", url), zap.String("error", msg))
			if onError != nil {
				onError(msg)
			}
		})

	return texture
}

// CreateRawTexture uploads caller-provided texel data synchronously.
func (e *Engine) CreateRawTexture(data []byte, width, height int, format TextureFormat,
	generateMipMaps, invertY bool, samplingMode int) *Texture {

	texture := &Texture{
		handle:          e.ctx.CreateTexture(),
		references:      1,
		samplingMode:    samplingMode,
		generateMipMaps: generateMipMaps,
		Width:           width,
		Height:          height,
		BaseWidth:       width,
		BaseHeight:      height,
	}
	e.loadedTextures = append(e.loadedTextures, texture)

	e.bindTextureDirectly(Texture2D, texture)
	e.ctx.UnpackFlipY(invertY)
	e.ctx.UnpackAlignment(1)
	e.ctx.TexImage2D(Texture2D, 0, width, height, format, TexelUnsignedByte, data)

	min, mag := getSamplingParameters(samplingMode, generateMipMaps)
	e.ctx.TexMagFilter(Texture2D, mag)
	e.ctx.TexMinFilter(Texture2D, min)
	if generateMipMaps {
		e.ctx.GenerateMipmap(Texture2D)
	}

	e.bindTextureDirectly(Texture2D, nil)
	texture.isReady = true
	return texture
}

// UpdateRawTexture replaces the texel data of a raw texture.
func (e *Engine) UpdateRawTexture(texture *Texture, data []byte, format TextureFormat, invertY bool) {
	e.bindTextureDirectly(Texture2D, texture)
	e.ctx.UnpackFlipY(invertY)
	e.ctx.UnpackAlignment(1)
	e.ctx.TexImage2D(Texture2D, 0, texture.Width, texture.Height, format, TexelUnsignedByte, data)
	if texture.generateMipMaps {
		e.ctx.GenerateMipmap(Texture2D)
	}
	e.bindTextureDirectly(Texture2D, nil)
	texture.isReady = true
}

// CreateDynamicTexture allocates an empty texture sized for repeated CPU
// updates.
func (e *Engine) CreateDynamicTexture(width, height int, generateMipMaps bool, samplingMode int) *Texture {
	width = e.clampTextureSize(width)
	height = e.clampTextureSize(height)

	texture := &Texture{
		handle:          e.ctx.CreateTexture(),
		references:      1,
		samplingMode:    samplingMode,
		generateMipMaps: generateMipMaps,
		Width:           width,
		Height:          height,
		BaseWidth:       width,
		BaseHeight:      height,
	}
	e.loadedTextures = append(e.loadedTextures, texture)
	e.UpdateTextureSamplingMode(samplingMode, texture)
	return texture
}

// UpdateDynamicTexture uploads a new image into a dynamic texture.
func (e *Engine) UpdateDynamicTexture(texture *Texture, image Image, invertY bool) {
	e.bindTextureDirectly(Texture2D, texture)
	e.ctx.UnpackFlipY(invertY)
	e.ctx.TexImage2D(Texture2D, 0, image.Width, image.Height, FormatRGBA, TexelUnsignedByte, image.Data)
	if texture.generateMipMaps {
		e.ctx.GenerateMipmap(Texture2D)
	}
	e.bindTextureDirectly(Texture2D, nil)
	texture.isReady = true
}

// UpdateTextureSamplingMode reconfigures filtering on an existing texture.
func (e *Engine) UpdateTextureSamplingMode(samplingMode int, texture *Texture) {
	target := texture.target()
	min, mag := getSamplingParameters(samplingMode, texture.generateMipMaps)

	e.bindTextureDirectly(target, texture)
	e.ctx.TexMagFilter(target, mag)
	e.ctx.TexMinFilter(target, min)
	e.bindTextureDirectly(target, nil)

	texture.samplingMode = samplingMode
}

// SetTexture binds texture to the given unit and points the sampler uniform
// at it. A nil or not-ready texture unbinds the unit.
func (e *Engine) SetTexture(unit int, uniform UniformLocation, texture *Texture) {
	if uniform < 0 {
		return
	}

	e.activateTexture(unit)

	if texture == nil || !texture.isReady {
		if e.boundTextures[unit] != nil {
			e.bindTextureDirectly(Texture2D, nil)
		}
		return
	}

	e.bindTextureDirectly(texture.target(), texture)
	e.ctx.Uniform1i(uniform, int32(unit))
}

// SetAnisotropicLevel applies anisotropic filtering up to the device limit.
func (e *Engine) SetAnisotropicLevel(texture *Texture, level float32) {
	if !e.caps.TextureAnisotropicFilter {
		return
	}
	if level > float32(e.caps.MaxAnisotropy) {
		level = float32(e.caps.MaxAnisotropy)
	}
	target := texture.target()
	e.bindTextureDirectly(target, texture)
	e.ctx.TexAnisotropy(target, level)
}

// UnbindAllTextures unbinds every texture unit the engine has touched.
func (e *Engine) UnbindAllTextures() {
	for unit := 0; unit < e.caps.MaxTextureImageUnits; unit++ {
		if e.boundTextures[unit] == nil {
			continue
		}
		e.activateTexture(unit)
		e.bindTextureDirectly(Texture2D, nil)
	}
}

// ReleaseInternalTexture drops one reference and frees the device objects at
// zero.
func (e *Engine) ReleaseInternalTexture(texture *Texture) {
	if texture == nil {
		return
	}
	texture.references--
	if texture.references != 0 {
		return
	}

	e.releaseTexture(texture)

	for i, loaded := range e.loadedTextures {
		if loaded == texture {
			e.loadedTextures = append(e.loadedTextures[:i], e.loadedTextures[i+1:]...)
			break
		}
	}
}

// releaseTexture deletes the device objects behind a texture, including any
// render-target framebuffer and depth renderbuffer.
func (e *Engine) releaseTexture(texture *Texture) {
	if texture.framebuffer != 0 {
		e.ctx.DeleteFramebuffer(texture.framebuffer)
		texture.framebuffer = 0
	}
	if texture.depthBuffer != 0 {
		e.ctx.DeleteRenderbuffer(texture.depthBuffer)
		texture.depthBuffer = 0
	}
	if texture.handle != 0 {
		e.ctx.DeleteTexture(texture.handle)
		texture.handle = 0
	}

	for unit, bound := range e.boundTextures {
		if bound == texture {
			e.boundTextures[unit] = nil
		}
	}
	if e.currentTarget == texture {
		e.currentTarget = nil
	}
}
