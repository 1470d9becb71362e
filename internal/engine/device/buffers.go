package device

import (
	"reflect"

	"github.com/halcyon3d/halcyon/internal/logger"
)

// Kind names a vertex data stream.
type Kind string

// Vertex stream kinds shared by meshes, effects and the particle system.
const (
	PositionKind Kind = "position"
	NormalKind   Kind = "normal"
	UVKind       Kind = "uv"
	ColorKind    Kind = "color"
)

// Buffer is a reference-counted device buffer. A buffer shared between
// meshes carries one reference per user; the device object is deleted when
// the last reference is released.
type Buffer struct {
	handle     BufferHandle
	references int
	is32Bits   bool
}

// Is32Bits reports whether an index buffer stores 32-bit indices.
func (b *Buffer) Is32Bits() bool {
	return b.is32Bits
}

// Retain adds a reference for a new sharer of the buffer.
func (b *Buffer) Retain() {
	b.references++
}

// VertexBuffer describes one attribute stream inside a device buffer.
// Stride and offset are in floats.
type VertexBuffer struct {
	Buffer    *Buffer
	Size      int32
	Stride    int32
	Offset    int32
	Instanced bool
}

// CreateVertexBuffer uploads vertices into a new static buffer.
func (e *Engine) CreateVertexBuffer(vertices []float32) *Buffer {
	vbo := &Buffer{handle: e.ctx.CreateBuffer(), references: 1}
	e.bindArrayBuffer(vbo)
	e.ctx.BufferDataFloat(ArrayBuffer, vertices, StaticDraw)
	e.resetVertexBufferBinding()
	return vbo
}

// CreateDynamicVertexBuffer uploads vertices into a new buffer marked for
// frequent re-upload.
func (e *Engine) CreateDynamicVertexBuffer(vertices []float32) *Buffer {
	vbo := &Buffer{handle: e.ctx.CreateBuffer(), references: 1}
	e.bindArrayBuffer(vbo)
	e.ctx.BufferDataFloat(ArrayBuffer, vertices, DynamicDraw)
	e.resetVertexBufferBinding()
	return vbo
}

// UpdateDynamicVertexBuffer re-uploads vertex data. offsetBytes below zero
// means zero; count below zero uploads the whole slice at offsetBytes,
// otherwise count floats starting at that index are uploaded at the front
// of the buffer.
func (e *Engine) UpdateDynamicVertexBuffer(vertexBuffer *Buffer, vertices []float32, offsetBytes, count int) {
	e.bindArrayBuffer(vertexBuffer)

	if offsetBytes < 0 {
		offsetBytes = 0
	}

	if count < 0 {
		e.ctx.BufferSubDataFloat(ArrayBuffer, offsetBytes, vertices)
	} else {
		e.ctx.BufferSubDataFloat(ArrayBuffer, 0, vertices[offsetBytes:offsetBytes+count])
	}

	e.resetVertexBufferBinding()
}

// UpdateArrayBuffer re-uploads data into whatever array buffer is bound.
func (e *Engine) UpdateArrayBuffer(data []float32) {
	e.ctx.BufferSubDataFloat(ArrayBuffer, 0, data)
}

// CreateIndexBuffer uploads indices into a new static element buffer.
// 32-bit storage is used only when an index exceeds 65535 and the device
// supports it; otherwise indices are narrowed to 16 bits.
func (e *Engine) CreateIndexBuffer(indices []uint32) *Buffer {
	vbo := &Buffer{handle: e.ctx.CreateBuffer(), references: 1}
	e.bindIndexBuffer(vbo)

	need32Bits := false
	if e.caps.UintIndices {
		for _, index := range indices {
			if index > 65535 {
				need32Bits = true
				break
			}
		}
	}

	if need32Bits {
		e.ctx.BufferDataUint32(ElementArrayBuffer, indices, StaticDraw)
	} else {
		narrowed := make([]uint16, len(indices))
		truncated := false
		for i, index := range indices {
			if index > 65535 {
				truncated = true
			}
			narrowed[i] = uint16(index)
		}
		if truncated {
			logger.Warn("index buffer narrowed to 16 bits with out-of-range indices")
		}
		e.ctx.BufferDataUint16(ElementArrayBuffer, narrowed, StaticDraw)
	}

	e.resetIndexBufferBinding()
	vbo.is32Bits = need32Bits
	return vbo
}

// ReleaseBuffer drops one reference and reports whether the device object
// was freed.
func (e *Engine) ReleaseBuffer(buffer *Buffer) bool {
	buffer.references--

	if buffer.references == 0 {
		e.ctx.DeleteBuffer(buffer.handle)
		e.forgetBuffer(buffer)
		return true
	}
	return false
}

// forgetBuffer clears cache entries pointing at a deleted buffer.
func (e *Engine) forgetBuffer(buffer *Buffer) {
	for target, bound := range e.boundBuffers {
		if bound == buffer {
			delete(e.boundBuffers, target)
		}
	}
	for index, pointer := range e.bufferPointers {
		if pointer.buffer == buffer {
			delete(e.bufferPointers, index)
		}
	}
	if e.cachedVertexBuffer == buffer {
		e.cachedVertexBuffer = nil
	}
	if e.cachedIndexBuffer == buffer {
		e.cachedIndexBuffer = nil
	}
}

func (e *Engine) bindArrayBuffer(buffer *Buffer) {
	e.bindBuffer(buffer, ArrayBuffer)
}

func (e *Engine) bindIndexBuffer(buffer *Buffer) {
	e.bindBuffer(buffer, ElementArrayBuffer)
}

// bindBuffer reaches the device only when the cached binding for the target
// differs.
func (e *Engine) bindBuffer(buffer *Buffer, target BufferTarget) {
	bound, ok := e.boundBuffers[target]
	if !ok || bound != buffer {
		var handle BufferHandle
		if buffer != nil {
			handle = buffer.handle
		}
		e.ctx.BindBuffer(target, handle)
		e.boundBuffers[target] = buffer
	}
}

func (e *Engine) resetVertexBufferBinding() {
	e.bindArrayBuffer(nil)
	e.cachedVertexBuffer = nil
	e.cachedVertexMap = nil
}

func (e *Engine) resetIndexBufferBinding() {
	e.bindIndexBuffer(nil)
	e.cachedIndexBuffer = nil
}

// vertexAttribPointer re-issues the attribute pointer only when any element
// of the cached (buffer, size, normalized, stride, offset) tuple changed.
func (e *Engine) vertexAttribPointer(buffer *Buffer, index uint32, size int32, normalized bool, strideBytes, offsetBytes int32) {
	changed := false
	pointer, ok := e.bufferPointers[index]
	if !ok {
		changed = true
		e.bufferPointers[index] = &bufferPointer{
			index:      index,
			size:       size,
			normalized: normalized,
			stride:     strideBytes,
			offset:     offsetBytes,
			buffer:     buffer,
		}
	} else {
		if pointer.buffer != buffer {
			pointer.buffer = buffer
			changed = true
		}
		if pointer.size != size {
			pointer.size = size
			changed = true
		}
		if pointer.normalized != normalized {
			pointer.normalized = normalized
			changed = true
		}
		if pointer.stride != strideBytes {
			pointer.stride = strideBytes
			changed = true
		}
		if pointer.offset != offsetBytes {
			pointer.offset = offsetBytes
			changed = true
		}
	}

	if changed {
		e.bindArrayBuffer(buffer)
		e.ctx.VertexAttribPointer(index, size, normalized, strideBytes, offsetBytes)
	}
}

func (e *Engine) enableAttrib(order uint32) {
	if int(order) >= len(e.vertexAttribArrays) {
		grown := make([]bool, order+1)
		copy(grown, e.vertexAttribArrays)
		e.vertexAttribArrays = grown
	}
	if !e.vertexAttribArrays[order] {
		e.ctx.EnableVertexAttribArray(order)
		e.vertexAttribArrays[order] = true
	}
}

func (e *Engine) disableAttrib(order uint32) {
	if int(order) < len(e.vertexAttribArrays) && e.vertexAttribArrays[order] {
		e.ctx.DisableVertexAttribArray(order)
		e.vertexAttribArrays[order] = false
	}
}

// BindBuffers binds the vertex streams an effect consumes plus an optional
// index buffer. Attribute setup is skipped entirely when the same map and
// effect were bound last; individual pointers are re-issued only on tuple
// changes. Streams the effect declares but the map lacks are disabled.
func (e *Engine) BindBuffers(vertexBuffers map[Kind]*VertexBuffer, indexBuffer *Buffer, effect *Effect) {
	if !sameVertexMap(e.cachedVertexMap, vertexBuffers) || e.cachedEffect != effect {
		e.cachedVertexMap = vertexBuffers
		e.cachedEffect = effect

		for index, kind := range effect.attributesNames {
			order := effect.AttributeLocation(index)
			if order < 0 {
				continue
			}

			vertexBuffer := vertexBuffers[Kind(kind)]
			if vertexBuffer == nil {
				e.disableAttrib(uint32(order))
				continue
			}

			e.enableAttrib(uint32(order))

			e.vertexAttribPointer(vertexBuffer.Buffer, uint32(order), vertexBuffer.Size,
				false, vertexBuffer.Stride*4, vertexBuffer.Offset*4)

			if vertexBuffer.Instanced && e.caps.InstancedArrays {
				e.ctx.VertexAttribDivisor(uint32(order), 1)
				e.currentInstanceLocations = append(e.currentInstanceLocations, uint32(order))
				e.currentInstanceBuffers = append(e.currentInstanceBuffers, vertexBuffer.Buffer)
			}
		}
	}

	if indexBuffer != nil && e.cachedIndexBuffer != indexBuffer {
		e.cachedIndexBuffer = indexBuffer
		e.bindIndexBuffer(indexBuffer)
		e.uintIndicesSet = indexBuffer.is32Bits
	}
}

// sameVertexMap compares vertex buffer maps by identity, the way callers
// reuse one map across frames.
func sameVertexMap(a, b map[Kind]*VertexBuffer) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// UnbindInstanceAttributes resets the divisor on every instanced attribute
// bound by the last BindBuffers.
func (e *Engine) UnbindInstanceAttributes() {
	var bound *Buffer
	for i, instanceBuffer := range e.currentInstanceBuffers {
		if bound != instanceBuffer {
			bound = instanceBuffer
			e.bindArrayBuffer(instanceBuffer)
		}
		e.ctx.VertexAttribDivisor(e.currentInstanceLocations[i], 0)
	}
	e.currentInstanceBuffers = nil
	e.currentInstanceLocations = nil
}

// UnbindAllAttributes disables every attribute slot the engine enabled.
func (e *Engine) UnbindAllAttributes() {
	for i := range e.vertexAttribArrays {
		if i >= e.caps.MaxVertexAttribs && e.caps.MaxVertexAttribs > 0 {
			continue
		}
		if !e.vertexAttribArrays[i] {
			continue
		}
		e.ctx.DisableVertexAttribArray(uint32(i))
		e.vertexAttribArrays[i] = false
	}
}
