// Package mesh provides the vertex-stream sink the particle system and demo
// scenes render through. A Mesh owns its CPU-side streams and, once attached
// to a device engine, mirrors them into dynamic GPU buffers.
package mesh

import (
	"github.com/halcyon3d/halcyon/internal/engine/device"
	"github.com/halcyon3d/halcyon/internal/engine/picking"
	"github.com/halcyon3d/halcyon/pkg/math"
)

// Mesh is a named set of vertex streams plus indices with a world transform
// and bounding volumes.
type Mesh struct {
	Name string

	Position           math.Vec3
	Rotation           math.Vec3
	RotationQuaternion *math.Quat
	ScalingVector      math.Vec3

	IsPickable               bool
	AlwaysSelectAsActiveMesh bool

	streams map[device.Kind][]float32
	indices []uint32

	worldMatrix  math.Mat4
	boundingInfo *picking.BoundingInfo

	engine        *device.Engine
	buffers       map[device.Kind]*device.Buffer
	vertexBuffers map[device.Kind]*device.VertexBuffer
	indexBuffer   *device.Buffer

	normalsFrozen bool
}

// New creates an empty mesh with an identity transform.
func New(name string) *Mesh {
	return &Mesh{
		Name:          name,
		ScalingVector: math.Vec3{X: 1, Y: 1, Z: 1},
		worldMatrix:   math.Identity(),
		streams:       make(map[device.Kind][]float32),
	}
}

// stream component widths per kind.
func kindSize(kind device.Kind) int32 {
	switch kind {
	case device.PositionKind, device.NormalKind:
		return 3
	case device.UVKind:
		return 2
	case device.ColorKind:
		return 4
	}
	return 3
}

// SetVerticesData installs a vertex stream. Attached meshes upload it.
func (m *Mesh) SetVerticesData(kind device.Kind, data []float32) {
	m.streams[kind] = data
	if m.engine != nil {
		m.uploadStream(kind)
	}
}

// VerticesData returns the CPU copy of a stream, nil when absent.
func (m *Mesh) VerticesData(kind device.Kind) []float32 {
	return m.streams[kind]
}

// SetIndices installs the index list. Attached meshes upload it.
func (m *Mesh) SetIndices(indices []uint32) {
	m.indices = indices
	if m.engine != nil {
		if m.indexBuffer != nil {
			m.engine.ReleaseBuffer(m.indexBuffer)
		}
		m.indexBuffer = m.engine.CreateIndexBuffer(indices)
	}
}

// Indices returns the index list.
func (m *Mesh) Indices() []uint32 {
	return m.indices
}

// TotalVertices returns the vertex count of the position stream.
func (m *Mesh) TotalVertices() int {
	return len(m.streams[device.PositionKind]) / 3
}

// Attach mirrors every present stream into dynamic device buffers.
func (m *Mesh) Attach(engine *device.Engine) {
	m.engine = engine
	m.buffers = make(map[device.Kind]*device.Buffer)
	m.vertexBuffers = make(map[device.Kind]*device.VertexBuffer)

	for kind := range m.streams {
		m.uploadStream(kind)
	}
	if m.indices != nil {
		m.indexBuffer = engine.CreateIndexBuffer(m.indices)
	}
}

func (m *Mesh) uploadStream(kind device.Kind) {
	data := m.streams[kind]
	if buffer, ok := m.buffers[kind]; ok {
		m.engine.UpdateDynamicVertexBuffer(buffer, data, 0, -1)
		return
	}
	buffer := m.engine.CreateDynamicVertexBuffer(data)
	m.buffers[kind] = buffer
	size := kindSize(kind)
	m.vertexBuffers[kind] = &device.VertexBuffer{Buffer: buffer, Size: size, Stride: size}
}

// UpdateVerticesData replaces a stream's contents and pushes it through the
// dynamic-buffer path when attached.
func (m *Mesh) UpdateVerticesData(kind device.Kind, data []float32) {
	m.streams[kind] = data
	if m.engine == nil {
		return
	}
	if buffer, ok := m.buffers[kind]; ok {
		m.engine.UpdateDynamicVertexBuffer(buffer, data, 0, -1)
	} else {
		m.uploadStream(kind)
	}
}

// VertexBuffers returns the per-kind GPU streams for device.BindBuffers.
func (m *Mesh) VertexBuffers() map[device.Kind]*device.VertexBuffer {
	return m.vertexBuffers
}

// IndexBuffer returns the GPU index buffer, nil when unattached.
func (m *Mesh) IndexBuffer() *device.Buffer {
	return m.indexBuffer
}

// ComputeWorldMatrix rebuilds the world matrix from scaling, rotation and
// position and propagates it into the bounding info.
func (m *Mesh) ComputeWorldMatrix() math.Mat4 {
	var rotation math.Mat4
	if m.RotationQuaternion != nil {
		rotation = m.RotationQuaternion.ToMat4()
	} else {
		rotation = math.RotationYawPitchRoll(m.Rotation.Y, m.Rotation.X, m.Rotation.Z)
	}

	m.worldMatrix = rotation.Mul(math.Scale(m.ScalingVector.X, m.ScalingVector.Y, m.ScalingVector.Z))
	m.worldMatrix = math.Translate(m.Position.X, m.Position.Y, m.Position.Z).Mul(m.worldMatrix)

	if m.boundingInfo != nil {
		m.boundingInfo.Update(m.worldMatrix)
	}
	return m.worldMatrix
}

// WorldMatrix returns the last computed world matrix.
func (m *Mesh) WorldMatrix() math.Mat4 {
	return m.worldMatrix
}

// Scaling returns the mesh scale vector.
func (m *Mesh) Scaling() math.Vec3 {
	return m.ScalingVector
}

// BoundingInfo returns the current bounding volumes, computing them on first
// use.
func (m *Mesh) BoundingInfo() *picking.BoundingInfo {
	if m.boundingInfo == nil {
		m.RefreshBoundingInfo()
	}
	return m.boundingInfo
}

// SetBoundingInfo overrides the bounding volumes, as the particle system's
// visibility box does.
func (m *Mesh) SetBoundingInfo(info *picking.BoundingInfo) {
	m.boundingInfo = info
}

// RefreshBoundingInfo recomputes min/max over the position stream.
func (m *Mesh) RefreshBoundingInfo() {
	positions := m.streams[device.PositionKind]
	if len(positions) < 3 {
		m.boundingInfo = picking.NewBoundingInfo(math.Vec3{}, math.Vec3{})
		return
	}

	minimum := math.Vec3{X: positions[0], Y: positions[1], Z: positions[2]}
	maximum := minimum
	for i := 3; i+2 < len(positions); i += 3 {
		x, y, z := positions[i], positions[i+1], positions[i+2]
		if x < minimum.X {
			minimum.X = x
		}
		if x > maximum.X {
			maximum.X = x
		}
		if y < minimum.Y {
			minimum.Y = y
		}
		if y > maximum.Y {
			maximum.Y = y
		}
		if z < minimum.Z {
			minimum.Z = z
		}
		if z > maximum.Z {
			maximum.Z = z
		}
	}

	m.boundingInfo = picking.NewBoundingInfo(minimum, maximum)
	m.boundingInfo.Update(m.worldMatrix)
}

// FreezeNormals stops normal re-uploads in particle updates.
func (m *Mesh) FreezeNormals() {
	m.normalsFrozen = true
}

// UnfreezeNormals re-enables normal re-uploads.
func (m *Mesh) UnfreezeNormals() {
	m.normalsFrozen = false
}

// AreNormalsFrozen reports whether normal updates are suppressed.
func (m *Mesh) AreNormalsFrozen() bool {
	return m.normalsFrozen
}

// Dispose releases the GPU buffers. The CPU streams stay valid.
func (m *Mesh) Dispose() {
	if m.engine == nil {
		return
	}
	for kind, buffer := range m.buffers {
		m.engine.ReleaseBuffer(buffer)
		delete(m.buffers, kind)
		delete(m.vertexBuffers, kind)
	}
	if m.indexBuffer != nil {
		m.engine.ReleaseBuffer(m.indexBuffer)
		m.indexBuffer = nil
	}
	m.engine = nil
}
