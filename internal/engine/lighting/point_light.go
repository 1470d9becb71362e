package lighting

import "github.com/halcyon3d/halcyon/pkg/math"

// MaxPointLights is the maximum number of point lights supported in shaders.
const MaxPointLights = 32

// PointLight represents a point light source for GPU upload.
type PointLight struct {
	Position [3]float32 // World position
	Color    [3]float32 // RGB color (0-1 range)
	Range    float32    // Light radius/falloff distance
	Power    float32    // Light intensity multiplier
}

// NewPointLight creates a white point light of unit intensity.
func NewPointLight(position [3]float32, lightRange float32) *PointLight {
	return &PointLight{
		Position: position,
		Color:    [3]float32{1, 1, 1},
		Range:    lightRange,
		Power:    1,
	}
}

// WorldMatrix places the light at its position.
func (l *PointLight) WorldMatrix() math.Mat4 {
	return math.Translate(l.Position[0], l.Position[1], l.Position[2])
}

// Diffuse returns the RGB color.
func (l *PointLight) Diffuse() [3]float32 {
	return l.Color
}

// Intensity returns the brightness multiplier.
func (l *PointLight) Intensity() float32 {
	return l.Power
}

// PointLightBuffer holds lights for GPU upload.
type PointLightBuffer struct {
	Lights []PointLight
	Count  int
}

// NewPointLightBuffer creates an empty point light buffer.
func NewPointLightBuffer() *PointLightBuffer {
	return &PointLightBuffer{
		Lights: make([]PointLight, 0, MaxPointLights),
	}
}

// Clear removes all lights from the buffer.
func (b *PointLightBuffer) Clear() {
	b.Lights = b.Lights[:0]
	b.Count = 0
}

// AddLight adds a point light to the buffer.
// Returns false if buffer is full.
func (b *PointLightBuffer) AddLight(light PointLight) bool {
	if b.Count >= MaxPointLights {
		return false
	}
	b.Lights = append(b.Lights, light)
	b.Count++
	return true
}

// SetLights replaces all lights in the buffer.
// Truncates to MaxPointLights if necessary.
func (b *PointLightBuffer) SetLights(lights []PointLight) {
	b.Clear()
	count := len(lights)
	if count > MaxPointLights {
		count = MaxPointLights
	}
	b.Lights = append(b.Lights, lights[:count]...)
	b.Count = count
}

// GetPositions returns positions as a flat float32 slice for GPU upload.
// Format: [x0, y0, z0, x1, y1, z1, ...]
func (b *PointLightBuffer) GetPositions() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.Lights {
		result[i*3+0] = light.Position[0]
		result[i*3+1] = light.Position[1]
		result[i*3+2] = light.Position[2]
	}
	return result
}

// GetColors returns colors as a flat float32 slice for GPU upload.
// Format: [r0, g0, b0, r1, g1, b1, ...]
func (b *PointLightBuffer) GetColors() []float32 {
	result := make([]float32, MaxPointLights*3)
	for i, light := range b.Lights {
		result[i*3+0] = light.Color[0]
		result[i*3+1] = light.Color[1]
		result[i*3+2] = light.Color[2]
	}
	return result
}

// GetRanges returns ranges as a flat float32 slice for GPU upload.
func (b *PointLightBuffer) GetRanges() []float32 {
	result := make([]float32, MaxPointLights)
	for i, light := range b.Lights {
		result[i] = light.Range
	}
	return result
}

// GetIntensities returns intensities as a flat float32 slice for GPU upload.
func (b *PointLightBuffer) GetIntensities() []float32 {
	result := make([]float32, MaxPointLights)
	for i, light := range b.Lights {
		result[i] = light.Power
	}
	return result
}
