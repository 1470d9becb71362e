// Package lighting provides the light sources fed to shader uniforms.
package lighting

import "github.com/halcyon3d/halcyon/pkg/math"

// Light is the surface the renderer needs from any light source.
type Light interface {
	// WorldMatrix positions the light for shadow and falloff math.
	WorldMatrix() math.Mat4
	// Diffuse is the RGB color in 0-1 range.
	Diffuse() [3]float32
	// Intensity is the brightness multiplier.
	Intensity() float32
}
