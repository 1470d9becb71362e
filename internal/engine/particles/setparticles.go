package particles

import (
	gomath "math"

	"github.com/halcyon3d/halcyon/internal/engine/device"
	"github.com/halcyon3d/halcyon/internal/engine/mesh"
	"github.com/halcyon3d/halcyon/internal/engine/picking"
	"github.com/halcyon3d/halcyon/pkg/math"
)

// SetParticles runs the per-frame particle pass over [start, end]: the
// update hook, then scale, rotate and translate every template vertex into
// the flat arrays, then the GPU push when update is true. end below start
// means the last particle.
func (s *System) SetParticles(start, end int, update bool) {
	if !s.updatable {
		return
	}
	if end < start {
		end = s.NbParticles - 1
	}

	if s.BeforeUpdateParticles != nil {
		s.BeforeUpdateParticles(start, end, update)
	}

	camAxisX := math.Vec3{X: 1}
	camAxisY := math.Vec3{Y: 1}
	camAxisZ := math.Vec3{Z: 1}

	// Billboarding: aim the local Z axis along the camera direction
	// un-rotated by the mesh's own world rotation, then complete an
	// orthogonal basis around it.
	if s.Billboard {
		if _, rotation, _, ok := s.Mesh.WorldMatrix().Decompose(); ok {
			invertMatrix := rotation.ToRotationMatrix().Inverse()
			camDir := s.camera.CurrentTarget().Sub(s.camera.GlobalPosition())
			camAxisZ = transformWithW(invertMatrix, camDir).Normalize()
			camAxisY = camAxisZ.Cross(math.Vec3{X: 1}).Normalize()
			camAxisX = camAxisY.Cross(camAxisZ).Normalize()
		}
	}

	rotMatrix := math.Identity()

	minimum := math.Vec3{X: gomath.MaxFloat32, Y: gomath.MaxFloat32, Z: gomath.MaxFloat32}
	maximum := math.Vec3{X: -gomath.MaxFloat32, Y: -gomath.MaxFloat32, Z: -gomath.MaxFloat32}

	idx := 0
	index := 0
	colidx := 0
	colorIndex := 0
	uvidx := 0
	uvIndex := 0

	if end > s.NbParticles-1 {
		end = s.NbParticles - 1
	}
	for p := start; p <= end; p++ {
		particle := s.Particles[p]
		shape := particle.model.shape
		shapeUV := particle.model.shapeUV

		if s.UpdateParticle != nil {
			s.UpdateParticle(particle)
		}

		if particle.IsVisible {
			if s.Billboard {
				particle.Rotation.X = 0
				particle.Rotation.Y = 0
			}
			if s.computeParticleRotation || s.Billboard {
				var q math.Quat
				if particle.RotationQuaternion != nil {
					q = *particle.RotationQuaternion
				} else {
					q = math.QuatFromYawPitchRoll(
						particle.Rotation.Y, particle.Rotation.X, particle.Rotation.Z)
				}
				rotMatrix = q.ToRotationMatrix()
			}

			for pt := range shape {
				idx = index + pt*3
				colidx = colorIndex + pt*4
				uvidx = uvIndex + pt*2

				vertex := shape[pt]
				if s.computeParticleVertex && s.UpdateParticleVertex != nil {
					s.UpdateParticleVertex(particle, &vertex, pt)
				}

				vertex.X *= particle.Scaling.X
				vertex.Y *= particle.Scaling.Y
				vertex.Z *= particle.Scaling.Z

				rotated := transformWithW(rotMatrix, vertex)

				s.positions32[idx] = particle.Position.X +
					camAxisX.X*rotated.X + camAxisY.X*rotated.Y + camAxisZ.X*rotated.Z
				s.positions32[idx+1] = particle.Position.Y +
					camAxisX.Y*rotated.X + camAxisY.Y*rotated.Y + camAxisZ.Y*rotated.Z
				s.positions32[idx+2] = particle.Position.Z +
					camAxisX.Z*rotated.X + camAxisY.Z*rotated.Y + camAxisZ.Z*rotated.Z

				if s.computeBoundingBox {
					if s.positions32[idx] < minimum.X {
						minimum.X = s.positions32[idx]
					}
					if s.positions32[idx] > maximum.X {
						maximum.X = s.positions32[idx]
					}
					if s.positions32[idx+1] < minimum.Y {
						minimum.Y = s.positions32[idx+1]
					}
					if s.positions32[idx+1] > maximum.Y {
						maximum.Y = s.positions32[idx+1]
					}
					if s.positions32[idx+2] < minimum.Z {
						minimum.Z = s.positions32[idx+2]
					}
					if s.positions32[idx+2] > maximum.Z {
						maximum.Z = s.positions32[idx+2]
					}
				}

				// When vertices can't be morphed the template normals just
				// rotate, which is much faster than recomputing them.
				if !s.computeParticleVertex {
					normal := math.Vec3{
						X: s.fixedNormal32[idx],
						Y: s.fixedNormal32[idx+1],
						Z: s.fixedNormal32[idx+2],
					}
					rotated = transformWithW(rotMatrix, normal)

					s.normals32[idx] = camAxisX.X*rotated.X + camAxisY.X*rotated.Y + camAxisZ.X*rotated.Z
					s.normals32[idx+1] = camAxisX.Y*rotated.X + camAxisY.Y*rotated.Y + camAxisZ.Y*rotated.Z
					s.normals32[idx+2] = camAxisX.Z*rotated.X + camAxisY.Z*rotated.Y + camAxisZ.Z*rotated.Z
				}

				if s.computeParticleColor && particle.Color != nil {
					s.colors32[colidx] = particle.Color.R
					s.colors32[colidx+1] = particle.Color.G
					s.colors32[colidx+2] = particle.Color.B
					s.colors32[colidx+3] = particle.Color.A
				}

				if s.computeParticleTexture {
					s.uvs32[uvidx] = shapeUV[pt*2]*(particle.UVs[2]-particle.UVs[0]) + particle.UVs[0]
					s.uvs32[uvidx+1] = shapeUV[pt*2+1]*(particle.UVs[3]-particle.UVs[1]) + particle.UVs[1]
				}
			}
		} else {
			// Invisible: collapse every vertex onto the camera position so
			// the particle renders as nothing without re-indexing.
			camPos := s.camera.GlobalPosition()
			for pt := range shape {
				idx = index + pt*3
				colidx = colorIndex + pt*4
				uvidx = uvIndex + pt*2

				s.positions32[idx] = camPos.X
				s.positions32[idx+1] = camPos.Y
				s.positions32[idx+2] = camPos.Z
				s.normals32[idx] = 0
				s.normals32[idx+1] = 0
				s.normals32[idx+2] = 0
				if s.computeParticleColor && particle.Color != nil {
					s.colors32[colidx] = particle.Color.R
					s.colors32[colidx+1] = particle.Color.G
					s.colors32[colidx+2] = particle.Color.B
					s.colors32[colidx+3] = particle.Color.A
				}
				if s.computeParticleTexture {
					s.uvs32[uvidx] = shapeUV[pt*2]*(particle.UVs[2]-particle.UVs[0]) + particle.UVs[0]
					s.uvs32[uvidx+1] = shapeUV[pt*2+1]*(particle.UVs[3]-particle.UVs[1]) + particle.UVs[1]
				}
			}
		}

		if s.particlesIntersect {
			s.updateParticleBounds(particle, rotMatrix, camAxisX, camAxisY, camAxisZ)
		}

		index = idx + 3
		colorIndex = colidx + 4
		uvIndex = uvidx + 2
	}

	if update {
		if s.computeParticleColor && len(s.colors32) > 0 {
			s.Mesh.UpdateVerticesData(device.ColorKind, s.colors32)
		}
		if s.computeParticleTexture && len(s.uvs32) > 0 {
			s.Mesh.UpdateVerticesData(device.UVKind, s.uvs32)
		}
		s.Mesh.UpdateVerticesData(device.PositionKind, s.positions32)
		if !s.Mesh.AreNormalsFrozen() {
			if s.computeParticleVertex {
				// Morphed vertices invalidate the fixed normals, so rebuild
				// both the live and the reference array.
				s.normals32 = mesh.ComputeNormals(s.positions32, s.indices, s.normals32)
				copy(s.fixedNormal32, s.normals32)
			}
			s.Mesh.UpdateVerticesData(device.NormalKind, s.normals32)
		}
	}

	if s.computeBoundingBox {
		s.Mesh.SetBoundingInfo(picking.NewBoundingInfo(minimum, maximum))
	}

	if s.AfterUpdateParticles != nil {
		s.AfterUpdateParticles(start, end, update)
	}
}

// updateParticleBounds refreshes a particle's bounding volumes inside the
// system's local space, then projects them through the mesh world matrix.
func (s *System) updateParticleBounds(particle *SolidParticle, rotMatrix math.Mat4,
	camAxisX, camAxisY, camAxisZ math.Vec3) {

	if particle.boundingInfo == nil || particle.modelBoundingInfo == nil {
		return
	}
	world := s.Mesh.WorldMatrix()
	bBox := particle.boundingInfo.BoundingBox
	bSphere := particle.boundingInfo.BoundingSphere

	if !s.bSphereOnly {
		modelBox := particle.modelBoundingInfo.BoundingBox
		for b := range bBox.Vectors {
			vertex := math.Vec3{
				X: modelBox.Vectors[b].X * particle.Scaling.X,
				Y: modelBox.Vectors[b].Y * particle.Scaling.Y,
				Z: modelBox.Vectors[b].Z * particle.Scaling.Z,
			}
			rotated := transformWithW(rotMatrix, vertex)
			bBox.Vectors[b] = math.Vec3{
				X: particle.Position.X + camAxisX.X*rotated.X + camAxisY.X*rotated.Y + camAxisZ.X*rotated.Z,
				Y: particle.Position.Y + camAxisX.Y*rotated.X + camAxisY.Y*rotated.Y + camAxisZ.Y*rotated.Z,
				Z: particle.Position.Z + camAxisX.Z*rotated.X + camAxisY.Z*rotated.Y + camAxisZ.Z*rotated.Z,
			}
		}
		bBox.Update(world)
	}

	modelMin := particle.modelBoundingInfo.BoundingBox.Minimum
	modelMax := particle.modelBoundingInfo.BoundingBox.Maximum
	minBox := math.Vec3{
		X: modelMin.X * particle.Scaling.X,
		Y: modelMin.Y * particle.Scaling.Y,
		Z: modelMin.Z * particle.Scaling.Z,
	}
	maxBox := math.Vec3{
		X: modelMax.X * particle.Scaling.X,
		Y: modelMax.Y * particle.Scaling.Y,
		Z: modelMax.Z * particle.Scaling.Z,
	}
	bSphere.Center = math.Vec3{
		X: particle.Position.X + (minBox.X+maxBox.X)*0.5,
		Y: particle.Position.Y + (minBox.Y+maxBox.Y)*0.5,
		Z: particle.Position.Z + (minBox.Z+maxBox.Z)*0.5,
	}
	bSphere.Radius = s.bSphereRadius * 0.5 * maxBox.Sub(minBox).Length()
	bSphere.Update(world)
}
