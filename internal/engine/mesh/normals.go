package mesh

import "github.com/halcyon3d/halcyon/pkg/math"

// ComputeNormals rebuilds per-vertex normals for an indexed triangle list by
// accumulating face normals and normalizing. The returned slice is normals
// when it is large enough, a fresh allocation otherwise.
func ComputeNormals(positions []float32, indices []uint32, normals []float32) []float32 {
	if len(normals) < len(positions) {
		normals = make([]float32, len(positions))
	} else {
		for i := range normals {
			normals[i] = 0
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i1 := indices[i] * 3
		i2 := indices[i+1] * 3
		i3 := indices[i+2] * 3

		p1 := math.Vec3{X: positions[i1], Y: positions[i1+1], Z: positions[i1+2]}
		p2 := math.Vec3{X: positions[i2], Y: positions[i2+1], Z: positions[i2+2]}
		p3 := math.Vec3{X: positions[i3], Y: positions[i3+1], Z: positions[i3+2]}

		faceNormal := p1.Sub(p2).Cross(p3.Sub(p2)).Normalize()

		for _, base := range []uint32{i1, i2, i3} {
			normals[base] += faceNormal.X
			normals[base+1] += faceNormal.Y
			normals[base+2] += faceNormal.Z
		}
	}

	for i := 0; i+2 < len(normals); i += 3 {
		n := math.Vec3{X: normals[i], Y: normals[i+1], Z: normals[i+2]}.Normalize()
		normals[i] = n.X
		normals[i+1] = n.Y
		normals[i+2] = n.Z
	}

	return normals
}
