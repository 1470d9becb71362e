package math

import "math"

// Determinant returns the determinant of the matrix.
func (m Mat4) Determinant() float32 {
	c00 := m[5]*m[10]*m[15] - m[5]*m[11]*m[14] - m[9]*m[6]*m[15] + m[9]*m[7]*m[14] + m[13]*m[6]*m[11] - m[13]*m[7]*m[10]
	c01 := -m[1]*m[10]*m[15] + m[1]*m[11]*m[14] + m[9]*m[2]*m[15] - m[9]*m[3]*m[14] - m[13]*m[2]*m[11] + m[13]*m[3]*m[10]
	c02 := m[1]*m[6]*m[15] - m[1]*m[7]*m[14] - m[5]*m[2]*m[15] + m[5]*m[3]*m[14] + m[13]*m[2]*m[7] - m[13]*m[3]*m[6]
	c03 := -m[1]*m[6]*m[11] + m[1]*m[7]*m[10] + m[5]*m[2]*m[11] - m[5]*m[3]*m[10] - m[9]*m[2]*m[7] + m[9]*m[3]*m[6]
	return m[0]*c00 + m[4]*c01 + m[8]*c02 + m[12]*c03
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 {
	return Mat4{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
		m[3], m[7], m[11], m[15],
	}
}

// Translation returns the translation component of the matrix.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// SetTranslation replaces the translation component in place.
func (m *Mat4) SetTranslation(v Vec3) {
	m[12] = v.X
	m[13] = v.Y
	m[14] = v.Z
}

// TransformNormal transforms a direction Vec3 by this matrix, ignoring
// translation.
func (m Mat4) TransformNormal(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}

// RotationYawPitchRoll returns a rotation matrix from yaw (Y), pitch (X) and
// roll (Z) angles in radians. Equivalent to QuatFromYawPitchRoll(...).ToMat4().
func RotationYawPitchRoll(yaw, pitch, roll float32) Mat4 {
	return QuatFromYawPitchRoll(yaw, pitch, roll).ToMat4()
}

// Decompose splits the matrix into scale, rotation and translation.
// A negative overall determinant is attributed to the Y axis scale. Returns
// ok=false with an identity rotation when a scale component is zero.
func (m Mat4) Decompose() (scale Vec3, rotation Quat, translation Vec3, ok bool) {
	translation = m.Translation()

	xs := float32(math.Sqrt(float64(m[0]*m[0] + m[1]*m[1] + m[2]*m[2])))
	ys := float32(math.Sqrt(float64(m[4]*m[4] + m[5]*m[5] + m[6]*m[6])))
	zs := float32(math.Sqrt(float64(m[8]*m[8] + m[9]*m[9] + m[10]*m[10])))

	det := m[0]*(m[5]*m[10]-m[6]*m[9]) - m[1]*(m[4]*m[10]-m[6]*m[8]) + m[2]*(m[4]*m[9]-m[5]*m[8])
	if det <= 0 {
		ys = -ys
	}

	scale = Vec3{xs, ys, zs}

	if xs == 0 || ys == 0 || zs == 0 {
		return scale, QuatIdentity(), translation, false
	}

	rot := Mat4{
		m[0] / xs, m[1] / xs, m[2] / xs, 0,
		m[4] / ys, m[5] / ys, m[6] / ys, 0,
		m[8] / zs, m[9] / zs, m[10] / zs, 0,
		0, 0, 0, 1,
	}
	return scale, QuatFromRotationMatrix(rot), translation, true
}
