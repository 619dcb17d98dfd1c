package mathutil

import "math"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatFromRPY converts URDF roll/pitch/yaw (radians, extrinsic fixed-axis
// XYZ) to a quaternion. Equivalent to Mat3ToQuat(RPYToMat3(r, p, y)).
func QuatFromRPY(roll, pitch, yaw float64) Quat {
	cr, sr := math.Cos(roll*0.5), math.Sin(roll*0.5)
	cp, sp := math.Cos(pitch*0.5), math.Sin(pitch*0.5)
	cy, sy := math.Cos(yaw*0.5), math.Sin(yaw*0.5)

	return Quat{
		sr*cp*cy - cr*sp*sy, // x
		cr*sp*cy + sr*cp*sy, // y
		cr*cp*sy - sr*sp*cy, // z
		cr*cp*cy + sr*sp*sy, // w
	}
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}

// Mat3ToQuat extracts a quaternion from a rotation matrix, branching on
// the largest diagonal term for numerical stability.
func Mat3ToQuat(m Mat3) Quat {
	t := m[0] + m[4] + m[8]
	var q Quat
	switch {
	case t > 0:
		s := math.Sqrt(t+1) * 2 // s = 4w
		q[3] = 0.25 * s
		q[0] = (m[7] - m[5]) / s
		q[1] = (m[2] - m[6]) / s
		q[2] = (m[3] - m[1]) / s
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2 // s = 4x
		q[3] = (m[7] - m[5]) / s
		q[0] = 0.25 * s
		q[1] = (m[1] + m[3]) / s
		q[2] = (m[2] + m[6]) / s
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2 // s = 4y
		q[3] = (m[2] - m[6]) / s
		q[0] = (m[1] + m[3]) / s
		q[1] = 0.25 * s
		q[2] = (m[5] + m[7]) / s
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2 // s = 4z
		q[3] = (m[3] - m[1]) / s
		q[0] = (m[2] + m[6]) / s
		q[1] = (m[5] + m[7]) / s
		q[2] = 0.25 * s
	}
	return q
}
