package vertex

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Static vertex layout of the engine:
//
//	0x00 position   3*f32
//	0x0c flags      u32, top byte holds the sign bits
//	0x10 normal     2*u16
//	0x14 tangent    reserved, variable
//	end-8 uv        2*f32
const (
	PositionSize = 3 * 4
	FlagsSize    = 4
	NormalSize   = 2 * 2
	UVSize       = 2 * 4

	// smallest vertex the fixed layout can describe
	MinVertexSize = PositionSize + FlagsSize + NormalSize + UVSize

	// vertex written by the content tool for static meshes
	StaticVertexSize = MinVertexSize + 2*2

	SignNormalZ  = 0x2
	SignTangentW = 0x1
)

const normalInterval = float32(2.0 / float64((1<<16)-1))

// TangentOffset is the number of bytes between the packed normal and the end
// of the vertex. The layout is fixed, any other vertex kind decodes wrong.
func TangentOffset(vertexSize int32) int32 {
	return vertexSize - PositionSize - FlagsSize - NormalSize
}

func unpackUnorm16(v uint16) float32 {
	return float32(v)*normalInterval - 1.0
}

func packUnorm16(v float32) uint16 {
	f := (float64(v) + 1.0) * 0.5 * float64((1<<16)-1)
	return uint16(math.Max(0, math.Min(65535, math.Round(f))))
}

// UnpackNormal rebuilds a unit normal from its two quantized components and
// the sign byte. The result is never NaN.
func UnpackNormal(x, y uint16, signs uint32) mgl32.Vec3 {
	nx := unpackUnorm16(x)
	ny := unpackUnorm16(y)
	sign := float32(int32(signs&SignNormalZ) - 1)
	nz := float32(math.Sqrt(float64(clamp(1-(nx*nx+ny*ny), 0, 1)))) * sign
	n := mgl32.Vec3{nx, ny, nz}
	l := n.Len()
	if l == 0 {
		return n
	}
	return n.Mul(1 / l)
}

// PackNormal is the inverse of UnpackNormal.
func PackNormal(n mgl32.Vec3) (x, y uint16, signs uint32) {
	if l := n.Len(); l > 0 {
		n = n.Mul(1 / l)
	}
	x = packUnorm16(n[0])
	y = packUnorm16(n[1])
	if n[2] >= 0 {
		signs |= SignNormalZ
	}
	return x, y, signs
}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	} else if v > max {
		return max
	}
	return v
}
