package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BBox is an axis aligned bounding box. The zero value is empty.
type BBox struct {
	Min, Max mgl32.Vec3
	valid    bool
}

func (b *BBox) Add(p mgl32.Vec3) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = float32(math.Min(float64(b.Min[i]), float64(p[i])))
		b.Max[i] = float32(math.Max(float64(b.Max[i]), float64(p[i])))
	}
}

func (b *BBox) Empty() bool        { return !b.valid }
func (b *BBox) Size() mgl32.Vec3   { return b.Max.Sub(b.Min) }
func (b *BBox) Center() mgl32.Vec3 { return b.Min.Add(b.Size().Mul(0.5)) }

// SafeNormalize leaves zero length vectors as they are instead of turning
// them into NaN.
func SafeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return v
	}
	return v.Mul(1 / l)
}

func Clamp32(v, min, max float32) float32 {
	if v < min {
		return min
	} else if v > max {
		return max
	}
	return v
}
