package vertex

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ferraris/geometry_browser/stream"
)

// Static is one vertex in the layout DecodeMesh understands.
type Static struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// PackStatic writes vertices with StaticVertexSize bytes each, tangents are
// left zero.
func PackStatic(vertices []Static) []byte {
	w := stream.NewBufferWriter()
	for _, v := range vertices {
		for _, f := range v.Position {
			w.WriteFloat32(f)
		}
		nx, ny, signs := PackNormal(v.Normal)
		w.WriteUint32(signs << 24)
		w.WriteUint16(nx)
		w.WriteUint16(ny)
		w.WriteUint16(0)
		w.WriteUint16(0)
		w.WriteFloat32(v.UV[0])
		w.WriteFloat32(v.UV[1])
	}
	return w.Bytes()
}

func PackIndices16(indices []uint16) []byte {
	w := stream.NewBufferWriter()
	for _, i := range indices {
		w.WriteUint16(i)
	}
	return w.Bytes()
}

func PackIndices32(indices []int32) []byte {
	w := stream.NewBufferWriter()
	for _, i := range indices {
		w.WriteInt32(i)
	}
	return w.Bytes()
}
