package vertex

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/stream"
)

type Attributes struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []int32
}

func DecodeMesh(m *geometry.Mesh) (*Attributes, error) {
	if m.VertexSize < MinVertexSize {
		return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "vertex size %d is smaller than the static layout (%d)", m.VertexSize, MinVertexSize)
	}
	if m.VertexCount < 0 {
		return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "vertex count %d", m.VertexCount)
	}
	offset := int(TangentOffset(m.VertexSize))

	a := &Attributes{
		Positions: make([]mgl32.Vec3, m.VertexCount),
		Normals:   make([]mgl32.Vec3, m.VertexCount),
		UVs:       make([]mgl32.Vec2, m.VertexCount),
	}

	r := stream.NewReader(m.Vertices)
	for i := 0; i < int(m.VertexCount); i++ {
		if err := decodeVertex(r, offset, a, i); err != nil {
			return nil, errors.Wrapf(err, "vertex %d", i)
		}
	}

	indices, err := DecodeIndices(m.IndexSize, m.IndexCount, m.Indices)
	if err != nil {
		return nil, err
	}
	a.Indices = indices
	return a, nil
}

func decodeVertex(r *stream.Reader, tangentOffset int, a *Attributes, i int) error {
	var f [3]float32
	for j := range f {
		var err error
		if f[j], err = r.ReadFloat32(); err != nil {
			return err
		}
	}
	a.Positions[i] = mgl32.Vec3(f)

	flags, err := r.ReadUint32()
	if err != nil {
		return err
	}
	signs := (flags >> 24) & 0xff

	nx, err := r.ReadUint16()
	if err != nil {
		return err
	}
	ny, err := r.ReadUint16()
	if err != nil {
		return err
	}
	a.Normals[i] = UnpackNormal(nx, ny, signs)

	if err := r.Skip(tangentOffset - UVSize); err != nil {
		return err
	}
	u, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	v, err := r.ReadFloat32()
	if err != nil {
		return err
	}
	a.UVs[i] = mgl32.Vec2{u, v}
	return nil
}

// DecodeIndices reads 16 bit indices as unsigned and 32 bit ones as signed.
func DecodeIndices(indexSize, indexCount int32, raw []byte) ([]int32, error) {
	if indexCount < 0 {
		return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "index count %d", indexCount)
	}
	r := stream.NewReader(raw)
	out := make([]int32, indexCount)
	switch indexSize {
	case 2:
		for i := range out {
			v, err := r.ReadUint16()
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out[i] = int32(v)
		}
	case 4:
		for i := range out {
			v, err := r.ReadInt32()
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			out[i] = v
		}
	default:
		return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "index size %d", indexSize)
	}
	return out, nil
}
