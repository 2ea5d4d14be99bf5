package vertex

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/utils"
)

// LODPreview is everything a viewer needs to show one lod: decoded meshes
// and a camera framing them.
type LODPreview struct {
	Name           string
	Meshes         []*Attributes
	Bounds         utils.BBox
	CameraPosition mgl32.Vec3
	CameraTarget   mgl32.Vec3
}

// NewLODPreview decodes every mesh of lod. When previous is not nil its
// camera is kept so switching lods does not move the view.
func NewLODPreview(lod *geometry.MeshLOD, previous *LODPreview) (*LODPreview, error) {
	if lod == nil || len(lod.Meshes) == 0 {
		return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "lod has no meshes")
	}

	p := &LODPreview{Name: lod.Name, Meshes: make([]*Attributes, 0, len(lod.Meshes))}
	var avgNormal mgl32.Vec3
	for i, mesh := range lod.Meshes {
		a, err := DecodeMesh(mesh)
		if err != nil {
			return nil, errors.Wrapf(err, "lod %q mesh %d", lod.Name, i)
		}
		for _, pos := range a.Positions {
			p.Bounds.Add(pos)
		}
		for _, n := range a.Normals {
			avgNormal = avgNormal.Add(n)
		}
		p.Meshes = append(p.Meshes, a)
	}

	if previous != nil {
		p.CameraPosition = previous.CameraPosition
		p.CameraTarget = previous.CameraTarget
		return p, nil
	}

	size := p.Bounds.Size()
	width, height, depth := size[0], size[1], size[2]
	radius := mgl32.Vec3{height, width, depth}.Len() * 1.2
	// the summed normal points to the side most of the surface faces
	if avgNormal.Len() > 0.8 {
		p.CameraPosition = avgNormal.Normalize().Mul(radius)
	} else {
		p.CameraPosition = mgl32.Vec3{width, height * 0.5, radius}
	}
	p.CameraTarget = p.Bounds.Center()
	return p, nil
}

func (p *LODPreview) VertexCount() int {
	n := 0
	for _, m := range p.Meshes {
		n += len(m.Positions)
	}
	return n
}
