package geometry

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/asset"
	"github.com/ferraris/geometry_browser/stream"
	"github.com/ferraris/geometry_browser/utils"
)

var (
	ErrMalformedGeometry = errors.New("malformed geometry")
	ErrIO                = errors.New("geometry io failure")
	ErrNoLODGroups       = errors.New("geometry has no lod groups")
)

// corruptLength reports a negative length prefix as a malformed geometry,
// the bytes are there but the structure is broken.
func corruptLength(err error) error {
	if err != nil && errors.Is(err, stream.ErrNegativeLength) {
		return errors.Wrapf(ErrMalformedGeometry, "%v", err)
	}
	return err
}

// Mesh keeps vertex and index data exactly as the content tool packed it.
type Mesh struct {
	VertexSize  int32
	VertexCount int32
	IndexSize   int32
	IndexCount  int32
	Vertices    []byte `json:"-"`
	Indices     []byte `json:"-"`
}

func NewMesh(vertexSize, vertexCount, indexSize, indexCount int32, vertices, indices []byte) (*Mesh, error) {
	m := &Mesh{
		VertexSize:  vertexSize,
		VertexCount: vertexCount,
		IndexSize:   indexSize,
		IndexCount:  indexCount,
		Vertices:    vertices,
		Indices:     indices,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func bufferSize(size, count int32) (int, error) {
	if size <= 0 || count <= 0 {
		return 0, errors.Wrapf(ErrMalformedGeometry, "size %d count %d", size, count)
	}
	total := int64(size) * int64(count)
	if total > int64(maxBufferSize) {
		return 0, errors.Wrapf(ErrMalformedGeometry, "buffer of %d*%d bytes is too large", size, count)
	}
	return int(total), nil
}

// keeps size*count inside int32 the way the content tool computes it
const maxBufferSize = 1<<31 - 1

func (m *Mesh) VertexBufferSize() (int, error) { return bufferSize(m.VertexSize, m.VertexCount) }

func (m *Mesh) IndexBufferSize() (int, error) {
	if m.IndexSize != 2 && m.IndexSize != 4 {
		return 0, errors.Wrapf(ErrMalformedGeometry, "index size %d", m.IndexSize)
	}
	return bufferSize(m.IndexSize, m.IndexCount)
}

func (m *Mesh) Validate() error {
	vsize, err := m.VertexBufferSize()
	if err != nil {
		return errors.Wrapf(err, "vertices")
	}
	if len(m.Vertices) != vsize {
		return errors.Wrapf(ErrMalformedGeometry, "vertex buffer has %d bytes, expected %d*%d", len(m.Vertices), m.VertexSize, m.VertexCount)
	}
	isize, err := m.IndexBufferSize()
	if err != nil {
		return errors.Wrapf(err, "indices")
	}
	if len(m.Indices) != isize {
		return errors.Wrapf(ErrMalformedGeometry, "index buffer has %d bytes, expected %d*%d", len(m.Indices), m.IndexSize, m.IndexCount)
	}
	return nil
}

// MeshLOD is one detail level. Its name and threshold come from the first
// mesh entry that introduced its lod id.
type MeshLOD struct {
	Name         string
	LodThreshold float32
	Meshes       []*Mesh
}

type LODGroup struct {
	Name string
	LODs []*MeshLOD
}

// NameGenerator supplies names for unnamed groups and meshes.
type NameGenerator interface {
	RandomName() string
}

// IconRenderer produces thumbnail bytes for a lod while saving.
type IconRenderer interface {
	RenderIcon(lod *MeshLOD) ([]byte, error)
}

// Geometry is not safe for concurrent use, callers serialize access per
// instance.
type Geometry struct {
	asset.Asset

	ImportSettings ImportSettings

	Names NameGenerator
	Icons IconRenderer

	lodGroups []*LODGroup
}

func New() *Geometry {
	return &Geometry{
		Asset:          asset.New(asset.Mesh),
		ImportSettings: DefaultImportSettings(),
		Names:          utils.DefaultNames,
	}
}

// GetLODGroup panics when index is out of range.
func (g *Geometry) GetLODGroup(index int) *LODGroup {
	if index < 0 || index >= len(g.lodGroups) {
		panic(fmt.Sprintf("geometry: lod group %d out of range [0,%d)", index, len(g.lodGroups)))
	}
	return g.lodGroups[index]
}

func (g *Geometry) LODGroups() []*LODGroup { return g.lodGroups }

// WithoutBuffers copies group leaving out vertex and index bytes, for dumps.
func (group *LODGroup) WithoutBuffers() *LODGroup {
	stripped := &LODGroup{Name: group.Name}
	for _, lod := range group.LODs {
		l := &MeshLOD{Name: lod.Name, LodThreshold: lod.LodThreshold}
		for _, mesh := range lod.Meshes {
			m := *mesh
			m.Vertices, m.Indices = nil, nil
			l.Meshes = append(l.Meshes, &m)
		}
		stripped.LODs = append(stripped.LODs, l)
	}
	return stripped
}

func (g *Geometry) randomName(prefix string) string {
	if g.Names == nil {
		g.Names = utils.DefaultNames
	}
	return prefix + g.Names.RandomName()
}
