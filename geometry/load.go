package geometry

import (
	"os"

	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/asset"
	"github.com/ferraris/geometry_browser/stream"
)

// Load reads an asset file written by Save. The result holds exactly one
// lod group.
func Load(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "read %q: %v", path, err)
	}
	g, err := FromAssetData(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%q", path)
	}
	return g, nil
}

func FromAssetData(data []byte) (*Geometry, error) {
	g, err := readAssetData(data)
	return g, corruptLength(err)
}

func readAssetData(data []byte) (*Geometry, error) {
	r := stream.NewReader(data)
	header, err := asset.ReadHeader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "header")
	}

	g := New()
	if err := g.Restore(header); err != nil {
		return nil, err
	}
	if err := g.ImportSettings.FromBinary(r); err != nil {
		return nil, errors.Wrapf(err, "import settings")
	}

	payloadLen, err := r.ReadLength()
	if err != nil {
		return nil, errors.Wrapf(err, "payload")
	}
	if r.Len() != payloadLen {
		return nil, errors.Wrapf(ErrMalformedGeometry, "%d bytes after payload of %d bytes", r.Len()-payloadLen, payloadLen)
	}
	payload, err := r.Read(payloadLen)
	if err != nil {
		return nil, errors.Wrapf(err, "payload")
	}

	group, err := parsePayload(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "payload")
	}
	g.lodGroups = []*LODGroup{group}
	return g, nil
}

// ParsePayload is the inverse of MarshalLODGroup.
func ParsePayload(payload []byte) (*LODGroup, error) {
	group, err := parsePayload(payload)
	return group, corruptLength(err)
}

func parsePayload(payload []byte) (*LODGroup, error) {
	r := stream.NewReader(payload)
	name, err := r.ReadString()
	if err != nil {
		return nil, errors.Wrapf(err, "group name")
	}
	lodCount, err := r.ReadInt32()
	if err != nil {
		return nil, errors.Wrapf(err, "lod count")
	}
	if lodCount <= 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "lod count %d", lodCount)
	}

	group := &LODGroup{Name: name, LODs: make([]*MeshLOD, 0, lodCount)}
	for i := int32(0); i < lodCount; i++ {
		lod, err := readLOD(r)
		if err != nil {
			return nil, errors.Wrapf(err, "lod %d", i)
		}
		group.LODs = append(group.LODs, lod)
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "%d trailing bytes in payload", r.Len())
	}
	return group, nil
}

func readLOD(r *stream.Reader) (*MeshLOD, error) {
	lod := &MeshLOD{}
	var err error
	if lod.Name, err = r.ReadString(); err != nil {
		return nil, errors.Wrapf(err, "name")
	}
	if lod.LodThreshold, err = r.ReadFloat32(); err != nil {
		return nil, errors.Wrapf(err, "threshold")
	}
	meshCount, err := r.ReadInt32()
	if err != nil {
		return nil, errors.Wrapf(err, "mesh count")
	}
	if meshCount <= 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "%q mesh count %d", lod.Name, meshCount)
	}

	lod.Meshes = make([]*Mesh, 0, meshCount)
	for i := int32(0); i < meshCount; i++ {
		mesh, err := readMesh(r)
		if err != nil {
			return nil, errors.Wrapf(err, "%q mesh %d", lod.Name, i)
		}
		lod.Meshes = append(lod.Meshes, mesh)
	}
	return lod, nil
}

func readMesh(r *stream.Reader) (*Mesh, error) {
	m := &Mesh{}
	for _, v := range []*int32{&m.VertexSize, &m.VertexCount, &m.IndexSize, &m.IndexCount} {
		var err error
		if *v, err = r.ReadInt32(); err != nil {
			return nil, err
		}
	}
	vsize, err := m.VertexBufferSize()
	if err != nil {
		return nil, err
	}
	if m.Vertices, err = r.ReadBytes(vsize); err != nil {
		return nil, errors.Wrapf(err, "vertices")
	}
	isize, err := m.IndexBufferSize()
	if err != nil {
		return nil, err
	}
	if m.Indices, err = r.ReadBytes(isize); err != nil {
		return nil, errors.Wrapf(err, "indices")
	}
	return m, nil
}
