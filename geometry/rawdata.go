package geometry

import (
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/stream"
	"github.com/ferraris/geometry_browser/utils"
)

// FromRawData replaces the lod groups with the ones packed by the content
// tool. On error the previous groups are kept.
func (g *Geometry) FromRawData(data []byte) error {
	if len(data) == 0 {
		return errors.Wrapf(stream.ErrTruncated, "empty raw data")
	}
	groups, err := g.readRawData(data)
	if err != nil {
		return corruptLength(err)
	}
	g.lodGroups = groups
	return nil
}

func (g *Geometry) readRawData(data []byte) ([]*LODGroup, error) {
	r := stream.NewReader(data)

	// scene name is not kept
	sceneNameLen, err := r.ReadLength()
	if err != nil {
		return nil, errors.Wrapf(err, "scene name")
	}
	if err := r.Skip(sceneNameLen); err != nil {
		return nil, errors.Wrapf(err, "scene name")
	}

	numLodGroups, err := r.ReadInt32()
	if err != nil {
		return nil, errors.Wrapf(err, "lod groups count")
	}
	if numLodGroups <= 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "lod groups count %d", numLodGroups)
	}

	groups := make([]*LODGroup, 0, numLodGroups)
	for i := int32(0); i < numLodGroups; i++ {
		group, err := g.readLODGroup(r)
		if err != nil {
			return nil, errors.Wrapf(err, "lod group %d", i)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

func (g *Geometry) readName(r *stream.Reader, prefix string) (string, error) {
	l, err := r.ReadLength()
	if err != nil {
		return "", err
	}
	if l == 0 {
		return g.randomName(prefix), nil
	}
	b, err := r.Read(l)
	if err != nil {
		return "", err
	}
	// a name of only padding counts as no name
	if name := utils.DecodeName(b); name != "" {
		return name, nil
	}
	return g.randomName(prefix), nil
}

func (g *Geometry) readLODGroup(r *stream.Reader) (*LODGroup, error) {
	name, err := g.readName(r, "lod_")
	if err != nil {
		return nil, errors.Wrapf(err, "name")
	}
	numMeshes, err := r.ReadInt32()
	if err != nil {
		return nil, errors.Wrapf(err, "meshes count")
	}
	if numMeshes <= 0 {
		return nil, errors.Wrapf(ErrMalformedGeometry, "%q meshes count %d", name, numMeshes)
	}

	group := &LODGroup{Name: name}
	// lod id -> index in group.LODs, scoped to this group
	lodIndexById := make(map[int32]int)
	for i := int32(0); i < numMeshes; i++ {
		if err := g.readMeshEntry(r, group, lodIndexById); err != nil {
			return nil, errors.Wrapf(err, "%q mesh %d", name, i)
		}
	}
	return group, nil
}

func (g *Geometry) readMeshEntry(r *stream.Reader, group *LODGroup, lodIndexById map[int32]int) error {
	name, err := g.readName(r, "mesh_")
	if err != nil {
		return errors.Wrapf(err, "name")
	}

	var lodId, vertexSize, vertexCount, indexSize, indexCount int32
	for _, f := range []struct {
		v    *int32
		name string
	}{
		{&lodId, "lod id"},
		{&vertexSize, "vertex size"},
		{&vertexCount, "vertex count"},
		{&indexSize, "index size"},
		{&indexCount, "index count"},
	} {
		if *f.v, err = r.ReadInt32(); err != nil {
			return errors.Wrapf(err, "%s", f.name)
		}
	}
	lodThreshold, err := r.ReadFloat32()
	if err != nil {
		return errors.Wrapf(err, "lod threshold")
	}

	vsize, err := bufferSize(vertexSize, vertexCount)
	if err != nil {
		return errors.Wrapf(err, "%q vertices", name)
	}
	vertices, err := r.ReadBytes(vsize)
	if err != nil {
		return errors.Wrapf(err, "%q vertices", name)
	}
	isize, err := bufferSize(indexSize, indexCount)
	if err != nil {
		return errors.Wrapf(err, "%q indices", name)
	}
	indices, err := r.ReadBytes(isize)
	if err != nil {
		return errors.Wrapf(err, "%q indices", name)
	}

	mesh, err := NewMesh(vertexSize, vertexCount, indexSize, indexCount, vertices, indices)
	if err != nil {
		return errors.Wrapf(err, "%q", name)
	}

	var lod *MeshLOD
	if index, exists := lodIndexById[lodId]; exists && lodId >= 0 {
		lod = group.LODs[index]
	} else {
		if lodId >= 0 {
			lodIndexById[lodId] = len(group.LODs)
		}
		lod = &MeshLOD{Name: name, LodThreshold: lodThreshold}
		group.LODs = append(group.LODs, lod)
	}
	lod.Meshes = append(lod.Meshes, mesh)
	return nil
}
