package contenttool

import (
	"github.com/ferraris/geometry_browser/stream"
)

// Scene describes what the content tool hands over after conditioning a
// source file. Build packs it in the raw layout Geometry.FromRawData reads.
type Scene struct {
	Name   string
	Groups []Group
}

type Group struct {
	Name   string
	Meshes []MeshEntry
}

// MeshEntry is one physical mesh. Entries sharing LodID belong to the same
// lod of their group.
type MeshEntry struct {
	Name         string
	LodID        int32
	LodThreshold float32
	VertexSize   int32
	VertexCount  int32
	IndexSize    int32
	IndexCount   int32
	Vertices     []byte
	Indices      []byte
}

func (s *Scene) Build() []byte {
	w := stream.NewBufferWriter()
	w.WriteString(s.Name)
	w.WriteInt32(int32(len(s.Groups)))
	for _, g := range s.Groups {
		w.WriteString(g.Name)
		w.WriteInt32(int32(len(g.Meshes)))
		for _, m := range g.Meshes {
			w.WriteString(m.Name)
			w.WriteInt32(m.LodID)
			w.WriteInt32(m.VertexSize)
			w.WriteInt32(m.VertexCount)
			w.WriteInt32(m.IndexSize)
			w.WriteInt32(m.IndexCount)
			w.WriteFloat32(m.LodThreshold)
			w.WriteBytes(m.Vertices)
			w.WriteBytes(m.Indices)
		}
	}
	return w.Bytes()
}
