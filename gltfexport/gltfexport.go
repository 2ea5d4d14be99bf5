package gltfexport

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/vertex"
)

func NewDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name:        "default",
		DoubleSided: true,
	})
	return doc
}

// ExportLOD appends one gltf mesh holding a primitive per decoded mesh of
// preview and returns its index.
func ExportLOD(doc *gltf.Document, name string, preview *vertex.LODPreview) (uint32, error) {
	gltfMesh := &gltf.Mesh{Name: name}

	for iMesh, mesh := range preview.Meshes {
		verticesCount := len(mesh.Positions)

		positions := make([][3]float32, verticesCount)
		normals := make([][3]float32, verticesCount)
		uvs := make([][2]float32, verticesCount)
		for iVertex := 0; iVertex < verticesCount; iVertex++ {
			positions[iVertex] = mesh.Positions[iVertex]
			normals[iVertex] = mesh.Normals[iVertex]
			uvs[iVertex] = mesh.UVs[iVertex]
		}

		indices := make([]uint32, len(mesh.Indices))
		for i, index := range mesh.Indices {
			if index < 0 || int(index) >= verticesCount {
				return 0, errors.Wrapf(geometry.ErrMalformedGeometry,
					"%s mesh %d: index %d at %d out of %d vertices", name, iMesh, index, i, verticesCount)
			}
			indices[i] = uint32(index)
		}

		attributes := map[string]uint32{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
		}
		gltfMesh.Primitives = append(gltfMesh.Primitives, &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
			Attributes: attributes,
			Material:   gltf.Index(0),
		})
	}

	doc.Meshes = append(doc.Meshes, gltfMesh)
	return uint32(len(doc.Meshes) - 1), nil
}

// ExportGeometry emits one node per lod group showing its most detailed lod.
// With allLODs every other lod becomes a child node named after it.
func ExportGeometry(g *geometry.Geometry, allLODs bool) (*gltf.Document, error) {
	doc := NewDocument()

	for iGroup, group := range g.LODGroups() {
		var previous *vertex.LODPreview
		var children []uint32
		var rootMesh uint32

		for iLod, lod := range group.LODs {
			if iLod > 0 && !allLODs {
				break
			}
			preview, err := vertex.NewLODPreview(lod, previous)
			if err != nil {
				return nil, errors.Wrapf(err, "group %d %q", iGroup, group.Name)
			}
			previous = preview

			meshIndex, err := ExportLOD(doc, fmt.Sprintf("%s_%s", group.Name, lod.Name), preview)
			if err != nil {
				return nil, err
			}
			if iLod == 0 {
				rootMesh = meshIndex
				continue
			}
			children = append(children, uint32(len(doc.Nodes)))
			doc.Nodes = append(doc.Nodes, &gltf.Node{
				Name: lod.Name,
				Mesh: gltf.Index(meshIndex),
			})
		}

		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name:     group.Name,
			Mesh:     gltf.Index(rootMesh),
			Children: children,
		})
	}

	return doc, nil
}

// Save encodes doc as .glb when binary is set, as embedded .gltf otherwise.
func Save(w io.Writer, doc *gltf.Document, binary bool) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return encoder.Encode(doc)
}
