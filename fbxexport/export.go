package fbxexport

import (
	"fmt"

	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/vertex"
)

// Exporter writes decoded lods into a Builder. Every mesh model is bound to
// one shared lambert material.
type Exporter struct {
	b          *Builder
	MaterialId int64
}

func NewExporter(b *Builder) *Exporter {
	fe := &Exporter{b: b, MaterialId: b.GenerateId()}
	material := bfbx73.Material(fe.MaterialId, "default\x00\x01Material", "").AddNodes(
		bfbx73.Version(102),
		bfbx73.ShadingModel("lambert"),
		bfbx73.MultiLayer(0),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("AmbientColor", "Color", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("DiffuseColor", "Color", "", "A", float64(0.8), float64(0.8), float64(0.8)),
			bfbx73.P("Diffuse", "Vector3D", "Vector", "", float64(0.8), float64(0.8), float64(0.8)),
			bfbx73.P("Opacity", "double", "Number", "", float64(1)),
		),
	)
	b.AddObjects(material)
	return fe
}

// AddNull adds an empty model used to group the lods of one lod group and
// connects it to parent.
func (fe *Exporter) AddNull(name string, parent int64) int64 {
	id := fe.b.GenerateId()
	model := bfbx73.Model(id, name+"\x00\x01Model", "Null").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70(),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)
	nodeAttribute := bfbx73.NodeAttribute(fe.b.GenerateId(), name+"\x00\x01NodeAttribute", "Null").AddNodes(
		bfbx73.TypeFlags("Null"),
	)
	fe.b.AddObjects(model, nodeAttribute)
	fe.b.AddConnections(
		bfbx73.C("OO", nodeAttribute.Properties[0].(int64), id),
		bfbx73.C("OO", id, parent),
	)
	return id
}

// ExportLOD adds a geometry and a model per decoded mesh of preview under
// parent and returns the model ids.
func (fe *Exporter) ExportLOD(name string, preview *vertex.LODPreview, parent int64) ([]int64, error) {
	models := make([]int64, 0, len(preview.Meshes))
	for iMesh, mesh := range preview.Meshes {
		meshName := name
		if len(preview.Meshes) > 1 {
			meshName = fmt.Sprintf("%s_%d", name, iMesh)
		}
		modelId, err := fe.exportMesh(meshName, mesh)
		if err != nil {
			return nil, errors.Wrapf(err, "%s mesh %d", name, iMesh)
		}
		fe.b.AddConnections(bfbx73.C("OO", modelId, parent))
		models = append(models, modelId)
	}
	return models, nil
}

func (fe *Exporter) exportMesh(name string, mesh *vertex.Attributes) (int64, error) {
	verticesCount := len(mesh.Positions)
	if len(mesh.Indices)%3 != 0 {
		return 0, errors.Wrapf(geometry.ErrMalformedGeometry, "%d indices do not form triangles", len(mesh.Indices))
	}

	vertices := make([]float64, 0, verticesCount*3)
	normals := make([]float64, 0, verticesCount*3)
	uv := make([]float64, 0, verticesCount*2)
	for i := 0; i < verticesCount; i++ {
		p, n, t := mesh.Positions[i], mesh.Normals[i], mesh.UVs[i]
		vertices = append(vertices, float64(p[0]), float64(p[1]), float64(p[2]))
		normals = append(normals, float64(n[0]), float64(n[1]), float64(n[2]))
		// fbx v runs bottom up
		uv = append(uv, float64(t[0]), 1-float64(t[1]))
	}

	// the last index of every polygon is stored as -(index)-1
	indexes := make([]int32, len(mesh.Indices))
	uvindexes := make([]int32, len(mesh.Indices))
	for i, index := range mesh.Indices {
		if index < 0 || int(index) >= verticesCount {
			return 0, errors.Wrapf(geometry.ErrMalformedGeometry, "index %d at %d out of %d vertices", index, i, verticesCount)
		}
		uvindexes[i] = index
		if i%3 == 2 {
			indexes[i] = -index - 1
		} else {
			indexes[i] = index
		}
	}

	geometryId := fe.b.GenerateId()
	geometryLayer := bfbx73.Layer(0).AddNodes(
		bfbx73.Version(100),
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementNormal"),
			bfbx73.TypedIndex(0),
		),
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementUV"),
			bfbx73.TypedIndex(0),
		),
		bfbx73.LayerElement().AddNodes(
			bfbx73.Type("LayerElementMaterial"),
			bfbx73.TypedIndex(0),
		),
	)

	geometryNode := bfbx73.Geometry(geometryId, name+"\x00\x01Geometry", "Mesh").AddNodes(
		bfbx73.Properties70().AddNodes(
			bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
		),
		bfbx73.GeometryVersion(124),
		bfbx73.Vertices(vertices),
		bfbx73.PolygonVertexIndex(indexes),
		bfbx73.LayerElementNormal(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByVertice"),
			bfbx73.ReferenceInformationType("Direct"),
			bfbx73.Normals(normals),
		),
		bfbx73.LayerElementUV(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("ByPolygonVertex"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.UV(uv),
			bfbx73.UVIndex(uvindexes),
		),
		bfbx73.LayerElementMaterial(0).AddNodes(
			bfbx73.Version(101),
			bfbx73.Name(""),
			bfbx73.MappingInformationType("AllSame"),
			bfbx73.ReferenceInformationType("IndexToDirect"),
			bfbx73.Materials([]int32{0}),
		),
		geometryLayer,
	)

	modelId := fe.b.GenerateId()
	model := bfbx73.Model(modelId, name+"\x00\x01Model", "Mesh").AddNodes(
		bfbx73.Version(232),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("InheritType", "enum", "", "", int32(1)),
			bfbx73.P("DefaultAttributeIndex", "int", "Integer", "", int32(0)),
			bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
			bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
		),
		bfbx73.Shading(true),
		bfbx73.Culling("CullingOff"),
	)

	fe.b.AddObjects(model, geometryNode)
	fe.b.AddConnections(
		bfbx73.C("OO", geometryId, modelId),
		bfbx73.C("OO", fe.MaterialId, modelId),
	)
	return modelId, nil
}

// ExportGeometry emits a null model per lod group holding its most detailed
// lod. With allLODs the other lods are added under the same null.
func ExportGeometry(g *geometry.Geometry, allLODs bool) (*Builder, error) {
	b := NewBuilder(g.SourcePath)
	fe := NewExporter(b)

	for iGroup, group := range g.LODGroups() {
		groupId := fe.AddNull(group.Name, 0)

		var previous *vertex.LODPreview
		for iLod, lod := range group.LODs {
			if iLod > 0 && !allLODs {
				break
			}
			preview, err := vertex.NewLODPreview(lod, previous)
			if err != nil {
				return nil, errors.Wrapf(err, "group %d %q", iGroup, group.Name)
			}
			previous = preview

			if _, err := fe.ExportLOD(fmt.Sprintf("%s_%s", group.Name, lod.Name), preview, groupId); err != nil {
				return nil, errors.Wrapf(err, "group %d %q", iGroup, group.Name)
			}
		}
	}
	return b, nil
}
