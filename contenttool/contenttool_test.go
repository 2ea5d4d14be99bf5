package contenttool

import (
	"bytes"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/vertex"
)

func TestImportSettingsWire(t *testing.T) {
	s := FromGeometrySettings(geometry.DefaultImportSettings())
	data, err := s.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	angle := math.Float32bits(178)
	expected := []byte{
		byte(angle), byte(angle >> 8), byte(angle >> 16), byte(angle >> 24),
		0, 1, 0, 1, 1,
	}
	if !bytes.Equal(data, expected) {
		t.Errorf("MarshalBinary()=% x; expected % x", data, expected)
	}

	var back ImportSettings
	if err := back.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if back.GeometrySettings() != geometry.DefaultImportSettings() {
		t.Errorf("settings changed on the way back: %+v", back.GeometrySettings())
	}
	if err := back.UnmarshalBinary(data[:8]); err == nil {
		t.Error("expected error on short settings")
	}
}

var primitiveTests = []struct {
	info                    PrimitiveInitInfo
	vertexCount, indexCount int32
}{
	{PrimitiveInitInfo{Type: Plane, SegmentX: 2, SegmentZ: 2, Size: mgl32.Vec3{4, 1, 4}}, 9, 24},
	{DefaultPrimitiveInitInfo(Plane), 4, 6},
	{DefaultPrimitiveInitInfo(Cube), 24, 36},
	{PrimitiveInitInfo{Type: UvSphere, SegmentX: 8, SegmentY: 4, Size: mgl32.Vec3{1, 1, 1}}, 45, 192},
}

func TestCreatePrimitiveMesh(t *testing.T) {
	for _, test := range primitiveTests {
		g := geometry.New()
		if err := CreatePrimitiveMesh(g, test.info); err != nil {
			t.Errorf("%v: %v", test.info.Type, err)
			continue
		}
		group := g.GetLODGroup(0)
		if len(group.LODs) != 1 || len(group.LODs[0].Meshes) != 1 {
			t.Errorf("%v: unexpected layout %d lods", test.info.Type, len(group.LODs))
			continue
		}
		m := group.LODs[0].Meshes[0]
		if m.VertexCount != test.vertexCount || m.IndexCount != test.indexCount {
			t.Errorf("%v: %d vertices %d indices; expected %d %d",
				test.info.Type, m.VertexCount, m.IndexCount, test.vertexCount, test.indexCount)
		}
		a, err := vertex.DecodeMesh(m)
		if err != nil {
			t.Errorf("%v: decode: %v", test.info.Type, err)
			continue
		}
		for _, i := range a.Indices {
			if i < 0 || i >= m.VertexCount {
				t.Errorf("%v: index %d out of range", test.info.Type, i)
				break
			}
		}
	}
}

func TestPlaneFacesUp(t *testing.T) {
	scene, err := PrimitiveScene(DefaultPrimitiveInitInfo(Plane), FromGeometrySettings(geometry.DefaultImportSettings()))
	if err != nil {
		t.Fatal(err)
	}
	e := scene.Groups[0].Meshes[0]
	m, err := geometry.NewMesh(e.VertexSize, e.VertexCount, e.IndexSize, e.IndexCount, e.Vertices, e.Indices)
	if err != nil {
		t.Fatal(err)
	}
	a, err := vertex.DecodeMesh(m)
	if err != nil {
		t.Fatal(err)
	}
	p0, p1, p2 := a.Positions[a.Indices[0]], a.Positions[a.Indices[1]], a.Positions[a.Indices[2]]
	face := p1.Sub(p0).Cross(p2.Sub(p0))
	if face[1] <= 0 {
		t.Errorf("plane winding faces %v; expected +y", face)
	}
	if a.Normals[0][1] < 0.99 {
		t.Errorf("plane normal %v; expected +y", a.Normals[0])
	}
}

func TestReverseHandedness(t *testing.T) {
	settings := FromGeometrySettings(geometry.DefaultImportSettings())
	settings.ReverseHandedness = 1
	scene, err := PrimitiveScene(DefaultPrimitiveInitInfo(Cube), settings)
	if err != nil {
		t.Fatal(err)
	}
	e := scene.Groups[0].Meshes[0]
	m, _ := geometry.NewMesh(e.VertexSize, e.VertexCount, e.IndexSize, e.IndexCount, e.Vertices, e.Indices)
	a, err := vertex.DecodeMesh(m)
	if err != nil {
		t.Fatal(err)
	}
	// the first cube face points to +z before the flip
	if a.Normals[0][2] > -0.99 {
		t.Errorf("normal %v; expected -z after handedness flip", a.Normals[0])
	}
}

func TestUnsupportedPrimitive(t *testing.T) {
	g := geometry.New()
	err := CreatePrimitiveMesh(g, DefaultPrimitiveInitInfo(Capsule))
	if !errors.Is(err, ErrUnsupportedPrimitive) {
		t.Errorf("got %v; expected ErrUnsupportedPrimitive", err)
	}
	if len(g.LODGroups()) != 0 {
		t.Error("failed primitive left lod groups behind")
	}
}

func TestParsePrimitiveMeshType(t *testing.T) {
	if p, err := ParsePrimitiveMeshType("Cube"); err != nil || p != Cube {
		t.Errorf("ParsePrimitiveMeshType(Cube)=%v,%v", p, err)
	}
	if _, err := ParsePrimitiveMeshType("teapot"); err == nil {
		t.Error("expected error for teapot")
	}
}
