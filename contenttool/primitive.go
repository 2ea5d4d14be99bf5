package contenttool

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/vertex"
)

type PrimitiveMeshType int32

const (
	Plane PrimitiveMeshType = iota
	Cube
	UvSphere
	IcoSphere
	Cylinder
	Capsule
)

var primitiveNames = [...]string{"plane", "cube", "uv_sphere", "ico_sphere", "cylinder", "capsule"}

func (t PrimitiveMeshType) String() string {
	if t < 0 || int(t) >= len(primitiveNames) {
		return "unknown"
	}
	return primitiveNames[t]
}

func ParsePrimitiveMeshType(s string) (PrimitiveMeshType, error) {
	for i, name := range primitiveNames {
		if strings.EqualFold(name, s) {
			return PrimitiveMeshType(i), nil
		}
	}
	return 0, errors.Errorf("unknown primitive %q", s)
}

var ErrUnsupportedPrimitive = errors.New("unsupported primitive")

type PrimitiveInitInfo struct {
	Type     PrimitiveMeshType
	SegmentX int32
	SegmentY int32
	SegmentZ int32
	Size     mgl32.Vec3
	LOD      int32
}

func DefaultPrimitiveInitInfo(t PrimitiveMeshType) PrimitiveInitInfo {
	return PrimitiveInitInfo{Type: t, SegmentX: 1, SegmentY: 1, SegmentZ: 1, Size: mgl32.Vec3{1, 1, 1}}
}

// CreatePrimitiveMesh generates the raw data the content tool would return
// for info and loads it into g.
func CreatePrimitiveMesh(g *geometry.Geometry, info PrimitiveInitInfo) error {
	scene, err := PrimitiveScene(info, FromGeometrySettings(g.ImportSettings))
	if err != nil {
		return err
	}
	if err := g.FromRawData(scene.Build()); err != nil {
		return errors.Wrapf(err, "failed to create %v primitive mesh", info.Type)
	}
	return nil
}

func PrimitiveScene(info PrimitiveInitInfo, settings ImportSettings) (*Scene, error) {
	var vertices []vertex.Static
	var indices []int32
	switch info.Type {
	case Plane:
		vertices, indices = createPlane(info)
	case Cube:
		vertices, indices = createCube(info)
	case UvSphere:
		vertices, indices = createUvSphere(info)
	default:
		return nil, errors.Wrapf(ErrUnsupportedPrimitive, "%v", info.Type)
	}
	if settings.ReverseHandedness != 0 {
		reverseHandedness(vertices, indices)
	}

	entry := MeshEntry{
		Name:        info.Type.String(),
		LodID:       info.LOD,
		VertexSize:  vertex.StaticVertexSize,
		VertexCount: int32(len(vertices)),
		IndexCount:  int32(len(indices)),
		Vertices:    vertex.PackStatic(vertices),
	}
	if len(vertices) < 1<<16 {
		entry.IndexSize = 2
		short := make([]uint16, len(indices))
		for i, v := range indices {
			short[i] = uint16(v)
		}
		entry.Indices = vertex.PackIndices16(short)
	} else {
		entry.IndexSize = 4
		entry.Indices = vertex.PackIndices32(indices)
	}

	return &Scene{
		Name: info.Type.String(),
		Groups: []Group{{
			Name:   info.Type.String(),
			Meshes: []MeshEntry{entry},
		}},
	}, nil
}

func segments(v int32) int {
	if v < 1 {
		return 1
	}
	return int(v)
}

// createPlane builds a grid in the xz plane facing +y.
func createPlane(info PrimitiveInitInfo) ([]vertex.Static, []int32) {
	return grid(segments(info.SegmentX), segments(info.SegmentZ), func(u, v float32) (mgl32.Vec3, mgl32.Vec3) {
		return mgl32.Vec3{(u - 0.5) * info.Size[0], 0, (0.5 - v) * info.Size[2]}, mgl32.Vec3{0, 1, 0}
	}, nil, nil)
}

func createCube(info PrimitiveInitInfo) ([]vertex.Static, []int32) {
	half := info.Size.Mul(0.5)
	faces := []struct {
		normal, right, up mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	var vertices []vertex.Static
	var indices []int32
	for _, f := range faces {
		f := f
		vertices, indices = grid(1, 1, func(u, v float32) (mgl32.Vec3, mgl32.Vec3) {
			p := f.normal.Add(f.right.Mul(2*u - 1)).Add(f.up.Mul(2*v - 1))
			return mgl32.Vec3{p[0] * half[0], p[1] * half[1], p[2] * half[2]}, f.normal
		}, vertices, indices)
	}
	return vertices, indices
}

func createUvSphere(info PrimitiveInitInfo) ([]vertex.Static, []int32) {
	sx := segments(info.SegmentX)
	sy := segments(info.SegmentY)
	if sx < 3 {
		sx = 3
	}
	if sy < 2 {
		sy = 2
	}
	half := info.Size.Mul(0.5)
	return grid(sx, sy, func(u, v float32) (mgl32.Vec3, mgl32.Vec3) {
		phi := float64(u) * 2 * math.Pi
		theta := float64(1-v) * math.Pi
		n := mgl32.Vec3{
			float32(math.Sin(theta) * math.Cos(phi)),
			float32(math.Cos(theta)),
			float32(-math.Sin(theta) * math.Sin(phi)),
		}
		return mgl32.Vec3{n[0] * half[0], n[1] * half[1], n[2] * half[2]}, n
	}, nil, nil)
}

// grid appends a (cols+1)*(rows+1) vertex patch with counter clockwise
// triangles when seen from the normal side.
func grid(cols, rows int, at func(u, v float32) (pos, normal mgl32.Vec3), vertices []vertex.Static, indices []int32) ([]vertex.Static, []int32) {
	base := int32(len(vertices))
	for y := 0; y <= rows; y++ {
		for x := 0; x <= cols; x++ {
			u := float32(x) / float32(cols)
			v := float32(y) / float32(rows)
			pos, normal := at(u, v)
			vertices = append(vertices, vertex.Static{Position: pos, Normal: normal, UV: mgl32.Vec2{u, 1 - v}})
		}
	}
	stride := int32(cols + 1)
	for y := int32(0); y < int32(rows); y++ {
		for x := int32(0); x < int32(cols); x++ {
			i0 := base + y*stride + x
			i1 := i0 + 1
			i2 := i0 + stride
			i3 := i2 + 1
			indices = append(indices, i0, i1, i3, i0, i3, i2)
		}
	}
	return vertices, indices
}

func reverseHandedness(vertices []vertex.Static, indices []int32) {
	for i := range vertices {
		vertices[i].Position[2] = -vertices[i].Position[2]
		vertices[i].Normal[2] = -vertices[i].Normal[2]
	}
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i+1], indices[i+2] = indices[i+2], indices[i+1]
	}
}
