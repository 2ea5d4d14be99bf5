package geometry_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferraris/geometry_browser/asset"
	"github.com/ferraris/geometry_browser/contenttool"
	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/stream"
)

type fixedNames struct{ n int }

func (f *fixedNames) RandomName() string {
	f.n++
	return fmt.Sprintf("n%d", f.n)
}

func newGeometry() *geometry.Geometry {
	g := geometry.New()
	g.Names = &fixedNames{}
	return g
}

// entry builds a mesh entry with a 4 byte vertex filled with seed.
func entry(name string, lodId int32, threshold float32, seed byte) contenttool.MeshEntry {
	return contenttool.MeshEntry{
		Name:         name,
		LodID:        lodId,
		LodThreshold: threshold,
		VertexSize:   4,
		VertexCount:  2,
		IndexSize:    2,
		IndexCount:   3,
		Vertices:     bytes.Repeat([]byte{seed}, 8),
		Indices:      []byte{0, 0, 1, 0, seed, 0},
	}
}

func twoGroupScene() *contenttool.Scene {
	return &contenttool.Scene{
		Name: "scene",
		Groups: []contenttool.Group{
			{Name: "chair", Meshes: []contenttool.MeshEntry{
				entry("chair_lod0_a", 0, 0, 1),
				entry("chair_lod1", 1, 10, 2),
				entry("chair_lod0_b", 0, 99, 3),
				entry("chair_lod2", 2, 20, 4),
			}},
			{Name: "table", Meshes: []contenttool.MeshEntry{
				entry("table_lod0", 0, 0, 5),
			}},
		},
	}
}

func TestFromRawDataGrouping(t *testing.T) {
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))
	require.Len(t, g.LODGroups(), 2)

	chair := g.GetLODGroup(0)
	assert.Equal(t, "chair", chair.Name)
	require.Len(t, chair.LODs, 3)

	lod0 := chair.LODs[0]
	assert.Equal(t, "chair_lod0_a", lod0.Name)
	assert.Equal(t, float32(0), lod0.LodThreshold, "threshold comes from the first entry")
	require.Len(t, lod0.Meshes, 2)
	assert.Equal(t, bytes.Repeat([]byte{1}, 8), lod0.Meshes[0].Vertices)
	assert.Equal(t, bytes.Repeat([]byte{3}, 8), lod0.Meshes[1].Vertices)

	assert.Equal(t, "chair_lod1", chair.LODs[1].Name)
	assert.Equal(t, float32(10), chair.LODs[1].LodThreshold)
	assert.Equal(t, "chair_lod2", chair.LODs[2].Name)

	// lod ids are scoped to their group
	table := g.GetLODGroup(1)
	require.Len(t, table.LODs, 1)
	assert.Equal(t, "table_lod0", table.LODs[0].Name)
	assert.Len(t, table.LODs[0].Meshes, 1)
}

func TestFromRawDataInvalidLodIdAlwaysNew(t *testing.T) {
	scene := &contenttool.Scene{Groups: []contenttool.Group{{Name: "g", Meshes: []contenttool.MeshEntry{
		entry("a", -1, 0, 1),
		entry("b", -1, 0, 2),
	}}}}
	g := newGeometry()
	require.NoError(t, g.FromRawData(scene.Build()))
	lods := g.GetLODGroup(0).LODs
	require.Len(t, lods, 2)
	assert.Equal(t, "a", lods[0].Name)
	assert.Equal(t, "b", lods[1].Name)
}

func TestFromRawDataSynthesizesNames(t *testing.T) {
	scene := &contenttool.Scene{Groups: []contenttool.Group{{Meshes: []contenttool.MeshEntry{entry("", 0, 0, 1)}}}}
	g := newGeometry()
	require.NoError(t, g.FromRawData(scene.Build()))
	assert.Equal(t, "lod_n1", g.GetLODGroup(0).Name)
	assert.Equal(t, "mesh_n2", g.GetLODGroup(0).LODs[0].Name)
}

func TestFromRawDataReplacesGroups(t *testing.T) {
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))
	single := &contenttool.Scene{Groups: []contenttool.Group{{Name: "only", Meshes: []contenttool.MeshEntry{entry("m", 0, 0, 1)}}}}
	require.NoError(t, g.FromRawData(single.Build()))
	require.Len(t, g.LODGroups(), 1)
	assert.Equal(t, "only", g.GetLODGroup(0).Name)
}

func TestFromRawDataTruncated(t *testing.T) {
	w := stream.NewBufferWriter()
	w.WriteString("scene")
	w.WriteInt32(1)
	g := newGeometry()
	err := g.FromRawData(w.Bytes())
	assert.True(t, errors.Is(err, stream.ErrTruncated), "got %v", err)
	assert.Empty(t, g.LODGroups())

	full := twoGroupScene().Build()
	for _, cut := range []int{1, 4, 12, len(full) / 2, len(full) - 1} {
		err := newGeometry().FromRawData(full[:cut])
		assert.True(t, errors.Is(err, stream.ErrTruncated), "cut at %d: got %v", cut, err)
	}

	assert.True(t, errors.Is(newGeometry().FromRawData(nil), stream.ErrTruncated))
}

func TestFromRawDataKeepsGroupsOnError(t *testing.T) {
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))
	full := twoGroupScene().Build()
	require.Error(t, g.FromRawData(full[:len(full)-1]))
	assert.Len(t, g.LODGroups(), 2)
}

var malformedScenes = []struct {
	name  string
	scene *contenttool.Scene
}{
	{"no groups", &contenttool.Scene{}},
	{"no meshes", &contenttool.Scene{Groups: []contenttool.Group{{Name: "g"}}}},
	{"index size 3", &contenttool.Scene{Groups: []contenttool.Group{{Name: "g", Meshes: []contenttool.MeshEntry{
		func() contenttool.MeshEntry { e := entry("m", 0, 0, 1); e.IndexSize = 3; e.IndexCount = 2; return e }(),
	}}}}},
	{"zero vertex count", &contenttool.Scene{Groups: []contenttool.Group{{Name: "g", Meshes: []contenttool.MeshEntry{
		func() contenttool.MeshEntry { e := entry("m", 0, 0, 1); e.VertexCount = 0; e.Vertices = nil; return e }(),
	}}}}},
	{"negative vertex size", &contenttool.Scene{Groups: []contenttool.Group{{Name: "g", Meshes: []contenttool.MeshEntry{
		func() contenttool.MeshEntry { e := entry("m", 0, 0, 1); e.VertexSize = -4; return e }(),
	}}}}},
}

func TestFromRawDataMalformed(t *testing.T) {
	for _, test := range malformedScenes {
		err := newGeometry().FromRawData(test.scene.Build())
		assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "%s: got %v", test.name, err)
	}
}

func TestFromRawDataNegativeLength(t *testing.T) {
	groupName := stream.NewBufferWriter()
	groupName.WriteString("scene")
	groupName.WriteInt32(1)
	groupName.WriteInt32(-5)

	meshName := stream.NewBufferWriter()
	meshName.WriteString("scene")
	meshName.WriteInt32(1)
	meshName.WriteString("g")
	meshName.WriteInt32(1)
	meshName.WriteInt32(-1)

	sceneName := stream.NewBufferWriter()
	sceneName.WriteInt32(-2)

	for name, data := range map[string][]byte{
		"group name": groupName.Bytes(),
		"mesh name":  meshName.Bytes(),
		"scene name": sceneName.Bytes(),
	} {
		err := newGeometry().FromRawData(data)
		assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "%s: got %v", name, err)
	}

	payload := stream.NewBufferWriter()
	payload.WriteInt32(-3)
	_, err := geometry.ParsePayload(payload.Bytes())
	assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "payload: got %v", err)
}

func TestFromRawDataPaddingOnlyNames(t *testing.T) {
	scene := &contenttool.Scene{Groups: []contenttool.Group{{Name: "\x00\x00", Meshes: []contenttool.MeshEntry{entry("\x00", 0, 0, 1)}}}}
	g := newGeometry()
	require.NoError(t, g.FromRawData(scene.Build()))
	assert.Equal(t, "lod_n1", g.GetLODGroup(0).Name)
	assert.Equal(t, "mesh_n2", g.GetLODGroup(0).LODs[0].Name)
}

func TestDefaultNamesDifferBetweenGeometries(t *testing.T) {
	scene := &contenttool.Scene{Groups: []contenttool.Group{{Meshes: []contenttool.MeshEntry{entry("", 0, 0, 1)}}}}
	first, second := geometry.New(), geometry.New()
	require.NoError(t, first.FromRawData(scene.Build()))
	require.NoError(t, second.FromRawData(scene.Build()))

	assert.NotEqual(t, first.GetLODGroup(0).Name, second.GetLODGroup(0).Name)
	assert.NotEqual(t, first.GetLODGroup(0).LODs[0].Name, second.GetLODGroup(0).LODs[0].Name)

	dir := t.TempDir()
	firstFiles, err := first.Save(filepath.Join(dir, "import"))
	require.NoError(t, err)
	secondFiles, err := second.Save(filepath.Join(dir, "import"))
	require.NoError(t, err)
	assert.NotEqual(t, firstFiles, secondFiles)
}

func TestNewMeshBufferInvariant(t *testing.T) {
	_, err := geometry.NewMesh(4, 2, 2, 3, make([]byte, 7), make([]byte, 6))
	assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "short vertices: %v", err)
	_, err = geometry.NewMesh(4, 2, 2, 3, make([]byte, 8), make([]byte, 8))
	assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "long indices: %v", err)
	_, err = geometry.NewMesh(4, 2, 4, 3, make([]byte, 8), make([]byte, 12))
	assert.NoError(t, err)
}

func TestWithoutBuffers(t *testing.T) {
	g := newGeometry()
	require.NoError(t, contenttool.CreatePrimitiveMesh(g, contenttool.DefaultPrimitiveInitInfo(contenttool.Cube)))
	group := g.GetLODGroup(0)

	stripped := group.WithoutBuffers()
	mesh := stripped.LODs[0].Meshes[0]
	assert.Nil(t, mesh.Vertices)
	assert.Equal(t, int32(24), mesh.VertexCount)
	assert.NotNil(t, group.LODs[0].Meshes[0].Vertices, "source group untouched")
}

func TestGetLODGroupOutOfRange(t *testing.T) {
	g := newGeometry()
	assert.Panics(t, func() { g.GetLODGroup(0) })
}

type stubIcons struct{ calls int }

func (s *stubIcons) RenderIcon(lod *geometry.MeshLOD) ([]byte, error) {
	s.calls++
	return []byte("icon:" + lod.Name), nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := newGeometry()
	icons := &stubIcons{}
	g.Icons = icons
	g.SourcePath = "models/furniture.fbx"
	g.ImportSettings.SmoothingAngle = 45
	g.ImportSettings.ImportAnimation = false
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))

	files, err := g.Save(filepath.Join(dir, "furniture.fbx"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "furniture_chair_lod0_a.asset"),
		filepath.Join(dir, "furniture_table_lod0.asset"),
	}, files)
	assert.Equal(t, 2, icons.calls)

	for i, file := range files {
		loaded, err := geometry.Load(file)
		require.NoError(t, err, file)
		assert.Equal(t, asset.Mesh, loaded.Type())
		assert.Equal(t, "models/furniture.fbx", loaded.SourcePath)
		assert.Equal(t, g.ImportSettings, loaded.ImportSettings)
		assert.Len(t, loaded.Hash, 16)
		assert.Equal(t, []byte("icon:"+g.GetLODGroup(i).LODs[0].Name), loaded.Icon)

		original := g.GetLODGroup(i)
		back := loaded.GetLODGroup(0)
		assert.Equal(t, original.Name, back.Name)
		require.Len(t, back.LODs, len(original.LODs))
		for l := range original.LODs {
			assert.Equal(t, original.LODs[l].Name, back.LODs[l].Name)
			assert.Equal(t, original.LODs[l].LodThreshold, back.LODs[l].LodThreshold)
			require.Len(t, back.LODs[l].Meshes, len(original.LODs[l].Meshes))
			for m, mesh := range original.LODs[l].Meshes {
				assert.Equal(t, *mesh, *back.LODs[l].Meshes[m])
			}
		}
	}
}

func TestSaveRegeneratesGuid(t *testing.T) {
	dir := t.TempDir()
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))

	files, err := g.Save(filepath.Join(dir, "a.asset"))
	require.NoError(t, err)
	first, err := geometry.Load(files[0])
	require.NoError(t, err)
	second, err := geometry.Load(files[1])
	require.NoError(t, err)
	assert.NotEqual(t, first.Guid, second.Guid)

	_, err = g.Save(filepath.Join(dir, "a.asset"))
	require.NoError(t, err)
	again, err := geometry.Load(files[0])
	require.NoError(t, err)
	assert.NotEqual(t, first.Guid, again.Guid)
	assert.Equal(t, first.Hash, again.Hash, "unchanged data hashes the same")
}

func TestGroupHash(t *testing.T) {
	group := func(groupName, lodName string, seed byte) *geometry.LODGroup {
		g := newGeometry()
		scene := &contenttool.Scene{Groups: []contenttool.Group{{Name: groupName, Meshes: []contenttool.MeshEntry{
			entry(lodName, 0, 1, seed),
			entry(lodName+"_1", 1, 2, seed),
		}}}}
		require.NoError(t, g.FromRawData(scene.Build()))
		return g.GetLODGroup(0)
	}

	_, base, err := geometry.MarshalLODGroup(group("chair", "lod", 7))
	require.NoError(t, err)
	_, again, err := geometry.MarshalLODGroup(group("chair", "lod", 7))
	require.NoError(t, err)
	assert.Equal(t, base, again)

	_, renamed, err := geometry.MarshalLODGroup(group("stool", "other", 7))
	require.NoError(t, err)
	assert.Equal(t, base, renamed, "names are outside of the hashed range")

	changed := group("chair", "lod", 7)
	changed.LODs[1].Meshes[0].Vertices[3] ^= 0xff
	_, flipped, err := geometry.MarshalLODGroup(changed)
	require.NoError(t, err)
	assert.NotEqual(t, base, flipped)
}

func TestParsePayloadRejectsTrailingBytes(t *testing.T) {
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))
	payload, _, err := geometry.MarshalLODGroup(g.GetLODGroup(0))
	require.NoError(t, err)

	_, err = geometry.ParsePayload(append(payload, 0))
	assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "got %v", err)
	_, err = geometry.ParsePayload(payload[:len(payload)-1])
	assert.True(t, errors.Is(err, stream.ErrTruncated), "got %v", err)
}

func TestLoadRejectsPayloadLength(t *testing.T) {
	dir := t.TempDir()
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))
	files, err := g.Save(filepath.Join(dir, "x"))
	require.NoError(t, err)
	data, err := os.ReadFile(files[1])
	require.NoError(t, err)

	_, err = geometry.FromAssetData(data[:len(data)-1])
	assert.True(t, errors.Is(err, stream.ErrTruncated), "short payload: %v", err)
	_, err = geometry.FromAssetData(append(append([]byte(nil), data...), 1, 2))
	assert.True(t, errors.Is(err, geometry.ErrMalformedGeometry), "trailing bytes: %v", err)

	_, err = geometry.Load(filepath.Join(dir, "missing.asset"))
	assert.True(t, errors.Is(err, geometry.ErrIO), "missing file: %v", err)
}

func TestSaveSkipsFailedGroup(t *testing.T) {
	dir := t.TempDir()
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))

	// a directory in place of the first group's file makes its rename fail
	blocked := filepath.Join(dir, "furniture_chair_lod0_a.asset")
	require.NoError(t, os.Mkdir(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "keep"), []byte("x"), 0o644))

	files, err := g.Save(filepath.Join(dir, "furniture"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "furniture_table_lod0.asset")}, files)

	_, err = geometry.Load(files[0])
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp file left behind")
	}
}

func TestSaveWithoutGroups(t *testing.T) {
	_, err := newGeometry().Save(filepath.Join(t.TempDir(), "x"))
	assert.True(t, errors.Is(err, geometry.ErrNoLODGroups))
}

func TestSaveKeepsHeaderOfLastWrittenFile(t *testing.T) {
	dir := t.TempDir()
	g := newGeometry()
	require.NoError(t, g.FromRawData(twoGroupScene().Build()))

	// the last group fails, the geometry must describe the first file
	require.NoError(t, os.Mkdir(filepath.Join(dir, "furniture_table_lod0.asset"), 0o755))

	files, err := g.Save(filepath.Join(dir, "furniture"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "furniture_chair_lod0_a.asset")}, files)

	onDisk, err := geometry.Load(files[0])
	require.NoError(t, err)
	assert.Equal(t, onDisk.Guid, g.Guid)
	assert.Equal(t, onDisk.Hash, g.Hash)
	assert.Equal(t, onDisk.ImportDate.UnixNano(), g.ImportDate.UnixNano())
}

func TestSaveNumbersDuplicateFileNames(t *testing.T) {
	scene := &contenttool.Scene{Groups: []contenttool.Group{
		{Name: "left", Meshes: []contenttool.MeshEntry{entry("door", 0, 0, 1)}},
		{Name: "right", Meshes: []contenttool.MeshEntry{entry("door", 0, 0, 2)}},
		{Name: "upper", Meshes: []contenttool.MeshEntry{entry("DOOR", 0, 0, 3)}},
	}}
	dir := t.TempDir()
	g := newGeometry()
	require.NoError(t, g.FromRawData(scene.Build()))

	files, err := g.Save(filepath.Join(dir, "car"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "car_door.asset"),
		filepath.Join(dir, "car_door_1.asset"),
		filepath.Join(dir, "car_DOOR_2.asset"),
	}, files)

	for i, file := range files {
		loaded, err := geometry.Load(file)
		require.NoError(t, err)
		assert.Equal(t, g.GetLODGroup(i).Name, loaded.GetLODGroup(0).Name)
	}
}
