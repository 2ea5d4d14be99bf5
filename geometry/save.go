package geometry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/asset"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/stream"
	"github.com/ferraris/geometry_browser/utils"
)

// Save writes one asset file per lod group next to file and returns the
// files written. A group that fails is logged and skipped, the others are
// still written.
func (g *Geometry) Save(file string) ([]string, error) {
	if len(g.lodGroups) == 0 {
		return nil, ErrNoLODGroups
	}

	dir := filepath.Dir(file)
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

	saved := make([]string, 0, len(g.lodGroups))
	taken := make(map[string]struct{}, len(g.lodGroups))
	for i, group := range g.lodGroups {
		if len(group.LODs) == 0 {
			logger.Errorf("Skipping lod group %d %q: no lods", i, group.Name)
			continue
		}
		// use the name of the most detailed lod for the file name
		meshFileName := groupFileName(dir, base+"_"+group.LODs[0].Name, taken)

		if err := g.saveGroup(group, meshFileName); err != nil {
			logger.Errorf("Failed to save lod group %q to %q: %v", group.Name, meshFileName, err)
			continue
		}
		logger.Debugf("Saved lod group %q to %q hash %s", group.Name, meshFileName, utils.ShortHex(g.Hash))
		saved = append(saved, meshFileName)
	}
	return saved, nil
}

// groupFileName returns a file name no other group of this save uses,
// numbering the duplicates.
func groupFileName(dir, name string, taken map[string]struct{}) string {
	name = utils.SanitizeFileName(name)
	candidate := name
	for i := 1; ; i++ {
		if _, exists := taken[strings.ToLower(candidate)]; !exists {
			break
		}
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	taken[strings.ToLower(candidate)] = struct{}{}
	return filepath.Join(dir, candidate+asset.FileExtension)
}

func (g *Geometry) saveGroup(group *LODGroup, path string) error {
	payload, hash, err := MarshalLODGroup(group)
	if err != nil {
		return err
	}

	var icon []byte
	if g.Icons != nil {
		if icon, err = g.Icons.RenderIcon(group.LODs[0]); err != nil {
			logger.Warnf("Failed to render icon for %q: %v", group.Name, err)
			icon = nil
		}
	}

	// a new asset file gets a new id
	header := g.Asset
	header.Guid = uuid.New()
	header.ImportDate = time.Now()
	header.Hash = hash
	header.Icon = icon

	data, err := g.marshalAssetFile(&header, payload)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	// only a header that reached the disk is kept
	g.Asset = header
	return nil
}

func (g *Geometry) marshalAssetFile(header *asset.Asset, payload []byte) ([]byte, error) {
	w := stream.NewBufferWriter()
	if err := header.WriteHeader(w); err != nil {
		return nil, errors.Wrapf(err, "header")
	}
	if err := g.ImportSettings.ToBinary(w); err != nil {
		return nil, errors.Wrapf(err, "import settings")
	}
	w.WriteBuffer(payload)
	return w.Bytes(), w.Err()
}

// MarshalLODGroup serializes a group into the asset payload and returns the
// payload together with the group's content hash. The hash covers only the
// mesh records, names and thresholds may change without changing it.
func MarshalLODGroup(group *LODGroup) ([]byte, []byte, error) {
	w := stream.NewBufferWriter()
	w.WriteString(group.Name)
	w.WriteInt32(int32(len(group.LODs)))

	hashes := make([][]byte, 0, len(group.LODs))
	for _, lod := range group.LODs {
		w.WriteString(lod.Name)
		w.WriteFloat32(lod.LodThreshold)
		w.WriteInt32(int32(len(lod.Meshes)))

		meshDataBegin := int(w.Pos())
		for _, mesh := range lod.Meshes {
			if err := mesh.Validate(); err != nil {
				return nil, nil, errors.Wrapf(err, "lod %q", lod.Name)
			}
			w.WriteInt32(mesh.VertexSize)
			w.WriteInt32(mesh.VertexCount)
			w.WriteInt32(mesh.IndexSize)
			w.WriteInt32(mesh.IndexCount)
			w.WriteBytes(mesh.Vertices)
			w.WriteBytes(mesh.Indices)
		}
		if err := w.Err(); err != nil {
			return nil, nil, err
		}
		meshDataSize := int(w.Pos()) - meshDataBegin
		if meshDataSize == 0 {
			return nil, nil, errors.Wrapf(ErrMalformedGeometry, "lod %q has no meshes", lod.Name)
		}
		hashes = append(hashes, utils.ContentHash(w.Bytes(), meshDataBegin, meshDataSize))
	}
	return w.Bytes(), utils.ContentHashOfHashes(hashes), w.Err()
}

func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(ErrIO, "create temp file: %v", err)
	}
	tmp := f.Name()
	cleanup := func() { os.Remove(tmp) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return errors.Wrapf(ErrIO, "write %q: %v", tmp, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return errors.Wrapf(ErrIO, "close %q: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		cleanup()
		return errors.Wrapf(ErrIO, "rename to %q: %v", path, err)
	}
	return nil
}
