package main

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/library"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/utils"
	"github.com/ferraris/geometry_browser/vertex"
)

// parseCheck loads every indexed asset, decodes all of its lods and checks
// the stored hash against the payload. It returns the files that failed.
func parseCheck(lib *library.Library) []string {
	var failed []string
	for _, entry := range lib.List() {
		if err := checkAsset(lib, entry.File); err != nil {
			logger.Errorf("E %s: %v", entry.File, err)
			failed = append(failed, entry.File)
		}
	}
	return failed
}

func checkAsset(lib *library.Library, file string) error {
	g, err := lib.LoadGeometry(file)
	if err != nil {
		return err
	}
	group := g.GetLODGroup(0)

	var previous *vertex.LODPreview
	for iLod, lod := range group.LODs {
		if previous, err = vertex.NewLODPreview(lod, previous); err != nil {
			return errors.Wrapf(err, "lod %d", iLod)
		}
		for iMesh, mesh := range previous.Meshes {
			for _, index := range mesh.Indices {
				if index < 0 || int(index) >= len(mesh.Positions) {
					return errors.Wrapf(geometry.ErrMalformedGeometry, "lod %d mesh %d index %d out of %d vertices",
						iLod, iMesh, index, len(mesh.Positions))
				}
			}
		}
	}

	_, hash, err := geometry.MarshalLODGroup(group)
	if err != nil {
		return err
	}
	if g.Hash != nil && !bytes.Equal(hash, g.Hash) {
		return errors.Errorf("hash mismatch: stored %s, payload %s", utils.ShortHex(g.Hash), utils.ShortHex(hash))
	}
	return nil
}

func checkDir(dir string) error {
	lib, err := library.Open(dir)
	if err != nil {
		return err
	}
	failed := parseCheck(lib)
	logger.Infof("Checked %d assets, %d failed", len(lib.List()), len(failed))
	if len(failed) != 0 {
		return errors.Errorf("%d assets failed the check", len(failed))
	}
	return nil
}
