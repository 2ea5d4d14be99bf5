package web

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/asset"
	"github.com/ferraris/geometry_browser/fbxexport"
	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/gltfexport"
	"github.com/ferraris/geometry_browser/library"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/stream"
	"github.com/ferraris/geometry_browser/utils"
	"github.com/ferraris/geometry_browser/vertex"
	"github.com/ferraris/geometry_browser/webutils"
)

func errorCode(err error) int {
	switch {
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, geometry.ErrMalformedGeometry), errors.Is(err, stream.ErrTruncated),
		errors.Is(err, stream.ErrNegativeLength), errors.Is(err, asset.ErrInvalidHeader):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	webutils.WriteError(w, errorCode(err), err)
}

type AssetInfo struct {
	*library.Entry
	ImportSettings geometry.ImportSettings `json:"importSettings"`
	Groups         []*geometry.LODGroup    `json:"groups"`
}

func (s *Server) HandlerAjaxAssets(w http.ResponseWriter, r *http.Request) {
	webutils.WriteJson(w, s.Library.List())
}

func (s *Server) loadGeometry(r *http.Request) (*library.Entry, *geometry.Geometry, error) {
	file := mux.Vars(r)["file"]
	entry, err := s.Library.Get(file)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.Library.LoadGeometry(file)
	if err != nil {
		return nil, nil, err
	}
	return entry, g, nil
}

func (s *Server) HandlerAjaxAsset(w http.ResponseWriter, r *http.Request) {
	entry, g, err := s.loadGeometry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteJson(w, &AssetInfo{
		Entry:          entry,
		ImportSettings: g.ImportSettings,
		Groups:         g.LODGroups(),
	})
}

// HandlerAjaxAssetPreview returns the decoded lod selected by ?lod=, the
// most detailed one by default.
func (s *Server) HandlerAjaxAssetPreview(w http.ResponseWriter, r *http.Request) {
	_, g, err := s.loadGeometry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	lods := g.GetLODGroup(0).LODs

	lodIndex := 0
	if param := r.URL.Query().Get("lod"); param != "" {
		if lodIndex, err = strconv.Atoi(param); err != nil || lodIndex < 0 || lodIndex >= len(lods) {
			webutils.WriteError(w, http.StatusBadRequest, errors.Errorf("lod %q is not in [0,%d)", param, len(lods)))
			return
		}
	}

	preview, err := vertex.NewLODPreview(lods[lodIndex], nil)
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteJson(w, preview)
}

func (s *Server) HandlerAssetIcon(w http.ResponseWriter, r *http.Request) {
	icon, err := s.Library.ReadIcon(mux.Vars(r)["file"])
	if err != nil {
		writeError(w, err)
		return
	}
	if len(icon) == 0 {
		webutils.WriteError(w, http.StatusNotFound, errors.New("asset has no icon"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	webutils.WriteResult(w, icon)
}

func (s *Server) HandlerDumpAsset(w http.ResponseWriter, r *http.Request) {
	file := mux.Vars(r)["file"]
	path, err := s.Library.Path(file)
	if err != nil {
		writeError(w, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()
	webutils.WriteFile(w, f, file)
}

// HandlerDumpAssetGltf converts an asset to .glb, ?all=1 adds every lod as
// a child node.
func (s *Server) HandlerDumpAssetGltf(w http.ResponseWriter, r *http.Request) {
	entry, g, err := s.loadGeometry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	allLODs, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	doc, err := gltfexport.ExportGeometry(g, allLODs)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := gltfexport.Save(&buf, doc, true); err != nil {
		writeError(w, errors.Wrapf(err, "Failed to encode gltf"))
		return
	}
	webutils.WriteFile(w, &buf, strings.TrimSuffix(entry.File, asset.FileExtension)+".glb")
}

// HandlerDumpAssetFbx converts an asset to binary .fbx, ?all=1 adds every
// lod under the group null.
func (s *Server) HandlerDumpAssetFbx(w http.ResponseWriter, r *http.Request) {
	entry, g, err := s.loadGeometry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	allLODs, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	b, err := fbxexport.ExportGeometry(g, allLODs)
	if err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		writeError(w, errors.Wrapf(err, "Failed to encode fbx"))
		return
	}
	webutils.WriteFile(w, &buf, strings.TrimSuffix(entry.File, asset.FileExtension)+".fbx")
}

// HandlerDumpAssetSpew prints the decoded asset structure without the vertex
// and index bytes.
func (s *Server) HandlerDumpAssetSpew(w http.ResponseWriter, r *http.Request) {
	_, g, err := s.loadGeometry(r)
	if err != nil {
		writeError(w, err)
		return
	}
	icon := g.Icon
	g.Icon = nil
	dump := utils.SDump(g.Asset, g.ImportSettings, g.GetLODGroup(0).WithoutBuffers())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(fmt.Sprintf("%sicon: %d bytes\n", dump, len(icon))))
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("[web] status upgrade: %v", err)
		return
	}
	s.Status.Serve(conn)
}
