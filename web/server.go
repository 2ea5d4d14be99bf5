package web

import (
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/ferraris/geometry_browser/library"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/status"
)

type Server struct {
	Library *library.Library
	Status  *status.Broadcaster

	upgrader websocket.Upgrader
}

func NewServer(lib *library.Library, b *status.Broadcaster) *Server {
	return &Server{
		Library: lib,
		Status:  b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Router serves the json api, downloads and the status feed. When webPath
// holds a data directory it is served as static files.
func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/assets", s.HandlerAjaxAssets).Methods(http.MethodGet)
	r.HandleFunc("/json/assets/{file}", s.HandlerAjaxAsset).Methods(http.MethodGet)
	r.HandleFunc("/json/assets/{file}/preview", s.HandlerAjaxAssetPreview).Methods(http.MethodGet)
	r.HandleFunc("/icon/assets/{file}", s.HandlerAssetIcon).Methods(http.MethodGet)
	r.HandleFunc("/dump/assets/{file}", s.HandlerDumpAsset).Methods(http.MethodGet)
	r.HandleFunc("/dump/assets/{file}/gltf", s.HandlerDumpAssetGltf).Methods(http.MethodGet)
	r.HandleFunc("/dump/assets/{file}/fbx", s.HandlerDumpAssetFbx).Methods(http.MethodGet)
	r.HandleFunc("/dump/assets/{file}/spew", s.HandlerDumpAssetSpew).Methods(http.MethodGet)
	r.HandleFunc("/ws/status", s.HandlerStatus)

	if webPath != "" {
		dataPath := path.Join(webPath, "data")
		if st, err := os.Stat(dataPath); err == nil && st.IsDir() {
			r.PathPrefix("/").Handler(http.FileServer(http.Dir(dataPath)))
		}
	}
	return r
}

func (s *Server) Handler(webPath string) http.Handler {
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(logger.StandardLog()))(s.Router(webPath))
	return handlers.LoggingHandler(logger.StandardLog().Writer(), h)
}

func StartServer(addr string, lib *library.Library, b *status.Broadcaster, webPath string) error {
	logger.Infof("[web] Starting server %v", addr)
	return http.ListenAndServe(addr, NewServer(lib, b).Handler(webPath))
}
