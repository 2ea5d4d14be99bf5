package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/config"
	"github.com/ferraris/geometry_browser/contenttool"
	"github.com/ferraris/geometry_browser/fbxexport"
	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/gltfexport"
	"github.com/ferraris/geometry_browser/library"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/status"
	"github.com/ferraris/geometry_browser/thumbnail"
	"github.com/ferraris/geometry_browser/utils"
	"github.com/ferraris/geometry_browser/web"
)

func main() {
	var configPath, logLevel, raw, out, primitive, inspect, gltfPath, fbxPath, exportOut, check, addr, dir string
	var segments int
	var size float64
	var serve, allLODs, noIcons bool
	flag.StringVar(&configPath, "config", config.DefaultFileName, "Path to yaml config")
	flag.StringVar(&logLevel, "loglevel", "", "Override log level (debug, info, warn, error)")
	flag.StringVar(&raw, "raw", "", "Import raw content tool buffer from file")
	flag.StringVar(&out, "out", "", "Base path of saved assets, one file per lod group is written next to it")
	flag.StringVar(&primitive, "primitive", "", "Create primitive mesh (plane, cube, uv_sphere)")
	flag.IntVar(&segments, "segments", 1, "Primitive segments along every axis")
	flag.Float64Var(&size, "size", 1, "Primitive size")
	flag.BoolVar(&noIcons, "noicons", false, "Do not render icons while saving")
	flag.StringVar(&inspect, "inspect", "", "Dump asset file structure")
	flag.StringVar(&gltfPath, "gltf", "", "Export asset file to gltf")
	flag.StringVar(&fbxPath, "fbx", "", "Export asset file to binary fbx")
	flag.StringVar(&exportOut, "o", "", "Output of -gltf or -fbx, for -gltf a .gltf suffix writes text gltf, anything else glb")
	flag.BoolVar(&allLODs, "all", false, "Export every lod with -gltf or -fbx")
	flag.StringVar(&check, "check", "", "Verify every asset in directory")
	flag.BoolVar(&serve, "serve", false, "Start web server")
	flag.StringVar(&addr, "i", "", "Address of server, overrides config")
	flag.StringVar(&dir, "dir", "", "Assets directory, overrides config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dir != "" {
		cfg.AssetsDir = dir
	}
	if err := cfg.Apply(); err != nil {
		logger.Fatalf("%v", err)
	}
	config.Set(cfg)

	switch {
	case raw != "":
		err = importRaw(raw, out, !noIcons)
	case primitive != "":
		err = createPrimitive(primitive, segments, float32(size), out, !noIcons)
	case inspect != "":
		err = inspectAsset(inspect)
	case gltfPath != "":
		err = exportGltf(gltfPath, exportOut, allLODs)
	case fbxPath != "":
		err = exportFbx(fbxPath, exportOut, allLODs)
	case check != "":
		err = checkDir(check)
	case serve:
		err = startServer()
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		logger.Fatalf("%v", err)
	}
}

func newGeometry(icons bool) *geometry.Geometry {
	cfg := config.Get()
	g := geometry.New()
	g.ImportSettings = cfg.Import
	if icons {
		g.Icons = thumbnail.NewRenderer(cfg.Thumbnail.Size, cfg.Thumbnail.Supersample)
	}
	return g
}

func outputPath(out, source string) (string, error) {
	if out == "" {
		out = filepath.Join(config.Get().OutputDir, filepath.Base(source))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0777); err != nil {
		return "", errors.Wrapf(err, "Cannot create output directory")
	}
	return out, nil
}

func save(g *geometry.Geometry, out string) error {
	files, err := g.Save(out)
	if err != nil {
		return err
	}
	if len(files) != len(g.LODGroups()) {
		logger.Warnf("Saved %d of %d lod groups", len(files), len(g.LODGroups()))
	}
	for _, f := range files {
		logger.Infof("Saved %s", f)
	}
	if len(files) == 0 {
		return errors.New("no lod group was saved")
	}
	return nil
}

func importRaw(raw, out string, icons bool) error {
	data, err := os.ReadFile(raw)
	if err != nil {
		return errors.Wrapf(err, "Cannot read raw data")
	}
	g := newGeometry(icons)
	g.SourcePath = raw
	if err := g.FromRawData(data); err != nil {
		return errors.Wrapf(err, "Cannot import %q", raw)
	}
	if out, err = outputPath(out, raw); err != nil {
		return err
	}
	return save(g, out)
}

func createPrimitive(name string, segments int, size float32, out string, icons bool) error {
	typ, err := contenttool.ParsePrimitiveMeshType(name)
	if err != nil {
		return err
	}
	info := contenttool.DefaultPrimitiveInitInfo(typ)
	info.SegmentX, info.SegmentY, info.SegmentZ = int32(segments), int32(segments), int32(segments)
	info.Size = mgl32.Vec3{size, size, size}

	g := newGeometry(icons)
	g.SourcePath = "primitive:" + typ.String()
	if err := contenttool.CreatePrimitiveMesh(g, info); err != nil {
		return err
	}
	if out, err = outputPath(out, typ.String()); err != nil {
		return err
	}
	return save(g, out)
}

func inspectAsset(path string) error {
	g, err := geometry.Load(path)
	if err != nil {
		return err
	}
	icon := g.Icon
	g.Icon = nil
	utils.Dump(g.Asset, g.ImportSettings)
	logger.Infof("hash %s icon %d bytes", utils.ShortHex(g.Hash), len(icon))
	for _, group := range g.LODGroups() {
		utils.Dump(group.WithoutBuffers())
	}
	return nil
}

func exportGltf(path, out string, allLODs bool) error {
	g, err := geometry.Load(path)
	if err != nil {
		return err
	}
	doc, err := gltfexport.ExportGeometry(g, allLODs)
	if err != nil {
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".glb"
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %q", out)
	}
	defer f.Close()
	if err := gltfexport.Save(f, doc, !strings.EqualFold(filepath.Ext(out), ".gltf")); err != nil {
		return errors.Wrapf(err, "Cannot write %q", out)
	}
	logger.Infof("Exported %s", out)
	return nil
}

func exportFbx(path, out string, allLODs bool) error {
	g, err := geometry.Load(path)
	if err != nil {
		return err
	}
	b, err := fbxexport.ExportGeometry(g, allLODs)
	if err != nil {
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".fbx"
	}
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrapf(err, "Cannot create %q", out)
	}
	defer f.Close()
	if err := b.Write(f); err != nil {
		return errors.Wrapf(err, "Cannot write %q", out)
	}
	logger.Infof("Exported %s with %d objects", out, len(b.Objects()))
	return nil
}

func startServer() error {
	cfg := config.Get()
	lib, err := library.Open(cfg.AssetsDir)
	if err != nil {
		return err
	}
	lib.OnChange = func(ev library.Event) {
		status.Asset(ev.Kind.String(), ev.File)
	}
	if err := lib.Watch(); err != nil {
		return err
	}
	defer lib.Close()
	status.Info("Serving %d assets from %s", len(lib.List()), cfg.AssetsDir)

	return web.StartServer(cfg.Server.Addr, lib, status.Default, "web")
}
