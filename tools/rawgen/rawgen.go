package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/contenttool"
	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/logger"
)

// lodScene builds one group holding lods primitives, every next lod with
// half the segments of the previous one.
func lodScene(info contenttool.PrimitiveInitInfo, lods int, settings contenttool.ImportSettings) (*contenttool.Scene, error) {
	var scene *contenttool.Scene
	for lod := 0; lod < lods; lod++ {
		li := info
		li.LOD = int32(lod)
		li.SegmentX = max32(1, info.SegmentX>>lod)
		li.SegmentY = max32(1, info.SegmentY>>lod)
		li.SegmentZ = max32(1, info.SegmentZ>>lod)

		s, err := contenttool.PrimitiveScene(li, settings)
		if err != nil {
			return nil, err
		}
		entry := s.Groups[0].Meshes[0]
		entry.Name = fmt.Sprintf("%s_lod%d", info.Type, lod)
		entry.LodThreshold = float32(lod) * 10
		if scene == nil {
			scene = s
			scene.Groups[0].Meshes = nil
		}
		scene.Groups[0].Meshes = append(scene.Groups[0].Meshes, entry)
	}
	if scene == nil {
		return nil, errors.Errorf("lods must be positive, got %d", lods)
	}
	return scene, nil
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func main() {
	var primitive, out string
	var segments, lods int
	var size float64
	var reverse bool
	flag.StringVar(&primitive, "primitive", "cube", "plane, cube or uv_sphere")
	flag.IntVar(&segments, "segments", 8, "Segments of the most detailed lod")
	flag.IntVar(&lods, "lods", 1, "Number of lods")
	flag.Float64Var(&size, "size", 1, "Primitive size")
	flag.BoolVar(&reverse, "reverse", false, "Reverse handedness")
	flag.StringVar(&out, "o", "", "Output file")
	flag.Parse()

	if out == "" {
		flag.PrintDefaults()
		return
	}

	typ, err := contenttool.ParsePrimitiveMeshType(primitive)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	info := contenttool.DefaultPrimitiveInitInfo(typ)
	info.SegmentX, info.SegmentY, info.SegmentZ = int32(segments), int32(segments), int32(segments)
	info.Size = mgl32.Vec3{float32(size), float32(size), float32(size)}

	settings := geometry.DefaultImportSettings()
	settings.ReverseHandedness = reverse

	scene, err := lodScene(info, lods, contenttool.FromGeometrySettings(settings))
	if err != nil {
		logger.Fatalf("%v", err)
	}
	if err := os.WriteFile(out, scene.Build(), 0666); err != nil {
		logger.Fatalf("%v", err)
	}
	logger.Infof("Wrote %d lods of %v to %s", lods, typ, out)
}
