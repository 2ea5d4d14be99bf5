package thumbnail

import (
	"bytes"
	"image"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/utils"
	"github.com/ferraris/geometry_browser/vertex"
)

var (
	KeyLightColor = utils.MustParseHexColor("#ffaeaeae")
	SkyColor      = utils.MustParseHexColor("#ff111b30")
	GroundColor   = utils.MustParseHexColor("#ff3f2f1e")
	AmbientColor  = utils.MustParseHexColor("#ff3b3b3b")
)

const (
	DefaultSize        = 90
	DefaultSupersample = 4
)

// Renderer draws a flat shaded icon of a lod as seen from its preview
// camera. It satisfies geometry.IconRenderer.
type Renderer struct {
	Size        int
	Supersample int
	// KeyLight points from the surface towards the light, in view space
	KeyLight mgl32.Vec3
}

func NewRenderer(size, supersample int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	if supersample <= 0 {
		supersample = DefaultSupersample
	}
	return &Renderer{
		Size:        size,
		Supersample: supersample,
		KeyLight:    mgl32.Vec3{-0.4, 0.6, 0.7}.Normalize(),
	}
}

var _ geometry.IconRenderer = (*Renderer)(nil)

func (r *Renderer) RenderIcon(lod *geometry.MeshLOD) ([]byte, error) {
	preview, err := vertex.NewLODPreview(lod, nil)
	if err != nil {
		return nil, err
	}
	img, err := r.Render(preview)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrapf(err, "png encode")
	}
	return buf.Bytes(), nil
}

type face struct {
	screen [3]mgl32.Vec3
	depth  float32
	color  utils.ColorFloat
}

// Render draws preview into a Size*Supersample canvas and scales it down to
// Size. Faces are flat shaded and painted back to front.
func (r *Renderer) Render(preview *vertex.LODPreview) (*image.NRGBA, error) {
	big := r.Size * r.Supersample

	view := lookAt(preview.CameraPosition, preview.CameraTarget)
	toScreen := r.fitProjection(preview, view, big)

	var faces []face
	for iMesh, mesh := range preview.Meshes {
		if len(mesh.Indices)%3 != 0 {
			return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "mesh %d has %d indices", iMesh, len(mesh.Indices))
		}
		for i := 0; i < len(mesh.Indices); i += 3 {
			var world [3]mgl32.Vec3
			var f face
			for k := 0; k < 3; k++ {
				index := mesh.Indices[i+k]
				if index < 0 || int(index) >= len(mesh.Positions) {
					return nil, errors.Wrapf(geometry.ErrMalformedGeometry, "mesh %d index %d out of range", iMesh, index)
				}
				world[k] = mesh.Positions[index]
				f.screen[k] = toScreen(world[k])
			}
			if screenArea(f.screen) == 0 {
				continue
			}
			f.depth = (f.screen[0].Z() + f.screen[1].Z() + f.screen[2].Z()) / 3
			normal := utils.SafeNormalize(world[1].Sub(world[0]).Cross(world[2].Sub(world[0])))
			f.color = r.shade(view.Mul4x1(normal.Vec4(0)).Vec3())
			faces = append(faces, f)
		}
	}
	// z grows towards the camera
	sort.SliceStable(faces, func(i, j int) bool { return faces[i].depth < faces[j].depth })

	dc := gg.NewContext(big, big)
	defer dc.Close()

	// one fill of the whole silhouette first, antialiased seams between
	// faces then blend into an opaque base
	for _, f := range faces {
		triangle(dc, f.screen)
	}
	dc.SetColor(AmbientColor.NRGBA())
	if err := dc.Fill(); err != nil {
		return nil, errors.Wrapf(err, "silhouette")
	}

	for i, f := range faces {
		triangle(dc, f.screen)
		dc.SetColor(f.color.NRGBA())
		if err := dc.Fill(); err != nil {
			return nil, errors.Wrapf(err, "face %d", i)
		}
	}

	small := image.NewNRGBA(image.Rect(0, 0, r.Size, r.Size))
	draw.CatmullRom.Scale(small, small.Bounds(), dc.Image(), image.Rect(0, 0, big, big), draw.Src, nil)
	return small, nil
}

func screenArea(v [3]mgl32.Vec3) float32 {
	return (v[1].X()-v[0].X())*(v[2].Y()-v[0].Y()) - (v[1].Y()-v[0].Y())*(v[2].X()-v[0].X())
}

// triangle appends v to the current path, always in the same winding so
// overlapping faces add up under the nonzero rule.
func triangle(dc *gg.Context, v [3]mgl32.Vec3) {
	if screenArea(v) < 0 {
		v[1], v[2] = v[2], v[1]
	}
	dc.MoveTo(float64(v[0].X()), float64(v[0].Y()))
	dc.LineTo(float64(v[1].X()), float64(v[1].Y()))
	dc.LineTo(float64(v[2].X()), float64(v[2].Y()))
	dc.ClosePath()
}

// shade lights a view space normal with the key light and a sky/ground
// hemisphere on top of the ambient term.
func (r *Renderer) shade(n mgl32.Vec3) utils.ColorFloat {
	// faces pointing away from the camera are the inside of the mesh
	if n.Z() < 0 {
		n = n.Mul(-1)
	}
	hemi := n.Y()*0.5 + 0.5
	c := AmbientColor.
		Add(GroundColor.Scale(1 - hemi)).
		Add(SkyColor.Scale(hemi)).
		Add(KeyLightColor.Scale(float32(math.Max(0, float64(n.Dot(r.KeyLight))))))
	c[3] = 1
	return c
}

func lookAt(eye, target mgl32.Vec3) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	dir := utils.SafeNormalize(target.Sub(eye))
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 0, -1}
		eye = target.Sub(dir)
	}
	if math.Abs(float64(dir.Dot(up))) > 0.99 {
		up = mgl32.Vec3{0, 0, -1}
	}
	return mgl32.LookAtV(eye, target, up)
}

// fitProjection returns an orthographic mapping of world positions to canvas
// pixels that frames every vertex with a small margin.
func (r *Renderer) fitProjection(preview *vertex.LODPreview, view mgl32.Mat4, size int) func(mgl32.Vec3) mgl32.Vec3 {
	var bounds utils.BBox
	for _, mesh := range preview.Meshes {
		for _, p := range mesh.Positions {
			bounds.Add(mgl32.TransformCoordinate(p, view))
		}
	}
	extent := bounds.Size()
	span := float32(math.Max(float64(extent.X()), float64(extent.Y())))
	if span == 0 {
		span = 1
	}
	scale := float32(size) * 0.9 / span
	center := bounds.Center()
	half := float32(size) / 2

	return func(p mgl32.Vec3) mgl32.Vec3 {
		v := mgl32.TransformCoordinate(p, view)
		return mgl32.Vec3{
			half + (v.X()-center.X())*scale,
			half - (v.Y()-center.Y())*scale,
			v.Z(),
		}
	}
}
