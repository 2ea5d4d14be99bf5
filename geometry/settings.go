package geometry

import "github.com/ferraris/geometry_browser/stream"

// ImportSettings are forwarded to the content tool on import and stored
// in every asset file so an import can be reproduced.
type ImportSettings struct {
	SmoothingAngle        float32 `yaml:"smoothing_angle" json:"smoothingAngle"`
	CalculateNormals      bool    `yaml:"calculate_normals" json:"calculateNormals"`
	CalculateTangents     bool    `yaml:"calculate_tangents" json:"calculateTangents"`
	ReverseHandedness     bool    `yaml:"reverse_handedness" json:"reverseHandedness"`
	ImportEmbeddedTexture bool    `yaml:"import_embedded_texture" json:"importEmbeddedTexture"`
	ImportAnimation       bool    `yaml:"import_animation" json:"importAnimation"`
}

func DefaultImportSettings() ImportSettings {
	return ImportSettings{
		SmoothingAngle:        178,
		CalculateNormals:      false,
		CalculateTangents:     true,
		ReverseHandedness:     false,
		ImportEmbeddedTexture: true,
		ImportAnimation:       true,
	}
}

func (s *ImportSettings) ToBinary(w *stream.Writer) error {
	w.WriteFloat32(s.SmoothingAngle)
	w.WriteBool(s.CalculateNormals)
	w.WriteBool(s.CalculateTangents)
	w.WriteBool(s.ReverseHandedness)
	w.WriteBool(s.ImportEmbeddedTexture)
	w.WriteBool(s.ImportAnimation)
	return w.Err()
}

func (s *ImportSettings) FromBinary(r *stream.Reader) (err error) {
	if s.SmoothingAngle, err = r.ReadFloat32(); err != nil {
		return err
	}
	for _, b := range []*bool{
		&s.CalculateNormals,
		&s.CalculateTangents,
		&s.ReverseHandedness,
		&s.ImportEmbeddedTexture,
		&s.ImportAnimation,
	} {
		if *b, err = r.ReadBool(); err != nil {
			return err
		}
	}
	return nil
}
