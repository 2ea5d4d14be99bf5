package contenttool

import (
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/stream"
)

// ImportSettingsSize is the packed size of ImportSettings on the wire.
const ImportSettingsSize = 4 + 5

// ImportSettings is the struct handed to the content tool, booleans travel
// as single bytes.
type ImportSettings struct {
	SmoothingAngle        float32
	CalculateNormals      byte
	CalculateTangents     byte
	ReverseHandedness     byte
	ImportEmbeddedTexture byte
	ImportAnimation       byte
}

func toByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func FromGeometrySettings(s geometry.ImportSettings) ImportSettings {
	return ImportSettings{
		SmoothingAngle:        s.SmoothingAngle,
		CalculateNormals:      toByte(s.CalculateNormals),
		CalculateTangents:     toByte(s.CalculateTangents),
		ReverseHandedness:     toByte(s.ReverseHandedness),
		ImportEmbeddedTexture: toByte(s.ImportEmbeddedTexture),
		ImportAnimation:       toByte(s.ImportAnimation),
	}
}

func (s ImportSettings) GeometrySettings() geometry.ImportSettings {
	return geometry.ImportSettings{
		SmoothingAngle:        s.SmoothingAngle,
		CalculateNormals:      s.CalculateNormals != 0,
		CalculateTangents:     s.CalculateTangents != 0,
		ReverseHandedness:     s.ReverseHandedness != 0,
		ImportEmbeddedTexture: s.ImportEmbeddedTexture != 0,
		ImportAnimation:       s.ImportAnimation != 0,
	}
}

func (s ImportSettings) MarshalBinary() ([]byte, error) {
	w := stream.NewBufferWriter()
	w.WriteFloat32(s.SmoothingAngle)
	w.WriteBytes([]byte{
		s.CalculateNormals,
		s.CalculateTangents,
		s.ReverseHandedness,
		s.ImportEmbeddedTexture,
		s.ImportAnimation,
	})
	return w.Bytes(), w.Err()
}

func (s *ImportSettings) UnmarshalBinary(data []byte) error {
	if len(data) != ImportSettingsSize {
		return errors.Wrapf(stream.ErrTruncated, "import settings of %d bytes, expected %d", len(data), ImportSettingsSize)
	}
	r := stream.NewReader(data)
	var err error
	if s.SmoothingAngle, err = r.ReadFloat32(); err != nil {
		return err
	}
	flags, err := r.Read(5)
	if err != nil {
		return err
	}
	s.CalculateNormals = flags[0]
	s.CalculateTangents = flags[1]
	s.ReverseHandedness = flags[2]
	s.ImportEmbeddedTexture = flags[3]
	s.ImportAnimation = flags[4]
	return nil
}
