package asset

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferraris/geometry_browser/stream"
)

func TestHeaderRoundTrip(t *testing.T) {
	a := New(Mesh)
	a.Guid = uuid.New()
	a.ImportDate = time.Unix(1700000000, 12345)
	a.Hash = []byte{1, 2, 3, 4}
	a.SourcePath = "models/chair.fbx"
	a.Icon = []byte{0x89, 'P', 'N', 'G'}

	w := stream.NewBufferWriter()
	require.NoError(t, a.WriteHeader(w))

	got, err := ReadHeader(stream.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, Mesh, got.Type())
	assert.Equal(t, a.Guid, got.Guid)
	assert.True(t, a.ImportDate.Equal(got.ImportDate))
	assert.Equal(t, a.Hash, got.Hash)
	assert.Equal(t, a.SourcePath, got.SourcePath)
	assert.Equal(t, a.Icon, got.Icon)
}

func TestHeaderEmptyOptionalFields(t *testing.T) {
	a := New(Texture)
	w := stream.NewBufferWriter()
	require.NoError(t, a.WriteHeader(w))

	// type, guid, date, hash len, path len, icon len
	assert.Equal(t, 4+4+16+8+4+4+4, len(w.Bytes()))

	got, err := ReadHeader(stream.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Nil(t, got.Hash)
	assert.Empty(t, got.SourcePath)
	assert.Empty(t, got.Icon)
}

func TestReadHeaderRejects(t *testing.T) {
	w := stream.NewBufferWriter()
	w.WriteInt32(int32(Unknown))
	_, err := ReadHeader(stream.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	w = stream.NewBufferWriter()
	w.WriteInt32(int32(Mesh))
	w.WriteBuffer([]byte{1, 2, 3})
	_, err = ReadHeader(stream.NewReader(w.Bytes()))
	assert.ErrorIs(t, err, ErrInvalidHeader)

	a := New(Mesh)
	w = stream.NewBufferWriter()
	require.NoError(t, a.WriteHeader(w))
	_, err = ReadHeader(stream.NewReader(w.Bytes()[:20]))
	assert.ErrorIs(t, err, stream.ErrTruncated)
}

func TestNewUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { New(Unknown) })
}

func TestRestoreKeepsType(t *testing.T) {
	a := New(Mesh)
	other := New(Audio)
	assert.ErrorIs(t, a.Restore(&other), ErrInvalidHeader)

	same := New(Mesh)
	same.SourcePath = "x"
	require.NoError(t, a.Restore(&same))
	assert.Equal(t, "x", a.SourcePath)
	assert.Equal(t, Mesh, a.Type())
}

func TestTypeText(t *testing.T) {
	text, err := Mesh.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Mesh", string(text))

	var back Type
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, Mesh, back)
	assert.Error(t, back.UnmarshalText([]byte("Sound")))
}
