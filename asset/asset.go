package asset

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/stream"
)

const FileExtension = ".asset"

type Type int32

const (
	Unknown Type = iota
	Animation
	Audio
	Material
	Mesh
	Skeleton
	Texture
)

var typeNames = [...]string{"Unknown", "Animation", "Audio", "Material", "Mesh", "Skeleton", "Texture"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int32(t))
	}
	return typeNames[t]
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(text []byte) error {
	for i, name := range typeNames {
		if name == string(text) {
			*t = Type(i)
			return nil
		}
	}
	return errors.Errorf("unknown asset type %q", text)
}

var ErrInvalidHeader = errors.New("invalid asset header")

// Asset is the common header every asset file starts with.
type Asset struct {
	typ        Type
	Guid       uuid.UUID
	ImportDate time.Time
	Hash       []byte // optional
	SourcePath string
	Icon       []byte
}

func New(t Type) Asset {
	if t == Unknown {
		panic("asset: type must not be Unknown")
	}
	return Asset{typ: t}
}

func (a *Asset) Type() Type { return a.typ }

// WriteHeader stores the header fields in file order. The import date is
// written as unix nanoseconds.
func (a *Asset) WriteHeader(w *stream.Writer) error {
	if a.typ == Unknown {
		return errors.Wrapf(ErrInvalidHeader, "asset type is Unknown")
	}
	w.WriteInt32(int32(a.typ))
	w.WriteBuffer(a.Guid[:])
	w.WriteInt64(a.ImportDate.UnixNano())
	w.WriteBuffer(a.Hash)
	w.WriteString(a.SourcePath)
	w.WriteBuffer(a.Icon)
	return w.Err()
}

func ReadHeader(r *stream.Reader) (*Asset, error) {
	t, err := r.ReadInt32()
	if err != nil {
		return nil, errors.Wrapf(err, "type")
	}
	a := &Asset{typ: Type(t)}
	if a.typ <= Unknown || int(a.typ) >= len(typeNames) {
		return nil, errors.Wrapf(ErrInvalidHeader, "asset type %d", t)
	}

	guid, err := r.ReadBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "guid")
	}
	if a.Guid, err = uuid.FromBytes(guid); err != nil {
		return nil, errors.Wrapf(ErrInvalidHeader, "guid of %d bytes: %v", len(guid), err)
	}

	date, err := r.ReadInt64()
	if err != nil {
		return nil, errors.Wrapf(err, "import date")
	}
	a.ImportDate = time.Unix(0, date)

	if a.Hash, err = r.ReadBuffer(); err != nil {
		return nil, errors.Wrapf(err, "hash")
	}
	if len(a.Hash) == 0 {
		a.Hash = nil
	}
	if a.SourcePath, err = r.ReadString(); err != nil {
		return nil, errors.Wrapf(err, "source path")
	}
	if a.Icon, err = r.ReadBuffer(); err != nil {
		return nil, errors.Wrapf(err, "icon")
	}
	return a, nil
}

// Restore copies header fields read from disk, keeping the receiver's type.
func (a *Asset) Restore(from *Asset) error {
	if from.typ != a.typ {
		return errors.Wrapf(ErrInvalidHeader, "expected %v asset, got %v", a.typ, from.typ)
	}
	t := a.typ
	*a = *from
	a.typ = t
	return nil
}
