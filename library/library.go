package library

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/asset"
	"github.com/ferraris/geometry_browser/geometry"
	"github.com/ferraris/geometry_browser/logger"
	"github.com/ferraris/geometry_browser/stream"
)

var ErrNotFound = errors.New("asset not found")

// Entry is the header of one indexed asset file.
type Entry struct {
	File       string     `json:"file"`
	Type       asset.Type `json:"type"`
	Guid       uuid.UUID  `json:"guid"`
	ImportDate time.Time  `json:"importDate"`
	Hash       string     `json:"hash"`
	SourcePath string     `json:"sourcePath"`
	HasIcon    bool       `json:"hasIcon"`
	Size       int64      `json:"size"`
	ModTime    time.Time  `json:"modTime"`
}

type EventKind int

const (
	Added EventKind = iota
	Updated
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	}
	return "unknown"
}

type Event struct {
	Kind  EventKind
	File  string
	Entry *Entry // nil for Removed
}

// Library indexes the asset files of one directory. It is safe for
// concurrent use.
type Library struct {
	dir string

	mu      sync.RWMutex
	entries map[string]*Entry

	// OnChange is called from the watcher goroutine, set it before Watch
	OnChange func(Event)

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

// Open scans dir for asset files. Files that fail to parse are logged and
// left out of the index.
func Open(dir string) (*Library, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open library")
	}
	if !st.IsDir() {
		return nil, errors.Errorf("Library path %q is not a directory", dir)
	}
	l := &Library{dir: dir, entries: make(map[string]*Entry)}
	return l, l.Rescan()
}

func (l *Library) Dir() string { return l.dir }

func (l *Library) Rescan() error {
	files, err := os.ReadDir(l.dir)
	if err != nil {
		return errors.Wrapf(err, "Cannot read library %q", l.dir)
	}
	entries := make(map[string]*Entry)
	for _, f := range files {
		if f.IsDir() || !isAssetFile(f.Name()) {
			continue
		}
		e, err := readEntry(filepath.Join(l.dir, f.Name()))
		if err != nil {
			logger.Warnf("Skipping %q: %v", f.Name(), err)
			continue
		}
		entries[f.Name()] = e
	}

	l.mu.Lock()
	l.entries = entries
	l.mu.Unlock()
	return nil
}

func isAssetFile(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), asset.FileExtension)
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	a, err := asset.ReadHeader(stream.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Entry{
		File:       filepath.Base(path),
		Type:       a.Type(),
		Guid:       a.Guid,
		ImportDate: a.ImportDate,
		Hash:       hex.EncodeToString(a.Hash),
		SourcePath: a.SourcePath,
		HasIcon:    len(a.Icon) != 0,
		Size:       st.Size(),
		ModTime:    st.ModTime(),
	}, nil
}

// List returns the entries sorted by file name.
func (l *Library) List() []*Entry {
	l.mu.RLock()
	list := make([]*Entry, 0, len(l.entries))
	for _, e := range l.entries {
		list = append(list, e)
	}
	l.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].File < list[j].File })
	return list
}

func (l *Library) Get(file string) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if e, ok := l.entries[file]; ok {
		return e, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "%q", file)
}

// Path resolves an indexed file name. Only names present in the index are
// accepted, so callers can pass request input directly.
func (l *Library) Path(file string) (string, error) {
	if _, err := l.Get(file); err != nil {
		return "", err
	}
	return filepath.Join(l.dir, file), nil
}

func (l *Library) LoadGeometry(file string) (*geometry.Geometry, error) {
	e, err := l.Get(file)
	if err != nil {
		return nil, err
	}
	if e.Type != asset.Mesh {
		return nil, errors.Errorf("%q is a %v asset, not a mesh", file, e.Type)
	}
	return geometry.Load(filepath.Join(l.dir, file))
}

// ReadIcon returns the icon stored in the header of file.
func (l *Library) ReadIcon(file string) ([]byte, error) {
	path, err := l.Path(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := asset.ReadHeader(stream.NewReader(data))
	if err != nil {
		return nil, err
	}
	return a.Icon, nil
}

// refresh reindexes one file and reports what changed, ok is false when
// nothing did.
func (l *Library) refresh(name string) (ev Event, ok bool) {
	file := filepath.Base(name)
	if !isAssetFile(file) {
		return ev, false
	}

	e, err := readEntry(filepath.Join(l.dir, file))
	l.mu.Lock()
	defer l.mu.Unlock()
	old, existed := l.entries[file]

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if !existed {
				return ev, false
			}
			delete(l.entries, file)
			return Event{Kind: Removed, File: file}, true
		}
		// a writer that is not atomic can leave a half written file behind
		logger.Warnf("Cannot index %q: %v", file, err)
		return ev, false
	}

	l.entries[file] = e
	if existed && old.Hash == e.Hash && old.Guid == e.Guid && old.ModTime.Equal(e.ModTime) {
		return ev, false
	}
	kind := Added
	if existed {
		kind = Updated
	}
	return Event{Kind: kind, File: file, Entry: e}, true
}
