package utils

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

var (
	nameEncodingMu sync.RWMutex
	nameEncoding   *charmap.Charmap
)

// SetNameEncoding selects the legacy code page used for names that are not
// valid UTF-8. An empty name or "UTF-8" disables the fallback.
func SetNameEncoding(name string) error {
	var found *charmap.Charmap
	if name != "" && !strings.EqualFold(name, "utf-8") {
		for _, enc := range charmap.All {
			if cm, ok := enc.(*charmap.Charmap); ok && strings.EqualFold(cm.String(), name) {
				found = cm
				break
			}
		}
		if found == nil {
			return errors.Errorf("Failed to find encoding %q, known encodings: %s",
				name, strings.Join(ListNameEncodings(), ", "))
		}
	}
	nameEncodingMu.Lock()
	nameEncoding = found
	nameEncodingMu.Unlock()
	return nil
}

func ListNameEncodings() []string {
	list := []string{"UTF-8"}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func getNameEncoding() *charmap.Charmap {
	nameEncodingMu.RLock()
	defer nameEncodingMu.RUnlock()
	return nameEncoding
}
