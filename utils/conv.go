package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const invalidFileNameChars = `<>:"/\|?*`

// chains keep state between calls, build one per use
func newFileNameTransformer() transform.Transformer {
	return transform.Chain(
		norm.NFC,
		runes.Map(func(r rune) rune {
			if r < 0x20 || strings.ContainsRune(invalidFileNameChars, r) {
				return '_'
			}
			return r
		}),
		runes.Remove(runes.Predicate(func(r rune) bool {
			return r == utf8RuneError || unicode.Is(unicode.Cf, r)
		})),
	)
}

const utf8RuneError = '�'

// SanitizeFileName replaces characters that are not allowed in a file name
// on any of the supported platforms. It does not touch directory separators
// of the caller, pass only the base name.
func SanitizeFileName(name string) string {
	out, _, err := transform.String(newFileNameTransformer(), name)
	if err != nil {
		panic(err)
	}
	out = strings.TrimRight(out, ". ")
	if out == "" {
		return "_"
	}
	return out
}

// DecodeName turns raw name bytes coming from the content tool into a valid
// UTF-8 string. Trailing zero bytes some exporters append are dropped. Bytes
// that are not UTF-8 go through the name encoding when one is set.
func DecodeName(b []byte) string {
	s := strings.TrimRight(string(b), "\x00")
	if utf8.ValidString(s) {
		return s
	}
	if cm := getNameEncoding(); cm != nil {
		if decoded, err := cm.NewDecoder().String(s); err == nil {
			return decoded
		}
	}
	return strings.ToValidUTF8(s, string(utf8RuneError))
}
