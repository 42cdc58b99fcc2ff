package value

import (
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// UTF16Units returns s's UTF-16 code units. A Go string holds no
// unpaired surrogates, so none appear in the result.
func UTF16Units(s string) []uint16 {
	// encoding/unicode's encoder errors on isolated surrogate code
	// points that cannot occur in valid UTF-8 in the first place, since
	// Go strings never contain unpaired surrogates; ranging over runes
	// with utf16.Encode covers that case directly without relying on
	// the x/text encoder's error path.
	return utf16.Encode([]rune(s))
}

// UTF16Length implements spec String.length: number of UTF-16 code
// units.
func UTF16Length(s string) int64 {
	return int64(len(UTF16Units(s)))
}

// UTF16CharAt returns the single UTF-16 code unit at index i as a
// one-unit string, or ("", false) if i is out of range. Indexing is by
// code unit; a lone surrogate half cannot be held in a Go string and
// comes back as U+FFFD.
func UTF16CharAt(s string, i int64) (string, bool) {
	units := UTF16Units(s)
	if i < 0 || i >= int64(len(units)) {
		return "", false
	}
	return string(utf16.Decode(units[i : i+1])), true
}

// UTF16CodeUnitAt returns the raw code unit at index i.
func UTF16CodeUnitAt(s string, i int64) (uint16, bool) {
	units := UTF16Units(s)
	if i < 0 || i >= int64(len(units)) {
		return 0, false
	}
	return units[i], true
}

// DecodeUTF16BE decodes host-provided big-endian UTF-16 bytes (the
// wire format host TextDecoder("utf-16be") bindings hand the engine)
// into a Go string, via golang.org/x/text's streaming transcoder
// rather than a hand-rolled byte-pairing loop.
func DecodeUTF16BE(b []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
