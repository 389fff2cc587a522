package parser

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var ErrUndecodable = errors.New("content could not be decoded with any known encoding")

// mojibakeMarkers are byte sequences that show up when UTF-8 text has been
// misread as latin1 and re-encoded. Their presence triggers recovery even when
// the bytes are technically valid UTF-8.
var mojibakeMarkers = []string{"Ã", "â€", "á»", "Â»", "Ä‘"}

func hasMojibake(s string) bool {
	for _, marker := range mojibakeMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// DecodeJSONWithRecovery attempts UTF-8 first and, on mojibake or invalid
// bytes, retries latin1, utf16le and ascii in order until the result parses as
// JSON. The second return reports whether a fallback encoding was used.
func DecodeJSONWithRecovery(raw []byte) (string, bool, error) {
	if utf8.Valid(raw) && json.Valid(raw) && !hasMojibake(string(raw)) {
		return string(raw), false, nil
	}

	for _, try := range []func([]byte) (string, error){
		decodeMisreadLatin1,
		decodeUTF16LE,
		decodeASCII,
	} {
		text, err := try(raw)
		if err != nil {
			continue
		}
		if json.Valid([]byte(text)) {
			return text, true, nil
		}
	}

	return "", false, ErrUndecodable
}

// decodeMisreadLatin1 undoes the UTF-8-misread-as-latin1 round trip: each code
// point of the garbled text maps back to one byte of the original UTF-8 stream.
func decodeMisreadLatin1(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrUndecodable
	}
	enc := encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	restored, err := enc.Bytes(raw)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(restored) {
		return "", ErrUndecodable
	}
	return string(restored), nil
}

func decodeUTF16LE(raw []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, err := dec.Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeASCII(raw []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c < 0x80 {
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
