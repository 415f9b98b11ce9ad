package complog

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode converts the bytes of a compiler log file to text. MetaEditor writes
// UTF-16LE with a BOM; UTF-8 logs (with or without BOM) are accepted too.
func Decode(data []byte) (string, error) {
	switch {
	case len(data) == 0:
		return "", nil
	case bytes.HasPrefix(data, utf8BOM):
		return string(data[len(utf8BOM):]), nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return decodeUTF16(data)
	case bytes.IndexByte(data, 0) < 0:
		return string(data), nil
	}
	return decodeUTF16(data)
}

// decodeUTF16 assumes little-endian unless a BOM says otherwise.
func decodeUTF16(data []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decode utf-16 log: %w", err)
	}
	return string(out), nil
}
