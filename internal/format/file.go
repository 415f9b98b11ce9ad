package format

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sourceEncoding picks the codec for a source file from its BOM. MetaEditor
// saves UTF-16LE with BOM by default; anything without a UTF-16 BOM is
// treated as UTF-8 or ANSI and edited byte-wise.
func sourceEncoding(data []byte) encoding.Encoding {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	}
	return nil
}

// FixEncoded joins spaced literals in a source file image and returns it in
// the encoding it came in.
func FixEncoded(data []byte) ([]byte, int, error) {
	enc := sourceEncoding(data)
	if enc == nil {
		out, n := FixLiterals(data)
		return out, n, nil
	}
	text, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, 0, fmt.Errorf("decode source: %w", err)
	}
	fixed, n := FixLiterals(text)
	if n == 0 {
		return data, 0, nil
	}
	out, _, err := transform.Bytes(enc.NewEncoder(), fixed)
	if err != nil {
		return nil, 0, fmt.Errorf("encode source: %w", err)
	}
	return out, n, nil
}

// FixFile rewrites path in place when it has spaced literals and reports how
// many were joined. Unchanged files are not touched.
func FixFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	out, n, err := FixEncoded(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if n == 0 {
		return 0, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}
