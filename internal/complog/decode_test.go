package complog

import "testing"

func utf16le(s string, bom bool) []byte {
	var out []byte
	if bom {
		out = append(out, 0xFF, 0xFE)
	}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestDecode(t *testing.T) {
	const text = "0 error(s), 0 warning(s)\r\n"
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{name: "utf16le with bom", in: utf16le(text, true), want: text},
		{name: "utf16le without bom", in: utf16le(text, false), want: text},
		{name: "utf8 with bom", in: append([]byte{0xEF, 0xBB, 0xBF}, text...), want: text},
		{name: "plain utf8", in: []byte(text), want: text},
		{name: "empty", in: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Decode = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeThenParse(t *testing.T) {
	log := "C:\\Project\\Main.mq5(10,5) : error 123: unexpected token\r\nResult: 1 errors, 0 warnings, 50 msec elapsed\r\n"
	text, err := Decode(utf16le(log, true))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	res := Parse(text, false)
	want := "\n\nunexpected token (10,5)\n[Error] Result: 1 errors, 0 warnings, 50 msec elapsed\n"
	if res.Text != want {
		t.Fatalf("text = %q, want %q", res.Text, want)
	}
}
