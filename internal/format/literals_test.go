package format

import "testing"

func TestFixLiterals(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		count int
	}{
		{
			name:  "decimal colour",
			in:    "color c = C '128,0,255';",
			want:  "color c = C'128,0,255';",
			count: 1,
		},
		{
			name:  "hex colour",
			in:    "color c = C '0xAA,0xbb,0x0C';",
			want:  "color c = C'0xAA,0xbb,0x0C';",
			count: 1,
		},
		{
			name:  "date and datetime",
			in:    "datetime a = D '2024.01.31', b = D '2024.01.31 12:30:00';",
			want:  "datetime a = D'2024.01.31', b = D'2024.01.31 12:30:00';",
			count: 2,
		},
		{
			name: "already joined",
			in:   "color c = C'1,2,3';",
			want: "color c = C'1,2,3';",
		},
		{
			name: "identifier ending in C",
			in:   "ABC '1,2,3'",
			want: "ABC '1,2,3'",
		},
		{
			name: "out of range colour component",
			in:   "C '1234,0,0'",
			want: "C '1234,0,0'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := FixLiterals([]byte(tt.in))
			if string(got) != tt.want {
				t.Errorf("FixLiterals = %q, want %q", got, tt.want)
			}
			if n != tt.count {
				t.Errorf("count = %d, want %d", n, tt.count)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	in := []byte("abc")
	out := Apply(in, []Edit{{Start: 1, End: 2, Data: []byte("XY")}})
	if string(out) != "aXYc" || string(in) != "abc" {
		t.Fatalf("Apply = %q, input %q", out, in)
	}
}
