package dialect

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the MQL language generation.
type Kind uint8

const (
	Unknown Kind = iota
	MQL4
	MQL5
)

const (
	ExtMQ4 = ".mq4"
	ExtMQ5 = ".mq5"
	ExtMQH = ".mqh"
)

func (k Kind) String() string {
	switch k {
	case MQL4:
		return "mql4"
	case MQL5:
		return "mql5"
	default:
		return "unknown"
	}
}

func (k Kind) GoString() string {
	return fmt.Sprintf("dialect.Kind(%s)", k.String())
}

// Number returns 4 or 5, or 0 for Unknown.
func (k Kind) Number() int {
	switch k {
	case MQL4:
		return 4
	case MQL5:
		return 5
	default:
		return 0
	}
}

// Marker is the folder token identifying the generation ("MQL4"/"MQL5").
func (k Kind) Marker() string {
	switch k {
	case MQL4:
		return "MQL4"
	case MQL5:
		return "MQL5"
	default:
		return ""
	}
}

// Parse accepts "4", "5", "mql4", "mql5" in any case.
func Parse(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "4", "mql4":
		return MQL4, nil
	case "5", "mql5":
		return MQL5, nil
	default:
		return Unknown, fmt.Errorf("invalid MQL version %q (expected: 4|5)", s)
	}
}

// Ext returns the lowercased extension of name, handling both slash styles.
func Ext(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(filepath.Ext(name))
}

// IsSourceExt reports whether ext (with the leading dot) is an MQL source or header extension.
func IsSourceExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtMQ4, ExtMQ5, ExtMQH:
		return true
	}
	return false
}

// IsSourceFile reports whether name has an MQL source or header extension.
func IsSourceFile(name string) bool {
	return IsSourceExt(Ext(name))
}

// FromExt maps a program extension to its generation. Headers and anything else map to Unknown.
func FromExt(ext string) Kind {
	switch strings.ToLower(ext) {
	case ExtMQ5:
		return MQL5
	case ExtMQ4:
		return MQL4
	}
	return Unknown
}

// Detect picks the generation for a file inside folder. Either argument may be empty.
//
// Order: .mq5 extension, .mq4 extension, MQL4 folder marker, MQL5 folder marker.
// With both inputs empty the result is Unknown; otherwise it defaults to MQL5.
func Detect(folder, file string) Kind {
	if file != "" {
		if k := FromExt(Ext(file)); k != Unknown {
			return k
		}
	}
	if folder != "" {
		upper := strings.ToUpper(folder)
		if strings.Contains(upper, MQL4.Marker()) {
			return MQL4
		}
		if strings.Contains(upper, MQL5.Marker()) {
			return MQL5
		}
	}
	if folder == "" && file == "" {
		return Unknown
	}
	return MQL5
}
