package workspace

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"mqltools/internal/compiledb"
	"mqltools/internal/flags"
)

// Settings keys are escaped because they contain dots.
const (
	keyFallbackFlags = `clangd\.fallbackFlags`
	keyAssociations  = `files\.associations`
	keyIntelliSense  = `C_Cpp\.intelliSenseEngine`
)

var associations = []string{"*.mq4", "*.mq5", "*.mqh"}

var prettyOptions = &pretty.Options{Width: 80, Indent: "    "}

// MergeSettings merges fl into clangd.fallbackFlags (existing entries keep
// their order), maps MQL files to C++ and disables the C/C++ extension's own
// IntelliSense. Other settings are left untouched.
func MergeSettings(data []byte, fl flags.Set) ([]byte, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("settings.json is not plain JSON (comments or trailing commas are not supported)")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("settings.json must contain a JSON object")
	}

	var existing flags.Set
	for _, v := range root.Get(keyFallbackFlags).Array() {
		existing = append(existing, v.String())
	}
	merged := flags.Merge(existing, fl)

	assoc := make(map[string]string)
	root.Get(keyAssociations).ForEach(func(k, v gjson.Result) bool {
		assoc[k.String()] = v.String()
		return true
	})
	for _, pattern := range associations {
		assoc[pattern] = "cpp"
	}

	out, err := sjson.SetBytes(data, keyFallbackFlags, []string(merged))
	if err != nil {
		return nil, fmt.Errorf("set clangd.fallbackFlags: %w", err)
	}
	if out, err = sjson.SetBytes(out, keyAssociations, assoc); err != nil {
		return nil, fmt.Errorf("set files.associations: %w", err)
	}
	if out, err = sjson.SetBytes(out, keyIntelliSense, "Disabled"); err != nil {
		return nil, fmt.Errorf("set C_Cpp.intelliSenseEngine: %w", err)
	}
	return pretty.PrettyOptions(out, prettyOptions), nil
}

// UpdateSettingsFile applies MergeSettings to path, creating it when missing.
func UpdateSettingsFile(path string, fl flags.Set) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}
	out, err := MergeSettings(data, fl)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return compiledb.WriteFileAtomic(path, out, 0o644)
}
