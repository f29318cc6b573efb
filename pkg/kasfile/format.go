// SPDX-License-Identifier: MPL-2.0

package kasfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/kasbuild/kas/pkg/cueutil"
	"github.com/kasbuild/kas/pkg/types"
)

// decoder turns raw fragment bytes into a generic document.
type decoder func(data []byte, path string) (any, error)

var decoders = map[string]decoder{
	".yml":  decodeYAML,
	".yaml": decodeYAML,
	".json": decodeJSON,
	".toml": decodeTOML,
	".cue":  decodeCUE,
}

// SupportedExtensions lists the fragment file extensions Load understands.
func SupportedExtensions() []string {
	return []string{".yml", ".yaml", ".json", ".toml", ".cue"}
}

// Load reads one fragment from disk. The result is normalized so nested
// mappings are map[string]any and lists are []any whatever the source syntax.
func Load(path string) (map[string]any, error) {
	dec, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, types.NewConfigurationError(path, "unsupported configuration file type (want one of %s)",
			strings.Join(SupportedExtensions(), ", "))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigurationError{Key: path, Reason: "cannot read configuration file", Err: err}
	}

	doc, err := dec(data, path)
	if err != nil {
		return nil, &types.ConfigurationError{Key: path, Reason: "cannot parse configuration file", Err: err}
	}

	root, ok := normalize(doc).(map[string]any)
	if !ok {
		return nil, types.NewConfigurationError(path, "configuration file does not contain a mapping as base type")
	}
	return root, nil
}

func decodeYAML(data []byte, _ string) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeJSON(data []byte, _ string) (any, error) {
	var doc any
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeTOML(data []byte, _ string) (any, error) {
	var doc map[string]any
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeCUE(data []byte, path string) (any, error) {
	return cueutil.DecodeMap(data, cueutil.WithFilename(path))
}

// normalize rewrites decoder-specific container types into map[string]any
// and []any.
func normalize(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = normalize(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []map[string]any:
		out := make([]any, 0, len(tv))
		for _, e := range tv {
			out = append(out, normalize(e))
		}
		return out
	case []any:
		out := make([]any, 0, len(tv))
		for _, e := range tv {
			out = append(out, normalize(e))
		}
		return out
	default:
		return v
	}
}
