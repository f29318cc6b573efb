// SPDX-License-Identifier: MPL-2.0

package kasfile

import (
	"fmt"

	"github.com/kasbuild/kas/pkg/types"
)

const (
	// HeaderKey is the top-level key holding the fragment header.
	HeaderKey = "header"
	// SupportedFormatVersion is the newest header version this resolver understands.
	SupportedFormatVersion = 1
)

type (
	// Include is one entry of a header's includes list.
	Include struct {
		// Repo names the repository containing File; "" means File is
		// relative to the including fragment's directory (or absolute).
		Repo string
		// File is the fragment path.
		File string
	}

	// Header is the parsed header of a single fragment.
	Header struct {
		// Version is the declared format version, 0 when absent.
		Version  int
		Includes []Include
	}
)

// ParseHeader extracts and validates the header of a loaded fragment.
// path is only used for error messages.
func ParseHeader(path string, doc map[string]any) (Header, error) {
	var hdr Header
	raw, ok := doc[HeaderKey]
	if !ok || raw == nil {
		return hdr, nil
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		return hdr, types.NewConfigurationError(path+": "+HeaderKey, "expected a mapping, got %T", raw)
	}

	if v, ok := fields["version"]; ok && v != nil {
		version, err := formatVersion(v)
		if err != nil {
			return hdr, &types.ConfigurationError{Key: path + ": " + HeaderKey + ".version", Reason: "invalid format version", Err: err}
		}
		if version < 1 || version > SupportedFormatVersion {
			return hdr, types.NewConfigurationError(path+": "+HeaderKey+".version",
				"format version %d is not supported (supported: 1..%d)", version, SupportedFormatVersion)
		}
		hdr.Version = version
	}

	rawIncludes, ok := fields["includes"]
	if !ok || rawIncludes == nil {
		return hdr, nil
	}
	list, ok := rawIncludes.([]any)
	if !ok {
		return hdr, types.NewConfigurationError(path+": "+HeaderKey+".includes", "expected a list, got %T", rawIncludes)
	}
	for i, entry := range list {
		inc, err := parseInclude(entry)
		if err != nil {
			return hdr, &types.ConfigurationError{
				Key:    fmt.Sprintf("%s: %s.includes[%d]", path, HeaderKey, i),
				Reason: "invalid include",
				Err:    err,
			}
		}
		hdr.Includes = append(hdr.Includes, inc)
	}
	return hdr, nil
}

func parseInclude(entry any) (Include, error) {
	switch tv := entry.(type) {
	case string:
		if tv == "" {
			return Include{}, fmt.Errorf("empty path")
		}
		return Include{File: tv}, nil
	case map[string]any:
		repo, _ := tv["repo"].(string)
		file, _ := tv["file"].(string)
		if repo == "" {
			return Include{}, fmt.Errorf(`"repo" is not specified: %v`, tv)
		}
		if file == "" {
			return Include{}, fmt.Errorf(`"file" is not specified: %v`, tv)
		}
		return Include{Repo: repo, File: file}, nil
	default:
		return Include{}, fmt.Errorf("expected a path or a {repo, file} mapping, got %T", entry)
	}
}

func formatVersion(v any) (int, error) {
	switch tv := v.(type) {
	case int:
		return tv, nil
	case int64:
		return int(tv), nil
	case float64:
		if tv != float64(int(tv)) {
			return 0, fmt.Errorf("%v is not an integer", tv)
		}
		return int(tv), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
