// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DecodeMap compiles data, validates it and decodes the result into a map.
// The document root must be a struct.
func DecodeMap(data []byte, opts ...Option) (map[string]any, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if err := CheckFileSize(data, options.maxFileSize, options.filename); err != nil {
		return nil, err
	}

	ctx := cuecontext.New()

	value := ctx.CompileBytes(data, cue.Filename(options.filename))
	if value.Err() != nil {
		return nil, FormatError(value.Err(), options.filename)
	}

	if options.schema != "" {
		schemaValue := ctx.CompileString(options.schema)
		if schemaValue.Err() != nil {
			return nil, fmt.Errorf("internal error: failed to compile schema: %w", schemaValue.Err())
		}
		root := schemaValue.LookupPath(cue.ParsePath(options.definition))
		if root.Err() != nil {
			return nil, fmt.Errorf("internal error: schema definition %s not found: %w", options.definition, root.Err())
		}
		value = root.Unify(value)
	}

	if err := value.Validate(cue.Concrete(options.concrete)); err != nil {
		return nil, FormatError(err, options.filename)
	}

	var doc map[string]any
	if err := value.Decode(&doc); err != nil {
		return nil, FormatError(err, options.filename)
	}
	return doc, nil
}
