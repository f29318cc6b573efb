// SPDX-License-Identifier: MPL-2.0

package execute

import "strings"

// parseOSRelease reads the KEY=value lines of an os-release(5) file.
// Comments and malformed lines are skipped. Values may be double-quoted
// (with \" \\ \$ and \` escapes) or single-quoted (literal).
func parseOSRelease(content []byte) map[string]string {
	fields := map[string]string{}
	for line := range strings.SplitSeq(string(content), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) == "" {
			continue
		}
		fields[strings.TrimSpace(key)] = unquoteOSReleaseValue(strings.TrimSpace(value))
	}
	return fields
}

func unquoteOSReleaseValue(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value[1 : len(value)-1]
	}
	if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
		return value
	}

	inner := value[1 : len(value)-1]
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			switch next := inner[i+1]; next {
			case '"', '\\', '$', '`':
				b.WriteByte(next)
				i++
				continue
			}
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
