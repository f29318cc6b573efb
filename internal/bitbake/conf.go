// SPDX-License-Identifier: MPL-2.0

package bitbake

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kasbuild/kas/internal/app/execute"
)

// ConfDir is the configuration directory below the build directory.
const ConfDir = "conf"

// BBLayersConf renders bblayers.conf. Layers are sorted and deduplicated.
func BBLayersConf(header string, layers []string) string {
	sorted := slices.Clone(layers)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("BBLAYERS ?= \" \\\n    ")
	b.WriteString(strings.Join(sorted, " \\\n    "))
	b.WriteString("\"\n")
	return b.String()
}

// LocalConf renders local.conf.
func LocalConf(header, machine, distro, multiconfig string) string {
	return fmt.Sprintf("%sMACHINE ?= \"%s\"\nDISTRO ?= \"%s\"\nBBMULTICONFIG ?= \"%s\"\n",
		header, machine, distro, multiconfig)
}

// WriteConfig writes both files to <build dir>/conf, creating the directory
// when needed.
func WriteConfig(kc *execute.Context) error {
	rs, err := kc.Repos()
	if err != nil {
		return err
	}
	var layers []string
	for _, r := range rs {
		layers = append(layers, r.Layers()...)
	}

	bblayersHeader, err := kc.BBLayersConfHeader()
	if err != nil {
		return err
	}
	localHeader, err := kc.LocalConfHeader()
	if err != nil {
		return err
	}
	multiconfig, err := kc.Multiconfig()
	if err != nil {
		return err
	}

	confDir := filepath.Join(kc.BuildDir(), ConfDir)
	if err := os.MkdirAll(confDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", confDir, err)
	}
	files := []struct {
		name    string
		content string
	}{
		{name: "bblayers.conf", content: BBLayersConf(bblayersHeader, layers)},
		{name: "local.conf", content: LocalConf(localHeader, kc.Machine(), kc.Distro(), multiconfig)},
	}
	for _, f := range files {
		path := filepath.Join(confDir, f.name)
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}
