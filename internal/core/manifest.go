package core

import (
	"encoding/json"
	"path/filepath"
	"sort"
)

// Manifest maps one build's entry module to the files the bundler emitted.
// It is read once right after the build and never persisted.
type Manifest struct {
	Bundle string   // entry bundle file name, relative to the output dir
	CSS    string   // extracted stylesheet, empty when the entry pulls no CSS
	Assets []string // any other emitted files (source maps, copied assets)
}

// ParseMetafile extracts the Manifest from an esbuild metafile.
func ParseMetafile(metafile string) (Manifest, error) {
	var meta struct {
		Outputs map[string]struct {
			EntryPoint string `json:"entryPoint"`
			CSSBundle  string `json:"cssBundle"`
		} `json:"outputs"`
	}

	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return Manifest{}, WrapError(ErrCodeManifestMissing, err, "parse bundler metafile")
	}

	var m Manifest
	for outPath, out := range meta.Outputs {
		if out.EntryPoint == "" {
			continue
		}
		m.Bundle = filepath.Base(outPath)
		if out.CSSBundle != "" {
			m.CSS = filepath.Base(out.CSSBundle)
		}
	}

	if m.Bundle == "" {
		return Manifest{}, NewError(ErrCodeManifestMissing, "bundle file not found in metafile")
	}

	for outPath := range meta.Outputs {
		name := filepath.Base(outPath)
		if name == m.Bundle || name == m.CSS {
			continue
		}
		m.Assets = append(m.Assets, name)
	}
	sort.Strings(m.Assets)

	return m, nil
}
