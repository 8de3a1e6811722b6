// Package bundler compiles a synthesized entry module into browser-deliverable
// assets using the embedded esbuild API.
package bundler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"github.com/kebapps/pagesmith/internal/core"
)

type Engine struct {
	log       *zap.Logger
	nodePaths []string
}

// NewEngine returns a build engine. nodeModulesDir points at the node_modules
// tree that holds react and react-dom; empty means esbuild's default
// resolution from the entry file upwards.
func NewEngine(log *zap.Logger, nodeModulesDir string) *Engine {
	e := &Engine{log: log}
	if nodeModulesDir != "" {
		if abs, err := filepath.Abs(nodeModulesDir); err == nil {
			e.nodePaths = []string{abs}
		}
	}
	return e
}

// Build bundles entryPath into outDir, creating outDir if absent, and returns
// the manifest of emitted files. The invocation is bounded by ctx: when the
// deadline passes the caller gets a BUILD_FAILED error even though esbuild
// itself cannot be interrupted mid-compile.
func (e *Engine) Build(ctx context.Context, entryPath string, outDir string) (core.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return core.Manifest{}, core.WrapError(core.ErrCodeBuildFailed, err, "bundler invocation timed out")
	}

	if _, err := os.Stat(entryPath); err != nil {
		return core.Manifest{}, core.WrapError(core.ErrCodeBuildFailed, err, "entry file missing")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return core.Manifest{}, core.WrapError(core.ErrCodeBuildFailed, err, "create output dir")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return core.Manifest{}, core.WrapError(core.ErrCodeBuildFailed, err, "resolve output dir")
	}

	e.log.Debug("starting bundle",
		zap.String("entry", entryPath),
		zap.String("outdir", absOut))

	done := make(chan api.BuildResult, 1)
	go func() {
		done <- api.Build(api.BuildOptions{
			EntryPoints:       []string{entryPath},
			Outdir:            absOut,
			EntryNames:        "bundle",
			Bundle:            true,
			Write:             true,
			Metafile:          true,
			Platform:          api.PlatformBrowser,
			Format:            api.FormatESModule,
			Target:            api.ES2017,
			JSX:               api.JSXAutomatic,
			JSXImportSource:   "react",
			MainFields:        []string{"browser", "module", "main"},
			MinifyWhitespace:  true,
			MinifySyntax:      true,
			MinifyIdentifiers: true,
			NodePaths:         e.nodePaths,
			Loader: map[string]api.Loader{
				".png":   api.LoaderFile,
				".jpg":   api.LoaderFile,
				".svg":   api.LoaderFile,
				".woff2": api.LoaderFile,
			},
		})
	}()

	var result api.BuildResult
	select {
	case <-ctx.Done():
		return core.Manifest{}, core.WrapError(core.ErrCodeBuildFailed, ctx.Err(), "bundler invocation timed out")
	case result = <-done:
	}

	if len(result.Errors) > 0 {
		first := result.Errors[0]
		e.log.Warn("bundle failed",
			zap.String("entry", entryPath),
			zap.String("error", first.Text))
		return core.Manifest{}, core.NewError(core.ErrCodeBuildFailed, "bundle %s: %s", filepath.Base(entryPath), first.Text)
	}

	for _, warning := range result.Warnings {
		e.log.Debug("bundler warning", zap.String("text", warning.Text))
	}

	manifest, err := core.ParseMetafile(result.Metafile)
	if err != nil {
		return core.Manifest{}, err
	}

	e.log.Debug("bundle complete",
		zap.String("bundle", manifest.Bundle),
		zap.String("css", manifest.CSS))

	return manifest, nil
}
