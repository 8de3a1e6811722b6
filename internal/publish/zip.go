package publish

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"github.com/kebapps/pagesmith/internal/core"
)

// WriteZip mirrors outputDir's file tree into a ZIP archive on w, preserving
// relative paths.
func WriteZip(w io.Writer, outputDir string) error {
	if _, err := os.Stat(outputDir); err != nil {
		return core.WrapError(core.ErrCodePublishFailed, err, "zip source dir")
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})

	err := filepath.WalkDir(outputDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(outputDir, filePath)
		if err != nil {
			return err
		}

		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(filePath)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		zw.Close()
		return core.WrapError(core.ErrCodePublishFailed, err, "package zip")
	}

	if err := zw.Close(); err != nil {
		return core.WrapError(core.ErrCodePublishFailed, err, "finalize zip")
	}
	return nil
}

// PackageZip returns the archive as a single byte buffer.
func PackageZip(outputDir string) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, outputDir); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
