package publish

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/kebapps/pagesmith/internal/core"
)

// LocalPublisher mirrors build outputs under a static-serving root. The
// preview endpoint reads from this root, so the published tree is the source
// of truth for what a project's site looks like.
type LocalPublisher struct {
	Root string
}

func NewLocalPublisher(root string) *LocalPublisher {
	return &LocalPublisher{Root: root}
}

// Publish replaces any previously published tree for projectID with the
// contents of outputDir. Last write wins; there is no versioning. When the
// published root already contains outputDir (publish dir configured to the
// build dir) the tree is in place and only locations are reported.
func (p *LocalPublisher) Publish(ctx context.Context, outputDir string, projectID string) ([]Location, error) {
	target := filepath.Join(p.Root, projectID)

	inPlace := samePath(target, outputDir)
	if !inPlace {
		if err := os.RemoveAll(target); err != nil {
			return nil, core.WrapError(core.ErrCodePublishFailed, err, "clear published dir")
		}
	}

	var locations []Location

	err := filepath.WalkDir(outputDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(outputDir, filePath)
		if err != nil {
			return err
		}

		dst := filepath.Join(target, rel)
		if d.IsDir() {
			if inPlace {
				return nil
			}
			return os.MkdirAll(dst, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if !inPlace {
			if err := copyFile(filePath, dst); err != nil {
				return err
			}
		}

		key := path.Join(projectID, filepath.ToSlash(rel))
		locations = append(locations, Location{
			Key: key,
			URL: "/api/preview/" + key,
		})
		return nil
	})
	if err != nil {
		return nil, core.WrapError(core.ErrCodePublishFailed, err, "publish %s locally", projectID)
	}

	return locations, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}

	return dstFile.Close()
}
