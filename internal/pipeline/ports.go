package pipeline

import (
	"context"

	"github.com/kebapps/pagesmith/internal/core"
	"github.com/kebapps/pagesmith/internal/publish"
)

// Bundler compiles an entry module into browser assets under outDir.
type Bundler interface {
	Build(ctx context.Context, entryPath string, outDir string) (core.Manifest, error)
}

// Publisher ships a finished output directory; see publish.Publisher.
type Publisher = publish.Publisher
