package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/kebapps/pagesmith/internal/core"
)

const uploadConcurrency = 8

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Publisher uploads build outputs to an object-store bucket under
// <prefix>/<projectID>/.
type S3Publisher struct {
	uploader uploader
	bucket   string
	prefix   string
}

// NewS3Publisher builds a publisher against the given bucket using the
// default AWS credential chain.
func NewS3Publisher(ctx context.Context, bucket string, prefix string, region string) (*S3Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Publisher{
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

// Publish walks outputDir and uploads every regular file, content type derived
// from the extension. Uploads run concurrently; a single failure fails the
// whole publish.
func (p *S3Publisher) Publish(ctx context.Context, outputDir string, projectID string) ([]Location, error) {
	var files []string
	err := filepath.WalkDir(outputDir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, core.WrapError(core.ErrCodePublishFailed, err, "walk output dir")
	}

	var (
		mu        sync.Mutex
		locations []Location
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for _, filePath := range files {
		filePath := filePath
		g.Go(func() error {
			rel, err := filepath.Rel(outputDir, filePath)
			if err != nil {
				return err
			}

			key := path.Join(p.prefix, projectID, filepath.ToSlash(rel))

			f, err := os.Open(filePath)
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(p.bucket),
				Key:         aws.String(key),
				Body:        f,
				ContentType: aws.String(core.ContentTypeFor(filePath)),
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", key, err)
			}

			mu.Lock()
			locations = append(locations, Location{
				Key: key,
				URL: fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.bucket, key),
			})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, core.WrapError(core.ErrCodePublishFailed, err, "publish %s to s3", projectID)
	}

	sort.Slice(locations, func(i, j int) bool { return locations[i].Key < locations[j].Key })
	return locations, nil
}
