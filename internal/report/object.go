package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/domain"
)

// ObjectPutter is the subset of the MinIO client used for uploads
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ObjectReporter uploads the result files under runs/<run id>/
type ObjectReporter struct {
	client ObjectPutter
	bucket string
	logger *zap.Logger
}

// NewObjectReporter creates a reporter uploading into bucket
func NewObjectReporter(client ObjectPutter, bucket string, logger *zap.Logger) *ObjectReporter {
	return &ObjectReporter{client: client, bucket: bucket, logger: logger}
}

// NewMinIOClient creates a MinIO client from configuration
func NewMinIOClient(cfg config.MinIOConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// ObjectKey returns the storage key of a result file
func ObjectKey(run *domain.Run, name string) string {
	return path.Join("runs", run.ID.String(), name)
}

// Report renders the run and uploads every file
func (r *ObjectReporter) Report(ctx context.Context, run *domain.Run, results []domain.TrialResult, summary domain.Summary) error {
	docs, err := Render(run, results, summary)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	for _, doc := range docs {
		key := ObjectKey(run, doc.Name)
		_, err := r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(doc.Data), int64(len(doc.Data)), minio.PutObjectOptions{
			ContentType: doc.ContentType,
		})
		if err != nil {
			return fmt.Errorf("failed to upload to MinIO: %w", err)
		}
		r.logger.Info("report uploaded", zap.String("bucket", r.bucket), zap.String("key", key))
	}
	return nil
}
