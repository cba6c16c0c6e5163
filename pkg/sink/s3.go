package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
)

// S3Sink streams the archive straight into an S3-compatible bucket
// through an io.Pipe, so the ZIP writer's sequential Write calls never
// need to buffer the whole archive in memory.
type S3Sink struct {
	client *minio.Client
	bucket string
	key    string

	pr       *io.PipeReader
	pw       *io.PipeWriter
	uploaded chan error
}

// NewS3 starts the background PutObject call and returns a Sink whose
// Write calls feed it. size is an expected upload size hint; pass -1 if
// unknown (minio-go then buffers internally to discover it).
func NewS3(ctx context.Context, client *minio.Client, bucket, key string, size int64) *S3Sink {
	pr, pw := io.Pipe()

	s := &S3Sink{
		client:   client,
		bucket:   bucket,
		key:      key,
		pr:       pr,
		pw:       pw,
		uploaded: make(chan error, 1),
	}

	go func() {
		_, err := client.PutObject(ctx, bucket, key, pr, size, minio.PutObjectOptions{
			ContentType: "application/zip",
		})
		if err != nil {
			pr.CloseWithError(err)
		}

		s.uploaded <- err
		// Closing lets a later receive (Abort after Close) return at once.
		close(s.uploaded)
	}()

	return s
}

func (s *S3Sink) Write(p []byte) (int, error) {
	n, err := s.pw.Write(p)
	if err != nil {
		return n, fmt.Errorf("streaming to s3://%s/%s: %w", s.bucket, s.key, err)
	}

	return n, nil
}

// Close finishes the pipe and waits for the upload to complete.
func (s *S3Sink) Close() error {
	if err := s.pw.Close(); err != nil {
		return fmt.Errorf("closing pipe for s3://%s/%s: %w", s.bucket, s.key, err)
	}

	if err := <-s.uploaded; err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", s.bucket, s.key, err)
	}

	return nil
}

// Abort aborts the in-flight upload and best-effort removes the object.
func (s *S3Sink) Abort() error {
	s.pw.CloseWithError(fmt.Errorf("upload aborted"))

	<-s.uploaded

	if err := s.client.RemoveObject(context.Background(), s.bucket, s.key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing partial upload s3://%s/%s: %w", s.bucket, s.key, err)
	}

	return nil
}
