package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
)

// AttachmentStore keeps the identification images attached to quotations.
// Save returns the path stored on the quotation; Open and Remove accept it.
type AttachmentStore interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// NewAttachmentStore picks the backend named in cfg.
func NewAttachmentStore(cfg config.StorageConfig) (AttachmentStore, error) {
	switch cfg.Backend {
	case config.StorageS3:
		return NewS3Attachments(cfg)
	default:
		return NewLocalAttachments(cfg.UploadDir), nil
	}
}

func attachmentName(key string) string {
	return filepath.Base(filepath.Clean("/"+key)) + ".jpg"
}

// LocalAttachments writes images to a directory on disk.
type LocalAttachments struct {
	dir string
}

func NewLocalAttachments(dir string) *LocalAttachments {
	return &LocalAttachments{dir: dir}
}

func (l *LocalAttachments) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}

	path := filepath.Join(l.dir, attachmentName(key))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create attachment")
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", errors.Wrap(err, "write attachment")
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "close attachment")
	}
	return path, nil
}

func (l *LocalAttachments) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open attachment")
	}
	return f, nil
}

func (l *LocalAttachments) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove attachment")
	}
	return nil
}

// S3Attachments stores images in an S3 compatible bucket under ine/.
type S3Attachments struct {
	client s3iface.S3API
	bucket string
}

func NewS3Attachments(cfg config.StorageConfig) (*S3Attachments, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create aws session")
	}
	return NewS3AttachmentsWithClient(s3.New(sess), cfg.Bucket), nil
}

func NewS3AttachmentsWithClient(client s3iface.S3API, bucket string) *S3Attachments {
	return &S3Attachments{client: client, bucket: bucket}
}

func (s *S3Attachments) Save(ctx context.Context, key string, r io.Reader) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "read attachment")
	}

	objectKey := "ine/" + attachmentName(key)
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("image/jpeg"),
	})
	if err != nil {
		return "", errors.Wrap(err, "unable to upload file to S3")
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey), nil
}

func (s *S3Attachments) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrap(err, "get attachment")
	}
	return out.Body, nil
}

func (s *S3Attachments) Remove(ctx context.Context, path string) error {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return errors.Wrap(err, "delete attachment")
}

func splitS3Path(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, "s3://")
	if !ok {
		return "", "", errors.Errorf("not an s3 path: %q", path)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.Errorf("not an s3 path: %q", path)
	}
	return bucket, key, nil
}
