package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/cuttlefish/cuttlefish/config"
	"github.com/cuttlefish/cuttlefish/interfaces"
	"github.com/cuttlefish/cuttlefish/internal/tracing"
	"github.com/cuttlefish/cuttlefish/services/storage/aws_client"
)

// s3StorageService archives the raw rewritten message of every delivery
// so operators can inspect exactly what went out on the wire.
type s3StorageService struct {
	client aws_client.S3Client
	bucket string
}

func NewS3StorageService(cfg *config.StorageConfig) interfaces.StorageService {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	return &s3StorageService{
		client: aws_client.NewS3Client(awsConfig),
		bucket: cfg.MessageBucket,
	}
}

func (s *s3StorageService) ArchiveMessage(ctx context.Context, deliveryID uint64, raw []byte) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StorageService.ArchiveMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagDelivery(span, deliveryID)

	key := fmt.Sprintf("deliveries/%d.eml", deliveryID)

	err := s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "archiving message"))
		return "", err
	}

	return key, nil
}

func (s *s3StorageService) FetchMessage(ctx context.Context, storageKey string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StorageService.FetchMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	raw, err := s.client.Download(ctx, s.bucket, storageKey)
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "fetching message"))
		return nil, err
	}
	return raw, nil
}

func (s *s3StorageService) DeleteMessage(ctx context.Context, storageKey string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "StorageService.DeleteMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	err := s.client.Delete(ctx, s.bucket, storageKey)
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "deleting message"))
		return err
	}
	return nil
}
