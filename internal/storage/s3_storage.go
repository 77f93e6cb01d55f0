package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"reelworks/studio/internal/config"
)

// IDeliverableStorage resolves project deliverable references. Editors
// and designers attach S3 object keys to projects; clients read them
// back as short-lived presigned URLs.
type IDeliverableStorage interface {
	PresignDownload(ctx context.Context, objectKey string) (string, error)
	PresignUpload(ctx context.Context, projectID, filename, contentType string) (url string, objectKey string, err error)
}

// s3Storage implements IDeliverableStorage against one bucket.
type s3Storage struct {
	cfg           *config.Config
	s3Client      *s3.Client
	presignClient *s3.PresignClient
}

// NewS3Storage creates a new S3-backed deliverable storage service.
func NewS3Storage(cfg *config.Config) (IDeliverableStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &s3Storage{
		cfg:           cfg,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
	}, nil
}

// PresignDownload returns a short-lived GET URL for a stored
// deliverable. Keys that are already absolute URLs (external links
// recorded before the S3 migration) are returned unchanged.
func (s *s3Storage) PresignDownload(ctx context.Context, objectKey string) (string, error) {
	if strings.HasPrefix(objectKey, "http://") || strings.HasPrefix(objectKey, "https://") {
		return objectKey, nil
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.cfg.DeliverableLinkTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET for key %s: %w", objectKey, err)
	}
	return req.URL, nil
}

// PresignUpload creates a pre-signed PUT URL for attaching a new
// deliverable to a project. Returns the URL and the generated object key.
func (s *s3Storage) PresignUpload(ctx context.Context, projectID, filename, contentType string) (string, string, error) {
	objectKey := fmt.Sprintf("deliverables/%s/%s_%s", projectID, uuid.NewString(), filename)

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.AwsS3Bucket),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", "", fmt.Errorf("failed to presign PUT for key %s: %w", objectKey, err)
	}
	return req.URL, objectKey, nil
}
