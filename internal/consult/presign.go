package consult

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Presigner is the narrow slice of object storage the service needs: signed
// PUT URLs for uploads and signed GET URLs for reads.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (presignedURL, publicURL string, err error)
	PresignRead(ctx context.Context, key string) (string, error)
}

// S3Config configures the S3-compatible presigner (AWS or DO Spaces).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // host only, e.g. fra1.digitaloceanspaces.com
	Key       string
	Secret    string
	UploadTTL time.Duration
	ReadTTL   time.Duration
}

type S3Presigner struct {
	presign *s3.PresignClient
	cfg     S3Config
}

func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Key, cfg.Secret, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String("https://" + cfg.Endpoint)
		}
	})

	if cfg.UploadTTL <= 0 {
		cfg.UploadTTL = 5 * time.Minute
	}
	if cfg.ReadTTL <= 0 {
		cfg.ReadTTL = 10 * time.Minute
	}

	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
	}, nil
}

func (p *S3Presigner) PresignUpload(ctx context.Context, key, contentType string) (string, string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(p.cfg.UploadTTL))
	if err != nil {
		return "", "", fmt.Errorf("presign put %s: %w", key, err)
	}

	publicURL := fmt.Sprintf("https://%s.%s/%s", p.cfg.Bucket, p.cfg.Endpoint, key)
	return req.URL, publicURL, nil
}

// DisabledPresigner stands in when object storage is not configured; every
// signing attempt fails with a clear error instead of a nil panic.
type DisabledPresigner struct{}

var errUploadsDisabled = errors.New("object storage is not configured")

func (DisabledPresigner) PresignUpload(ctx context.Context, key, contentType string) (string, string, error) {
	return "", "", errUploadsDisabled
}

func (DisabledPresigner) PresignRead(ctx context.Context, key string) (string, error) {
	return "", errUploadsDisabled
}

func (p *S3Presigner) PresignRead(ctx context.Context, key string) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.cfg.ReadTTL))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}
