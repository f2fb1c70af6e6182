// Package storage signs direct uploads to the avatar bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gdugdh24/speeddate-backend/internal/config"
)

const presignTTL = 5 * time.Minute

type S3Signer struct {
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
}

// NewS3Signer loads AWS credentials from the default chain.
func NewS3Signer(ctx context.Context, cfg *config.StorageConfig) (*S3Signer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Signer{
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: base,
	}, nil
}

func (s *S3Signer) PresignUpload(ctx context.Context, key, contentType string) (string, string, time.Time, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("presign put object: %w", err)
	}
	return req.URL, s.PublicURL(key), time.Now().Add(presignTTL), nil
}

// PublicURL is where the object is served from once uploaded.
func (s *S3Signer) PublicURL(key string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(key, "/")
}
