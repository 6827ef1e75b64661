// Package storage delegates listing media to S3-compatible object storage.
// The API hands clients a presigned PUT URL; the bytes never pass through
// this service.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	Endpoint      string // empty = AWS default resolution
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string // base under which uploaded objects are served
}

type MediaStore struct {
	cfg     Config
	presign *s3.PresignClient
}

func NewMediaStore(ctx context.Context, cfg Config) (*MediaStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // MinIO and friends
		}
	})

	return &MediaStore{cfg: cfg, presign: s3.NewPresignClient(client)}, nil
}

// randomKey namespaces uploads by date so buckets stay browsable.
func randomKey() string {
	d := time.Now().UTC()
	return fmt.Sprintf("listings/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
}

// PresignUpload returns the object key, a short-lived PUT URL the client
// uploads to, and the public URL to store on the listing.
func (m *MediaStore) PresignUpload(ctx context.Context, contentType string) (key, uploadURL, publicURL string, err error) {
	key = randomKey()

	req, err := m.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      &m.cfg.Bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(15*time.Minute))

	if err != nil {
		return "", "", "", fmt.Errorf("presign put: %w", err)
	}

	return key, req.URL, m.PublicURL(key), nil
}

func (m *MediaStore) PublicURL(key string) string {
	base := m.cfg.PublicBaseURL

	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", m.cfg.Bucket, m.cfg.Region)
	}

	return strings.TrimRight(base, "/") + "/" + key
}
