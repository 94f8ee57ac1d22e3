// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

// ReportArchive stores audit reports as JSON objects.
type ReportArchive interface {
	Put(ctx context.Context, kind string, at time.Time, report interface{}) (string, error)
}

// ReportKey builds the object key for a report, e.g.
// "verificacao-de-integridade-do-fundo/2026/10/19/150405.json".
func ReportKey(kind string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%s/%s.json", slug.Make(kind), at.Format("2006/01/02/150405"))
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archive writes reports to a Cloudflare R2 bucket through the S3 API.
type R2Archive struct {
	client objectPutter
	bucket string
}

// NewR2Archive builds an S3 client pointed at the account's R2 endpoint.
func NewR2Archive(ctx context.Context, accountID, accessKeyID, accessKeySecret, bucket string) (*R2Archive, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})
	return &R2Archive{client: client, bucket: bucket}, nil
}

// Put marshals report and uploads it under ReportKey(kind, at).
func (a *R2Archive) Put(ctx context.Context, kind string, at time.Time, report interface{}) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportKey(kind, at)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return key, nil
}

// NoopArchive drops reports; used when R2 is not configured.
type NoopArchive struct{}

func (NoopArchive) Put(ctx context.Context, kind string, at time.Time, report interface{}) (string, error) {
	return "", nil
}
