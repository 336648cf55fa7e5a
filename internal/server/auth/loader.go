package auth

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the part of the S3 client used to fetch key material.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// KeyLoader reads key material from a filesystem path or an s3://bucket/key URL.
type KeyLoader struct {
	s3 ObjectGetter
}

// NewKeyLoader returns a loader. s3 may be nil when no S3 locations are used.
func NewKeyLoader(s3 ObjectGetter) *KeyLoader {
	return &KeyLoader{s3: s3}
}

// S3Options configures the object storage client for key material.
type S3Options struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Client builds an S3 client. Static credentials are used when given,
// otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	}), nil
}

// Load returns the bytes stored at location. An empty location yields nil.
func (l *KeyLoader) Load(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, nil
	}

	bucket, key, ok, err := parseS3Location(location)
	if err != nil {
		return nil, err
	}
	if !ok {
		b, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		return b, nil
	}

	if l.s3 == nil {
		return nil, fmt.Errorf("s3 location %q configured without an s3 client", location)
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("get s3 object: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 object: %w", err)
	}
	return b, nil
}

// IsS3Location reports whether location names an S3 object.
func IsS3Location(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

func parseS3Location(location string) (bucket, key string, ok bool, err error) {
	if !IsS3Location(location) {
		return "", "", false, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", "", true, fmt.Errorf("parse s3 location: %w", err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", true, fmt.Errorf("s3 location %q must be s3://bucket/key", location)
	}
	return u.Host, key, true, nil
}
