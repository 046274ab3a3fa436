package s3

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// API is the subset of the S3 client the publisher needs.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Settings mirrors the publish.s3 config section.
type Settings struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string // optional, e.g. MinIO
	UsePathStyle bool
}

// Store publishes finished report artifacts to a single bucket.
type Store struct {
	client API
	bucket string
	prefix string
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, cfg Settings) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewWithClient(client API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key joins the configured prefix and name into an object key.
func (s *Store) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

// Put uploads the file at localPath under Key(name) and returns its s3:// URI.
func (s *Store) Put(ctx context.Context, name, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	key := s.Key(name)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
	}
	if ct := contentType(localPath); ct != "" {
		input.ContentType = aws.String(ct)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	uri := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	zerolog.Ctx(ctx).Info().Str("uri", uri).Int64("bytes", info.Size()).Msg("published report")
	return uri, nil
}

func contentType(p string) string {
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".tex":
		return "application/x-tex"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return mime.TypeByExtension(ext)
	}
}
