// Package s3store is the object-storage backend: objects live in one bucket
// under "<prefix>/<id>", metadata comes from a HEAD request and downloads go
// through short-lived presigned GET URLs.
package s3store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/dmitrijs2005/filestream/internal/netx"
	"github.com/dmitrijs2005/filestream/internal/server/models"
	"github.com/dmitrijs2005/filestream/internal/server/services"
)

const (
	// FilenameMetaKey is the user metadata key (x-amz-meta-filename) holding
	// the display name.
	FilenameMetaKey = "filename"

	defaultMimeType      = "application/octet-stream"
	defaultPresignExpiry = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
	KeyPrefix    string

	// HTTPClient is used for both SDK calls and presigned downloads.
	HTTPClient *http.Client

	PresignExpiry time.Duration
}

type headObjectAPI interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type Store struct {
	head       headObjectAPI
	presign    *s3.PresignClient
	httpClient *http.Client
	bucket     string
	prefix     string
	expiry     time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3store: empty bucket")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(httpClient),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("s3store: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.RetryMaxAttempts = 1
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	return &Store{
		head:       client,
		presign:    s3.NewPresignClient(client),
		httpClient: httpClient,
		bucket:     cfg.Bucket,
		prefix:     cfg.KeyPrefix,
		expiry:     expiry,
	}, nil
}

// Key is the object key for objectID.
func (s *Store) Key(objectID int64) string {
	return path.Join(s.prefix, strconv.FormatInt(objectID, 10))
}

// Resolve reads the object's metadata with a HEAD request.
func (s *Store) Resolve(ctx context.Context, objectID int64) (*models.FileDescriptor, error) {
	key := s.Key(objectID)

	out, err := s.head.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err)
	}

	name := out.Metadata[FilenameMetaKey]
	if name == "" {
		name = path.Base(key)
	}

	mimeType := aws.ToString(out.ContentType)
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	return &models.FileDescriptor{
		Locator:  key,
		Name:     name,
		MimeType: mimeType,
		Size:     aws.ToInt64(out.ContentLength),
	}, nil
}

// classify maps an S3 client error. Client-side statuses are treated as an
// answer about the object; server errors and transport failures are not.
func classify(err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		code := respErr.HTTPStatusCode()
		if code >= 400 && code < 500 {
			return &services.ResolveError{Code: code, Description: http.StatusText(code)}
		}
	}
	return fmt.Errorf("%w: %w", common.ErrBackendFailure, err)
}

// ResolveLocator returns a presigned GET URL for key.
func (s *Store) ResolveLocator(ctx context.Context, key string) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("s3store: presign get: %w", err)
	}
	return req.URL, nil
}

// FetchBytes downloads a presigned URL.
func (s *Store) FetchBytes(ctx context.Context, handle string, limit int64) ([]byte, error) {
	return netx.Get(ctx, s.httpClient, handle, limit)
}
