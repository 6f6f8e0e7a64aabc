package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const defaultAWSRegion = "us-east-1"

// PutObjectAPI is the slice of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options selects the bucket endpoint and credentials. The zero value
// uses AWS S3 in us-east-1 with the default credential chain.
type S3Options struct {
	Region string
	// Endpoint points the client at an S3-compatible service (MinIO,
	// R2). Such services are addressed path-style.
	Endpoint string
	// AccessKeyID and SecretAccessKey, when both set, replace the default
	// credential chain.
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client for opts.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	region := opts.Region
	if region == "" {
		region = defaultAWSRegion
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("deploy: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Uploader copies an export directory into a bucket.
type S3Uploader struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
	// CacheControl maps a site path ("/blog/x/index.html") to a
	// Cache-Control header. Nil sends none.
	CacheControl func(sitePath string) string
	Logger       *slog.Logger
}

// UploadResult counts uploaded objects and bytes.
type UploadResult struct {
	Objects int
	Bytes   int64
}

// Upload walks dir and puts every regular file. It stops at the first
// failure; there are no retries.
func (u *S3Uploader) Upload(ctx context.Context, dir string) (UploadResult, error) {
	var res UploadResult
	if u.Bucket == "" {
		return res, fmt.Errorf("deploy: bucket is required")
	}
	logger := u.Logger
	if logger == nil {
		logger = slog.Default()
	}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		sitePath := "/" + filepath.ToSlash(rel)
		key := u.Key(sitePath)

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}

		in := &s3.PutObjectInput{
			Bucket:        aws.String(u.Bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(info.Size()),
			ContentType:   aws.String(ContentType(p)),
		}
		if u.CacheControl != nil {
			if cc := u.CacheControl(sitePath); cc != "" {
				in.CacheControl = aws.String(cc)
			}
		}
		if _, err := u.Client.PutObject(ctx, in); err != nil {
			return fmt.Errorf("deploy: put %s: %w", key, err)
		}
		logger.Debug("uploaded", "key", key, "bytes", info.Size())
		res.Objects++
		res.Bytes += info.Size()
		return nil
	})
	return res, err
}

// Key maps a site path to an object key under Prefix.
func (u *S3Uploader) Key(sitePath string) string {
	key := strings.TrimPrefix(sitePath, "/")
	if p := strings.Trim(u.Prefix, "/"); p != "" {
		key = path.Join(p, key)
	}
	return key
}

// ContentType guesses a MIME type from the file extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".xml":
		return "application/xml; charset=utf-8"
	case ".txt":
		return "text/plain; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
