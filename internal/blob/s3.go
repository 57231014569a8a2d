package blob

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignTTL is how long a presigned download URL stays valid.
const PresignTTL = 15 * time.Minute

// S3Options configures the S3 backend.
type S3Options struct {
	Region        string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest is the part of a presigned request the store needs.
type PresignedRequest struct {
	URL string
}

type presigner struct {
	pc *s3.PresignClient
}

func (p presigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.pc.PresignGetObject(ctx, in, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL}, nil
}

// S3 stores blobs as objects in one bucket.
type S3 struct {
	client  s3API
	presign presignAPI
	opts    S3Options
}

// NewS3 builds a client with static credentials. A custom endpoint selects
// path-style addressing so MinIO and similar servers work.
func NewS3(ctx context.Context, opts S3Options) (*S3, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3{client: client, presign: presigner{pc: s3.NewPresignClient(client)}, opts: opts}, nil
}

// Upload puts data under the object key path.
func (s *S3) Upload(ctx context.Context, p string, data []byte) (Ref, error) {
	clean, err := cleanPath(p)
	if err != nil {
		return Ref{}, err
	}
	contentType, err := DetectImage(data)
	if err != nil {
		return Ref{}, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(clean),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return Ref{}, fmt.Errorf("put object %s: %w", clean, err)
	}
	return Ref{Path: clean, ContentType: contentType, Size: len(data)}, nil
}

// DownloadURL joins the key onto the public base URL when one is set and
// presigns a GET otherwise.
func (s *S3) DownloadURL(ctx context.Context, ref Ref) (string, error) {
	clean, err := cleanPath(ref.Path)
	if err != nil {
		return "", err
	}
	if s.opts.PublicBaseURL != "" {
		return url.JoinPath(strings.TrimSuffix(s.opts.PublicBaseURL, "/"), clean)
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(clean),
	}, s3.WithPresignExpires(PresignTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", clean, err)
	}
	return req.URL, nil
}
