package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/microsolutions/showcase/internal/config"
)

// S3Store puts objects into an S3-compatible bucket.
type S3Store struct {
	client       *s3.Client
	bucket       string
	prefix       string
	endpoint     *url.URL
	region       string
	customDomain string
	pathStyle    bool
}

func NewS3Store(_ context.Context, opts config.S3Config, customDomain string) (*S3Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	region := strings.TrimSpace(opts.Region)
	if bucket == "" || region == "" {
		return nil, errors.New("incomplete s3 config: bucket and region are required")
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	pathStyle := opts.PathStyle
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		pathStyle = true
	} else {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}
	parsed, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid s3 endpoint: %s", endpoint)
	}

	awsCfg := aws.Config{Region: region}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(parsed.String())
		}
		o.UsePathStyle = pathStyle
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &S3Store{
		client:       client,
		bucket:       bucket,
		prefix:       strings.Trim(opts.Prefix, "/"),
		endpoint:     parsed,
		region:       region,
		customDomain: strings.TrimRight(strings.TrimSpace(customDomain), "/"),
		pathStyle:    pathStyle,
	}, nil
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) PublicURL(key string) string {
	objectKey := encodeObjectKey(s.objectKey(key))
	if s.customDomain != "" {
		return s.customDomain + "/" + objectKey
	}
	basePath := strings.TrimSuffix(s.endpoint.Path, "/")
	if s.pathStyle {
		return s.endpoint.Scheme + "://" + s.endpoint.Host + basePath + "/" + s.bucket + "/" + objectKey
	}
	return s.endpoint.Scheme + "://" + s.bucket + "." + s.endpoint.Host + basePath + "/" + objectKey
}

func encodeObjectKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
