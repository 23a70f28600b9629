package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"strings"

	"finmodeling/pkg/core/calc"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rotisserie/eris"
)

// ObjectAPI is the part of *s3.Client the cache uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config locates the bucket holding classification entries.
type S3Config struct {
	Bucket  string
	Prefix  string
	Region  string
	Profile string
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "unable to load AWS config for S3 client")
	}
	return s3.NewFromConfig(awsCfg), nil
}

// S3Cache stores one JSON object per classification entry. PutObject
// replaces the object whole.
type S3Cache struct {
	api    ObjectAPI
	bucket string
	prefix string
}

func NewS3Cache(api ObjectAPI, cfg S3Config) *S3Cache {
	return &S3Cache{api: api, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}
}

func (c *S3Cache) objectKey(key string) string {
	name := strings.ReplaceAll(key, ":", "/") + ".json"
	if c.prefix == "" {
		return name
	}
	return path.Join(c.prefix, name)
}

func (c *S3Cache) Load(ctx context.Context, key string) ([]calc.RowType, bool, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, false, nil
		}
		return nil, false, eris.Wrapf(err, "failed to get s3://%s/%s", c.bucket, c.objectKey(key))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, eris.Wrap(err, "failed to read s3 object")
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, eris.Wrap(err, "corrupt s3 cache entry")
	}
	return entry.Categories, true, nil
}

func (c *S3Cache) Save(ctx context.Context, key string, categories []calc.RowType) error {
	data, err := json.Marshal(NewEntry(key, categories))
	if err != nil {
		return eris.Wrap(err, "failed to marshal entry")
	}

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return eris.Wrapf(err, "failed to put s3://%s/%s", c.bucket, c.objectKey(key))
	}
	return nil
}
