package photostore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	metaFileName    = "file-name"
	metaContentType = "content-type"
	metaUploadedBy  = "uploaded-by"
)

// S3Store keeps photos in an S3 bucket, one object per photo, metadata in
// object user metadata.
type S3Store struct {
	client *s3.Client
	bucket string
}

func NewS3Store(ctx context.Context, bucket string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (s *S3Store) Save(ctx context.Context, meta Meta, content io.Reader) (*Meta, error) {
	if !AllowedContentTypes[meta.ContentType] {
		return nil, ErrBadContentType
	}
	data, err := io.ReadAll(io.LimitReader(content, MaxPhotoSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxPhotoSize {
		return nil, ErrTooLarge
	}

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.CreatedAt = time.Now().UTC()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(meta.ID),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(meta.ContentType),
		Metadata: map[string]string{
			metaFileName:   meta.FileName,
			metaUploadedBy: meta.UploadedBy,
		},
	})
	if err != nil {
		return nil, err
	}
	out := meta
	return &out, nil
}

func (s *S3Store) Open(ctx context.Context, id string) (io.ReadCloser, *Meta, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	meta := &Meta{
		ID:          id,
		FileName:    out.Metadata[metaFileName],
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		UploadedBy:  out.Metadata[metaUploadedBy],
		CreatedAt:   aws.ToTime(out.LastModified),
	}
	return out.Body, meta, nil
}

func (s *S3Store) Stat(ctx context.Context, id string) (*Meta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Meta{
		ID:          id,
		FileName:    out.Metadata[metaFileName],
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		UploadedBy:  out.Metadata[metaUploadedBy],
		CreatedAt:   aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	return err
}

func (s *S3Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			ids = append(ids, aws.ToString(obj.Key))
		}
	}
	return ids, nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
