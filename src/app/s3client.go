package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	cfg "csvgate/src/configuration"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type ClientMinio interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioS3Client stores gateway files in one bucket, keyed "<owner>/<file name>".
type MinioS3Client struct {
	bucketName string
	client     ClientMinio
}

const (
	defaultContentType = "text/csv"
	noSuchKey          = "NoSuchKey"
)

// NewMinioS3Client creates a new MinioS3Client instance.
func NewMinioS3Client(config cfg.S3Properties) (*MinioS3Client, error) {
	minioClient, err := minio.New(config.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio s3 client for %s: %w", config.Host, err)
	}
	return NewMinioS3ClientWithAPI(minioClient, config.Bucket), nil
}

func NewMinioS3ClientWithAPI(client ClientMinio, bucketName string) *MinioS3Client {
	return &MinioS3Client{bucketName: bucketName, client: client}
}

// EnsureBucket creates the bucket when it is missing.
func (s3 *MinioS3Client) EnsureBucket(ctx context.Context) error {
	exists, err := s3.client.BucketExists(ctx, s3.bucketName)
	if err != nil {
		return fmt.Errorf("can not check bucket %s: %w", s3.bucketName, err)
	}
	if exists {
		return nil
	}
	if err := s3.client.MakeBucket(ctx, s3.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("can not create bucket %s: %w", s3.bucketName, err)
	}
	return nil
}

// ListFiles lists the files of one owner.
func (s3 *MinioS3Client) ListFiles(ctx context.Context, owner string) ([]FileMetadata, error) {
	prefix := owner + "/"
	result := make([]FileMetadata, 0)

	objectCh := s3.client.ListObjects(ctx, s3.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("can not list %s: %w", prefix, object.Err)
		}
		result = append(result, toMetadata(strings.TrimPrefix(object.Key, prefix), object))
	}
	return result, nil
}

func (s3 *MinioS3Client) StatFile(ctx context.Context, owner, fileName string) (*FileMetadata, error) {
	object, err := s3.client.StatObject(ctx, s3.bucketName, objectKey(owner, fileName), minio.StatObjectOptions{})
	if err != nil {
		return nil, s3Err("stat", fileName, err)
	}
	metadata := toMetadata(fileName, object)
	return &metadata, nil
}

func (s3 *MinioS3Client) ReadFile(ctx context.Context, owner, fileName string) ([]byte, error) {
	object, err := s3.client.GetObject(ctx, s3.bucketName, objectKey(owner, fileName), minio.GetObjectOptions{})
	if err != nil {
		return nil, s3Err("get", fileName, err)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return nil, s3Err("read", fileName, err)
	}
	return content, nil
}

// UploadFile stores content under the owner's prefix.
func (s3 *MinioS3Client) UploadFile(ctx context.Context, owner, fileName string, content []byte) error {
	_, err := s3.client.PutObject(ctx,
		s3.bucketName,
		objectKey(owner, fileName),
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{ContentType: defaultContentType})
	if err != nil {
		return s3Err("put", fileName, err)
	}
	return nil
}

// DeleteFile removes a file. Removing a missing key succeeds, as S3 does.
func (s3 *MinioS3Client) DeleteFile(ctx context.Context, owner, fileName string) error {
	err := s3.client.RemoveObject(ctx, s3.bucketName, objectKey(owner, fileName), minio.RemoveObjectOptions{})
	if err != nil {
		return s3Err("remove", fileName, err)
	}
	return nil
}

func objectKey(owner, fileName string) string {
	return fmt.Sprintf("%s/%s", owner, fileName)
}

func toMetadata(fileName string, object minio.ObjectInfo) FileMetadata {
	return FileMetadata{
		FileName:     fileName,
		Size:         object.Size,
		LastModified: object.LastModified,
		ContentType:  object.ContentType,
	}
}

func s3Err(stage, fileName string, err error) error {
	if minio.ToErrorResponse(err).Code == noSuchKey {
		return newErr(NotFound, fmt.Sprintf("%s not found", fileName), err)
	}
	return serviceErr(fmt.Sprintf("can not %s %s", stage, fileName), err)
}
