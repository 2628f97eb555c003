package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hitoshi/blogman/internal/model"
)

// MinioImageStorage はS3互換オブジェクトストレージを使用した画像ストレージ。
type MinioImageStorage struct {
	client *minio.Client
	bucket string
}

// MinioConfig はMinioImageStorageの接続設定。
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioImageStorage はMinioImageStorageを生成する。
// バケットが存在しない場合は作成する。
func NewMinioImageStorage(ctx context.Context, cfg MinioConfig) (*MinioImageStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioImageStorage{client: client, bucket: cfg.Bucket}, nil
}

// SaveImage は画像データをオブジェクトとして保存し、取得用のハンドルを返す。
// オブジェクトキーはランダムなUUIDの16進表現に元ファイルの拡張子を付けたもの。
func (s *MinioImageStorage) SaveImage(ctx context.Context, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	handle := strings.ReplaceAll(uuid.New().String(), "-", "") + ext

	contentType := http.DetectContentType(data)
	_, err := s.client.PutObject(ctx, s.bucket, handle, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return handle, nil
}

// ReadImage はハンドルに対応する画像データを返す。
func (s *MinioImageStorage) ReadImage(ctx context.Context, handle string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, handle, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, model.NewImageNotFoundError()
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}

	return data, nil
}

// compile-time interface check
var _ ImageStorage = (*MinioImageStorage)(nil)
