package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
)

// LocalImageStorage はローカルファイルシステムを使用した画像ストレージ。
type LocalImageStorage struct {
	baseDir string
}

// NewLocalImageStorage はLocalImageStorageを生成する。
// 保存先ディレクトリが存在しない場合は作成する。
func NewLocalImageStorage(baseDir string) (*LocalImageStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalImageStorage{baseDir: baseDir}, nil
}

// SaveImage は画像データを保存し、取得用のハンドルを返す。
// ハンドルはランダムなUUIDの16進表現に元ファイルの拡張子を付けたもので、
// クライアントが指定したファイル名には依存しない。
// O_EXCLで作成するため既存ファイルを上書きすることはない。
func (s *LocalImageStorage) SaveImage(_ context.Context, filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	handle := strings.ReplaceAll(uuid.New().String(), "-", "") + ext

	target := filepath.Join(s.baseDir, handle)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return handle, nil
}

// ReadImage はハンドルに対応する画像データを返す。
// パストラバーサルを防ぐため、ディレクトリ区切りを含むハンドルは拒否する。
func (s *LocalImageStorage) ReadImage(_ context.Context, handle string) ([]byte, error) {
	if handle == "" || strings.ContainsAny(handle, "/\\") || strings.Contains(handle, "..") {
		return nil, model.NewImageNotFoundError()
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, handle))
	if os.IsNotExist(err) {
		return nil, model.NewImageNotFoundError()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// compile-time interface check
var _ ImageStorage = (*LocalImageStorage)(nil)
