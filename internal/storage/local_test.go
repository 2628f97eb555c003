package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hitoshi/blogman/internal/model"
)

func TestNewLocalImageStorage_CreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "uploads")

	if _, err := NewLocalImageStorage(base); err != nil {
		t.Fatalf("NewLocalImageStorage returned error: %v", err)
	}

	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		t.Errorf("expected base directory to exist, err=%v", err)
	}
}

func TestSaveImage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalImageStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStorage returned error: %v", err)
	}

	data := []byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02, 0x03}
	handle, err := s.SaveImage(ctx, "photo.png", data)
	if err != nil {
		t.Fatalf("SaveImage returned error: %v", err)
	}
	if handle == "" {
		t.Fatal("expected non-empty handle")
	}

	got, err := s.ReadImage(ctx, handle)
	if err != nil {
		t.Fatalf("ReadImage returned error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("ReadImage returned %v, want %v", got, data)
	}
}

// ハンドルが元のファイル名に依存せず、拡張子のみ引き継ぐことを検証
func TestSaveImage_HandleIndependentOfFilename(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalImageStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStorage returned error: %v", err)
	}

	handle, err := s.SaveImage(ctx, "my vacation photo.jpg", []byte("data"))
	if err != nil {
		t.Fatalf("SaveImage returned error: %v", err)
	}
	if strings.Contains(handle, "vacation") {
		t.Errorf("handle %q should not contain the original filename", handle)
	}
	if !strings.HasSuffix(handle, ".jpg") {
		t.Errorf("handle %q should keep the original extension", handle)
	}
}

// 同じファイル名で2回保存しても別々のハンドルになり上書きされないことを検証
func TestSaveImage_UniqueHandlesPerCall(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalImageStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStorage returned error: %v", err)
	}

	h1, err := s.SaveImage(ctx, "same.png", []byte("first"))
	if err != nil {
		t.Fatalf("first SaveImage returned error: %v", err)
	}
	h2, err := s.SaveImage(ctx, "same.png", []byte("second"))
	if err != nil {
		t.Fatalf("second SaveImage returned error: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("handles should be unique, both were %q", h1)
	}

	first, _ := s.ReadImage(ctx, h1)
	second, _ := s.ReadImage(ctx, h2)
	if string(first) != "first" || string(second) != "second" {
		t.Errorf("blobs were overwritten: %q, %q", first, second)
	}
}

func TestReadImage_UnknownHandle_ReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalImageStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStorage returned error: %v", err)
	}

	_, err = s.ReadImage(ctx, "nothere.png")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeImageNotFound {
		t.Errorf("expected IMAGE_NOT_FOUND, got %v", err)
	}
}

// ディレクトリ区切りを含むハンドルが拒否されることを検証
func TestReadImage_PathTraversal_Rejected(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalImageStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalImageStorage returned error: %v", err)
	}

	for _, handle := range []string{"../etc/passwd", "a/b.png", "..", ""} {
		if _, err := s.ReadImage(ctx, handle); err == nil {
			t.Errorf("ReadImage(%q) should be rejected", handle)
		}
	}
}
