// Package storage は画像ブロブの永続化を提供する。
package storage

import "context"

// ImageStorage は画像ストレージのインターフェース。
// SaveImageが返すハンドルは元のファイル名に依存しない一意な文字列で、
// 後からReadImageで同じバイト列を取得できる。
type ImageStorage interface {
	// SaveImage は画像データを保存し、取得用のハンドルを返す。
	// ハンドルは呼び出しごとに一意で、既存のブロブを上書きすることはない。
	SaveImage(ctx context.Context, filename string, data []byte) (string, error)

	// ReadImage はハンドルに対応する画像データを返す。
	// 見つからない場合はmodel.APIError（IMAGE_NOT_FOUND）を返す。
	ReadImage(ctx context.Context, handle string) ([]byte, error)
}
