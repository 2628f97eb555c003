package model

import "time"

// Post はブログ記事を表す。
// ImagePathは画像ストレージが発行したハンドル。画像なしの場合は空文字列。
type Post struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string
	ImagePath string
	CreatedAt time.Time
}
