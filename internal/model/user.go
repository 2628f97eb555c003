// Package model はドメインモデルを定義する。
package model

import "time"

// User はブログの利用ユーザーを表す。
// Usernameは作成後に変更できず、大文字小文字を区別して一意である。
// PasswordHashはbcryptエンコード済み文字列で、認証層の外には公開しない。
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session はログイン済みであることの証明を表す。
// IDは推測不可能な不透明トークンで、等価比較による検索にのみ使用する。
// 有効期限は持たない。ログインで作成され、ログアウトで削除される。
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// CurrentUser はリクエスト境界に公開する最小限のユーザービュー。
// パスワードハッシュ等の内部情報は含めない。
type CurrentUser struct {
	ID       string
	Username string
}
