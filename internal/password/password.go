// Package password はパスワードのハッシュ化と検証を提供する。
//
// bcryptは72バイトを超える入力を受け付けない（実装によっては黙って切り詰める）。
// そのため、長いパスワードはSHA-256の16進ダイジェスト（固定64バイト）に
// 正規化してからbcryptに渡す。正規化は決定的であり、同じ長いパスワードは
// 常に同じ入力としてハッシュ・検証される。
package password

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes はbcryptが受け付ける入力の上限（バイト）。
const maxPasswordBytes = 72

// Normalize はパスワードをbcryptに安全に渡せる形に正規化する。
// UTF-8バイト長が上限以内であればそのまま返し、超える場合は
// 生バイト列のSHA-256ダイジェストを16進エンコードして返す。
func Normalize(password string) string {
	raw := []byte(password)
	if len(raw) <= maxPasswordBytes {
		return password
	}
	digest := sha256.Sum256(raw)
	return hex.EncodeToString(digest[:])
}

// Hasher はbcryptによるパスワードハッシュの生成と検証を行う。
// 内部状態を持たず、複数goroutineから同時に使用できる。
type Hasher struct {
	cost int
}

// NewHasher はデフォルトコストのHasherを生成する。
func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

// NewHasherWithCost は指定コストのHasherを生成する。
// テストではbcrypt.MinCostを指定して高速化できる。
func NewHasherWithCost(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は正規化したパスワードのbcryptハッシュを返す。
// 戻り値はアルゴリズム識別子・コスト・ソルト・ダイジェストを含む
// エンコード済み文字列。
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(Normalize(password)), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はパスワードがエンコード済みハッシュと一致するかを検証する。
// 比較はbcryptの定数時間比較で行う。
// ハッシュが不正な形式の場合もエラーにはせずfalseを返す。
func (h *Hasher) Verify(password, encodedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(Normalize(password)))
	return err == nil
}
