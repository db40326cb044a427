package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Claims は検証済みトークンから取り出した利用者情報。
type Claims struct {
	// Username は利用者名。
	Username string `json:"username"`
	// Admin は管理者権限の有無。
	Admin bool `json:"admin"`
}

// Authorize は利用者がアップロード・ダウンロードを許可されているかを返す。
func (c *Claims) Authorize() bool {
	return c != nil && c.Admin
}

// Error は認証処理の失敗を表す。Statusはそのまま応答ステータスとして使える。
type Error struct {
	// Status はHTTPステータスコード。
	Status int
	// Message は応答本文に使うメッセージ。
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("auth: %d %s", e.Status, e.Message)
}

var (
	// ErrMissingCredentials は資格情報が付与されていないことを表す。
	ErrMissingCredentials = &Error{Status: http.StatusUnauthorized, Message: "missing credentials"}
	// ErrInvalidClaims はクレームの形式が不正であることを表す。
	ErrInvalidClaims = &Error{Status: http.StatusUnauthorized, Message: "invalid token claims"}
	// ErrInvalidToken はトークンの検証に失敗したことを表す。
	ErrInvalidToken = &Error{Status: http.StatusUnauthorized, Message: "invalid token"}
	// ErrUnavailable は認証サービスに到達できないことを表す。
	ErrUnavailable = &Error{Status: http.StatusServiceUnavailable, Message: "auth service unavailable"}
)

// AsError はerrを*Errorとして取り出す。該当しない場合はnilを返す。
func AsError(err error) *Error {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// rawClaims は存在確認のためにポインタで受けるクレーム。
type rawClaims struct {
	Username *string `json:"username"`
	Admin    *bool   `json:"admin"`
}

// DecodeClaims はクレームのJSONをClaimsにデコードする。
// adminキーの欠落や型違い、空のusernameは非管理者ではなくエラーとして扱う。
func DecodeClaims(data []byte) (*Claims, error) {
	var raw rawClaims
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ErrInvalidClaims
	}
	return raw.claims()
}

// claims は必須フィールドを確認してClaimsを生成する。
func (r rawClaims) claims() (*Claims, error) {
	if r.Username == nil || *r.Username == "" || r.Admin == nil {
		return nil, ErrInvalidClaims
	}
	return &Claims{Username: *r.Username, Admin: *r.Admin}, nil
}
