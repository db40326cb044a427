package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims は認証サービスが発行するJWTのペイロード。
type tokenClaims struct {
	jwt.RegisteredClaims
	Username *string `json:"username"`
	Admin    *bool   `json:"admin"`
}

// JWTValidator は共有秘密鍵でHS256署名のトークンをローカル検証する。
type JWTValidator struct {
	secret []byte
}

var _ Validator = (*JWTValidator)(nil)

// NewJWTValidator は新しいJWTValidatorを生成する。
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// Validate は "Bearer <token>" 形式のAuthorizationヘッダーを検証する。
func (v *JWTValidator) Validate(_ context.Context, authorization string) (*Claims, error) {
	if authorization == "" {
		return nil, ErrMissingCredentials
	}
	tokenString, found := strings.CutPrefix(authorization, "Bearer ")
	if !found || tokenString == "" {
		return nil, ErrInvalidToken
	}

	tc := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, tc, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return rawClaims{Username: tc.Username, Admin: tc.Admin}.claims()
}

// IssueToken はJWTValidatorで検証可能なトークンを発行する。
// 認証サービスと同じ形式のクレームを持つ。
func IssueToken(secret, username string, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: &username,
		Admin:    &admin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}
