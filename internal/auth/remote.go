package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/nao1215/mp3converter/pkg/httpclient"
)

// Validator はAuthorizationヘッダーの値を検証してClaimsを返す。
type Validator interface {
	Validate(ctx context.Context, authorization string) (*Claims, error)
}

// LoginService は資格情報を認証サービスへ転送してトークンを受け取る。
type LoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// Remote は認証サービスにトークン検証とログインを委譲する。
type Remote struct {
	client *httpclient.Client
}

var (
	_ Validator    = (*Remote)(nil)
	_ LoginService = (*Remote)(nil)
)

// NewRemote はbaseURLの認証サービスを利用するRemoteを生成する。
func NewRemote(baseURL string) *Remote {
	return &Remote{client: httpclient.New(strings.TrimRight(baseURL, "/"))}
}

// Validate は POST /validate にAuthorizationヘッダーを転送する。
// 200の応答本文をクレームとしてデコードし、それ以外は応答のステータスと本文をErrorとして返す。
func (r *Remote) Validate(ctx context.Context, authorization string) (*Claims, error) {
	if authorization == "" {
		return nil, ErrMissingCredentials
	}

	header := http.Header{}
	header.Set("Authorization", authorization)
	resp, err := r.client.Post(ctx, "/validate", header)
	if err != nil {
		return nil, ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, relay(resp)
	}
	return DecodeClaims(resp.Body)
}

// Login は POST /login にBasic認証の資格情報を転送し、発行されたトークンを返す。
func (r *Remote) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" && password == "" {
		return "", ErrMissingCredentials
	}

	header := http.Header{}
	header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(username+":"+password)))
	resp, err := r.client.Post(ctx, "/login", header)
	if err != nil {
		return "", ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return "", relay(resp)
	}
	return string(resp.Body), nil
}

// relay は認証サービスの失敗応答をErrorに変換する。
func relay(resp *httpclient.Response) *Error {
	msg := strings.TrimSpace(string(resp.Body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}
