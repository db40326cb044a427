package blobstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

var (
	// ErrNotFound は指定したIDのオブジェクトが存在しないことを表す。
	ErrNotFound = errors.New("blobstore: object not found")
	// ErrInvalidID はオブジェクトIDの形式が不正であることを表す。
	ErrInvalidID = errors.New("blobstore: invalid object id")
)

// idBytes はオブジェクトIDのバイト長。16進表現で24文字になる。
const idBytes = 12

// Metadata はオブジェクトと一緒に保存する付帯情報。
type Metadata struct {
	// Filename はアップロード時の元のファイル名。
	Filename string
	// ContentType はオブジェクトのMIMEタイプ。
	ContentType string
}

// Object はストアから読み出したオブジェクト。呼び出し元がCloseする。
type Object struct {
	io.ReadCloser
	// Size はオブジェクトのバイト数。
	Size int64
	// ContentType はオブジェクトのMIMEタイプ。
	ContentType string
}

// Store は1つの名前空間に対するバイナリストア。
type Store interface {
	// Put はrの内容を書き込み、採番したオブジェクトIDを返す。
	Put(ctx context.Context, r io.Reader, size int64, meta Metadata) (string, error)
	// Get はオブジェクトIDに対応するオブジェクトを返す。
	Get(ctx context.Context, id string) (*Object, error)
	// Ping はストアに到達できるかを確認する。状態は変更しない。
	Ping(ctx context.Context) error
}

// NewID は新しいオブジェクトIDを生成する。
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ValidID はidがオブジェクトIDとして妥当な形式かを返す。
func ValidID(id string) bool {
	if len(id) != idBytes*2 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}
