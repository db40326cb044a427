package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// metaFilename は元のファイル名を保存するユーザーメタデータのキー。
const metaFilename = "Filename"

// defaultContentType はContent-Typeが不明な場合に使う値。
const defaultContentType = "application/octet-stream"

// MinIO はMinIOの1バケットをStoreとして扱う。
type MinIO struct {
	client *minio.Client
	bucket string
}

var _ Store = (*MinIO)(nil)

// NewClient はMinIOクライアントを生成する。
// endpointは "minio:9000" と "http(s)://minio:9000" のどちらも受け付ける。
func NewClient(endpoint, accessKey, secretKey string) (*minio.Client, error) {
	host, secure, err := normaliseEndpoint(endpoint)
	if err != nil {
		return nil, fmt.Errorf("MinIOエンドポイントが不正: %w", err)
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIOクライアントの初期化に失敗: %w", err)
	}
	return client, nil
}

// normaliseEndpoint はエンドポイントをホスト部とTLS有無に分解する。
func normaliseEndpoint(raw string) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, errors.New("empty endpoint")
	}
	if !strings.Contains(raw, "://") {
		return raw, false, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false, err
	}
	if u.Host == "" {
		return "", false, errors.New("endpoint has no host")
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, errors.New("endpoint must not contain a path")
	}
	return u.Host, u.Scheme == "https", nil
}

// NewMinIO はclientのbucketを使うStoreを生成する。
func NewMinIO(client *minio.Client, bucket string) *MinIO {
	return &MinIO{client: client, bucket: bucket}
}

// Bucket はバケット名を返す。
func (m *MinIO) Bucket() string {
	return m.bucket
}

// EnsureBucket はバケットが存在しなければ作成する。
func (m *MinIO) EnsureBucket(ctx context.Context) (created bool, err error) {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return false, fmt.Errorf("バケット %s の確認に失敗: %w", m.bucket, err)
	}
	if exists {
		return false, nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return false, fmt.Errorf("バケット %s の作成に失敗: %w", m.bucket, err)
	}
	return true, nil
}

// Put はrをストリームでバケットに書き込む。sizeが不明な場合は-1を渡す。
func (m *MinIO) Put(ctx context.Context, r io.Reader, size int64, meta Metadata) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", fmt.Errorf("オブジェクトIDの生成に失敗: %w", err)
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if meta.Filename != "" {
		opts.UserMetadata = map[string]string{metaFilename: meta.Filename}
	}

	if _, err := m.client.PutObject(ctx, m.bucket, id, r, size, opts); err != nil {
		return "", fmt.Errorf("オブジェクト %s/%s の書き込みに失敗: %w", m.bucket, id, err)
	}
	return id, nil
}

// Get はオブジェクトを開く。存在しない場合はErrNotFoundを返す。
func (m *MinIO) Get(ctx context.Context, id string) (*Object, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}

	obj, err := m.client.GetObject(ctx, m.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, mapError(err)
	}
	return &Object{ReadCloser: obj, Size: info.Size, ContentType: info.ContentType}, nil
}

// Ping はバケットの存在確認で到達性を調べる。
func (m *MinIO) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("バケット %s の確認に失敗: %w", m.bucket, err)
	}
	if !exists {
		return fmt.Errorf("バケット %s が存在しません", m.bucket)
	}
	return nil
}

// mapError はMinIOのエラーをパッケージのエラーに変換する。
func mapError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return fmt.Errorf("オブジェクトの読み出しに失敗: %w", err)
}
