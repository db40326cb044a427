package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nao1215/mp3converter/internal/auth"
	"github.com/nao1215/mp3converter/internal/blobstore"
	"github.com/nao1215/mp3converter/internal/ledger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// テスト用のAuthorizationヘッダー。
const (
	adminToken    = "Bearer admin-token"
	userToken     = "Bearer user-token"
	noAdminToken  = "Bearer no-admin-claim"
	rejectedToken = "Bearer rejected"
)

// fakeValidator はトークン文字列ごとに決まった結果を返すValidator。
type fakeValidator struct {
	mu    sync.Mutex
	calls int
}

func (v *fakeValidator) Validate(_ context.Context, authorization string) (*auth.Claims, error) {
	v.mu.Lock()
	v.calls++
	v.mu.Unlock()

	switch authorization {
	case "":
		return nil, auth.ErrMissingCredentials
	case adminToken:
		return auth.DecodeClaims([]byte(`{"username":"admin@example.com","admin":true}`))
	case userToken:
		return auth.DecodeClaims([]byte(`{"username":"user@example.com","admin":false}`))
	case noAdminToken:
		return auth.DecodeClaims([]byte(`{"username":"user@example.com"}`))
	case rejectedToken:
		return nil, &auth.Error{Status: http.StatusForbidden, Message: "token expired"}
	default:
		return nil, auth.ErrInvalidToken
	}
}

// fakeLogin は固定の資格情報だけを受け付けるLoginService。
type fakeLogin struct {
	unavailable bool
}

func (l *fakeLogin) Login(_ context.Context, username, password string) (string, error) {
	if l.unavailable {
		return "", auth.ErrUnavailable
	}
	if username == "admin@example.com" && password == "password" {
		return "issued-token", nil
	}
	return "", &auth.Error{Status: http.StatusUnauthorized, Message: "invalid credentials"}
}

// fakeStore はメモリ上のStore。呼び出し回数を記録する。
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	puts    int
	gets    int
	putErr  error
	getErr  error
	pingErr error
	pings   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStore) Put(_ context.Context, r io.Reader, _ int64, meta blobstore.Metadata) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return "", s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id, err := blobstore.NewID()
	if err != nil {
		return "", err
	}
	s.objects[id] = data
	s.types[id] = meta.ContentType
	return id, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*blobstore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	if !blobstore.ValidID(id) {
		return nil, blobstore.ErrInvalidID
	}
	data, ok := s.objects[id]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return &blobstore.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(data)),
		Size:        int64(len(data)),
		ContentType: s.types[id],
	}, nil
}

func (s *fakeStore) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pings++
	return s.pingErr
}

// put はテスト用にオブジェクトを直接保存する。
func (s *fakeStore) put(t *testing.T, data []byte, contentType string) string {
	t.Helper()

	id, err := s.Put(context.Background(), bytes.NewReader(data), int64(len(data)), blobstore.Metadata{ContentType: contentType})
	if err != nil {
		t.Fatalf("テスト用オブジェクトの保存に失敗: %v", err)
	}
	s.mu.Lock()
	s.puts = 0
	s.mu.Unlock()
	return id
}

// fakeBroker は発行されたメッセージを記録するPublisher。
type fakeBroker struct {
	mu         sync.Mutex
	ready      bool
	open       bool
	publishErr error
	messages   []publishedMessage
}

// publishedMessage は発行されたメッセージ1件。
type publishedMessage struct {
	queue string
	body  []byte
}

func (b *fakeBroker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

func (b *fakeBroker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *fakeBroker) Publish(_ context.Context, queue string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return errors.New("channel unavailable")
	}
	if b.publishErr != nil {
		return b.publishErr
	}
	b.messages = append(b.messages, publishedMessage{queue: queue, body: body})
	return nil
}

// fakeLedger は記録内容を保持するRecorder。
type fakeLedger struct {
	mu      sync.Mutex
	entries []ledger.Entry
	err     error
}

func (l *fakeLedger) Record(_ context.Context, e ledger.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.entries = append(l.entries, e)
	return nil
}

// testEnv はテスト用サーバーとその依存。
type testEnv struct {
	server    *Server
	validator *fakeValidator
	login     *fakeLogin
	videos    *fakeStore
	mp3s      *fakeStore
	broker    *fakeBroker
	ledger    *fakeLedger
}

// newTestEnv は全ての依存が正常なテスト用サーバーを生成する。
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		validator: &fakeValidator{},
		login:     &fakeLogin{},
		videos:    newFakeStore(),
		mp3s:      newFakeStore(),
		broker:    &fakeBroker{ready: true, open: true},
		ledger:    &fakeLedger{},
	}
	env.build(env.mp3s)
	return env
}

// build はmp3ストアを指定してサーバーを組み立てる。
func (e *testEnv) build(mp3s *fakeStore) {
	e.mp3s = mp3s
	e.server = NewServer(Options{
		Port:           "0",
		Validator:      e.validator,
		Login:          e.login,
		Videos:         e.videos,
		MP3s:           mp3s,
		Broker:         e.broker,
		Ledger:         e.ledger,
		VideoQueue:     "video",
		MaxUploadBytes: 1 << 20,
		Logger:         zerolog.New(io.Discard),
	})
}

// do はリクエストを実行して応答を返す。
func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// uploadFile はフォームに添付するファイル1件。
type uploadFile struct {
	field    string
	filename string
	data     []byte
}

// newUploadRequest はファイルを添付したマルチパートのアップロードリクエストを生成する。
func newUploadRequest(t *testing.T, authorization string, files ...uploadFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "テキスト項目はファイルとして数えない"); err != nil {
		t.Fatalf("フォーム項目の書き込みに失敗: %v", err)
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("フォームファイルの作成に失敗: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("ファイル内容の書き込みに失敗: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("マルチパートの終了に失敗: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}

// newDownloadRequest はダウンロードリクエストを生成する。fidが空の場合はクエリを付けない。
func newDownloadRequest(authorization, fid string) *http.Request {
	target := "/download"
	if fid != "" {
		target += "?fid=" + fid
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}
