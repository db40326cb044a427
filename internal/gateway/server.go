package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nao1215/mp3converter/internal/auth"
	"github.com/nao1215/mp3converter/internal/blobstore"
	"github.com/nao1215/mp3converter/internal/ledger"
	"github.com/nao1215/mp3converter/pkg/middleware"
)

// Publisher はジョブメッセージの発行先。
type Publisher interface {
	// Ready はチャネルが確立されていて発行できる状態かを返す。
	Ready() bool
	// IsOpen はブローカーへの接続が開いているかを返す。
	IsOpen() bool
	// Publish はbodyを永続メッセージとしてqueueに発行する。
	Publish(ctx context.Context, queue string, body []byte) error
}

// Recorder はアップロードの結果を記録する。
type Recorder interface {
	Record(ctx context.Context, e ledger.Entry) error
}

// Options はServerが利用する依存と設定。起動時に1度だけ組み立てて渡す。
type Options struct {
	// Port はリッスンポート。
	Port string
	// Validator はAuthorizationヘッダーを検証する。
	Validator auth.Validator
	// Login はログインを認証サービスへ転送する。
	Login auth.LoginService
	// Videos はアップロード動画のストア。
	Videos blobstore.Store
	// MP3s は変換済み音声のストア。
	MP3s blobstore.Store
	// Broker は変換ジョブの発行先。
	Broker Publisher
	// Ledger はアップロード台帳。nilの場合は記録しない。
	Ledger Recorder
	// VideoQueue は変換ジョブを発行するキュー名。
	VideoQueue string
	// MaxUploadBytes はアップロード可能な最大ファイルサイズ。
	MaxUploadBytes int64
	// Logger はサービスのロガー。
	Logger zerolog.Logger
}

// Server はGatewayサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はrouterを公開するHTTPサーバー。
	httpServer *http.Server
	// validator はトークン検証を行う。
	validator auth.Validator
	// login はログインを転送する。
	login auth.LoginService
	// videos はアップロード動画のストア。
	videos blobstore.Store
	// mp3s は変換済み音声のストア。
	mp3s blobstore.Store
	// broker は変換ジョブの発行先。
	broker Publisher
	// ledger はアップロード台帳。
	ledger Recorder
	// videoQueue は変換ジョブを発行するキュー名。
	videoQueue string
	// maxUploadBytes はアップロード可能な最大ファイルサイズ。
	maxUploadBytes int64
	// logger はサービスのロガー。
	logger zerolog.Logger
}

// NewServer は新しいGatewayサーバーを生成する。
func NewServer(opts Options) *Server {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(opts.Logger))
	router.Use(middleware.AccessLog(opts.Logger))

	s := &Server{
		router:         router,
		validator:      opts.Validator,
		login:          opts.Login,
		videos:         opts.Videos,
		mp3s:           opts.MP3s,
		broker:         opts.Broker,
		ledger:         opts.Ledger,
		videoQueue:     opts.VideoQueue,
		maxUploadBytes: opts.MaxUploadBytes,
		logger:         opts.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%s", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setupRoutes()

	return s
}

// Handler はルーティング済みのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。Shutdownによる停止ではnilを返す。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストを待ってHTTPサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ログイン（認証サービスへ転送）
	s.router.POST("/login", s.handleLogin())

	// 管理者のみ利用可能
	s.router.POST("/upload", s.requireAdmin(), s.handleUpload())
	s.router.GET("/download", s.requireAdmin(), s.handleDownload())

	// ヘルスチェック（認証不要）
	s.router.GET("/health", s.handleHealth())
}

// requestLogger はリクエストIDを付与したロガーを返す。
func (s *Server) requestLogger(c *gin.Context) zerolog.Logger {
	return s.logger.With().Str("request_id", middleware.GetRequestID(c)).Logger()
}
