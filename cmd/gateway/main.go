// Gatewayサービスのエントリポイント。
// 変換パイプラインの唯一のHTTP入口として、認証、動画のアップロード、
// 変換ジョブの発行、変換済み音声の配信を担当する。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nao1215/mp3converter/internal/auth"
	"github.com/nao1215/mp3converter/internal/blobstore"
	"github.com/nao1215/mp3converter/internal/broker"
	"github.com/nao1215/mp3converter/internal/config"
	"github.com/nao1215/mp3converter/internal/gateway"
	"github.com/nao1215/mp3converter/internal/ledger"
	"github.com/nao1215/mp3converter/internal/logging"
)

// shutdownTimeout は停止時に処理中のリクエストを待つ時間。
const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.New(logging.Config{})
		logger.Fatal().Err(err).Msg("設定の読み込みに失敗")
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Gatewayサービスが異常終了しました")
	}
}

// run は依存サービスに接続してHTTPサーバーを起動し、シグナルを受けるまで待つ。
func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mq := broker.Connect(ctx, broker.Config{
		URL:        cfg.RabbitMQURL,
		MaxRetries: cfg.RabbitMQMaxRetries,
		Backoff:    cfg.RabbitMQRetryBackoff,
		Queues:     []string{cfg.VideoQueue, cfg.MP3Queue},
	}, logging.Component(logger, "broker"))
	defer mq.Close()

	client, err := blobstore.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey)
	if err != nil {
		return err
	}
	videos := blobstore.NewMinIO(client, cfg.VideoBucket)
	mp3s := blobstore.NewMinIO(client, cfg.MP3Bucket)
	storeLogger := logging.Component(logger, "blobstore")
	for _, store := range []*blobstore.MinIO{videos, mp3s} {
		created, err := store.EnsureBucket(ctx)
		if err != nil {
			// ストアが起動していなくてもサーバーは起動し、ヘルスチェックで異常を報告する。
			storeLogger.Error().Err(err).Str("bucket", store.Bucket()).Msg("バケットを確認できません")
			continue
		}
		storeLogger.Info().Str("bucket", store.Bucket()).Bool("created", created).Msg("バケットを確認しました")
	}

	uploads, err := ledger.Open(ctx, cfg.LedgerPath, logging.Component(logger, "ledger"))
	if err != nil {
		return err
	}
	defer uploads.Close()
	if n, err := uploads.Count(ctx, ledger.StatusOrphaned); err == nil && n > 0 {
		logger.Warn().Int("orphaned", n).Msg("ジョブ未発行のアップロードがあります")
	}

	remote := auth.NewRemote(cfg.AuthSvcAddress)
	var validator auth.Validator = remote
	if cfg.AuthMode == config.AuthModeJWT {
		validator = auth.NewJWTValidator(cfg.JWTSecret)
	}

	server := gateway.NewServer(gateway.Options{
		Port:           cfg.Port,
		Validator:      validator,
		Login:          remote,
		Videos:         videos,
		MP3s:           mp3s,
		Broker:         mq,
		Ledger:         uploads,
		VideoQueue:     cfg.VideoQueue,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logging.Component(logger, "gateway"),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("auth_mode", cfg.AuthMode).Msg("Gatewayサービスを起動します")
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Gatewayサービスを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
