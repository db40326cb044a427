package gateway

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/mp3converter/internal/blobstore"
)

// healthStatus は依存サービスごとの到達性。リクエストごとに生成し保存しない。
type healthStatus struct {
	// Store は動画・音声ストアの両方に到達できるか。
	Store bool
	// Broker はブローカーへの接続が開いているか。
	Broker bool
}

// healthy は全ての依存サービスが利用可能かを返す。
func (h healthStatus) healthy() bool {
	return h.Store && h.Broker
}

// String は応答本文の形式で状態を表す。
func (h healthStatus) String() string {
	return fmt.Sprintf("MinIO: %t, RabbitMQ: %t", h.Store, h.Broker)
}

// handleHealth はストアとブローカーの状態をまとめて返すハンドラを返す。
// 再接続や状態の変更は行わない。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		status := s.checkHealth(c)
		if status.healthy() {
			c.String(http.StatusOK, "OK")
			return
		}

		logger := s.requestLogger(c)
		logger.Warn().Bool("minio", status.Store).Bool("rabbitmq", status.Broker).Msg("ヘルスチェックに失敗")
		c.String(http.StatusServiceUnavailable, status.String())
	}
}

// checkHealth は各依存サービスを個別に確認する。
func (s *Server) checkHealth(c *gin.Context) healthStatus {
	ctx := c.Request.Context()
	logger := s.requestLogger(c)

	storeOK := true
	for name, store := range map[string]blobstore.Store{"videos": s.videos, "mp3s": s.mp3s} {
		if err := store.Ping(ctx); err != nil {
			logger.Error().Err(err).Str("store", name).Msg("ストアに到達できません")
			storeOK = false
		}
	}

	return healthStatus{Store: storeOK, Broker: s.broker.IsOpen()}
}
