package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad はload関数を検証する。t.Setenvを使うため並列実行しない。
func TestLoad(t *testing.T) {
	t.Run("環境変数が未設定の場合デフォルト値が使われること", func(t *testing.T) {
		cfg, err := load("")
		if err != nil {
			t.Fatalf("load()でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8080")
		}
		if cfg.RabbitMQMaxRetries != 3 {
			t.Errorf("RabbitMQMaxRetries = %d, want 3", cfg.RabbitMQMaxRetries)
		}
		if cfg.RabbitMQRetryBackoff != 2*time.Second {
			t.Errorf("RabbitMQRetryBackoff = %v, want 2s", cfg.RabbitMQRetryBackoff)
		}
		if cfg.VideoBucket != "videos" || cfg.MP3Bucket != "mp3s" {
			t.Errorf("バケット = %q/%q, want videos/mp3s", cfg.VideoBucket, cfg.MP3Bucket)
		}
		if cfg.VideoQueue != "video" || cfg.MP3Queue != "mp3" {
			t.Errorf("キュー = %q/%q, want video/mp3", cfg.VideoQueue, cfg.MP3Queue)
		}
	})

	t.Run("GATEWAY_接頭辞の環境変数で上書きできること", func(t *testing.T) {
		t.Setenv("GATEWAY_PORT", "9090")
		t.Setenv("GATEWAY_RABBITMQ_MAX_RETRIES", "5")
		t.Setenv("GATEWAY_RABBITMQ_RETRY_BACKOFF", "500ms")
		t.Setenv("GATEWAY_AUTH_SVC_ADDRESS", "http://localhost:5000")

		cfg, err := load("")
		if err != nil {
			t.Fatalf("load()でエラーが発生: %v", err)
		}
		if cfg.Port != "9090" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9090")
		}
		if cfg.RabbitMQMaxRetries != 5 {
			t.Errorf("RabbitMQMaxRetries = %d, want 5", cfg.RabbitMQMaxRetries)
		}
		if cfg.RabbitMQRetryBackoff != 500*time.Millisecond {
			t.Errorf("RabbitMQRetryBackoff = %v, want 500ms", cfg.RabbitMQRetryBackoff)
		}
		if cfg.AuthSvcAddress != "http://localhost:5000" {
			t.Errorf("AuthSvcAddress = %q, want %q", cfg.AuthSvcAddress, "http://localhost:5000")
		}
	})

	t.Run("YAMLファイルの値が読み込まれること", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "gateway.yaml")
		content := "video_bucket: raw-videos\nlog_format: console\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("設定ファイルの作成に失敗: %v", err)
		}

		cfg, err := load(path)
		if err != nil {
			t.Fatalf("load()でエラーが発生: %v", err)
		}
		if cfg.VideoBucket != "raw-videos" {
			t.Errorf("VideoBucket = %q, want %q", cfg.VideoBucket, "raw-videos")
		}
		if cfg.LogFormat != "console" {
			t.Errorf("LogFormat = %q, want %q", cfg.LogFormat, "console")
		}
	})

	t.Run("jwtモードで秘密鍵がない場合エラーになること", func(t *testing.T) {
		t.Setenv("GATEWAY_AUTH_MODE", "jwt")

		if _, err := load(""); err == nil {
			t.Error("load()がエラーを返さなかった")
		}
	})

	t.Run("存在しない設定ファイルはエラーになること", func(t *testing.T) {
		if _, err := load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("load()がエラーを返さなかった")
		}
	})
}

// TestValidate はValidateメソッドを検証する。
func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("デフォルト設定が妥当であること", func(t *testing.T) {
		t.Parallel()

		if err := Default().Validate(); err != nil {
			t.Errorf("Validate()でエラーが発生: %v", err)
		}
	})

	t.Run("動画と音声のバケットが同じ場合エラーになること", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		cfg.MP3Bucket = cfg.VideoBucket
		if err := cfg.Validate(); err == nil {
			t.Error("Validate()がエラーを返さなかった")
		}
	})

	t.Run("不明な認証モードはエラーになること", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		cfg.AuthMode = "oauth"
		if err := cfg.Validate(); err == nil {
			t.Error("Validate()がエラーを返さなかった")
		}
	})

	t.Run("接続試行回数が0の場合エラーになること", func(t *testing.T) {
		t.Parallel()

		cfg := Default()
		cfg.RabbitMQMaxRetries = 0
		if err := cfg.Validate(); err == nil {
			t.Error("Validate()がエラーを返さなかった")
		}
	})
}
