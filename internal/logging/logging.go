// Package logging はzerologベースの構造化ロガーを生成する。
//
// ロガーはグローバルに持たず、生成したものを各コンポーネントへ注入する。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config はロガーの設定。
type Config struct {
	// Level は最小ログレベル（debug, info, warn, error）。
	Level string
	// Format は出力形式（json または console）。
	Format string
	// Output は出力先。nilの場合は標準エラー出力。
	Output io.Writer
}

// New は設定に従ってロガーを生成する。
// 不明なレベルはinfoとして扱う。
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Component はコンポーネント名を付与した子ロガーを返す。
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
