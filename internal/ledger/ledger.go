// Package ledger はGatewayが受け付けたアップロードをSQLiteに記録する。
//
// 書き込み済みでジョブを発行できなかったオブジェクトはStatusOrphanedとして残り、
// 運用者が変換ワーカーへの再投入や削除を判断する材料になる。
package ledger

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/nao1215/mp3converter/pkg/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Status はアップロードの処理結果。
type Status string

const (
	// StatusPublished はオブジェクトの書き込みとジョブの発行が両方成功したことを表す。
	StatusPublished Status = "published"
	// StatusOrphaned はオブジェクトは書き込まれたがジョブを発行できなかったことを表す。
	StatusOrphaned Status = "orphaned"
)

// Entry はアップロード1件の記録。
type Entry struct {
	// ID は記録の一意識別子（UUID）。空の場合はRecordが採番する。
	ID string
	// ObjectID は書き込んだオブジェクトのID。
	ObjectID string
	// Username はアップロードした利用者名。
	Username string
	// Filename は元のファイル名。
	Filename string
	// Size はファイルサイズ（バイト）。
	Size int64
	// Status は処理結果。
	Status Status
	// Error はジョブ発行に失敗した場合の理由。
	Error string
	// CreatedAt は記録日時。ゼロ値の場合はRecordが現在時刻を設定する。
	CreatedAt time.Time
}

// Ledger はSQLiteに保存するアップロード台帳。
type Ledger struct {
	db *sql.DB
}

// Open はpathのSQLiteを開いてマイグレーションを適用する。
// ":memory:" を指定するとインメモリで動作する。
func Open(ctx context.Context, path string, logger zerolog.Logger) (*Ledger, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// 書き込みは単一接続で直列化する。インメモリDBもこの接続でのみ有効。
	db.SetMaxOpenConns(1)

	if _, err := migration.Run(ctx, db, migrations, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record はアップロード1件を記録する。
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO uploads (id, object_id, username, filename, size, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ObjectID, e.Username, e.Filename, e.Size, string(e.Status), e.Error,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("アップロード記録の保存に失敗: %w", err)
	}
	return nil
}

// Count は指定した状態の記録件数を返す。
func (l *Ledger) Count(ctx context.Context, status Status) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM uploads WHERE status = ?", string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("アップロード記録の集計に失敗: %w", err)
	}
	return n, nil
}

// Find はオブジェクトIDに対応する記録を返す。存在しない場合はsql.ErrNoRowsを返す。
func (l *Ledger) Find(ctx context.Context, objectID string) (*Entry, error) {
	var (
		e         Entry
		status    string
		createdAt string
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT id, object_id, username, filename, size, status, error, created_at
		FROM uploads WHERE object_id = ? ORDER BY created_at DESC LIMIT 1`, objectID,
	).Scan(&e.ID, &e.ObjectID, &e.Username, &e.Filename, &e.Size, &status, &e.Error, &createdAt)
	if err != nil {
		return nil, err
	}

	e.Status = Status(status)
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("記録日時の解析に失敗: %w", err)
	}
	return &e, nil
}

// Close はデータベース接続を閉じる。
func (l *Ledger) Close() error {
	return l.db.Close()
}
