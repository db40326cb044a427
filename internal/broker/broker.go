package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// ErrUnavailable はチャネルが確立されていないため発行できないことを表す。
var ErrUnavailable = errors.New("broker: channel unavailable")

// Config は接続の設定。
type Config struct {
	// URL はAMQP接続URL。
	URL string
	// MaxRetries は接続試行回数。
	MaxRetries int
	// Backoff は試行の間隔。
	Backoff time.Duration
	// Queues は接続後に宣言する永続キュー。
	Queues []string
	// Dial は接続に使う関数。nilの場合はDialAMQP。
	Dial Dialer
}

// Broker はプロセス全体で共有するRabbitMQ接続。
// チャネルは並行利用できないため発行はミューテックスで直列化する。
type Broker struct {
	mu     sync.Mutex
	conn   Connection
	ch     Channel
	logger zerolog.Logger
}

// Connect は接続をcfg.MaxRetries回まで試行する。
// すべて失敗した場合もエラーは返さず、チャネルを持たないBrokerを返す。
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) *Broker {
	dial := cfg.Dial
	if dial == nil {
		dial = DialAMQP
	}
	b := &Broker{logger: logger}

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		logger.Info().Int("attempt", attempt).Int("max_retries", cfg.MaxRetries).Msg("RabbitMQへの接続を試行します")

		conn, ch, err := open(dial, cfg)
		if err == nil {
			b.conn, b.ch = conn, ch
			logger.Info().Strs("queues", cfg.Queues).Msg("RabbitMQに接続しました")
			return b
		}
		logger.Error().Err(err).Int("attempt", attempt).Msg("RabbitMQへの接続に失敗")

		if attempt == cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			logger.Warn().Err(ctx.Err()).Msg("RabbitMQへの接続試行を中断しました")
			return b
		case <-time.After(cfg.Backoff):
		}
	}

	logger.Warn().Msg("RabbitMQに接続できませんでした。アップロードは失敗します")
	return b
}

// open は1回分の接続、チャネル生成、キュー宣言を行う。
// 途中で失敗した場合は開いたリソースを閉じる。
func open(dial Dialer, cfg Config) (Connection, Channel, error) {
	conn, err := dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("接続に失敗: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("チャネルの生成に失敗: %w", err)
	}

	for _, queue := range cfg.Queues {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("キュー %s の宣言に失敗: %w", queue, err)
		}
	}
	return conn, ch, nil
}

// Ready はチャネルが確立されているかを返す。
func (b *Broker) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ch != nil
}

// IsOpen は接続が開いているかを返す。再接続は行わない。
func (b *Broker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && !b.conn.IsClosed()
}

// Publish はbodyを永続メッセージとしてデフォルトExchange経由でqueueに発行する。
func (b *Broker) Publish(ctx context.Context, queue string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch == nil {
		return ErrUnavailable
	}
	err := b.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("キュー %s への発行に失敗: %w", queue, err)
	}
	return nil
}

// Close はチャネルと接続を閉じる。
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch != nil {
		_ = b.ch.Close()
		b.ch = nil
	}
	if b.conn != nil {
		err := b.conn.Close()
		b.conn = nil
		return err
	}
	return nil
}
