package broker

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection はAMQP接続のうちBrokerが使う操作。
type Connection interface {
	Channel() (Channel, error)
	IsClosed() bool
	Close() error
}

// Channel はAMQPチャネルのうちBrokerが使う操作。
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Dialer はURLに接続してConnectionを返す。
type Dialer func(url string) (Connection, error)

// amqpConnection は*amqp.ConnectionをConnectionとして扱うアダプタ。
type amqpConnection struct {
	conn *amqp.Connection
}

// Channel は新しいチャネルを開く。
func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// IsClosed は接続が閉じているかを返す。
func (c *amqpConnection) IsClosed() bool {
	return c.conn.IsClosed()
}

// Close は接続を閉じる。
func (c *amqpConnection) Close() error {
	return c.conn.Close()
}

// DialAMQP はamqp.Dialで接続するDialer。
func DialAMQP(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpConnection{conn: conn}, nil
}
