package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrNotConnected is returned by operations attempted after Close or before connect.
var ErrNotConnected = errors.New("not connected to RabbitMQ")

// ErrPublisherClosed is returned when the publishing channel was closed by the broker.
var ErrPublisherClosed = errors.New("rabbitmq publisher channel closed")

// ErrPublishNacked is returned when the broker refuses to confirm a publishing.
var ErrPublishNacked = errors.New("publish not confirmed by broker")

// Config holds RabbitMQ connection configuration
type Config struct {
	URL                string // amqp:// URL; overrides Host/Port/User/Password/VHost when set
	Host               string
	Port               int
	User               string
	Password           string
	VHost              string
	ExchangeName       string
	ExchangeType       string
	ExchangeDurable    bool
	ExchangeAutoDelete bool
	QueueName          string
	QueueDurable       bool
	QueueAutoDelete    bool
	QueueExclusive     bool
	RoutingKey         string
	RetryAttempts      int
	RetryInterval      time.Duration
	Heartbeat          time.Duration
	ConnectionTimeout  time.Duration
	PublishRetries     int
	PublishRetryDelay  time.Duration
	PublishBackoffMult float64
}

// Client represents a RabbitMQ client. The publishing channel runs in confirm
// mode and is shared behind a mutex; consumers get their own channels.
type Client struct {
	config      *Config
	conn        *amqp.Connection
	channel     *amqp.Channel
	logger      *slog.Logger
	publishMu   sync.Mutex
	isConnected atomic.Bool
}

// NewClient connects, declares the topology and enables publisher confirms.
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	client := &Client{
		config: config,
		logger: logger,
	}

	if err := client.connect(); err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ client: %w", err)
	}

	return client, nil
}

// DSN returns the AMQP URL the client dials.
func (c *Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.VHost,
	}
	return u.String()
}

// connect establishes connection to RabbitMQ with a bounded, fixed-delay retry loop
func (c *Client) connect() error {
	var err error

	amqpConfig := amqp.Config{
		Heartbeat: c.config.Heartbeat,
		Locale:    "en_US",
	}
	if c.config.ConnectionTimeout > 0 {
		amqpConfig.Dial = amqp.DefaultDial(c.config.ConnectionTimeout)
	}

	attempts := c.config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		c.logger.Info("Connecting to RabbitMQ",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		c.conn, err = amqp.DialConfig(c.config.DSN(), amqpConfig)
		if err == nil {
			c.logger.Info("Successfully connected to RabbitMQ")
			break
		}

		c.logger.Error("Failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts {
			time.Sleep(c.config.RetryInterval)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := c.setup(); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("failed to setup exchange and queue: %w", err)
	}

	if err := c.channel.Confirm(false); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	c.isConnected.Store(true)
	go c.watchPublisher(c.channel.NotifyClose(make(chan *amqp.Error, 1)))

	c.logger.Info("RabbitMQ client initialized",
		slog.String("exchange", c.config.ExchangeName),
		slog.String("queue", c.config.QueueName),
		slog.String("routing_key", c.config.RoutingKey),
	)

	return nil
}

// watchPublisher marks the client disconnected once the publishing channel
// closes, so publishes fail fast instead of hitting a dead channel.
func (c *Client) watchPublisher(closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	if !c.isConnected.Swap(false) {
		return
	}
	if ok && amqpErr != nil {
		c.logger.Error("RabbitMQ publisher channel closed",
			slog.Int("code", amqpErr.Code),
			slog.String("reason", amqpErr.Reason),
		)
	}
}

// setup declares exchange, queue, and bindings
func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.config.ExchangeName,       // name
		c.config.ExchangeType,       // type
		c.config.ExchangeDurable,    // durable
		c.config.ExchangeAutoDelete, // auto-deleted
		false,                       // internal
		false,                       // no-wait
		nil,                         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.config.QueueName,       // name
		c.config.QueueDurable,    // durable
		c.config.QueueAutoDelete, // auto-delete
		c.config.QueueExclusive,  // exclusive
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.config.QueueName,    // queue name
		c.config.RoutingKey,   // routing key
		c.config.ExchangeName, // exchange
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	return nil
}

// Publish publishes a persistent message and blocks until the broker confirms it.
func (c *Client) Publish(ctx context.Context, body []byte, contentType string) error {
	if !c.isConnected.Load() {
		return ErrNotConnected
	}

	c.publishMu.Lock()
	confirmation, err := c.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		c.config.ExchangeName, // exchange
		c.config.RoutingKey,   // routing key
		false,                 // mandatory
		false,                 // immediate
		amqp.Publishing{
			ContentType:  contentType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	c.publishMu.Unlock()
	if errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrPublisherClosed, err)
	}
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to await publish confirmation: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}

	c.logger.Debug("Message published to RabbitMQ",
		slog.Int("body_size", len(body)),
		slog.String("content_type", contentType),
	)

	return nil
}

// PublishWithRetry publishes a message to RabbitMQ with retry logic and exponential backoff
func (c *Client) PublishWithRetry(ctx context.Context, body []byte, contentType string) error {
	if !c.isConnected.Load() {
		return ErrNotConnected
	}

	maxRetries := c.config.PublishRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	baseDelay := c.config.PublishRetryDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	backoffMult := c.config.PublishBackoffMult
	if backoffMult <= 0 {
		backoffMult = 2.0
	}

	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := c.Publish(ctx, body, contentType)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Successfully published message to RabbitMQ after retry",
					slog.Int("attempt", attempt+1),
					slog.Int("body_size", len(body)),
				)
			}
			return nil
		}

		lastErr = err
		if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrPublisherClosed) || ctx.Err() != nil {
			break
		}

		if attempt < maxRetries {
			c.logger.Warn("Failed to publish message to RabbitMQ, retrying...",
				slog.Int("attempt", attempt+1),
				slog.Int("max_retries", maxRetries),
				slog.Duration("retry_after", delay),
				slog.Any("error", err),
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("publish canceled: %w", ctx.Err())
			}
			delay = time.Duration(float64(delay) * backoffMult)
		}
	}

	c.logger.Error("Failed to publish message to RabbitMQ after all retries",
		slog.Int("attempts", maxRetries+1),
		slog.Any("error", lastErr),
	)
	return fmt.Errorf("failed to publish message after %d attempts: %w", maxRetries+1, lastErr)
}

// Consumer is a dedicated channel consuming the job queue with manual acks.
type Consumer struct {
	Tag        string
	Deliveries <-chan amqp.Delivery
	channel    *amqp.Channel
}

// Close cancels the consumer and closes its channel. Unacknowledged
// deliveries return to the queue.
func (c *Consumer) Close() error {
	if c.channel == nil {
		return nil
	}
	if err := c.channel.Cancel(c.Tag, false); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("failed to cancel consumer: %w", err)
	}
	if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("failed to close consumer channel: %w", err)
	}
	return nil
}

// OpenConsumer opens a channel limited to prefetch unacknowledged deliveries
// and starts consuming the configured queue on it.
func (c *Client) OpenConsumer(consumerTag string, prefetch int) (*Consumer, error) {
	if !c.isConnected.Load() {
		return nil, ErrNotConnected
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	if err := ch.Qos(
		prefetch, // prefetch count
		0,        // prefetch size
		false,    // global
	); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := ch.Consume(
		c.config.QueueName, // queue
		consumerTag,        // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to consume messages: %w", err)
	}

	c.logger.Info("Started consuming messages from RabbitMQ",
		slog.String("queue", c.config.QueueName),
		slog.String("consumer_tag", consumerTag),
		slog.Int("prefetch", prefetch),
	)

	return &Consumer{Tag: consumerTag, Deliveries: deliveries, channel: ch}, nil
}

// NotifyClose returns a channel that receives the error that closed either
// the connection or the publishing channel. It is closed without a value on a
// graceful Close.
func (c *Client) NotifyClose() <-chan *amqp.Error {
	connClosed := c.conn.NotifyClose(make(chan *amqp.Error, 1))
	chanClosed := c.channel.NotifyClose(make(chan *amqp.Error, 1))

	out := make(chan *amqp.Error, 1)
	go func() {
		defer close(out)
		var amqpErr *amqp.Error
		select {
		case amqpErr = <-connClosed:
		case amqpErr = <-chanClosed:
		}
		if amqpErr != nil {
			out <- amqpErr
		}
	}()
	return out
}

// Close closes the RabbitMQ connection
func (c *Client) Close() error {
	c.logger.Info("Closing RabbitMQ connection")

	c.isConnected.Store(false)

	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("Failed to close RabbitMQ channel",
				slog.Any("error", err),
			)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("Failed to close RabbitMQ connection",
				slog.Any("error", err),
			)
			return err
		}
	}

	c.logger.Info("RabbitMQ connection closed successfully")
	return nil
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.isConnected.Load() && c.conn != nil && !c.conn.IsClosed()
}

// HealthCheck fails when the broker connection is gone.
func (c *Client) HealthCheck(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}
