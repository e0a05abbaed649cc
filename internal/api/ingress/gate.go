// Package ingress turns download submissions into queued retrieval jobs.
package ingress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cuongbtq/pdf-retriever/internal/job"
	"github.com/cuongbtq/pdf-retriever/internal/metrics"
)

var (
	// ErrNoURLs is returned for an empty submission
	ErrNoURLs = errors.New("no URLs provided")

	// ErrQueueUnavailable is returned when a job could not be published
	ErrQueueUnavailable = errors.New("queue unavailable")
)

// Publisher publishes a message and waits for the broker to confirm it
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Counters tracks submissions. Total counts every non-empty submission,
// Successful those whose jobs were all published.
type Counters struct {
	total      atomic.Int64
	successful atomic.Int64
}

// Snapshot returns the current totals
func (c *Counters) Snapshot() (total, successful int64) {
	return c.total.Load(), c.successful.Load()
}

// Gate enqueues one job per submitted URL.
type Gate struct {
	publisher   Publisher
	maxAttempts int
	counters    *Counters
	logger      *slog.Logger
}

// NewGate creates a Gate. Every job starts with maxAttempts attempts.
func NewGate(publisher Publisher, maxAttempts int, logger *slog.Logger) *Gate {
	return &Gate{
		publisher:   publisher,
		maxAttempts: maxAttempts,
		counters:    &Counters{},
		logger:      logger,
	}
}

// Counters returns the gate's submission counters
func (g *Gate) Counters() *Counters {
	return g.counters
}

// Submit enqueues a job for each URL and returns once all of them are
// confirmed by the broker. URLs are not inspected; a URL that cannot be
// fetched fails on the worker like any other download. A publish failure
// leaves already-published jobs in the queue.
func (g *Gate) Submit(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		metrics.ObserveIngressRequest("rejected")
		return ErrNoURLs
	}

	g.counters.total.Add(1)

	for i, raw := range urls {
		body, err := job.New(raw, g.maxAttempts).Marshal()
		if err == nil {
			err = g.publisher.PublishWithRetry(ctx, body, job.ContentType)
		}
		if err != nil {
			g.logger.Error("Failed to enqueue job",
				slog.String("url", raw),
				slog.Int("published", i),
				slog.Int("batch_size", len(urls)),
				slog.Any("error", err),
			)
			metrics.ObserveIngressRequest("unavailable")
			return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
		}
		metrics.ObserveJobPublished()
	}

	g.counters.successful.Add(1)
	metrics.ObserveIngressRequest("accepted")

	g.logger.Info("Download request enqueued",
		slog.Int("jobs", len(urls)),
		slog.Int("max_attempts", g.maxAttempts),
	)

	return nil
}
