// Package worker consumes retrieval jobs, downloads the documents and
// stores them in the configured sink.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/job"
	"github.com/cuongbtq/pdf-retriever/shared/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrConnectionLost is returned by Start when the broker connection drops.
var ErrConnectionLost = errors.New("rabbitmq connection lost")

// ErrDeliveriesClosed is returned by Start when a consumer channel closes underneath a slot.
var ErrDeliveriesClosed = errors.New("rabbitmq delivery channel closed")

// Broker is the part of the RabbitMQ client the worker consumes from
type Broker interface {
	OpenConsumer(consumerTag string, prefetch int) (*rabbitmq.Consumer, error)
	NotifyClose() <-chan *amqp.Error
}

// JobProcessor runs one attempt for a job
type JobProcessor interface {
	Process(ctx context.Context, j job.Job) (Result, error)
}

// Config holds worker configuration
type Config struct {
	Logger          *slog.Logger
	Broker          Broker
	Processor       JobProcessor
	WorkerID        string
	Concurrency     int
	ShutdownTimeout time.Duration
}

// Worker runs Concurrency consumer slots. Each slot owns a channel with
// prefetch 1, so it holds at most one unacknowledged job.
type Worker struct {
	logger          *slog.Logger
	broker          Broker
	processor       JobProcessor
	workerID        string
	concurrency     int
	shutdownTimeout time.Duration
	wg              sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Worker{
		logger:          cfg.Logger,
		broker:          cfg.Broker,
		processor:       cfg.Processor,
		workerID:        cfg.WorkerID,
		concurrency:     concurrency,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Start consumes until ctx is canceled, then lets in-flight attempts finish
// within the shutdown timeout. It returns an error when the broker connection
// or a consumer is lost; the process is expected to exit and be restarted.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("shutdown_timeout", w.shutdownTimeout),
	)

	connClosed := w.broker.NotifyClose()

	consumers, err := w.openSlots()
	if err != nil {
		return err
	}

	// attempts outlive ctx so that shutdown can drain them
	procCtx, cancelProc := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelProc()

	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()

	slotErrs := w.spawnSlots(loopCtx, procCtx, consumers)

	var runErr error
	select {
	case <-ctx.Done():
		w.logger.Info("Worker context canceled, stopping...")
	case amqpErr, ok := <-connClosed:
		if ok && amqpErr != nil {
			runErr = fmt.Errorf("%w: %s", ErrConnectionLost, amqpErr.Error())
		} else {
			runErr = ErrConnectionLost
		}
	case runErr = <-slotErrs:
	}

	stopLoops()
	w.drain(cancelProc)
	w.closeSlots(consumers)

	if runErr != nil {
		w.logger.Error("Worker stopped with error", slog.Any("error", runErr))
		return runErr
	}

	w.logger.Info("Worker stopped")
	return nil
}

// drain waits for the slots to settle their in-flight deliveries. Attempts
// still running after the shutdown timeout are canceled and returned to the
// queue.
func (w *Worker) drain(cancelProc context.CancelFunc) {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	var timeout <-chan time.Time
	if w.shutdownTimeout > 0 {
		timer := time.NewTimer(w.shutdownTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-done:
		return
	case <-timeout:
		w.logger.Warn("Shutdown timeout reached, canceling in-flight attempts",
			slog.Duration("shutdown_timeout", w.shutdownTimeout),
		)
		cancelProc()
	}
	<-done
}
