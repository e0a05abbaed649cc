package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/pdf-retriever/internal/job"
	"github.com/cuongbtq/pdf-retriever/shared/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

type taskResult struct {
	result Result
	err    error
}

// slotLoop takes one delivery at a time from the consumer and settles it
// before taking the next.
func (w *Worker) slotLoop(loopCtx, procCtx context.Context, slot int, consumer *rabbitmq.Consumer) error {
	w.logger.Info("Worker slot started",
		slog.Int("slot", slot),
		slog.String("consumer_tag", consumer.Tag),
	)

	for {
		select {
		case <-loopCtx.Done():
			w.logger.Info("Worker slot stopping - context canceled",
				slog.Int("slot", slot),
			)
			return nil

		case delivery, ok := <-consumer.Deliveries:
			if !ok {
				if loopCtx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w (consumer %s)", ErrDeliveriesClosed, consumer.Tag)
			}
			if loopCtx.Err() != nil {
				w.release(delivery)
				return nil
			}
			if err := w.handleDelivery(procCtx, slot, delivery); err != nil {
				return err
			}
		}
	}
}

// release returns a delivery taken after shutdown began without running it.
func (w *Worker) release(delivery amqp.Delivery) {
	if err := delivery.Nack(false, true); err != nil {
		w.logger.Error("Failed to NACK message",
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
			slog.Any("error", err),
		)
	}
}

// handleDelivery runs the attempt as its own task and settles the delivery
// from the result it reports. It returns an error when the broker link
// needed to requeue jobs is gone.
func (w *Worker) handleDelivery(ctx context.Context, slot int, delivery amqp.Delivery) error {
	j, err := job.Parse(delivery.Body)
	if err != nil {
		w.logger.Error("Rejecting malformed job message",
			slog.Int("slot", slot),
			slog.Uint64("delivery_tag", delivery.DeliveryTag),
			slog.String("body", string(delivery.Body)),
			slog.Any("error", err),
		)
		if rejectErr := delivery.Reject(false); rejectErr != nil {
			w.logger.Error("Failed to reject message",
				slog.Uint64("delivery_tag", delivery.DeliveryTag),
				slog.Any("error", rejectErr),
			)
		}
		return nil
	}

	w.logger.Info("Worker received job",
		slog.Int("slot", slot),
		slog.String("url", j.URL),
		slog.Int("attempts_remaining", j.AttemptsRemaining),
		slog.Bool("redelivered", delivery.Redelivered),
	)

	results := make(chan taskResult, 1)
	go func() {
		res, err := w.processor.Process(ctx, j)
		results <- taskResult{result: res, err: err}
	}()

	r := <-results
	w.settle(delivery, j, r)

	if r.err != nil && publisherLost(r.err) {
		return fmt.Errorf("%w: %v", ErrConnectionLost, r.err)
	}
	return nil
}

func publisherLost(err error) bool {
	return errors.Is(err, rabbitmq.ErrPublisherClosed) ||
		errors.Is(err, rabbitmq.ErrNotConnected) ||
		errors.Is(err, amqp.ErrClosed)
}

// settle acks every finished attempt. A delivery whose attempt was
// interrupted, or whose follow-up could not be published, goes back to the
// queue with its budget unchanged.
func (w *Worker) settle(delivery amqp.Delivery, j job.Job, r taskResult) {
	if r.err != nil {
		w.logger.Warn("Returning job to the queue",
			slog.String("url", j.URL),
			slog.Any("error", r.err),
		)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			w.logger.Error("Failed to NACK message",
				slog.String("url", j.URL),
				slog.Any("error", nackErr),
			)
		}
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		w.logger.Error("Failed to ACK message",
			slog.String("url", j.URL),
			slog.String("outcome", r.result.Outcome.String()),
			slog.Any("error", ackErr),
		)
		return
	}

	w.logger.Debug("Message ACKed",
		slog.String("url", j.URL),
		slog.String("outcome", r.result.Outcome.String()),
	)
}
