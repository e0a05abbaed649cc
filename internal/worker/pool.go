package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/pdf-retriever/shared/rabbitmq"
)

// slotPrefetch keeps a single unacknowledged delivery per slot
const slotPrefetch = 1

// openSlots opens one consumer channel per slot
func (w *Worker) openSlots() ([]*rabbitmq.Consumer, error) {
	consumers := make([]*rabbitmq.Consumer, 0, w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		tag := fmt.Sprintf("%s-%d", w.workerID, i)
		consumer, err := w.broker.OpenConsumer(tag, slotPrefetch)
		if err != nil {
			w.closeSlots(consumers)
			return nil, fmt.Errorf("failed to open consumer slot %s: %w", tag, err)
		}
		consumers = append(consumers, consumer)
	}

	return consumers, nil
}

// spawnSlots starts a goroutine per consumer. The returned channel receives
// the first slot failure.
func (w *Worker) spawnSlots(loopCtx, procCtx context.Context, consumers []*rabbitmq.Consumer) <-chan error {
	errs := make(chan error, len(consumers))

	for i, consumer := range consumers {
		w.wg.Add(1)
		go func(slot int, consumer *rabbitmq.Consumer) {
			defer w.wg.Done()
			if err := w.slotLoop(loopCtx, procCtx, slot, consumer); err != nil {
				errs <- err
			}
		}(i, consumer)
	}

	w.logger.Info("Worker slots spawned successfully",
		slog.Int("slot_count", len(consumers)),
	)

	return errs
}

func (w *Worker) closeSlots(consumers []*rabbitmq.Consumer) {
	for _, consumer := range consumers {
		if err := consumer.Close(); err != nil {
			w.logger.Warn("Failed to close consumer",
				slog.String("consumer_tag", consumer.Tag),
				slog.Any("error", err),
			)
		}
	}
}
