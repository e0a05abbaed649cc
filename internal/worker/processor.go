package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/job"
	"github.com/cuongbtq/pdf-retriever/internal/metrics"
	"github.com/cuongbtq/pdf-retriever/internal/worker/domain"
	"github.com/cuongbtq/pdf-retriever/internal/worker/naming"
	"github.com/cuongbtq/pdf-retriever/internal/worker/sink"
)

// Fetcher downloads a document into a spool file
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Document, error)
}

// Recorder persists one metadata record per attempt
type Recorder interface {
	Record(ctx context.Context, rec *domain.Record) error
}

// Publisher hands a follow-up job to the queue
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// Result is the outcome of one attempt together with what was recorded.
type Result struct {
	Outcome domain.Outcome
	Record  *domain.Record
	URI     string
	// Err is the fetch or save failure for Requeued and Exhausted outcomes.
	Err error
}

// Processor runs a single attempt: fetch, allocate a name, save, record,
// and requeue on failure while budget remains.
type Processor struct {
	fetcher   Fetcher
	sink      sink.Sink
	recorder  Recorder
	publisher Publisher
	logger    *slog.Logger

	allocate func(rawURL string) (string, error)
	now      func() time.Time
}

// NewProcessor creates a Processor
func NewProcessor(fetcher Fetcher, s sink.Sink, recorder Recorder, publisher Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		fetcher:   fetcher,
		sink:      s,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
		allocate:  naming.Allocate,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Process runs one attempt for j. A non-nil error means the delivery must
// not be acknowledged: either ctx was canceled mid-attempt or the follow-up
// job could not be published.
func (p *Processor) Process(ctx context.Context, j job.Job) (Result, error) {
	rec := &domain.Record{
		URL:               j.URL,
		Destination:       p.sink.Destination(),
		AttemptsRemaining: j.AttemptsRemaining,
	}

	uri, err := p.attempt(ctx, j.URL, rec)
	if err != nil && ctx.Err() != nil {
		// shutting down; the broker will redeliver this job untouched
		return Result{}, fmt.Errorf("attempt interrupted: %w", ctx.Err())
	}

	if err == nil {
		rec.Status = domain.StatusSuccess
		rec.Terminal = true
		rec.Location = domain.NullString(uri)
		p.record(ctx, rec)

		p.logger.Info("Document stored",
			slog.String("url", j.URL),
			slog.String("uri", uri),
			slog.Int64("bytes", rec.ByteSize),
			slog.Int64("fetch_ms", rec.FetchDurationMs),
			slog.Int64("save_ms", rec.SaveDurationMs),
		)
		metrics.ObserveAttempt(domain.OutcomeSucceeded.String())
		return Result{Outcome: domain.OutcomeSucceeded, Record: rec, URI: uri}, nil
	}

	rec.Status = domain.StatusFailed
	rec.ErrorMessage = domain.NullString(err.Error())

	if !j.CanRetry() {
		rec.Terminal = true
		p.record(ctx, rec)

		p.logger.Error("Retrieval failed, no attempts left",
			slog.String("url", j.URL),
			slog.Any("error", err),
		)
		metrics.ObserveAttempt(domain.OutcomeExhausted.String())
		return Result{Outcome: domain.OutcomeExhausted, Record: rec, Err: err}, nil
	}

	p.record(ctx, rec)

	next := j.Next()
	body, marshalErr := next.Marshal()
	if marshalErr != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrRequeueFailed, marshalErr)
	}
	if pubErr := p.publisher.PublishWithRetry(ctx, body, job.ContentType); pubErr != nil {
		return Result{}, fmt.Errorf("%w: %w", domain.ErrRequeueFailed, pubErr)
	}

	p.logger.Warn("Retrieval failed, job requeued",
		slog.String("url", j.URL),
		slog.Int("attempts_remaining", next.AttemptsRemaining),
		slog.Any("error", err),
	)
	metrics.ObserveAttempt(domain.OutcomeRequeued.String())
	return Result{Outcome: domain.OutcomeRequeued, Record: rec, Err: err}, nil
}

// attempt runs the fetch and save phases, filling in rec as it goes.
func (p *Processor) attempt(ctx context.Context, url string, rec *domain.Record) (string, error) {
	fetch := domain.Phase{Start: p.now()}
	doc, err := p.fetcher.Fetch(ctx, url)
	fetch.End = p.now()
	rec.SetFetch(fetch)
	metrics.ObserveFetch(fetch.Duration())
	if err != nil {
		return "", err
	}
	defer func() {
		if err := doc.Remove(); err != nil {
			p.logger.Warn("Failed to remove spool file",
				slog.String("path", doc.Path),
				slog.Any("error", err),
			)
		}
	}()

	rec.ByteSize = doc.Size
	rec.ContentType = domain.NullString(doc.ContentType)

	name, err := p.allocate(url)
	if err != nil {
		return "", &domain.SaveError{Destination: p.sink.Destination(), Err: err}
	}
	rec.StorageName = domain.NullString(name)

	save := domain.Phase{Start: p.now()}
	uri, err := p.save(ctx, doc, name)
	save.End = p.now()
	rec.SetSave(save)
	if err != nil {
		return "", &domain.SaveError{Destination: p.sink.Destination(), Name: name, Err: err}
	}
	metrics.ObserveSave(p.sink.Destination(), save.Duration(), doc.Size)

	return uri, nil
}

func (p *Processor) save(ctx context.Context, doc *Document, name string) (string, error) {
	file, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open spool file: %w", err)
	}
	defer file.Close()

	return p.sink.Put(ctx, name, file, doc.Size, doc.ContentType)
}

// record writes rec and logs a failure instead of returning it, so a broken
// metadata store never holds up acknowledgement.
func (p *Processor) record(ctx context.Context, rec *domain.Record) {
	rec.CreatedAt = p.now()

	err := p.recorder.Record(context.WithoutCancel(ctx), rec)
	if err == nil {
		return
	}

	metrics.ObserveRecorderFailure()
	p.logger.Error("Failed to write retrieval record",
		slog.String("url", rec.URL),
		slog.String("status", rec.Status),
		slog.Any("error", err),
	)
}
