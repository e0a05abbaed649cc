package ingress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/cuongbtq/pdf-retriever/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	bodies   [][]byte
	failFrom int // publish number (1-based) that starts failing, 0 never
}

func (p *fakePublisher) PublishWithRetry(_ context.Context, body []byte, contentType string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if contentType != job.ContentType {
		return errors.New("unexpected content type")
	}
	if p.failFrom > 0 && len(p.bodies)+1 >= p.failFrom {
		return errors.New("channel/connection is not open")
	}
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *fakePublisher) jobs(t *testing.T) []job.Job {
	t.Helper()
	out := make([]job.Job, 0, len(p.bodies))
	for _, b := range p.bodies {
		j, err := job.Parse(b)
		require.NoError(t, err)
		out = append(out, j)
	}
	return out
}

func newTestGate(pub Publisher) *Gate {
	return NewGate(pub, 5, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGate_Submit(t *testing.T) {
	pub := &fakePublisher{}
	g := newTestGate(pub)

	urls := []string{"https://example.com/a.pdf", "http://example.org/b.pdf", "https://example.com/a.pdf"}
	require.NoError(t, g.Submit(context.Background(), urls))

	jobs := pub.jobs(t)
	require.Len(t, jobs, 3, "one job per URL, duplicates included")
	for i, j := range jobs {
		assert.Equal(t, urls[i], j.URL)
		assert.Equal(t, 5, j.AttemptsRemaining)
	}

	total, successful := g.Counters().Snapshot()
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), successful)
}

func TestGate_SubmitUninspectedURLs(t *testing.T) {
	pub := &fakePublisher{}
	g := newTestGate(pub)

	urls := []string{"http://x/ok.pdf", "ftp://x/doc.pdf", "example.com/doc.pdf", " http://x/doc.pdf", ""}
	require.NoError(t, g.Submit(context.Background(), urls))

	jobs := pub.jobs(t)
	require.Len(t, jobs, len(urls))
	for i, j := range jobs {
		assert.Equal(t, urls[i], j.URL)
		assert.Equal(t, 5, j.AttemptsRemaining)
	}

	total, successful := g.Counters().Snapshot()
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), successful)
}

func TestGate_SubmitRejections(t *testing.T) {
	tests := []struct {
		name string
		urls []string
	}{
		{name: "nil batch", urls: nil},
		{name: "empty batch", urls: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			g := newTestGate(pub)

			err := g.Submit(context.Background(), tt.urls)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNoURLs)

			assert.Empty(t, pub.bodies, "nothing is published for a rejected batch")
			total, successful := g.Counters().Snapshot()
			assert.Zero(t, total)
			assert.Zero(t, successful)
		})
	}
}

func TestGate_SubmitQueueUnavailable(t *testing.T) {
	pub := &fakePublisher{failFrom: 2}
	g := newTestGate(pub)

	err := g.Submit(context.Background(), []string{"https://example.com/1.pdf", "https://example.com/2.pdf", "https://example.com/3.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueUnavailable)
	assert.Contains(t, err.Error(), "not open")

	assert.Len(t, pub.bodies, 1, "jobs published before the failure stay queued")
	total, successful := g.Counters().Snapshot()
	assert.Equal(t, int64(1), total)
	assert.Zero(t, successful)
}

func TestGate_CountersAreConcurrencySafe(t *testing.T) {
	g := newTestGate(&fakePublisher{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Submit(context.Background(), []string{"https://example.com/a.pdf"})
		}()
	}
	wg.Wait()

	total, successful := g.Counters().Snapshot()
	assert.Equal(t, int64(50), total)
	assert.Equal(t, int64(50), successful)
}
