package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/worker/domain"
	"github.com/gabriel-vasile/mimetype"
)

const defaultUserAgent = "pdf-retriever/1.0"

// Document is a downloaded body spooled to a temporary file. It belongs to
// a single attempt and must be removed when the attempt ends.
type Document struct {
	Path        string
	Size        int64
	ContentType string
}

// Open opens the spooled body for reading
func (d *Document) Open() (*os.File, error) {
	return os.Open(d.Path)
}

// Remove deletes the spool file
func (d *Document) Remove() error {
	if err := os.Remove(d.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FetcherConfig holds HTTP download settings
type FetcherConfig struct {
	Timeout   time.Duration
	MaxBytes  int64 // 0 means unlimited
	SpoolDir  string
	UserAgent string
}

// HTTPFetcher downloads documents with a plain HTTP GET
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	spoolDir  string
	userAgent string
	logger    *slog.Logger
}

// NewHTTPFetcher creates a fetcher. An empty SpoolDir uses the system temp dir.
func NewHTTPFetcher(cfg FetcherConfig, logger *slog.Logger) *HTTPFetcher {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &HTTPFetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		maxBytes:  cfg.MaxBytes,
		spoolDir:  cfg.SpoolDir,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch downloads url into a spool file. Failures are returned as *domain.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/pdf, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, &domain.FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("%w: %d bytes announced", domain.ErrDocumentTooLarge, resp.ContentLength)}
	}

	spool, err := os.CreateTemp(f.spoolDir, "fetch-*.part")
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: fmt.Errorf("failed to create spool file: %w", err)}
	}
	doc := &Document{Path: spool.Name()}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}

	n, err := io.Copy(spool, body)
	closeErr := spool.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && f.maxBytes > 0 && n > f.maxBytes {
		err = fmt.Errorf("%w: more than %d bytes", domain.ErrDocumentTooLarge, f.maxBytes)
	}
	if err != nil {
		_ = doc.Remove()
		return nil, &domain.FetchError{URL: url, Err: err}
	}

	doc.Size = n
	doc.ContentType = detectContentType(doc.Path, resp.Header.Get("Content-Type"))

	f.logger.Debug("Document fetched",
		slog.String("url", url),
		slog.Int64("bytes", n),
		slog.String("content_type", doc.ContentType),
	)

	return doc, nil
}

// detectContentType sniffs the spooled bytes and falls back to the
// response header when the content is not recognised.
func detectContentType(path, header string) string {
	mtype, err := mimetype.DetectFile(path)
	if err == nil && !mtype.Is("application/octet-stream") {
		return mtype.String()
	}

	if header != "" {
		if mediaType, _, err := mime.ParseMediaType(header); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}
