package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/pdf-retriever/internal/api/ingress"
	"github.com/cuongbtq/pdf-retriever/internal/api/model"
	"github.com/cuongbtq/pdf-retriever/internal/api/storage"
)

// Submitter enqueues download requests
type Submitter interface {
	Submit(ctx context.Context, urls []string) error
	Counters() *ingress.Counters
}

// StatsReader reads the retrieval log
type StatsReader interface {
	GetStats(ctx context.Context) (*model.Stats, []model.DestinationStats, error)
	ListRecords(ctx context.Context, filter storage.RecordFilter) ([]model.Retrieval, error)
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Gate    Submitter
	Storage StatsReader
	Service string
	Health  map[string]HealthChecker
}

// DownloadHandler handles download submissions and reporting
type DownloadHandler struct {
	logger  *slog.Logger
	gate    Submitter
	storage StatsReader
}

// NewDownloadHandler creates a new DownloadHandler instance
func NewDownloadHandler(deps *Dependencies) *DownloadHandler {
	return &DownloadHandler{
		logger:  deps.Logger,
		gate:    deps.Gate,
		storage: deps.Storage,
	}
}
