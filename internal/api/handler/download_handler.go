package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/api/dto"
	"github.com/cuongbtq/pdf-retriever/internal/api/ingress"
	"github.com/cuongbtq/pdf-retriever/internal/api/storage"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Download handles POST /download
func (h *DownloadHandler) Download(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", slog.String("error", err.Error()))
		c.String(http.StatusBadRequest, "No URLs provided")
		return
	}

	err := h.gate.Submit(c.Request.Context(), req.URLs)

	switch {
	case err == nil:
		c.String(http.StatusOK, "Request received")
	case errors.Is(err, ingress.ErrNoURLs):
		c.String(http.StatusBadRequest, "No URLs provided")
	default:
		h.logger.Error("Failed to submit download request", slog.String("error", err.Error()))
		c.String(http.StatusInternalServerError, "Internal Server Error")
	}
}

// Status handles GET /status
func (h *DownloadHandler) Status(c *gin.Context) {
	total, successful := h.gate.Counters().Snapshot()

	stats, destinations, err := h.storage.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get stats", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get status",
		})
		return
	}

	resp := dto.StatusResponse{
		TotalRequests:      total,
		SuccessfulRequests: successful,
		Attempts:           stats.Attempts,
		Succeeded:          stats.Succeeded,
		Failed:             stats.Failed,
		TerminalFailures:   stats.TerminalFailures,
		TotalBytes:         stats.TotalBytes,
		AvgFetchDurationMs: stats.AvgFetchDurationMs,
		AvgSaveDurationMs:  stats.AvgSaveDurationMs,
		Destinations:       make(map[string]dto.DestinationDTO, len(destinations)),
	}
	for _, d := range destinations {
		resp.Destinations[d.Destination] = dto.DestinationDTO{
			Attempts:   d.Attempts,
			Succeeded:  d.Succeeded,
			TotalBytes: d.TotalBytes,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// ListRecords handles GET /records
// Lists retrieval attempts, newest first, with cursor pagination
func (h *DownloadHandler) ListRecords(c *gin.Context) {
	var req dto.ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Warn("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeRecordCursor(req.Cursor)
	if err != nil {
		h.logger.Warn("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	records, err := h.storage.ListRecords(c.Request.Context(), storage.RecordFilter{
		URL:         req.URL,
		Status:      req.Status,
		Destination: req.Destination,
		PageSize:    req.PageSize,
		Cursor:      cursor,
	})
	if err != nil {
		h.logger.Error("Failed to list records", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list records",
		})
		return
	}

	hasMore := len(records) > req.PageSize
	if hasMore {
		records = records[:req.PageSize]
	}

	resp := dto.ListRecordsResponse{Records: make([]dto.RecordDTO, len(records))}
	for i, r := range records {
		resp.Records[i] = dto.RecordDTO{
			ID:                r.ID,
			URL:               r.URL,
			StorageName:       r.StorageName.String,
			Destination:       r.Destination,
			Location:          r.Location.String,
			FetchDurationMs:   r.FetchDurationMs,
			SaveDurationMs:    r.SaveDurationMs,
			Status:            r.Status,
			ByteSize:          r.ByteSize,
			ContentType:       r.ContentType.String,
			AttemptsRemaining: r.AttemptsRemaining,
			Terminal:          r.Terminal,
			Error:             r.ErrorMessage.String,
			CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		}
	}

	if hasMore {
		last := records[len(records)-1]
		resp.NextCursor = EncodeRecordCursor(&storage.RecordCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	c.JSON(http.StatusOK, resp)
}
