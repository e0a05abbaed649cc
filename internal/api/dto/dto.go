package dto

// DownloadRequest is the body of POST /download
type DownloadRequest struct {
	URLs []string `json:"urls"`
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	TotalRequests      int64                     `json:"totalRequests"`
	SuccessfulRequests int64                     `json:"successfulRequests"`
	Attempts           int64                     `json:"attempts"`
	Succeeded          int64                     `json:"succeeded"`
	Failed             int64                     `json:"failed"`
	TerminalFailures   int64                     `json:"terminalFailures"`
	TotalBytes         int64                     `json:"totalBytes"`
	AvgFetchDurationMs float64                   `json:"avgFetchDurationMs"`
	AvgSaveDurationMs  float64                   `json:"avgSaveDurationMs"`
	Destinations       map[string]DestinationDTO `json:"destinations"`
}

// DestinationDTO is the per-destination part of StatusResponse
type DestinationDTO struct {
	Attempts   int64 `json:"attempts"`
	Succeeded  int64 `json:"succeeded"`
	TotalBytes int64 `json:"totalBytes"`
}

// ListRecordsRequest holds the query parameters of GET /records
type ListRecordsRequest struct {
	URL         string `form:"url"`
	Status      string `form:"status" binding:"omitempty,oneof=success failed"`
	Destination string `form:"destination" binding:"omitempty,oneof=local objectstore"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=0"`
	Cursor      string `form:"cursor"`
}

// ListRecordsResponse is the body of GET /records
type ListRecordsResponse struct {
	Records    []RecordDTO `json:"records"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

// RecordDTO is one retrieval attempt
type RecordDTO struct {
	ID                int64  `json:"id"`
	URL               string `json:"url"`
	StorageName       string `json:"storage_name,omitempty"`
	Destination       string `json:"destination"`
	Location          string `json:"location,omitempty"`
	FetchDurationMs   int64  `json:"fetch_duration_ms"`
	SaveDurationMs    int64  `json:"save_duration_ms"`
	Status            string `json:"status"`
	ByteSize          int64  `json:"byte_size"`
	ContentType       string `json:"content_type,omitempty"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	Terminal          bool   `json:"terminal"`
	Error             string `json:"error,omitempty"`
	CreatedAt         string `json:"created_at"`
}
