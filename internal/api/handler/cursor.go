package handler

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/api/storage"
)

// DecodeRecordCursor parses an opaque page cursor. An empty string means the first page.
func DecodeRecordCursor(cursorStr string) (*storage.RecordCursor, error) {
	if cursorStr == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(cursorStr)
	if err != nil {
		return nil, err
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	var createdAt, id int64
	if _, err := fmt.Sscanf(parts[0], "%d", &createdAt); err != nil {
		return nil, fmt.Errorf("invalid createdAt in cursor: %w", err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &id); err != nil {
		return nil, fmt.Errorf("invalid id in cursor: %w", err)
	}

	return &storage.RecordCursor{
		CreatedAt: time.Unix(0, createdAt).UTC(),
		ID:        id,
	}, nil
}

// EncodeRecordCursor encodes the position of a page's last record.
func EncodeRecordCursor(cursor *storage.RecordCursor) string {
	cs := fmt.Sprintf("%d|%d", cursor.CreatedAt.UnixNano(), cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(cs))
}
