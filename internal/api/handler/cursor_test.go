package handler

import (
	"testing"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/api/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCursor(t *testing.T) {
	in := &storage.RecordCursor{CreatedAt: time.Date(2025, 2, 1, 8, 0, 0, 123456000, time.UTC), ID: 42}

	out, err := DecodeRecordCursor(EncodeRecordCursor(in))
	require.NoError(t, err)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestDecodeRecordCursor(t *testing.T) {
	tests := []struct {
		name    string
		cursor  string
		wantNil bool
		wantErr bool
	}{
		{name: "empty", cursor: "", wantNil: true},
		{name: "not base64", cursor: "!!", wantErr: true},
		{name: "missing separator", cursor: "MTIz", wantErr: true},
		{name: "non numeric id", cursor: "MTIzfGFiYw", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := DecodeRecordCursor(tt.cursor)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNil, cursor == nil)
		})
	}
}
