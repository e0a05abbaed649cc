package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_WireFormat(t *testing.T) {
	body, err := New("http://x/doc.pdf", 5).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"http://x/doc.pdf","attemptsRemaining":5}`, string(body))
}

func TestJob_Next(t *testing.T) {
	j := New("http://x/doc.pdf", 3)

	assert.True(t, j.CanRetry())
	j = j.Next()
	assert.Equal(t, 2, j.AttemptsRemaining)
	assert.Equal(t, "http://x/doc.pdf", j.URL)
	assert.True(t, j.CanRetry())
	j = j.Next()
	assert.Equal(t, 1, j.AttemptsRemaining)
	assert.False(t, j.CanRetry())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Job
		wantErr bool
	}{
		{
			name: "valid",
			body: `{"url":"http://x/doc.pdf","attemptsRemaining":4}`,
			want: Job{URL: "http://x/doc.pdf", AttemptsRemaining: 4},
		},
		{
			name: "missing budget decodes as zero",
			body: `{"url":"http://x/doc.pdf"}`,
			want: Job{URL: "http://x/doc.pdf"},
		},
		{name: "not json", body: `urls=a`, wantErr: true},
		{
			name: "blank url is kept for the fetcher to fail",
			body: `{"url":"  ","attemptsRemaining":4}`,
			want: Job{URL: "  ", AttemptsRemaining: 4},
		},
		{name: "missing url", body: `{"attemptsRemaining":4}`, wantErr: true},
		{name: "legacy batch message", body: `{"urls":["http://x/doc.pdf"]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedJob)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
