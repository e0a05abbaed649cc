package sink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cuongbtq/pdf-retriever/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGCS simulates the parts of the GCS JSON API the sink calls.
type fakeGCS struct {
	bucketStatus int
	uploadStatus int

	created  atomic.Bool
	uploaded atomic.Value
}

func (f *fakeGCS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.Contains(r.URL.Path, "/b/pdfs/o"):
		if f.uploadStatus != 0 {
			w.WriteHeader(f.uploadStatus)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.uploaded.Store(string(body))
		fmt.Fprintf(w, `{"name":%q,"bucket":"pdfs"}`, r.URL.Query().Get("name"))

	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/b/pdfs"):
		if f.bucketStatus != 0 && !f.created.Load() {
			w.WriteHeader(f.bucketStatus)
			fmt.Fprintf(w, `{"error":{"code":%d,"message":"bucket"}}`, f.bucketStatus)
			return
		}
		fmt.Fprintln(w, `{"name":"pdfs"}`)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/b"):
		f.created.Store(true)
		fmt.Fprintln(w, `{"name":"pdfs"}`)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestGCS(t *testing.T, fake *fakeGCS, projectID string) (*GCS, error) {
	t.Helper()

	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	return NewGCS(context.Background(), config.ObjectStoreConfig{
		Driver:    config.ObjectStoreGCS,
		Endpoint:  server.URL + "/storage/v1/",
		Bucket:    "pdfs",
		ProjectID: projectID,
	})
}

func TestNewGCS(t *testing.T) {
	t.Run("bucket exists", func(t *testing.T) {
		fake := &fakeGCS{}
		g, err := newTestGCS(t, fake, "")
		require.NoError(t, err)
		defer g.Close()

		assert.False(t, fake.created.Load())
		assert.Equal(t, "gs://pdfs", g.Location())
		assert.Equal(t, config.DestinationObjectStore, g.Destination())
	})

	t.Run("missing bucket is created", func(t *testing.T) {
		fake := &fakeGCS{bucketStatus: http.StatusNotFound}
		g, err := newTestGCS(t, fake, "my-project")
		require.NoError(t, err)
		defer g.Close()

		assert.True(t, fake.created.Load())
	})

	t.Run("missing bucket without project", func(t *testing.T) {
		fake := &fakeGCS{bucketStatus: http.StatusNotFound}
		_, err := newTestGCS(t, fake, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no project_id")
	})

	t.Run("access denied", func(t *testing.T) {
		fake := &fakeGCS{bucketStatus: http.StatusForbidden}
		_, err := newTestGCS(t, fake, "my-project")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check bucket pdfs")
	})
}

func TestGCS_Put(t *testing.T) {
	fake := &fakeGCS{}
	g, err := newTestGCS(t, fake, "")
	require.NoError(t, err)
	defer g.Close()

	uri, err := g.Put(context.Background(), "0190-a.pdf", strings.NewReader("%PDF-1.7 data"), 13, "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "gs://pdfs/0190-a.pdf", uri)
	body, _ := fake.uploaded.Load().(string)
	assert.Contains(t, body, "%PDF-1.7 data")
}

func TestGCS_PutError(t *testing.T) {
	fake := &fakeGCS{uploadStatus: http.StatusForbidden}
	g, err := newTestGCS(t, fake, "")
	require.NoError(t, err)
	defer g.Close()

	_, err = g.Put(context.Background(), "a.pdf", strings.NewReader("x"), 1, "")
	assert.Error(t, err)
}
