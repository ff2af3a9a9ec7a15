package webhooks

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeframe/internal/model"
)

func TestWorkerProcessOnce_SuccessAndSignature(t *testing.T) {
	var mu sync.Mutex
	var gotSig, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotSig = r.Header.Get(HeaderSignature)
		gotType = r.Header.Get(HeaderEventType)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	q := NewMemoryQueue()
	pub := NewPublisher(q, srv.URL, "secret")
	id, err := pub.Emit(context.Background(), model.Event{ID: "evt1", Type: model.EventSolutionExported, SolutionID: "s1"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	w := NewWorker(q, 3, nil)
	w.HTTP = srv.Client()
	w.processOnce(context.Background())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, model.EventSolutionExported, gotType)
	assert.True(t, VerifyHMAC("secret", gotBody, gotSig))
	assert.Contains(t, string(gotBody), `"solutionId":"s1"`)

	d, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, StatusDelivered, d.Status)
	assert.Equal(t, 1, d.Attempts)
	assert.Equal(t, http.StatusNoContent, d.ResponseCode)
}

func TestWorkerProcessOnce_RetryThenFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	q := NewMemoryQueue()
	id, err := q.Enqueue(context.Background(), model.EventSolutionExported, srv.URL, "", []byte(`{}`))
	require.NoError(t, err)

	w := NewWorker(q, 2, nil)
	w.HTTP = srv.Client()
	w.processOnce(context.Background())

	d, _ := q.Get(id)
	assert.Equal(t, StatusRetry, d.Status)
	assert.Equal(t, 1, d.Attempts)
	assert.Contains(t, d.LastError, "500")
	assert.True(t, d.NextAttemptAt.After(time.Now()))

	// not due yet
	due, err := q.FetchDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	q.now = func() time.Time { return time.Now().Add(time.Hour) }
	w.processOnce(context.Background())
	d, _ = q.Get(id)
	assert.Equal(t, StatusFailed, d.Status)
	assert.Equal(t, 2, d.Attempts)
}

func TestPublisherFiltering(t *testing.T) {
	q := NewMemoryQueue()

	id, err := NewPublisher(q, "", "").Emit(context.Background(), model.Event{Type: model.EventSolutionExported})
	require.NoError(t, err)
	assert.Empty(t, id)

	pub := NewPublisher(q, "http://example.invalid", "", model.EventSolutionExported)
	id, err = pub.Emit(context.Background(), model.Event{Type: model.EventSolutionLoaded})
	require.NoError(t, err)
	assert.Empty(t, id)

	id, err = pub.Emit(context.Background(), model.Event{Type: model.EventSolutionExported})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var nilPub *Publisher
	id, err = nilPub.Emit(context.Background(), model.Event{})
	assert.NoError(t, err)
	assert.Empty(t, id)
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(-1))
	assert.Equal(t, 8*time.Second, nextBackoff(3))
	assert.Equal(t, 1024*time.Second, nextBackoff(50))
}

func TestSignature(t *testing.T) {
	sig := SignHMAC("k", []byte("body"))
	assert.Len(t, sig, 64)
	assert.True(t, VerifyHMAC("k", []byte("body"), sig))
	assert.False(t, VerifyHMAC("k", []byte("other"), sig))
	assert.False(t, VerifyHMAC("k", []byte("body"), "zz"))
}
