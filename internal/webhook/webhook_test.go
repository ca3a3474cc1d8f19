package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_PostsPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := New(srv.URL, 5*time.Second)
	require.NoError(t, s.Send("rate limit detected"))
	assert.Equal(t, "ratelimit.notify", got.Event)
	assert.Equal(t, "rate limit detected", got.Message)
}

func TestSend_RetriesThenFails(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(srv.URL, 5*time.Second)
	err := s.Send("hello")
	require.Error(t, err)
	assert.Equal(t, 3, hits)
}

func TestNew_EmptyURLDisabled(t *testing.T) {
	s := New("", 0)
	assert.Nil(t, s)
	require.NoError(t, s.Send("ignored"))
}
