package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthassist/healthassist/internal/config"
)

func TestNew(t *testing.T) {
	s := New(config.ServerConfig{Host: "0.0.0.0", Port: 5002}, 60*time.Second, http.NotFoundHandler())

	assert.Equal(t, "0.0.0.0:5002", s.httpServer.Addr)
	assert.Equal(t, 135*time.Second, s.httpServer.WriteTimeout)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s := New(config.ServerConfig{Host: "127.0.0.1"}, time.Second, handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
