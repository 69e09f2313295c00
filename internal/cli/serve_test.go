package cli

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServe runs serve in the background and reports its result.
func startServe(ctx context.Context, srv *http.Server) <-chan error {
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()
	return done
}

func TestServePortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := startServe(context.Background(), &http.Server{Addr: ln.Addr().String()})
	select {
	case err := <-done:
		assert.ErrorContains(t, err, "server error")
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after failing to listen")
	}
}

func TestServeShutsDownWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := startServe(ctx, &http.Server{Addr: "127.0.0.1:0"})

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}
