package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func startServer(t *testing.T, gs *GracefulServer, ctx context.Context) (string, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()
	return "http://" + ln.Addr().String(), done
}

// TestGracefulServer_SIGHUP verifies SIGHUP reloads without stopping.
func TestGracefulServer_SIGHUP(t *testing.T) {
	gs := NewGracefulServer("", okHandler(), nil, time.Second)
	reloaded := make(chan struct{}, 1)
	gs.SetReloadFunc(func() error {
		reloaded <- struct{}{}
		return nil
	})

	_, done := startServer(t, gs, context.Background())
	time.Sleep(100 * time.Millisecond)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("Failed to send SIGHUP: %v", err)
	}
	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reload function was not called")
	}
	if gs.IsShuttingDown() {
		t.Error("server should keep running after SIGHUP")
	}

	if err := gs.Shutdown(); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}

// TestGracefulServer_ContextCancel verifies that cancelling the context
// stops serving.
func TestGracefulServer_ContextCancel(t *testing.T) {
	gs := NewGracefulServer("", okHandler(), nil, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	url, done := startServer(t, gs, ctx)

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
	if !gs.IsShuttingDown() {
		t.Error("IsShuttingDown() = false after cancel")
	}
}

func TestGracefulServer_Reload(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), nil, 0)
	if err := gs.Reload(); err != nil {
		t.Errorf("Reload() without function = %v", err)
	}

	called := false
	gs.SetReloadFunc(func() error {
		called = true
		return nil
	})
	if err := gs.Reload(); err != nil {
		t.Errorf("Reload() error = %v", err)
	}
	if !called {
		t.Error("reload function was not called")
	}

	sentinel := errors.New("bad config")
	gs.SetReloadFunc(func() error { return sentinel })
	if err := gs.Reload(); !errors.Is(err, sentinel) {
		t.Errorf("Reload() error = %v, want %v", err, sentinel)
	}
}
