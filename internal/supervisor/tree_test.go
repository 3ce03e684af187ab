// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/coffeechat/internal/auth"
)

// flakyService fails a fixed number of times, then runs until canceled.
type flakyService struct {
	name   string
	fails  int32
	starts atomic.Int32
}

func (s *flakyService) Serve(ctx context.Context) error {
	if s.starts.Add(1) <= s.fails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *flakyService) String() string { return s.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	t.Parallel()

	tree, err := NewSupervisorTree(quietLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("root supervisor is nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want defaults %+v", tree.config, DefaultTreeConfig())
	}
	if tree.ShutdownTimeout() != 10*time.Second {
		t.Errorf("ShutdownTimeout() = %v", tree.ShutdownTimeout())
	}

	tree, _ = NewSupervisorTree(quietLogger(), TreeConfig{FailureBackoff: time.Second})
	if tree.config.FailureBackoff != time.Second || tree.config.FailureThreshold != 5 {
		t.Errorf("partial config not merged: %+v", tree.config)
	}
}

func TestSupervisorTree_StartsEveryLayer(t *testing.T) {
	t.Parallel()

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	storage := &flakyService{name: "storage"}
	messaging := &flakyService{name: "messaging"}
	api := &flakyService{name: "api"}
	tree.AddStorageService(storage)
	tree.AddMessagingService(messaging)
	tree.AddAPIService(api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	for _, svc := range []*flakyService{storage, messaging, api} {
		if svc.starts.Load() != 1 {
			t.Errorf("%s started %d times, want 1", svc.name, svc.starts.Load())
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop")
	}
}

func TestSupervisorTree_FailureIsolation(t *testing.T) {
	t.Parallel()

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  500 * time.Millisecond,
	})
	consumer := &flakyService{name: "queue-consumer", fails: 3}
	httpServer := &flakyService{name: "http-server"}
	tree.AddMessagingService(consumer)
	tree.AddAPIService(httpServer)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	time.Sleep(200 * time.Millisecond)
	if consumer.starts.Load() < 4 {
		t.Errorf("failing service started %d times, want at least 4", consumer.starts.Load())
	}
	if httpServer.starts.Load() != 1 {
		t.Errorf("api service restarted: %d starts", httpServer.starts.Load())
	}
	<-errCh
}

func TestSupervisorTree_RemoveMessagingService(t *testing.T) {
	t.Parallel()

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := &flakyService{name: "backplane"}
	token := tree.AddMessagingService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	time.Sleep(50 * time.Millisecond)
	if err := tree.RemoveMessagingService(token); err != nil {
		t.Fatalf("RemoveMessagingService() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if svc.starts.Load() != 1 {
		t.Errorf("removed service restarted: %d starts", svc.starts.Load())
	}

	cancel()
	<-errCh
}

func TestSupervisorTree_SessionCleanup(t *testing.T) {
	t.Parallel()

	store := auth.NewMemorySessionStore()
	expired := auth.NewSession(time.Millisecond)
	live := auth.NewSession(time.Hour)
	for _, s := range []*auth.Session{expired, live} {
		if err := store.Save(context.Background(), s); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	tree, _ := NewSupervisorTree(quietLogger(), TreeConfig{ShutdownTimeout: time.Second})
	tree.AddStorageService(auth.NewSessionCleanup(store, 10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-errCh

	if store.Len() != 1 {
		t.Fatalf("sessions = %d, want only the live one", store.Len())
	}
	if _, err := store.Get(context.Background(), live.ID); err != nil {
		t.Errorf("live session removed: %v", err)
	}
}
