package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/licensedesk/internal/config"
)

type fakeService struct {
	name     string
	startErr error
	stopped  atomic.Bool
	release  chan struct{}
}

func newFakeService(name string, startErr error) *fakeService {
	return &fakeService{name: name, startErr: startErr, release: make(chan struct{})}
}

func (s *fakeService) Name() string { return s.name }

func (s *fakeService) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	select {
	case <-ctx.Done():
	case <-s.release:
	}
	return nil
}

func (s *fakeService) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestRunnerStopsAllServicesOnCancel(t *testing.T) {
	api := newFakeService("http", nil)
	worker := newFakeService("worker", nil)
	runner := NewRunner(api, nil, worker)
	if names := runner.Services(); len(names) != 2 {
		t.Fatalf("nil services should be dropped, got %v", names)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx, time.Second, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancelled run should return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("runner did not stop")
	}
	if !api.stopped.Load() || !worker.stopped.Load() {
		t.Fatalf("all services should be stopped")
	}
}

func TestRunnerPropagatesStartFailure(t *testing.T) {
	boom := errors.New("bind failed")
	api := newFakeService("http", boom)
	worker := newFakeService("worker", nil)

	err := NewRunner(api, worker).Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want start error, got %v", err)
	}
	if !worker.stopped.Load() {
		t.Fatalf("sibling service should be stopped after failure")
	}
}

func TestRunnerTreatsEarlyExitAsFailure(t *testing.T) {
	worker := newFakeService("worker", nil)
	close(worker.release)

	err := NewRunner(worker).Run(context.Background(), time.Second, nil)
	if err == nil {
		t.Fatalf("service exiting on its own should be reported")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]string{"": ModeAll, " API ": ModeAPI, "worker": ModeWorker}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) want %s got %s err %v", in, want, got, err)
		}
	}
	if _, err := ParseMode("cron"); err == nil {
		t.Fatalf("unknown mode should fail")
	}
}

func TestBuildRunnerWorkerModeNeedsQueue(t *testing.T) {
	cfg := &config.Config{}
	if _, err := BuildRunner(cfg, ModeWorker, nil); err == nil {
		t.Fatalf("worker mode without queue should fail")
	}
	if _, err := BuildRunner(nil, ModeAPI, nil); err == nil {
		t.Fatalf("nil config should fail")
	}
}

func TestNormalizeOptionsUsesConfiguredShutdown(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.ShutdownTimeoutSeconds = 3
	opts := normalizeOptions(Options{Config: cfg})
	if opts.ShutdownTimeout != 3*time.Second || opts.Mode != ModeAll || opts.Logger == nil {
		t.Fatalf("unexpected options: %+v", opts)
	}
}
