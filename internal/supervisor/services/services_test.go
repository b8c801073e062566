// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*BroadcastService)(nil)
	_ suture.Service = (*WorkerService)(nil)
	_ suture.Service = (*HTTPServerService)(nil)
)

type fakeHub struct {
	called chan struct{}
}

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	close(f.called)
	<-ctx.Done()
	return ctx.Err()
}

func TestBroadcastService_DelegatesToHub(t *testing.T) {
	hub := &fakeHub{called: make(chan struct{})}
	svc := NewBroadcastService(hub)
	assert.Equal(t, "broadcast-hub", svc.String())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-hub.called
	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeWorker struct {
	ran chan struct{}
}

func (f *fakeWorker) Run(ctx context.Context) error {
	close(f.ran)
	<-ctx.Done()
	return ctx.Err()
}

func TestWorkerService_DelegatesToWorker(t *testing.T) {
	w := &fakeWorker{ran: make(chan struct{})}
	svc := NewWorkerService(w)
	assert.Equal(t, "download-worker", svc.String())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	<-w.ran
	cancel()
	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeHTTPServer struct {
	listenErr error
	block     chan struct{}
	stopped   chan struct{}
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{block: make(chan struct{}), stopped: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.block
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	close(f.stopped)
	close(f.block)
	return nil
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	server := newFakeHTTPServer()
	svc := NewHTTPServerService(server, time.Second)
	assert.Equal(t, "http-server", svc.String())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	err := <-errCh
	require.ErrorIs(t, err, context.Canceled)
	select {
	case <-server.stopped:
	default:
		t.Fatal("expected Shutdown to have been called")
	}
}

func TestHTTPServerService_StartupFailure(t *testing.T) {
	server := newFakeHTTPServer()
	server.listenErr = errors.New("bind: address in use")
	svc := NewHTTPServerService(server, time.Second)

	err := svc.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestHTTPServerService_DefaultTimeout(t *testing.T) {
	svc := NewHTTPServerService(newFakeHTTPServer(), 0)
	assert.Equal(t, 10*time.Second, svc.shutdownTimeout)
}
