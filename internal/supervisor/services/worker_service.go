// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package services

import (
	"context"
)

// Runnable matches *worker.Worker's Run method. Declared as an interface
// here so this package never imports internal/worker.
type Runnable interface {
	Run(ctx context.Context) error
}

// WorkerService wraps the download worker (C8) as a suture.Service.
type WorkerService struct {
	worker Runnable
	name   string
}

// NewWorkerService wraps w for SupervisorTree.AddFetchWorkerService.
func NewWorkerService(w Runnable) *WorkerService {
	return &WorkerService{worker: w, name: "download-worker"}
}

// Serve implements suture.Service by delegating to worker.Run.
func (s *WorkerService) Serve(ctx context.Context) error {
	return s.worker.Run(ctx)
}

// String implements fmt.Stringer for suture's service log lines.
func (s *WorkerService) String() string {
	return s.name
}
