// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package supervisor provides process supervision for scuttle using suture v4.

It covers two distinct kinds of supervision: an in-process goroutine tree
(SupervisorTree) for the download worker, broadcaster and process-layer
services, and an OS-process supervisor (ProcessSupervisor) that spawns and
restarts the HTTP/streaming server and the public tunnel binary as
subprocesses.

# Goroutine Supervision Tree

The tree organizes in-process services into three layers for failure
isolation:

	RootSupervisor ("scuttle")
	├── FetchWorkerSupervisor ("fetch-worker-layer")
	│   └── Worker (download queue consumer)
	├── BroadcastSupervisor ("broadcast-layer")
	│   └── Hub (websocket fan-out)
	└── ProcessSupervisor ("process-layer")
	    ├── ProcessSupervisor (C10 child-process lifecycle)
	    └── ControlPort (STOP listener)

This hierarchy ensures that a crash in the broadcaster doesn't stop the
worker from draining the download queue, and vice versa.

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - A fixed FailureBackoff pause prevents restart storms
  - Configurable failure thresholds and decay rates

Failure Isolation:
  - Services are organized into logical groups
  - Child supervisor failures don't propagate upward
  - Each layer has independent failure counting

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts
  - Event hooks via sutureslog adapter

# Usage Example

	import (
	    "log/slog"
	    "github.com/whimsypingu/scuttle-go/internal/supervisor"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddFetchWorkerService(w)
	    tree.AddBroadcastService(hub)
	    tree.AddProcessService(processSupervisor)

	    if err := tree.Serve(context.Background()); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,
	    FailureDecay:     30.0,
	    FailureBackoff:   15 * time.Second,
	    ShutdownTimeout:  10 * time.Second,
	}

Defaults match suture's production-ready values (5 failures, 30s decay,
15s backoff, 10s shutdown timeout).

# OS-Process Supervisor (C10)

ProcessSupervisor (process.go) drives a state machine that spawns the
server and tunnel binaries, extracts the tunnel's public URL by regex,
restarts either process on crash or idle timeout, notifies a webhook on
state changes, and exposes TunnelURL()/State() for callers. It satisfies
the same Serve(ctx) error contract as a goroutine-tree service, so it
composes directly with SupervisorTree via AddProcessService. ControlPort
(controlport.go) is an auxiliary service for the same layer: a loopback
TCP listener accepting a "STOP" line. SleepInhibitor (inhibitor.go) is not
a service: AcquireSleepInhibitor and Release wrap a best-effort
systemd-inhibit process so the host doesn't sleep while it is held.

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean stop (no restart); return a non-nil error to be
restarted; return promptly when ctx is canceled.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("service didn't stop: %v", svc)
	}

Common causes: goroutines not respecting context cancellation, blocked
network I/O without deadlines, mutex deadlocks during shutdown.

# Thread Safety

The SupervisorTree is safe for concurrent use: services can be added from
any goroutine, and multiple services can crash simultaneously without
corrupting tree state.
*/
package supervisor
