// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"regexp"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// ProcessState names a node in the C10 state machine.
type ProcessState string

const (
	StateInit        ProcessState = "init"
	StateStartServer ProcessState = "start_server"
	StateWaitReady   ProcessState = "wait_ready"
	StateStartTunnel ProcessState = "start_tunnel"
	StateExtractURL  ProcessState = "extract_url"
	StateSupervise   ProcessState = "supervise"
	StateStopped     ProcessState = "stopped"
)

// ProcessConfig configures the process supervisor (C10): the server and
// tunnel commands to boot, the poll/idle/terminate durations from the
// state machine in spec §4.10, and the webhook endpoint notified on
// every lifecycle transition.
type ProcessConfig struct {
	ServerBin  string
	ServerArgs []string
	TunnelBin  string
	TunnelArgs []string

	PollInterval   time.Duration
	IdleTimeout    time.Duration
	TerminateGrace time.Duration

	// WebhookURL receives a lifecycle notification on every tunnel URL
	// extraction and restart cycle boundary. Empty disables notification.
	WebhookURL string

	// TunnelURLPattern extracts the public URL from tunnel stdout.
	TunnelURLPattern *regexp.Regexp
}

// tunnelURLDefault matches a generic https URL on a line of tunnel
// stdout, the common shape for quick-tunnel output (e.g. cloudflared's
// trycloudflare.com links or ngrok's printed forwarding URL).
var tunnelURLDefault = regexp.MustCompile(`https://[^\s]+`)

// ProcessSupervisor boots and monitors the server and tunnel child
// processes, restarting them on crash or inactivity, and notifies an
// external webhook of lifecycle transitions. It is the OS-process
// counterpart to SupervisorTree, which supervises in-process goroutine
// services; ProcessSupervisor itself is run as one such service so both
// layers compose under one suture tree.
type ProcessSupervisor struct {
	cfg ProcessConfig

	mu           sync.Mutex
	state        ProcessState
	server       *managedProcess
	tunnel       *managedProcess
	lastActivity atomic.Int64 // unix nanos
	tunnelURL    string

	stopOnce sync.Once
	stopCh   chan struct{}
}

type managedProcess struct {
	cmd    *exec.Cmd
	stdout chan string
	done   chan struct{}
}

// NewProcessSupervisor constructs a ProcessSupervisor from cfg, applying
// defaults matching spec §4.10's 60s poll / 3h idle windows.
func NewProcessSupervisor(cfg ProcessConfig) *ProcessSupervisor {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 3 * time.Hour
	}
	if cfg.TerminateGrace == 0 {
		cfg.TerminateGrace = 5 * time.Second
	}
	if cfg.TunnelURLPattern == nil {
		cfg.TunnelURLPattern = tunnelURLDefault
	}
	return &ProcessSupervisor{
		cfg:    cfg,
		state:  StateInit,
		stopCh: make(chan struct{}),
	}
}

// Serve implements suture.Service: it drives the state machine until ctx
// is canceled or Stop is called, terminating both children on exit.
func (s *ProcessSupervisor) Serve(ctx context.Context) error {
	defer s.terminateAll()

	if err := s.startServer(ctx); err != nil {
		return fmt.Errorf("start_server: %w", err)
	}
	s.setState(StateWaitReady)

	if err := s.startTunnel(ctx); err != nil {
		return fmt.Errorf("start_tunnel: %w", err)
	}
	s.setState(StateExtractURL)

	s.setState(StateSupervise)
	return s.superviseLoop(ctx)
}

// Stop requests cooperative shutdown; Serve's ctx cancellation is the
// primary path, but an explicit control-port STOP also routes here.
func (s *ProcessSupervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *ProcessSupervisor) setState(st ProcessState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	logging.Info().Str("state", string(st)).Msg("supervisor state transition")
}

// State returns the current state machine node.
func (s *ProcessSupervisor) State() ProcessState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ProcessSupervisor) startServer(ctx context.Context) error {
	s.setState(StateStartServer)
	mp, err := spawn(s.cfg.ServerBin, s.cfg.ServerArgs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.server = mp
	s.mu.Unlock()
	s.lastActivity.Store(time.Now().UnixNano())
	go s.drainStdout(mp, func(string) { s.lastActivity.Store(time.Now().UnixNano()) })
	return nil
}

func (s *ProcessSupervisor) startTunnel(ctx context.Context) error {
	mp, err := spawn(s.cfg.TunnelBin, s.cfg.TunnelArgs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tunnel = mp
	s.mu.Unlock()

	go s.drainStdout(mp, func(line string) {
		if url := s.cfg.TunnelURLPattern.FindString(line); url != "" {
			s.mu.Lock()
			s.tunnelURL = url
			s.mu.Unlock()
			s.notify(fmt.Sprintf("tunnel URL extracted: %s", url))
		}
	})
	return nil
}

// drainStdout non-blockingly reads lines from mp's stdout channel,
// invoking onLine for each. This is the "drain non-blockingly and update
// last_activity" mechanism from spec §4.10.
func (s *ProcessSupervisor) drainStdout(mp *managedProcess, onLine func(string)) {
	for line := range mp.stdout {
		onLine(line)
	}
}

// superviseLoop implements the SUPERVISE state's 60s poll per spec §4.10.
func (s *ProcessSupervisor) superviseLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			if err := s.pollOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *ProcessSupervisor) pollOnce(ctx context.Context) error {
	s.mu.Lock()
	server, tunnel := s.server, s.tunnel
	s.mu.Unlock()

	if !alive(server) {
		logging.Warn().Msg("server process died, restarting both")
		s.notify("server died, restarting")
		s.terminate(tunnel)
		if err := s.startServer(ctx); err != nil {
			return err
		}
		return s.startTunnel(ctx)
	}

	if !alive(tunnel) {
		logging.Warn().Msg("tunnel process died, restarting tunnel only")
		s.notify("tunnel died, restarting")
		return s.startTunnel(ctx)
	}

	idleSince := time.Unix(0, s.lastActivity.Load())
	if time.Since(idleSince) > s.cfg.IdleTimeout {
		logging.Warn().Dur("idle_for", time.Since(idleSince)).Msg("server idle too long, restarting both")
		s.notify("server idle, restarting")
		s.terminate(tunnel)
		s.terminate(server)
		if err := s.startServer(ctx); err != nil {
			return err
		}
		return s.startTunnel(ctx)
	}

	return nil
}

func (s *ProcessSupervisor) terminateAll() {
	s.mu.Lock()
	server, tunnel := s.server, s.tunnel
	s.mu.Unlock()
	s.terminate(tunnel)
	s.terminate(server)
}

// terminate sends SIGTERM, waits TerminateGrace, then SIGKILL if still
// alive — the contract named in spec §4.10.
func (s *ProcessSupervisor) terminate(mp *managedProcess) {
	if mp == nil || mp.cmd.Process == nil {
		return
	}
	_ = mp.cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-mp.done:
		return
	case <-time.After(s.cfg.TerminateGrace):
	}

	_ = mp.cmd.Process.Kill()
	<-mp.done
}

func alive(mp *managedProcess) bool {
	if mp == nil {
		return false
	}
	select {
	case <-mp.done:
		return false
	default:
		return true
	}
}

// spawn starts bin with a dedicated process group so terminate can reach
// any children it spawns, and returns a managedProcess whose stdout
// channel is fed line by line until the process exits.
func spawn(bin string, args []string) (*managedProcess, error) {
	cmd := exec.Command(bin, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe for %s: %w", bin, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", bin, err)
	}

	mp := &managedProcess{
		cmd:    cmd,
		stdout: make(chan string, 64),
		done:   make(chan struct{}),
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)
		for scanner.Scan() {
			select {
			case mp.stdout <- scanner.Text():
			default:
			}
		}
		close(mp.stdout)
	}()

	go func() {
		_ = cmd.Wait()
		close(mp.done)
	}()

	return mp, nil
}

// notify posts a lifecycle message to the configured webhook. Disabled
// (silently skipped) when WebhookURL is empty, per the
// DISCORD_WEBHOOK_URL contract in spec §6.
func (s *ProcessSupervisor) notify(message string) {
	if s.cfg.WebhookURL == "" {
		return
	}
	payload, err := json.Marshal(map[string]string{"content": message})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal webhook payload")
		return
	}

	go func() {
		resp, err := http.Post(s.cfg.WebhookURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			logging.Warn().Err(err).Msg("webhook notification failed")
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			logging.Warn().Int("status", resp.StatusCode).Msg("webhook notification returned non-2xx")
		}
	}()
}

// TunnelURL returns the most recently extracted public URL, or "" if
// none has been observed yet.
func (s *ProcessSupervisor) TunnelURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tunnelURL
}
