// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"context"
	"os/exec"
	"runtime"
	"syscall"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// SleepInhibitor holds a system-sleep inhibition for as long as the
// supervisor runs, released automatically on process exit. It is
// best-effort per spec §4.10: failure to acquire is logged, not fatal.
type SleepInhibitor struct {
	cmd *exec.Cmd
}

// AcquireSleepInhibitor starts a platform-appropriate inhibitor process.
// On Linux this holds a systemd-inhibit lock for the supervisor's own
// lifetime; on other platforms it is a no-op, since the underlying OS
// primitive differs and is out of scope for a single-user audio service.
func AcquireSleepInhibitor(ctx context.Context) *SleepInhibitor {
	if runtime.GOOS != "linux" {
		return &SleepInhibitor{}
	}

	bin, err := exec.LookPath("systemd-inhibit")
	if err != nil {
		logging.Warn().Err(err).Msg("sleep inhibitor unavailable, continuing without it")
		return &SleepInhibitor{}
	}

	cmd := exec.CommandContext(ctx, bin,
		"--what=sleep:idle",
		"--who=scuttle",
		"--why=downloading and serving audio",
		"sleep", "infinity",
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		logging.Warn().Err(err).Msg("failed to acquire sleep inhibitor")
		return &SleepInhibitor{}
	}
	go func() { _ = cmd.Wait() }()

	return &SleepInhibitor{cmd: cmd}
}

// Release terminates the inhibitor process, if one was acquired.
func (s *SleepInhibitor) Release() {
	if s == nil || s.cmd == nil || s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Signal(syscall.SIGTERM)
}
