// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/whimsypingu/scuttle-go/internal/logging"
)

// ControlPort listens on a loopback TCP port for a single "STOP" line,
// per spec §6's "--control-port N internal stop signalling" contract. It
// has no authentication: it is meant for localhost use only, by the
// process that launched the supervisor.
type ControlPort struct {
	port int
	stop func()
}

// NewControlPort binds a ControlPort that calls stop when it receives a
// STOP command.
func NewControlPort(port int, stop func()) *ControlPort {
	return &ControlPort{port: port, stop: stop}
}

// Serve implements suture.Service: it accepts connections until ctx is
// canceled, handling each on its own goroutine.
func (c *ControlPort) Serve(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", c.port))
	if err != nil {
		return fmt.Errorf("control port listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return fmt.Errorf("control port accept: %w", err)
			}
		}
		go c.handle(conn)
	}
}

func (c *ControlPort) handle(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "STOP") {
			logging.Info().Msg("control port received STOP")
			c.stop()
			return
		}
	}
}
