// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func TestControlPort_StopCommandTriggersCallback(t *testing.T) {
	port := freePort(t)
	stopped := make(chan struct{})
	cp := NewControlPort(port, func() { close(stopped) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cp.Serve(ctx)

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("STOP\n"))
	require.NoError(t, err)

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("stop callback was not invoked")
	}
}

func TestControlPort_IgnoresUnknownCommands(t *testing.T) {
	port := freePort(t)
	stopped := make(chan struct{})
	cp := NewControlPort(port, func() { close(stopped) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cp.Serve(ctx)

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, time.Second, 10*time.Millisecond)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer conn.Close()
	_, _ = conn.Write([]byte("PING\n"))

	select {
	case <-stopped:
		t.Fatal("stop callback should not fire for unknown commands")
	case <-time.After(100 * time.Millisecond):
	}
}
