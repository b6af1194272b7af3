//go:build windows

package ipc

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// DefaultEndpoint is the daemon's named pipe.
const DefaultEndpoint = `\\.\pipe\scrollwm`

func listen(endpoint string) (net.Listener, error) {
	return winio.ListenPipe(endpoint, nil)
}

func dial(endpoint string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(endpoint, &timeout)
}
