package netutil

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/imamik/k3stage/internal/util/retry"
)

// dialTimeout bounds a single connection attempt.
const dialTimeout = 2 * time.Second

// WaitForPort waits for a TCP port to accept connections on host.
func WaitForPort(ctx context.Context, host string, port int, policy retry.PollPolicy) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: dialTimeout}

	err := retry.Poll(ctx, policy, func(ctx context.Context) (bool, error) {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return false, err
		}
		_ = conn.Close()
		return true, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", address, err)
	}
	return nil
}
