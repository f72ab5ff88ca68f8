package k3s

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/k3stage/internal/util/retry"
)

// WaitForFile polls until path exists and is non-empty.
func WaitForFile(ctx context.Context, path string, policy retry.PollPolicy) error {
	err := retry.Poll(ctx, policy, func(context.Context) (bool, error) {
		info, err := os.Stat(path)
		if err != nil {
			return false, err
		}
		return info.Size() > 0, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", path, err)
	}
	return nil
}
