//go:build !darwin

package helper

import (
	"context"
	"fmt"
	"runtime"

	"github.com/codelane/codelane/internal/auth/login"
)

// Available reports whether this platform has an interactive login helper.
func Available() bool {
	return false
}

// Launch fails immediately on platforms without a helper. No process is
// spawned and no network request is made.
func (l *ProcessLauncher) Launch(ctx context.Context, authorizeURL string) (*login.HelperResult, error) {
	return nil, login.WrapError(login.ErrUnsupportedOS, fmt.Errorf("no login helper for %s", runtime.GOOS))
}
