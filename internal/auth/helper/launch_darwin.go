//go:build darwin

package helper

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/codelane/codelane/internal/auth/login"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Available reports whether this platform has an interactive login helper.
func Available() bool {
	return true
}

// Launch runs the helper with the authorize URL and blocks until it exits.
// The helper gets a fresh ephemeral data directory so no cookies or cache
// survive past the process lifetime. The wait is a single terminal event:
// either the one-line result arrives together with a clean exit, or the exit
// status reports cancellation.
func (l *ProcessLauncher) Launch(ctx context.Context, authorizeURL string) (*login.HelperResult, error) {
	bin, err := l.resolveBinary()
	if err != nil {
		return nil, login.WrapError(login.ErrUnsupportedOS, err)
	}

	dataDir, err := os.MkdirTemp("", "codelane-helper-"+uuid.NewString())
	if err != nil {
		return nil, login.WrapError(login.ErrIO, err)
	}
	defer func() {
		_ = os.RemoveAll(dataDir)
	}()

	cmd := exec.CommandContext(ctx, bin, "--url", authorizeURL, "--data-dir", dataDir)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, login.WrapError(login.ErrAborted, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, login.WrapError(login.ErrAborted, err)
	}

	if err = cmd.Start(); err != nil {
		return nil, login.WrapError(login.ErrAborted, err)
	}
	log.Debugf("login helper started (pid %d)", cmd.Process.Pid)

	var firstLine string
	g := new(errgroup.Group)
	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)
		if scanner.Scan() {
			firstLine = scanner.Text()
		}
		// Drain the rest so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, stdout)
		return scanner.Err()
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				log.Debugf("helper: %s", line)
			}
		}
		return nil
	})

	readErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		// Timeout or cancellation: CommandContext already killed the child,
		// so no interactive surface is left dangling.
		return nil, login.WrapError(login.ErrAborted, ctx.Err())
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == ExitCodeWindowClosed {
			return nil, login.WrapError(login.ErrAborted, nil)
		}
		return nil, login.WrapError(login.ErrAborted, waitErr)
	}

	if readErr != nil {
		return nil, login.WrapError(login.ErrInvalidHelperResponse, readErr)
	}

	result, err := parseResult(firstLine)
	if err != nil {
		return nil, login.WrapError(login.ErrInvalidHelperResponse, err)
	}
	return result, nil
}
