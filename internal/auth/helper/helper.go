// Package helper launches the platform-specific interactive login helper: a
// child process with an embedded browser surface that navigates to the
// authorize URL, intercepts the provider's redirect to the local callback URL
// pattern without performing a real request to it, and emits exactly one line
// of JSON carrying the authorization code and state.
//
// The helper runs across a trust boundary. Its stdout is the only channel out
// of it, and the only message accepted on that channel is the two-field
// result object; anything else fails the attempt.
package helper

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/codelane/codelane/internal/auth/login"
	"github.com/tidwall/gjson"
)

const (
	// BinaryName is the helper executable expected next to the CLI binary.
	BinaryName = "codelane-helper"

	// EnvBinaryOverride lets packaging place the helper elsewhere.
	EnvBinaryOverride = "CODELANE_HELPER"

	// ExitCodeWindowClosed is the distinguished status the helper exits with
	// when the user closes the window before completing authorization.
	ExitCodeWindowClosed = 10
)

// ProcessLauncher launches the helper binary as a child process. The Launch
// method is provided per platform; on platforms without a helper it fails
// with UnsupportedOs before any process is spawned.
type ProcessLauncher struct {
	// binaryPath overrides helper binary discovery when non-empty.
	binaryPath string
}

// NewLauncher constructs the platform launcher. binaryPath may be empty, in
// which case the helper is resolved at launch time.
func NewLauncher(binaryPath string) *ProcessLauncher {
	return &ProcessLauncher{binaryPath: strings.TrimSpace(binaryPath)}
}

// resolveBinary locates the helper executable: the explicit configuration
// override first, then the environment override, then the directory of the
// running executable. A missing helper means the platform is effectively
// unsupported.
func (l *ProcessLauncher) resolveBinary() (string, error) {
	if l.binaryPath != "" {
		if _, err := os.Stat(l.binaryPath); err != nil {
			return "", fmt.Errorf("configured helper %s not found: %w", l.binaryPath, err)
		}
		return l.binaryPath, nil
	}

	if override := strings.TrimSpace(os.Getenv(EnvBinaryOverride)); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("helper override %s not found: %w", override, err)
		}
		return override, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("cannot locate running executable: %w", err)
	}
	candidate := filepath.Join(filepath.Dir(exe), BinaryName)
	if _, err = os.Stat(candidate); err == nil {
		return candidate, nil
	}

	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("helper binary %s not found", BinaryName)
}

// parseResult validates a single line of helper stdout against the contract:
// a JSON object with exactly the string fields "code" and "state". Anything
// else, including extra fields, is rejected so a compromised helper cannot
// smuggle additional data across the boundary.
func parseResult(line string) (*login.HelperResult, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("helper produced no output")
	}
	if !gjson.Valid(line) {
		return nil, fmt.Errorf("helper output is not valid JSON")
	}

	parsed := gjson.Parse(line)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("helper output is not a JSON object")
	}

	var unexpected string
	parsed.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "code", "state":
			if value.Type != gjson.String {
				unexpected = fmt.Sprintf("field %s is not a string", key.String())
				return false
			}
			return true
		default:
			unexpected = fmt.Sprintf("unexpected field %s", key.String())
			return false
		}
	})
	if unexpected != "" {
		return nil, fmt.Errorf("helper output rejected: %s", unexpected)
	}

	code := parsed.Get("code").String()
	state := parsed.Get("state").String()
	if code == "" {
		return nil, fmt.Errorf("helper output missing code")
	}
	if state == "" {
		return nil, fmt.Errorf("helper output missing state")
	}

	return &login.HelperResult{Code: code, State: state}, nil
}
