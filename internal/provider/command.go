package provider

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

// runCommand executes a host command and returns its trimmed stdout. The
// caller's context bounds the call; a hung binary is killed when the context
// expires.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", errors.New().WithData(ErrCommandFailed, struct {
			Command string
			Error   string
		}{
			Command: name + " " + strings.Join(args, " "),
			Error:   err.Error(),
		})
	}

	return strings.TrimSpace(string(out)), nil
}

// runCommandLenient returns trimmed stdout regardless of exit status. Some
// tools, systemctl is-active among them, report state on stdout while using
// the exit code as a boolean.
func runCommandLenient(ctx context.Context, name string, args ...string) string {
	out, _ := exec.CommandContext(ctx, name, args...).Output()

	return strings.TrimSpace(string(out))
}

// commandWithDisplay prepares a command bound to an X display.
func commandWithDisplay(ctx context.Context, display, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "DISPLAY="+display)

	return cmd
}

func numberSample(pairs map[string]float64) RawSample {
	return RawSample{Numbers: pairs}
}
