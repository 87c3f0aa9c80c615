package provider

import (
	"context"

	"codeberg.org/mutker/deviceapi/internal/platform"
)

// SystemActions performs service restarts and reboots through the active
// platform's service manager.
type SystemActions struct {
	platform platform.Platform
}

func NewSystemActions(p platform.Platform) *SystemActions {
	return &SystemActions{platform: p}
}

func (a *SystemActions) RestartService(ctx context.Context, name string) error {
	if a.platform == platform.MacOS {
		// launchctl has no restart verb
		if _, err := runCommand(ctx, "launchctl", "stop", name); err != nil {
			return err
		}
		if _, err := runCommand(ctx, "launchctl", "start", name); err != nil {
			return err
		}

		return nil
	}

	if _, err := runCommand(ctx, "systemctl", "restart", name); err != nil {
		return err
	}

	return nil
}

func (a *SystemActions) Reboot(ctx context.Context) error {
	if a.platform == platform.MacOS {
		if _, err := runCommand(ctx, "shutdown", "-r", "now"); err != nil {
			return err
		}

		return nil
	}

	if _, err := runCommand(ctx, "systemctl", "reboot"); err != nil {
		return err
	}

	return nil
}
