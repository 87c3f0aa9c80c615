package platform

import (
	"os"
	"runtime"
	"strings"

	"codeberg.org/mutker/deviceapi/internal/errors"
	"codeberg.org/mutker/deviceapi/internal/logger"
)

// Platform identifies the class of device this process runs on. The set is
// closed; anything that cannot be identified falls back to Generic so that
// baseline health reporting keeps working.
type Platform string

const (
	MacOS    Platform = "macos"
	OrangePi Platform = "orangepi"
	Generic  Platform = "generic"
)

const (
	deviceTreeModelPath = "/proc/device-tree/model"
	osReleasePath       = "/etc/os-release"
)

func (p Platform) String() string {
	return string(p)
}

// ServiceManager returns the init system used to manage services on this
// platform.
func (p Platform) ServiceManager() string {
	if p == MacOS {
		return "launchctl"
	}

	return "systemctl"
}

// Parse maps a user-supplied platform name onto the closed set.
func Parse(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "macos", "darwin":
		return MacOS, true
	case "orangepi":
		return OrangePi, true
	case "generic", "linux":
		return Generic, true
	default:
		return "", false
	}
}

// Detect determines the active platform. An override always wins when it is
// recognized; an unrecognized override is a fatal configuration error rather
// than being silently ignored. Detection runs once at bootstrap and the
// result is immutable for the process lifetime.
func Detect(override string) (Platform, error) {
	if override != "" {
		p, ok := Parse(override)
		if !ok {
			return "", errors.New().WithData(errors.ErrUnknownPlatform, override)
		}

		logger.Info().Str("platform", p.String()).Msg("Platform forced by override")

		return p, nil
	}

	p := probe(runtime.GOOS, os.ReadFile)
	logger.Info().Str("platform", p.String()).Msg("Platform detected")

	return p, nil
}

// probe inspects OS identity and marker files. Split out from Detect so the
// signal matching can be tested independently of the host.
func probe(goos string, readFile func(string) ([]byte, error)) Platform {
	switch goos {
	case "darwin":
		return MacOS
	case "linux":
		if model, err := readFile(deviceTreeModelPath); err == nil {
			lower := strings.ToLower(string(model))
			if strings.Contains(lower, "orange") || strings.Contains(lower, "pi") {
				return OrangePi
			}
		}

		if release, err := readFile(osReleasePath); err == nil {
			lower := strings.ToLower(string(release))
			if strings.Contains(lower, "ubuntu") || strings.Contains(lower, "debian") {
				return OrangePi
			}
		}

		return Generic
	default:
		return Generic
	}
}
