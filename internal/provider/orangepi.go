package provider

import (
	"context"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

const (
	defaultThermalZone   = "/sys/class/thermal/thermal_zone0/temp"
	defaultModelPath     = "/proc/device-tree/model"
	defaultPlayerService = "slideshow-player.service"
)

// OrangePiHealth extends the procfs baseline with SBC-specific extras:
// SoC temperature and the device-tree model string.
type OrangePiHealth struct {
	*LinuxHealth
	ThermalZonePath string
	ModelPath       string
}

func NewOrangePiHealth() *OrangePiHealth {
	return &OrangePiHealth{
		LinuxHealth:     NewLinuxHealth(),
		ThermalZonePath: defaultThermalZone,
		ModelPath:       defaultModelPath,
	}
}

func (p *OrangePiHealth) CollectExtras(ctx context.Context) (RawSample, error) {
	sample, err := p.LinuxHealth.CollectExtras(ctx)
	if err != nil {
		sample = RawSample{Numbers: map[string]float64{}}
	}
	if sample.Strings == nil {
		sample.Strings = map[string]string{}
	}

	if data, readErr := os.ReadFile(p.ThermalZonePath); readErr == nil {
		raw := strings.TrimSpace(string(data))
		if milli, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil {
			sample.Numbers["soc_temperature_c"] = milli / 1000
		}
	}

	if model, readErr := os.ReadFile(p.ModelPath); readErr == nil {
		sample.Strings["device_model"] = strings.TrimRight(string(model), "\x00\n ")
	}

	return sample, nil
}

// OrangePiScreenshot captures the X display with scrot.
type OrangePiScreenshot struct {
	Display string
	TempDir string
}

func NewOrangePiScreenshot() *OrangePiScreenshot {
	return &OrangePiScreenshot{
		Display: ":0",
		TempDir: os.TempDir(),
	}
}

func (s *OrangePiScreenshot) Capture(ctx context.Context) ([]byte, string, error) {
	errFactory := errors.New()

	file, err := os.CreateTemp(s.TempDir, "screenshot-*.png")
	if err != nil {
		return nil, "", errFactory.Wrap(ErrCollectFailed, err)
	}
	path := file.Name()
	file.Close()
	defer os.Remove(path)

	cmd := commandWithDisplay(ctx, s.Display, "scrot", "-o", path)
	if err := cmd.Run(); err != nil {
		return nil, "", errFactory.Wrap(ErrCommandFailed, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errFactory.Wrap(ErrCollectFailed, err)
	}

	return data, "image/png", nil
}

// OrangePiPlayer controls the slideshow player systemd unit.
type OrangePiPlayer struct {
	Service string
}

func NewOrangePiPlayer(service string) *OrangePiPlayer {
	if service == "" {
		service = defaultPlayerService
	}

	return &OrangePiPlayer{Service: service}
}

func (p *OrangePiPlayer) Status(ctx context.Context) (PlayerStatus, error) {
	state := runCommandLenient(ctx, "systemctl", "is-active", p.Service)
	if state == "" {
		state = "unknown"
	}

	return PlayerStatus{
		Service: p.Service,
		Running: state == "active",
		State:   state,
	}, nil
}

func (p *OrangePiPlayer) Restart(ctx context.Context) error {
	if _, err := runCommand(ctx, "systemctl", "restart", p.Service); err != nil {
		return err
	}

	return nil
}

// GenericHealth is the fallback for unrecognized environments. It reuses the
// procfs baseline and reports no platform extras.
type GenericHealth struct {
	*LinuxHealth
}

func NewGenericHealth() *GenericHealth {
	return &GenericHealth{LinuxHealth: NewLinuxHealth()}
}

func (p *GenericHealth) CollectExtras(_ context.Context) (RawSample, error) {
	return RawSample{}, nil
}
