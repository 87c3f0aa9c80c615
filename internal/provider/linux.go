package provider

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

const defaultCPUSampleInterval = 200 * time.Millisecond

// LinuxHealth collects baseline metrics from procfs. It backs both the
// OrangePi and the generic fallback providers.
type LinuxHealth struct {
	ProcRoot          string
	CPUSampleInterval time.Duration
}

func NewLinuxHealth() *LinuxHealth {
	return &LinuxHealth{
		ProcRoot:          "/proc",
		CPUSampleInterval: defaultCPUSampleInterval,
	}
}

// CollectCPU derives a usage percentage from two /proc/stat readings taken a
// short interval apart.
func (p *LinuxHealth) CollectCPU(ctx context.Context) (RawSample, error) {
	busy1, total1, err := p.readCPUTimes()
	if err != nil {
		return RawSample{}, err
	}

	select {
	case <-ctx.Done():
		return RawSample{}, errors.New().Wrap(errors.ErrTimeout, ctx.Err())
	case <-time.After(p.CPUSampleInterval):
	}

	busy2, total2, err := p.readCPUTimes()
	if err != nil {
		return RawSample{}, err
	}

	percent := 0.0
	if delta := total2 - total1; delta > 0 {
		percent = (busy2 - busy1) / delta * 100
	}

	return numberSample(map[string]float64{KeyCPUPercent: percent}), nil
}

func (p *LinuxHealth) CollectMemory(_ context.Context) (RawSample, error) {
	data, err := os.ReadFile(filepath.Join(p.ProcRoot, "meminfo"))
	if err != nil {
		return RawSample{}, errors.New().Wrap(ErrCollectFailed, err)
	}

	totalKB, availableKB, err := parseMeminfo(data)
	if err != nil {
		return RawSample{}, err
	}

	usedKB := totalKB - availableKB

	return numberSample(map[string]float64{
		KeyMemoryUsed:    usedKB * 1024,
		KeyMemoryTotal:   totalKB * 1024,
		KeyMemoryPercent: usedKB / totalKB * 100,
	}), nil
}

func (p *LinuxHealth) CollectDisk(ctx context.Context) (RawSample, error) {
	return collectDiskUsage(ctx, "/")
}

func (p *LinuxHealth) CollectUptime(_ context.Context) (RawSample, error) {
	data, err := os.ReadFile(filepath.Join(p.ProcRoot, "uptime"))
	if err != nil {
		return RawSample{}, errors.New().Wrap(ErrCollectFailed, err)
	}

	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return RawSample{}, errors.New().WithData(ErrParseFailed, "empty uptime file")
	}

	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return RawSample{}, errors.New().Wrap(ErrParseFailed, err)
	}

	return numberSample(map[string]float64{KeyUptimeSeconds: seconds}), nil
}

func (p *LinuxHealth) CollectExtras(_ context.Context) (RawSample, error) {
	data, err := os.ReadFile(filepath.Join(p.ProcRoot, "loadavg"))
	if err != nil {
		return RawSample{}, errors.New().Wrap(ErrCollectFailed, err)
	}

	load1, load5, load15, err := parseLoadavg(data)
	if err != nil {
		return RawSample{}, err
	}

	return numberSample(map[string]float64{
		"load_1m":  load1,
		"load_5m":  load5,
		"load_15m": load15,
	}), nil
}

func (p *LinuxHealth) readCPUTimes() (busy, total float64, err error) {
	data, err := os.ReadFile(filepath.Join(p.ProcRoot, "stat"))
	if err != nil {
		return 0, 0, errors.New().Wrap(ErrCollectFailed, err)
	}

	return parseProcStatCPU(data)
}

// parseProcStatCPU reads the aggregate "cpu" line. Idle and iowait time count
// as idle; everything else counts as busy.
func parseProcStatCPU(data []byte) (busy, total float64, err error) {
	errFactory := errors.New()

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 || fields[0] != "cpu" {
			continue
		}

		var idle float64
		for i, field := range fields[1:] {
			value, parseErr := strconv.ParseFloat(field, 64)
			if parseErr != nil {
				return 0, 0, errFactory.Wrap(ErrParseFailed, parseErr)
			}
			total += value
			// fields: user nice system idle iowait irq softirq steal ...
			if i == 3 || i == 4 {
				idle += value
			}
		}

		return total - idle, total, nil
	}

	return 0, 0, errFactory.WithData(ErrParseFailed, "no aggregate cpu line in stat")
}

func parseMeminfo(data []byte) (totalKB, availableKB float64, err error) {
	errFactory := errors.New()

	values := map[string]float64{}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		key := strings.TrimSuffix(fields[0], ":")
		if key != "MemTotal" && key != "MemAvailable" && key != "MemFree" {
			continue
		}

		value, parseErr := strconv.ParseFloat(fields[1], 64)
		if parseErr != nil {
			return 0, 0, errFactory.Wrap(ErrParseFailed, parseErr)
		}
		values[key] = value
	}

	totalKB, ok := values["MemTotal"]
	if !ok || totalKB <= 0 {
		return 0, 0, errFactory.WithData(ErrParseFailed, "meminfo missing MemTotal")
	}

	availableKB, ok = values["MemAvailable"]
	if !ok {
		// Older kernels lack MemAvailable
		availableKB = values["MemFree"]
	}

	return totalKB, availableKB, nil
}

func parseLoadavg(data []byte) (load1, load5, load15 float64, err error) {
	errFactory := errors.New()

	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return 0, 0, 0, errFactory.WithData(ErrParseFailed, "loadavg has too few fields")
	}

	loads := make([]float64, 3)
	for i := 0; i < 3; i++ {
		loads[i], err = strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0, 0, 0, errFactory.Wrap(ErrParseFailed, err)
		}
	}

	return loads[0], loads[1], loads[2], nil
}
