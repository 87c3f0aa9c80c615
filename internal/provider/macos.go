package provider

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"strings"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

// MacHealth collects baseline metrics on macOS through sysctl, vm_stat and ps.
type MacHealth struct{}

func NewMacHealth() *MacHealth {
	return &MacHealth{}
}

// CollectCPU sums per-process CPU usage and normalizes by core count.
func (p *MacHealth) CollectCPU(ctx context.Context) (RawSample, error) {
	out, err := runCommand(ctx, "ps", "-A", "-o", "%cpu=")
	if err != nil {
		return RawSample{}, err
	}

	var sum float64
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		value, parseErr := strconv.ParseFloat(line, 64)
		if parseErr != nil {
			continue
		}
		sum += value
	}

	percent := sum / float64(runtime.NumCPU())

	return numberSample(map[string]float64{KeyCPUPercent: percent}), nil
}

func (p *MacHealth) CollectMemory(ctx context.Context) (RawSample, error) {
	totalOut, err := runCommand(ctx, "sysctl", "-n", "hw.memsize")
	if err != nil {
		return RawSample{}, err
	}

	total, err := strconv.ParseFloat(totalOut, 64)
	if err != nil {
		return RawSample{}, errors.New().Wrap(ErrParseFailed, err)
	}

	vmOut, err := runCommand(ctx, "vm_stat")
	if err != nil {
		return RawSample{}, err
	}

	used, err := parseVMStatUsedBytes(vmOut)
	if err != nil {
		return RawSample{}, err
	}

	percent := 0.0
	if total > 0 {
		percent = used / total * 100
	}

	return numberSample(map[string]float64{
		KeyMemoryUsed:    used,
		KeyMemoryTotal:   total,
		KeyMemoryPercent: percent,
	}), nil
}

func (p *MacHealth) CollectDisk(ctx context.Context) (RawSample, error) {
	return collectDiskUsage(ctx, "/")
}

func (p *MacHealth) CollectUptime(ctx context.Context) (RawSample, error) {
	out, err := runCommand(ctx, "sysctl", "-n", "kern.boottime")
	if err != nil {
		return RawSample{}, err
	}

	bootSec, err := parseBoottime(out)
	if err != nil {
		return RawSample{}, err
	}

	nowOut, err := runCommand(ctx, "date", "+%s")
	if err != nil {
		return RawSample{}, err
	}

	now, err := strconv.ParseFloat(nowOut, 64)
	if err != nil {
		return RawSample{}, errors.New().Wrap(ErrParseFailed, err)
	}

	uptime := now - bootSec
	if uptime < 0 {
		uptime = 0
	}

	return numberSample(map[string]float64{KeyUptimeSeconds: uptime}), nil
}

func (p *MacHealth) CollectExtras(ctx context.Context) (RawSample, error) {
	sample := RawSample{
		Numbers: map[string]float64{},
		Strings: map[string]string{},
	}

	if model, err := runCommand(ctx, "sysctl", "-n", "hw.model"); err == nil {
		sample.Strings["hardware_model"] = model
	}

	loadOut, err := runCommand(ctx, "sysctl", "-n", "vm.loadavg")
	if err != nil {
		return RawSample{}, err
	}

	load1, load5, load15, err := parseSysctlLoadavg(loadOut)
	if err != nil {
		return RawSample{}, err
	}

	sample.Numbers["load_1m"] = load1
	sample.Numbers["load_5m"] = load5
	sample.Numbers["load_15m"] = load15

	return sample, nil
}

// parseVMStatUsedBytes computes used memory from vm_stat page counters.
// Active, wired and compressed pages count as used.
func parseVMStatUsedBytes(out string) (float64, error) {
	errFactory := errors.New()

	pageSize := 4096.0
	pages := map[string]float64{}

	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "page size of") {
			fields := strings.Fields(line)
			for i, field := range fields {
				if field == "of" && i+1 < len(fields) {
					if size, err := strconv.ParseFloat(fields[i+1], 64); err == nil {
						pageSize = size
					}
				}
			}
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSuffix(strings.TrimSpace(parts[1]), ".")
		count, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		pages[key] = count
	}

	if len(pages) == 0 {
		return 0, errFactory.WithData(ErrParseFailed, "vm_stat produced no counters")
	}

	used := pages["Pages active"] + pages["Pages wired down"] + pages["Pages occupied by compressor"]

	return used * pageSize, nil
}

// parseBoottime extracts the seconds field from kern.boottime, which reads
// like "{ sec = 1700000000, usec = 0 } Tue Nov 14 ...".
func parseBoottime(out string) (float64, error) {
	errFactory := errors.New()

	idx := strings.Index(out, "sec =")
	if idx < 0 {
		return 0, errFactory.WithData(ErrParseFailed, "kern.boottime missing sec field")
	}

	rest := strings.TrimSpace(out[idx+len("sec ="):])
	end := strings.IndexAny(rest, ", }")
	if end < 0 {
		end = len(rest)
	}

	sec, err := strconv.ParseFloat(rest[:end], 64)
	if err != nil {
		return 0, errFactory.Wrap(ErrParseFailed, err)
	}

	return sec, nil
}

// parseSysctlLoadavg parses vm.loadavg output like "{ 1.52 1.70 1.88 }".
func parseSysctlLoadavg(out string) (load1, load5, load15 float64, err error) {
	errFactory := errors.New()

	trimmed := strings.Trim(out, "{} ")
	fields := strings.Fields(trimmed)
	if len(fields) < 3 {
		return 0, 0, 0, errFactory.WithData(ErrParseFailed, "vm.loadavg has too few fields")
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

// MacCamera enumerates cameras via system_profiler.
type MacCamera struct{}

func NewMacCamera() *MacCamera {
	return &MacCamera{}
}

type spCameraReport struct {
	SPCameraDataType []struct {
		Name     string `json:"_name"`
		ModelID  string `json:"spcamera_model-id"`
		UniqueID string `json:"spcamera_unique-id"`
	} `json:"SPCameraDataType"`
}

func (c *MacCamera) ListCameras(ctx context.Context) ([]Camera, error) {
	out, err := runCommand(ctx, "system_profiler", "SPCameraDataType", "-json")
	if err != nil {
		return nil, err
	}

	var report spCameraReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		return nil, errors.New().Wrap(ErrParseFailed, err)
	}

	cameras := make([]Camera, 0, len(report.SPCameraDataType))
	for _, entry := range report.SPCameraDataType {
		cameras = append(cameras, Camera{
			ID:    entry.UniqueID,
			Name:  entry.Name,
			Model: entry.ModelID,
		})
	}

	return cameras, nil
}
