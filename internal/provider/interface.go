package provider

import "context"

// RawSample is a provider-specific bag of numeric and string fields. Samples
// are produced fresh on every call and consumed immediately by the collector;
// providers never retain them.
type RawSample struct {
	Numbers map[string]float64
	Strings map[string]string
}

// Well-known RawSample keys the collector knows how to normalize. Anything
// else a provider reports ends up in the extras map untouched.
const (
	KeyCPUPercent    = "cpu_percent"
	KeyMemoryPercent = "memory_percent"
	KeyMemoryUsed    = "memory_used_bytes"
	KeyMemoryTotal   = "memory_total_bytes"
	KeyDiskPercent   = "disk_percent"
	KeyDiskUsed      = "disk_used_bytes"
	KeyDiskTotal     = "disk_total_bytes"
	KeyUptimeSeconds = "uptime_seconds"
)

// HealthProvider gathers raw system metrics. Each method is an independent
// collection that may fail on its own; the collector invokes them
// concurrently and degrades missing results to the unknown sentinel.
type HealthProvider interface {
	CollectCPU(ctx context.Context) (RawSample, error)
	CollectMemory(ctx context.Context) (RawSample, error)
	CollectDisk(ctx context.Context) (RawSample, error)
	CollectUptime(ctx context.Context) (RawSample, error)
	CollectExtras(ctx context.Context) (RawSample, error)
}

// Camera describes an attached camera device.
type Camera struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

// CameraProvider enumerates camera devices.
type CameraProvider interface {
	ListCameras(ctx context.Context) ([]Camera, error)
}

// ScreenshotProvider captures the current display contents.
type ScreenshotProvider interface {
	// Capture returns the encoded image and its MIME type.
	Capture(ctx context.Context) ([]byte, string, error)
}

// PlayerStatus describes the media player service state.
type PlayerStatus struct {
	Service string `json:"service"`
	Running bool   `json:"running"`
	State   string `json:"state"`
}

// PlayerProvider controls the on-device media player service.
type PlayerProvider interface {
	Status(ctx context.Context) (PlayerStatus, error)
	Restart(ctx context.Context) error
}

// ActionProvider performs privileged device actions through the platform's
// service manager.
type ActionProvider interface {
	RestartService(ctx context.Context, name string) error
	Reboot(ctx context.Context) error
}
