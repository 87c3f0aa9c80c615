package provider

import (
	"context"
	"strconv"
	"strings"

	"codeberg.org/mutker/deviceapi/internal/errors"
)

// collectDiskUsage shells out to df, which speaks the same POSIX dialect on
// every platform we run on.
func collectDiskUsage(ctx context.Context, mount string) (RawSample, error) {
	out, err := runCommand(ctx, "df", "-P", "-k", mount)
	if err != nil {
		return RawSample{}, err
	}

	used, total, percent, err := parseDF(out)
	if err != nil {
		return RawSample{}, err
	}

	return numberSample(map[string]float64{
		KeyDiskUsed:    used,
		KeyDiskTotal:   total,
		KeyDiskPercent: percent,
	}), nil
}

// parseDF extracts used/total bytes and the capacity percentage from
// `df -P -k` output (header line followed by one row per filesystem).
func parseDF(out string) (used, total, percent float64, err error) {
	errFactory := errors.New()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0, 0, 0, errFactory.WithData(ErrParseFailed, "df output missing data row")
	}

	fields := strings.Fields(lines[1])
	if len(fields) < 5 {
		return 0, 0, 0, errFactory.WithData(ErrParseFailed, "df row has too few columns")
	}

	totalKB, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, 0, errFactory.Wrap(ErrParseFailed, err)
	}

	usedKB, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return 0, 0, 0, errFactory.Wrap(ErrParseFailed, err)
	}

	capacity := strings.TrimSuffix(fields[4], "%")
	percent, err = strconv.ParseFloat(capacity, 64)
	if err != nil {
		return 0, 0, 0, errFactory.Wrap(ErrParseFailed, err)
	}

	return usedKB * 1024, totalKB * 1024, percent, nil
}
