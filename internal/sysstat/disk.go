package sysstat

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// DiskUsage is one mount's space figures, in bytes. Filesystem is the
// backing device of the mount the path resolves to; it may be empty when
// the mount table does not cover the path.
type DiskUsage struct {
	Path       string
	Filesystem string
	Total      uint64
	Used       uint64
	Avail      uint64
}

// Util returns disk space utilization as a percentage, 0 for an empty
// filesystem.
func (d DiskUsage) Util() float64 {
	if d.Total == 0 {
		return 0
	}
	return 100.0 * float64(d.Used) / float64(d.Total)
}

// ReadDisks reads space usage for each requested path. Paths were already
// checked for existence by the request validator; a read failure here is a
// collection error and aborts the run.
func ReadDisks(ctx context.Context, paths []string) ([]DiskUsage, error) {
	partitions, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, &CollectionError{Source: "disk", Err: err}
	}

	usages := make([]DiskUsage, 0, len(paths))
	for _, path := range paths {
		usage, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			return nil, &CollectionError{Source: "disk", Err: err}
		}
		usages = append(usages, DiskUsage{
			Path:       path,
			Filesystem: deviceFor(partitions, path),
			Total:      usage.Total,
			Used:       usage.Used,
			Avail:      usage.Free,
		})
	}
	return usages, nil
}

// deviceFor resolves the backing device of the mount containing path by
// longest mountpoint prefix, the same resolution df performs.
func deviceFor(partitions []disk.PartitionStat, path string) string {
	path = filepath.Clean(path)
	var device string
	var matched int
	for _, p := range partitions {
		mp := filepath.Clean(p.Mountpoint)
		if path != mp && mp != "/" && !strings.HasPrefix(path, mp+"/") {
			continue
		}
		if len(mp) > matched || device == "" {
			matched = len(mp)
			device = p.Device
		}
	}
	return device
}
