// disk_usage.go - filesystem usage queries
package diskmanager

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskSpaceInfo holds detailed disk space information.
type DiskSpaceInfo struct {
	TotalBytes uint64
	UsedBytes  uint64
	FreeBytes  uint64
}

// GetDiskUsage returns the disk usage percentage for the given path
func GetDiskUsage(path string) (float64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk stats for %s: %w", path, err)
	}
	return usage.UsedPercent, nil
}

// GetDetailedDiskUsage returns total, used, and free space in bytes for the
// filesystem containing the given path.
func GetDetailedDiskUsage(path string) (DiskSpaceInfo, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return DiskSpaceInfo{}, fmt.Errorf("failed to get disk stats for %s: %w", path, err)
	}
	return DiskSpaceInfo{
		TotalBytes: usage.Total,
		UsedBytes:  usage.Used,
		FreeBytes:  usage.Free,
	}, nil
}
