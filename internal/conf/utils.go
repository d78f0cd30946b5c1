// utils.go: helpers for config paths and value parsing
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// GetDefaultConfigPaths returns a list of directories to search for the
// config file, in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Local", "camsentry"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "camsentry"),
			"/etc/camsentry",
			exeDir,
		}
	}

	return configPaths, nil
}

// GetBasePath expands a possibly relative directory path and ensures the
// directory exists.
func GetBasePath(path string) string {
	basePath := strings.TrimSpace(path)
	if basePath == "" {
		basePath = "."
	}

	// Create the directory if it doesn't exist
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			fmt.Printf("error creating directory: %v\n", err)
		}
	}

	return basePath
}

// ParseStorageSize converts a human readable size such as "500GB" or
// "1.5TB" into bytes. An empty string means no limit and returns 0.
func ParseStorageSize(size string) (int64, error) {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0, nil
	}

	units := []struct {
		suffix     string
		multiplier float64
	}{
		{"TB", 1e12},
		{"GB", 1e9},
		{"MB", 1e6},
		{"KB", 1e3},
		{"B", 1},
	}

	upper := strings.ToUpper(size)
	for _, unit := range units {
		if strings.HasSuffix(upper, unit.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(upper, unit.suffix))
			num, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid storage size %q: %w", size, err)
			}
			if num < 0 {
				return 0, fmt.Errorf("invalid storage size %q: negative value", size)
			}
			return int64(num * unit.multiplier), nil
		}
	}

	// Bare number, interpret as bytes
	num, err := strconv.ParseInt(upper, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid storage size %q: %w", size, err)
	}
	if num < 0 {
		return 0, fmt.Errorf("invalid storage size %q: negative value", size)
	}
	return num, nil
}

// ParseRetentionPeriod converts a duration such as "30d", "24h" or "2w" into
// hours. A bare number is interpreted as days.
func ParseRetentionPeriod(period string) (int, error) {
	period = strings.TrimSpace(period)
	if period == "" {
		return 0, nil
	}

	unit := period[len(period)-1]
	numStr := period[:len(period)-1]

	var multiplier int
	switch unit {
	case 'h':
		multiplier = 1
	case 'd':
		multiplier = 24
	case 'w':
		multiplier = 24 * 7
	case 'm':
		multiplier = 24 * 30
	case 'y':
		multiplier = 24 * 365
	default:
		// No unit suffix, whole string is a number of days
		numStr = period
		multiplier = 24
	}

	num, err := strconv.Atoi(numStr)
	if err != nil {
		return 0, fmt.Errorf("invalid retention period %q: %w", period, err)
	}
	if num < 0 {
		return 0, fmt.Errorf("invalid retention period %q: negative value", period)
	}
	return num * multiplier, nil
}
