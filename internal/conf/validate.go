// validate.go: settings validation run after loading the config
package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for values the engine
// cannot run with. Validation errors are collected so the user sees
// every problem at once.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path must not be empty"))
	}
	if settings.Storage.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("storage.retentiondays must not be negative, got %d", settings.Storage.RetentionDays))
	}
	if settings.Storage.CleanupIntervalHours <= 0 {
		errs = append(errs, fmt.Errorf("storage.cleanupintervalhours must be positive, got %d", settings.Storage.CleanupIntervalHours))
	}
	if _, err := ParseStorageSize(settings.Storage.MaxStorage); err != nil {
		errs = append(errs, fmt.Errorf("storage.maxstorage: %w", err))
	}

	if settings.Recording.SegmentDuration <= 0 {
		errs = append(errs, fmt.Errorf("recording.segmentduration must be positive, got %d", settings.Recording.SegmentDuration))
	}
	if settings.Recording.RestartDelay < 0 {
		errs = append(errs, fmt.Errorf("recording.restartdelay must not be negative, got %d", settings.Recording.RestartDelay))
	}
	if settings.Recording.GracefulStopPeriod < 0 {
		errs = append(errs, fmt.Errorf("recording.gracefulstopperiod must not be negative, got %d", settings.Recording.GracefulStopPeriod))
	}
	switch settings.Recording.Transport {
	case "tcp", "udp":
	default:
		errs = append(errs, fmt.Errorf("recording.transport must be tcp or udp, got %q", settings.Recording.Transport))
	}
	if settings.Recording.Format == "" {
		errs = append(errs, errors.New("recording.format must not be empty"))
	}

	if settings.Supervisor.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("supervisor.pollinterval must be positive, got %d", settings.Supervisor.PollInterval))
	}
	if settings.Supervisor.StartupDelay < 0 {
		errs = append(errs, fmt.Errorf("supervisor.startupdelay must not be negative, got %d", settings.Supervisor.StartupDelay))
	}

	if settings.Pools.StatsInterval <= 0 {
		errs = append(errs, fmt.Errorf("pools.statsinterval must be positive, got %d", settings.Pools.StatsInterval))
	}

	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("output.sqlite and output.mysql cannot both be enabled"))
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("one of output.sqlite or output.mysql must be enabled"))
	}

	return errors.Join(errs...)
}
