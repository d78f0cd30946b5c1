// defaults.go: viper defaults for user configurable settings
package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main settings
	viper.SetDefault("main.name", "CamSentry")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "camsentry.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10*1024*1024)

	// Storage settings
	viper.SetDefault("storage.path", "recordings/")
	viper.SetDefault("storage.maxstorage", "")
	viper.SetDefault("storage.retentiondays", 30)
	viper.SetDefault("storage.cleanupintervalhours", 1)
	viper.SetDefault("storage.debug", false)

	// Recording settings
	viper.SetDefault("recording.segmentduration", 300)
	viper.SetDefault("recording.restartdelay", 5)
	viper.SetDefault("recording.gracefulstopperiod", 5)
	viper.SetDefault("recording.ffmpegpath", "")
	viper.SetDefault("recording.transport", "tcp")
	viper.SetDefault("recording.format", "mkv")

	// Supervisor settings
	viper.SetDefault("supervisor.pollinterval", 30)
	viper.SetDefault("supervisor.startupdelay", 5)

	// Storage pool settings
	viper.SetDefault("pools.statsinterval", 60)

	// Metrics settings
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "0.0.0.0:8090")

	// Output settings
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "camsentry.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "camsentry")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "camsentry")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
}
