// config.go: settings struct for the camsentry recording engine and the
// functions to load and persist them.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool         // true to enable this log
	Path     string       // path to log file
	Rotation RotationType // rotation type
	MaxSize  int64        // max size in bytes for RotationSize
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// MainSettings contains main settings for the application.
type MainSettings struct {
	Name string    // name of the node
	Log  LogConfig // main log configuration
}

// StorageSettings contains settings for the default recordings location and
// the cleanup policy applied to it.
type StorageSettings struct {
	Path                 string // recordings root directory
	MaxStorage           string // total size budget for recordings, e.g. "500GB" (empty = unbounded)
	RetentionDays        int    // maximum age of a recording in days, 0 disables age cleanup
	CleanupIntervalHours int    // interval between automatic cleanup passes
	Debug                bool   // true to enable cleanup debug logging
}

// RecordingSettings contains settings for segmented capture.
type RecordingSettings struct {
	SegmentDuration    int    // segment length in seconds
	RestartDelay       int    // seconds to wait before restarting a failed segment
	GracefulStopPeriod int    // seconds to wait for ffmpeg to quit before killing it
	FfmpegPath         string // path to ffmpeg binary, resolved at startup
	Transport          string // RTSP transport, tcp or udp
	Format             string // output container extension, e.g. "mkv"
}

// SupervisorSettings contains settings for the auto-recording supervisor.
type SupervisorSettings struct {
	PollInterval int // seconds between camera state polls
	StartupDelay int // seconds to wait before the first poll
}

// PoolSettings contains settings for the storage pool registry.
type PoolSettings struct {
	StatsInterval int // seconds between pool stats refreshes
}

// MetricsSettings contains settings for the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose Prometheus metrics
	Listen  string // listen address and port, e.g. "0.0.0.0:8090"
}

// OutputSettings contains database output settings.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to use SQLite
		Path    string // path to database file
	}
	MySQL struct {
		Enabled  bool   // true to use MySQL
		Username string // MySQL username
		Password string // MySQL password
		Database string // MySQL database name
		Host     string // MySQL host
		Port     string // MySQL port
	}
}

// Settings contains all configuration options for the camsentry engine.
type Settings struct {
	Debug bool // true to enable debug mode

	Main       MainSettings
	Storage    StorageSettings
	Recording  RecordingSettings
	Supervisor SupervisorSettings
	Pools      PoolSettings
	Metrics    MetricsSettings
	Output     OutputSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create one from the embedded defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// Setting returns the current settings instance, loading them on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SetSettings replaces the current settings instance without touching the
// configuration file. Used by commands that override configuration from
// flags and by tests.
func SetSettings(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	once.Do(func() {})
	settingsInstance = settings
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveSettings writes the current settings to the configuration file as YAML.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	if settingsInstance == nil {
		return fmt.Errorf("settings not loaded")
	}

	data, err := yaml.Marshal(settingsInstance)
	if err != nil {
		return fmt.Errorf("error marshaling settings to yaml: %w", err)
	}

	configPath := viper.ConfigFileUsed()
	if configPath == "" {
		configPaths, err := GetDefaultConfigPaths()
		if err != nil {
			return fmt.Errorf("error getting default config paths: %w", err)
		}
		configPath = filepath.Join(configPaths[0], "config.yaml")
	}

	// Write to a temporary file first so a failed write never truncates the
	// existing config.
	tempPath := configPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := os.Rename(tempPath, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}

	return nil
}
