// Package settings manages persistent user preferences for the gp4par
// CLI: default part, default seed, and logging/audit configuration
// (spec §A.2), loaded from a YAML file the way the device database
// fixtures are decoded (pkg/devicedb).
package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPartName is the part used when -part is not specified.
const DefaultPartName = "SLG46620"

const (
	// DefaultAuditMaxSizeMB is the default maximum audit log size in megabytes.
	DefaultAuditMaxSizeMB = 10

	// DefaultAuditMaxBackups is the default maximum number of rotated audit log files.
	DefaultAuditMaxBackups = 10

	// DefaultLogLevel is the logrus level name used when LogLevel is unset.
	DefaultLogLevel = "notice"

	// DefaultLogFormat selects the plain-text log formatter.
	DefaultLogFormat = "text"
)

// Settings holds persistent preferences for the gp4par CLI.
type Settings struct {
	// DefaultPart is the device part used when -part is not specified.
	DefaultPart string `yaml:"default_part,omitempty"`

	// DefaultSeed seeds the annealer's PRNG when -seed is not specified.
	// Zero means "derive a seed from the netlist path", not "seed with 0".
	DefaultSeed int64 `yaml:"default_seed,omitempty"`

	// LogLevel names one of the five severities in §6.3 (debug, verbose,
	// notice, warning, error).
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `yaml:"log_format,omitempty"`

	// DeviceDBDir overrides the directory gp4par loads per-part YAML
	// table data from.
	DeviceDBDir string `yaml:"devicedb_dir,omitempty"`

	// AuditLogPath overrides the default run-provenance log path.
	AuditLogPath string `yaml:"audit_log_path,omitempty"`

	// AuditMaxSizeMB is the max audit log size in MB before rotation.
	AuditMaxSizeMB int `yaml:"audit_max_size_mb,omitempty"`

	// AuditMaxBackups is the max number of rotated audit log files.
	AuditMaxBackups int `yaml:"audit_max_backups,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "gp4par_settings.yaml"
	}
	return filepath.Join(home, ".gp4par", "settings.yaml")
}

// Load reads settings from the default location.
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path. A missing file yields
// empty (default) settings rather than an error.
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes settings to the default location.
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path, creating parent
// directories as needed.
func (s *Settings) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetPart returns the default part with a fallback.
func (s *Settings) GetPart() string {
	if s.DefaultPart != "" {
		return s.DefaultPart
	}
	return DefaultPartName
}

// GetLogLevel returns the configured log level with a fallback.
func (s *Settings) GetLogLevel() string {
	if s.LogLevel != "" {
		return s.LogLevel
	}
	return DefaultLogLevel
}

// GetLogFormat returns the configured log format with a fallback.
func (s *Settings) GetLogFormat() string {
	if s.LogFormat != "" {
		return s.LogFormat
	}
	return DefaultLogFormat
}

// GetAuditLogPath returns the audit log path with a fallback default.
// The default depends on deviceDBDir: if non-empty, uses
// deviceDBDir/audit.log; otherwise uses /var/log/gp4par/audit.log.
func (s *Settings) GetAuditLogPath(deviceDBDir string) string {
	if s.AuditLogPath != "" {
		return s.AuditLogPath
	}
	if deviceDBDir != "" {
		return filepath.Join(deviceDBDir, "audit.log")
	}
	return "/var/log/gp4par/audit.log"
}

// GetAuditMaxSizeMB returns the audit max size in MB with a default of 10.
func (s *Settings) GetAuditMaxSizeMB() int {
	if s.AuditMaxSizeMB > 0 {
		return s.AuditMaxSizeMB
	}
	return DefaultAuditMaxSizeMB
}

// GetAuditMaxBackups returns the audit max backups with a default of 10.
func (s *Settings) GetAuditMaxBackups() int {
	if s.AuditMaxBackups > 0 {
		return s.AuditMaxBackups
	}
	return DefaultAuditMaxBackups
}

// Clear resets all settings to defaults.
func (s *Settings) Clear() {
	*s = Settings{}
}
