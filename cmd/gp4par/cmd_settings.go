package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gp4par/gp4par/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.gp4par/settings.yaml.

Settings provide defaults for context flags:
  - default_part: Used when --part is not specified
  - default_seed: Used when --seed is not specified
  - log_level, log_format: Logging defaults
  - devicedb_dir: Directory holding additional part tables

Examples:
  gp4par settings show
  gp4par settings set default_part SLG46620
  gp4par settings set default_seed 1
  gp4par settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}

		printSetting("default_part", s.DefaultPart)
		printSetting("default_seed", seedOrNotSet(s.DefaultSeed))
		printSetting("log_level", s.LogLevel)
		printSetting("log_format", s.LogFormat)
		printSetting("devicedb_dir", s.DeviceDBDir)
		printSetting("audit_log_path", s.AuditLogPath)

		w.Flush()
		return nil
	},
}

func seedOrNotSet(seed int64) string {
	if seed == 0 {
		return ""
	}
	return strconv.FormatInt(seed, 10)
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  default_part   - Target part used when --part is not specified
  default_seed   - Annealer seed used when --seed is not specified
  log_level      - debug, verbose, notice, warning, or error
  log_format     - text or json
  devicedb_dir   - Directory holding additional part tables
  audit_log_path - Audit log file path`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "default_part":
			s.DefaultPart = value
		case "default_seed":
			seed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid seed %q: %w", value, err)
			}
			s.DefaultSeed = seed
		case "log_level":
			s.LogLevel = value
		case "log_format":
			s.LogFormat = value
		case "devicedb_dir":
			s.DeviceDBDir = value
		case "audit_log_path":
			s.AuditLogPath = value
		default:
			return fmt.Errorf("unknown setting: %s", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s set to: %s\n", setting, value)
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd, settingsPathCmd)
}
