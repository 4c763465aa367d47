// gp4par - GreenPAK-class CPLD place-and-route core
//
// A CLI driver for the do_par pipeline (build_graphs -> apply_loc ->
// initial_place -> anneal -> commit -> drc -> emit) over a consumed
// netlist and a target device.
//
// Examples:
//
//	gp4par run design.json --part SLG46620 --seed 1
//	gp4par run design.json --seed 1 --json
//	gp4par audit list --run design.json-seed1
//	gp4par settings show
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gp4par/gp4par/internal/gplog"
	"github.com/gp4par/gp4par/pkg/audit"
	"github.com/gp4par/gp4par/pkg/cli"
	"github.com/gp4par/gp4par/pkg/settings"
	"github.com/gp4par/gp4par/pkg/version"
)

// App holds CLI state shared across all commands.
type App struct {
	part      string
	seed      int64
	logLevel  string
	logFormat string
	jsonOut   bool

	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "gp4par",
	Short:         "GreenPAK-class CPLD place-and-route core",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `gp4par places and routes a consumed netlist onto a GreenPAK-class
CPLD device model.

  gp4par run <netlist.json> [--part SLG46620] [--seed N]
  gp4par audit list
  gp4par settings show`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			gplog.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.part == "" {
			app.part = app.settings.GetPart()
		}
		if app.seed == 0 {
			app.seed = app.settings.DefaultSeed
		}
		if app.logLevel == "" {
			app.logLevel = app.settings.GetLogLevel()
		}
		if app.logFormat == "" {
			app.logFormat = app.settings.GetLogFormat()
		}

		if err := gplog.SetLevel(app.logLevel); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", app.logLevel, err)
		}
		if app.logFormat == "json" {
			gplog.SetJSONFormat()
		}

		auditPath := app.settings.GetAuditLogPath(app.settings.DeviceDBDir)
		auditLogger, err := audit.NewFileLogger(auditPath, audit.RotationConfig{
			MaxSize:    int64(app.settings.GetAuditMaxSizeMB()) * 1024 * 1024,
			MaxBackups: app.settings.GetAuditMaxBackups(),
		})
		if err != nil {
			gplog.Logger.Warnf("could not initialize audit logging: %v", err)
		} else {
			audit.SetDefaultLogger(auditLogger)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.part, "part", "", "Target device part (default: "+settings.DefaultPartName+")")
	rootCmd.PersistentFlags().Int64Var(&app.seed, "seed", 0, "Annealer PRNG seed")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "Log level: debug, verbose, notice, warning, error")
	rootCmd.PersistentFlags().StringVar(&app.logFormat, "log-format", "", "Log format: text, json")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOut, "json", false, "JSON output for command results")

	rootCmd.AddCommand(runCmd, settingsCmd, auditCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings,
// help, or version command — these must work without a loaded device
// database or audit log.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// Color helpers — delegate to pkg/cli.
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
