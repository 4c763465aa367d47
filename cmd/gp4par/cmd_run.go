package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gp4par/gp4par/pkg/cli"
	"github.com/gp4par/gp4par/pkg/devicedb"
	"github.com/gp4par/gp4par/pkg/netlist"
	"github.com/gp4par/gp4par/pkg/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run <netlist.json>",
	Short: "Place and route a netlist onto the target device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		netlistPath := args[0]

		part := app.part
		if part == "" {
			part = settingsDefaultPart()
		}

		tbl, err := loadTable(part)
		if err != nil {
			return err
		}
		checksum, err := tableChecksum(tbl)
		if err != nil {
			return err
		}

		dev, err := devicedb.Build(tbl)
		if err != nil {
			return fmt.Errorf("building device model for part %q: %w", part, err)
		}

		data, err := os.ReadFile(netlistPath)
		if err != nil {
			return fmt.Errorf("reading netlist %q: %w", netlistPath, err)
		}
		nl, err := netlist.LoadJSON(data)
		if err != nil {
			return fmt.Errorf("parsing netlist %q: %w", netlistPath, err)
		}

		result, err := pipeline.Run(nl, dev, pipeline.Options{
			Part:             part,
			NetlistPath:      netlistPath,
			DeviceDBChecksum: checksum,
			Seed:             app.seed,
		})
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}

		if app.jsonOut {
			return json.NewEncoder(os.Stdout).Encode(struct {
				Success bool     `json:"success"`
				Cost    int      `json:"cost"`
				Errors  []string `json:"errors"`
				Warnings []string `json:"warnings"`
			}{
				Success:  result.Success,
				Cost:     result.Cost.Total(),
				Errors:   result.DRC.Errors,
				Warnings: result.DRC.Warnings,
			})
		}

		printRunResult(netlistPath, part, result)
		if !result.Success {
			return fmt.Errorf("design rule check failed (%d error(s))", len(result.DRC.Errors))
		}
		return nil
	},
}

// settingsDefaultPart returns the CLI's configured default part, or the
// package default if no settings file overrides it.
func settingsDefaultPart() string {
	if app.settings != nil {
		return app.settings.GetPart()
	}
	return ""
}

// loadTable resolves a part name to its device table. Only SLG46620's
// built-in table ships with the core (spec §1's retrieved scope); any
// other name is looked up under the configured device-database
// directory as a part.yaml file.
func loadTable(part string) (*devicedb.Table, error) {
	if part == "" || part == "SLG46620" {
		return devicedb.DefaultSLG46620(), nil
	}
	if app.settings == nil || app.settings.DeviceDBDir == "" {
		return nil, fmt.Errorf("unknown part %q: no devicedb_dir configured to look it up in", part)
	}
	path := filepath.Join(app.settings.DeviceDBDir, part+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading device table for part %q: %w", part, err)
	}
	return devicedb.Parse(data)
}

func tableChecksum(tbl *devicedb.Table) (string, error) {
	data, err := json.Marshal(tbl)
	if err != nil {
		return "", err
	}
	sum, err := devicedb.Checksum(data)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", sum), nil
}

func printRunResult(netlistPath, part string, result *pipeline.Result) {
	fmt.Printf("%s -> %s\n", netlistPath, bold(part))
	fmt.Printf("cost: %d (congestion=%d unroutable=%d)\n",
		result.Cost.Total(), result.Cost.Congestion, result.Cost.Unroutable)

	if len(result.DRC.Warnings) > 0 || len(result.DRC.Errors) > 0 {
		t := cli.NewTable("SEVERITY", "MESSAGE")
		for _, w := range result.DRC.Warnings {
			t.RowSeverity("WARNING", w)
		}
		for _, e := range result.DRC.Errors {
			t.RowSeverity("ERROR", e)
		}
		t.Flush()
	}

	if result.Success {
		fmt.Println(green("place and route succeeded."))
	} else {
		fmt.Println(red("place and route failed design rule checks."))
	}
}
