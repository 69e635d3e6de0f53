package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sadopc/dutree/internal/platform"
	"github.com/sadopc/dutree/internal/util"
)

func drivesMain(command *cobra.Command, arguments []string) error {
	drives, err := platform.SystemDrives()
	if err != nil {
		return err
	}

	if drivesConfiguration.json {
		if drives == nil {
			drives = []platform.Drive{}
		}
		data, err := json.MarshalIndent(drives, "", "  ")
		if err != nil {
			return errors.Wrap(err, "unable to encode JSON output")
		}
		fmt.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(color.Output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MOUNT\tTYPE\tSIZE\tUSED\tFREE\tUSE%")
	for _, d := range drives {
		pct := util.Percent(int64(d.Used()), int64(d.Total))
		use := fmt.Sprintf("%.0f%%", pct)
		if pct >= 90 {
			use = color.RedString(use)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Path, d.FSType,
			humanize.IBytes(d.Total), humanize.IBytes(d.Used()), humanize.IBytes(d.Free),
			use)
	}
	return w.Flush()
}

var drivesCommand = &cobra.Command{
	Use:   "drives",
	Short: "List mounted drives and their usage",
	Args:  cobra.NoArgs,
	Run:   Mainify(drivesMain),
}

var drivesConfiguration struct {
	json bool
}

func init() {
	drivesCommand.Flags().BoolVar(&drivesConfiguration.json, "json", false, "Print JSON instead of a table")
}
