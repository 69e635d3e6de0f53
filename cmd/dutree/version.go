package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionMain(command *cobra.Command, arguments []string) error {
	fmt.Printf("dutree %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run:   Mainify(versionMain),
}
