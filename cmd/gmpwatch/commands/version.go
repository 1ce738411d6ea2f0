package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-23"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gmpwatch %s\n", Version)
		fmt.Printf("  build date : %s\n", BuildDate)
		fmt.Printf("  go version : %s\n", runtime.Version())
		fmt.Printf("  platform   : %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
