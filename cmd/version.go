package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// These variables are typically set during build time using ldflags
// Example: go build -ldflags "-X github.com/pb33f/harsize/cmd.Version=1.0.0"
var (
	Version   = "dev"     // Version of the application
	GitCommit = "unknown" // Git commit hash
	BuildDate = "unknown" // Build date
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Long:  `Display detailed version information about harsize.`,
	Run:   runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "harsize - HAR page weight reports\n")
	fmt.Fprintf(out, "Version:    %s\n", Version)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
	fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
