package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
)

// Build-time variables set with go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Display the version, commit hash, and build date of fileutil.`,
		Args:  rejectArgs(exit.InvalidArgumentSyntax, "unexpected argument"),
		Run: func(_ *cobra.Command, _ []string) {
			w := a.stdout
			fmt.Fprintf(w, "fileutil %s\n", version)
			fmt.Fprintf(w, "  commit:  %s\n", commit)
			fmt.Fprintf(w, "  built:   %s\n", date)
			fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
			fmt.Fprintf(w, "  os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
