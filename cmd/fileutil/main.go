// Package main provides the entry point for the fileutil CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/fileutil/pkg/fileutil/exit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(int(exit.CodeOf(err)))
}
