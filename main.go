package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huam/biocurate/cmd"
	"github.com/huam/biocurate/internal/buildinfo"
	"github.com/huam/biocurate/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Interrupts cancel in-flight downloads; image searches print what finished
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := cli.NewSession(os.Stdout, os.Stderr, buildinfo.Current())
	defer session.Close()

	rootCmd := cmd.RootCommand(session)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "biocurate: %v\n", err)
		return 1
	}
	return 0
}
