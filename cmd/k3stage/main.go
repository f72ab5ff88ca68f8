// Package main is the entry point for the k3stage CLI.
//
// k3stage brings a set of pre-provisioned machines into one K3s cluster.
// Every machine runs the same binary against the same inventory; the
// machine's hostname decides whether it bootstraps the cluster, joins as an
// additional master or joins as a worker. The init node also installs the
// platform charts (Flannel, Longhorn, cert-manager and Rancher).
//
// Commands: init, prepare, run, status, version.
//
// For detailed usage information, run:
//
//	k3stage --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/k3stage/cmd/k3stage/commands"
	"github.com/imamik/k3stage/cmd/k3stage/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root().ExecuteContext(ctx)
	stop()

	code := handlers.ExitCode(err)
	if code != 0 {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}
