package network

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/util/netutil"
)

const stageName = "network"

// Stage applies the static address through NetworkManager.
type Stage struct{}

// NewStage creates the network stage.
func NewStage() *Stage {
	return &Stage{}
}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return stageName }

// Checkpointed implements provisioning.Checkpointed.
func (s *Stage) Checkpointed() bool { return true }

// Run implements provisioning.Stage.
func (s *Stage) Run(ctx *provisioning.Context) error {
	address := ctx.Identity.Address()
	bound, err := AddressBound(ctx, ctx.Runner, address)
	if err != nil {
		return err
	}
	if bound {
		provisioning.LogResourceExists(ctx.Observer, stageName, "address", address)
		return nil
	}

	netCfg := ctx.Config.Network
	if _, err := ctx.Runner.Run(ctx, ModifyCommand(netCfg.Connection, address, netCfg.Prefix, netCfg.Gateway, netCfg.DNS)); err != nil {
		return fmt.Errorf("failed to configure connection %s: %w", netCfg.Connection, err)
	}
	ctx.Observer.Printf("[%s] connection %s set to %s/%d", stageName, netCfg.Connection, address, netCfg.Prefix)

	if _, err := ctx.Runner.Run(ctx, ActivateCommand(netCfg.Connection, netCfg.ApplyDelay)); err != nil {
		return fmt.Errorf("failed to schedule activation of %s: %w", netCfg.Connection, err)
	}
	provisioning.LogResourceCreated(ctx.Observer, stageName, "address", address)

	return provisioning.Resume(
		fmt.Sprintf("%s activates on %s in %ds", address, netCfg.Connection, netCfg.ApplyDelay),
		fmt.Sprintf("reconnect to %s and run k3stage again", address),
	)
}

// AddressBound reports whether address is already assigned to an interface.
func AddressBound(ctx context.Context, runner shell.Runner, address string) (bool, error) {
	out, err := runner.Run(ctx, shell.Cmd("ip", "-o", "-4", "addr", "show"))
	if err != nil {
		return false, fmt.Errorf("failed to list addresses: %w", err)
	}
	return netutil.HasAddress(netutil.ParseIPv4Addrs(out), address)
}

// ModifyCommand switches connection to a manual IPv4 configuration.
func ModifyCommand(connection, address string, prefix int, gateway string, dns []string) shell.Command {
	args := []string{
		"connection", "modify", connection,
		"ipv4.method", "manual",
		"ipv4.addresses", address + "/" + strconv.Itoa(prefix),
	}
	if gateway != "" {
		args = append(args, "ipv4.gateway", gateway)
	}
	if len(dns) > 0 {
		args = append(args, "ipv4.dns", strings.Join(dns, ","))
	}
	return shell.Cmd("nmcli", args...)
}

// ActivateCommand brings connection up from a transient systemd timer after
// delay seconds, outside the calling session.
func ActivateCommand(connection string, delay int) shell.Command {
	return shell.Cmd("systemd-run",
		"--collect",
		fmt.Sprintf("--on-active=%ds", delay),
		"nmcli", "connection", "up", connection,
	)
}
