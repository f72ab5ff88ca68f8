package cluster

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/k3s"
	"github.com/imamik/k3stage/internal/k8s"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/util/retry"
)

const readinessStage = "readiness"

// APIClient is the part of k8s.Client the readiness checks need.
type APIClient interface {
	WaitForAPIReady(ctx context.Context, policy retry.PollPolicy) error
	WaitForNodeRegistered(ctx context.Context, name string, policy retry.PollPolicy) error
}

// ClientFactory opens an API client from a kubeconfig path.
type ClientFactory func(kubeconfig string) (APIClient, error)

// NewKubeClient is the default ClientFactory.
func NewKubeClient(kubeconfig string) (APIClient, error) {
	return k8s.NewClientFromKubeconfig(kubeconfig)
}

// ReadinessStage waits for the node to be serving. Masters gate on the API
// and on their node object being registered. The Ready condition needs the
// CNI, which the platform stage installs afterwards.
type ReadinessStage struct {
	NewClient ClientFactory
}

// NewReadinessStage creates the readiness stage.
func NewReadinessStage() *ReadinessStage {
	return &ReadinessStage{NewClient: NewKubeClient}
}

// Name implements provisioning.Stage.
func (s *ReadinessStage) Name() string { return readinessStage }

// Run implements provisioning.Stage.
func (s *ReadinessStage) Run(ctx *provisioning.Context) error {
	timeout := ctx.Timeouts.APIReady
	policy := ctx.PollPolicy(timeout)

	if !ctx.Identity.IsMaster() {
		provisioning.LogWaiting(ctx.Observer, readinessStage, k3s.AgentService, timeout)
		return WaitForService(ctx, k3s.NewInstaller(ctx.Runner), k3s.AgentService, policy)
	}

	kubeconfig := ctx.State.KubeconfigPath
	if kubeconfig == "" {
		kubeconfig = k3s.ServerKubeconfigPath
	}
	client, err := s.NewClient(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	provisioning.LogWaiting(ctx.Observer, readinessStage, "API server", timeout)
	if err := client.WaitForAPIReady(ctx, policy); err != nil {
		return err
	}
	provisioning.LogWaiting(ctx.Observer, readinessStage, "node "+ctx.Identity.Name(), timeout)
	if err := client.WaitForNodeRegistered(ctx, ctx.Identity.Name(), policy); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] node %s is registered", readinessStage, ctx.Identity.Name())
	return nil
}

// WaitForService polls systemd until service is active.
func WaitForService(ctx context.Context, installer *k3s.Installer, service string, policy retry.PollPolicy) error {
	err := retry.Poll(ctx, policy, func(ctx context.Context) (bool, error) {
		return installer.ServiceActive(ctx, service)
	})
	if err != nil {
		return fmt.Errorf("waiting for %s to be active: %w", service, err)
	}
	return nil
}
