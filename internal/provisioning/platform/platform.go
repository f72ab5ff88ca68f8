package platform

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/k3stage/internal/addons"
	"github.com/imamik/k3stage/internal/addons/helm"
	"github.com/imamik/k3stage/internal/k3s"
	"github.com/imamik/k3stage/internal/k8s"
	"github.com/imamik/k3stage/internal/platform/shell"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/util/prerequisites"
)

const stageName = "platform"

// HelmFactory opens a Helm client against the cluster.
type HelmFactory func(ctx *provisioning.Context, kubeconfig []byte) (addons.HelmClient, error)

// WaiterFactory opens the client used for rollout waits.
type WaiterFactory func(kubeconfig []byte) (addons.DaemonSetWaiter, error)

// CLIEnsurer makes the helm binary available on the host.
type CLIEnsurer func(ctx context.Context, runner shell.Runner) (path string, installed bool, err error)

// NewHelmClient is the default HelmFactory.
func NewHelmClient(ctx *provisioning.Context, kubeconfig []byte) (addons.HelmClient, error) {
	return helm.NewClient(kubeconfig,
		helm.WithTimeout(ctx.Timeouts.HelmTimeout),
		helm.WithDebugLog(ctx.Observer.Printf),
	)
}

// NewWaiter is the default WaiterFactory.
func NewWaiter(kubeconfig []byte) (addons.DaemonSetWaiter, error) {
	return k8s.NewClientFromBytes(kubeconfig)
}

// EnsureCLI is the default CLIEnsurer.
func EnsureCLI(ctx context.Context, runner shell.Runner) (string, bool, error) {
	return addons.EnsureHelmCLI(ctx, runner, prerequisites.DefaultChecker())
}

// Stage installs Flannel, Longhorn, cert-manager and Rancher.
type Stage struct {
	NewHelm   HelmFactory
	NewWaiter WaiterFactory
	EnsureCLI CLIEnsurer
}

// NewStage creates the platform stage.
func NewStage() *Stage {
	return &Stage{NewHelm: NewHelmClient, NewWaiter: NewWaiter, EnsureCLI: EnsureCLI}
}

// Name implements provisioning.Stage.
func (s *Stage) Name() string { return stageName }

// Applies implements provisioning.Conditional. Only the initializer installs
// the platform.
func (s *Stage) Applies(ctx *provisioning.Context) bool {
	return ctx.Identity.IsInitializer()
}

// Checkpointed implements provisioning.Checkpointed.
func (s *Stage) Checkpointed() bool { return true }

// Run implements provisioning.Stage.
func (s *Stage) Run(ctx *provisioning.Context) error {
	path := ctx.State.KubeconfigPath
	if path == "" {
		path = k3s.ServerKubeconfigPath
	}
	kubeconfig, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	binary, installed, err := s.EnsureCLI(ctx, ctx.Runner)
	if err != nil {
		return err
	}
	if installed {
		provisioning.LogResourceCreated(ctx.Observer, stageName, "binary", binary)
	} else {
		provisioning.LogResourceExists(ctx.Observer, stageName, "binary", binary)
	}

	helmClient, err := s.NewHelm(ctx, kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create helm client: %w", err)
	}
	waiter, err := s.NewWaiter(kubeconfig)
	if err != nil {
		return fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	installer := &addons.Installer{
		Helm:    helmClient,
		Cluster: waiter,
		Policy:  ctx.PollPolicy(ctx.Timeouts.Rollout),
		Log:     ctx.Observer,
		OnWait: func(namespace, selector string) {
			provisioning.LogWaiting(ctx.Observer, stageName, "daemonset "+namespace+"/"+selector, ctx.Timeouts.Rollout)
		},
		OnResult: func(r addons.Result) { record(ctx, r) },
	}

	_, err = installer.Apply(ctx, addons.Releases(ctx.Config))
	return err
}

func record(ctx *provisioning.Context, r addons.Result) {
	resource := r.Namespace + "/" + r.Release
	if r.Outcome == helm.AlreadyInstalled {
		provisioning.LogResourceExists(ctx.Observer, stageName, "release", resource)
	} else {
		provisioning.LogResourceCreated(ctx.Observer, stageName, "release", resource)
	}
	ctx.Metrics.RecordRelease(r.Release, string(r.Outcome))
	ctx.State.Releases = append(ctx.State.Releases, provisioning.ReleaseResult{
		Name:      r.Release,
		Namespace: r.Namespace,
		Outcome:   string(r.Outcome),
	})
}
