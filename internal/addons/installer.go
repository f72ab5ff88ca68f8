package addons

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/addons/helm"
	"github.com/imamik/k3stage/internal/util/retry"
)

// HelmClient is the part of helm.Client the installer uses.
type HelmClient interface {
	EnsureRepository(name, url string) (helm.RepoOutcome, error)
	Install(ctx context.Context, spec helm.ChartSpec, release, namespace string, values helm.Values) (helm.InstallOutcome, error)
}

// DaemonSetWaiter waits for a DaemonSet rollout.
type DaemonSetWaiter interface {
	WaitForDaemonSetReady(ctx context.Context, namespace, selector string, policy retry.PollPolicy) error
}

// Logger receives progress lines.
type Logger interface {
	Printf(format string, v ...any)
}

// Result is the outcome of one release.
type Result struct {
	Release   string
	Namespace string
	Repo      helm.RepoOutcome
	Outcome   helm.InstallOutcome
}

// Installer applies platform releases in order.
type Installer struct {
	Helm    HelmClient
	Cluster DaemonSetWaiter
	// Policy bounds DaemonSet waits.
	Policy retry.PollPolicy
	Log    Logger
	// OnResult is called after each release settles.
	OnResult func(Result)
	// OnWait is called before a DaemonSet wait starts.
	OnWait func(namespace, selector string)
}

// Apply installs releases in order and stops at the first failure. Results
// for releases settled before the failure are returned alongside the error.
func (i *Installer) Apply(ctx context.Context, releases []Release) ([]Result, error) {
	results := make([]Result, 0, len(releases))
	for _, r := range releases {
		res, err := i.apply(ctx, r)
		if err != nil {
			return results, fmt.Errorf("failed to install %s: %w", r.Name, err)
		}
		results = append(results, res)
		if i.OnResult != nil {
			i.OnResult(res)
		}
	}
	return results, nil
}

func (i *Installer) apply(ctx context.Context, r Release) (Result, error) {
	res := Result{Release: r.Name, Namespace: r.Namespace}

	repoOutcome, err := i.Helm.EnsureRepository(r.Chart.RepoName, r.Chart.Repository)
	if err != nil {
		return res, err
	}
	res.Repo = repoOutcome
	i.logf("repository %s (%s): %s", r.Chart.RepoName, r.Chart.Repository, repoOutcome)

	outcome, err := i.Helm.Install(ctx, r.Chart, r.Name, r.Namespace, r.Values)
	if err != nil {
		return res, err
	}
	res.Outcome = outcome
	i.logf("release %s/%s: %s", r.Namespace, r.Name, outcome)

	if r.WaitDaemonSet != "" {
		if i.OnWait != nil {
			i.OnWait(r.Namespace, r.WaitDaemonSet)
		}
		if err := i.Cluster.WaitForDaemonSetReady(ctx, r.Namespace, r.WaitDaemonSet, i.Policy); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (i *Installer) logf(format string, v ...any) {
	if i.Log != nil {
		i.Log.Printf(format, v...)
	}
}
