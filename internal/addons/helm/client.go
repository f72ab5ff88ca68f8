package helm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// DefaultTimeout bounds a single release install including its wait.
const DefaultTimeout = 10 * time.Minute

// InstallOutcome reports what Install did.
type InstallOutcome string

// Install outcomes.
const (
	Installed        InstallOutcome = "installed"
	AlreadyInstalled InstallOutcome = "already installed"
)

// StatusNotInstalled is reported by ReleaseStatus for unknown releases.
const StatusNotInstalled = "not installed"

// ErrReleaseBusy is returned when a release is mid-operation, for example
// left pending by an interrupted install.
var ErrReleaseBusy = errors.New("release has an operation in progress")

// reuseMessage is the install error for a name held by a live release.
const reuseMessage = "cannot re-use a name that is still in use"

// ChartLoader locates and loads a chart.
type ChartLoader func(spec ChartSpec) (*chart.Chart, error)

// Client provides Helm operations against one cluster.
type Client struct {
	kubeconfig []byte
	settings   *cli.EnvSettings
	timeout    time.Duration
	debug      action.DebugLog

	loadChart ChartLoader
	newConfig func(namespace string) (*action.Configuration, error)

	mu      sync.Mutex
	configs map[string]*action.Configuration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-release install timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDebugLog routes Helm's debug output.
func WithDebugLog(log func(format string, v ...any)) Option {
	return func(c *Client) {
		c.debug = log
	}
}

// WithSettings replaces the environment-derived Helm settings.
func WithSettings(settings *cli.EnvSettings) Option {
	return func(c *Client) {
		c.settings = settings
	}
}

// WithChartLoader replaces repository chart lookup, for example with charts
// built in memory.
func WithChartLoader(load ChartLoader) Option {
	return func(c *Client) {
		c.loadChart = load
	}
}

// NewClient creates a Helm client from kubeconfig bytes.
func NewClient(kubeconfig []byte, opts ...Option) (*Client, error) {
	if len(kubeconfig) == 0 {
		return nil, errors.New("kubeconfig cannot be empty")
	}
	c := &Client{
		kubeconfig: kubeconfig,
		settings:   cli.New(),
		timeout:    DefaultTimeout,
		debug:      func(string, ...any) {},
		configs:    make(map[string]*action.Configuration),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loadChart == nil {
		c.loadChart = c.locateChart
	}
	c.newConfig = c.initConfig
	return c, nil
}

// Settings returns the Helm environment settings in use.
func (c *Client) Settings() *cli.EnvSettings {
	return c.settings
}

func (c *Client) initConfig(namespace string) (*action.Configuration, error) {
	cfg := new(action.Configuration)
	if err := cfg.Init(NewRESTClientGetter(c.kubeconfig, namespace), namespace, "secret", c.debug); err != nil {
		return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
	}
	return cfg, nil
}

// actionConfig returns the cached configuration for namespace.
func (c *Client) actionConfig(namespace string) (*action.Configuration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg, ok := c.configs[namespace]; ok {
		return cfg, nil
	}
	cfg, err := c.newConfig(namespace)
	if err != nil {
		return nil, err
	}
	c.configs[namespace] = cfg
	return cfg, nil
}

func (c *Client) locateChart(spec ChartSpec) (*chart.Chart, error) {
	cp := action.ChartPathOptions{
		RepoURL: spec.Repository,
		Version: spec.Version,
	}
	chartPath, err := cp.LocateChart(spec.Name, c.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to locate chart %s in %s: %w", spec.Name, spec.Repository, err)
	}
	return loader.Load(chartPath)
}

// Install installs spec as release in namespace unless a deployed release
// of that name exists. A previously failed or uninstalled release is
// replaced.
func (c *Client) Install(ctx context.Context, spec ChartSpec, releaseName, namespace string, values Values) (InstallOutcome, error) {
	cfg, err := c.actionConfig(namespace)
	if err != nil {
		return "", err
	}

	last, err := latestRelease(cfg, releaseName)
	if err != nil {
		return "", err
	}
	replace := false
	if last != nil {
		switch status := last.Info.Status; status {
		case release.StatusDeployed:
			return AlreadyInstalled, nil
		case release.StatusFailed, release.StatusUninstalled:
			c.debug("replacing %s release %s", status, releaseName)
			replace = true
		default:
			return "", fmt.Errorf("%w: %s is %s", ErrReleaseBusy, releaseName, status)
		}
	}

	ch, err := c.loadChart(spec)
	if err != nil {
		return "", fmt.Errorf("failed to load chart %s: %w", spec.Reference(), err)
	}

	install := action.NewInstall(cfg)
	install.ReleaseName = releaseName
	install.Namespace = namespace
	install.CreateNamespace = true
	install.Version = spec.Version
	install.Replace = replace
	install.Wait = true
	install.Timeout = c.timeout

	if _, err := install.RunWithContext(ctx, ch, values.AsMap()); err != nil {
		if IsAlreadyInstalled(err) {
			return AlreadyInstalled, nil
		}
		return "", fmt.Errorf("helm install %s failed: %w", releaseName, err)
	}
	return Installed, nil
}

// ReleaseStatus returns the status of the latest revision of a release, or
// StatusNotInstalled.
func (c *Client) ReleaseStatus(namespace, releaseName string) (string, error) {
	cfg, err := c.actionConfig(namespace)
	if err != nil {
		return "", err
	}
	last, err := latestRelease(cfg, releaseName)
	if err != nil {
		return "", err
	}
	if last == nil {
		return StatusNotInstalled, nil
	}
	return last.Info.Status.String(), nil
}

// IsAlreadyInstalled reports whether an install error means the release
// name is already held.
func IsAlreadyInstalled(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, driver.ErrReleaseExists) || strings.Contains(err.Error(), reuseMessage)
}

// latestRelease returns the highest revision of name, or nil when none exists.
func latestRelease(cfg *action.Configuration, name string) (*release.Release, error) {
	history := action.NewHistory(cfg)
	history.Max = 1
	rels, err := history.Run(name)
	if errors.Is(err, driver.ErrReleaseNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", name, err)
	}

	var latest *release.Release
	for _, r := range rels {
		if latest == nil || r.Version > latest.Version {
			latest = r
		}
	}
	return latest, nil
}
