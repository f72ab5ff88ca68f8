package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/imamik/k3stage/internal/addons"
	"github.com/imamik/k3stage/internal/addons/helm"
	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/k3s"
	"github.com/imamik/k3stage/internal/k8s"
	"github.com/imamik/k3stage/internal/util/async"
)

// NodeLister reads cluster node state.
type NodeLister interface {
	NodeStatuses(ctx context.Context) ([]k8s.NodeStatus, error)
}

// ReleaseReader reads Helm release state.
type ReleaseReader interface {
	ReleaseStatus(namespace, releaseName string) (string, error)
}

// Factory function variables for status - can be replaced in tests.
var (
	readKubeconfig = os.ReadFile

	newNodeLister = func(kubeconfig []byte) (NodeLister, error) {
		return k8s.NewClientFromBytes(kubeconfig)
	}

	newReleaseReader = func(kubeconfig []byte) (ReleaseReader, error) {
		return helm.NewClient(kubeconfig)
	}
)

// ClusterStatus is the status command's report.
type ClusterStatus struct {
	Nodes    []NodeHealth    `json:"nodes"`
	Missing  []string        `json:"missing,omitempty"`
	Releases []ReleaseHealth `json:"releases"`
}

// NodeHealth is one registered node.
type NodeHealth struct {
	Name       string   `json:"name"`
	Ready      bool     `json:"ready"`
	Roles      []string `json:"roles,omitempty"`
	Version    string   `json:"version"`
	InternalIP string   `json:"internalIP,omitempty"`
	// Listed reports whether the node appears in the inventory.
	Listed bool `json:"listed"`
}

// ReleaseHealth is one platform release.
type ReleaseHealth struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Status    string `json:"status"`
}

// Status shows node readiness and platform release state. It needs the
// kubeconfig of a master, so it is meant to run on one.
func Status(ctx context.Context, configPath, kubeconfigPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if kubeconfigPath == "" {
		kubeconfigPath = k3s.ServerKubeconfigPath
	}

	kubeconfig, err := readKubeconfig(kubeconfigPath)
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig %s (is this a master?): %w", kubeconfigPath, err)
	}

	status, err := gatherStatus(ctx, cfg, kubeconfig)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printStatusJSON(status)
	}
	printStatusFormatted(cfg, status)
	return nil
}

// gatherStatus queries the API server and the release store concurrently.
func gatherStatus(ctx context.Context, cfg *config.Config, kubeconfig []byte) (*ClusterStatus, error) {
	status := &ClusterStatus{}
	var mu sync.Mutex

	tasks := []async.Task{
		{Name: "nodes", Func: func(ctx context.Context) error {
			lister, err := newNodeLister(kubeconfig)
			if err != nil {
				return err
			}
			nodes, err := lister.NodeStatuses(ctx)
			if err != nil {
				return err
			}
			health, missing := compareInventory(cfg, nodes)
			mu.Lock()
			defer mu.Unlock()
			status.Nodes, status.Missing = health, missing
			return nil
		}},
		{Name: "releases", Func: func(context.Context) error {
			reader, err := newReleaseReader(kubeconfig)
			if err != nil {
				return err
			}
			var releases []ReleaseHealth
			for _, r := range addons.Releases(cfg) {
				state, err := reader.ReleaseStatus(r.Namespace, r.Name)
				if err != nil {
					return fmt.Errorf("%s: %w", r.Name, err)
				}
				releases = append(releases, ReleaseHealth{Name: r.Name, Namespace: r.Namespace, Status: state})
			}
			mu.Lock()
			defer mu.Unlock()
			status.Releases = releases
			return nil
		}},
	}

	if err := async.RunParallel(ctx, tasks); err != nil {
		return nil, fmt.Errorf("failed to read cluster status: %w", err)
	}
	return status, nil
}

// compareInventory marks which registered nodes are listed and returns the
// inventory names that have not registered yet.
func compareInventory(cfg *config.Config, nodes []k8s.NodeStatus) ([]NodeHealth, []string) {
	registered := make(map[string]bool, len(nodes))
	health := make([]NodeHealth, 0, len(nodes))
	for _, n := range nodes {
		registered[n.Name] = true
		_, listed := cfg.NodeByName(n.Name)
		health = append(health, NodeHealth{
			Name:       n.Name,
			Ready:      n.Ready,
			Roles:      n.Roles,
			Version:    n.Version,
			InternalIP: n.InternalIP,
			Listed:     listed,
		})
	}

	var missing []string
	for _, n := range cfg.Nodes {
		if !registered[n.Name] {
			missing = append(missing, n.Name)
		}
	}
	slices.Sort(missing)
	return health, missing
}

func printStatusJSON(status *ClusterStatus) error {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

func printStatusFormatted(cfg *config.Config, status *ClusterStatus) {
	ready := 0
	for _, n := range status.Nodes {
		if n.Ready {
			ready++
		}
	}
	fmt.Fprintf(stdout, "k3stage cluster: %s\n", cfg.ServerURL())
	fmt.Fprintln(stdout, "-------------------------------------")
	fmt.Fprintln(stdout)

	fmt.Fprintf(stdout, "Nodes (%d/%d ready):\n", ready, len(cfg.Nodes))
	for _, n := range status.Nodes {
		extra := strings.TrimSpace(strings.Join(n.Roles, ",") + " " + n.Version)
		if !n.Listed {
			extra += " (not in inventory)"
		}
		printStatusLine(n.Name, n.Ready, extra)
	}
	for _, name := range status.Missing {
		printStatusLine(name, false, "(not registered)")
	}
	fmt.Fprintln(stdout)

	fmt.Fprintln(stdout, "Platform:")
	for _, r := range status.Releases {
		printStatusLine(r.Name, r.Status == "deployed", "("+r.Status+")")
	}
}

// printStatusLine prints a single status line with indicator.
func printStatusLine(name string, ready bool, extra string) {
	indicator := "○"
	if ready {
		indicator = "✓"
	}
	if extra != "" {
		fmt.Fprintf(stdout, "  %s %s %s\n", indicator, name, extra)
		return
	}
	fmt.Fprintf(stdout, "  %s %s\n", indicator, name)
}
