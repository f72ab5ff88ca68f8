package helm

import "github.com/imamik/k3stage/internal/config"

// ChartSpec identifies a chart in a repository.
type ChartSpec struct {
	// RepoName is the local alias registered for Repository.
	RepoName   string
	Repository string
	Name       string
	// Version is empty for the repository's latest release.
	Version string
}

// Reference is the "<repo>/<chart>" form used by the helm CLI.
func (s ChartSpec) Reference() string {
	return s.RepoName + "/" + s.Name
}

// Platform chart names.
const (
	ChartFlannel     = "flannel"
	ChartLonghorn    = "longhorn"
	ChartCertManager = "cert-manager"
	ChartRancher     = "rancher"
)

// DefaultChartSpecs contains the default chart specifications for each
// platform release.
var DefaultChartSpecs = map[string]ChartSpec{
	ChartFlannel: {
		RepoName:   "flannel",
		Repository: "https://flannel-io.github.io/flannel/",
		Name:       "flannel",
	},
	ChartLonghorn: {
		RepoName:   "longhorn",
		Repository: "https://charts.longhorn.io",
		Name:       "longhorn",
	},
	ChartCertManager: {
		RepoName:   "jetstack",
		Repository: "https://charts.jetstack.io",
		Name:       "cert-manager",
	},
	ChartRancher: {
		RepoName:   "rancher-stable",
		Repository: "https://releases.rancher.com/server-charts/stable",
		Name:       "rancher",
	},
}

// GetChartSpec returns the chart spec for name with overrides from cfg
// applied. Unknown names yield an empty spec.
func GetChartSpec(name string, cfg config.ChartConfig) ChartSpec {
	spec, ok := DefaultChartSpecs[name]
	if !ok {
		return ChartSpec{}
	}

	if cfg.Repository != "" && cfg.Repository != spec.Repository {
		spec.Repository = cfg.Repository
		spec.RepoName = name
	}
	if cfg.Chart != "" {
		spec.Name = cfg.Chart
	}
	if cfg.Version != "" {
		spec.Version = cfg.Version
	}

	return spec
}
