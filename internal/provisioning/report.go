package provisioning

import (
	"fmt"
	"strings"
	"time"

	"github.com/imamik/k3stage/internal/metrics"
)

// ReportStage prints the final status and writes run metrics.
type ReportStage struct{}

// NewReportStage creates the report stage.
func NewReportStage() *ReportStage {
	return &ReportStage{}
}

// Name implements Stage.
func (s *ReportStage) Name() string {
	return "report"
}

// Run implements Stage.
func (s *ReportStage) Run(ctx *Context) error {
	id := ctx.Identity
	rows := []SummaryRow{
		{Label: "Node", Value: id.Name()},
		{Label: "Role", Value: roleLabel(ctx)},
		{Label: "Address", Value: id.Address()},
		{Label: "Server", Value: ctx.Config.ServerURL()},
	}
	if ctx.State.KubeconfigPath != "" {
		rows = append(rows, SummaryRow{Label: "Kubeconfig", Value: ctx.State.KubeconfigPath})
	}
	if id.IsMaster() && ctx.Config.Cluster.RancherHostname != "" {
		rows = append(rows, SummaryRow{Label: "Rancher", Value: "https://" + ctx.Config.Cluster.RancherHostname})
	}
	if len(ctx.State.Releases) > 0 {
		var parts []string
		for _, r := range ctx.State.Releases {
			parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.Outcome))
		}
		rows = append(rows, SummaryRow{Label: "Platform", Value: strings.Join(parts, ", ")})
	}
	if ctx.LogFile != "" {
		rows = append(rows, SummaryRow{Label: "Log", Value: ctx.LogFile})
	}
	rows = append(rows, SummaryRow{Label: "Duration", Value: time.Since(ctx.State.StartedAt).Round(time.Second).String()})

	ctx.Observer.Summary("Node bootstrap complete", rows)

	ctx.Metrics.RecordRun(metrics.ResultSucceeded, time.Now())
	if err := ctx.Metrics.WriteTextfile(ctx.Config.Paths.MetricsTextfileDir); err != nil {
		ctx.Observer.Printf("metrics: %v", err)
	}
	return nil
}

func roleLabel(ctx *Context) string {
	if ctx.Identity.IsInitializer() {
		return "master (initializer)"
	}
	return string(ctx.Identity.Role())
}
