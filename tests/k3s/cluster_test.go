//go:build k3s

package k3s

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"helm.sh/helm/v3/pkg/chart"

	"github.com/imamik/k3stage/internal/addons/helm"
	"github.com/imamik/k3stage/internal/k8s"
	"github.com/imamik/k3stage/internal/util/retry"
)

func pollPolicy(timeout time.Duration) retry.PollPolicy {
	p := retry.DefaultPollPolicy(timeout)
	p.Interval = time.Second
	p.MaxInterval = 5 * time.Second
	return p
}

var _ = Describe("Readiness waits", Ordered, func() {
	var client *k8s.Client

	BeforeAll(func() {
		var err error
		client, err = k8s.NewClientFromBytes(kubeconfig)
		Expect(err).NotTo(HaveOccurred())
	})

	It("sees the API server", func(ctx SpecContext) {
		Expect(client.WaitForAPIReady(ctx, pollPolicy(2*time.Minute))).To(Succeed())
	})

	It("reports the server node with its roles", func(ctx SpecContext) {
		var nodes []k8s.NodeStatus
		Eventually(func(g Gomega) {
			var err error
			nodes, err = client.NodeStatuses(ctx)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(nodes).To(HaveLen(1))
			g.Expect(nodes[0].Ready).To(BeTrue())
		}).WithContext(ctx).WithTimeout(2 * time.Minute).WithPolling(2 * time.Second).Should(Succeed())

		Expect(nodes[0].Roles).To(ContainElement("control-plane"))
		Expect(nodes[0].Version).To(ContainSubstring("k3s"))
		Expect(client.WaitForNodeReady(ctx, nodes[0].Name, pollPolicy(time.Minute))).To(Succeed())
	})

	It("waits for the bundled DNS deployment", func(ctx SpecContext) {
		Expect(client.WaitForDeploymentReady(ctx, "kube-system", "k8s-app=kube-dns", pollPolicy(3*time.Minute))).To(Succeed())
	})

	It("times out on a workload that never appears", func(ctx SpecContext) {
		err := client.WaitForDaemonSetReady(ctx, "kube-flannel", "app=flannel", pollPolicy(3*time.Second))
		Expect(err).To(MatchError(retry.ErrTimeout))
	})
})

var _ = Describe("Helm releases", Ordered, func() {
	const (
		namespace = "k3stage-it"
		name      = "probe"
	)

	var client *helm.Client

	BeforeAll(func() {
		var err error
		client, err = helm.NewClient(kubeconfig,
			helm.WithTimeout(2*time.Minute),
			helm.WithDebugLog(func(format string, v ...any) {
				GinkgoWriter.Printf("helm: "+format+"\n", v...)
			}),
			helm.WithChartLoader(func(spec helm.ChartSpec) (*chart.Chart, error) {
				return &chart.Chart{
					Metadata: &chart.Metadata{APIVersion: "v2", Name: spec.Name, Version: "0.1.0"},
					Templates: []*chart.File{{
						Name: "templates/configmap.yaml",
						Data: []byte("apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: {{ .Release.Name }}\ndata:\n  owner: k3stage\n"),
					}},
				}, nil
			}))
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports an unknown release as not installed", func() {
		status, err := client.ReleaseStatus(namespace, name)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(helm.StatusNotInstalled))
	})

	It("installs once and converges on the second run", func(ctx context.Context) {
		spec := helm.ChartSpec{Name: name}

		outcome, err := client.Install(ctx, spec, name, namespace, helm.Values{})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(helm.Installed))

		outcome, err = client.Install(ctx, spec, name, namespace, helm.Values{})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(helm.AlreadyInstalled))

		status, err := client.ReleaseStatus(namespace, name)
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal("deployed"))
	})
})
