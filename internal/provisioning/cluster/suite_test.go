package cluster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/provisioning/provisioningtest"
	testutil "github.com/imamik/k3stage/internal/testing"
)

// TestJoinScenarios runs the cross-node join scenarios.
func TestJoinScenarios(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cluster Join Scenarios")
}

var _ = Describe("Two-node cluster", func() {
	var (
		cfg    *config.Config
		tmpDir string
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		cfg = testutil.NewConfigBuilder().
			WithMaster("node-1", "10.0.0.1").
			WithWorker("node-2", "10.0.0.2").
			WithInitNode("node-1").
			WithStateDir(tmpDir).
			Build()
	})

	newStage := func(remote *fakeInitializer) *JoinStage {
		creds := filepath.Join(tmpDir, "kubelet.kubeconfig")
		Expect(os.WriteFile(creds, []byte("apiVersion: v1\n"), 0o600)).To(Succeed())
		ports := &fakePorts{}
		return &JoinStage{
			NewRemote:       remoteFor(remote),
			WaitForServer:   ports.wait,
			ConfigPath:      filepath.Join(tmpDir, "config.yaml"),
			CredentialsPath: creds,
		}
	}

	Context("when node-2 joins before the initializer has a token", func() {
		It("blocks until the token exists and joins with it", func() {
			remote := &fakeInitializer{token: "abc123", absentChecks: 4}
			ctx, runner, _ := provisioningtest.NewContext(GinkgoT(), cfg, "node-2")

			Expect(newStage(remote).Run(ctx)).To(Succeed())

			checks, reads, readAt := remote.counts()
			Expect(checks).To(Equal(5))
			Expect(reads).To(Equal(1))
			Expect(readAt).To(Equal(5), "the token is read once, after the poll that found it")

			cmd, ok := runner.Find("curl -sfL")
			Expect(ok).To(BeTrue())
			Expect(cmd.Env).To(HaveKeyWithValue("K3S_TOKEN", "abc123"))
			Expect(cmd.Env).To(HaveKeyWithValue("K3S_URL", "https://10.0.0.1:6443"))
			Expect(testutil.Line(cmd)).To(HaveSuffix("sh -s - agent"))
		})
	})

	Context("when node-1 runs", func() {
		It("bootstraps without asking anyone for a token", func() {
			remote := &fakeInitializer{}
			ctx, runner, _ := provisioningtest.NewContext(GinkgoT(), cfg, "node-1")

			Expect(newStage(remote).Run(ctx)).To(Succeed())

			Expect(remote.commands).To(BeEmpty())
			Expect(runner.Ran("server --cluster-init")).To(BeTrue())
		})
	})

	Context("when the hostname is not in the inventory", func() {
		It("refuses to resolve an identity", func() {
			_, err := node.Resolve("node-9", cfg)
			Expect(err).To(MatchError(node.ErrNodeNotRegistered))
		})
	})

	Context("when the initializer never publishes a token", func() {
		It("gives up after the configured wait", func(ctx SpecContext) {
			remote := &fakeInitializer{absentChecks: 1 << 30}
			pctx, runner, _ := provisioningtest.NewContext(GinkgoT(), cfg, "node-2")
			pctx.Context = ctx
			pctx.Timeouts.TokenWait = 200 * time.Millisecond

			err := newStage(remote).Run(pctx)

			Expect(err).To(HaveOccurred())
			Expect(runner.Ran("curl")).To(BeFalse())
		}, SpecTimeout(5*time.Second))
	})
})
