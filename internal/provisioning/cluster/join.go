package cluster

import (
	"context"
	"fmt"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/k3s"
	"github.com/imamik/k3stage/internal/platform/s3"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/util/netutil"
	"github.com/imamik/k3stage/internal/util/retry"
)

const joinStage = "join"

// BucketEnsurer makes sure the etcd snapshot bucket exists.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context, bucket string) (s3.BucketResult, error)
}

// BucketFactory creates a BucketEnsurer for the snapshot target.
type BucketFactory func(ctx context.Context, cfg config.EtcdS3Config) (BucketEnsurer, error)

// PortWaiter blocks until host:port accepts connections.
type PortWaiter func(ctx context.Context, host string, port int, policy retry.PollPolicy) error

// NewS3Buckets is the default BucketFactory.
func NewS3Buckets(ctx context.Context, cfg config.EtcdS3Config) (BucketEnsurer, error) {
	return s3.NewClient(ctx, s3.Options{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
	})
}

// JoinStage installs K3s in the mode the node's role calls for.
type JoinStage struct {
	NewRemote     RemoteFactory
	NewBuckets    BucketFactory
	WaitForServer PortWaiter

	// ConfigPath and CredentialsPath override the K3s file locations.
	ConfigPath      string
	CredentialsPath string
}

// NewJoinStage creates the join stage with its production collaborators.
func NewJoinStage() *JoinStage {
	return &JoinStage{
		NewRemote:     DialInitializer,
		NewBuckets:    NewS3Buckets,
		WaitForServer: netutil.WaitForPort,
	}
}

// Name implements provisioning.Stage.
func (s *JoinStage) Name() string { return joinStage }

// Checkpointed implements provisioning.Checkpointed.
func (s *JoinStage) Checkpointed() bool { return true }

// Run implements provisioning.Stage.
func (s *JoinStage) Run(ctx *provisioning.Context) error {
	id := ctx.Identity
	installer := k3s.NewInstaller(ctx.Runner)
	if s.ConfigPath != "" {
		installer = installer.WithConfigPath(s.ConfigPath)
	}

	mode := k3s.ModeFor(id)
	service := k3s.Plan{Mode: mode}.Service()
	active, err := installer.ServiceActive(ctx, service)
	if err != nil {
		return err
	}
	if active {
		provisioning.LogResourceExists(ctx.Observer, joinStage, "service", service)
		// An active unit from an earlier attempt may never have registered.
		plan := k3s.Plan{Mode: mode}
		if err := s.waitForCredentials(ctx, plan); err != nil {
			return err
		}
		s.recordCredentials(ctx, plan)
		return nil
	}

	if id.IsInitializer() && ctx.Config.EtcdS3.Enabled() {
		if err := s.ensureSnapshotBucket(ctx); err != nil {
			return err
		}
	}

	var token string
	if !id.IsInitializer() {
		if token, err = s.fetchToken(ctx); err != nil {
			return err
		}
		if err := s.waitForSupervisor(ctx); err != nil {
			return err
		}
	}

	plan := k3s.NewPlan(id, ctx.Config, token)
	if err := installer.WriteConfig(k3s.BuildNodeConfig(id, ctx.Config)); err != nil {
		return err
	}
	ctx.Observer.Printf("[%s] wrote %s", joinStage, installer.ConfigPath())

	ctx.Observer.Printf("[%s] running %s", joinStage, plan.Command())
	if err := installer.Install(ctx, plan); err != nil {
		return err
	}
	if err := installer.EnableService(ctx, plan); err != nil {
		return err
	}
	provisioning.LogResourceCreated(ctx.Observer, joinStage, "service", plan.Service())

	if err := s.waitForCredentials(ctx, plan); err != nil {
		return err
	}

	ctx.State.Token = token
	s.recordCredentials(ctx, plan)
	return nil
}

func (s *JoinStage) ensureSnapshotBucket(ctx *provisioning.Context) error {
	etcd := ctx.Config.EtcdS3
	buckets, err := s.NewBuckets(ctx, etcd)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}
	result, err := buckets.EnsureBucket(ctx, etcd.Bucket)
	if err != nil {
		return fmt.Errorf("failed to ensure etcd snapshot bucket: %w", err)
	}
	if result == s3.BucketCreated {
		provisioning.LogResourceCreated(ctx.Observer, joinStage, "bucket", etcd.Bucket)
	} else {
		provisioning.LogResourceExists(ctx.Observer, joinStage, "bucket", etcd.Bucket)
	}
	return nil
}

func (s *JoinStage) fetchToken(ctx *provisioning.Context) (string, error) {
	init := ctx.Identity.Initializer
	remote, err := s.NewRemote(ctx, init)
	if err != nil {
		return "", fmt.Errorf("failed to connect to initializer %s: %w", init.Name, err)
	}

	provisioning.LogWaiting(ctx.Observer, joinStage, "join token on "+init.Name, ctx.Timeouts.TokenWait)
	fetcher := &k3s.TokenFetcher{
		Remote: remote,
		Sudo:   ctx.Config.SSH.User != "root",
		Policy: ctx.PollPolicy(ctx.Timeouts.TokenWait),
		Log:    ctx.Observer,
	}
	token, err := fetcher.Fetch(ctx)
	if err != nil {
		return "", err
	}
	provisioning.LogResourceExists(ctx.Observer, joinStage, "join token", init.Name)
	return token, nil
}

func (s *JoinStage) waitForSupervisor(ctx *provisioning.Context) error {
	if s.WaitForServer == nil {
		return nil
	}
	init := ctx.Identity.Initializer
	port := ctx.Config.Cluster.ServerPort
	provisioning.LogWaiting(ctx.Observer, joinStage, fmt.Sprintf("%s:%d", init.Address, port), ctx.Timeouts.APIReady)
	return s.WaitForServer(ctx, init.Address, port, ctx.PollPolicy(ctx.Timeouts.APIReady))
}

func (s *JoinStage) waitForCredentials(ctx *provisioning.Context, plan k3s.Plan) error {
	credentials := s.credentialsPath(plan)
	provisioning.LogWaiting(ctx.Observer, joinStage, credentials, ctx.Timeouts.CredentialWait)
	return k3s.WaitForFile(ctx, credentials, ctx.PollPolicy(ctx.Timeouts.CredentialWait))
}

func (s *JoinStage) credentialsPath(plan k3s.Plan) string {
	if s.CredentialsPath != "" {
		return s.CredentialsPath
	}
	return plan.CredentialsPath()
}

func (s *JoinStage) recordCredentials(ctx *provisioning.Context, plan k3s.Plan) {
	if plan.Mode.IsServer() {
		ctx.State.KubeconfigPath = s.credentialsPath(plan)
	}
}
