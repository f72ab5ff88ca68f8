package cluster

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/k3s"
	"github.com/imamik/k3stage/internal/platform/s3"
	"github.com/imamik/k3stage/internal/provisioning"
	"github.com/imamik/k3stage/internal/util/retry"
)

// fakeInitializer serves the join token once absentChecks existence checks
// have been answered.
type fakeInitializer struct {
	mu           sync.Mutex
	token        string
	absentChecks int
	checks       int
	reads        int
	readAtCheck  int
	commands     []string
}

func (f *fakeInitializer) Execute(_ context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)

	switch {
	case strings.HasPrefix(command, "test -s"):
		f.checks++
		if f.checks <= f.absentChecks {
			return "absent\n", nil
		}
		return "present\n", nil
	case strings.HasPrefix(command, "cat "):
		f.reads++
		f.readAtCheck = f.checks
		return f.token + "\n", nil
	}
	return "", errors.New("unexpected command")
}

func (f *fakeInitializer) counts() (checks, reads, readAt int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks, f.reads, f.readAtCheck
}

func remoteFor(r k3s.RemoteExecutor) RemoteFactory {
	return func(*provisioning.Context, config.Node) (k3s.RemoteExecutor, error) {
		return r, nil
	}
}

type fakeBuckets struct {
	result  s3.BucketResult
	err     error
	buckets []string
}

func (f *fakeBuckets) EnsureBucket(_ context.Context, bucket string) (s3.BucketResult, error) {
	f.buckets = append(f.buckets, bucket)
	return f.result, f.err
}

func bucketsFor(b *fakeBuckets) BucketFactory {
	return func(context.Context, config.EtcdS3Config) (BucketEnsurer, error) {
		return b, nil
	}
}

type portCall struct {
	host string
	port int
}

type fakePorts struct {
	mu    sync.Mutex
	calls []portCall
}

func (f *fakePorts) wait(_ context.Context, host string, port int, _ retry.PollPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, portCall{host, port})
	return nil
}

type fakeAPI struct {
	apiErr  error
	nodeErr error
	nodes   []string
}

func (f *fakeAPI) WaitForAPIReady(context.Context, retry.PollPolicy) error {
	return f.apiErr
}

func (f *fakeAPI) WaitForNodeRegistered(_ context.Context, name string, _ retry.PollPolicy) error {
	f.nodes = append(f.nodes, name)
	return f.nodeErr
}
