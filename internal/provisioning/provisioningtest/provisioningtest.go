// Package provisioningtest provides helpers for testing stages.
package provisioningtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/config"
	"github.com/imamik/k3stage/internal/node"
	"github.com/imamik/k3stage/internal/provisioning"
	testutil "github.com/imamik/k3stage/internal/testing"
)

// Observer records everything sent to the operator channel.
type Observer struct {
	mu       sync.Mutex
	events   []provisioning.Event
	messages []string
	banners  []string
}

var _ provisioning.Observer = (*Observer)(nil)

// Printf implements provisioning.Logger.
func (o *Observer) Printf(format string, v ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages = append(o.messages, fmt.Sprintf(format, v...))
}

// Event implements provisioning.Observer.
func (o *Observer) Event(event provisioning.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

// Banner implements provisioning.Observer.
func (o *Observer) Banner(stage string, _, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.banners = append(o.banners, stage)
}

// Summary implements provisioning.Observer.
func (o *Observer) Summary(string, []provisioning.SummaryRow) {}

// WithFields implements provisioning.Observer.
func (o *Observer) WithFields(map[string]string) provisioning.Observer { return o }

// Events returns the recorded events of type t, or all when t is empty.
func (o *Observer) Events(t provisioning.EventType) []provisioning.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []provisioning.Event
	for _, e := range o.events {
		if t == "" || e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Resources returns the resource names of events of type t.
func (o *Observer) Resources(t provisioning.EventType) []string {
	var out []string
	for _, e := range o.Events(t) {
		out = append(out, e.Resource)
	}
	return out
}

// Messages returns the formatted log lines.
func (o *Observer) Messages() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.messages...)
}

// FastTimeouts returns timeouts suitable for tests.
func FastTimeouts() *config.Timeouts {
	return &config.Timeouts{
		TokenWait:      time.Second,
		CredentialWait: time.Second,
		APIReady:       time.Second,
		Rollout:        time.Second,
		PollInterval:   10 * time.Millisecond,
		SSHMaxAttempts: 1,
		SSHRetryDelay:  10 * time.Millisecond,
		HelmTimeout:    time.Second,
	}
}

// NewContext builds a stage context for nodeName in cfg, backed by a
// FakeRunner and a recording Observer.
func NewContext(t testutil.T, cfg *config.Config, nodeName string) (*provisioning.Context, *testutil.FakeRunner, *Observer) {
	t.Helper()
	id, err := node.Resolve(nodeName, cfg)
	require.NoError(t, err)

	runner := testutil.NewFakeRunner()
	obs := &Observer{}
	ctx := provisioning.NewContext(testutil.TestContext(t), cfg, id, runner, obs)
	ctx.Timeouts = FastTimeouts()
	ctx.State.StartedAt = time.Now()
	return ctx, runner, obs
}
