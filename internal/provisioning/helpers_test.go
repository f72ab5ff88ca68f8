package provisioning

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/imamik/k3stage/internal/node"
	testutil "github.com/imamik/k3stage/internal/testing"
)

// MockObserver is a test implementation of Observer that records output.
type MockObserver struct {
	mu       sync.Mutex
	events   []Event
	messages []string
	banners  []string
	summary  []SummaryRow
	fields   map[string]string
}

func NewMockObserver() *MockObserver {
	return &MockObserver{fields: make(map[string]string)}
}

func (m *MockObserver) Printf(format string, _ ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, format)
}

func (m *MockObserver) Event(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockObserver) Banner(stage string, _, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banners = append(m.banners, stage)
}

func (m *MockObserver) Summary(_ string, rows []SummaryRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summary = rows
}

func (m *MockObserver) WithFields(_ map[string]string) Observer {
	return m
}

func (m *MockObserver) eventsOfType(t EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// stageFunc adapts a function into a Stage.
type stageFunc struct {
	name       string
	fn         func(*Context) error
	applies    func(*Context) bool
	checkpoint bool
}

func (s *stageFunc) Name() string              { return s.name }
func (s *stageFunc) Run(ctx *Context) error    { return s.fn(ctx) }
func (s *stageFunc) Checkpointed() bool        { return s.checkpoint }
func (s *stageFunc) Applies(ctx *Context) bool { return s.applies == nil || s.applies(ctx) }

func newTestContext(t *testing.T, nodeName string) (*Context, *MockObserver) {
	t.Helper()
	cfg := testutil.NewConfigBuilder().
		WithMaster("master-1", "10.0.0.11").
		WithMaster("master-2", "10.0.0.12").
		WithWorker("worker-1", "10.0.0.21").
		WithStateDir(t.TempDir()).
		Build()
	id, err := node.Resolve(nodeName, cfg)
	require.NoError(t, err)

	obs := NewMockObserver()
	ctx := NewContext(testutil.TestContext(t), cfg, id, testutil.NewFakeRunner(), obs)
	cp, err := LoadCheckpoint(cfg.Paths.StateDir, id, false)
	require.NoError(t, err)
	ctx.Checkpoint = cp
	return ctx, obs
}
