// Package testing provides test utilities, builders, and fakes for unit tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ConfigBuilder: Fluent builder for creating test inventories
//   - FakeRunner: Scriptable shell.Runner that records every command
//   - MockRemote: testify mock for commands executed on another node
//
// Usage:
//
//	cfg := testing.NewConfigBuilder().
//	    WithMaster("master-1", "10.0.0.11").
//	    WithWorker("worker-1", "10.0.0.21").
//	    Build()
//
//	runner := testing.NewFakeRunner().
//	    On("systemctl is-active k3s", "inactive\n", nil)
package testing
