// Package provisioning sequences the bootstrap stages on one node.
//
// # Subpackages
//
//   - host/: prerequisite packages and preparatory host setup
//   - network/: static address assignment through NetworkManager
//   - cluster/: K3s join and readiness
//   - platform/: Helm platform charts on the initializer
//
// # Core Types
//
// Context carries configuration, the resolved node identity, run state and
// every collaborator a stage needs. Stage defines a step with Name() and
// Run() methods. RunStages executes stages in order, consulting the
// persisted Checkpoint, and stops cleanly when a stage returns a
// ResumeError.
package provisioning
