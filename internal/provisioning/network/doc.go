// Package network assigns the node's static inventory address.
//
// Activating a new address drops the SSH session the operator is running
// k3stage in, so activation is handed to a transient systemd timer and the
// run pauses. The operator reconnects at the new address and runs again;
// the second run finds the address bound and moves on.
package network
