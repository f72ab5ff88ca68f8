// Package ssh provides an SSH client for executing commands on other nodes.
//
// It is used to poll the initializer for the K3s join token. The client
// authenticates with a private key and can fall back to a password prompt
// when key trust has not been set up yet. Authentication failures are fatal;
// dial failures are retried with exponential backoff.
package ssh
