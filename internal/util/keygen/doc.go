// Package keygen generates SSH key pairs for node-to-node trust.
//
// The prepare command uses it to create the key a node presents when it
// fetches the join token from the initializer. Private keys are PEM
// encoded; public keys use the OpenSSH authorized_keys format.
package keygen
