// Package config loads and validates the cluster inventory.
//
// Two on-disk formats are accepted:
//   - the shell-sourceable cluster.conf used on the nodes (NODES array of
//     "name:ip:role" triples plus K3S_* / RANCHER_* scalars), parsed with
//     the real shell grammar so quoting and comments behave like bash;
//   - a YAML document with the same content, written by `k3stage init`.
//
// Loading is all-or-nothing: a file that fails to parse or validate yields an
// error and no Config.
package config
