// Package addons installs the platform services on a fresh cluster.
//
// Releases are installed in dependency order:
//
//  1. Flannel, the pod network (K3s runs with its bundled flannel disabled)
//  2. Longhorn, distributed block storage
//  3. cert-manager, certificate issuance Rancher depends on
//  4. Rancher, the management UI
//
// Every step converges: repositories already registered and releases already
// deployed are reported as such and left alone.
package addons
